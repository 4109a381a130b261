package classify

import (
	"errors"

	"github.com/huangsam/cohort/internal/contract"
)

// ErrNotConfigured means neither a classification service nor a class table is set.
var ErrNotConfigured = errors.New("no classifier-url or classes-file configured")

// NewFromConfig assembles the classification chain: the optional class table first,
// then the remote service behind the class cache.
func NewFromConfig(cfg *contract.Config, cache contract.ClassCache) (contract.ClassificationService, error) {
	var remote contract.ClassificationService
	if cfg.ClassifierURL != "" {
		remote = NewCachedService(NewHTTPClient(cfg.ClassifierURL, cfg.ClassifierTimeout), cache)
	}

	if cfg.ClassesFile != "" {
		return LoadTable(cfg.ClassesFile, remote)
	}
	if remote == nil {
		return nil, ErrNotConfigured
	}
	return remote, nil
}
