package classify

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/huangsam/cohort/internal/contract"
)

// Table is a static code -> class mapping, keyed by code system.
// Codes missing from the table fall through to next when it is set.
type Table struct {
	classes map[string]map[string]string
	next    contract.ClassificationService
}

var _ contract.ClassificationService = &Table{} // Compile-time check

// ParseTable decodes a YAML class table of the form
//
//	hc-din:
//	  "02242963": statins
//	whoatc:
//	  C10AA05: statins
func ParseTable(data []byte, next contract.ClassificationService) (*Table, error) {
	raw := make(map[string]map[string]string)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("cannot parse class table: %w", err)
	}
	t := &Table{classes: make(map[string]map[string]string, len(raw)), next: next}
	for system, codes := range raw {
		system = strings.ToLower(system)
		if _, ok := routes[system]; !ok {
			return nil, fmt.Errorf("class table: %w: %q", contract.ErrUnsupportedCodeSystem, system)
		}
		t.classes[system] = codes
	}
	return t, nil
}

// LoadTable reads a YAML class table from disk.
func LoadTable(path string, next contract.ClassificationService) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read class table: %w", err)
	}
	return ParseTable(data, next)
}

// Classify implements the ClassificationService interface.
func (t *Table) Classify(ctx context.Context, code, codeSystem string) (string, error) {
	system := strings.ToLower(codeSystem)
	if _, ok := routes[system]; !ok {
		return "", fmt.Errorf("%w: %q", contract.ErrUnsupportedCodeSystem, codeSystem)
	}
	if class, ok := t.classes[system][code]; ok && class != "" {
		return class, nil
	}
	if t.next != nil {
		return t.next.Classify(ctx, code, codeSystem)
	}
	return "", fmt.Errorf("%w: %s %s", contract.ErrClassNotFound, codeSystem, code)
}

// Len returns the number of codes in the table.
func (t *Table) Len() int {
	n := 0
	for _, codes := range t.classes {
		n += len(codes)
	}
	return n
}
