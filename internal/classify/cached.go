package classify

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/huangsam/cohort/internal/contract"
)

// currentCacheVersion defines the version of the cached entry layout
const currentCacheVersion = 1

// cacheTTL bounds how long a cached class is trusted
const cacheTTL = 30 * 24 * time.Hour

// CachedService memoizes another service's answers in a ClassCache.
// Only successful lookups are cached.
type CachedService struct {
	next  contract.ClassificationService
	cache contract.ClassCache
}

var _ contract.ClassificationService = &CachedService{} // Compile-time check

// NewCachedService wraps next with cache. A nil cache disables caching.
func NewCachedService(next contract.ClassificationService, cache contract.ClassCache) *CachedService {
	return &CachedService{next: next, cache: cache}
}

// Classify implements the ClassificationService interface.
func (s *CachedService) Classify(ctx context.Context, code, codeSystem string) (string, error) {
	if s.cache == nil {
		return s.next.Classify(ctx, code, codeSystem)
	}

	key := cacheKey(code, codeSystem)
	if class, ok := checkCacheHit(s.cache, key); ok {
		return class, nil
	}

	class, err := s.next.Classify(ctx, code, codeSystem)
	if err != nil {
		return "", err
	}
	if data, err := json.Marshal(classResponse{Class: class}); err == nil {
		if err := s.cache.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Cannot cache drug class", err)
		}
	}
	return class, nil
}

// checkCacheHit attempts to retrieve and validate a cached class
func checkCacheHit(cache contract.ClassCache, key string) (string, bool) {
	data, version, ts, err := cache.Get(key)
	if err != nil {
		return "", false // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return "", false // Stale or version mismatch
	}
	var entry classResponse
	if err := json.Unmarshal(data, &entry); err != nil || entry.Class == "" {
		return "", false
	}
	return entry.Class, true
}

func cacheKey(code, codeSystem string) string {
	return "class:" + strings.ToLower(codeSystem) + ":" + code
}
