package optstore

import (
	"fmt"

	"github.com/dgraph-io/ristretto"
)

// ProgramCacheConfig sizes a RistrettoProgramCache. Every program costs 1,
// so MaxPrograms bounds the number of cached entries.
type ProgramCacheConfig struct {
	MaxPrograms int64
	NumCounters int64
}

func (cfg ProgramCacheConfig) withDefaults() ProgramCacheConfig {
	if cfg.MaxPrograms <= 0 {
		cfg.MaxPrograms = 1024
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = cfg.MaxPrograms * 10
	}
	return cfg
}

// RistrettoProgramCache is a bounded ProgramCache backed by ristretto. It is
// safe for concurrent use and may be shared by several evaluators.
type RistrettoProgramCache struct {
	cache *ristretto.Cache
}

// NewRistrettoProgramCache constructs a bounded program cache.
func NewRistrettoProgramCache(cfg ProgramCacheConfig) (*RistrettoProgramCache, error) {
	cfg = cfg.withDefaults()
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxPrograms,
		BufferItems: 64,
		// Cost is the entry count; ristretto's per-item overhead would
		// otherwise shrink the budget.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("optstore: program cache: %w", err)
	}
	return &RistrettoProgramCache{cache: cache}, nil
}

// Get implements ProgramCache.
func (c *RistrettoProgramCache) Get(key string) (any, bool) {
	if c == nil || c.cache == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// Set implements ProgramCache. Ristretto applies writes asynchronously; Set
// waits for the buffer to drain so the program is visible to the next Get.
func (c *RistrettoProgramCache) Set(key string, value any) {
	if c == nil || c.cache == nil {
		return
	}
	if c.cache.Set(key, value, 1) {
		c.cache.Wait()
	}
}

// Close releases the cache's background goroutines.
func (c *RistrettoProgramCache) Close() {
	if c == nil || c.cache == nil {
		return
	}
	c.cache.Close()
}
