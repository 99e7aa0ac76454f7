package session

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/mmcdole/scout/internal/domain"
)

// DefaultCacheSize is the number of result sets kept per session
const DefaultCacheSize = 64

// CacheEntry is the most recent successful result for a query key
type CacheEntry struct {
	Result   *domain.ResultSet
	StoredAt time.Time
}

// resultCache is a bounded LRU of result sets. Not safe for concurrent use;
// the orchestrator guards it with the same lock as the generation counter.
type resultCache struct {
	entries *simplelru.LRU[string, CacheEntry]
	ttl     time.Duration
}

func newResultCache(size int, ttl time.Duration) (*resultCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	entries, err := simplelru.NewLRU[string, CacheEntry](size, nil)
	if err != nil {
		return nil, err
	}
	return &resultCache{entries: entries, ttl: ttl}, nil
}

// get returns a live entry and marks it most recently used.
// Expired entries are removed and reported as misses.
func (c *resultCache) get(key string, now time.Time) (*domain.ResultSet, bool) {
	entry, ok := c.entries.Get(key)
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && now.Sub(entry.StoredAt) > c.ttl {
		c.entries.Remove(key)
		return nil, false
	}
	return entry.Result, true
}

// put stores rs under key, evicting the least recently used entry when full.
// It reports whether an eviction happened.
func (c *resultCache) put(key string, rs *domain.ResultSet, now time.Time) bool {
	return c.entries.Add(key, CacheEntry{Result: rs, StoredAt: now})
}

func (c *resultCache) contains(key string) bool {
	return c.entries.Contains(key)
}

func (c *resultCache) len() int {
	return c.entries.Len()
}

func (c *resultCache) purge() {
	c.entries.Purge()
}
