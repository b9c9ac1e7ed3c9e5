package search

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/litescript/alkaid/internal/metrics"
)

// DefaultCacheSize is the number of queries kept.
const DefaultCacheSize = 50

// Cache is an LRU of query results. A nil Cache never hits.
type Cache struct {
	lru     *lru.Cache[string, []Place]
	metrics *metrics.Collector
}

// NewCache creates a cache holding size queries.
func NewCache(size int, m *metrics.Collector) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	l, err := lru.New[string, []Place](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l, metrics: m}, nil
}

// CacheKey normalizes a query: trimmed and lowercased.
func CacheKey(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}

// Get looks up a normalized key.
func (c *Cache) Get(key string) ([]Place, bool) {
	if c == nil {
		return nil, false
	}
	places, ok := c.lru.Get(key)
	c.metrics.CacheLookup(ok)
	return places, ok
}

// Add stores places under a normalized key.
func (c *Cache) Add(key string, places []Place) {
	if c == nil {
		return
	}
	c.lru.Add(key, places)
}

// Len is the number of cached queries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.lru.Len()
}

// Purge drops every entry.
func (c *Cache) Purge() {
	if c == nil {
		return
	}
	c.lru.Purge()
}
