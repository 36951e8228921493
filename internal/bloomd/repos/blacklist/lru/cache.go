package lru

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/bloomd/internal/bloomd/domain"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
)

// checkCache is an LRU-backed blacklist.CheckCache tracking hits, misses and
// evictions.
type checkCache struct {
	lru       *lru.Cache[string, domain.Outcome]
	capacity  int
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// disabledCache always misses.
type disabledCache struct{}

// New creates a cache holding up to size outcomes. size <= 0 disables caching.
func New(size int) (blacklist.CheckCache, error) {
	if size <= 0 {
		return &disabledCache{}, nil
	}
	c := &checkCache{capacity: size}
	inner, err := lru.NewWithEvict(size, func(string, domain.Outcome) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, err
	}
	c.lru = inner
	return c, nil
}

func (c *checkCache) Get(url string) (domain.Outcome, bool) {
	if o, ok := c.lru.Get(url); ok {
		c.hits.Add(1)
		return o, true
	}
	c.misses.Add(1)
	return domain.Outcome{}, false
}

func (c *checkCache) Put(url string, o domain.Outcome) { c.lru.Add(url, o) }

func (c *checkCache) Remove(url string) { c.lru.Remove(url) }

func (c *checkCache) Len() int { return c.lru.Len() }

// Purge drops every entry; each one counts as an eviction.
func (c *checkCache) Purge() { c.lru.Purge() }

func (c *checkCache) Stats() blacklist.CacheStats {
	return blacklist.CacheStats{
		Capacity:  c.capacity,
		Size:      c.lru.Len(),
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
	}
}

func (d *disabledCache) Get(string) (domain.Outcome, bool) { return domain.Outcome{}, false }
func (d *disabledCache) Put(string, domain.Outcome)        {}
func (d *disabledCache) Remove(string)                     {}
func (d *disabledCache) Len() int                          { return 0 }
func (d *disabledCache) Purge()                            {}
func (d *disabledCache) Stats() blacklist.CacheStats       { return blacklist.CacheStats{} }

var (
	_ blacklist.CheckCache = (*checkCache)(nil)
	_ blacklist.CheckCache = (*disabledCache)(nil)
)
