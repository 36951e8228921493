// Package blacklist defines the exact membership store that confirms or
// refutes Bloom filter positives, plus the check-outcome cache.
package blacklist

import "github.com/haukened/bloomd/internal/bloomd/domain"

// Store is the authoritative set of blacklisted URLs.
//
// Insert and Remove persist before they return; when persistence fails the
// in-memory view is left unchanged and the error is returned.
type Store interface {
	// Load reads previously persisted members. A missing backing file is an
	// empty store, not an error.
	Load() error
	Contains(url string) (bool, error)
	Insert(url string) error
	Remove(url string) error
	// Members enumerates every member exactly once, in no particular order.
	Members() ([]string, error)
	Len() (int, error)
	Close() error
}

// Versioned is implemented by stores that track their own mutations.
type Versioned interface {
	// Meta returns the mutation counter and the unix time of the last
	// mutation. Both are zero for a store never written.
	Meta() (version uint64, updatedUnix int64, err error)
}

// CheckCache caches Check outcomes by URL with basic metrics.
type CheckCache interface {
	Get(url string) (domain.Outcome, bool)
	Put(url string, o domain.Outcome)
	Remove(url string)
	Len() int
	Purge()
	Stats() CacheStats
}

// CacheStats is a best-effort snapshot of cache counters.
type CacheStats struct {
	Capacity  int
	Size      int
	Hits      uint64
	Misses    uint64
	Evictions uint64
}
