package membership

import (
	"time"

	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
	"github.com/haukened/bloomd/internal/bloomd/repos/bloom"
)

// Stats is a point-in-time view of the service.
type Stats struct {
	Configured      bool
	Members         int
	FilterSize      uint64
	Hashes          []string
	SetBits         uint64
	EstimatedFPRate float64
	RecommendedSize uint64 // bits for Members keys at 1% false positives
	RecommendedK    uint
	Cache           blacklist.CacheStats
	LastUpdate      time.Time
	// StoreVersion and StoreUpdated come from stores implementing
	// blacklist.Versioned; they stay zero otherwise.
	StoreVersion uint64
	StoreUpdated time.Time
}

// Stats collects counters under the service lock.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{LastUpdate: s.lastUpdate}
	if s.cache != nil {
		st.Cache = s.cache.Stats()
	}
	if s.filter == nil {
		return st
	}
	n, err := s.store.Len()
	if err != nil {
		s.logger.Warn(map[string]any{"error": err.Error()}, "Exact store length unavailable")
	}
	st.Configured = true
	st.Members = n
	st.FilterSize = s.filter.Size()
	st.Hashes = s.filter.HashNames()
	st.SetBits = s.filter.SetBits()
	st.EstimatedFPRate = bloom.EstimateFalsePositiveRate(st.FilterSize, s.filter.HashCount(), uint64(n))
	st.RecommendedSize, st.RecommendedK = bloom.Recommend(uint64(n), 0.01)
	if v, ok := s.store.(blacklist.Versioned); ok {
		version, updated, err := v.Meta()
		if err != nil {
			s.logger.Warn(map[string]any{"error": err.Error()}, "Exact store metadata unavailable")
		} else {
			st.StoreVersion = version
			if updated != 0 {
				st.StoreUpdated = time.Unix(updated, 0).UTC()
			}
		}
	}
	return st
}

// Fields flattens the stats for structured logging.
func (st Stats) Fields() map[string]any {
	return map[string]any{
		"configured":       st.Configured,
		"members":          st.Members,
		"filter_size":      st.FilterSize,
		"hashes":           st.Hashes,
		"set_bits":         st.SetBits,
		"fp_rate":          st.EstimatedFPRate,
		"recommended_size": st.RecommendedSize,
		"recommended_k":    st.RecommendedK,
		"cache_hits":       st.Cache.Hits,
		"cache_misses":     st.Cache.Misses,
		"cache_evictions":  st.Cache.Evictions,
		"last_update":      st.LastUpdate,
		"store_version":    st.StoreVersion,
		"store_updated":    st.StoreUpdated,
	}
}
