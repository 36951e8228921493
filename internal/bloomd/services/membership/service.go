// Package membership is the command layer: it owns the Bloom filter and the
// exact store together and turns Add, Check and Delete into outcomes.
//
// A single mutex guards both structures, every command, and the file writes a
// command performs, so commands from concurrent sessions are linearizable.
package membership

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/haukened/bloomd/internal/bloomd/common/clock"
	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/domain"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
	"github.com/haukened/bloomd/internal/bloomd/repos/bloom"
)

// ErrNotConfigured is logged when a command arrives before Configure.
var ErrNotConfigured = errors.New("filter not configured")

// Options wires a Service.
type Options struct {
	Store         blacklist.Store
	Cache         blacklist.CheckCache // nil disables caching
	FilterPath    string               // canonical snapshot location
	HashFamily    bloom.Family
	MaxFilterSize uint64 // 0 means unbounded
	MaxIterations uint64 // iterative family only; 0 means unbounded
	Clock         clock.Clock
	Logger        log.Logger
}

type Service struct {
	mu sync.Mutex

	store      blacklist.Store
	cache      blacklist.CheckCache
	filterPath string
	family     bloom.Family
	maxSize    uint64
	maxIter    uint64
	clock      clock.Clock
	logger     log.Logger

	spec       *domain.FilterSpec
	filter     *bloom.Filter
	lastUpdate time.Time
}

// New returns an unconfigured Service.
func New(opts Options) *Service {
	s := &Service{
		store:      opts.Store,
		cache:      opts.Cache,
		filterPath: opts.FilterPath,
		family:     opts.HashFamily,
		maxSize:    opts.MaxFilterSize,
		maxIter:    opts.MaxIterations,
		clock:      opts.Clock,
		logger:     opts.Logger,
	}
	if s.clock == nil {
		s.clock = clock.RealClock{}
	}
	if s.logger == nil {
		s.logger = log.NewNoopLogger()
	}
	if s.family == "" {
		s.family = bloom.FamilyIterative
	}
	return s
}

// Configure builds the filter for spec, loads the persisted snapshot and the
// exact store, and makes the service ready.
//
// The first successful call wins. A later call with an identical spec is a
// no-op; a different spec is rejected with domain.ErrConfig so sessions
// sharing this service cannot disagree about the filter shape.
func (s *Service) Configure(spec domain.FilterSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.spec != nil {
		if s.spec.Equal(spec) {
			return nil
		}
		return fmt.Errorf("%w: filter already configured as %q", domain.ErrConfig, s.spec.String())
	}
	if s.maxSize > 0 && spec.Size > s.maxSize {
		return fmt.Errorf("%w: size %d exceeds maximum %d", domain.ErrConfig, spec.Size, s.maxSize)
	}
	if s.family == bloom.FamilyIterative && s.maxIter > 0 {
		for _, n := range spec.Hashes {
			if n > s.maxIter {
				return fmt.Errorf("%w: %d iterations exceeds maximum %d", domain.ErrConfig, n, s.maxIter)
			}
		}
	}

	hashes, err := bloom.NewHashFuncs(s.family, spec.Hashes)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}
	f, err := bloom.New(spec.Size, hashes)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrConfig, err)
	}

	if err := s.store.Load(); err != nil {
		return fmt.Errorf("load exact store: %w", err)
	}
	members, err := s.store.Members()
	if err != nil {
		return fmt.Errorf("list exact store: %w", err)
	}

	resave := s.loadSnapshot(f)
	// Re-adding members only sets bits that should already be set; it
	// restores them when the snapshot was missing or rejected.
	before := f.SetBits()
	for _, u := range members {
		f.Add(u)
	}
	if f.SetBits() != before {
		resave = true
	}
	if resave {
		if err := f.SaveFile(s.filterPath); err != nil {
			return fmt.Errorf("save filter snapshot: %w", err)
		}
	}

	s.filter = f
	cp := domain.FilterSpec{Size: spec.Size, Hashes: append([]uint64(nil), spec.Hashes...)}
	s.spec = &cp
	s.lastUpdate = s.clock.Now()
	s.purgeCache()

	s.logger.Info(map[string]any{
		"size":     spec.Size,
		"hashes":   f.HashNames(),
		"members":  len(members),
		"set_bits": f.SetBits(),
		"fp_rate":  bloom.EstimateFalsePositiveRate(spec.Size, f.HashCount(), uint64(len(members))),
	}, "Filter configured")
	return nil
}

// loadSnapshot reads the canonical snapshot into f and reports whether the
// file should be rewritten afterwards.
func (s *Service) loadSnapshot(f *bloom.Filter) bool {
	err := f.LoadFile(s.filterPath)
	switch {
	case err == nil:
		s.logger.Debug(map[string]any{"path": s.filterPath, "set_bits": f.SetBits()}, "Filter snapshot loaded")
		return false
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug(map[string]any{"path": s.filterPath}, "No filter snapshot, starting empty")
		return true
	default:
		s.logger.Warn(map[string]any{"path": s.filterPath, "error": err.Error()}, "Filter snapshot rejected, rebuilding from exact store")
		return true
	}
}

// Configured reports whether Configure has succeeded.
func (s *Service) Configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec != nil
}

// Spec returns the active configuration.
func (s *Service) Spec() (domain.FilterSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.spec == nil {
		return domain.FilterSpec{}, false
	}
	return *s.spec, true
}

// Execute dispatches cmd to Add, Check or Delete.
func (s *Service) Execute(cmd domain.Command) domain.Outcome {
	switch cmd.Verb {
	case domain.VerbAdd:
		return s.Add(cmd.URL)
	case domain.VerbCheck:
		return s.Check(cmd.URL)
	case domain.VerbDelete:
		return s.Delete(cmd.URL)
	default:
		return domain.NewOutcome(domain.StatusBadRequest)
	}
}

// Add inserts url into the exact store and the filter.
//
// The filter snapshot is written from a copy before anything in memory
// changes: an extra bit on disk is at worst a false positive. The exact store
// persists before it commits.
//
// A URL already in the exact store may have been added by another process
// sharing it, so its bits are still set here. Nothing is written when they
// were already set.
func (s *Service) Add(url string) domain.Outcome {
	if url == "" {
		return domain.NewOutcome(domain.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return domain.NewOutcome(domain.StatusBadRequest)
	}

	present, err := s.store.Contains(url)
	if err != nil {
		return s.fail("contains", url, err)
	}
	if present && s.filter.MightContain(url) {
		return domain.NewOutcome(domain.StatusCreated)
	}

	next := s.filter.Clone()
	next.Add(url)
	if err := next.SaveFile(s.filterPath); err != nil {
		return s.fail("save filter", url, err)
	}
	if present {
		s.filter = next
		s.purgeCache()
		s.logger.Debug(map[string]any{"url": url}, "Filter bits set for existing member")
		return domain.NewOutcome(domain.StatusCreated)
	}
	if err := s.store.Insert(url); err != nil {
		return s.fail("insert", url, err)
	}
	s.filter = next
	s.lastUpdate = s.clock.Now()
	// New bits may turn a cached NotFound for another URL into a positive.
	s.purgeCache()

	s.logger.Debug(map[string]any{"url": url}, "URL added")
	return domain.NewOutcome(domain.StatusCreated)
}

// Check consults the filter and, on a filter hit, the exact store.
func (s *Service) Check(url string) domain.Outcome {
	if url == "" {
		return domain.NewOutcome(domain.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return domain.NewOutcome(domain.StatusBadRequest)
	}

	if o, ok := s.cachedCheck(url); ok {
		return o
	}
	if !s.filter.MightContain(url) {
		o := domain.CheckOutcome(false, false)
		s.cacheCheck(url, o)
		return o
	}
	present, err := s.store.Contains(url)
	if err != nil {
		return s.fail("contains", url, err)
	}
	o := domain.CheckOutcome(true, present)
	if o.IsFalsePositive() {
		s.logger.Debug(map[string]any{"url": url}, "Filter false positive")
	}
	s.cacheCheck(url, o)
	return o
}

// Delete removes url from the exact store only. The filter keeps its bits,
// so a later Check reports a false positive for url.
//
// The snapshot is re-saved first, unchanged, so the on-disk filter reflects
// the latest state after every structural command.
func (s *Service) Delete(url string) domain.Outcome {
	if url == "" {
		return domain.NewOutcome(domain.StatusBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready() {
		return domain.NewOutcome(domain.StatusBadRequest)
	}

	present, err := s.store.Contains(url)
	if err != nil {
		return s.fail("contains", url, err)
	}
	if !present {
		return domain.NewOutcome(domain.StatusNotFound)
	}
	if err := s.filter.SaveFile(s.filterPath); err != nil {
		return s.fail("save filter", url, err)
	}
	if err := s.store.Remove(url); err != nil {
		return s.fail("remove", url, err)
	}
	s.lastUpdate = s.clock.Now()
	if s.cache != nil {
		s.cache.Remove(url)
	}

	s.logger.Debug(map[string]any{"url": url}, "URL deleted")
	return domain.NewOutcome(domain.StatusNoContent)
}

// Close releases the exact store.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Close()
}

func (s *Service) ready() bool {
	if s.filter == nil {
		s.logger.Warn(map[string]any{"error": ErrNotConfigured.Error()}, "Command rejected")
		return false
	}
	return true
}

func (s *Service) fail(op, url string, err error) domain.Outcome {
	s.logger.Error(map[string]any{
		"op":    op,
		"url":   url,
		"error": err.Error(),
	}, "Command failed, state unchanged")
	return domain.NewOutcome(domain.StatusInternalError)
}

func (s *Service) cachedCheck(url string) (domain.Outcome, bool) {
	if s.cache == nil {
		return domain.Outcome{}, false
	}
	return s.cache.Get(url)
}

func (s *Service) cacheCheck(url string, o domain.Outcome) {
	if s.cache != nil {
		s.cache.Put(url, o)
	}
}

func (s *Service) purgeCache() {
	if s.cache != nil {
		s.cache.Purge()
	}
}
