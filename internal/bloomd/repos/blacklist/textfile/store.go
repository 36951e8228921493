// Package textfile is the canonical exact store: an in-memory set mirrored to
// a UTF-8 file with one URL per line, rewritten in full on every mutation.
package textfile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"slices"
	"sync"

	"github.com/haukened/bloomd/internal/bloomd/common/fsutil"
	"github.com/haukened/bloomd/internal/bloomd/common/log"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist/parsers"
)

type textStore struct {
	mu      sync.RWMutex
	path    string
	members map[string]struct{}
	logger  log.Logger
}

// New returns a store backed by path. Call Load to read existing members.
func New(path string, logger log.Logger) blacklist.Store {
	return &textStore{path: path, members: make(map[string]struct{}), logger: logger}
}

func (s *textStore) Load() error {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug(map[string]any{"path": s.path}, "blacklist file absent, starting empty")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open blacklist %s: %w", s.path, err)
	}
	defer f.Close()

	urls, err := parsers.ReadList(f, s.path, s.logger)
	if err != nil {
		return fmt.Errorf("read blacklist %s: %w", s.path, err)
	}
	members := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		members[u] = struct{}{}
	}
	s.mu.Lock()
	s.members = members
	s.mu.Unlock()
	return nil
}

func (s *textStore) Contains(url string) (bool, error) {
	s.mu.RLock()
	_, ok := s.members[url]
	s.mu.RUnlock()
	return ok, nil
}

func (s *textStore) Insert(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[url]; ok {
		return nil
	}
	next := append(s.sortedLocked(), url)
	slices.Sort(next)
	if err := s.persist(next); err != nil {
		return err
	}
	s.members[url] = struct{}{}
	return nil
}

func (s *textStore) Remove(url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[url]; !ok {
		return nil
	}
	next := slices.DeleteFunc(s.sortedLocked(), func(u string) bool { return u == url })
	if err := s.persist(next); err != nil {
		return err
	}
	delete(s.members, url)
	return nil
}

func (s *textStore) Members() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sortedLocked(), nil
}

func (s *textStore) Len() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members), nil
}

func (s *textStore) Close() error { return nil }

// sortedLocked returns members in lexical order so rewrites are stable.
func (s *textStore) sortedLocked() []string {
	out := make([]string, 0, len(s.members)+1)
	for u := range s.members {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

func (s *textStore) persist(urls []string) error {
	return fsutil.WriteFileAtomic(s.path, 0o644, func(w io.Writer) error {
		return parsers.WriteList(w, urls)
	})
}

var _ blacklist.Store = (*textStore)(nil)
