package bolt

import (
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/bloomd/internal/bloomd/common/clock"
)

func newTestStore(t *testing.T, clk clock.Clock) (*boltStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blacklist.db")
	s, err := New(path, clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s.(*boltStore), path
}

func TestBoltStore_InsertContainsRemove(t *testing.T) {
	s, _ := newTestStore(t, nil)
	require.NoError(t, s.Load())

	require.NoError(t, s.Insert("a.com"))
	require.NoError(t, s.Insert("b.com"))
	require.NoError(t, s.Insert("a.com"))

	ok, err := s.Contains("a.com")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.Remove("a.com"))
	ok, err = s.Contains("a.com")
	require.NoError(t, err)
	assert.False(t, ok)

	members, err := s.Members()
	require.NoError(t, err)
	assert.Equal(t, []string{"b.com"}, members)
}

func TestBoltStore_MetaTracksMutations(t *testing.T) {
	clk := &clock.MockClock{CurrentTime: time.Unix(1_700_000_000, 0)}
	s, _ := newTestStore(t, clk)

	v, u, err := s.Meta()
	require.NoError(t, err)
	assert.Zero(t, v)
	assert.Zero(t, u)

	require.NoError(t, s.Insert("a.com"))
	clk.Advance(time.Minute)
	require.NoError(t, s.Remove("a.com"))

	v, u, err = s.Meta()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, int64(1_700_000_060), u)

	// no-ops do not bump the version
	require.NoError(t, s.Remove("ghost.com"))
	v, _, err = s.Meta()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
}

func TestBoltStore_Reopen(t *testing.T) {
	s, path := newTestStore(t, nil)
	for _, u := range []string{"c.com", "a.com", "b.com"} {
		require.NoError(t, s.Insert(u))
	}
	require.NoError(t, s.Close())

	again, err := New(path, nil)
	require.NoError(t, err)
	defer again.Close()

	members, err := again.Members()
	require.NoError(t, err)
	sort.Strings(members)
	assert.Equal(t, []string{"a.com", "b.com", "c.com"}, members)
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "x.db"), nil)
	assert.Error(t, err)
}
