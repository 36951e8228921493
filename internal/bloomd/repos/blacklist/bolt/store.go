// Package bolt is an exact store kept in a bbolt database.
package bolt

import (
	"encoding/binary"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/bloomd/internal/bloomd/common/clock"
	"github.com/haukened/bloomd/internal/bloomd/repos/blacklist"
)

var (
	bucketMembers = []byte("members")
	bucketMeta    = []byte("meta")

	keyVersion = []byte("version")
	keyUpdated = []byte("updated")
)

// boltStore implements blacklist.Store. Every mutation runs in one bbolt
// transaction together with its metadata bump, so it is applied entirely or
// not at all.
type boltStore struct {
	db    *bbolt.DB
	clock clock.Clock
}

// New opens (or creates) the database at path and ensures buckets exist.
func New(path string, clk clock.Clock) (blacklist.Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMembers, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &boltStore{db: db, clock: clk}, nil
}

// Load is a no-op: bbolt reads through to disk.
func (s *boltStore) Load() error { return nil }

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) Contains(url string) (bool, error) {
	var present bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		present = tx.Bucket(bucketMembers).Get([]byte(url)) != nil
		return nil
	})
	return present, err
}

func (s *boltStore) Insert(url string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMembers)
		if b.Get([]byte(url)) != nil {
			return nil
		}
		if err := b.Put([]byte(url), []byte{1}); err != nil {
			return err
		}
		return s.touch(tx)
	})
}

func (s *boltStore) Remove(url string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMembers)
		if b.Get([]byte(url)) == nil {
			return nil
		}
		if err := b.Delete([]byte(url)); err != nil {
			return err
		}
		return s.touch(tx)
	})
}

func (s *boltStore) Members() ([]string, error) {
	var out []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMembers).ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	return out, err
}

func (s *boltStore) Len() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketMembers).Stats().KeyN
		return nil
	})
	return n, err
}

// Meta returns the mutation counter and the unix time of the last mutation.
func (s *boltStore) Meta() (version uint64, updatedUnix int64, err error) {
	err = s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if v := b.Get(keyVersion); len(v) == 8 {
			version = binary.BigEndian.Uint64(v)
		}
		if v := b.Get(keyUpdated); len(v) == 8 {
			updatedUnix = int64(binary.BigEndian.Uint64(v))
		}
		return nil
	})
	return version, updatedUnix, err
}

func (s *boltStore) touch(tx *bbolt.Tx) error {
	b := tx.Bucket(bucketMeta)
	var version uint64
	if v := b.Get(keyVersion); len(v) == 8 {
		version = binary.BigEndian.Uint64(v)
	}
	vbuf := make([]byte, 8)
	ubuf := make([]byte, 8)
	binary.BigEndian.PutUint64(vbuf, version+1)
	binary.BigEndian.PutUint64(ubuf, uint64(s.clock.Now().Unix()))
	if err := b.Put(keyVersion, vbuf); err != nil {
		return err
	}
	return b.Put(keyUpdated, ubuf)
}

var (
	_ blacklist.Store     = (*boltStore)(nil)
	_ blacklist.Versioned = (*boltStore)(nil)
)
