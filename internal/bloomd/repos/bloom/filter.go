// Package bloom implements the approximate half of the blacklist: a fixed-size
// bit vector probed by a fixed list of hash strategies.
//
// Bits are only ever set, never cleared, so a key that was added is reported
// as possibly present for the rest of the filter's life. Deleting keys is not
// supported here; the exact store handles removal.
package bloom

import (
	"errors"

	"github.com/bits-and-blooms/bitset"
)

var (
	ErrZeroSize        = errors.New("filter size must be greater than 0")
	ErrNoHashFunctions = errors.New("filter needs at least one hash function")
)

// Filter is not safe for concurrent mutation; callers serialize access.
type Filter struct {
	size   uint64
	bits   *bitset.BitSet
	hashes []HashFunc
}

// New returns an empty filter of size bits probed by hashes.
func New(size uint64, hashes []HashFunc) (*Filter, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	if len(hashes) == 0 {
		return nil, ErrNoHashFunctions
	}
	hs := make([]HashFunc, len(hashes))
	copy(hs, hashes)
	return &Filter{size: size, bits: bitset.New(uint(size)), hashes: hs}, nil
}

func (f *Filter) index(h HashFunc, key string) uint {
	return uint(h.Sum(key) % f.size)
}

// Add sets the bit selected by every hash strategy.
func (f *Filter) Add(key string) {
	for _, h := range f.hashes {
		f.bits.Set(f.index(h, key))
	}
}

// MightContain reports true only if every selected bit is set. False means
// the key was never added.
func (f *Filter) MightContain(key string) bool {
	for _, h := range f.hashes {
		if !f.bits.Test(f.index(h, key)) {
			return false
		}
	}
	return true
}

// Size returns the number of bits.
func (f *Filter) Size() uint64 { return f.size }

// HashCount returns the number of hash strategies.
func (f *Filter) HashCount() int { return len(f.hashes) }

// HashNames lists the strategy names in probe order.
func (f *Filter) HashNames() []string {
	names := make([]string, len(f.hashes))
	for i, h := range f.hashes {
		names[i] = h.Name()
	}
	return names
}

// SetBits returns how many bits are set.
func (f *Filter) SetBits() uint64 { return uint64(f.bits.Count()) }

// Clone returns an independent copy sharing the (stateless) hash strategies.
func (f *Filter) Clone() *Filter {
	return &Filter{size: f.size, bits: f.bits.Clone(), hashes: f.hashes}
}
