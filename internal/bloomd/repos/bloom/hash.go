package bloom

import (
	"errors"
	"fmt"
	"strconv"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/zeebo/xxh3"
)

// ErrZeroIterations is returned when a hash strategy is built with count 0.
var ErrZeroIterations = errors.New("hash iteration count must be greater than 0")

// HashFunc maps a key to an unsigned integer. Implementations are pure and
// safe for concurrent use.
type HashFunc interface {
	Sum(key string) uint64
	// Name identifies the strategy, including its count, in diagnostics.
	Name() string
}

// Family selects how configuration-line hash specs become strategies.
type Family string

const (
	FamilyIterative Family = "iterative"
	FamilyMurmur    Family = "murmur"
)

// IterativeHash hashes the input, then re-hashes the decimal form of the
// previous digest, iterations times in total. Cheap and deterministic; not
// meant to be cryptographically strong.
type IterativeHash struct {
	iterations uint64
}

// NewIterativeHash returns an iterative strategy over an xxh3 base digest.
func NewIterativeHash(iterations uint64) (*IterativeHash, error) {
	if iterations == 0 {
		return nil, ErrZeroIterations
	}
	return &IterativeHash{iterations: iterations}, nil
}

func (h *IterativeHash) Sum(key string) uint64 {
	var sum uint64
	cur := key
	for i := uint64(0); i < h.iterations; i++ {
		sum = xxh3.HashString(cur)
		cur = strconv.FormatUint(sum, 10)
	}
	return sum
}

func (h *IterativeHash) Name() string {
	return "iterative_xxh3_" + strconv.FormatUint(h.iterations, 10)
}

// MurmurHash uses the n-th location of the bits-and-blooms double hashing
// scheme, so distinct positions behave as distinct strategies.
type MurmurHash struct {
	position uint64
}

// NewMurmurHash returns the strategy for location position (1-based).
func NewMurmurHash(position uint64) (*MurmurHash, error) {
	if position == 0 {
		return nil, ErrZeroIterations
	}
	return &MurmurHash{position: position}, nil
}

// Sum derives location position-1 from the first eight. Location i is
// h[i%2] + i*h[j] with j fixed by i%4, so locations four apart differ by
// 4*h[j] and location i equals L[r] + (i/4)*(L[r+4]-L[r]) for r = i%4.
// Cost is constant in position.
func (h *MurmurHash) Sum(key string) uint64 {
	locs := bitsbloom.Locations([]byte(key), 8)
	i := h.position - 1
	r, m := i%4, i/4
	return locs[r] + m*(locs[r+4]-locs[r])
}

func (h *MurmurHash) Name() string {
	return "murmur_" + strconv.FormatUint(h.position, 10)
}

// NewHashFuncs builds one strategy per spec entry, in order.
func NewHashFuncs(family Family, specs []uint64) ([]HashFunc, error) {
	out := make([]HashFunc, 0, len(specs))
	for _, n := range specs {
		var (
			h   HashFunc
			err error
		)
		switch family {
		case FamilyIterative, "":
			h, err = NewIterativeHash(n)
		case FamilyMurmur:
			h, err = NewMurmurHash(n)
		default:
			return nil, fmt.Errorf("unsupported hash family %q", family)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, nil
}

var (
	_ HashFunc = (*IterativeHash)(nil)
	_ HashFunc = (*MurmurHash)(nil)
)
