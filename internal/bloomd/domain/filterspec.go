package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// FilterSpec is a validated configuration line: the bit-vector size followed
// by one iteration count per hash strategy. Duplicate counts are allowed and
// yield independent strategies.
type FilterSpec struct {
	Size   uint64
	Hashes []uint64
}

// ParseFilterSpec parses "<size> <hashSpec>+". Every token must be an integer
// greater than zero and at least one hash spec is required.
func ParseFilterSpec(line string) (FilterSpec, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return FilterSpec{}, fmt.Errorf("%w: need a size and at least one hash function", ErrConfig)
	}
	size, err := parsePositive(fields[0])
	if err != nil {
		return FilterSpec{}, fmt.Errorf("%w: size: %v", ErrConfig, err)
	}
	hashes := make([]uint64, 0, len(fields)-1)
	for i, tok := range fields[1:] {
		n, err := parsePositive(tok)
		if err != nil {
			return FilterSpec{}, fmt.Errorf("%w: hash function %d: %v", ErrConfig, i+1, err)
		}
		hashes = append(hashes, n)
	}
	return FilterSpec{Size: size, Hashes: hashes}, nil
}

func parsePositive(tok string) (uint64, error) {
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", tok)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%d must be greater than zero", n)
	}
	return uint64(n), nil
}

// Equal reports whether two specs describe the same filter.
func (s FilterSpec) Equal(o FilterSpec) bool {
	return s.Size == o.Size && slices.Equal(s.Hashes, o.Hashes)
}

// String renders the spec in configuration-line form.
func (s FilterSpec) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(s.Size, 10))
	for _, h := range s.Hashes {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatUint(h, 10))
	}
	return b.String()
}
