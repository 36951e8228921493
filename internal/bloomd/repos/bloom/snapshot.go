package bloom

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bits-and-blooms/bitset"

	"github.com/haukened/bloomd/internal/bloomd/common/fsutil"
)

// Snapshot format: a little-endian uint64 holding the size, then exactly
// size bytes, one per bit, non-zero meaning set.

var (
	// ErrSizeMismatch is returned when a snapshot was written by a filter of
	// a different size. The in-memory filter is left untouched.
	ErrSizeMismatch = errors.New("snapshot size does not match filter size")
	// ErrTruncatedSnapshot is returned when the snapshot ends early.
	ErrTruncatedSnapshot = errors.New("snapshot is truncated")
	// ErrTrailingData is returned when bytes follow the last flag.
	ErrTrailingData = errors.New("snapshot has trailing data")
)

const headerLen = 8

// WriteTo streams the snapshot to w.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var hdr [headerLen]byte
	binary.LittleEndian.PutUint64(hdr[:], f.size)
	if _, err := bw.Write(hdr[:]); err != nil {
		return 0, err
	}
	for i := uint64(0); i < f.size; i++ {
		var b byte
		if f.bits.Test(uint(i)) {
			b = 1
		}
		if err := bw.WriteByte(b); err != nil {
			return int64(headerLen + i), err
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return int64(headerLen + f.size), nil
}

// ReadFrom replaces the filter bits with the snapshot read from r. On any
// error the filter keeps its previous bits.
func (f *Filter) ReadFrom(r io.Reader) (int64, error) {
	br := bufio.NewReader(r)
	var hdr [headerLen]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return 0, fmt.Errorf("%w: header: %v", ErrTruncatedSnapshot, err)
	}
	size := binary.LittleEndian.Uint64(hdr[:])
	if size != f.size {
		return headerLen, fmt.Errorf("%w: snapshot has %d bits, filter has %d", ErrSizeMismatch, size, f.size)
	}
	bits := bitset.New(uint(size))
	for i := uint64(0); i < size; i++ {
		b, err := br.ReadByte()
		if err != nil {
			return int64(headerLen + i), fmt.Errorf("%w: read %d of %d flags", ErrTruncatedSnapshot, i, size)
		}
		if b != 0 {
			bits.Set(uint(i))
		}
	}
	if _, err := br.ReadByte(); err != io.EOF {
		if err != nil {
			return int64(headerLen + size), fmt.Errorf("read past %d flags: %w", size, err)
		}
		return int64(headerLen + size), fmt.Errorf("%w: more than %d flags", ErrTrailingData, size)
	}
	f.bits = bits
	return int64(headerLen + size), nil
}

// SaveFile atomically replaces path with the current snapshot.
func (f *Filter) SaveFile(path string) error {
	return fsutil.WriteFileAtomic(path, 0o644, func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
}

// LoadFile reads the snapshot at path. A missing file is reported as an
// error wrapping fs.ErrNotExist.
func (f *Filter) LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if _, err := f.ReadFrom(file); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

var (
	_ io.WriterTo   = (*Filter)(nil)
	_ io.ReaderFrom = (*Filter)(nil)
)
