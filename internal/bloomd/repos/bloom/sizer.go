package bloom

import (
	"math"

	bitsbloom "github.com/bits-and-blooms/bloom/v3"
)

// EstimateFalsePositiveRate returns the textbook approximation
//
//	p = (1 - e^(-k*n/m))^k
//
// for m bits, k hash strategies and n distinct keys.
func EstimateFalsePositiveRate(m uint64, k int, n uint64) float64 {
	if m == 0 || k <= 0 {
		return 1
	}
	if n == 0 {
		return 0
	}
	fill := 1 - math.Exp(-float64(k)*float64(n)/float64(m))
	return math.Pow(fill, float64(k))
}

// Recommend returns the bits and hash count bits-and-blooms suggests for n
// keys at false-positive rate p. n is clamped to 1 and p defaults to 1%.
func Recommend(n uint64, p float64) (m uint64, k uint) {
	if n == 0 {
		n = 1
	}
	if !(p > 0 && p < 1) {
		p = 0.01
	}
	mm, kk := bitsbloom.EstimateParameters(uint(n), p)
	return uint64(mm), kk
}
