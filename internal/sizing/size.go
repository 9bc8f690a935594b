// Package sizing provides safe size arithmetic and conversions to prevent overflow.
package sizing

import "math"

// ToUint32 converts a non-negative int to uint32, returning overflowErr if it doesn't fit.
func ToUint32(size int, overflowErr error) (uint32, error) {
	if size < 0 || uint64(size) > math.MaxUint32 {
		return 0, overflowErr
	}
	return uint32(size), nil
}

// AddUint32 adds two uint32 values, returning (result, false) on overflow.
func AddUint32(a, b uint32) (uint32, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// AddInt64 adds two non-negative int64 values, returning (result, false) on overflow.
func AddInt64(a, b int64) (int64, bool) {
	if b > math.MaxInt64-a {
		return 0, false
	}
	return a + b, true
}

// Padding returns the number of bytes needed to advance n to a multiple of align.
// align must be a power of two.
func Padding(n, align int) int {
	return (align - n%align) % align
}
