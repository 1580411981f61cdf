/*
Package bitint provides the bit manipulation helpers used for buffer sizing
and packed-bit signal comparison.

Design Principles:
- Zero Allocations: All operations use stack memory only
- Predictable Performance: O(1) constant time operations
- Real-Time Safe: No locks, syscalls, or blocking operations

Usage:

	// Size a window for two periods of the lowest note
	bufferSize := bitint.NextPowerOfTwo(2 * maxPeriod) // 1764 -> 2048

	// Count differing bits between two packed words
	d := bitint.Distance32(a, b)

----------------------------------------------------------------------

What this code does:

	NextPowerOfTwo returns the next power of 2 greater than or
	equal to size. For powers of 2, it returns the same value.

	The subtraction (size-1) is critical, without the subtraction,
	powers of 2 would be incorrectly doubled:

	- For input 8 (already a power of 2):
	  size-1 = 7 (binary 0111)
	  bits.Len(7) = 3
	  1 << 3 = 8

	Funnel32 reads a 32-bit word that straddles two adjacent words of
	a little-endian bit array, which is how a packed bitstream is
	shifted by an arbitrary number of bits without copying it.
*/
package bitint

import "math/bits"

// NextPowerOfTwo returns the next power of 2 >= size.
//
// Examples:
//
//	Input  Output  Explanation
//	4      4      Already power of 2 (preserved)
//	5      8      Next power after 5
//	0      1      Handle zero case
//	-1     1      Handle negative case
func NextPowerOfTwo(size int) int {
	if size <= 0 {
		return 1
	}
	return 1 << bits.Len(uint(size-1))
}

// IsPowerOfTwo checks if n is a power of 2 using bit manipulation.
// Powers of 2 have exactly one bit set, so n & (n-1) clears it to zero.
//
//	Input  Output  Binary
//	8      true    1000 & 0111 = 0000
//	7      false   0111 & 0110 = 0110
//	0      false   Not positive
func IsPowerOfTwo(n int) bool {
	return n > 0 && (n&(n-1)) == 0
}

// Distance32 returns the Hamming distance between a and b.
func Distance32(a, b uint32) uint32 {
	return uint32(bits.OnesCount32(a ^ b))
}

// Funnel32 returns the 32 bits starting at bit offset shift of the
// 64-bit little-endian pair (lo, hi). shift must be in [1, 31].
//
//	shift = 4:  result = lo[4..31] | hi[0..3] << 28
func Funnel32(lo, hi uint32, shift uint) uint32 {
	return lo>>shift | hi<<(32-shift)
}
