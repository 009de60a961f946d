package tricore

import "math/bits"

// findFirstSet returns one plus the index of the least significant set bit,
// or zero when v is zero.
func findFirstSet(v uint32) int {
	if v == 0 {
		return 0
	}
	return bits.TrailingZeros32(v) + 1
}

// popCount returns the number of set bits.
func popCount(v uint32) int {
	return bits.OnesCount32(v)
}

// consecutiveOnes returns the length of the longest run of consecutive set
// bits. Together with popCount it identifies values whose set bits form a
// single contiguous mask.
func consecutiveOnes(v uint32) int {
	count := 0
	for v != 0 {
		v &= v << 1
		count++
	}
	return count
}
