// Package bits holds the bit-level primitives used by the diffusion stage.
package bits

import mathbits "math/bits"

// ReverseBits reverses the minimal binary representation of n.
//
// The width is derived from n itself, so leading zeros never appear and
// trailing zeros of n are dropped by the reversal: 4 (100) becomes 1 (001),
// not 32. Zero maps to zero.
func ReverseBits(n uint) uint {
	width := mathbits.Len(n)
	if width == 0 {
		return 0
	}
	return mathbits.Reverse(n) >> (mathbits.UintSize - width)
}
