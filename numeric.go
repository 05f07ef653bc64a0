// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "math/bits"

// BatchLen is Q_BUFF_BATCH_LEN: the maximum number of packets in one
// batch. It is fixed at 64 because sockQueue[sid] is a single machine
// word bitmask over batch slots (§9, bitmask fan-out design note).
const BatchLen = 64

// clp2 returns the next power of two >= x. Hacker's Delight.
func clp2(x uint32) uint32 {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1
}

// prefold mixes the high bits of hash into the low bits before folding,
// matching pfq_lang's prefold.
func prefold(hash uint32) uint32 {
	return hash ^ (hash >> 8) ^ (hash >> 16) ^ (hash >> 24)
}

// fold maps a into [0, b) approximately uniformly. Power-of-two divisors
// use a mask; small non-power-of-two divisors use the fast % cases;
// everything else rounds up to the next power of two and falls back to
// the true modulo on the rare occasions the masked value lands >= b.
func fold(a, b uint32) uint32 {
	if b == 1 {
		return 0
	}
	c := b - 1
	if b&c == 0 {
		return a & c
	}
	switch b {
	case 3:
		return a % 3
	case 5:
		return a % 5
	case 6:
		return a % 6
	case 7:
		return a % 7
	default:
		p := clp2(b)
		r := a & (p - 1)
		if r < b {
			return r
		}
		return a % b
	}
}

// roundToPow2 rounds n up to the next power of 2. Minimum result is 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	return int(clp2(uint32(n)))
}

// forEachBit calls f with the bit index of every set bit in mask, in
// strictly ascending order — the tie-break groups, classes, and sockets
// all rely on when a packet's eligible set has more than one bit.
func forEachBit(mask uint64, f func(bit int)) {
	for mask != 0 {
		bit := bits.TrailingZeros64(mask)
		f(bit)
		mask &= mask - 1
	}
}

// popcount returns the number of set bits in mask.
func popcount(mask uint64) int {
	return bits.OnesCount64(mask)
}
