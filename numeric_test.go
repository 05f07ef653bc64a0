// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "testing"

func TestFoldPowerOfTwo(t *testing.T) {
	for b := uint32(1); b <= 64; b *= 2 {
		for a := uint32(0); a < 256; a++ {
			got := fold(a, b)
			if got >= b {
				t.Fatalf("fold(%d, %d) = %d, want < %d", a, b, got, b)
			}
		}
	}
}

func TestFoldNonPowerOfTwo(t *testing.T) {
	for _, b := range []uint32{3, 5, 6, 7, 9, 11} {
		for a := uint32(0); a < 1000; a++ {
			got := fold(a, b)
			if got >= b {
				t.Fatalf("fold(%d, %d) = %d, want < %d", a, b, got, b)
			}
		}
	}
}

func TestFoldBOne(t *testing.T) {
	if fold(12345, 1) != 0 {
		t.Fatal("fold(x, 1) must always be 0")
	}
}

func TestForEachBitAscending(t *testing.T) {
	mask := uint64(0b1011010)
	var got []int
	forEachBit(mask, func(bit int) { got = append(got, bit) })
	want := []int{1, 3, 4, 6}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestForEachBitEmpty(t *testing.T) {
	called := false
	forEachBit(0, func(int) { called = true })
	if called {
		t.Fatal("forEachBit(0, ...) must not invoke f")
	}
}

func TestPopcount(t *testing.T) {
	if popcount(0b1011010) != 4 {
		t.Fatalf("popcount mismatch: got %d", popcount(0b1011010))
	}
}

func TestRoundToPow2(t *testing.T) {
	cases := map[int]int{0: 2, 1: 2, 2: 2, 3: 4, 5: 8, 64: 64, 65: 128}
	for in, want := range cases {
		if got := roundToPow2(in); got != want {
			t.Fatalf("roundToPow2(%d) = %d, want %d", in, got, want)
		}
	}
}
