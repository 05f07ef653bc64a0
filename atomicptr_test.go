// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "testing"

func TestPtrUintptrRoundTrip(t *testing.T) {
	type payload struct{ n int }
	p := &payload{n: 42}

	u := ptrToUintptr(p)
	got := ptrFromUintptr[payload](u)
	if got != p {
		t.Fatal("round-tripping a pointer through uintptr must yield the same pointer")
	}
	if got.n != 42 {
		t.Fatalf("got.n = %d, want 42", got.n)
	}
}
