// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "testing"

func TestGCPushPanicsPastBatchLen(t *testing.T) {
	g := NewGC()
	defer func() {
		if recover() == nil {
			t.Fatal("Push past BatchLen must panic")
		}
	}()
	for i := 0; i <= BatchLen; i++ {
		g.Push(&Qbuff{})
	}
}

type fakeEndpoint struct{ id int }

func (fakeEndpoint) Transmit(buffs []*Qbuff) int { return len(buffs) }

func TestGCLazyEndpointsGroupByEndpoint(t *testing.T) {
	g := NewGC()
	b1, b2 := &Qbuff{}, &Qbuff{}
	ep := fakeEndpoint{id: 1}
	g.RecordEgress(b1, ep)
	g.RecordEgress(b2, ep)

	eps := g.LazyEndpoints()
	if len(eps[ep]) != 2 {
		t.Fatalf("expected 2 buffers recorded against ep, got %d", len(eps[ep]))
	}
}

func TestGCResetClearsPoolAndEndpoints(t *testing.T) {
	g := NewGC()
	g.Push(&Qbuff{})
	g.RecordEgress(&Qbuff{}, fakeEndpoint{id: 2})

	g.Reset()
	if g.Size() != 0 {
		t.Fatalf("Size() after Reset = %d, want 0", g.Size())
	}
	if len(g.LazyEndpoints()) != 0 {
		t.Fatal("Reset must clear recorded egress endpoints")
	}
}
