// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// GC is the per-CPU, per-batch ownership arena for every Qbuff currently
// in flight (§3, §9 arena+index design note). Qbuffs reference each
// other only indirectly, through their index into GC.Pool; the arena is
// reset at every batch boundary, so no cycle (Qbuff -> Monad -> Group ->
// ... ) can outlive the batch.
type GC struct {
	Pool []*Qbuff // arrival order; index n is the batch slot bit used by sockQueue[sid]

	endpoints map[Endpoint][]*Qbuff // lazy egress targets recorded by the classifier
}

// NewGC creates an empty GC pool with capacity for a full batch.
func NewGC() *GC {
	return &GC{Pool: make([]*Qbuff, 0, BatchLen), endpoints: make(map[Endpoint][]*Qbuff)}
}

// Size returns the number of Qbuffs currently in the pool.
func (g *GC) Size() int { return len(g.Pool) }

// Push adds buff to the pool. Pushing past BatchLen is a build/boot-time
// assertion violation (§7: "batch length exceeds bitmask width"), not a
// runtime-recoverable error, because sockQueue[sid] is a single machine
// word indexed by batch slot.
func (g *GC) Push(buff *Qbuff) {
	if len(g.Pool) >= BatchLen {
		panic("pfq: GC pool overflow: batch length exceeds Q_BUFF_BATCH_LEN")
	}
	g.Pool = append(g.Pool, buff)
}

// RecordEgress records that buff should be lazily transmitted to ep at
// the end of the batch (§4.1 phase 3).
func (g *GC) RecordEgress(buff *Qbuff, ep Endpoint) {
	g.endpoints[ep] = append(g.endpoints[ep], buff)
}

// LazyEndpoints returns the set of egress endpoints recorded this batch.
func (g *GC) LazyEndpoints() map[Endpoint][]*Qbuff { return g.endpoints }

// Reset clears the pool and endpoint set so the GC is ready for the next
// batch (§3 invariant: "the GC pool is reset at every batch end; no
// Qbuff survives a batch boundary").
func (g *GC) Reset() {
	for i := range g.Pool {
		g.Pool[i] = nil
	}
	g.Pool = g.Pool[:0]
	for k := range g.endpoints {
		delete(g.endpoints, k)
	}
}
