// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// BufferPool is a per-CPU, single-producer single-consumer free list of
// reusable Qbuffs (§3: "per-CPU pool of reusable packet buffers").
// Because each CPU owns its pool exclusively (§5), a plain slice-backed
// stack is sufficient — the lfq SPSC/indirect algorithms this module is
// grounded on exist to handle cross-goroutine producer/consumer pairs,
// which a single-owner free list does not need; see DESIGN.md for why
// this one component stays off the lock-free ring.
type BufferPool struct {
	free []*Qbuff
}

// NewBufferPool preallocates n Qbuffs of the given payload capacity.
func NewBufferPool(n, capLen int) *BufferPool {
	p := &BufferPool{free: make([]*Qbuff, 0, n)}
	for i := 0; i < n; i++ {
		p.free = append(p.free, &Qbuff{Data: make([]byte, 0, capLen)})
	}
	return p
}

// Get removes and returns a buffer from the pool, or returns
// ErrPoolExhausted if none are free (§7 resource exhaustion).
func (p *BufferPool) Get() (*Qbuff, error) {
	n := len(p.free)
	if n == 0 {
		return nil, ErrPoolExhausted
	}
	b := p.free[n-1]
	p.free = p.free[:n-1]
	return b, nil
}

// Put returns a buffer to the pool, resetting its scratch fields so the
// next batch starts clean.
func (p *BufferPool) Put(b *Qbuff) {
	*b = Qbuff{Data: b.Data[:0]}
	p.free = append(p.free, b)
}

// Len reports the number of buffers currently free.
func (p *BufferPool) Len() int { return len(p.free) }
