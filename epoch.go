// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "code.hybscloud.com/atomix"

// epochReclaimer replaces the source's sleep-based grace period (§9,
// "Replacing grace-period free") with an explicit epoch scheme: a
// publisher bumps the global epoch after an atomic swap, readers record
// the epoch they last observed, and a retired value is only freed once
// every per-CPU reader has advanced past the epoch the swap happened in.
//
// This is read-mostly, so advancing and reading the epoch is one
// acquire/release counter store and a handful of atomic loads — no locks on the hot path,
// matching §5's "readers never take locks" requirement.
type epochReclaimer struct {
	global atomix.Uint64
	seen   []atomix.Uint64 // per-CPU last-observed epoch
	pending []retiredItem
}

type retiredItem struct {
	epoch uint64
	free  func()
}

func newEpochReclaimer(numCPU int) *epochReclaimer {
	return &epochReclaimer{seen: make([]atomix.Uint64, numCPU)}
}

// Enter is called by a reader (a batch processor, on entry) to record
// that it is observing the current epoch. Call Leave when done.
func (e *epochReclaimer) Enter(cpu int) uint64 {
	cur := e.global.LoadAcquire()
	e.seen[cpu].StoreRelease(cur)
	return cur
}

// Leave marks the reader on cpu as not currently in a critical section,
// by advancing its seen epoch to the latest observed value again (a
// no-op watermark bump used by Retire's quiescence check).
func (e *epochReclaimer) Leave(cpu int) {
	e.seen[cpu].StoreRelease(e.global.LoadAcquire())
}

// Retire schedules free to run once every CPU has observed an epoch at
// least as new as the one about to be published, then publishes the new
// epoch. pending is a plain slice, so calls must be serialized by the
// caller: the device map and group table each assume one writer
// goroutine at a time and take no lock themselves (§4.2).
func (e *epochReclaimer) Retire(free func()) {
	epoch := e.global.LoadAcquire()
	e.pending = append(e.pending, retiredItem{epoch: epoch, free: free})
	e.global.StoreRelease(epoch + 1)
	e.reclaim()
}

// reclaim frees every pending item whose epoch has been observed by
// every reader. It is best-effort per call; stragglers are picked up by
// the next Retire.
func (e *epochReclaimer) reclaim() {
	min := e.global.LoadAcquire()
	for i := range e.seen {
		s := e.seen[i].LoadAcquire()
		if s < min {
			min = s
		}
	}
	kept := e.pending[:0]
	for _, item := range e.pending {
		if item.epoch < min {
			item.free()
			continue
		}
		kept = append(kept, item)
	}
	e.pending = kept
}
