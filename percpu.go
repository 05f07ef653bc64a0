// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import (
	"time"

	"github.com/agilira/go-timecache"
)

// PerCPUData is the private state one CPU owns exclusively: no other CPU
// ever reads or writes it (§5, §9). There is no atomic field in this
// struct by design — cross-CPU visibility is never required.
type PerCPUData struct {
	Counter uint64
	LastRx  int64 // cached clock reading, nanoseconds (go-timecache)

	GC   *GC
	Pool *BufferPool

	// sock_eligible_mask memoization (§4.1 step 3, §3 per-CPU data).
	SockEligibleMask uint64
	SockCnt          int
	SockMask         [MaxSockMask]uint64

	clock *timecache.TimeCache
	timer *time.Timer
}

// NewPerCPUData creates one CPU's private pipeline state.
func NewPerCPUData(cfg Config) *PerCPUData {
	return &PerCPUData{
		GC:    NewGC(),
		Pool:  NewBufferPool(cfg.QueueSlots/4+BatchLen, cfg.CapLen),
		clock: timecache.NewWithResolution(time.Millisecond),
	}
}

// Now returns a cached low-overhead timestamp, avoiding a syscall per
// packet (§1 ambient stack: go-timecache).
func (d *PerCPUData) Now() int64 {
	return d.clock.CachedTime().UnixNano()
}

// Close stops the cached clock's background refresh goroutine.
func (d *PerCPUData) Close() {
	d.clock.Stop()
}

// Touch records that a packet just arrived on this CPU.
func (d *PerCPUData) Touch() {
	d.LastRx = d.Now()
}

// RebuildSockMask expands eligibleMask into the weighted flat array used
// by the steering fold lookup (§4.1 step 3). It is a no-op if the
// eligible mask has not changed since the last call, matching the
// "logical dependency" comment in pf_q.c: the cache is only invalidated
// when the socket membership for the fanout's classes actually changes.
func (d *PerCPUData) RebuildSockMask(eligibleMask uint64, sockets *SocketTable) {
	if eligibleMask == d.SockEligibleMask {
		return
	}
	d.SockEligibleMask = eligibleMask
	d.SockCnt = 0
	forEachBit(eligibleMask, func(sid int) {
		so := sockets.Get(sid)
		if so == nil {
			return
		}
		w := so.Weight()
		for i := 0; i < w && d.SockCnt < MaxSockMask; i++ {
			d.SockMask[d.SockCnt] = uint64(1) << uint(sid)
			d.SockCnt++
		}
	})
}

// StartFlushTimer arms a periodic timer that calls flush whenever it
// fires, bounding latency regardless of arrival rate (§4.5). The period
// should be short relative to typical batch fill time; cfg.PrefetchLen
// governs the length-based trigger independently.
func (d *PerCPUData) StartFlushTimer(period time.Duration, flush func()) {
	d.timer = time.AfterFunc(period, func() {
		flush()
		d.StartFlushTimer(period, flush)
	})
}

// StopFlushTimer cancels the periodic flush timer, used at engine
// teardown.
func (d *PerCPUData) StopFlushTimer() {
	if d.timer != nil {
		d.timer.Stop()
	}
}
