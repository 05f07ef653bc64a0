// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sockqueue implements the per-consumer socket output ring
// (spec §4.4, §6): a memory-mapped-shaped, multi-producer single-consumer
// queue of fixed-size slots. The enqueue/dequeue algorithm itself is
// code.hybscloud.com/pfq/internal/lfq's MPSC[T], generic over any slot
// type; this package only fixes T to Slot and adds the poll/wake
// bookkeeping the mmap'd consumer side needs.
package sockqueue

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/pfq/internal/lfq"
)

// MaxPayload bounds the bytes captured into one slot. A socket CapLen
// above MaxPayload is truncated to MaxPayload on delivery; pfq's default
// CapLen (1514) plus VLAN/mac headroom comfortably fits.
const MaxPayload = 2048

// Slot is one entry of the output ring: header fields followed by
// payload — length, captured length, timestamp, group id, flags, then
// the bytes themselves.
type Slot struct {
	Len       uint32
	CapLen    uint32
	Timestamp int64
	GroupID   uint16
	Flags     uint8
	_         [5]byte // pad header to an 8-byte boundary before payload
	Payload   [MaxPayload]byte
}

// Ring is the MPSC output queue a socket exposes for mapping into user
// space. Producers are the per-CPU batch processors; there is exactly
// one consumer.
type Ring struct {
	q        *lfq.MPSC[Slot]
	pollWait atomix.Bool
}

// New creates a ring with the given slot capacity, rounded up to the
// next power of two by lfq.NewMPSC.
func New(capacity int) *Ring {
	if capacity < 2 {
		capacity = 2
	}
	return &Ring{q: lfq.NewMPSC[Slot](capacity)}
}

// Cap returns the usable slot capacity.
func (r *Ring) Cap() int { return r.q.Cap() }

// Drain signals that no more enqueues will occur. It only records the
// hint; TryEnqueue and TryDequeue behave the same before and after it.
func (r *Ring) Drain() { r.q.Drain() }

// TryEnqueue publishes one slot (multi-producer safe). Returns false if
// the ring is full — callers bump the socket's Lost counter on false and
// continue with the rest of the batch (§4.4: partial acceptance).
func (r *Ring) TryEnqueue(s *Slot) bool {
	return r.q.Enqueue(s) == nil
}

// TryDequeue removes and returns the oldest slot (single consumer only).
func (r *Ring) TryDequeue() (Slot, bool) {
	s, err := r.q.Dequeue()
	return s, err == nil
}

// Fill is an approximate occupancy count, racy by construction under
// concurrent producers; used only by Poll, which only needs a coarse
// "about half full" signal (§6 poll/wake).
func (r *Ring) Fill() int { return r.q.Fill() }

// Poll reports readable when fill is at least half capacity; otherwise
// it arms PollWait and reports not readable (§6).
func (r *Ring) Poll() bool {
	if r.Fill()*2 >= r.q.Cap() {
		return true
	}
	r.pollWait.StoreRelease(true)
	return false
}

// PollWaitArmed reports whether Poll last armed the wait flag. A real
// mmap consumer clears it after waking; modeled here as a plain read for
// the in-process reference implementation.
func (r *Ring) PollWaitArmed() bool {
	return r.pollWait.LoadAcquire()
}

// ClearPollWait clears the armed wait flag, called by the consumer after
// it wakes and is about to re-check the ring.
func (r *Ring) ClearPollWait() {
	r.pollWait.StoreRelease(false)
}
