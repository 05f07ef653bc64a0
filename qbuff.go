// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// ForwardLog records the forwarding side effects a classifier left on a
// packet during evaluation: how many times it was handed to the kernel
// and how many egress devices it was queued to. The batch processor
// diffs this log before/after a classifier run to attribute per-group
// frwd/kern stats (§4.1 phase 2).
type ForwardLog struct {
	ToKernel int
	NumDevs  int
}

// Qbuff represents exactly one captured packet moving through a batch.
//
// A Qbuff is owned exclusively by the GC pool of the batch that is
// currently processing it (§9, arena+index design note): it never
// outlives that batch, and every field that is scratch space for the
// pipeline (GroupMask, Monad, State, Log) is reset at batch entry.
type Qbuff struct {
	Data []byte

	MACOffset   int
	NetOffset   int
	TransOffset int

	Ifindex int
	RxQueue int

	// Counter is a per-CPU monotonically increasing sequence assigned
	// at batch entry (§3 invariant: used for ordering within one CPU).
	Counter uint64

	// GroupMask is the bitmask of groups interested in this packet,
	// filled once per batch from the device map.
	GroupMask uint64

	// Monad points at the classifier evaluation scratch for the group
	// currently being evaluated. It is only valid during that group's
	// evaluation pass.
	Monad *Monad

	// State is opaque classifier scratch carried across invocations of
	// the same group's computation for this packet.
	State uint64

	Log ForwardLog

	// Peeked distinguishes a packet that was non-destructively peeked
	// (forwarding to the kernel must copy) from one that was consumed
	// (forwarding to the kernel may move), mirroring pf_q.c's
	// fwd_to_kernel/peeked handling.
	Peeked bool

	vid int
}

// VID returns the VLAN id carried in the packet, or 0 if untagged. VLAN
// tag parsing itself is an external collaborator (spec.md Non-goals);
// callers that need real 802.1Q parsing set this via SetVID before the
// packet enters a batch.
func (b *Qbuff) VID() int { return b.vid }

// SetVID records the packet's VLAN id for VLAN-filter evaluation.
func (b *Qbuff) SetVID(vid int) { b.vid = vid }
