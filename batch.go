// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "code.hybscloud.com/pfq/internal/sockqueue"

// batchRefs holds, for one group's evaluation pass, a possibly-nil
// reference to each batch slot's Qbuff (nil = skipped or dropped for
// this group). It mirrors pf_q.c's struct pfq_ref_batch.
type batchRefs struct {
	ref []*Qbuff
}

// sockQueueMask is the per-socket, per-batch delivery bitmask: bit n set
// means batch slot n is queued for that socket. One uint64 per socket id
// is sufficient because BatchLen == 64 (§9 bitmask fan-out design note).
type sockQueueMask = uint64

// ProcessBatch runs the four-phase batch algorithm of spec.md §4.1 for
// one CPU. No two invocations for the same cpu run concurrently (the
// caller — Engine.Receive / the flush timer — enforces this by running
// inline, never spawning a concurrent batch for the same CPU).
func (e *Engine) ProcessBatch(cpu int) error {
	pcpu := e.percpu[cpu]
	gc := pcpu.GC
	defer gc.Reset()

	batchLen := gc.Size()
	if batchLen == 0 {
		return nil
	}
	if batchLen > BatchLen {
		panic("pfq: batch length exceeds Q_BUFF_BATCH_LEN")
	}

	e.devmap.EnterReader(cpu)
	defer e.devmap.LeaveReader(cpu)

	sockQueue := make([]sockQueueMask, MaxID)

	// Phase 1 — per-packet group lookup.
	var allGroupMask uint64
	for _, buff := range gc.Pool {
		groupMask := uint64(e.devmap.Lookup(buff.Ifindex, buff.RxQueue))
		buff.GroupMask = groupMask
		buff.Counter = pcpu.Counter
		pcpu.Counter++
		allGroupMask |= groupMask
	}
	e.stats.addRecv(cpu, uint64(batchLen))

	// Phase 2 — per-group evaluation, strictly ascending gid order.
	forEachBit(allGroupMask, func(gidBit int) {
		e.processGroup(cpu, pcpu, gc, GID(gidBit), batchLen, sockQueue)
	})

	// Phase 3 — lazy egress.
	e.lazyEgress(cpu, gc)

	// Phase 4 — kernel re-injection and release. Every buff is returned
	// to the per-CPU pool on every path, including kernel re-injection
	// (§5 resource discipline: "returned to the per-CPU pool on batch
	// exit on all paths"); Move vs Copy only decides whether the kernel
	// receives a byte copy or the data is handed off first (see
	// DESIGN.md for how this departs from core.c's peeked-only free).
	for _, buff := range gc.Pool {
		if buff.Log.ToKernel > 0 && e.kernel != nil {
			if buff.Peeked {
				e.kernel.Copy(buff)
			} else {
				e.kernel.Move(buff)
			}
			e.stats.addKern(cpu, 1)
		}
		pcpu.Pool.Put(buff)
	}
	return nil
}

// processGroup runs phase 2 for a single group, ascending-ordered class
// and socket iteration happening inside fold/steering computation and
// the final delivery loop.
func (e *Engine) processGroup(cpu int, pcpu *PerCPUData, gc *GC, gid GID, batchLen int, sockQueue []sockQueueMask) {
	group := e.groups.Get(gid)
	if group == nil {
		return
	}

	bit := uint64(1) << uint(gid)
	bpFilter := group.BPFilter()
	vlanEnabled := group.VLANFiltersEnabled()
	comp := group.Comp()

	refs := batchRefs{ref: make([]*Qbuff, 0, batchLen)}
	var socketMask uint64

	for n, buff := range gc.Pool {
		sockMask, cloneMask, keep := e.evalOneGroupPacket(cpu, group, bit, bpFilter, vlanEnabled, comp, buff)
		if !keep {
			refs.ref = append(refs.ref, nil)
			continue
		}
		refs.ref = append(refs.ref, buff)

		if sockMask != 0 {
			forEachBit(sockMask, func(sid int) {
				sockQueue[sid] |= uint64(1) << uint(n)
			})
		}
		// Cloned sockets are OR'd into socketMask so phase 2's delivery
		// loop still walks them, but deliberately do NOT get a bit set
		// in sockQueue for this slot — §9 Open Question, resolved: the
		// observable to preserve is "clones never set sock_queue bits",
		// not "clones are never accounted".
		socketMask |= sockMask | cloneMask
	}

	// Delivery: for every socket touched this group, enqueue every
	// referenced slot set in its sockQueue mask, ascending sid order.
	forEachBit(socketMask, func(sid int) {
		so := e.sockets.Get(sid)
		if so == nil || !so.Active() {
			return
		}
		e.deliverToSocket(cpu, so, gid, refs, sockQueue[sid])
		sockQueue[sid] = 0
	})
}

// evalOneGroupPacket runs the filter/classifier pipeline for one packet
// against one group and returns the socket delivery mask, the clone
// mask (eligible sockets of a clone fanout, which get no delivery bit),
// and whether the packet survives for this group (keep==false means drop or
// skipped — no reference is kept either way).
func (e *Engine) evalOneGroupPacket(cpu int, group *Group, bit uint64, bpFilter PacketFilter, vlanEnabled bool, comp Program, buff *Qbuff) (sockMask, cloneMask uint64, keep bool) {
	if buff.GroupMask&bit == 0 {
		return 0, 0, false
	}

	e.stats.groupRecv(group, cpu)

	if bpFilter != nil && !bpFilter.Match(buff) {
		e.stats.groupDrop(group, cpu)
		return 0, 0, false
	}

	if vlanEnabled && !group.vlanSet.Contains(buff.VID()) {
		e.stats.groupDrop(group, cpu)
		return 0, 0, false
	}

	buff.State = 0

	if comp == nil {
		return group.SockID(0), 0, true
	}

	m := newMonad(group)
	buff.Monad = m

	toKernel0 := buff.Log.ToKernel
	numFwd0 := buff.Log.NumDevs

	result := comp.Eval(buff, m)
	if result == nil {
		e.stats.groupDrop(group, cpu)
		return 0, 0, false
	}
	buff = result
	buff.State = m.State

	e.stats.groupAddFrwd(group, cpu, uint64(buff.Log.NumDevs-numFwd0))
	e.stats.groupAddKern(group, cpu, uint64(buff.Log.ToKernel-toKernel0))

	if isDrop(m.Fanout) {
		e.stats.groupDrop(group, cpu)
		return 0, 0, false
	}

	var eligibleMask uint64
	forEachBit(uint64(m.Fanout.ClassMask), func(class int) {
		eligibleMask |= group.SockID(class)
	})

	if eligibleMask == 0 {
		// §4.1 edge case: class_mask==0 silences the packet for this
		// group with no socket delivery and no drop counted.
		return 0, 0, true
	}

	if isClone(m.Fanout) {
		// §9 Open Question, resolved: the eligible sockets are OR'd
		// into socket_mask (phase 2's delivery-loop bookkeeping still
		// walks them) but never get a sock_queue bit for this slot —
		// the observable this module preserves is "clones never
		// deliver this batch", not "clones are never accounted".
		return 0, eligibleMask, true
	}

	switch {
	case isSteering(m.Fanout):
		pcpu := e.percpu[cpu]
		pcpu.RebuildSockMask(eligibleMask, e.sockets)
		if pcpu.SockCnt > 0 {
			sockMask = pcpu.SockMask[fold(prefold(m.Fanout.Hash), uint32(pcpu.SockCnt))]
			if isDoubleSteering(m.Fanout) {
				sockMask |= pcpu.SockMask[fold(prefold(m.Fanout.Hash2), uint32(pcpu.SockCnt))]
			}
		}
	default:
		sockMask = eligibleMask
	}

	return sockMask, 0, true
}

// lazyEgress runs phase 3: every endpoint a classifier recorded egress for
// during this batch gets one Transmit call with every buff queued against
// it, in arrival order. Transmit's accepted count is added to the global
// forward counter; the remainder — buffs the endpoint did not accept —
// are counted as discarded (§4.1 phase 3, core.c:332-334's frwd/disc
// split). spec.md's Non-goals explicitly exclude reliable delivery or
// retransmission, so a partial Transmit is not retried.
func (e *Engine) lazyEgress(cpu int, gc *GC) {
	for ep, buffs := range gc.LazyEndpoints() {
		sent := ep.Transmit(buffs)
		e.stats.addFrwd(cpu, uint64(sent))
		e.stats.addDisc(cpu, uint64(len(buffs)-sent))
	}
}

// deliverToSocket enqueues every batch slot set in mask into so's output
// ring, in ascending slot order (§4.1 phase 2 final delivery step, §4.4).
// A slot that fails to enqueue (ring full) counts as lost, not dropped:
// the packet was accepted by the group and the socket, just not the ring.
func (e *Engine) deliverToSocket(cpu int, so *Socket, gid GID, refs batchRefs, mask sockQueueMask) {
	forEachBit(mask, func(n int) {
		buff := refs.ref[n]
		if buff == nil {
			return
		}

		slot := sockqueue.Slot{
			Len:     uint32(len(buff.Data)),
			GroupID: uint16(gid),
		}
		if so.TstampEnabled() {
			slot.Timestamp = e.percpu[cpu].Now()
		}
		capLen := so.CapLen
		if capLen > len(buff.Data) {
			capLen = len(buff.Data)
		}
		if capLen > sockqueue.MaxPayload {
			capLen = sockqueue.MaxPayload
		}
		slot.CapLen = uint32(capLen)
		copy(slot.Payload[:capLen], buff.Data[:capLen])

		st := so.statsFor(cpu)
		if so.Queue.TryEnqueue(&slot) {
			st.Recv++
		} else {
			st.Lost++
		}
	})
}
