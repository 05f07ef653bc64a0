// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "time"

// Engine is the packet-steering core: one per loaded instance, wiring the
// device map, group table, socket table, and one PerCPUData per CPU
// around the four-phase batch processor (§3, §4).
type Engine struct {
	cfg Config

	devmap  *DeviceMap
	groups  *GroupTable
	sockets *SocketTable
	percpu  []*PerCPUData
	stats   *engineStats

	kernel KernelSink
}

// NewEngine allocates an Engine for numCPU per-CPU pipelines. cfg is
// validated; an invalid cfg returns ErrInvalidConfigValue with no side
// effects (§7).
func NewEngine(numCPU int, cfg Config, kernel KernelSink) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if numCPU < 1 {
		numCPU = 1
	}

	e := &Engine{
		cfg:     cfg,
		devmap:  NewDeviceMap(numCPU),
		groups:  NewGroupTable(numCPU),
		sockets: NewSocketTable(numCPU, cfg),
		percpu:  make([]*PerCPUData, numCPU),
		stats:   newEngineStats(numCPU),
		kernel:  kernel,
	}
	for i := range e.percpu {
		e.percpu[i] = NewPerCPUData(cfg)
	}
	return e, nil
}

// Close stops every per-CPU clock and flush timer.
func (e *Engine) Close() {
	for _, p := range e.percpu {
		p.StopFlushTimer()
		p.Close()
	}
}

// StartFlushTimers arms every CPU's periodic flush timer at period,
// bounding per-packet latency independent of arrival rate (§4.5).
func (e *Engine) StartFlushTimers(period time.Duration) {
	for i, p := range e.percpu {
		cpu := i
		p.StartFlushTimer(period, func() {
			_ = e.ProcessBatch(cpu)
		})
	}
}

// Receive admits one captured packet into cpu's in-flight batch, flushing
// the batch once it reaches cfg.PrefetchLen (§4.1, §4.5). The Qbuff is
// drawn from cpu's own buffer pool (never another CPU's), populated with
// data/ifindex/rxQueue/vid, and released back to the pool at the end of
// whichever batch processes it (§4.1 phase 4).
func (e *Engine) Receive(cpu int, data []byte, ifindex, rxQueue, vid int) error {
	if cpu < 0 || cpu >= len(e.percpu) {
		return ErrBadGroupID
	}
	pcpu := e.percpu[cpu]
	pcpu.Touch()

	buff, err := pcpu.Pool.Get()
	if err != nil {
		return err
	}
	buff.Data = append(buff.Data[:0], data...)
	buff.Ifindex = ifindex
	buff.RxQueue = rxQueue
	buff.SetVID(vid)
	pcpu.GC.Push(buff)

	if pcpu.GC.Size() >= e.cfg.PrefetchLen {
		return e.ProcessBatch(cpu)
	}
	return nil
}

// Flush forces cpu's in-flight batch to process immediately, regardless
// of fill level.
func (e *Engine) Flush(cpu int) error {
	if cpu < 0 || cpu >= len(e.percpu) {
		return ErrBadGroupID
	}
	return e.ProcessBatch(cpu)
}

// Stats returns the aggregated process-wide counters (§6, §12).
func (e *Engine) Stats() GlobalStats { return e.stats.aggregate() }

// --- Socket control surface (§6) ---

// EnableSocket allocates and activates sid.
func (e *Engine) EnableSocket(sid int) (*Socket, error) { return e.sockets.Enable(sid) }

// DisableSocket deactivates sid without freeing its ring.
func (e *Engine) DisableSocket(sid int) { e.sockets.Disable(sid) }

// Socket returns sid's Socket, or nil.
func (e *Engine) Socket(sid int) *Socket { return e.sockets.Get(sid) }

// SetSocketWeight sets sid's steering weight, clamped to [1, MaxWeight].
func (e *Engine) SetSocketWeight(sid int, w int) error {
	so := e.sockets.Get(sid)
	if so == nil {
		return ErrNoFreeSocket
	}
	so.SetWeight(w)
	return nil
}

// EnableTimestamp / DisableTimestamp toggle per-packet timestamping for
// sid.
func (e *Engine) EnableTimestamp(sid int) error  { return e.sockets.EnableTimestamp(sid) }
func (e *Engine) DisableTimestamp(sid int) error { return e.sockets.DisableTimestamp(sid) }

// TimestampCount returns the process-wide count of timestamping-enabled
// sockets.
func (e *Engine) TimestampCount() uint64 { return e.sockets.TimestampCount() }

// SocketStats returns sid's aggregated per-CPU counters.
func (e *Engine) SocketStats(sid int) SocketStats {
	so := e.sockets.Get(sid)
	if so == nil {
		return SocketStats{}
	}
	return so.AggregateStats()
}

// --- Group control surface (§4.3, §6) ---

// JoinGroup joins sid to gid (or AnyGroup for the lowest free id) under
// classMask, subject to policy admission.
func (e *Engine) JoinGroup(sid int, gid GID, classMask uint8, policy GroupPolicy) (GID, error) {
	return e.groups.Join(sid, gid, classMask, policy)
}

// LeaveGroup removes sid from gid across every class.
func (e *Engine) LeaveGroup(gid GID, sid int) error { return e.groups.Leave(gid, sid) }

// SetComputation installs gid's classifier program.
func (e *Engine) SetComputation(gid GID, prog Program) error {
	return e.groups.SetComputation(gid, prog)
}

// SetBPFilter installs (or clears, if f is nil) gid's byte-code filter.
func (e *Engine) SetBPFilter(gid GID, f PacketFilter) error {
	return e.groups.SetBPFilter(gid, f)
}

// SetGroupState installs gid's opaque classifier state blob.
func (e *Engine) SetGroupState(gid GID, state []byte) error {
	return e.groups.SetState(gid, state)
}

// ToggleVLANFilter enables or disables VLAN filtering for gid.
func (e *Engine) ToggleVLANFilter(gid GID, on bool) error {
	return e.groups.ToggleVLANFilter(gid, on)
}

// AddVLAN / RemoveVLAN add or remove a VLAN id (or AllVLANs) from gid's
// filter set.
func (e *Engine) AddVLAN(gid GID, vid int) error    { return e.groups.AddVLAN(gid, vid) }
func (e *Engine) RemoveVLAN(gid GID, vid int) error { return e.groups.RemoveVLAN(gid, vid) }

// GroupStats returns gid's aggregated per-CPU counters.
func (e *Engine) GroupStats(gid GID) GroupStats { return e.groups.AggregateGroupStats(gid) }

// --- Device map control surface (§4.2, §6) ---

// BindDevice adds gid's interest in (ifindex, rxQueue).
func (e *Engine) BindDevice(ifindex, rxQueue int, gid GID) { e.devmap.Bind(ifindex, rxQueue, gid) }

// UnbindDevice removes gid's interest in (ifindex, rxQueue).
func (e *Engine) UnbindDevice(ifindex, rxQueue int, gid GID) {
	e.devmap.Unbind(ifindex, rxQueue, gid)
}

// SetDirectCapture toggles the per-ifindex direct-capture monitor flag.
func (e *Engine) SetDirectCapture(ifindex int, on bool) { e.devmap.SetDirectCapture(ifindex, on) }

// DirectCapture reports whether ifindex is flagged for direct capture.
func (e *Engine) DirectCapture(ifindex int) bool { return e.devmap.DirectCapture(ifindex) }
