// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "code.hybscloud.com/atomix"

// GroupMask is a bitmask over group ids.
type GroupMask uint64

type devKey struct {
	ifindex int
	rxQueue int
}

// devSnapshot is an immutable mapping (ifindex,rxQueue) -> group mask.
// Readers load the current snapshot with one atomic pointer read and
// never lock (§4.2).
type devSnapshot struct {
	entries map[devKey]GroupMask
	direct  map[int]bool // per-ifindex direct-capture flag
}

func (s *devSnapshot) clone() *devSnapshot {
	n := &devSnapshot{
		entries: make(map[devKey]GroupMask, len(s.entries)),
		direct:  make(map[int]bool, len(s.direct)),
	}
	for k, v := range s.entries {
		n.entries[k] = v
	}
	for k, v := range s.direct {
		n.direct[k] = v
	}
	return n
}

// DeviceMap maps (ifindex, rxQueue) to the bitmask of interested groups.
// Reads are lock-free; writers serialize via the embedded mutex-free
// publish discipline — one writer goroutine is expected at a time, the
// same assumption pf_q.c makes for its devmap ioctl path — and retire
// the old snapshot through an epoch reclaimer instead of sleeping for a
// grace period (§9).
type DeviceMap struct {
	snapshot atomix.Uintptr // *devSnapshot, boxed
	epoch    *epochReclaimer
}

// NewDeviceMap creates an empty device map.
func NewDeviceMap(numCPU int) *DeviceMap {
	d := &DeviceMap{epoch: newEpochReclaimer(numCPU)}
	d.publish(&devSnapshot{entries: map[devKey]GroupMask{}, direct: map[int]bool{}})
	return d
}

func (d *DeviceMap) load() *devSnapshot {
	return ptrFromUintptr[devSnapshot](d.snapshot.LoadAcquire())
}

func (d *DeviceMap) publish(s *devSnapshot) {
	d.snapshot.StoreRelease(ptrToUintptr(s))
}

// Lookup returns the group bitmask bound to (ifindex, rxQueue), read
// lock-free (§4.1 phase 1 reads this on every packet).
func (d *DeviceMap) Lookup(ifindex, rxQueue int) GroupMask {
	snap := d.load()
	return snap.entries[devKey{ifindex, rxQueue}]
}

// DirectCapture reports whether ifindex is flagged for direct capture.
func (d *DeviceMap) DirectCapture(ifindex int) bool {
	return d.load().direct[ifindex]
}

// SetDirectCapture toggles the per-ifindex direct-capture monitor flag.
func (d *DeviceMap) SetDirectCapture(ifindex int, on bool) {
	for {
		old := d.load()
		next := old.clone()
		next.direct[ifindex] = on
		d.publish(next)
		d.epoch.Retire(func() { _ = old })
		return
	}
}

// Bind adds gid to the group mask bound to (ifindex, rxQueue).
func (d *DeviceMap) Bind(ifindex, rxQueue int, gid GID) {
	old := d.load()
	next := old.clone()
	key := devKey{ifindex, rxQueue}
	next.entries[key] = next.entries[key] | (GroupMask(1) << uint(gid))
	d.publish(next)
	d.epoch.Retire(func() { _ = old })
}

// Unbind clears gid from the group mask bound to (ifindex, rxQueue).
// Bind then Unbind restores the map bit-exactly (§8 idempotence
// property): if the resulting mask is zero the entry is removed so
// Lookup round-trips to the original (absent) state.
func (d *DeviceMap) Unbind(ifindex, rxQueue int, gid GID) {
	old := d.load()
	next := old.clone()
	key := devKey{ifindex, rxQueue}
	m := next.entries[key] &^ (GroupMask(1) << uint(gid))
	if m == 0 {
		delete(next.entries, key)
	} else {
		next.entries[key] = m
	}
	d.publish(next)
	d.epoch.Retire(func() { _ = old })
}

// EnterReader / LeaveReader let a batch processor fence its view of the
// device map against concurrent Bind/Unbind for epoch reclamation
// purposes. ProcessBatch calls these once per batch, not per packet.
func (d *DeviceMap) EnterReader(cpu int) { d.epoch.Enter(cpu) }
func (d *DeviceMap) LeaveReader(cpu int) { d.epoch.Leave(cpu) }
