// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "code.hybscloud.com/atomix"

// GID identifies a group.
type GID int

// AnyGroup requests the lowest free group id on Join.
const AnyGroup GID = -1

// MaxGroup is Q_MAX_GROUP: the fixed size of the group table.
const MaxGroup = 256

// GroupStats are the per-CPU counters one group exposes read-only (§6).
type GroupStats struct {
	Recv uint64
	Drop uint64
	Frwd uint64
	Kern uint64
}

// GroupPolicy controls which sockets may join a group.
type GroupPolicy struct {
	Restricted bool
	Owner      int // valid sid when Restricted is true
}

func (p GroupPolicy) admits(sid int) bool {
	return !p.Restricted || p.Owner == sid
}

// Group is a policy bundle: filter + classifier + state + socket set,
// identified by a small integer (§3, §4.3).
type Group struct {
	gid GID

	comp     atomix.Uintptr // *compBox
	bpFilter atomix.Uintptr // *filterBox
	state    atomix.Uintptr // *[]byte

	vlanFiltersEnabled atomix.Bool
	vlanSet            VLANSet

	sockID [MaxClass]atomix.Uint64

	policy atomix.Uintptr // *GroupPolicy
	inUse  atomix.Bool

	stats []GroupStats // per-CPU, written only by the owning CPU
}

type compBox struct{ p Program }
type filterBox struct{ f PacketFilter }

func newGroup(gid GID, numCPU int) *Group {
	g := &Group{gid: gid, stats: make([]GroupStats, numCPU)}
	pol := GroupPolicy{}
	g.policy.StoreRelease(ptrToUintptr(&pol))
	return g
}

// Comp returns the currently installed classifier program, or nil.
func (g *Group) Comp() Program {
	p := ptrFromUintptr[compBox](g.comp.LoadAcquire())
	if p == nil {
		return nil
	}
	return p.p
}

// BPFilter returns the currently installed byte-code packet filter, or
// nil.
func (g *Group) BPFilter() PacketFilter {
	f := ptrFromUintptr[filterBox](g.bpFilter.LoadAcquire())
	if f == nil {
		return nil
	}
	return f.f
}

// State returns the currently installed opaque state blob, or nil.
func (g *Group) State() []byte {
	p := ptrFromUintptr[[]byte](g.state.LoadAcquire())
	if p == nil {
		return nil
	}
	return *p
}

// VLANFiltersEnabled reports whether VLAN filtering is active for this
// group.
func (g *Group) VLANFiltersEnabled() bool { return g.vlanFiltersEnabled.LoadAcquire() }

// SockID returns the bitmask of sockets joined to class c.
func (g *Group) SockID(class int) uint64 { return g.sockID[class].LoadAcquire() }

// GroupTable is a fixed-size table of groups, joined/left under writer
// serialization and epoch-reclaimed field swaps (§4.3).
type GroupTable struct {
	numCPU int
	groups [MaxGroup]*Group
	epoch  *epochReclaimer
}

// NewGroupTable creates an empty group table.
func NewGroupTable(numCPU int) *GroupTable {
	return &GroupTable{numCPU: numCPU, epoch: newEpochReclaimer(numCPU)}
}

// Get returns gid's Group, or nil if unallocated or out of range.
func (t *GroupTable) Get(gid GID) *Group {
	if gid < 0 || int(gid) >= MaxGroup {
		return nil
	}
	return t.groups[gid]
}

// Join allocates (if gid == AnyGroup) or validates gid, records sid under
// classMask, and returns the gid. Mirrors pf_q.c's group-join ioctl
// (§4.3).
func (t *GroupTable) Join(sid int, gid GID, classMask uint8, policy GroupPolicy) (GID, error) {
	if classMask == 0 || classMask>>MaxClass != 0 {
		return 0, ErrBadClassMask
	}

	if gid == AnyGroup {
		found := GID(-1)
		for i := 0; i < MaxGroup; i++ {
			g := t.groups[i]
			if g == nil {
				found = GID(i)
				break
			}
			if !g.inUse.LoadAcquire() {
				pol := *ptrFromUintptr[GroupPolicy](g.policy.LoadAcquire())
				if pol.admits(sid) {
					found = GID(i)
					break
				}
			}
		}
		if found == -1 {
			return 0, ErrNoFreeGroup
		}
		gid = found
	}

	if gid < 0 || int(gid) >= MaxGroup {
		return 0, ErrBadGroupID
	}

	g := t.groups[gid]
	if g == nil {
		g = newGroup(gid, t.numCPU)
		t.groups[gid] = g
	}

	pol := *ptrFromUintptr[GroupPolicy](g.policy.LoadAcquire())
	if g.inUse.LoadAcquire() && !pol.admits(sid) {
		return 0, ErrPermissionDenied
	}

	g.inUse.StoreRelease(true)
	newPol := policy
	old := ptrFromUintptr[GroupPolicy](g.policy.LoadAcquire())
	g.policy.StoreRelease(ptrToUintptr(&newPol))
	t.epoch.Retire(func() { _ = old })

	t.setClassBits(g, sid, classMask)
	return gid, nil
}

func (t *GroupTable) setClassBits(g *Group, sid int, classMask uint8) {
	forEachBit(uint64(classMask), func(class int) {
		for {
			old := g.sockID[class].LoadAcquire()
			next := old | (uint64(1) << uint(sid))
			if g.sockID[class].CompareAndSwapAcqRel(old, next) {
				return
			}
		}
	})
}

// Leave clears sid's bit across every class of gid.
func (t *GroupTable) Leave(gid GID, sid int) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	for class := 0; class < MaxClass; class++ {
		for {
			old := g.sockID[class].LoadAcquire()
			next := old &^ (uint64(1) << uint(sid))
			if g.sockID[class].CompareAndSwapAcqRel(old, next) {
				break
			}
		}
	}
	return nil
}

// SetComputation atomically swaps gid's classifier program, retiring the
// old one through the epoch reclaimer (§4.3).
func (t *GroupTable) SetComputation(gid GID, prog Program) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	box := &compBox{p: prog}
	old := ptrFromUintptr[compBox](g.comp.LoadAcquire())
	g.comp.StoreRelease(ptrToUintptr(box))
	t.epoch.Retire(func() { _ = old })
	return nil
}

// SetBPFilter atomically swaps gid's byte-code filter, or clears it when
// f is nil.
func (t *GroupTable) SetBPFilter(gid GID, f PacketFilter) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	var box *filterBox
	if f != nil {
		box = &filterBox{f: f}
	}
	old := ptrFromUintptr[filterBox](g.bpFilter.LoadAcquire())
	g.bpFilter.StoreRelease(ptrToUintptr(box))
	t.epoch.Retire(func() { _ = old })
	return nil
}

// SetState atomically swaps gid's opaque state blob.
func (t *GroupTable) SetState(gid GID, state []byte) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	old := ptrFromUintptr[[]byte](g.state.LoadAcquire())
	g.state.StoreRelease(ptrToUintptr(&state))
	t.epoch.Retire(func() { _ = old })
	return nil
}

// ToggleVLANFilter enables or disables VLAN filtering for gid.
func (t *GroupTable) ToggleVLANFilter(gid GID, on bool) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	g.vlanFiltersEnabled.StoreRelease(on)
	return nil
}

// AddVLAN / RemoveVLAN add or remove a VLAN id (or AllVLANs) from gid's
// filter set (§14 supplemental VLAN semantics).
func (t *GroupTable) AddVLAN(gid GID, vid int) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	return g.vlanSet.Add(vid)
}

func (t *GroupTable) RemoveVLAN(gid GID, vid int) error {
	g := t.Get(gid)
	if g == nil {
		return ErrBadGroupID
	}
	return g.vlanSet.Remove(vid)
}
