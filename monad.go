// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// ClassDefault is the class mask a freshly-initialized Monad carries: a
// classifier that never touches ClassMask broadcasts to class 0 only.
const ClassDefault uint8 = 1 << 0

// MaxClass is Q_MAX_CLASS: the number of fan-out subchannels a group can
// have sockets joined to.
const MaxClass = 4

// FanoutType is the classifier's delivery decision for a packet within
// one group.
type FanoutType uint8

const (
	// FanoutCopy broadcasts to every socket eligible under ClassMask.
	// A zero-value FanoutType is treated as FanoutCopy (§4.1 edge case:
	// "a classifier with a null fanout type is treated as copy").
	FanoutCopy FanoutType = iota
	// FanoutDrop discards the packet for this group.
	FanoutDrop
	// FanoutSteering picks exactly one eligible socket by Hash.
	FanoutSteering
	// FanoutDoubleSteering picks up to two eligible sockets, by Hash
	// and Hash2. Degenerates to single steering when Hash == Hash2
	// (§4.1 tie-break).
	FanoutDoubleSteering
)

// Action is a bitmask of legacy per-packet actions a classifier may set
// in addition to Type/ClassMask. Multiple bits may be set; precedence is
// resolved by resolveAction (§9 Open Question: steal > drop > pass >
// clone, decided in DESIGN.md).
type Action uint8

const (
	ActionSteal Action = 1 << iota
	ActionDrop
	ActionPass
	ActionClone
)

// Fanout is the classifier's output for one (packet, group) evaluation.
type Fanout struct {
	Type      FanoutType
	ClassMask uint8
	Hash      uint32
	Hash2     uint32
	Actions   Action
}

func isSteering(f Fanout) bool {
	return f.Type == FanoutSteering || f.Type == FanoutDoubleSteering
}

func isDoubleSteering(f Fanout) bool {
	return f.Type == FanoutDoubleSteering && f.Hash != f.Hash2
}

func isDrop(f Fanout) bool {
	return f.Type == FanoutDrop || (f.Actions != 0 && resolveAction(f.Actions) == ActionDrop)
}

func isClone(f Fanout) bool {
	return f.Actions != 0 && resolveAction(f.Actions) == ActionClone
}

// resolveAction picks the single effective action when more than one of
// {steal, drop, pass, clone} is set on a fanout, per the precedence this
// module decided on for the open question in spec.md §9: steal > drop >
// pass > clone.
func resolveAction(a Action) Action {
	switch {
	case a&ActionSteal != 0:
		return ActionSteal
	case a&ActionDrop != 0:
		return ActionDrop
	case a&ActionPass != 0:
		return ActionPass
	case a&ActionClone != 0:
		return ActionClone
	default:
		return 0
	}
}

// EndpointContext mirrors pf_q.c's EPOINT_SRC|EPOINT_DST: which address
// fields of the packet the classifier's endpoint primitives should
// consider. Carried opaquely by the monad for the external classifier.
type EndpointContext uint8

const (
	EndpointSrc EndpointContext = 1 << iota
	EndpointDst
)

// Monad is per-packet classifier evaluation scratch, live only for the
// duration of one group's evaluation of one packet (§4.1 phase 2, §4.6
// evaluation contract). It is always reachable through Qbuff.Monad
// during that window and never retained past it.
type Monad struct {
	Fanout Fanout
	Group  *Group
	State  uint64

	Shift   uint
	IPOff   int
	IPProto int

	EPContext EndpointContext
}

// IPProtoNone is the classifier contract's "no transport protocol
// resolved yet" sentinel.
const IPProtoNone = -1

func newMonad(group *Group) *Monad {
	return &Monad{
		Fanout:    Fanout{Type: FanoutCopy, ClassMask: ClassDefault},
		Group:     group,
		IPProto:   IPProtoNone,
		EPContext: EndpointSrc | EndpointDst,
	}
}
