// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// Program is the external classifier evaluation contract (§4.6). The
// core treats it as a pure function with side effects confined to buff,
// buff.Log, and the Monad it is handed — the DSL, its parser and symbol
// table live entirely outside this module.
//
// Required post-conditions on return:
//   - m.Fanout has a defined Type and ClassMask.
//   - if Type is FanoutSteering, Hash is set.
//   - if Type is FanoutDoubleSteering, Hash and Hash2 are set.
//   - a nil return means "drop this packet for this group".
type Program interface {
	Eval(buff *Qbuff, m *Monad) *Qbuff
}

// ProgramFunc adapts a plain function to Program, for reference and test
// classifiers that don't need a compiled primitive tree (§9: the runtime
// dispatch design note covers the tree representation a real DSL would
// use; it is out of scope here).
type ProgramFunc func(buff *Qbuff, m *Monad) *Qbuff

func (f ProgramFunc) Eval(buff *Qbuff, m *Monad) *Qbuff { return f(buff, m) }

// PacketFilter is the external byte-code packet filter contract
// (group.BPFilter). Match reports whether the packet is accepted; a
// rejected packet is counted as a group drop and evaluated no further
// (§4.1 phase 2).
type PacketFilter interface {
	Match(buff *Qbuff) bool
}

// PacketFilterFunc adapts a plain function to PacketFilter.
type PacketFilterFunc func(buff *Qbuff) bool

func (f PacketFilterFunc) Match(buff *Qbuff) bool { return f(buff) }

// Endpoint is the lazy egress target a classifier may record against a
// packet (GC.RecordEgress) — kernel re-injection and device forwarding
// itself are external collaborators (spec.md Non-goals: no reliable
// delivery, no retransmission).
type Endpoint interface {
	// Transmit attempts to send buffs and returns how many were
	// accepted. The remainder are accounted as discarded (§4.1 phase 3).
	Transmit(buffs []*Qbuff) (sent int)
}

// KernelSink is the external collaborator standing in for the kernel
// network stack re-injection path (§4.1 phase 4).
type KernelSink interface {
	Move(buff *Qbuff)
	Copy(buff *Qbuff)
}
