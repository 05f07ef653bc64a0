// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package pfq implements the per-CPU packet-capture and steering core:
// a lockless batch pipeline that demultiplexes incoming packets into
// groups, runs a programmable classifier per group, and fans payloads
// out to consumer socket queues with hash-based steering, broadcast,
// double-steering and cloning semantics.
//
// # Scope
//
// pfq owns the batch processor, the per-CPU buffer pool and garbage
// collector, the group/socket/device-map data model, and the MPSC
// output ring each socket reads from. It treats the packet source
// hook, socket option/mmap plumbing, and the classifier DSL itself as
// external collaborators: narrow typed interfaces, not implementations.
//
// # Quick start
//
//	eng, _ := pfq.NewEngine(numCPU, pfq.DefaultConfig(), nil)
//	sid, _ := eng.EnableSocket(0)
//	gid, _ := eng.JoinGroup(sid.ID, pfq.AnyGroup, pfq.ClassDefault, pfq.GroupPolicy{})
//	eng.BindDevice(2 /* ifindex */, 0 /* rx queue */, gid)
//	eng.SetComputation(gid, pfq.ProgramFunc(func(b *pfq.Qbuff, m *pfq.Monad) *pfq.Qbuff {
//		m.Fanout = pfq.Fanout{Type: pfq.FanoutCopy, ClassMask: pfq.ClassDefault}
//		return b
//	}))
//
//	eng.Receive(cpu, pkt, 2, 0, 0)
//	eng.Flush(cpu)
//
// # Concurrency model
//
// Each CPU index owns its own prefetch queue, GC pool, buffer pool and
// steering memoization cache; ProcessBatch for one CPU never observes
// another CPU's per-CPU state and never suspends mid-batch. Shared
// state (device map, group table, socket table) is read lock-free and
// updated through atomic pointer/bit swaps followed by epoch-gated
// reclamation — see epoch.go.
//
// # Dependencies
//
// pfq uses [code.hybscloud.com/atomix] for atomics with explicit memory
// ordering, [code.hybscloud.com/spin] for bounded busy-wait backoff,
// [code.hybscloud.com/iox] for semantic (non-failure) errors,
// [github.com/agilira/go-timecache] for a cached low-overhead clock, and
// [github.com/agilira/go-errors] for coded control-surface errors. The
// generic lock-free queue family this module started from lives on as
// internal/lfq, backing the per-socket output ring (internal/sockqueue).
package pfq
