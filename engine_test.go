// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "testing"

func newTestEngine(t *testing.T, kernel KernelSink) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.QueueSlots = 16
	cfg.CapLen = 256
	cfg.PrefetchLen = 8 // batch manually via Flush
	eng, err := NewEngine(1, cfg, kernel)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(eng.Close)
	return eng
}

func broadcastCopy(b *Qbuff, m *Monad) *Qbuff {
	m.Fanout = Fanout{Type: FanoutCopy, ClassMask: ClassDefault}
	return b
}

func TestEngineBroadcastDeliversToEverySocketInClass(t *testing.T) {
	eng := newTestEngine(t, nil)

	so0, err := eng.EnableSocket(0)
	if err != nil {
		t.Fatal(err)
	}
	so1, err := eng.EnableSocket(1)
	if err != nil {
		t.Fatal(err)
	}

	gid, err := eng.JoinGroup(so0.ID, AnyGroup, ClassDefault, GroupPolicy{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := eng.JoinGroup(so1.ID, gid, ClassDefault, GroupPolicy{}); err != nil {
		t.Fatal(err)
	}
	eng.BindDevice(1, 0, gid)
	if err := eng.SetComputation(gid, ProgramFunc(broadcastCopy)); err != nil {
		t.Fatal(err)
	}

	if err := eng.Receive(0, []byte("hello"), 1, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := eng.Flush(0); err != nil {
		t.Fatal(err)
	}

	for _, so := range []*Socket{so0, so1} {
		slot, ok := so.Queue.TryDequeue()
		if !ok {
			t.Fatalf("socket %d expected a delivered slot", so.ID)
		}
		if slot.Len != 5 {
			t.Fatalf("socket %d slot.Len = %d, want 5", so.ID, slot.Len)
		}
	}
}

func TestEngineDirectSteeringPicksOneSocket(t *testing.T) {
	eng := newTestEngine(t, nil)

	so0, _ := eng.EnableSocket(0)
	so1, _ := eng.EnableSocket(1)
	gid, _ := eng.JoinGroup(so0.ID, AnyGroup, ClassDefault, GroupPolicy{})
	eng.JoinGroup(so1.ID, gid, ClassDefault, GroupPolicy{})
	eng.BindDevice(1, 0, gid)

	eng.SetComputation(gid, ProgramFunc(func(b *Qbuff, m *Monad) *Qbuff {
		m.Fanout = Fanout{Type: FanoutSteering, ClassMask: ClassDefault, Hash: 0}
		return b
	}))

	eng.Receive(0, []byte("x"), 1, 0, 0)
	if err := eng.Flush(0); err != nil {
		t.Fatal(err)
	}

	n := 0
	for _, so := range []*Socket{so0, so1} {
		if _, ok := so.Queue.TryDequeue(); ok {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("single steering must deliver to exactly one socket, got %d", n)
	}
}

func TestEngineBPFilterDropsBeforeClassifier(t *testing.T) {
	eng := newTestEngine(t, nil)

	so0, _ := eng.EnableSocket(0)
	gid, _ := eng.JoinGroup(so0.ID, AnyGroup, ClassDefault, GroupPolicy{})
	eng.BindDevice(1, 0, gid)
	eng.SetComputation(gid, ProgramFunc(broadcastCopy))
	eng.SetBPFilter(gid, PacketFilterFunc(func(b *Qbuff) bool { return false }))

	eng.Receive(0, []byte("x"), 1, 0, 0)
	eng.Flush(0)

	if _, ok := so0.Queue.TryDequeue(); ok {
		t.Fatal("a BPF-rejected packet must never reach the socket queue")
	}
	if eng.GroupStats(gid).Drop == 0 {
		t.Fatal("a BPF-rejected packet must count as a group drop")
	}
}

func TestEngineCloneNeverSetsSockQueueBit(t *testing.T) {
	eng := newTestEngine(t, nil)

	so0, _ := eng.EnableSocket(0)
	gid, _ := eng.JoinGroup(so0.ID, AnyGroup, ClassDefault, GroupPolicy{})
	eng.BindDevice(1, 0, gid)
	eng.SetComputation(gid, ProgramFunc(func(b *Qbuff, m *Monad) *Qbuff {
		m.Fanout = Fanout{Type: FanoutCopy, ClassMask: ClassDefault, Actions: ActionClone}
		return b
	}))

	eng.Receive(0, []byte("x"), 1, 0, 0)
	eng.Flush(0)

	if _, ok := so0.Queue.TryDequeue(); ok {
		t.Fatal("a clone fanout must never set a sock_queue bit for this batch slot")
	}
}

func TestEngineVLANFilterRejectsUntaggedWhenEnabled(t *testing.T) {
	eng := newTestEngine(t, nil)

	so0, _ := eng.EnableSocket(0)
	gid, _ := eng.JoinGroup(so0.ID, AnyGroup, ClassDefault, GroupPolicy{})
	eng.BindDevice(1, 0, gid)
	eng.SetComputation(gid, ProgramFunc(broadcastCopy))
	eng.ToggleVLANFilter(gid, true)
	eng.AddVLAN(gid, 100)

	eng.Receive(0, []byte("x"), 1, 0, 0) // vid 0, not in the set
	eng.Flush(0)

	if _, ok := so0.Queue.TryDequeue(); ok {
		t.Fatal("a packet outside the group's VLAN filter must not be delivered")
	}

	eng.Receive(0, []byte("x"), 1, 0, 100)
	eng.Flush(0)
	if _, ok := so0.Queue.TryDequeue(); !ok {
		t.Fatal("a packet matching the VLAN filter must be delivered")
	}
}

type fakeKernel struct{ moved, copied int }

func (k *fakeKernel) Move(*Qbuff) { k.moved++ }
func (k *fakeKernel) Copy(*Qbuff) { k.copied++ }

func TestEngineKernelReinjection(t *testing.T) {
	kern := &fakeKernel{}
	eng := newTestEngine(t, kern)

	so0, _ := eng.EnableSocket(0)
	gid, _ := eng.JoinGroup(so0.ID, AnyGroup, ClassDefault, GroupPolicy{})
	eng.BindDevice(1, 0, gid)
	eng.SetComputation(gid, ProgramFunc(func(b *Qbuff, m *Monad) *Qbuff {
		b.Log.ToKernel++
		m.Fanout = Fanout{Type: FanoutDrop}
		return b
	}))

	eng.Receive(0, []byte("x"), 1, 0, 0)
	eng.Flush(0)

	if kern.moved != 1 {
		t.Fatalf("expected 1 kernel Move call, got %d", kern.moved)
	}
	if eng.Stats().Kern != 1 {
		t.Fatalf("expected global kern stat 1, got %d", eng.Stats().Kern)
	}
}

func TestEngineOverflowPanicsAtBatchBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueueSlots = 16
	cfg.CapLen = 64
	cfg.PrefetchLen = BatchLen
	eng, err := NewEngine(1, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer eng.Close()
	// Validate caps PrefetchLen at BatchLen, so Receive would flush on the
	// 64th packet; raise the trigger past BatchLen after construction so
	// the batch is never auto-flushed mid-test.
	eng.cfg.PrefetchLen = BatchLen + 1

	defer func() {
		if recover() == nil {
			t.Fatal("pushing past BatchLen packets before a flush must panic")
		}
	}()
	for i := 0; i <= BatchLen; i++ {
		eng.Receive(0, []byte("x"), 1, 0, 0)
	}
}
