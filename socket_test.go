// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "testing"

func testConfig() Config {
	c := DefaultConfig()
	c.QueueSlots = 16
	c.PrefetchLen = 1
	c.CapLen = 256
	return c
}

func TestSocketTableEnableDisable(t *testing.T) {
	st := NewSocketTable(1, testConfig())
	so, err := st.Enable(4)
	if err != nil {
		t.Fatal(err)
	}
	if !so.Active() {
		t.Fatal("socket should be active right after Enable")
	}
	st.Disable(4)
	if so.Active() {
		t.Fatal("socket should be inactive after Disable")
	}
	if st.Get(4) != so {
		t.Fatal("Get must return the same Socket instance Disable did not free")
	}
}

func TestSocketTableEnableOutOfRange(t *testing.T) {
	st := NewSocketTable(1, testConfig())
	if _, err := st.Enable(-1); Kind(err) != KindNoFreeSocket {
		t.Fatalf("negative sid must return ErrNoFreeSocket, got %v", err)
	}
	if _, err := st.Enable(MaxID); Kind(err) != KindNoFreeSocket {
		t.Fatalf("sid == MaxID must return ErrNoFreeSocket, got %v", err)
	}
}

func TestSocketWeightClamp(t *testing.T) {
	st := NewSocketTable(1, testConfig())
	so, _ := st.Enable(0)
	so.SetWeight(0)
	if so.Weight() != 1 {
		t.Fatalf("weight below 1 must clamp to 1, got %d", so.Weight())
	}
	so.SetWeight(MaxWeight + 100)
	if so.Weight() != MaxWeight {
		t.Fatalf("weight above MaxWeight must clamp to MaxWeight, got %d", so.Weight())
	}
}

func TestSocketTableTimestampCount(t *testing.T) {
	st := NewSocketTable(1, testConfig())
	st.Enable(0)
	st.Enable(1)
	if st.TimestampCount() != 0 {
		t.Fatal("timestamp count must start at 0")
	}
	if err := st.EnableTimestamp(0); err != nil {
		t.Fatal(err)
	}
	if err := st.EnableTimestamp(0); err != nil { // idempotent
		t.Fatal(err)
	}
	if st.TimestampCount() != 1 {
		t.Fatalf("enabling the same socket twice must not double-count, got %d", st.TimestampCount())
	}
	st.EnableTimestamp(1)
	if st.TimestampCount() != 2 {
		t.Fatalf("expected count 2, got %d", st.TimestampCount())
	}
	st.DisableTimestamp(0)
	if st.TimestampCount() != 1 {
		t.Fatalf("expected count 1 after one disable, got %d", st.TimestampCount())
	}
}
