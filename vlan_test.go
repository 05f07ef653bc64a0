// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "testing"

func TestVLANSetAddContainsRemove(t *testing.T) {
	var s VLANSet
	if s.Contains(10) {
		t.Fatal("fresh set must not contain vid 10")
	}
	if err := s.Add(10); err != nil {
		t.Fatal(err)
	}
	if !s.Contains(10) {
		t.Fatal("expected vid 10 to be a member after Add")
	}
	if err := s.Remove(10); err != nil {
		t.Fatal(err)
	}
	if s.Contains(10) {
		t.Fatal("vid 10 should be gone after Remove")
	}
}

func TestVLANSetAllVLANs(t *testing.T) {
	var s VLANSet
	if err := s.Add(AllVLANs); err != nil {
		t.Fatal(err)
	}
	if !s.Contains(1) || !s.Contains(MaxVID) || !s.Contains(2000) {
		t.Fatal("AllVLANs must cover every id in [1, MaxVID]")
	}
	if err := s.Remove(AllVLANs); err != nil {
		t.Fatal(err)
	}
	if s.Contains(1) || s.Contains(MaxVID) {
		t.Fatal("Remove(AllVLANs) must clear every id")
	}
}

func TestVLANSetOutOfRange(t *testing.T) {
	var s VLANSet
	if err := s.Add(0); err == nil {
		t.Fatal("vid 0 is out of range and must error")
	}
	if err := s.Add(MaxVID + 1); err == nil {
		t.Fatal("vid beyond MaxVID must error")
	}
	if s.Contains(0) || s.Contains(MaxVID+1) {
		t.Fatal("out-of-range vids must never be reported as members")
	}
}
