// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import "code.hybscloud.com/atomix"

// MaxVID is the highest valid 802.1Q VLAN id.
const MaxVID = 4094

// AllVLANs is the control-surface sentinel ("-1") meaning "every VLAN id
// from 1 to MaxVID" (§6, §14 supplemental VLAN semantics from pf_q.c).
const AllVLANs = -1

// VLANSet is a bitset over VLAN ids 1..MaxVID, read lock-free from the
// batch processor and written under the group table's writer
// serialization.
type VLANSet struct {
	words [(MaxVID + 64) / 64]atomix.Uint64
}

func vlanWordBit(vid int) (word, bit int) {
	return vid / 64, vid % 64
}

// Add sets vid in the set. vid == AllVLANs expands to every id in
// [1, MaxVID].
func (s *VLANSet) Add(vid int) error {
	if vid == AllVLANs {
		for id := 1; id <= MaxVID; id++ {
			s.setBit(id)
		}
		return nil
	}
	if vid < 1 || vid > MaxVID {
		return ErrInvalidVID
	}
	s.setBit(vid)
	return nil
}

// Remove clears vid from the set. vid == AllVLANs clears every id.
func (s *VLANSet) Remove(vid int) error {
	if vid == AllVLANs {
		for i := range s.words {
			s.words[i].StoreRelease(0)
		}
		return nil
	}
	if vid < 1 || vid > MaxVID {
		return ErrInvalidVID
	}
	word, bit := vlanWordBit(vid)
	for {
		old := s.words[word].LoadAcquire()
		if s.words[word].CompareAndSwapAcqRel(old, old&^(1<<uint(bit))) {
			return nil
		}
	}
}

// Contains reports whether vid is a member of the set.
func (s *VLANSet) Contains(vid int) bool {
	if vid < 1 || vid > MaxVID {
		return false
	}
	word, bit := vlanWordBit(vid)
	return s.words[word].LoadAcquire()&(1<<uint(bit)) != 0
}

func (s *VLANSet) setBit(vid int) {
	word, bit := vlanWordBit(vid)
	for {
		old := s.words[word].LoadAcquire()
		next := old | (1 << uint(bit))
		if old == next || s.words[word].CompareAndSwapAcqRel(old, next) {
			return
		}
	}
}
