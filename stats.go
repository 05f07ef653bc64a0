// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

// GlobalStats are the process-wide counters exposed read-only through the
// control surface (§6, §12). Each field is the sum of one per-CPU counter
// array, aggregated on demand — the write path never contends (§5).
type GlobalStats struct {
	Recv uint64 // packets admitted into a batch
	Kern uint64 // packets re-injected to the kernel
	Frwd uint64 // buffs accepted by a lazy-egress endpoint's Transmit
	Disc uint64 // buffs an endpoint's Transmit did not accept
}

// engineStats holds the per-CPU counter arrays the batch processor writes
// without synchronization (§5: "statistics use per-CPU counters
// aggregated at read time"). Every array is indexed by cpu and, for
// recv/kern/frwd/disc, is the only thing Engine.Stats() reads.
type engineStats struct {
	recv []uint64
	kern []uint64
	frwd []uint64
	disc []uint64
}

func newEngineStats(numCPU int) *engineStats {
	return &engineStats{
		recv: make([]uint64, numCPU),
		kern: make([]uint64, numCPU),
		frwd: make([]uint64, numCPU),
		disc: make([]uint64, numCPU),
	}
}

func (s *engineStats) addRecv(cpu int, n uint64) { s.recv[cpu] += n }
func (s *engineStats) addKern(cpu int, n uint64) { s.kern[cpu] += n }
func (s *engineStats) addFrwd(cpu int, n uint64) { s.frwd[cpu] += n }
func (s *engineStats) addDisc(cpu int, n uint64) { s.disc[cpu] += n }

// aggregate sums every CPU's counters into a GlobalStats snapshot.
func (s *engineStats) aggregate() GlobalStats {
	var g GlobalStats
	for i := range s.recv {
		g.Recv += s.recv[i]
		g.Kern += s.kern[i]
		g.Frwd += s.frwd[i]
		g.Disc += s.disc[i]
	}
	return g
}

// groupRecv/groupDrop/groupAddFrwd/groupAddKern write to the group's own
// per-CPU GroupStats slot (§4.3, §6). They live on engineStats rather
// than Group itself purely so batch.go has one uniform e.stats.X(...)
// call surface for both engine-wide and per-group counters.
func (s *engineStats) groupRecv(g *Group, cpu int) {
	g.stats[cpu].Recv++
}

func (s *engineStats) groupDrop(g *Group, cpu int) {
	g.stats[cpu].Drop++
}

func (s *engineStats) groupAddFrwd(g *Group, cpu int, n uint64) {
	g.stats[cpu].Frwd += n
}

func (s *engineStats) groupAddKern(g *Group, cpu int, n uint64) {
	g.stats[cpu].Kern += n
}

// AggregateGroupStats sums gid's per-CPU counters for read-only exposure.
func (t *GroupTable) AggregateGroupStats(gid GID) GroupStats {
	g := t.Get(gid)
	if g == nil {
		return GroupStats{}
	}
	var total GroupStats
	for i := range g.stats {
		total.Recv += g.stats[i].Recv
		total.Drop += g.stats[i].Drop
		total.Frwd += g.stats[i].Frwd
		total.Kern += g.stats[i].Kern
	}
	return total
}
