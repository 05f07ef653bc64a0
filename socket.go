// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pfq

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/pfq/internal/sockqueue"
)

// MaxID is Q_MAX_ID: the fixed size of the socket table.
const MaxID = 1024

// MaxSockMask is Q_MAX_SOCK_MASK: the maximum length of a per-CPU
// weighted steering expansion, and therefore the ceiling on
// Σ weight(eligible sockets).
const MaxSockMask = 4096

// MaxWeight is the per-socket weight ceiling (Q_MAX_SOCK_MASK/Q_MAX_ID).
const MaxWeight = MaxSockMask / MaxID

// SocketStats are the per-CPU counters a socket exposes read-only
// through the control surface (§6).
type SocketStats struct {
	Recv uint64
	Lost uint64
	Drop uint64
}

// Socket is one consumer socket: an output ring plus the configuration
// and stats the control surface exposes.
type Socket struct {
	ID int

	Queue *sockqueue.Ring

	active atomix.Bool
	weight atomix.Uint64

	CapLen int
	Offset int
	Slots  int

	tstampEnabled atomix.Bool

	stats []SocketStats // per CPU, plain (no atomics: each CPU writes only its own slot)
}

func newSocket(id int, numCPU int, cfg Config) *Socket {
	s := &Socket{
		ID:     id,
		Queue:  sockqueue.New(cfg.QueueSlots),
		CapLen: cfg.CapLen,
		Slots:  cfg.QueueSlots,
		stats:  make([]SocketStats, numCPU),
	}
	s.weight.StoreRelaxed(1)
	return s
}

// Active reports whether the socket currently accepts packets.
func (s *Socket) Active() bool { return s.active.LoadAcquire() }

// SetActive toggles the queue-enable flag (§6 control surface).
func (s *Socket) SetActive(v bool) { s.active.StoreRelease(v) }

// Weight returns the current steering weight, clamped to [1, MaxWeight].
func (s *Socket) Weight() int { return int(s.weight.LoadAcquire()) }

// SetWeight sets the steering weight, clamping to [1, MaxWeight] per the
// §3 invariant and the §14 supplemental weight-expansion cap.
func (s *Socket) SetWeight(w int) {
	if w < 1 {
		w = 1
	}
	if w > MaxWeight {
		w = MaxWeight
	}
	s.weight.StoreRelease(uint64(w))
}

// TstampEnabled reports whether per-packet timestamping is on for this
// socket.
func (s *Socket) TstampEnabled() bool { return s.tstampEnabled.LoadAcquire() }

// statsFor returns a pointer to this CPU's stats slot. Each CPU only
// ever writes its own slot (§5: "statistics use per-CPU counters
// aggregated at read time; no contention on the write path").
func (s *Socket) statsFor(cpu int) *SocketStats { return &s.stats[cpu] }

// AggregateStats sums per-CPU counters for read-only exposure (§6).
func (s *Socket) AggregateStats() SocketStats {
	var total SocketStats
	for i := range s.stats {
		total.Recv += s.stats[i].Recv
		total.Lost += s.stats[i].Lost
		total.Drop += s.stats[i].Drop
	}
	return total
}

// SocketTable is the fixed-size registry of consumer sockets.
type SocketTable struct {
	numCPU  int
	cfg     Config
	sockets [MaxID]*Socket

	tstampCount atomix.Uint64 // process-wide timestamping-enabled counter (§6)
}

// NewSocketTable creates an empty socket table.
func NewSocketTable(numCPU int, cfg Config) *SocketTable {
	return &SocketTable{numCPU: numCPU, cfg: cfg}
}

// Enable allocates sid's Socket (creating it on first use) and marks it
// active. Returns ErrNoFreeSocket if sid is out of range.
func (t *SocketTable) Enable(sid int) (*Socket, error) {
	if sid < 0 || sid >= MaxID {
		return nil, ErrNoFreeSocket
	}
	if t.sockets[sid] == nil {
		t.sockets[sid] = newSocket(sid, t.numCPU, t.cfg)
	}
	t.sockets[sid].SetActive(true)
	return t.sockets[sid], nil
}

// Disable marks sid inactive without freeing its ring; a grace period is
// the caller's responsibility (§5: "socket close waits a grace period so
// any CPU currently holding a snapshot of the socket id bit releases it
// before the socket memory is freed").
func (t *SocketTable) Disable(sid int) {
	if sid < 0 || sid >= MaxID || t.sockets[sid] == nil {
		return
	}
	t.sockets[sid].SetActive(false)
}

// Get returns sid's Socket, or nil if unallocated or out of range.
func (t *SocketTable) Get(sid int) *Socket {
	if sid < 0 || sid >= MaxID {
		return nil
	}
	return t.sockets[sid]
}

// EnableTimestamp / DisableTimestamp maintain the process-wide counter
// the control surface exposes (§6).
func (t *SocketTable) EnableTimestamp(sid int) error {
	s := t.Get(sid)
	if s == nil {
		return ErrBadGroupID
	}
	if !s.tstampEnabled.LoadAcquire() {
		s.tstampEnabled.StoreRelease(true)
		t.tstampCount.AddAcqRel(1)
	}
	return nil
}

func (t *SocketTable) DisableTimestamp(sid int) error {
	s := t.Get(sid)
	if s == nil {
		return ErrBadGroupID
	}
	if s.tstampEnabled.LoadAcquire() {
		s.tstampEnabled.StoreRelease(false)
		t.tstampCount.AddAcqRel(^uint64(0)) // -1
	}
	return nil
}

// TimestampCount returns the process-wide count of sockets with
// timestamping enabled.
func (t *SocketTable) TimestampCount() uint64 { return t.tstampCount.LoadAcquire() }
