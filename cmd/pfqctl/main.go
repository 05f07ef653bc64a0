// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command pfqctl starts a pfq engine with the given configuration and
// drives its control surface from the command line: joining a group to a
// device, installing a trivial broadcast classifier, and printing
// aggregated stats on an interval until interrupted.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"code.hybscloud.com/pfq"
)

func main() {
	numCPU := flag.Int("cpus", 1, "number of per-CPU pipelines")
	capLen := flag.Int("caplen", 1514, "bytes captured per packet")
	queueSlots := flag.Int("queue-slots", 131072, "per-socket ring slot count")
	prefetchLen := flag.Int("prefetch-len", 1, "per-CPU batch trigger length")
	flushPeriod := flag.Duration("flush-period", 10*time.Millisecond, "per-CPU flush timer period")
	ifindex := flag.Int("ifindex", 1, "device ifindex to bind the default group to")
	rxQueue := flag.Int("rxqueue", 0, "device rx queue to bind the default group to")
	statsPeriod := flag.Duration("stats-period", time.Second, "stats print interval, 0 disables")
	flag.Parse()

	cfg := pfq.DefaultConfig()
	cfg.CapLen = *capLen
	cfg.QueueSlots = *queueSlots
	cfg.PrefetchLen = *prefetchLen

	eng, err := pfq.NewEngine(*numCPU, cfg, nil)
	if err != nil {
		log.Fatalf("pfqctl: new engine: %v", err)
	}
	defer eng.Close()

	sock, err := eng.EnableSocket(0)
	if err != nil {
		log.Fatalf("pfqctl: enable socket: %v", err)
	}

	gid, err := eng.JoinGroup(sock.ID, pfq.AnyGroup, pfq.ClassDefault, pfq.GroupPolicy{})
	if err != nil {
		log.Fatalf("pfqctl: join group: %v", err)
	}
	eng.BindDevice(*ifindex, *rxQueue, gid)

	if err := eng.SetComputation(gid, pfq.ProgramFunc(func(b *pfq.Qbuff, m *pfq.Monad) *pfq.Qbuff {
		m.Fanout = pfq.Fanout{Type: pfq.FanoutCopy, ClassMask: pfq.ClassDefault}
		return b
	})); err != nil {
		log.Fatalf("pfqctl: set computation: %v", err)
	}

	eng.StartFlushTimers(*flushPeriod)
	log.Printf("pfqctl: running, group=%d ifindex=%d rxqueue=%d cpus=%d", gid, *ifindex, *rxQueue, *numCPU)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	var ticker *time.Ticker
	var tickC <-chan time.Time
	if *statsPeriod > 0 {
		ticker = time.NewTicker(*statsPeriod)
		tickC = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-sig:
			log.Printf("pfqctl: shutting down, %+v", eng.Stats())
			return
		case <-tickC:
			log.Printf("pfqctl: stats=%+v group=%+v", eng.Stats(), eng.GroupStats(gid))
		}
	}
}
