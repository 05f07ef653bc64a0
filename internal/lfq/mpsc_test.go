// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfq

import (
	"errors"
	"sync"
	"testing"
)

func TestMPSCBasic(t *testing.T) {
	q := NewMPSC[int](3)

	if q.Cap() != 4 {
		t.Fatalf("Cap: got %d, want 4", q.Cap())
	}

	for i := range 4 {
		v := i + 100
		if err := q.Enqueue(&v); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}

	v := 999
	if err := q.Enqueue(&v); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("Enqueue on full: got %v, want ErrWouldBlock", err)
	}

	for i := range 4 {
		val, err := q.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue(%d): %v", i, err)
		}
		if val != i+100 {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, val, i+100)
		}
	}

	if _, err := q.Dequeue(); !errors.Is(err, ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

func TestMPSCFillTracksOccupancy(t *testing.T) {
	q := NewMPSC[int](4)
	if q.Fill() != 0 {
		t.Fatalf("Fill on empty queue: got %d, want 0", q.Fill())
	}
	v := 1
	q.Enqueue(&v)
	q.Enqueue(&v)
	if q.Fill() != 2 {
		t.Fatalf("Fill after 2 enqueues: got %d, want 2", q.Fill())
	}
	q.Dequeue()
	if q.Fill() != 1 {
		t.Fatalf("Fill after 1 dequeue: got %d, want 1", q.Fill())
	}
}

func TestMPSCDrainIsAHintOnly(t *testing.T) {
	q := NewMPSC[int](2)
	v := 1
	q.Enqueue(&v)
	q.Drain()
	if _, err := q.Dequeue(); err != nil {
		t.Fatalf("Dequeue after Drain must still return queued items: %v", err)
	}
}

// TestMPSCFIFOOrderingPerProducer verifies FIFO ordering per producer:
// each producer's items keep their relative order even when interleaved
// with other producers' enqueues.
func TestMPSCFIFOOrderingPerProducer(t *testing.T) {
	if RaceEnabled {
		t.Skip("skip: FIFO test requires precise timing")
	}

	q := NewMPSC[int](1024)
	const (
		numProducers = 4
		itemsPerProd = 2000
	)

	var wg sync.WaitGroup
	for p := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range itemsPerProd {
				v := id*100000 + i
				for q.Enqueue(&v) != nil {
				}
			}
		}(p)
	}

	results := make([][]int, numProducers)
	for i := range results {
		results[i] = make([]int, 0, itemsPerProd)
	}
	var resultsMu sync.Mutex

	wg.Add(1)
	go func() {
		defer wg.Done()
		collected := 0
		for collected < numProducers*itemsPerProd {
			v, err := q.Dequeue()
			if err != nil {
				continue
			}
			producerID := v / 100000
			seq := v % 100000
			resultsMu.Lock()
			results[producerID] = append(results[producerID], seq)
			resultsMu.Unlock()
			collected++
		}
	}()

	wg.Wait()

	for p, seqs := range results {
		if len(seqs) != itemsPerProd {
			t.Fatalf("producer %d: got %d items, want %d", p, len(seqs), itemsPerProd)
		}
		for i, seq := range seqs {
			if seq != i {
				t.Fatalf("producer %d: FIFO violation at %d: got %d, want %d", p, i, seq, i)
			}
		}
	}
}
