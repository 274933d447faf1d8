// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/faaq"
	"code.hybscloud.com/iox"
)

// =============================================================================
// Test Helpers
// =============================================================================

// dequeueWithTimeout polls q until it yields a value or timeout expires.
func dequeueWithTimeout(t *testing.T, q faaq.Consumer[int], timeout time.Duration) int {
	t.Helper()
	deadline := time.Now().Add(timeout)
	backoff := iox.Backoff{}
	for {
		v, err := q.Dequeue()
		if err == nil {
			return v
		}
		if !faaq.IsWouldBlock(err) {
			t.Fatalf("Dequeue: unexpected error %v", err)
		}
		if time.Now().After(deadline) {
			t.Fatalf("timeout after %v waiting for a value", timeout)
		}
		backoff.Wait()
	}
}

// =============================================================================
// Linearizability Test Helper
// =============================================================================

// linearizabilityTest launches numP producers and numC consumers.
// Values are encoded as producerID*100000 + sequence.
//
// Checked properties:
//   - No loss: every enqueued value is dequeued once the run quiesces
//   - No duplication: no value is dequeued twice
//   - FIFO: each consumer sees each producer's values in increasing order
type linearizabilityTest struct {
	t            *testing.T
	numP, numC   int
	itemsPerProd int
	timeout      time.Duration
}

func (lt *linearizabilityTest) run(q faaq.Queue[int]) {
	t := lt.t
	t.Helper()

	var wg sync.WaitGroup
	expectedTotal := lt.numP * lt.itemsPerProd
	seen := make([]atomix.Int32, expectedTotal)
	var consumed atomix.Int64
	var timedOut atomix.Bool
	deadline := time.Now().Add(lt.timeout)

	for p := range lt.numP {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range lt.itemsPerProd {
				v := id*100000 + i
				q.Enqueue(&v)
			}
		}(p)
	}

	orderErrs := make(chan string, lt.numC)
	for c := range lt.numC {
		wg.Add(1)
		go func(cid int) {
			defer wg.Done()
			last := make([]int, lt.numP)
			for i := range last {
				last[i] = -1
			}
			backoff := iox.Backoff{}
			for consumed.Load() < int64(expectedTotal) {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				v, err := q.Dequeue()
				if err != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()

				producerID, seq := v/100000, v%100000
				if producerID < 0 || producerID >= lt.numP || seq >= lt.itemsPerProd {
					t.Errorf("value out of range: %d", v)
					consumed.Add(1)
					continue
				}
				if seq <= last[producerID] {
					select {
					case orderErrs <- fmt.Sprintf("consumer %d: producer %d seq %d after %d",
						cid, producerID, seq, last[producerID]):
					default:
					}
				}
				last[producerID] = seq
				seen[producerID*lt.itemsPerProd+seq].Add(1)
				consumed.Add(1)
			}
		}(c)
	}

	wg.Wait()
	close(orderErrs)

	if timedOut.Load() {
		t.Fatalf("timeout: consumed %d/%d", consumed.Load(), expectedTotal)
	}
	for msg := range orderErrs {
		t.Errorf("FIFO violation: %s", msg)
	}

	var missing, duplicates int
	for i := range expectedTotal {
		switch count := seen[i].Load(); {
		case count == 0:
			missing++
		case count > 1:
			duplicates++
		}
	}
	if duplicates > 0 {
		t.Errorf("linearizability violation: %d duplicates detected", duplicates)
	}
	if missing > 0 {
		t.Errorf("lost %d of %d values", missing, expectedTotal)
	}

	if _, err := q.Dequeue(); !faaq.IsWouldBlock(err) {
		t.Errorf("Dequeue after full drain: got %v, want ErrWouldBlock", err)
	}
}

// =============================================================================
// Linearizability
// =============================================================================

func TestLinearizability(t *testing.T) {
	items := 5000
	if faaq.RaceEnabled {
		items = 500
	}

	tests := []struct {
		name       string
		numP, numC int
		newQueue   func(total int) faaq.Queue[int]
	}{
		{"Segmented/2/1P1C", 1, 1, func(int) faaq.Queue[int] { return faaq.NewSegmented[int](2) }},
		{"Segmented/2/4P4C", 4, 4, func(int) faaq.Queue[int] { return faaq.NewSegmented[int](2) }},
		{"Segmented/64/8P2C", 8, 2, func(int) faaq.Queue[int] { return faaq.NewSegmented[int](64) }},
		{"Segmented/1024/2P8C", 2, 8, func(int) faaq.Queue[int] { return faaq.NewSegmented[int](1024) }},
		// Headroom for indices wasted on poisoned cells.
		{"Array/4P4C", 4, 4, func(total int) faaq.Queue[int] { return faaq.NewArray[int](total * 8) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lt := &linearizabilityTest{
				t:            t,
				numP:         tt.numP,
				numC:         tt.numC,
				itemsPerProd: items,
				timeout:      30 * time.Second,
			}
			q := tt.newQueue(tt.numP * items)
			lt.run(q)

			if v, ok := q.(faaq.Validator); ok {
				if err := v.Validate(); err != nil {
					t.Fatalf("Validate after quiesce: %v", err)
				}
			}
		})
	}
}

// TestTwoProducersOneConsumer has two goroutines enqueue one distinct value
// each while a third dequeues twice.
func TestTwoProducersOneConsumer(t *testing.T) {
	rounds := 1000
	if faaq.RaceEnabled {
		rounds = 100
	}

	for _, tt := range []struct {
		name     string
		newQueue func() faaq.Queue[int]
	}{
		{"Segmented", func() faaq.Queue[int] { return faaq.NewSegmented[int](2) }},
		{"Array", func() faaq.Queue[int] { return faaq.NewArray[int](64) }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			for r := range rounds {
				q := tt.newQueue()
				var wg sync.WaitGroup
				for _, v := range []int{10, 20} {
					wg.Add(1)
					go func(v int) {
						defer wg.Done()
						q.Enqueue(&v)
					}(v)
				}

				// The test goroutine is the consumer, racing the producers.
				got := make([]int, 0, 2)
				for range 2 {
					got = append(got, dequeueWithTimeout(t, q, 5*time.Second))
				}
				wg.Wait()

				sort.Ints(got)
				if len(got) != 2 || got[0] != 10 || got[1] != 20 {
					t.Fatalf("round %d: got %v, want [10 20]", r, got)
				}
				if _, err := q.Dequeue(); !faaq.IsWouldBlock(err) {
					t.Fatalf("round %d: third Dequeue: got %v, want ErrWouldBlock", r, err)
				}
				if v, ok := q.(faaq.Validator); ok {
					if err := v.Validate(); err != nil {
						t.Fatalf("round %d: Validate: %v", r, err)
					}
				}
			}
		})
	}
}

// TestFIFONonOverlapping checks that an enqueue completed before another
// starts is dequeued first, while consumers run concurrently.
func TestFIFONonOverlapping(t *testing.T) {
	const total = 2000
	q := faaq.NewSegmented[int](4)

	results := make(chan int, total)
	var wg sync.WaitGroup
	var consumed atomix.Int64
	var outOfOrder atomix.Bool
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := -1
			backoff := iox.Backoff{}
			for consumed.Load() < total {
				v, err := q.Dequeue()
				if err != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				if v <= last {
					outOfOrder.Store(true)
				}
				last = v
				consumed.Add(1)
				results <- v
			}
		}()
	}

	// Single producer: every enqueue completes before the next begins.
	for i := range total {
		v := i
		q.Enqueue(&v)
	}
	wg.Wait()
	close(results)

	// Each consumer sees increasing values; across consumers the channel
	// order may interleave, but each value must appear exactly once.
	if outOfOrder.Load() {
		t.Fatal("a consumer dequeued a value older than one it already had")
	}
	got := make([]bool, total)
	for v := range results {
		if got[v] {
			t.Fatalf("value %d dequeued twice", v)
		}
		got[v] = true
	}
	for i, ok := range got {
		if !ok {
			t.Fatalf("value %d lost", i)
		}
	}

	// Single consumer after a sequential producer: strict order.
	for i := range total {
		v := i
		q.Enqueue(&v)
	}
	for i := range total {
		v, err := q.Dequeue()
		if err != nil || v != i {
			t.Fatalf("Dequeue(%d): got (%d, %v)", i, v, err)
		}
	}
}

// TestIndexAccounting checks that without consumers every enqueue takes
// exactly one index, and that indices only grow.
func TestIndexAccounting(t *testing.T) {
	const (
		producers = 8
		perProd   = 1000
	)
	q := faaq.NewSegmented[int](16)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perProd {
				v := id*perProd + i
				q.Enqueue(&v)
			}
		}(p)
	}
	wg.Wait()

	enq, deq := q.Indices()
	if enq != producers*perProd || deq != 0 {
		t.Fatalf("Indices: got (%d, %d), want (%d, 0)", enq, deq, producers*perProd)
	}

	var prevEnq, prevDeq uint64
	for range producers * perProd {
		if _, err := q.Dequeue(); err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		e, d := q.Indices()
		if e < prevEnq || d <= prevDeq {
			t.Fatalf("Indices regressed: (%d, %d) after (%d, %d)", e, d, prevEnq, prevDeq)
		}
		prevEnq, prevDeq = e, d
	}
	if e, d := q.Indices(); e != d {
		t.Fatalf("Indices after drain: got (%d, %d), want equal", e, d)
	}
}
