// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package faaq provides an unbounded multi-producer multi-consumer FIFO queue
// built on Fetch-And-Add index allocation.
//
// Producers and consumers each draw a unique global slot index from their own
// monotonic counter. Enqueue slot i and dequeue slot i address the same
// physical cell, so the pair of counters alone gives FIFO order; the only
// per-element synchronization is a single CAS on that cell.
//
// Two variants share the protocol:
//
//   - Segmented: the production queue. The conceptual infinite array is a
//     lazily extended chain of fixed-size segments addressed by block id.
//   - Array: the reference model. A single fixed-size array stands in for
//     the infinite array. It exposes Validate to check the cell invariants
//     after a run has quiesced.
//
// # Quick Start
//
//	q := faaq.NewSegmented[Event](faaq.DefaultSegmentSize)
//
//	// Enqueue never fails and never blocks
//	ev := Event{ID: 1}
//	q.Enqueue(&ev)
//
//	// Dequeue (non-blocking)
//	ev, err := q.Dequeue()
//	if faaq.IsWouldBlock(err) {
//	    // Queue observed empty - try again later
//	}
//
// Builder API:
//
//	q := faaq.Build[Event](faaq.New().SegmentSize(256))   // → *Segmented
//	r := faaq.BuildArray[Event](faaq.New().Reference(1024)) // → *Array
//
// # Cell Protocol
//
// Each cell moves through at most two transitions:
//
//	Empty → Value     (enqueue CAS wins)
//	Empty → Poisoned  (dequeue CAS wins, slot wasted)
//	Value → Consumed  (dequeue extracts the value, at most once)
//
// A producer whose cell was poisoned discards its index and retries with a
// fresh one; the element is never lost. A consumer that poisons a cell does
// the same.
//
// # Emptiness
//
// Dequeue returns [ErrWouldBlock] when the dequeue counter has caught up with
// the enqueue counter. The observation is momentary: a concurrent Enqueue may
// complete right after. Consumers poll with backoff:
//
//	backoff := iox.Backoff{}
//	for {
//	    v, err := q.Dequeue()
//	    if err != nil {
//	        backoff.Wait()
//	        continue
//	    }
//	    backoff.Reset()
//	    process(v)
//	}
//
// # Progress
//
// Both operations are lock-free, not wait-free. No goroutine ever waits on
// another; contention shows up only as failed CAS attempts and retries with
// a fresh index. An adversarial scheduler can make one goroutine retry
// indefinitely while the queue as a whole keeps making progress.
//
// # Memory
//
// Segments are never reclaimed. The chain grows by one segment per
// SegmentSize indices handed out, for the lifetime of the queue. Consumed
// values are cleared from their cells so referenced objects can be collected.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for index counters with explicit memory
// ordering, and [code.hybscloud.com/spin] for CPU pause instructions.
package faaq
