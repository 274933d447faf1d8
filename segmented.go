// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

import (
	"math/bits"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// DefaultSegmentSize is the number of cells per segment used by New.
const DefaultSegmentSize = 64

// Segmented is an FAA-based unbounded multi-producer multi-consumer queue.
//
// The conceptual infinite array is a singly linked chain of fixed-size
// segments. Global index i lives in segment i/size at offset i%size. The
// chain starts with one segment (id 0) and only grows; segments are never
// reclaimed.
//
// head and tail cache recently used segments so lookups start near the
// target instead of at the origin. They only move forward, and correctness
// never depends on them being current.
//
// Memory: one segment (size cells, 8 bytes each) per size indices allocated,
// plus one slot allocation per enqueued element.
type Segmented[T any] struct {
	_       pad
	enqIdx  atomix.Uint64 // Producer index (FAA)
	_       pad
	deqIdx  atomix.Uint64 // Consumer index (FAA)
	_       pad
	tail    atomic.Pointer[segment[T]] // Producer segment cache
	_       pad
	head    atomic.Pointer[segment[T]] // Consumer segment cache
	_       pad
	origin  *segment[T]
	size    uint64 // Cells per segment
	shift   uint   // log2(size)
	mask    uint64 // size - 1
	markers markers[T]
}

// NewSegmented creates a new FAA-based unbounded queue.
// segmentSize rounds up to the next power of 2.
//
// Panics if segmentSize < 2.
func NewSegmented[T any](segmentSize int) *Segmented[T] {
	if segmentSize < 2 {
		panic("faaq: segment size must be >= 2")
	}

	n := uint64(roundToPow2(segmentSize))
	dummy := newSegment[T](0, n)

	q := &Segmented[T]{
		origin:  dummy,
		size:    n,
		shift:   uint(bits.TrailingZeros64(n)),
		mask:    n - 1,
		markers: newMarkers[T](),
	}
	q.head.Store(dummy)
	q.tail.Store(dummy)

	return q
}

// Enqueue adds an element to the queue.
//
// Lock-free: if a consumer poisoned the allocated cell first, the index is
// discarded and the element takes a fresh, later index.
func (q *Segmented[T]) Enqueue(elem *T) {
	s := &slot[T]{kind: slotValue, data: *elem}
	sw := spin.Wait{}
	for {
		// tail is read before the index is allocated, so it never points
		// past the segment of i.
		curTail := q.tail.Load()
		i := q.enqIdx.AddAcqRel(1) - 1
		seg := findSegment(curTail, i>>q.shift, q.size)
		moveForward(&q.tail, curTail, seg)

		if seg.cells[i&q.mask].put(s) {
			return
		}
		sw.Once()
	}
}

// Dequeue removes and returns the oldest element.
// Returns (zero-value, ErrWouldBlock) if the queue is observed empty.
func (q *Segmented[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		if !q.shouldTryToDequeue() {
			var zero T
			return zero, ErrWouldBlock
		}

		curHead := q.head.Load()
		i := q.deqIdx.AddAcqRel(1) - 1
		seg := findSegment(curHead, i>>q.shift, q.size)
		moveForward(&q.head, curHead, seg)

		c := &seg.cells[i&q.mask]
		if c.poison(&q.markers) {
			// Arrived before the producer of i; the slot is wasted.
			sw.Once()
			continue
		}
		return c.take(&q.markers), nil
	}
}

// shouldTryToDequeue reports whether a consistent snapshot of the counters
// shows deqIdx < enqIdx. deqIdx is read twice so the pair is not torn by a
// concurrent dequeue.
func (q *Segmented[T]) shouldTryToDequeue() bool {
	sw := spin.Wait{}
	for {
		deq := q.deqIdx.LoadAcquire()
		enq := q.enqIdx.LoadAcquire()
		if deq == q.deqIdx.LoadAcquire() {
			return deq < enq
		}
		sw.Once()
	}
}

// Indices returns the number of enqueue and dequeue indices handed out so
// far, including those wasted on poisoned cells.
func (q *Segmented[T]) Indices() (enq, deq uint64) {
	return q.enqIdx.LoadAcquire(), q.deqIdx.LoadAcquire()
}

// SegmentSize returns the number of cells per segment.
func (q *Segmented[T]) SegmentSize() int {
	return int(q.size)
}

// Segments returns the current chain length, walked from the origin.
func (q *Segmented[T]) Segments() int {
	n := 0
	for s := q.origin; s != nil; s = s.next.Load() {
		n++
	}
	return n
}
