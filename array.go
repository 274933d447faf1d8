// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

import (
	"fmt"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Array is the reference model of the FAA queue protocol.
//
// It runs the same enqueue/dequeue protocol as Segmented but stores cells in
// one fixed-size array addressed directly by global index: no block
// resolution, no chain, no head/tail caches. Indices are never reused, so
// capacity bounds the total number of indices handed out over the queue's
// lifetime, not the number of live elements.
//
// Array implements Validator.
type Array[T any] struct {
	_       pad
	enqIdx  atomix.Uint64 // Producer index (FAA)
	_       pad
	deqIdx  atomix.Uint64 // Consumer index (FAA)
	_       pad
	cells   []cell[T]
	markers markers[T]
}

// NewArray creates a reference queue with exactly capacity cells.
//
// Panics if capacity < 2.
func NewArray[T any](capacity int) *Array[T] {
	if capacity < 2 {
		panic("faaq: capacity must be >= 2")
	}
	return &Array[T]{
		cells:   make([]cell[T], capacity),
		markers: newMarkers[T](),
	}
}

// Enqueue adds an element to the queue.
//
// Panics with ErrArrayExhausted if the allocated index falls past the
// array; size the array for the whole run.
func (q *Array[T]) Enqueue(elem *T) {
	s := &slot[T]{kind: slotValue, data: *elem}
	sw := spin.Wait{}
	for {
		i := q.enqIdx.AddAcqRel(1) - 1
		if i >= uint64(len(q.cells)) {
			panic(fmt.Errorf("%w: enqueue index %d, capacity %d", ErrArrayExhausted, i, len(q.cells)))
		}
		if q.cells[i].put(s) {
			return
		}
		sw.Once()
	}
}

// Dequeue removes and returns the oldest element.
// Returns (zero-value, ErrWouldBlock) if the queue is observed empty.
//
// An index past the array also yields ErrWouldBlock: every in-range cell
// already belongs to some consumer, so nothing is left to return.
func (q *Array[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		if !q.shouldTryToDequeue() {
			break
		}

		i := q.deqIdx.AddAcqRel(1) - 1
		if i >= uint64(len(q.cells)) {
			break
		}
		c := &q.cells[i]
		if c.poison(&q.markers) {
			sw.Once()
			continue
		}
		return c.take(&q.markers), nil
	}
	var zero T
	return zero, ErrWouldBlock
}

func (q *Array[T]) shouldTryToDequeue() bool {
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

// Validate checks the cell invariants of a quiesced queue.
//
// Below min(enqIdx, deqIdx) every index was claimed by both a producer and a
// consumer, so its cell must be poisoned or consumed. At or above
// max(enqIdx, deqIdx) no index was handed out, so its cell must be empty.
// The first cell still holding a value in either range is reported as an
// *InvariantError.
func (q *Array[T]) Validate() error {
	enq := q.enqIdx.LoadAcquire()
	deq := q.deqIdx.LoadAcquire()
	n := uint64(len(q.cells))

	for i := range min(enq, deq, n) {
		if q.cells[i].state() == slotValue {
			return &InvariantError{Index: i, Counter: "deqIdx", CounterValue: deq}
		}
	}
	for i := max(enq, deq); i < n; i++ {
		if q.cells[i].state() == slotValue {
			return &InvariantError{Index: i, Counter: "enqIdx", CounterValue: enq}
		}
	}
	return nil
}

// MustValidate is like Validate but panics on a violation.
func (q *Array[T]) MustValidate() {
	if err := q.Validate(); err != nil {
		panic(err)
	}
}

// Indices returns the number of enqueue and dequeue indices handed out so
// far, including those wasted on poisoned cells.
func (q *Array[T]) Indices() (enq, deq uint64) {
	return q.enqIdx.LoadAcquire(), q.deqIdx.LoadAcquire()
}

// Cap returns the number of cells.
func (q *Array[T]) Cap() int {
	return len(q.cells)
}
