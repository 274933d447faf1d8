// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

import "sync/atomic"

// segment is a fixed-size block of cells covering global indices
// [id*size, (id+1)*size).
type segment[T any] struct {
	id    uint64
	next  atomic.Pointer[segment[T]] // Set at most once
	cells []cell[T]
}

func newSegment[T any](id, size uint64) *segment[T] {
	return &segment[T]{id: id, cells: make([]cell[T], size)}
}

// findSegment returns the segment with the given id, walking forward from
// begin and extending the chain where it ends.
//
// Requires begin.id <= id. Racing extenders CAS the same next link; the
// loser drops its speculative segment and follows the winner's.
func findSegment[T any](begin *segment[T], id, size uint64) *segment[T] {
	cur := begin
	for cur.id < id {
		next := cur.next.Load()
		if next == nil {
			next = newSegment[T](cur.id+1, size)
			if !cur.next.CompareAndSwap(nil, next) {
				next = cur.next.Load()
			}
		}
		cur = next
	}
	return cur
}

// moveForward advances a cached head or tail from src to dest.
// Best effort: a failed CAS means another goroutine already moved it.
func moveForward[T any](ref *atomic.Pointer[segment[T]], src, dest *segment[T]) {
	if src.id < dest.id {
		ref.CompareAndSwap(src, dest)
	}
}
