// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

import "sync/atomic"

// slotKind tags the content of a cell.
type slotKind uint8

const (
	slotEmpty slotKind = iota
	slotValue
	slotPoisoned
	slotConsumed
)

func (k slotKind) String() string {
	switch k {
	case slotEmpty:
		return "empty"
	case slotValue:
		return "value"
	case slotPoisoned:
		return "poisoned"
	case slotConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// slot is the immutable payload a cell points to.
// A nil pointer is the empty state.
type slot[T any] struct {
	kind slotKind
	data T
}

// markers holds the shared terminal slots of one queue instance.
type markers[T any] struct {
	poisoned *slot[T]
	consumed *slot[T]
}

func newMarkers[T any]() markers[T] {
	return markers[T]{
		poisoned: &slot[T]{kind: slotPoisoned},
		consumed: &slot[T]{kind: slotConsumed},
	}
}

// cell is one position of the conceptual infinite array.
//
// Transitions: Empty → Value, Empty → Poisoned, Value → Consumed.
// Each index is handed to exactly one producer and one consumer, so a cell
// sees at most one put, one poison attempt and one take.
type cell[T any] struct {
	p atomic.Pointer[slot[T]]
}

// put installs a value slot. Fails if a consumer poisoned the cell first.
func (c *cell[T]) put(s *slot[T]) bool {
	return c.p.CompareAndSwap(nil, s)
}

// poison marks the cell wasted. Fails if a producer already stored a value.
func (c *cell[T]) poison(m *markers[T]) bool {
	return c.p.CompareAndSwap(nil, m.poisoned)
}

// take extracts the value and leaves the cell consumed.
// Only valid after poison failed on the same index.
func (c *cell[T]) take(m *markers[T]) T {
	return c.p.Swap(m.consumed).data
}

func (c *cell[T]) state() slotKind {
	s := c.p.Load()
	if s == nil {
		return slotEmpty
	}
	return s.kind
}
