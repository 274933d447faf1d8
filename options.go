// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

// Options configures queue creation and variant selection.
type Options struct {
	// Segmented variant
	segmentSize int // Cells per segment (rounds up to next power of 2)

	// Reference variant
	reference bool
	capacity  int // Fixed cell count
}

// Builder creates queues with fluent configuration.
//
// Example:
//
//	// Segmented queue with the default segment size
//	q := faaq.BuildSegmented[Event](faaq.New())
//
//	// Segmented queue with small segments
//	q := faaq.Build[Event](faaq.New().SegmentSize(8))
//
//	// Reference array for invariant checking
//	r := faaq.BuildArray[Event](faaq.New().Reference(4096))
type Builder struct {
	opts Options
}

// New creates a queue builder with DefaultSegmentSize.
func New() *Builder {
	return &Builder{opts: Options{segmentSize: DefaultSegmentSize}}
}

// SegmentSize sets the number of cells per segment.
// Rounds up to the next power of 2.
//
// Panics if n < 2.
func (b *Builder) SegmentSize(n int) *Builder {
	if n < 2 {
		panic("faaq: segment size must be >= 2")
	}
	b.opts.segmentSize = n
	return b
}

// Reference selects the fixed-array reference variant with exactly
// capacity cells.
//
// Panics if capacity < 2.
func (b *Builder) Reference(capacity int) *Builder {
	if capacity < 2 {
		panic("faaq: capacity must be >= 2")
	}
	b.opts.reference = true
	b.opts.capacity = capacity
	return b
}

// Build creates a Queue[T] with automatic variant selection.
//
//	Reference(n) → Array (fixed n cells)
//	Default      → Segmented
func Build[T any](b *Builder) Queue[T] {
	if b.opts.reference {
		return NewArray[T](b.opts.capacity)
	}
	return NewSegmented[T](b.opts.segmentSize)
}

// BuildSegmented creates a Segmented queue with compile-time type safety.
// Panics if builder is configured with Reference().
func BuildSegmented[T any](b *Builder) *Segmented[T] {
	if b.opts.reference {
		panic("faaq: BuildSegmented requires no Reference()")
	}
	return NewSegmented[T](b.opts.segmentSize)
}

// BuildArray creates a reference Array with compile-time type safety.
// Panics if builder is not configured with Reference().
func BuildArray[T any](b *Builder) *Array[T] {
	if !b.opts.reference {
		panic("faaq: BuildArray requires Reference()")
	}
	return NewArray[T](b.opts.capacity)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
