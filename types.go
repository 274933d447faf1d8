// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

// Queue is the combined producer-consumer interface for a FIFO queue.
//
// Enqueue always succeeds. Dequeue returns ErrWouldBlock when the queue is
// observed empty.
//
// The interface intentionally excludes length because accurate counts in
// lock-free algorithms require expensive cross-core synchronization.
//
// Example:
//
//	q := faaq.NewSegmented[int](64)
//
//	val := 42
//	q.Enqueue(&val)
//
//	elem, err := q.Dequeue()
//	if err == nil {
//	    fmt.Println(elem)
//	}
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs at the
// call site. The queue stores a copy of the pointed-to value, so the
// original can be modified after Enqueue returns.
type Producer[T any] interface {
	// Enqueue adds an element to the queue.
	// It never rejects an element and never blocks on another goroutine.
	// Safe for any number of concurrent producers.
	Enqueue(elem *T)
}

// Consumer is the interface for dequeueing elements.
type Consumer[T any] interface {
	// Dequeue removes and returns the oldest element.
	// Returns (zero-value, ErrWouldBlock) if the queue is observed empty.
	// Safe for any number of concurrent consumers.
	Dequeue() (T, error)
}

// Validator checks a quiesced queue against its cell invariants.
//
// Validate must only be called once every Enqueue and Dequeue has returned.
// A non-nil result wraps ErrInvariant and indicates a protocol defect.
type Validator interface {
	Validate() error
}
