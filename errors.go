// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package faaq

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates Dequeue observed an empty queue.
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry later (with backoff or yield) rather than propagating the error.
// Enqueue never returns it: the queue is unbounded.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrInvariant is the sentinel wrapped by every [InvariantError].
var ErrInvariant = errors.New("faaq: invariant violation")

// ErrArrayExhausted reports that an Array handed out an enqueue index past
// its fixed capacity.
var ErrArrayExhausted = errors.New("faaq: reference array exhausted")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// IsNonFailure reports whether err represents a non-failure condition.
// Returns true for nil, ErrWouldBlock, or ErrMore.
// Delegates to [iox.IsNonFailure].
func IsNonFailure(err error) bool {
	return iox.IsNonFailure(err)
}

// InvariantError describes a cell that still holds an unconsumed value in a
// range the index counters say must be empty, poisoned, or consumed.
//
// It signals a defect in the queue protocol itself and is never recovered
// from. Use errors.Is(err, ErrInvariant) to match it.
type InvariantError struct {
	Index        uint64 // Offending cell index
	Counter      string // Counter bounding the checked range: "enqIdx" or "deqIdx"
	CounterValue uint64 // Value of Counter observed during the check
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("faaq: cell %d must be empty or poisoned with %s = %d at the end of the execution",
		e.Index, e.Counter, e.CounterValue)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}
