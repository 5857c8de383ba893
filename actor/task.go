package actor

import (
	"fmt"

	"github.com/zeebo/errs"
)

// Task is a deferred unit of work executed by an actor. A nil return
// reports success; a non-nil return is a task failure and poisons the
// actor that ran it.
type Task func() error

var (
	// ErrStopped is the outcome of a task that never ran because the
	// actor shut down, and the result of sending to a stopped actor.
	ErrStopped = errs.Class("actor stopped")

	// ErrPoisoned is the outcome of a task rejected because a previous
	// task on the same actor failed.
	ErrPoisoned = errs.Class("actor poisoned")

	// ErrInboxFull is returned by a non-blocking send on a full
	// bounded inbox.
	ErrInboxFull = errs.Class("inbox full")
)

// PanicError is the failure recorded when a task panics. The panic is
// contained by the execution loop and treated like any other task
// failure.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task panicked: %v", e.Value)
}
