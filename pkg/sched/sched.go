// Package sched provides the single-threaded event loop that serializes
// every input, speech and timer event of a dialog, together with
// cancellable scheduled tasks.
//
// Two schedulers are provided:
//
//   - Loop: a real-time loop. Producers on any goroutine call Post; one
//     goroutine running Loop.Run executes the posted closures in order.
//     AfterFunc tasks are posted onto the same loop when they fire.
//   - Manual: a virtual clock for tests and offline replay. Time only
//     moves when Advance or AdvanceTo is called.
//
// A cancelled task never runs. For Loop this holds even when the
// underlying timer has already fired and its closure is queued, because
// the cancelled flag is checked on the loop goroutine.
package sched

import (
	"errors"
	"time"
)

// ErrClosed is returned when posting to a closed loop.
var ErrClosed = errors.New("sched: loop closed")

// Task is a scheduled callback.
type Task interface {
	// Cancel stops the task. It reports whether the call prevented the
	// task from running; it returns false if the task already ran or was
	// already cancelled.
	Cancel() bool
}

// Scheduler is the clock and timer source used by the dialog packages.
type Scheduler interface {
	// Now returns the current time of the scheduler.
	Now() time.Time

	// AfterFunc schedules f to run once after d.
	AfterFunc(d time.Duration, f func()) Task
}

// Cancel cancels t if it is non-nil. It is a convenience for fields that
// hold an optional pending task.
func Cancel(t Task) bool {
	if t == nil {
		return false
	}
	return t.Cancel()
}
