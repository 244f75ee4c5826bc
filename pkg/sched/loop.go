package sched

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

const (
	taskPending int32 = iota
	taskRan
	taskCancelled
)

// Loop runs posted closures one at a time on the goroutine that calls Run.
//
// Usage:
//
//	loop := sched.NewLoop(64)
//	go loop.Run(ctx)
//	loop.Post(func() { ctrl.OnButtonPressed(0) })
type Loop struct {
	queue     chan func()
	closeCh   chan struct{}
	closeOnce sync.Once
}

var _ Scheduler = (*Loop)(nil)

// NewLoop creates a loop whose queue holds up to size closures before
// Post blocks.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 64
	}
	return &Loop{
		queue:   make(chan func(), size),
		closeCh: make(chan struct{}),
	}
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Post queues f for execution on the loop goroutine. It blocks while the
// queue is full and returns ErrClosed once the loop is closed.
func (l *Loop) Post(f func()) error {
	select {
	case <-l.closeCh:
		return ErrClosed
	default:
	}
	select {
	case l.queue <- f:
		return nil
	case <-l.closeCh:
		return ErrClosed
	}
}

// Call posts f and waits until it has run on the loop goroutine.
func (l *Loop) Call(ctx context.Context, f func()) error {
	done := make(chan struct{})
	if err := l.Post(func() {
		defer close(done)
		f()
	}); err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-l.closeCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AfterFunc schedules f to be posted onto the loop after d.
func (l *Loop) AfterFunc(d time.Duration, f func()) Task {
	t := &loopTask{}
	t.timer = time.AfterFunc(d, func() {
		_ = l.Post(func() {
			if t.state.CompareAndSwap(taskPending, taskRan) {
				f()
			}
		})
	})
	return t
}

// Run executes posted closures until ctx is done or Close is called.
// It returns ctx.Err() when the context ends and nil after Close.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.closeCh:
			return nil
		case f := <-l.queue:
			f()
		}
	}
}

// Close stops the loop. Queued closures that have not started are
// discarded.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		close(l.closeCh)
	})
	return nil
}

type loopTask struct {
	timer *time.Timer
	state atomic.Int32
}

func (t *loopTask) Cancel() bool {
	if !t.state.CompareAndSwap(taskPending, taskCancelled) {
		return false
	}
	t.timer.Stop()
	return true
}
