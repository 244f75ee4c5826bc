package lips

import (
	"fmt"
	"log/slog"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/sched"
)

// Logger is the logging interface used by the classifier.
type Logger interface {
	WarnPrintf(format string, args ...any)
	InfoPrintf(format string, args ...any)
	DebugPrintf(format string, args ...any)
}

type defaultLogger struct{}

func (defaultLogger) WarnPrintf(format string, args ...any) {
	slog.Warn("lips: " + fmt.Sprintf(format, args...))
}

func (defaultLogger) InfoPrintf(format string, args ...any) {
	slog.Info("lips: " + fmt.Sprintf(format, args...))
}

func (defaultLogger) DebugPrintf(format string, args ...any) {
	slog.Debug("lips: " + fmt.Sprintf(format, args...))
}

// Verdict receives a classified gesture together with the attempt it was
// computed from. It is never called with None.
type Verdict func(g Gesture, a Attempt)

// Classifier collects one gesture attempt at a time and reports its
// classification through a Verdict.
//
// All methods must be called from the goroutine that runs the scheduler's
// callbacks; the classifier does no locking.
type Classifier struct {
	sched    sched.Scheduler
	th       Thresholds
	verdict  Verdict
	logger   Logger
	attempt  Attempt
	decision sched.Task
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithLogger sets the classifier logger.
func WithLogger(l Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClassifier creates a classifier. The decision timer is scheduled on s.
func NewClassifier(s sched.Scheduler, th Thresholds, verdict Verdict, opts ...Option) *Classifier {
	c := &Classifier{
		sched:   s,
		th:      th,
		verdict: verdict,
		logger:  defaultLogger{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Thresholds returns the classifier thresholds.
func (c *Classifier) Thresholds() Thresholds {
	return c.th
}

// Attempt returns a copy of the current attempt.
func (c *Classifier) Attempt() Attempt {
	return c.attempt
}

// Deciding reports whether a decision timer is armed.
func (c *Classifier) Deciding() bool {
	return c.decision != nil
}

// Reset starts a fresh attempt and cancels any pending decision.
func (c *Classifier) Reset() {
	c.cancelDecision()
	c.attempt = Attempt{}
}

// Press records a press of l. Fresh activity always defers judgment, so
// a pending decision is cancelled.
func (c *Classifier) Press(l Lip) {
	if !l.Valid() {
		c.logger.WarnPrintf("press of unknown %v", l)
		return
	}
	now := c.sched.Now()
	if c.cancelDecision() {
		c.logger.DebugPrintf("%v lip pressed, decision deferred", l)
	}
	wasBoth := c.attempt.BothPressed
	c.attempt.press(l, now)
	c.logger.DebugPrintf("%v lip pressed at %s", l, now.Format("15:04:05.000"))
	if c.attempt.BothPressed && !wasBoth {
		c.logger.DebugPrintf("both lips pressed at %s", now.Format("15:04:05.000"))
	}
}

// Release records a release of l. A release of a lip that is not held in
// this attempt is ignored.
func (c *Classifier) Release(l Lip) {
	if !l.Valid() {
		c.logger.WarnPrintf("release of unknown %v", l)
		return
	}
	now := c.sched.Now()
	if !c.attempt.release(l, now) {
		c.logger.DebugPrintf("%v lip released without a press in this attempt", l)
		return
	}
	c.logger.DebugPrintf("%v lip released after %v", l, c.attempt.Lips[l].Duration)

	if !c.attempt.AllUp() {
		return
	}
	if c.attempt.BothPressed {
		c.logger.DebugPrintf("both lips released, classifying overlap")
		c.Decide()
		return
	}
	c.logger.DebugPrintf("waiting %v for a sequential press", c.th.DecisionDelay)
	c.cancelDecision()
	c.decision = c.sched.AfterFunc(c.th.DecisionDelay, func() {
		c.decision = nil
		c.Decide()
	})
}

// Decide classifies the current attempt now. A real gesture is delivered
// to the verdict callback and the attempt is reset; None is logged and
// the attempt is reset without a callback.
func (c *Classifier) Decide() Gesture {
	c.cancelDecision()
	a := c.attempt
	g := a.Classify(c.th)

	top, bottom := a.Lips[Top], a.Lips[Bottom]
	c.logger.InfoPrintf("attempt: top used=%t %v (%s), bottom used=%t %v (%s), together=%t => %v",
		top.Used, top.Duration, top.Kind(c.th),
		bottom.Used, bottom.Duration, bottom.Kind(c.th),
		a.BothPressed, g)

	c.attempt = Attempt{}
	if g == None {
		c.logger.InfoPrintf("no valid gesture detected")
		return None
	}
	if c.verdict != nil {
		c.verdict(g, a)
	}
	return g
}

func (c *Classifier) cancelDecision() bool {
	t := c.decision
	c.decision = nil
	return sched.Cancel(t)
}
