package lips

import (
	"sort"
	"time"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/sched"
)

// Event is one timestamped lip transition, relative to the start of a
// replay.
type Event struct {
	At      time.Duration
	Lip     Lip
	Pressed bool
}

// Window returns the press and release events of a lip held from start to
// end.
func Window(l Lip, start, end time.Duration) []Event {
	return []Event{
		{At: start, Lip: l, Pressed: true},
		{At: end, Lip: l, Pressed: false},
	}
}

// Result is the outcome of a replay.
type Result struct {
	Gesture Gesture       `json:"gesture" yaml:"gesture"`
	Attempt Attempt       `json:"attempt" yaml:"attempt"`
	At      time.Duration `json:"at" yaml:"at"`
}

// Replay feeds events through a classifier running on a virtual clock and
// returns the first verdict. After the last event the clock runs on for
// the decision delay so a deferred verdict can still arrive. A replay that
// never produces a verdict returns a Result with Gesture None.
func Replay(th Thresholds, events []Event, opts ...Option) Result {
	start := time.Unix(0, 0).UTC()
	clock := sched.NewManual(start)

	var (
		res  Result
		done bool
	)
	c := NewClassifier(clock, th, func(g Gesture, a Attempt) {
		if done {
			return
		}
		done = true
		res = Result{Gesture: g, Attempt: a, At: clock.Now().Sub(start)}
	}, opts...)

	sorted := make([]Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].At < sorted[j].At })

	for _, ev := range sorted {
		clock.AdvanceTo(start.Add(ev.At))
		if done {
			return res
		}
		if ev.Pressed {
			c.Press(ev.Lip)
		} else {
			c.Release(ev.Lip)
		}
		if done {
			return res
		}
	}
	clock.Advance(th.DecisionDelay)
	if !done {
		res.Attempt = c.Attempt()
		res.At = clock.Now().Sub(start)
	}
	return res
}
