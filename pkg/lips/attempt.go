package lips

import "time"

// Track is the bookkeeping of one lip within an attempt.
type Track struct {
	Used       bool          `json:"used" yaml:"used"`
	Pressed    bool          `json:"pressed" yaml:"pressed"`
	PressedAt  time.Time     `json:"pressed_at,omitzero" yaml:"pressed_at,omitempty"`
	ReleasedAt time.Time     `json:"released_at,omitzero" yaml:"released_at,omitempty"`
	Duration   time.Duration `json:"duration" yaml:"duration"`
}

// Released reports whether the last press of the lip has a recorded
// release. Duration is only meaningful when Released is true.
func (t Track) Released() bool {
	return t.Used && !t.Pressed && !t.ReleasedAt.IsZero()
}

// Kind grades the last completed press of the lip.
func (t Track) Kind(th Thresholds) PressKind {
	if !t.Released() {
		return PressNone
	}
	switch {
	case t.Duration < th.ShortPress:
		return PressShort
	case t.Duration >= th.LongPress:
		return PressLong
	default:
		return PressMedium
	}
}

// Attempt is one gesture attempt over both lips.
//
// BothPressed latches true the instant both lips are held at the same
// time and never goes back to false within the attempt.
type Attempt struct {
	Lips          [2]Track  `json:"lips" yaml:"lips"`
	BothPressed   bool      `json:"both_pressed" yaml:"both_pressed"`
	BothPressedAt time.Time `json:"both_pressed_at,omitzero" yaml:"both_pressed_at,omitempty"`
}

// Lip returns the track of l.
func (a Attempt) Lip(l Lip) Track {
	return a.Lips[l]
}

// Used returns the number of lips used in the attempt.
func (a Attempt) Used() int {
	n := 0
	for _, t := range a.Lips {
		if t.Used {
			n++
		}
	}
	return n
}

// AllUp reports whether no lip is currently held.
func (a Attempt) AllUp() bool {
	return !a.Lips[Top].Pressed && !a.Lips[Bottom].Pressed
}

// Overlap returns how long both lips were held together: from
// BothPressedAt to the earliest recorded release. ok is false when the
// lips never overlapped; unbounded is true when they overlapped but no
// release has been recorded yet.
func (a Attempt) Overlap() (d time.Duration, unbounded, ok bool) {
	if !a.BothPressed {
		return 0, false, false
	}
	var first time.Time
	for _, t := range a.Lips {
		if t.ReleasedAt.IsZero() || t.ReleasedAt.Before(a.BothPressedAt) {
			continue
		}
		if first.IsZero() || t.ReleasedAt.Before(first) {
			first = t.ReleasedAt
		}
	}
	if first.IsZero() {
		return 0, true, true
	}
	return first.Sub(a.BothPressedAt), false, true
}

// Sequential reports whether the two lips were used one after the other
// within gap: either lip's press is closer than gap to the other lip's
// release.
func (a Attempt) Sequential(gap time.Duration) bool {
	top, bottom := a.Lips[Top], a.Lips[Bottom]
	if !top.Released() || !bottom.Released() {
		return false
	}
	return absDuration(top.PressedAt.Sub(bottom.ReleasedAt)) < gap ||
		absDuration(bottom.PressedAt.Sub(top.ReleasedAt)) < gap
}

// Classify applies the classification rule to the attempt.
func (a Attempt) Classify(th Thresholds) Gesture {
	if overlap, unbounded, ok := a.Overlap(); ok {
		if unbounded || overlap >= th.LongPress {
			return Affirmed
		}
		return Withdrawn
	}
	switch a.Used() {
	case 2:
		if a.Sequential(th.SequentialGap) {
			return Exploratory
		}
		return Hesitant
	case 1:
		return Hesitant
	}
	return None
}

func (a *Attempt) press(l Lip, now time.Time) {
	t := &a.Lips[l]
	t.Used = true
	t.Pressed = true
	t.PressedAt = now
	t.ReleasedAt = time.Time{}
	t.Duration = 0

	if a.Lips[l.other()].Pressed && !a.BothPressed {
		a.BothPressed = true
		a.BothPressedAt = now
	}
}

// release records the release of l. It reports false when l was not held.
func (a *Attempt) release(l Lip, now time.Time) bool {
	t := &a.Lips[l]
	if !t.Pressed {
		return false
	}
	t.Pressed = false
	t.ReleasedAt = now
	t.Duration = now.Sub(t.PressedAt)
	return true
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
