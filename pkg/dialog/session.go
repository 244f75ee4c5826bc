package dialog

import (
	"time"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
)

// Session is the state of the single active dialog.
//
// Input is accepted only in ModeAwaitAnswer and ModeCollectGesture, and the next
// state follows speech completion only in ModeAutoAdvance, where Pending
// holds the target.
type Session struct {
	ID        string    `json:"id" yaml:"id"`
	Started   bool      `json:"started" yaml:"started"`
	StartedAt time.Time `json:"started_at,omitzero" yaml:"started_at,omitempty"`

	State   State `json:"state" yaml:"state"`
	Pending State `json:"pending" yaml:"pending"`
	Mode    Mode  `json:"mode" yaml:"mode"`

	Speaking       bool  `json:"speaking" yaml:"speaking"`
	CueAfterSpeech bool  `json:"cue_after_speech" yaml:"cue_after_speech"`
	Voice          Voice `json:"voice" yaml:"voice"`

	// LastGesture is the most recent classified gesture of the session.
	LastGesture lips.Gesture `json:"last_gesture" yaml:"last_gesture"`
}

// AcceptingInput reports whether button input is currently evaluated.
func (s Session) AcceptingInput() bool {
	return s.Started && !s.Speaking && s.Mode.AcceptsInput()
}

// ButtonTrack is the press bookkeeping of one input index.
type ButtonTrack struct {
	Pressed   bool
	PressedAt time.Time
}

type buttons [MaxButtons]ButtonTrack

func validIndex(i int) bool {
	return i >= 0 && i < MaxButtons
}

func (b *buttons) press(i int, now time.Time) {
	b[i] = ButtonTrack{Pressed: true, PressedAt: now}
}

// release clears the track of i and returns how long it was held. ok is
// false when no press was tracked.
func (b *buttons) release(i int, now time.Time) (held time.Duration, ok bool) {
	t := b[i]
	b[i] = ButtonTrack{}
	if !t.Pressed {
		return 0, false
	}
	return now.Sub(t.PressedAt), true
}

func (b *buttons) reset() {
	*b = buttons{}
}
