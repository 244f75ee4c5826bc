package dialog

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
)

// State is a step of the dialog script.
type State int

const (
	StateNone State = iota
	StateIntro
	StateFirstQuestion
	StateAskSocial
	StateSocialYes
	StateSocialNo
	StateAskVoice
	StateSystemReady
	StateKissPrompt
	StateWaitingForGesture
	StateHesitant
	StateExploratory
	StateAffirmed
	StateWithdrawn
	StateAskContinue
	StateContinueYes
	StateShutdown
	StateEnd

	numStates
)

var stateNames = [numStates]string{
	StateNone:              "none",
	StateIntro:             "intro",
	StateFirstQuestion:     "first-question",
	StateAskSocial:         "ask-social",
	StateSocialYes:         "social-yes",
	StateSocialNo:          "social-no",
	StateAskVoice:          "ask-voice",
	StateSystemReady:       "system-ready",
	StateKissPrompt:        "kiss-prompt",
	StateWaitingForGesture: "waiting-for-gesture",
	StateHesitant:          "hesitant",
	StateExploratory:       "exploratory",
	StateAffirmed:          "affirmed",
	StateWithdrawn:         "withdrawn",
	StateAskContinue:       "ask-continue",
	StateContinueYes:       "continue-yes",
	StateShutdown:          "shutdown",
	StateEnd:               "end",
}

// String returns the string representation of the state.
func (s State) String() string {
	if s < 0 || s >= numStates {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// ParseState parses the string form of a state.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return State(s), nil
		}
	}
	return StateNone, fmt.Errorf("dialog: unknown state %q", name)
}

// States returns every defined state except StateNone, in script order.
func States() []State {
	out := make([]State, 0, numStates-1)
	for s := StateIntro; s < numStates; s++ {
		out = append(out, s)
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseState(name)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler for script files.
func (s *State) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	v, err := ParseState(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*s = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s State) MarshalYAML() (any, error) {
	return s.String(), nil
}

// GestureState returns the response state entered for a classified
// gesture, or StateNone for lips.None.
func GestureState(g lips.Gesture) State {
	switch g {
	case lips.Hesitant:
		return StateHesitant
	case lips.Exploratory:
		return StateExploratory
	case lips.Affirmed:
		return StateAffirmed
	case lips.Withdrawn:
		return StateWithdrawn
	default:
		return StateNone
	}
}

// Mode is how a state leaves: the transition mode of its script step.
type Mode int

const (
	// ModeIdle means no session is running.
	ModeIdle Mode = iota
	// ModeAutoAdvance enters the step's Next state once the entry line has
	// finished playing.
	ModeAutoAdvance
	// ModeAwaitAnswer waits for the yes or no button.
	ModeAwaitAnswer
	// ModeCollectGesture feeds lip buttons to the gesture classifier.
	ModeCollectGesture
	// ModeTerminal ends the session.
	ModeTerminal
	// ModeDeadEnd is entered when a state has no script step. Only Start
	// or Restart leave it.
	ModeDeadEnd
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAutoAdvance:
		return "auto"
	case ModeAwaitAnswer:
		return "answer"
	case ModeCollectGesture:
		return "gesture"
	case ModeTerminal:
		return "terminal"
	case ModeDeadEnd:
		return "dead-end"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses the string form of a script mode. Only the modes a
// script step may declare are accepted.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "auto":
		return ModeAutoAdvance, nil
	case "answer":
		return ModeAwaitAnswer, nil
	case "gesture":
		return ModeCollectGesture, nil
	case "terminal":
		return ModeTerminal, nil
	}
	return ModeIdle, fmt.Errorf("dialog: unknown mode %q", name)
}

// AcceptsInput reports whether button input is evaluated in this mode.
func (m Mode) AcceptsInput() bool {
	return m == ModeAwaitAnswer || m == ModeCollectGesture
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalYAML implements yaml.Unmarshaler for script files.
func (m *Mode) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	v, err := ParseMode(name)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = v
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (m Mode) MarshalYAML() (any, error) {
	return m.String(), nil
}
