package dialog

import (
	"errors"
	"fmt"
	"io"
	"maps"

	"gopkg.in/yaml.v3"
)

// ErrInvalidScript is returned when a script fails validation.
var ErrInvalidScript = errors.New("dialog: invalid script")

// Branch is one side of a yes/no question.
type Branch struct {
	To State `json:"to" yaml:"to"`
	// Voice optionally switches the session voice ("male" or "female").
	Voice string `json:"voice,omitempty" yaml:"voice,omitempty"`
}

// Step is the entry action and transition rule of one state.
type Step struct {
	// Light is applied when the state is entered.
	Light Light `json:"light" yaml:"light"`

	// Line is spoken when the state is entered. Empty means silent.
	Line string `json:"line,omitempty" yaml:"line,omitempty"`

	// Cue plays the audio cue once Line has finished.
	Cue bool `json:"cue,omitempty" yaml:"cue,omitempty"`

	Mode Mode `json:"mode" yaml:"mode"`

	// Next is the auto-advance target.
	Next State `json:"next,omitempty" yaml:"next,omitempty"`

	// Yes and No are the answer branches.
	Yes Branch `json:"yes,omitzero" yaml:"yes,omitempty"`
	No  Branch `json:"no,omitzero" yaml:"no,omitempty"`

	// Silence arms the silence timer once the state accepts input. When it
	// fires the No branch is taken.
	Silence bool `json:"silence,omitempty" yaml:"silence,omitempty"`
}

// Script maps every state to its step.
type Script map[State]Step

// DefaultScript returns the kiss machine script.
func DefaultScript() Script {
	return Script{
		StateIntro: {
			Light: Light{"cyan", 2},
			Line: "Welcome to the first artificial kissing machine system. " +
				"A few basic questions before we can start the initialization to make your experience better. " +
				"Please use the 2 buttons you can find on the side to answer: " +
				"the top one represents yes and the bottom one represents no.",
			Mode: ModeAutoAdvance,
			Next: StateFirstQuestion,
		},
		StateFirstQuestion: {
			Light: Light{"blue", 1},
			Line:  "Are you ready to start? Press yes or no.",
			Cue:   true,
			Mode:  ModeAwaitAnswer,
			Yes:   Branch{To: StateAskSocial},
			No:    Branch{To: StateShutdown},
		},
		StateAskSocial: {
			Light: Light{"blue", 1},
			Line:  "Good, let's start with the first question: Are you a social person? Press yes or no.",
			Cue:   true,
			Mode:  ModeAwaitAnswer,
			Yes:   Branch{To: StateSocialYes},
			No:    Branch{To: StateSocialNo},
		},
		StateSocialYes: {
			Light: Light{"yellow", 0},
			Line:  "Then why are you recurring to me? Let's pass to the next question.",
			Mode:  ModeAutoAdvance,
			Next:  StateAskVoice,
		},
		StateSocialNo: {
			Light: Light{"green", 0},
			Line:  "I understand. Let's continue.",
			Mode:  ModeAutoAdvance,
			Next:  StateAskVoice,
		},
		StateAskVoice: {
			Light: Light{"purple", 1},
			Line: "Would you like your kiss machine to have a female or male voice? " +
				"Press yes to keep the male voice, or no to switch to a female voice.",
			Cue:  true,
			Mode: ModeAwaitAnswer,
			Yes:  Branch{To: StateSystemReady, Voice: "male"},
			No:   Branch{To: StateSystemReady, Voice: "female"},
		},
		StateSystemReady: {
			Light: Light{"green", 2},
			Line:  "Thank you. Initialization is now complete.",
			Mode:  ModeAutoAdvance,
			Next:  StateKissPrompt,
		},
		StateKissPrompt: {
			Light: Light{"pink", 1},
			Line:  "The system is now ready for you to enjoy the experience. You can kiss me now.",
			Mode:  ModeAutoAdvance,
			Next:  StateWaitingForGesture,
		},
		StateWaitingForGesture: {
			Mode: ModeCollectGesture,
		},
		StateHesitant: {
			Light: Light{"cyan", 0},
			Line: "This felt like a Hesitant Kiss. It was short and only one lip. " +
				"You touched me like you were asking permission. Would you kiss me again?",
			Cue:  true,
			Mode: ModeAutoAdvance,
			Next: StateAskContinue,
		},
		StateExploratory: {
			Light: Light{"blue", 0},
			Line: "This felt like an Exploratory Kiss, you tried both of my lips. " +
				"Consistency is a form of affection, right? Would you kiss me again?",
			Cue:  true,
			Mode: ModeAutoAdvance,
			Next: StateAskContinue,
		},
		StateAffirmed: {
			Light: Light{"magenta", 2},
			Line: "This felt like an Affirmed kiss. You're pressing me at my limits. " +
				"I'll take that as confirmation, would you kiss me again?",
			Cue:  true,
			Mode: ModeAutoAdvance,
			Next: StateAskContinue,
		},
		StateWithdrawn: {
			Light: Light{"orange", 0},
			Line:  "This felt like a withdrawn kiss, you were too quick. Would you kiss me again?",
			Cue:   true,
			Mode:  ModeAutoAdvance,
			Next:  StateAskContinue,
		},
		StateAskContinue: {
			Light:   Light{"white", 1},
			Mode:    ModeAwaitAnswer,
			Yes:     Branch{To: StateContinueYes},
			No:      Branch{To: StateShutdown},
			Silence: true,
		},
		StateContinueYes: {
			Light: Light{"pink", 0},
			Line:  "You can kiss me again.",
			Mode:  ModeAutoAdvance,
			Next:  StateWaitingForGesture,
		},
		StateShutdown: {
			Light: Light{"red", 1},
			Line:  "I understand. Shutting the system down.",
			Mode:  ModeAutoAdvance,
			Next:  StateEnd,
		},
		StateEnd: {
			Mode: ModeTerminal,
		},
	}
}

// Clone returns a copy of the script.
func (s Script) Clone() Script {
	return maps.Clone(s)
}

// Validate checks that every step is well formed. A target state without
// a step of its own is allowed: entering it is a logged dead end.
func (s Script) Validate() error {
	if _, ok := s[StateIntro]; !ok {
		return fmt.Errorf("%w: no %v step", ErrInvalidScript, StateIntro)
	}
	for st, step := range s {
		if err := step.validate(); err != nil {
			return fmt.Errorf("%w: %v: %w", ErrInvalidScript, st, err)
		}
	}
	return nil
}

func (step Step) validate() error {
	checkTarget := func(name string, to State) error {
		if to == StateNone {
			return fmt.Errorf("%s target missing", name)
		}
		if to < 0 || to >= numStates {
			return fmt.Errorf("%s target %v unknown", name, to)
		}
		return nil
	}
	checkVoice := func(b Branch) error {
		switch b.Voice {
		case "", "male", "female":
			return nil
		}
		return fmt.Errorf("unknown voice %q", b.Voice)
	}

	switch step.Mode {
	case ModeAutoAdvance:
		return checkTarget("next", step.Next)
	case ModeAwaitAnswer:
		if err := checkTarget("yes", step.Yes.To); err != nil {
			return err
		}
		if err := checkTarget("no", step.No.To); err != nil {
			return err
		}
		if err := checkVoice(step.Yes); err != nil {
			return err
		}
		return checkVoice(step.No)
	case ModeCollectGesture, ModeTerminal:
		return nil
	default:
		return fmt.Errorf("mode %v cannot be scripted", step.Mode)
	}
}

type scriptFile struct {
	States map[string]yaml.Node `yaml:"states"`
}

// LoadScript reads a YAML script override and merges it onto the default
// script. Only the fields present in the file change:
//
//	states:
//	  intro:
//	    line: "Hello there."
//	  ask-continue:
//	    light: {color: white, effect: 1}
func LoadScript(r io.Reader) (Script, error) {
	var f scriptFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return DefaultScript(), nil
		}
		return nil, fmt.Errorf("dialog: parse script: %w", err)
	}

	script := DefaultScript()
	for name, node := range f.States {
		st, err := ParseState(name)
		if err != nil || st == StateNone {
			return nil, fmt.Errorf("%w: line %d: unknown state %q", ErrInvalidScript, node.Line, name)
		}
		step := script[st]
		if err := node.Decode(&step); err != nil {
			return nil, fmt.Errorf("dialog: parse script state %q: %w", name, err)
		}
		script[st] = step
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}
	return script, nil
}
