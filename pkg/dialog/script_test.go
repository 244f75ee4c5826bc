package dialog

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
)

func TestDefaultScript(t *testing.T) {
	script := DefaultScript()
	if err := script.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	for _, s := range States() {
		if _, ok := script[s]; !ok {
			t.Errorf("no step for %v", s)
		}
	}

	tests := []struct {
		state State
		mode  Mode
		cue   bool
		color string
	}{
		{StateIntro, ModeAutoAdvance, false, "cyan"},
		{StateFirstQuestion, ModeAwaitAnswer, true, "blue"},
		{StateAskVoice, ModeAwaitAnswer, true, "purple"},
		{StateKissPrompt, ModeAutoAdvance, false, "pink"},
		{StateWaitingForGesture, ModeCollectGesture, false, ""},
		{StateAffirmed, ModeAutoAdvance, true, "magenta"},
		{StateWithdrawn, ModeAutoAdvance, true, "orange"},
		{StateAskContinue, ModeAwaitAnswer, false, "white"},
		{StateShutdown, ModeAutoAdvance, false, "red"},
		{StateEnd, ModeTerminal, false, ""},
	}
	for _, tt := range tests {
		step := script[tt.state]
		if step.Mode != tt.mode {
			t.Errorf("%v mode = %v, want %v", tt.state, step.Mode, tt.mode)
		}
		if step.Cue != tt.cue {
			t.Errorf("%v cue = %v, want %v", tt.state, step.Cue, tt.cue)
		}
		if step.Light.Color != tt.color {
			t.Errorf("%v light = %q, want %q", tt.state, step.Light.Color, tt.color)
		}
	}

	if !script[StateAskContinue].Silence {
		t.Error("ask-continue does not arm the silence timer")
	}
	if script[StateAskContinue].Line != "" {
		t.Error("ask-continue should be silent, the gesture line asks the question")
	}
}

func TestDefaultScript_SharedShutdown(t *testing.T) {
	script := DefaultScript()
	for _, s := range []State{StateFirstQuestion, StateAskContinue} {
		if to := script[s].No.To; to != StateShutdown {
			t.Errorf("%v no = %v, want %v", s, to, StateShutdown)
		}
	}
	if next := script[StateShutdown].Next; next != StateEnd {
		t.Errorf("shutdown next = %v, want %v", next, StateEnd)
	}
}

func TestScript_Clone(t *testing.T) {
	a := DefaultScript()
	b := a.Clone()
	step := b[StateIntro]
	step.Line = "changed"
	b[StateIntro] = step
	if a[StateIntro].Line == "changed" {
		t.Error("Clone shares steps with the original")
	}
}

func TestScript_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(Script)
	}{
		{"no intro", func(s Script) { delete(s, StateIntro) }},
		{"auto without next", func(s Script) {
			step := s[StateIntro]
			step.Next = StateNone
			s[StateIntro] = step
		}},
		{"answer without no", func(s Script) {
			step := s[StateFirstQuestion]
			step.No = Branch{}
			s[StateFirstQuestion] = step
		}},
		{"unknown target", func(s Script) {
			step := s[StateIntro]
			step.Next = State(99)
			s[StateIntro] = step
		}},
		{"unknown voice", func(s Script) {
			step := s[StateAskVoice]
			step.Yes.Voice = "robot"
			s[StateAskVoice] = step
		}},
		{"idle mode", func(s Script) {
			step := s[StateIntro]
			step.Mode = ModeIdle
			s[StateIntro] = step
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultScript()
			tt.modify(s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidScript) {
				t.Errorf("Validate() = %v, want ErrInvalidScript", err)
			}
		})
	}

	// A missing step is a dead end at runtime, not a validation error.
	s := DefaultScript()
	delete(s, StateSocialYes)
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() without social-yes = %v, want nil", err)
	}
}

func TestLoadScript(t *testing.T) {
	src := `
states:
  intro:
    line: "Hello there."
  ask-continue:
    light: {color: green}
    line: "Again?"
    cue: true
  kiss-prompt:
    next: end
`
	script, err := LoadScript(strings.NewReader(src))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	intro := script[StateIntro]
	if intro.Line != "Hello there." {
		t.Errorf("intro line = %q", intro.Line)
	}
	if intro.Light != (Light{"cyan", 2}) || intro.Next != StateFirstQuestion {
		t.Errorf("intro lost its defaults: %+v", intro)
	}

	ask := script[StateAskContinue]
	if ask.Light != (Light{"green", 1}) {
		t.Errorf("ask-continue light = %+v, want green 1", ask.Light)
	}
	if ask.Line != "Again?" || !ask.Cue || !ask.Silence {
		t.Errorf("ask-continue = %+v", ask)
	}
	if script[StateKissPrompt].Next != StateEnd {
		t.Errorf("kiss-prompt next = %v, want end", script[StateKissPrompt].Next)
	}

	// The default script is not modified.
	if DefaultScript()[StateIntro].Line == "Hello there." {
		t.Error("LoadScript modified the default script")
	}
}

func TestLoadScript_Empty(t *testing.T) {
	script, err := LoadScript(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(script) != len(DefaultScript()) {
		t.Errorf("len(script) = %d, want %d", len(script), len(DefaultScript()))
	}
}

func TestLoadScript_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unknown state", "states:\n  goodbye:\n    line: bye\n"},
		{"none state", "states:\n  none:\n    line: bye\n"},
		{"unknown top level key", "steps:\n  intro:\n    line: hi\n"},
		{"unknown mode", "states:\n  intro:\n    mode: sometimes\n"},
		{"unknown target", "states:\n  intro:\n    next: nowhere\n"},
		{"idle is not scriptable", "states:\n  intro:\n    mode: idle\n"},
		{"not yaml", "states: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadScript(strings.NewReader(tt.src)); err == nil {
				t.Error("LoadScript should fail")
			}
		})
	}
}

func TestState_String(t *testing.T) {
	for _, s := range States() {
		got, err := ParseState(s.String())
		if err != nil {
			t.Errorf("ParseState(%q) error: %v", s.String(), err)
			continue
		}
		if got != s {
			t.Errorf("ParseState(%q) = %v, want %v", s.String(), got, s)
		}
	}
	if got := State(99).String(); got != "state(99)" {
		t.Errorf("State(99).String() = %q", got)
	}
	if _, err := ParseState("kissing"); err == nil {
		t.Error("ParseState(kissing) should fail")
	}
	if n := len(States()); n != int(numStates)-1 {
		t.Errorf("len(States()) = %d, want %d", n, int(numStates)-1)
	}
}

func TestState_JSON(t *testing.T) {
	data, err := json.Marshal(StateWaitingForGesture)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"waiting-for-gesture"` {
		t.Errorf("Marshal = %s", data)
	}

	var s State
	if err := json.Unmarshal([]byte(`"ask-continue"`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s != StateAskContinue {
		t.Errorf("Unmarshal = %v, want ask-continue", s)
	}
	if err := json.Unmarshal([]byte(`"nope"`), &s); err == nil {
		t.Error("Unmarshal of unknown state should fail")
	}
}

func TestSession_JSON(t *testing.T) {
	sess := Session{
		ID:          "abc",
		Started:     true,
		State:       StateAffirmed,
		Pending:     StateAskContinue,
		Mode:        ModeAutoAdvance,
		Voice:       DefaultVoices().Female,
		LastGesture: lips.Affirmed,
	}
	data, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	for _, want := range []string{
		`"state":"affirmed"`,
		`"pending":"ask-continue"`,
		`"mode":"auto"`,
		`"last_gesture":"affirmed"`,
		`"name":"Google UK English Female"`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Marshal = %s, missing %s", data, want)
		}
	}
	if strings.Contains(string(data), "started_at") {
		t.Errorf("Marshal = %s, zero started_at should be omitted", data)
	}
}

func TestGestureState(t *testing.T) {
	tests := []struct {
		g    lips.Gesture
		want State
	}{
		{lips.None, StateNone},
		{lips.Hesitant, StateHesitant},
		{lips.Exploratory, StateExploratory},
		{lips.Affirmed, StateAffirmed},
		{lips.Withdrawn, StateWithdrawn},
	}
	for _, tt := range tests {
		if got := GestureState(tt.g); got != tt.want {
			t.Errorf("GestureState(%v) = %v, want %v", tt.g, got, tt.want)
		}
	}
}

func TestMode(t *testing.T) {
	for _, m := range []Mode{ModeAutoAdvance, ModeAwaitAnswer, ModeCollectGesture, ModeTerminal} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	for _, name := range []string{"idle", "dead-end", ""} {
		if _, err := ParseMode(name); err == nil {
			t.Errorf("ParseMode(%q) should fail", name)
		}
	}
	accepts := map[Mode]bool{ModeAwaitAnswer: true, ModeCollectGesture: true}
	for m := ModeIdle; m <= ModeDeadEnd; m++ {
		if got := m.AcceptsInput(); got != accepts[m] {
			t.Errorf("%v.AcceptsInput() = %v, want %v", m, got, accepts[m])
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"zero silence", func(c *Config) { c.SilenceTimeout = 0 }},
		{"negative long press", func(c *Config) { c.LongPressDelay = -1 }},
		{"bad thresholds", func(c *Config) { c.Thresholds.DecisionDelay = 0 }},
		{"shared index", func(c *Config) { c.Buttons.No = c.Buttons.Yes }},
		{"index out of range", func(c *Config) { c.Buttons.TopLip = MaxButtons }},
		{"negative index", func(c *Config) { c.Buttons.BottomLip = -1 }},
		{"unnamed voice", func(c *Config) { c.Voices.Female.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestButtons(t *testing.T) {
	b := DefaultButtons()
	if l, ok := b.Lip(0); !ok || l != lips.Top {
		t.Errorf("Lip(0) = %v, %v", l, ok)
	}
	if l, ok := b.Lip(1); !ok || l != lips.Bottom {
		t.Errorf("Lip(1) = %v, %v", l, ok)
	}
	if _, ok := b.Lip(5); ok {
		t.Error("Lip(5) should not map")
	}
	if yes, ok := b.Answer(5); !ok || !yes {
		t.Errorf("Answer(5) = %v, %v", yes, ok)
	}
	if yes, ok := b.Answer(6); !ok || yes {
		t.Errorf("Answer(6) = %v, %v", yes, ok)
	}
	if _, ok := b.Answer(3); ok {
		t.Error("Answer(3) should not map")
	}

	v := DefaultVoices()
	if got, ok := v.Lookup("female"); !ok || got != v.Female {
		t.Errorf("Lookup(female) = %v, %v", got, ok)
	}
	if _, ok := v.Lookup("robot"); ok {
		t.Error("Lookup(robot) should fail")
	}
}
