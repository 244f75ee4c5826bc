package lips

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/sched"
)

const ms = time.Millisecond

type quietLogger struct{}

func (quietLogger) WarnPrintf(string, ...any)  {}
func (quietLogger) InfoPrintf(string, ...any)  {}
func (quietLogger) DebugPrintf(string, ...any) {}

func events(groups ...[]Event) []Event {
	var out []Event
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func TestReplay_Scenarios(t *testing.T) {
	th := DefaultThresholds()
	tests := []struct {
		name   string
		events []Event
		want   Gesture
		at     time.Duration
	}{
		{
			name:   "single top lip short press waits for decision",
			events: Window(Top, 0, 300*ms),
			want:   Hesitant,
			at:     1300 * ms,
		},
		{
			name: "overlap shorter than long press",
			events: events(
				Window(Top, 0, 900*ms),
				Window(Bottom, 50*ms, 950*ms),
			),
			want: Withdrawn,
			at:   950 * ms,
		},
		{
			name: "overlap held past long press",
			events: events(
				Window(Top, 0, 1200*ms),
				Window(Bottom, 50*ms, 1200*ms),
			),
			want: Affirmed,
			at:   1200 * ms,
		},
		{
			name: "sequential lips within gap",
			events: events(
				Window(Top, 0, 200*ms),
				Window(Bottom, 400*ms, 600*ms),
			),
			want: Exploratory,
			at:   1600 * ms,
		},
		{
			name: "sequential bottom first",
			events: events(
				Window(Bottom, 0, 300*ms),
				Window(Top, 700*ms, 900*ms),
			),
			want: Exploratory,
			at:   1900 * ms,
		},
		{
			name:   "single bottom long press is still hesitant",
			events: Window(Bottom, 0, 2500*ms),
			want:   Hesitant,
			at:     3500 * ms,
		},
		{
			name: "overlap exactly at long press floor",
			events: events(
				Window(Top, 0, 1100*ms),
				Window(Bottom, 100*ms, 1500*ms),
			),
			want: Affirmed,
			at:   1500 * ms,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Replay(th, tc.events, WithLogger(quietLogger{}))
			if res.Gesture != tc.want {
				t.Errorf("gesture = %v, want %v", res.Gesture, tc.want)
			}
			if res.At != tc.at {
				t.Errorf("decided at %v, want %v", res.At, tc.at)
			}
		})
	}
}

func TestReplay_NoEvents(t *testing.T) {
	res := Replay(DefaultThresholds(), nil, WithLogger(quietLogger{}))
	if res.Gesture != None {
		t.Errorf("gesture = %v, want none", res.Gesture)
	}
}

func TestReplay_SecondPressAfterDecisionDelay(t *testing.T) {
	// The decision fires before the bottom lip arrives.
	res := Replay(DefaultThresholds(), events(
		Window(Top, 0, 200*ms),
		Window(Bottom, 1500*ms, 1700*ms),
	), WithLogger(quietLogger{}))
	if res.Gesture != Hesitant {
		t.Errorf("gesture = %v, want hesitant", res.Gesture)
	}
	if res.At != 1200*ms {
		t.Errorf("decided at %v, want 1.2s", res.At)
	}
}

func TestProperty_SingleLipAlwaysHesitant(t *testing.T) {
	th := DefaultThresholds()
	for _, lip := range []Lip{Top, Bottom} {
		for d := 10 * ms; d < th.LongPress; d += 70 * ms {
			res := Replay(th, Window(lip, 0, d), WithLogger(quietLogger{}))
			if res.Gesture != Hesitant {
				t.Errorf("%v held %v: gesture = %v, want hesitant", lip, d, res.Gesture)
			}
		}
	}
}

func TestProperty_OverlapDiscriminatesOnLongPress(t *testing.T) {
	th := DefaultThresholds()
	for offset := time.Duration(0); offset <= 300*ms; offset += 100 * ms {
		for hold := 100 * ms; hold <= 2*th.LongPress; hold += 150 * ms {
			evs := events(
				Window(Top, 0, offset+hold),
				Window(Bottom, offset, offset+hold+50*ms),
			)
			want := Withdrawn
			if hold >= th.LongPress {
				want = Affirmed
			}
			res := Replay(th, evs, WithLogger(quietLogger{}))
			if res.Gesture != want {
				t.Errorf("offset %v hold %v: gesture = %v, want %v", offset, hold, res.Gesture, want)
			}
		}
	}
}

func TestProperty_SequentialGap(t *testing.T) {
	// A long decision delay lets every second press arrive in time, so the
	// gap alone decides between exploratory and hesitant.
	th := DefaultThresholds()
	th.DecisionDelay = 10 * time.Second
	for gap := 100 * ms; gap <= 2*th.SequentialGap; gap += 100 * ms {
		// top 0-100, bottom pressed `gap` after the top release, held 100ms.
		// The closest press/release pair is bottom press vs top release.
		evs := events(
			Window(Top, 0, 100*ms),
			Window(Bottom, 100*ms+gap, 200*ms+gap),
		)
		want := Hesitant
		if gap < th.SequentialGap {
			want = Exploratory
		}
		res := Replay(th, evs, WithLogger(quietLogger{}))
		if res.Gesture != want {
			t.Errorf("gap %v: gesture = %v, want %v", gap, res.Gesture, want)
		}
	}
}

func TestAttempt_Classify(t *testing.T) {
	th := DefaultThresholds()
	base := time.Unix(100, 0)
	at := func(d time.Duration) time.Time { return base.Add(d) }

	tests := []struct {
		name    string
		attempt Attempt
		want    Gesture
	}{
		{"empty", Attempt{}, None},
		{
			name: "one lip",
			attempt: Attempt{Lips: [2]Track{
				{Used: true, PressedAt: at(0), ReleasedAt: at(200 * ms), Duration: 200 * ms},
			}},
			want: Hesitant,
		},
		{
			name: "two lips far apart",
			attempt: Attempt{Lips: [2]Track{
				{Used: true, PressedAt: at(0), ReleasedAt: at(100 * ms), Duration: 100 * ms},
				{Used: true, PressedAt: at(3 * time.Second), ReleasedAt: at(3100 * ms), Duration: 100 * ms},
			}},
			want: Hesitant,
		},
		{
			name: "overlap without release is unbounded",
			attempt: Attempt{
				Lips: [2]Track{
					{Used: true, Pressed: true, PressedAt: at(0)},
					{Used: true, Pressed: true, PressedAt: at(10 * ms)},
				},
				BothPressed:   true,
				BothPressedAt: at(10 * ms),
			},
			want: Affirmed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.attempt.Classify(th); got != tc.want {
				t.Errorf("Classify() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestAttempt_BothPressedLatches(t *testing.T) {
	var a Attempt
	base := time.Unix(0, 0)
	a.press(Top, base)
	a.press(Bottom, base.Add(50*ms))
	if !a.BothPressed || !a.BothPressedAt.Equal(base.Add(50*ms)) {
		t.Fatalf("BothPressed=%t at %v, want true at +50ms", a.BothPressed, a.BothPressedAt)
	}
	a.release(Top, base.Add(100*ms))
	a.press(Top, base.Add(150*ms))
	if !a.BothPressedAt.Equal(base.Add(50 * ms)) {
		t.Errorf("BothPressedAt moved to %v", a.BothPressedAt)
	}
	a.release(Top, base.Add(200*ms))
	a.release(Bottom, base.Add(300*ms))
	if !a.BothPressed {
		t.Error("BothPressed reset within attempt")
	}
}

func TestAttempt_DurationOnlyAfterRelease(t *testing.T) {
	var a Attempt
	base := time.Unix(0, 0)
	a.press(Top, base)
	if a.Lips[Top].Released() {
		t.Error("Released() = true before release")
	}
	if a.release(Bottom, base) {
		t.Error("release of unpressed lip reported true")
	}
	a.release(Top, base.Add(420*ms))
	if !a.Lips[Top].Released() || a.Lips[Top].Duration != 420*ms {
		t.Errorf("top = %+v, want released after 420ms", a.Lips[Top])
	}
}

func TestClassifier_ResetClearsAttemptAndCancelsDecision(t *testing.T) {
	clock := sched.NewManual(time.Unix(0, 0))
	var got []Gesture
	c := NewClassifier(clock, DefaultThresholds(), func(g Gesture, _ Attempt) {
		got = append(got, g)
	}, WithLogger(quietLogger{}))

	c.Press(Top)
	clock.Advance(200 * ms)
	c.Release(Top)
	if !c.Deciding() {
		t.Fatal("Deciding() = false after single release")
	}

	c.Reset()
	a := c.Attempt()
	for _, l := range []Lip{Top, Bottom} {
		tr := a.Lip(l)
		if tr.Used || tr.Pressed || tr.Duration != 0 {
			t.Errorf("%v after Reset = %+v, want zero", l, tr)
		}
	}
	if c.Deciding() {
		t.Error("Deciding() = true after Reset")
	}
	clock.Advance(5 * time.Second)
	if len(got) != 0 {
		t.Errorf("verdicts after Reset = %v, want none", got)
	}
}

func TestClassifier_PressCancelsDecision(t *testing.T) {
	clock := sched.NewManual(time.Unix(0, 0))
	var got []Gesture
	c := NewClassifier(clock, DefaultThresholds(), func(g Gesture, _ Attempt) {
		got = append(got, g)
	}, WithLogger(quietLogger{}))

	c.Press(Top)
	clock.Advance(100 * ms)
	c.Release(Top)
	clock.Advance(900 * ms)
	c.Press(Top)
	if c.Deciding() {
		t.Fatal("Deciding() = true after fresh press")
	}
	clock.Advance(2 * time.Second)
	if len(got) != 0 {
		t.Fatalf("verdict while lip held: %v", got)
	}
	c.Release(Top)
	clock.Advance(time.Second)
	if len(got) != 1 || got[0] != Hesitant {
		t.Errorf("verdicts = %v, want [hesitant]", got)
	}
}

func TestClassifier_DecideNoneResets(t *testing.T) {
	clock := sched.NewManual(time.Unix(0, 0))
	called := false
	c := NewClassifier(clock, DefaultThresholds(), func(Gesture, Attempt) { called = true }, WithLogger(quietLogger{}))
	if g := c.Decide(); g != None {
		t.Errorf("Decide() = %v, want none", g)
	}
	if called {
		t.Error("verdict called for none")
	}
}

func TestClassifier_AttemptResetAfterVerdict(t *testing.T) {
	clock := sched.NewManual(time.Unix(0, 0))
	var snap Attempt
	c := NewClassifier(clock, DefaultThresholds(), func(_ Gesture, a Attempt) { snap = a }, WithLogger(quietLogger{}))
	c.Press(Top)
	c.Press(Bottom)
	clock.Advance(300 * ms)
	c.Release(Top)
	c.Release(Bottom)
	if !snap.BothPressed {
		t.Error("verdict attempt lost BothPressed")
	}
	if c.Attempt().Used() != 0 {
		t.Error("attempt not reset after verdict")
	}
}

func TestAttempt_ReadsOnReturnedValues(t *testing.T) {
	th := DefaultThresholds()
	res := Replay(th, events(
		Window(Top, 0, 200*ms),
		Window(Bottom, 400*ms, 600*ms),
	), WithLogger(quietLogger{}))

	if got := Replay(th, Window(Top, 0, 300*ms), WithLogger(quietLogger{})).Attempt.Used(); got != 1 {
		t.Errorf("Used = %d, want 1", got)
	}
	if got := res.Attempt.Classify(th); got != Exploratory {
		t.Errorf("Classify = %v, want exploratory", got)
	}
	if !res.Attempt.AllUp() {
		t.Error("AllUp = false, want true")
	}
	if _, _, ok := res.Attempt.Overlap(); ok {
		t.Error("Overlap ok = true, want false")
	}
	if !res.Attempt.Sequential(th.SequentialGap) {
		t.Error("Sequential = false, want true")
	}

	c := NewClassifier(sched.NewManual(time.Unix(0, 0)), th, func(Gesture, Attempt) {}, WithLogger(quietLogger{}))
	c.Press(Bottom)
	if got := c.Attempt().Lip(Bottom); !got.Pressed {
		t.Errorf("Lip(Bottom) = %+v, want pressed", got)
	}
	if c.Attempt().AllUp() {
		t.Error("AllUp = true while bottom lip is held")
	}
}

func TestGesture_JSON(t *testing.T) {
	for _, g := range []Gesture{None, Hesitant, Exploratory, Affirmed, Withdrawn} {
		data, err := json.Marshal(g)
		if err != nil {
			t.Fatalf("Marshal(%v) error: %v", g, err)
		}
		var back Gesture
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", data, err)
		}
		if back != g {
			t.Errorf("roundtrip %v -> %s -> %v", g, data, back)
		}
	}
	var g Gesture
	if err := json.Unmarshal([]byte(`"smooch"`), &g); err == nil {
		t.Error("Unmarshal unknown gesture: want error")
	}
}

func TestThresholds_Validate(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}
	th := DefaultThresholds()
	th.ShortPress = 2 * time.Second
	if err := th.Validate(); !errors.Is(err, ErrInvalidThresholds) {
		t.Errorf("Validate() = %v, want ErrInvalidThresholds", err)
	}
	th = DefaultThresholds()
	th.DecisionDelay = 0
	if err := th.Validate(); !errors.Is(err, ErrInvalidThresholds) {
		t.Errorf("Validate() = %v, want ErrInvalidThresholds", err)
	}
}

func TestTrack_Kind(t *testing.T) {
	th := DefaultThresholds()
	base := time.Unix(0, 0)
	mk := func(d time.Duration) Track {
		return Track{Used: true, PressedAt: base, ReleasedAt: base.Add(d), Duration: d}
	}
	tests := []struct {
		track Track
		want  PressKind
	}{
		{Track{}, PressNone},
		{mk(100 * ms), PressShort},
		{mk(700 * ms), PressMedium},
		{mk(1000 * ms), PressLong},
	}
	for _, tc := range tests {
		if got := tc.track.Kind(th); got != tc.want {
			t.Errorf("Kind(%v) = %v, want %v", tc.track.Duration, got, tc.want)
		}
	}
}
