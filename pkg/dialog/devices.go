package dialog

// Speaker is the speech interface. Exactly one utterance may be
// outstanding; its end is reported by calling Controller.OnSpeechCompleted
// on the dialog loop.
type Speaker interface {
	// Speak starts speaking text with the given voice.
	Speak(text string, voice Voice) error

	// IsSpeaking reports whether an utterance is still playing.
	IsSpeaking() bool
}

// Husher is implemented by speakers that can abandon the current
// utterance. The controller uses it when a session is reset mid-speech.
type Husher interface {
	Hush()
}

// LEDs is the visual feedback interface. Calls are fire-and-forget.
type LEDs interface {
	// SetAll sets every LED to a named color with an effect intensity.
	SetAll(color string, effect float64)

	// SetOne sets a single LED to an RGB value.
	SetOne(index int, r, g, b uint8)

	// AllOff switches every LED off.
	AllOff()
}

// CuePlayer plays the short audio cue after a question.
type CuePlayer interface {
	PlayCue()
}

// Observer receives a snapshot of the session after every change. It is
// for display only.
type Observer func(Session)

// Devices bundles the collaborators of a Controller. Speaker is required;
// nil LEDs and Cue are replaced with no-ops.
type Devices struct {
	Speaker Speaker
	LEDs    LEDs
	Cue     CuePlayer
}

type nopLEDs struct{}

func (nopLEDs) SetAll(string, float64) {}

func (nopLEDs) SetOne(int, uint8, uint8, uint8) {}

func (nopLEDs) AllOff() {}

type nopCue struct{}

func (nopCue) PlayCue() {}

// TeeLEDs returns LEDs that forwards every call to each of leds in order.
func TeeLEDs(leds ...LEDs) LEDs {
	return teeLEDs(leds)
}

type teeLEDs []LEDs

func (t teeLEDs) SetAll(color string, effect float64) {
	for _, l := range t {
		l.SetAll(color, effect)
	}
}

func (t teeLEDs) SetOne(index int, r, g, b uint8) {
	for _, l := range t {
		l.SetOne(index, r, g, b)
	}
}

func (t teeLEDs) AllOff() {
	for _, l := range t {
		l.AllOff()
	}
}
