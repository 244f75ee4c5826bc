package dialog

import (
	"errors"
	"fmt"
	"time"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
)

// MaxButtons is the number of logical input indices the machine exposes.
const MaxButtons = 10

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("dialog: invalid config")

// Buttons is the fixed wiring of logical input indices.
type Buttons struct {
	TopLip    int `json:"top_lip" yaml:"top_lip"`
	BottomLip int `json:"bottom_lip" yaml:"bottom_lip"`
	Yes       int `json:"yes" yaml:"yes"`
	No        int `json:"no" yaml:"no"`
}

// DefaultButtons returns the wiring of the installation: lips on 0 and 1,
// yes on 5 and no on 6.
func DefaultButtons() Buttons {
	return Buttons{TopLip: 0, BottomLip: 1, Yes: 5, No: 6}
}

// Lip maps an input index to a lip.
func (b Buttons) Lip(index int) (lips.Lip, bool) {
	switch index {
	case b.TopLip:
		return lips.Top, true
	case b.BottomLip:
		return lips.Bottom, true
	}
	return 0, false
}

// Answer maps an input index to a yes (true) or no (false) answer.
func (b Buttons) Answer(index int) (yes, ok bool) {
	switch index {
	case b.Yes:
		return true, true
	case b.No:
		return false, true
	}
	return false, false
}

func (b Buttons) validate() error {
	seen := make(map[int]string, 4)
	for _, f := range []struct {
		name  string
		index int
	}{{"top lip", b.TopLip}, {"bottom lip", b.BottomLip}, {"yes", b.Yes}, {"no", b.No}} {
		if f.index < 0 || f.index >= MaxButtons {
			return fmt.Errorf("%w: %s index %d out of range [0,%d)", ErrInvalidConfig, f.name, f.index, MaxButtons)
		}
		if other, dup := seen[f.index]; dup {
			return fmt.Errorf("%w: %s and %s share index %d", ErrInvalidConfig, other, f.name, f.index)
		}
		seen[f.index] = f.name
	}
	return nil
}

// Voice is a speech preset handed to the Speaker.
type Voice struct {
	Name  string  `json:"name" yaml:"name" msgpack:"name"`
	Pitch float64 `json:"pitch" yaml:"pitch" msgpack:"pitch"`
	Rate  float64 `json:"rate" yaml:"rate" msgpack:"rate"`
}

// Voices are the presets selectable by the voice question.
type Voices struct {
	Male   Voice `json:"male" yaml:"male"`
	Female Voice `json:"female" yaml:"female"`
}

// DefaultVoices returns the UK English presets.
func DefaultVoices() Voices {
	return Voices{
		Male:   Voice{Name: "Google UK English Male", Pitch: 0.7, Rate: 1},
		Female: Voice{Name: "Google UK English Female", Pitch: 1.3, Rate: 1},
	}
}

// Lookup returns the preset selected by a script branch.
func (v Voices) Lookup(name string) (Voice, bool) {
	switch name {
	case "male":
		return v.Male, true
	case "female":
		return v.Female, true
	}
	return Voice{}, false
}

// Light is an LED directive applied to the whole strip.
type Light struct {
	Color  string  `json:"color" yaml:"color"`
	Effect float64 `json:"effect" yaml:"effect"`
}

// IsZero reports whether the light carries no directive.
func (l Light) IsZero() bool {
	return l.Color == ""
}

// Config configures a Controller.
type Config struct {
	// Thresholds are the gesture classifier thresholds.
	Thresholds lips.Thresholds

	// SilenceTimeout is how long ask-continue waits before treating
	// silence as "no".
	SilenceTimeout time.Duration

	// LongPressDelay is the hold time from which a release is reported as
	// a long press.
	LongPressDelay time.Duration

	// Buttons is the input index wiring.
	Buttons Buttons

	// Voices are the speech presets. Sessions start with Voices.Male.
	Voices Voices

	// SpeakingLight is applied to the LEDs while a line is being spoken.
	// A zero Light keeps the step's own light.
	SpeakingLight Light
}

// DefaultConfig returns the configuration of the installation.
func DefaultConfig() Config {
	return Config{
		Thresholds:     lips.DefaultThresholds(),
		SilenceTimeout: 10 * time.Second,
		LongPressDelay: time.Second,
		Buttons:        DefaultButtons(),
		Voices:         DefaultVoices(),
		SpeakingLight:  Light{Color: "white", Effect: 2.5},
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if err := c.Thresholds.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.SilenceTimeout <= 0 {
		return fmt.Errorf("%w: silence timeout must be positive", ErrInvalidConfig)
	}
	if c.LongPressDelay <= 0 {
		return fmt.Errorf("%w: long press delay must be positive", ErrInvalidConfig)
	}
	if c.Voices.Male.Name == "" || c.Voices.Female.Name == "" {
		return fmt.Errorf("%w: both voices need a name", ErrInvalidConfig)
	}
	return c.Buttons.validate()
}
