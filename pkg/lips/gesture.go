// Package lips classifies a two-sensor lip gesture from raw press and
// release timestamps.
//
// A gesture attempt tracks the top and bottom lip sensors. When both lips
// are up again the attempt is either classified immediately (the lips
// overlapped at some point, so the intent is already clear) or after a
// short decision delay that gives a sequential second press time to
// arrive. The rule, in precedence order:
//
//   - Affirmed / Withdrawn: both lips were held together. The overlap runs
//     from the instant both became pressed to the earliest release;
//     overlap >= LongPress is affirmed, anything shorter is withdrawn.
//   - Exploratory: both lips were used without overlapping, and one lip's
//     press is within SequentialGap of the other lip's release. A larger
//     gap falls back to hesitant.
//   - Hesitant: a single lip was used.
//   - None: no lip was used.
package lips

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Lip identifies one of the two lip sensors.
type Lip int

const (
	Top Lip = iota
	Bottom
)

// String returns the string representation of the lip.
func (l Lip) String() string {
	switch l {
	case Top:
		return "top"
	case Bottom:
		return "bottom"
	default:
		return fmt.Sprintf("lip(%d)", int(l))
	}
}

// Valid reports whether l names one of the two lips.
func (l Lip) Valid() bool {
	return l == Top || l == Bottom
}

func (l Lip) other() Lip {
	if l == Top {
		return Bottom
	}
	return Top
}

// Gesture is the classification of one attempt.
type Gesture int

const (
	None Gesture = iota
	Hesitant
	Exploratory
	Affirmed
	Withdrawn
)

// String returns the string representation of the gesture.
func (g Gesture) String() string {
	switch g {
	case Hesitant:
		return "hesitant"
	case Exploratory:
		return "exploratory"
	case Affirmed:
		return "affirmed"
	case Withdrawn:
		return "withdrawn"
	default:
		return "none"
	}
}

// ParseGesture parses the string form of a gesture.
func ParseGesture(s string) (Gesture, error) {
	switch s {
	case "none", "":
		return None, nil
	case "hesitant":
		return Hesitant, nil
	case "exploratory":
		return Exploratory, nil
	case "affirmed":
		return Affirmed, nil
	case "withdrawn":
		return Withdrawn, nil
	}
	return None, fmt.Errorf("lips: unknown gesture %q", s)
}

// MarshalJSON implements json.Marshaler.
func (g Gesture) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Gesture) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseGesture(name)
	if err != nil {
		return err
	}
	*g = v
	return nil
}

// MarshalYAML implements the YAML marshaler used by the CLI output.
func (g Gesture) MarshalYAML() (any, error) {
	return g.String(), nil
}

// Thresholds are the fixed timing constants of the classifier.
type Thresholds struct {
	// ShortPress is the ceiling of a short press. It only grades presses
	// for diagnostics; it never changes a classification.
	ShortPress time.Duration `json:"short_press" yaml:"short_press"`

	// LongPress is the overlap floor separating affirmed from withdrawn.
	LongPress time.Duration `json:"long_press" yaml:"long_press"`

	// SequentialGap is the ceiling separating exploratory from hesitant.
	SequentialGap time.Duration `json:"sequential_gap" yaml:"sequential_gap"`

	// DecisionDelay is how long to wait after the last release for a
	// second, sequential press.
	DecisionDelay time.Duration `json:"decision_delay" yaml:"decision_delay"`
}

// DefaultThresholds returns the thresholds tuned on the installation.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ShortPress:    500 * time.Millisecond,
		LongPress:     1000 * time.Millisecond,
		SequentialGap: 1000 * time.Millisecond,
		DecisionDelay: 1000 * time.Millisecond,
	}
}

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("lips: invalid thresholds")

// Validate checks that every threshold is positive and that the short
// press ceiling does not exceed the long press floor.
func (th Thresholds) Validate() error {
	switch {
	case th.ShortPress <= 0:
		return fmt.Errorf("%w: short press must be positive", ErrInvalidThresholds)
	case th.LongPress <= 0:
		return fmt.Errorf("%w: long press must be positive", ErrInvalidThresholds)
	case th.SequentialGap <= 0:
		return fmt.Errorf("%w: sequential gap must be positive", ErrInvalidThresholds)
	case th.DecisionDelay <= 0:
		return fmt.Errorf("%w: decision delay must be positive", ErrInvalidThresholds)
	case th.ShortPress > th.LongPress:
		return fmt.Errorf("%w: short press %v exceeds long press %v", ErrInvalidThresholds, th.ShortPress, th.LongPress)
	}
	return nil
}

// PressKind grades a single lip press by its hold duration.
type PressKind int

const (
	PressNone PressKind = iota
	PressShort
	PressMedium
	PressLong
)

// String returns the string representation of the press kind.
func (k PressKind) String() string {
	switch k {
	case PressShort:
		return "short"
	case PressMedium:
		return "medium"
	case PressLong:
		return "long"
	default:
		return "none"
	}
}

// MarshalYAML implements the YAML marshaler used by the CLI output.
func (k PressKind) MarshalYAML() (any, error) {
	return k.String(), nil
}

// MarshalJSON implements json.Marshaler.
func (k PressKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}
