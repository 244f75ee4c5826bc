package kisslink

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/dialog"
)

// WebSocket subprotocols. A device that negotiates none gets JSON.
const (
	SubprotocolJSON    = "kiss.json"
	SubprotocolMsgpack = "kiss.msgpack"
)

// Device to host message types.
const (
	TypeHello      = "hello"
	TypeStart      = "start"
	TypeRestart    = "restart"
	TypeButton     = "button"
	TypeSpeechDone = "speech_done"
)

// Host to device message types.
const (
	TypeSpeak   = "speak"
	TypeHush    = "hush"
	TypeLEDs    = "leds"
	TypeLED     = "led"
	TypeLEDsOff = "leds_off"
	TypeCue     = "cue"
	TypeState   = "state"
	TypeError   = "error"
)

// Button actions carried by TypeButton.
const (
	ActionPress     = "press"
	ActionRelease   = "release"
	ActionLongPress = "long_press"
)

// Message is the single envelope exchanged on the link. Which fields are
// set depends on Type.
type Message struct {
	Type string `json:"type" msgpack:"type"`

	// ID identifies an utterance: set on speak, echoed on speech_done.
	ID string `json:"id,omitempty" msgpack:"id,omitempty"`

	// Device is the device name announced by hello.
	Device string `json:"device,omitempty" msgpack:"device,omitempty"`

	// Button.
	Action string `json:"action,omitempty" msgpack:"action,omitempty"`
	Index  int    `json:"index,omitempty" msgpack:"index,omitempty"`

	// Speak.
	Text  string        `json:"text,omitempty" msgpack:"text,omitempty"`
	Voice *dialog.Voice `json:"voice,omitempty" msgpack:"voice,omitempty"`

	// LEDs.
	Color  string  `json:"color,omitempty" msgpack:"color,omitempty"`
	Effect float64 `json:"effect,omitempty" msgpack:"effect,omitempty"`
	R      uint8   `json:"r,omitempty" msgpack:"r,omitempty"`
	G      uint8   `json:"g,omitempty" msgpack:"g,omitempty"`
	B      uint8   `json:"b,omitempty" msgpack:"b,omitempty"`

	// State.
	State    string `json:"state,omitempty" msgpack:"state,omitempty"`
	Mode     string `json:"mode,omitempty" msgpack:"mode,omitempty"`
	Started  bool   `json:"started,omitempty" msgpack:"started,omitempty"`
	Speaking bool   `json:"speaking,omitempty" msgpack:"speaking,omitempty"`
	Gesture  string `json:"gesture,omitempty" msgpack:"gesture,omitempty"`

	// Error.
	Error string `json:"error,omitempty" msgpack:"error,omitempty"`
}

// StateMessage builds the state message for a session snapshot.
func StateMessage(s dialog.Session) *Message {
	return &Message{
		Type:     TypeState,
		ID:       s.ID,
		State:    s.State.String(),
		Mode:     s.Mode.String(),
		Started:  s.Started,
		Speaking: s.Speaking,
		Gesture:  s.LastGesture.String(),
	}
}

// Codec encodes messages for one subprotocol.
type Codec interface {
	// Subprotocol returns the negotiated subprotocol name.
	Subprotocol() string

	// FrameType returns the websocket frame type used for writes.
	FrameType() int

	Encode(m *Message) ([]byte, error)
	Decode(data []byte, m *Message) error
}

// CodecFor returns the codec of a negotiated subprotocol.
func CodecFor(subprotocol string) (Codec, error) {
	switch subprotocol {
	case "", SubprotocolJSON:
		return jsonCodec{}, nil
	case SubprotocolMsgpack:
		return msgpackCodec{}, nil
	}
	return nil, fmt.Errorf("kisslink: unsupported subprotocol %q", subprotocol)
}

type jsonCodec struct{}

func (jsonCodec) Subprotocol() string { return SubprotocolJSON }

func (jsonCodec) FrameType() int { return websocket.TextMessage }

func (jsonCodec) Encode(m *Message) ([]byte, error) {
	return json.Marshal(m)
}

func (jsonCodec) Decode(data []byte, m *Message) error {
	return json.Unmarshal(data, m)
}

type msgpackCodec struct{}

func (msgpackCodec) Subprotocol() string { return SubprotocolMsgpack }

func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(m *Message) ([]byte, error) {
	return msgpack.Marshal(m)
}

func (msgpackCodec) Decode(data []byte, m *Message) error {
	return msgpack.Unmarshal(data, m)
}
