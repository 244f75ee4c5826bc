// Package kisslink connects the dialog controller to the kiss machine
// device over a WebSocket.
//
// The device (a browser page or the microcontroller bridge) owns the
// buttons, the speech synthesizer, the LED strip and the cue sound. It
// connects to GET /link, reports input and speech completion, and
// receives speak, LED, cue and state messages. Only one device is
// connected at a time.
//
// Server implements dialog.Speaker, dialog.Husher, dialog.LEDs and
// dialog.CuePlayer. Those methods and Observe must be called on the
// dialog loop; device input is posted to that loop.
package kisslink

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/dialog"
)

// ErrNoDevice is returned when a command is sent with no device connected.
var ErrNoDevice = errors.New("kisslink: no device connected")

const writeTimeout = 5 * time.Second

// Poster runs closures on the dialog loop. *sched.Loop implements it.
type Poster interface {
	Post(f func()) error
}

// Controller is the part of *dialog.Controller driven by the device.
type Controller interface {
	Start() error
	Restart()
	Stop()
	OnButtonPressed(i int)
	OnButtonReleased(i int)
	OnButtonLongPressed(i int)
	OnSpeechCompleted()
}

var (
	_ dialog.Speaker   = (*Server)(nil)
	_ dialog.Husher    = (*Server)(nil)
	_ dialog.LEDs      = (*Server)(nil)
	_ dialog.CuePlayer = (*Server)(nil)
)

// Server is the device link endpoint.
type Server struct {
	loop     Poster
	logger   Logger
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	mu   sync.Mutex
	ctrl Controller
	busy bool
	conn *deviceConn
	last dialog.Session

	// utterance is the ID of the outstanding speak command. It is only
	// touched on the dialog loop.
	utterance string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCheckOrigin sets the origin check of the WebSocket upgrade. The
// default accepts every origin.
func WithCheckOrigin(f func(r *http.Request) bool) Option {
	return func(s *Server) {
		s.upgrader.CheckOrigin = f
	}
}

// WithPreferredCodec makes the server pick subprotocol when a device
// offers more than one.
func WithPreferredCodec(subprotocol string) Option {
	return func(s *Server) {
		protos := []string{subprotocol}
		for _, p := range []string{SubprotocolJSON, SubprotocolMsgpack} {
			if p != subprotocol {
				protos = append(protos, p)
			}
		}
		s.upgrader.Subprotocols = protos
	}
}

// NewServer creates a link server that posts device input to loop.
func NewServer(loop Poster, opts ...Option) *Server {
	s := &Server{
		loop:   loop,
		logger: SlogLogger(slog.Default()),
		upgrader: websocket.Upgrader{
			Subprotocols: []string{SubprotocolJSON, SubprotocolMsgpack},
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc("GET /link", s.handleLink)
	s.mux.HandleFunc("GET /state", s.handleState)
	return s
}

// Bind sets the controller that receives device input.
func (s *Server) Bind(c Controller) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl = c
}

// Devices returns the server as the collaborators of a dialog controller.
func (s *Server) Devices() dialog.Devices {
	return dialog.Devices{Speaker: s, LEDs: s, Cue: s}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Connected reports whether a device is connected.
func (s *Server) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil
}

// Close disconnects the current device, if any.
func (s *Server) Close() error {
	s.mu.Lock()
	c := s.conn
	s.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		http.Error(w, "device already connected", http.StatusConflict)
		return
	}
	s.busy = true
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		s.busy = false
		s.conn = nil
		s.mu.Unlock()
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		release()
		s.logger.WarnPrintf("upgrade from %s: %v", r.RemoteAddr, err)
		return
	}
	codec, err := CodecFor(ws.Subprotocol())
	if err != nil {
		release()
		ws.Close()
		s.logger.WarnPrintf("%v", err)
		return
	}

	c := &deviceConn{
		id:    uuid.New().String(),
		ws:    ws,
		codec: codec,
	}
	s.mu.Lock()
	s.conn = c
	s.mu.Unlock()
	s.logger.InfoPrintf("device %s connected from %s (%s)", c.id, r.RemoteAddr, codec.Subprotocol())

	s.readLoop(c)

	c.Close()
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	s.logger.InfoPrintf("device %s disconnected", c.id)

	// The slot stays busy until the teardown has run on the loop, so a
	// reconnecting device never has its session stopped by this one.
	teardown := func() {
		release()
		s.utterance = ""
		if ctrl := s.controller(); ctrl != nil {
			ctrl.Stop()
		}
	}
	if err := s.loop.Post(teardown); err != nil {
		s.logger.WarnPrintf("post: %v", err)
		release()
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess := s.last
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(sess); err != nil {
		s.logger.WarnPrintf("write state to %s: %v", r.RemoteAddr, err)
	}
}

func (s *Server) readLoop(c *deviceConn) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.DebugPrintf("device %s read: %v", c.id, err)
			}
			return
		}
		var m Message
		if err := c.codec.Decode(data, &m); err != nil {
			s.logger.WarnPrintf("device %s sent an undecodable message: %v", c.id, err)
			c.send(&Message{Type: TypeError, Error: "undecodable message"})
			continue
		}
		s.dispatch(c, &m)
	}
}

func (s *Server) dispatch(c *deviceConn, m *Message) {
	ctrl := s.controller()
	if ctrl == nil {
		s.logger.WarnPrintf("no controller bound, %s dropped", m.Type)
		return
	}

	switch m.Type {
	case TypeHello:
		s.logger.InfoPrintf("device %s is %q", c.id, m.Device)
		s.post(func() { s.sendState() })
	case TypeStart:
		s.post(func() { ctrl.Start() })
	case TypeRestart:
		s.post(ctrl.Restart)
	case TypeButton:
		var f func(int)
		switch m.Action {
		case ActionPress:
			f = ctrl.OnButtonPressed
		case ActionRelease:
			f = ctrl.OnButtonReleased
		case ActionLongPress:
			f = ctrl.OnButtonLongPressed
		default:
			s.logger.WarnPrintf("device %s sent unknown button action %q", c.id, m.Action)
			c.send(&Message{Type: TypeError, Error: "unknown button action " + m.Action})
			return
		}
		i := m.Index
		s.post(func() { f(i) })
	case TypeSpeechDone:
		id := m.ID
		s.post(func() {
			if id == "" || id != s.utterance {
				s.logger.DebugPrintf("stale speech_done %q ignored", id)
				return
			}
			s.utterance = ""
			ctrl.OnSpeechCompleted()
		})
	default:
		s.logger.WarnPrintf("device %s sent unknown message type %q", c.id, m.Type)
		c.send(&Message{Type: TypeError, Error: "unknown message type " + m.Type})
	}
}

func (s *Server) post(f func()) {
	if err := s.loop.Post(f); err != nil {
		s.logger.WarnPrintf("post: %v", err)
	}
}

func (s *Server) controller() Controller {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl
}

func (s *Server) device() *deviceConn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// Speak sends a speak command with a fresh utterance ID. The utterance is
// outstanding until the device echoes that ID in speech_done.
func (s *Server) Speak(text string, voice dialog.Voice) error {
	c := s.device()
	if c == nil {
		return ErrNoDevice
	}
	id := uuid.New().String()
	if err := c.send(&Message{Type: TypeSpeak, ID: id, Text: text, Voice: &voice}); err != nil {
		return err
	}
	s.utterance = id
	return nil
}

// IsSpeaking reports whether an utterance is outstanding.
func (s *Server) IsSpeaking() bool {
	return s.utterance != ""
}

// Hush abandons the outstanding utterance. A late speech_done for it is
// ignored.
func (s *Server) Hush() {
	if s.utterance == "" {
		return
	}
	s.utterance = ""
	s.command(&Message{Type: TypeHush})
}

// SetAll implements dialog.LEDs.
func (s *Server) SetAll(color string, effect float64) {
	s.command(&Message{Type: TypeLEDs, Color: color, Effect: effect})
}

// SetOne implements dialog.LEDs.
func (s *Server) SetOne(index int, r, g, b uint8) {
	s.command(&Message{Type: TypeLED, Index: index, R: r, G: g, B: b})
}

// AllOff implements dialog.LEDs.
func (s *Server) AllOff() {
	s.command(&Message{Type: TypeLEDsOff})
}

// PlayCue implements dialog.CuePlayer.
func (s *Server) PlayCue() {
	s.command(&Message{Type: TypeCue})
}

// Observe records a session snapshot and forwards it to the device. Pass
// it to dialog.WithObserver.
func (s *Server) Observe(sess dialog.Session) {
	s.mu.Lock()
	s.last = sess
	s.mu.Unlock()
	s.sendState()
}

func (s *Server) sendState() {
	s.mu.Lock()
	sess := s.last
	s.mu.Unlock()
	s.command(StateMessage(sess))
}

// command sends a fire-and-forget message to the device.
func (s *Server) command(m *Message) {
	c := s.device()
	if c == nil {
		s.logger.DebugPrintf("%s dropped: %v", m.Type, ErrNoDevice)
		return
	}
	if err := c.send(m); err != nil {
		s.logger.WarnPrintf("send %s: %v", m.Type, err)
	}
}

// deviceConn is one connected device.
type deviceConn struct {
	id    string
	ws    *websocket.Conn
	codec Codec

	mu        sync.Mutex
	closeOnce sync.Once
}

func (c *deviceConn) send(m *Message) error {
	data, err := c.codec.Encode(m)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(c.codec.FrameType(), data)
}

func (c *deviceConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.ws.Close()
	})
	return err
}
