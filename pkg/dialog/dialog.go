// Package dialog drives the kiss machine through its scripted voice
// dialog and turns classified lip gestures into spoken responses.
//
// A Controller owns the single Session, the button press bookkeeping, the
// gesture classifier and the silence timer. It is not safe for concurrent
// use: every method, including the Speaker completion callback, must run
// on the goroutine that executes the scheduler's callbacks (see
// sched.Loop).
//
// Usage:
//
//	loop := sched.NewLoop(64)
//	ctrl, err := dialog.New(loop, dialog.DefaultConfig(), dialog.Devices{Speaker: tts, LEDs: strip})
//	go loop.Run(ctx)
//	loop.Post(func() { ctrl.Start() })
//	loop.Post(func() { ctrl.OnButtonPressed(5) })
package dialog

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/lips"
	"github.com/diegobuccelloni-ecal/talk-to-me-2026-DB-RH/pkg/sched"
)

// ErrAlreadyStarted is returned by Start while a session is running.
var ErrAlreadyStarted = errors.New("dialog: already started")

// Controller is the dialog state machine.
type Controller struct {
	cfg      Config
	script   Script
	sched    sched.Scheduler
	speaker  Speaker
	leds     LEDs
	cue      CuePlayer
	observer Observer
	logger   Logger

	session Session
	buttons buttons
	lips    *lips.Classifier
	silence sched.Task
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger. The gesture classifier logs
// through the same logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver registers a session observer.
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		c.observer = o
	}
}

// WithScript replaces the default script.
func WithScript(s Script) Option {
	return func(c *Controller) {
		if s != nil {
			c.script = s.Clone()
		}
	}
}

// New creates a controller. Timers are scheduled on s.
func New(s sched.Scheduler, cfg Config, dev Devices, opts ...Option) (*Controller, error) {
	if s == nil {
		return nil, errors.New("dialog: nil scheduler")
	}
	if dev.Speaker == nil {
		return nil, errors.New("dialog: nil speaker")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Controller{
		cfg:     cfg,
		script:  DefaultScript(),
		sched:   s,
		speaker: dev.Speaker,
		leds:    dev.LEDs,
		cue:     dev.Cue,
		logger:  DefaultLogger(),
	}
	if c.leds == nil {
		c.leds = nopLEDs{}
	}
	if c.cue == nil {
		c.cue = nopCue{}
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.script.Validate(); err != nil {
		return nil, err
	}
	c.lips = lips.NewClassifier(s, cfg.Thresholds, c.onGesture, lips.WithLogger(c.logger))
	c.session = c.idleSession()
	return c, nil
}

// Session returns a snapshot of the current session.
func (c *Controller) Session() Session {
	return c.session
}

// State returns the current state.
func (c *Controller) State() State {
	return c.session.State
}

// Attempt returns a snapshot of the gesture attempt being collected.
func (c *Controller) Attempt() lips.Attempt {
	return c.lips.Attempt()
}

// Start begins a new session at the intro. It fails with
// ErrAlreadyStarted, changing nothing, while a session is running.
func (c *Controller) Start() error {
	if c.session.Started {
		c.logger.WarnPrintf("already started, restart to begin again")
		return ErrAlreadyStarted
	}
	c.reset()
	c.session.ID = uuid.New().String()
	c.session.Started = true
	c.session.StartedAt = c.sched.Now()
	c.logger.InfoPrintf("session %s started", c.session.ID)
	c.enter(StateIntro)
	return nil
}

// Restart abandons the current session, if any, and starts a new one.
func (c *Controller) Restart() {
	if c.session.Started {
		c.logger.InfoPrintf("session %s restarted", c.session.ID)
	}
	c.reset()
	if err := c.Start(); err != nil {
		c.logger.ErrorPrintf("restart: %v", err)
	}
}

// Stop abandons the current session and switches the LEDs off.
func (c *Controller) Stop() {
	if !c.session.Started {
		return
	}
	c.logger.InfoPrintf("session %s stopped", c.session.ID)
	c.reset()
	c.notify()
}

// OnButtonPressed handles a press of input index i.
func (c *Controller) OnButtonPressed(i int) {
	if !validIndex(i) {
		c.logger.WarnPrintf("button %d pressed: no such input", i)
		return
	}
	c.buttons.press(i, c.sched.Now())
	c.logger.DebugPrintf("button %d pressed", i)

	if lip, ok := c.cfg.Buttons.Lip(i); ok && c.session.Mode == ModeCollectGesture {
		if c.guard("lip press") {
			c.lips.Press(lip)
		}
		return
	}
	// Answers are taken on release so one physical press answers once.
	if _, ok := c.cfg.Buttons.Answer(i); ok && c.session.Mode == ModeAwaitAnswer {
		return
	}
	c.logger.DebugPrintf("button %d press ignored in %v", i, c.session.State)
}

// OnButtonReleased handles a release of input index i. A release without
// a tracked press is ignored; a release held for LongPressDelay or more is
// handled as a long press.
func (c *Controller) OnButtonReleased(i int) {
	if !validIndex(i) {
		c.logger.WarnPrintf("button %d released: no such input", i)
		return
	}
	held, ok := c.buttons.release(i, c.sched.Now())
	if !ok {
		c.logger.DebugPrintf("button %d released without press", i)
		return
	}
	if held >= c.cfg.LongPressDelay {
		c.logger.DebugPrintf("button %d long press (%v)", i, held)
	} else {
		c.logger.DebugPrintf("button %d released (%v)", i, held)
	}
	c.handleRelease(i)
}

// OnButtonLongPressed handles a long press of input index i reported by
// the input source. It is handled like a release.
func (c *Controller) OnButtonLongPressed(i int) {
	if !validIndex(i) {
		c.logger.WarnPrintf("button %d long pressed: no such input", i)
		return
	}
	c.buttons.release(i, c.sched.Now())
	c.logger.DebugPrintf("button %d long press", i)
	c.handleRelease(i)
}

// OnSpeechCompleted handles the end of the current utterance: LEDs off,
// the pending cue, and the deferred transition of an auto-advance state.
func (c *Controller) OnSpeechCompleted() {
	if !c.session.Speaking {
		c.logger.DebugPrintf("speech completed with no utterance outstanding")
		return
	}
	c.session.Speaking = false
	c.logger.DebugPrintf("speech ended")
	c.leds.AllOff()
	if c.session.CueAfterSpeech {
		c.session.CueAfterSpeech = false
		c.cue.PlayCue()
	}
	if !c.session.Started {
		c.notify()
		return
	}

	switch c.session.Mode {
	case ModeAutoAdvance:
		c.advance()
		return
	case ModeAwaitAnswer:
		if c.script[c.session.State].Silence {
			c.armSilence()
		}
	}
	c.notify()
}

func (c *Controller) handleRelease(i int) {
	if lip, ok := c.cfg.Buttons.Lip(i); ok && c.session.Mode == ModeCollectGesture {
		if c.guard("lip release") {
			c.lips.Release(lip)
		}
		return
	}
	if yes, ok := c.cfg.Buttons.Answer(i); ok && c.session.Mode == ModeAwaitAnswer {
		if c.guard("answer") {
			c.answer(yes)
		}
		return
	}
	c.logger.DebugPrintf("button %d ignored in %v", i, c.session.State)
}

// guard is the preliminary check before a driven input event is
// evaluated. A failing event is dropped.
func (c *Controller) guard(event string) bool {
	switch {
	case !c.session.Started:
		c.logger.WarnPrintf("%s dropped: not started yet, press start", event)
	case c.session.Speaking || c.speaker.IsSpeaking():
		c.logger.WarnPrintf("%s dropped: speaking, wait until the line is finished", event)
	case !c.session.Mode.AcceptsInput():
		c.logger.WarnPrintf("%s dropped: input is not allowed in %v", event, c.session.State)
	case c.session.State == StateNone:
		c.logger.WarnPrintf("%s dropped: state is empty", event)
	default:
		return true
	}
	return false
}

func (c *Controller) answer(yes bool) {
	step := c.script[c.session.State]
	br, label := step.No, "no"
	if yes {
		br, label = step.Yes, "yes"
	}
	c.cancelSilence()
	c.logger.InfoPrintf("%v answered %s", c.session.State, label)
	if br.Voice != "" {
		if v, ok := c.cfg.Voices.Lookup(br.Voice); ok {
			c.session.Voice = v
			c.logger.InfoPrintf("voice set to %s", v.Name)
		}
	}
	c.enter(br.To)
}

func (c *Controller) onGesture(g lips.Gesture, a lips.Attempt) {
	if c.session.Mode != ModeCollectGesture {
		c.logger.WarnPrintf("%v gesture dropped in %v", g, c.session.State)
		return
	}
	if !c.guard("gesture") {
		return
	}
	c.session.LastGesture = g
	c.logger.InfoPrintf("gesture detected: %v", g)
	c.enter(GestureState(g))
}

func (c *Controller) onSilence() {
	c.silence = nil
	if !c.session.Started || c.session.Mode != ModeAwaitAnswer {
		return
	}
	c.logger.InfoPrintf("no answer within %v, taking silence as no", c.cfg.SilenceTimeout)
	c.answer(false)
}

func (c *Controller) advance() {
	next := c.session.Pending
	if next == StateNone {
		c.logger.WarnPrintf("no pending state after %v", c.session.State)
		return
	}
	c.enter(next)
}

// enter leaves the current state and runs the entry action of s.
func (c *Controller) enter(s State) {
	c.cancelSilence()
	if c.session.Mode == ModeCollectGesture {
		c.lips.Reset()
	}

	c.logger.DebugPrintf("%v -> %v", c.session.State, s)
	c.session.State = s
	c.session.Pending = StateNone

	step, ok := c.script[s]
	if !ok {
		c.logger.WarnPrintf("state %q has no step defined", s)
		c.session.Mode = ModeDeadEnd
		c.notify()
		return
	}
	c.session.Mode = step.Mode
	if step.Mode == ModeAutoAdvance {
		c.session.Pending = step.Next
	}
	if !step.Light.IsZero() {
		c.leds.SetAll(step.Light.Color, step.Light.Effect)
	}

	switch step.Mode {
	case ModeTerminal:
		c.finish()
		return
	case ModeCollectGesture:
		c.lips.Reset()
	}

	if step.Line != "" {
		c.say(step.Line, step.Cue)
		c.notify()
		return
	}
	if step.Silence && step.Mode == ModeAwaitAnswer {
		c.armSilence()
	}
	c.notify()
	if step.Mode == ModeAutoAdvance {
		c.advance()
	}
}

func (c *Controller) say(text string, cue bool) {
	if c.session.Speaking || c.speaker.IsSpeaking() {
		c.logger.ErrorPrintf("line dropped, an utterance is still playing: %q", text)
		return
	}
	if !c.cfg.SpeakingLight.IsZero() {
		c.leds.SetAll(c.cfg.SpeakingLight.Color, c.cfg.SpeakingLight.Effect)
	}
	c.session.Speaking = true
	c.session.CueAfterSpeech = cue
	c.logger.InfoPrintf("say: %s", text)
	if err := c.speaker.Speak(text, c.session.Voice); err != nil {
		c.session.Speaking = false
		c.session.CueAfterSpeech = false
		c.logger.ErrorPrintf("speak: %v", err)
	}
}

func (c *Controller) finish() {
	c.leds.AllOff()
	c.lips.Reset()
	c.session.Started = false
	c.logger.InfoPrintf("session %s ended", c.session.ID)
	c.notify()
}

func (c *Controller) reset() {
	c.cancelSilence()
	c.lips.Reset()
	c.buttons.reset()
	if c.session.Speaking {
		if h, ok := c.speaker.(Husher); ok {
			h.Hush()
		}
	}
	c.leds.AllOff()
	c.session = c.idleSession()
}

func (c *Controller) idleSession() Session {
	return Session{Voice: c.cfg.Voices.Male}
}

func (c *Controller) armSilence() {
	c.cancelSilence()
	c.silence = c.sched.AfterFunc(c.cfg.SilenceTimeout, c.onSilence)
}

func (c *Controller) cancelSilence() {
	t := c.silence
	c.silence = nil
	sched.Cancel(t)
}

// SilencePending reports whether the silence timer is armed.
func (c *Controller) SilencePending() bool {
	return c.silence != nil
}

func (c *Controller) notify() {
	if c.observer != nil {
		c.observer(c.session)
	}
}

// String implements fmt.Stringer for diagnostics.
func (c *Controller) String() string {
	return fmt.Sprintf("dialog(%v/%v started=%t speaking=%t)",
		c.session.State, c.session.Mode, c.session.Started, c.session.Speaking)
}

// Config returns the controller configuration.
func (c *Controller) Config() Config {
	return c.cfg
}
