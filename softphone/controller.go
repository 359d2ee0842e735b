// Package softphone is the client-side call session controller. It drives a vendor
// voice Device and keeps one consistent view of device and call state for a UI.
package softphone

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-voice-server/conference"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/internal/utils"
	"github.com/jrsteele09/go-voice-server/telephony"
	"github.com/rs/zerolog/log"
)

const (
	defaultTickInterval = time.Second
	tokenRefreshTimeout = 10 * time.Second
	validDigits         = "0123456789*#wW"
)

var (
	ErrSuperseded   = errors.New("device initialisation superseded")
	ErrNoConference = errors.New("no active conference")
)

// Backend is the server API the controller depends on.
type Backend interface {
	Token(ctx context.Context, identity string) (string, error)
	Hold(ctx context.Context, callSID string, hold bool) error
	Forward(ctx context.Context, callSID, forwardTo string) error
	CreateConference(ctx context.Context, name string, participants []string) (*conference.Result, error)
	AddParticipant(ctx context.Context, name, participant string) (*conference.AddResult, error)
}

type Controller struct {
	backend   Backend
	newDevice DeviceFactory
	tick      time.Duration

	mu          sync.Mutex
	gen         int // bumped whenever the device is replaced; events from older devices are dropped
	callGen     int
	identity    string
	device      Device
	deviceState DeviceState
	state       State
	call        Call
	leg         *Leg
	conf        *conference.Result
	lastErr     string
	timerStop   chan struct{}
	observers   []func(Snapshot)
}

type Option func(*Controller)

// WithTickInterval sets how often the call duration advances. Tests shorten it.
func WithTickInterval(d time.Duration) Option {
	return func(c *Controller) {
		c.tick = d
	}
}

func New(backend Backend, newDevice DeviceFactory, opts ...Option) *Controller {
	c := &Controller{
		backend:     backend,
		newDevice:   newDevice,
		tick:        defaultTickInterval,
		deviceState: DeviceUninitialized,
		state:       StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers fn to receive a snapshot after every change. fn runs outside the
// controller lock and may call back into the controller.
func (c *Controller) Subscribe(fn func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Initialize fetches a token for identity and registers a new device. Any existing
// device is destroyed first.
func (c *Controller) Initialize(ctx context.Context, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		return apperrors.ErrInvalidIdentity
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	old, oldCall := c.device, c.call
	c.device = nil
	c.resetLocked()
	c.identity = identity
	c.deviceState = DeviceRegistering
	c.lastErr = ""
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	if oldCall != nil {
		_ = oldCall.Disconnect()
	}
	if old != nil {
		old.Destroy()
	}

	token, err := c.backend.Token(ctx, identity)
	if err != nil {
		return c.failDevice(gen, err)
	}
	dev, err := c.newDevice(token, &deviceListener{c: c, gen: gen})
	if err != nil {
		return c.failDevice(gen, err)
	}
	if err := dev.Register(ctx); err != nil {
		dev.Destroy()
		return c.failDevice(gen, err)
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		dev.Destroy()
		return ErrSuperseded
	}
	c.device = dev
	c.deviceState = DeviceRegistered
	notify = c.changedLocked()
	c.mu.Unlock()
	notify()

	log.Info().Str("identity", identity).Msg("softphone device registered")
	return nil
}

// Refresh re-creates the device for the current identity.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	identity := c.identity
	c.mu.Unlock()
	return c.Initialize(ctx, identity)
}

// Destroy hangs up any call and releases the device.
func (c *Controller) Destroy() {
	c.mu.Lock()
	c.gen++
	dev, call := c.device, c.call
	c.device = nil
	c.resetLocked()
	c.deviceState = DeviceDestroyed
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	if call != nil {
		_ = call.Disconnect()
	}
	if dev != nil {
		dev.Destroy()
	}
}

// PlaceCall starts an outgoing call to a phone number, or to another registered client
// when appToApp is set.
func (c *Controller) PlaceCall(ctx context.Context, target string, appToApp bool) error {
	target = strings.TrimSpace(target)
	if target == "" {
		return apperrors.NewValidationError("target", "a destination is required")
	}
	if !appToApp && !telephony.ValidPhoneNumber(target) {
		return apperrors.NewValidationError("target", apperrors.ErrInvalidPhoneNumber.Error())
	}

	c.mu.Lock()
	if c.device == nil || c.deviceState != DeviceRegistered {
		c.mu.Unlock()
		return apperrors.ErrDeviceNotReady
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return apperrors.ErrCallInProgress
	}
	dev := c.device
	c.callGen++
	callGen := c.callGen
	c.state = StateConnecting
	c.leg = &Leg{RemoteName: target, RemoteNumber: target, Direction: Outgoing}
	c.lastErr = ""
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	params := map[string]string{
		ParamTo:       target,
		ParamCustomTo: target,
		ParamAppToApp: "false",
	}
	if appToApp {
		params[ParamAppToApp] = "true"
	}
	call, err := dev.Connect(ctx, params)

	c.mu.Lock()
	if c.callGen != callGen || c.state != StateConnecting {
		// hung up while connecting
		c.mu.Unlock()
		if call != nil {
			_ = call.Disconnect()
		}
		return nil
	}
	if err != nil {
		c.resetLocked()
		c.lastErr = err.Error()
		notify = c.changedLocked()
		c.mu.Unlock()
		notify()
		return err
	}
	c.call = call
	c.mu.Unlock()

	call.Listen(&callListener{c: c, call: call})
	return nil
}

// Answer accepts the ringing incoming call.
func (c *Controller) Answer() error {
	c.mu.Lock()
	if c.state != StateRinging || c.call == nil {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	call := c.call
	c.mu.Unlock()

	err := call.Accept()

	c.mu.Lock()
	if c.call != call {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	if err != nil {
		c.lastErr = err.Error()
		notify := c.changedLocked()
		c.mu.Unlock()
		notify()
		return err
	}
	notify := c.connectedLocked()
	c.mu.Unlock()
	notify()
	return nil
}

// Reject declines the ringing incoming call.
func (c *Controller) Reject() error {
	c.mu.Lock()
	if c.state != StateRinging || c.call == nil {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	call := c.call
	c.resetLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	return call.Reject()
}

// HangUp ends whatever call is active. It is safe to call at any time.
func (c *Controller) HangUp() {
	c.mu.Lock()
	if c.state == StateIdle && c.call == nil {
		c.mu.Unlock()
		return
	}
	call := c.call
	c.resetLocked()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	if call != nil {
		if err := call.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("softphone disconnect failed")
		}
	}
}

func (c *Controller) ToggleMute() error {
	c.mu.Lock()
	if c.state != StateConnected || c.call == nil {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	call := c.call
	muted := !c.leg.Muted
	c.mu.Unlock()

	if err := call.Mute(muted); err != nil {
		return err
	}

	c.mu.Lock()
	if c.call != call {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	c.leg.Muted = muted
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return nil
}

// ToggleHold asks the server to hold or resume the active call.
func (c *Controller) ToggleHold(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateConnected || c.leg == nil || c.leg.CallSID == "" {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	sid := c.leg.CallSID
	hold := !c.leg.OnHold
	c.mu.Unlock()

	err := c.backend.Hold(ctx, sid, hold)

	c.mu.Lock()
	if err != nil {
		c.lastErr = err.Error()
	} else if c.leg != nil && c.leg.CallSID == sid {
		c.leg.OnHold = hold
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return err
}

// SendDigit sends DTMF on the connected call. It does nothing when no call is connected.
func (c *Controller) SendDigit(digits string) error {
	if digits == "" || strings.Trim(digits, validDigits) != "" {
		return apperrors.NewValidationError("digit", "digits must be 0-9, * or #")
	}

	c.mu.Lock()
	if c.state != StateConnected || c.call == nil {
		c.mu.Unlock()
		return nil
	}
	call := c.call
	c.mu.Unlock()

	return call.SendDigits(digits)
}

// Forward redirects the active call to another number.
func (c *Controller) Forward(ctx context.Context, forwardTo string) error {
	forwardTo = strings.TrimSpace(forwardTo)
	if !telephony.ValidPhoneNumber(forwardTo) {
		return apperrors.NewValidationError("forwardTo", apperrors.ErrInvalidPhoneNumber.Error())
	}

	c.mu.Lock()
	if c.state != StateConnected || c.leg == nil || c.leg.CallSID == "" {
		c.mu.Unlock()
		return apperrors.ErrNoActiveCall
	}
	sid := c.leg.CallSID
	c.mu.Unlock()

	if err := c.backend.Forward(ctx, sid, forwardTo); err != nil {
		c.setError(err)
		return err
	}
	return nil
}

// StartConference asks the server to dial participants into a new conference.
func (c *Controller) StartConference(ctx context.Context, participants []string) (*conference.Result, error) {
	if len(participants) == 0 {
		return nil, apperrors.NewValidationError("participants", apperrors.ErrNoParticipants.Error())
	}
	result, err := c.backend.CreateConference(ctx, conference.GenerateName(), participants)
	if err != nil {
		c.setError(err)
		return nil, err
	}

	c.mu.Lock()
	c.conf = result
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return cloneConference(result), nil
}

// AddToConference dials one more participant into the current conference.
func (c *Controller) AddToConference(ctx context.Context, participant string) error {
	c.mu.Lock()
	if c.conf == nil {
		c.mu.Unlock()
		return ErrNoConference
	}
	name := c.conf.ConferenceName
	c.mu.Unlock()

	res, err := c.backend.AddParticipant(ctx, name, participant)
	if err != nil {
		c.setError(err)
		return err
	}

	c.mu.Lock()
	if c.conf != nil && c.conf.ConferenceName == name {
		c.conf.Calls = append(c.conf.Calls, conference.CallOutcome{Participant: res.Participant, CallSID: utils.Ptr(res.CallSID), Status: res.Status})
		c.conf.Participants = append(c.conf.Participants, conference.Participant{CallSID: utils.Ptr(res.CallSID), Identity: res.Participant, Status: res.Status})
		c.conf.TotalParticipants++
		c.conf.SuccessfulCalls++
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return nil
}

// EndConference forgets the local conference view. Participant legs end on their own.
func (c *Controller) EndConference() {
	c.mu.Lock()
	c.conf = nil
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

func (c *Controller) setError(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

// setDeviceError records err only while gen is still the live device.
func (c *Controller) setDeviceError(gen int, err error) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return false
	}
	c.lastErr = err.Error()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
	return true
}

func (c *Controller) failDevice(gen int, err error) error {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return ErrSuperseded
	}
	c.deviceState = DeviceError
	c.lastErr = err.Error()
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	log.Err(err).Msg("softphone device initialisation failed")
	return err
}

// connectedLocked moves to connected and starts the duration timer. Repeated calls are no-ops.
func (c *Controller) connectedLocked() func() {
	if c.state == StateConnected {
		return func() {}
	}
	c.state = StateConnected
	if sid := c.call.Parameters()[ParamCallSID]; sid != "" && c.leg != nil {
		c.leg.CallSID = sid
	}
	c.startTimerLocked()
	return c.changedLocked()
}

func (c *Controller) resetLocked() {
	c.stopTimerLocked()
	c.call = nil
	c.leg = nil
	c.state = StateIdle
}

func (c *Controller) startTimerLocked() {
	if c.timerStop != nil {
		return
	}
	stop := make(chan struct{})
	c.timerStop = stop
	go c.runTimer(stop)
}

func (c *Controller) stopTimerLocked() {
	if c.timerStop != nil {
		close(c.timerStop)
		c.timerStop = nil
	}
}

func (c *Controller) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.timerStop != stop {
				c.mu.Unlock()
				return
			}
			if c.leg != nil {
				c.leg.DurationSeconds++
			}
			notify := c.changedLocked()
			c.mu.Unlock()
			notify()
		}
	}
}

// changedLocked captures a snapshot under the lock. The returned func delivers it and
// must be called after unlocking.
func (c *Controller) changedLocked() func() {
	if len(c.observers) == 0 {
		return func() {}
	}
	snap := c.snapshotLocked()
	observers := slices.Clone(c.observers)
	return func() {
		for _, fn := range observers {
			fn(snap)
		}
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	s := Snapshot{
		State:        c.state,
		Device:       c.deviceState,
		Identity:     c.identity,
		Conference:   cloneConference(c.conf),
		Error:        c.lastErr,
		TimerRunning: c.timerStop != nil,
	}
	if c.leg != nil {
		leg := *c.leg
		s.Leg = &leg
	}
	return s
}

func cloneConference(r *conference.Result) *conference.Result {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Calls = append([]conference.CallOutcome(nil), r.Calls...)
	cp.Participants = append([]conference.Participant(nil), r.Participants...)
	return &cp
}
