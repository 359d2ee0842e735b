package softphone

import (
	"context"

	"github.com/rs/zerolog/log"
)

type deviceListener struct {
	c   *Controller
	gen int
}

func (l *deviceListener) current() bool {
	return l.c.gen == l.gen
}

func (l *deviceListener) stillCurrent() bool {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	return l.current()
}

func (l *deviceListener) OnRegistered() {
	c := l.c
	c.mu.Lock()
	if !l.current() {
		c.mu.Unlock()
		return
	}
	c.deviceState = DeviceRegistered
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

func (l *deviceListener) OnUnregistered() {
	c := l.c
	c.mu.Lock()
	if !l.current() {
		c.mu.Unlock()
		return
	}
	c.deviceState = DeviceUnregistered
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}

// OnError records the error. Only a device still registering moves to the error state.
func (l *deviceListener) OnError(err error) {
	c := l.c
	c.mu.Lock()
	if !l.current() {
		c.mu.Unlock()
		return
	}
	c.lastErr = err.Error()
	if c.deviceState == DeviceRegistering {
		c.deviceState = DeviceError
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	log.Warn().Err(err).Msg("softphone device error")
}

// OnIncoming rings the new call, or rejects it when any leg is already active.
func (l *deviceListener) OnIncoming(call Call) {
	c := l.c
	c.mu.Lock()
	if !l.current() || c.state != StateIdle {
		c.mu.Unlock()
		log.Info().Str("from", call.Parameters()[ParamFrom]).Msg("softphone busy, rejecting incoming call")
		_ = call.Reject()
		return
	}
	params := call.Parameters()
	c.callGen++
	c.call = call
	c.state = StateRinging
	c.leg = &Leg{
		CallSID:      params[ParamCallSID],
		RemoteName:   displayName(params[ParamFrom]),
		RemoteNumber: params[ParamFrom],
		Direction:    Incoming,
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()

	call.Listen(&callListener{c: c, call: call})
}

func (l *deviceListener) OnTokenWillExpire() {
	c := l.c
	c.mu.Lock()
	if !l.current() || c.device == nil {
		c.mu.Unlock()
		return
	}
	dev, identity, gen := c.device, c.identity, l.gen
	c.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), tokenRefreshTimeout)
		defer cancel()

		token, err := c.backend.Token(ctx, identity)
		if err == nil && l.stillCurrent() {
			err = dev.UpdateToken(token)
		}
		if err != nil && c.setDeviceError(gen, err) {
			log.Err(err).Msg("softphone token refresh failed")
		}
	}()
}

type callListener struct {
	c    *Controller
	call Call
}

func (l *callListener) OnAccept() {
	c := l.c
	c.mu.Lock()
	if c.call != l.call {
		c.mu.Unlock()
		return
	}
	notify := c.connectedLocked()
	c.mu.Unlock()
	notify()
}

func (l *callListener) OnDisconnect() { l.end(nil) }
func (l *callListener) OnCancel()     { l.end(nil) }
func (l *callListener) OnReject()     { l.end(nil) }
func (l *callListener) OnError(err error) {
	l.end(err)
}

// end returns to idle if the call is still the active one. Events for older calls are ignored.
func (l *callListener) end(err error) {
	c := l.c
	c.mu.Lock()
	if c.call != l.call {
		c.mu.Unlock()
		return
	}
	c.resetLocked()
	if err != nil {
		c.lastErr = err.Error()
	}
	notify := c.changedLocked()
	c.mu.Unlock()
	notify()
}
