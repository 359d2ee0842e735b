// Package fakedevice is an in-memory softphone.Device for tests.
package fakedevice

import (
	"context"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-voice-server/softphone"
)

// Factory builds fake devices and remembers each one.
type Factory struct {
	mu          sync.Mutex
	devices     []*Device
	Tokens      []string
	NewErr      error
	RegisterErr error
	ConnectErr  error
}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) New(token string, listener softphone.DeviceListener) (softphone.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Tokens = append(f.Tokens, token)
	if f.NewErr != nil {
		return nil, f.NewErr
	}
	d := &Device{factory: f, token: token, listener: listener}
	f.devices = append(f.devices, d)
	return d, nil
}

// Last returns the most recently built device.
func (f *Factory) Last() *Device {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.devices) == 0 {
		return nil
	}
	return f.devices[len(f.devices)-1]
}

func (f *Factory) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.devices)
}

type Device struct {
	factory  *Factory
	listener softphone.DeviceListener

	mu        sync.Mutex
	token     string
	destroyed bool
	calls     []*Call
	outgoing  int
}

func (d *Device) Register(ctx context.Context) error {
	if err := d.factory.registerErr(); err != nil {
		return err
	}
	d.listener.OnRegistered()
	return nil
}

func (d *Device) Connect(ctx context.Context, params map[string]string) (softphone.Call, error) {
	if err := d.factory.connectErr(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	d.outgoing++
	p := map[string]string{softphone.ParamCallSID: fmt.Sprintf("CA-out-%d", d.outgoing)}
	for k, v := range params {
		p[k] = v
	}
	call := &Call{params: p}
	d.calls = append(d.calls, call)
	d.mu.Unlock()
	return call, nil
}

func (d *Device) UpdateToken(token string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.token = token
	return nil
}

func (d *Device) Destroy() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyed = true
}

func (d *Device) Token() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.token
}

func (d *Device) Destroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// LastCall returns the most recent outgoing or incoming call.
func (d *Device) LastCall() *Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.calls) == 0 {
		return nil
	}
	return d.calls[len(d.calls)-1]
}

// Ring delivers an incoming call from the given caller.
func (d *Device) Ring(from, callSID string) *Call {
	call := &Call{params: map[string]string{
		softphone.ParamFrom:    from,
		softphone.ParamCallSID: callSID,
	}}
	d.mu.Lock()
	d.calls = append(d.calls, call)
	d.mu.Unlock()
	d.listener.OnIncoming(call)
	return call
}

func (d *Device) FireError(err error)  { d.listener.OnError(err) }
func (d *Device) FireUnregistered()    { d.listener.OnUnregistered() }
func (d *Device) FireTokenWillExpire() { d.listener.OnTokenWillExpire() }

func (f *Factory) registerErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RegisterErr
}

func (f *Factory) connectErr() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ConnectErr
}

type Call struct {
	params map[string]string

	mu           sync.Mutex
	listener     softphone.CallListener
	accepted     bool
	rejected     bool
	disconnected bool
	muted        bool
	digits       string
}

func (c *Call) Parameters() map[string]string {
	return c.params
}

func (c *Call) Accept() error {
	c.mu.Lock()
	c.accepted = true
	l := c.listener
	c.mu.Unlock()
	if l != nil {
		l.OnAccept()
	}
	return nil
}

func (c *Call) Reject() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rejected = true
	return nil
}

func (c *Call) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return nil
}

func (c *Call) Mute(muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = muted
	return nil
}

func (c *Call) SendDigits(digits string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.digits += digits
	return nil
}

func (c *Call) Listen(listener softphone.CallListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = listener
}

// RemoteAnswer simulates the far end picking up an outgoing call.
func (c *Call) RemoteAnswer() { c.fire(func(l softphone.CallListener) { l.OnAccept() }) }
func (c *Call) RemoteHangup() { c.fire(func(l softphone.CallListener) { l.OnDisconnect() }) }
func (c *Call) Cancel()       { c.fire(func(l softphone.CallListener) { l.OnCancel() }) }
func (c *Call) Fail(err error) {
	c.fire(func(l softphone.CallListener) { l.OnError(err) })
}

func (c *Call) fire(fn func(softphone.CallListener)) {
	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()
	if l != nil {
		fn(l)
	}
}

func (c *Call) Accepted() bool     { c.mu.Lock(); defer c.mu.Unlock(); return c.accepted }
func (c *Call) Rejected() bool     { c.mu.Lock(); defer c.mu.Unlock(); return c.rejected }
func (c *Call) Disconnected() bool { c.mu.Lock(); defer c.mu.Unlock(); return c.disconnected }
func (c *Call) Muted() bool        { c.mu.Lock(); defer c.mu.Unlock(); return c.muted }
func (c *Call) Digits() string     { c.mu.Lock(); defer c.mu.Unlock(); return c.digits }
