package softphone

import "context"

// Device is the vendor voice SDK's registration and signalling endpoint.
type Device interface {
	Register(ctx context.Context) error
	Connect(ctx context.Context, params map[string]string) (Call, error)
	UpdateToken(token string) error
	Destroy()
}

// DeviceListener receives device events. Events may arrive on any goroutine.
type DeviceListener interface {
	OnRegistered()
	OnUnregistered()
	OnError(err error)
	OnIncoming(call Call)
	OnTokenWillExpire()
}

// DeviceFactory creates a device authenticated with token that reports to listener.
type DeviceFactory func(token string, listener DeviceListener) (Device, error)

// Call is one leg owned by the device.
type Call interface {
	// Parameters holds provider fields such as CallSid and From.
	Parameters() map[string]string
	Accept() error
	Reject() error
	Disconnect() error
	Mute(muted bool) error
	SendDigits(digits string) error
	Listen(listener CallListener)
}

type CallListener interface {
	OnAccept()
	OnDisconnect()
	OnCancel()
	OnReject()
	OnError(err error)
}

// Connect parameter names read by the call-routing webhook.
const (
	ParamTo       = "To"
	ParamCustomTo = "customTo"
	ParamAppToApp = "isAppToApp"
	ParamCallSID  = "CallSid"
	ParamFrom     = "From"
)
