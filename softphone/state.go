package softphone

import (
	"strings"

	"github.com/jrsteele09/go-voice-server/conference"
)

type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateRinging    State = "ringing"
	StateConnected  State = "connected"
)

type DeviceState string

const (
	DeviceUninitialized DeviceState = "uninitialized"
	DeviceRegistering   DeviceState = "registering"
	DeviceRegistered    DeviceState = "registered"
	DeviceUnregistered  DeviceState = "unregistered"
	DeviceError         DeviceState = "error"
	DeviceDestroyed     DeviceState = "destroyed"
)

type Direction string

const (
	Outgoing Direction = "outgoing"
	Incoming Direction = "incoming"
)

// Leg describes the active call.
type Leg struct {
	CallSID         string    `json:"callSid"`
	RemoteName      string    `json:"remoteName"`
	RemoteNumber    string    `json:"remoteNumber"`
	Direction       Direction `json:"direction"`
	Muted           bool      `json:"muted"`
	OnHold          bool      `json:"onHold"`
	DurationSeconds int       `json:"duration"`
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State        State              `json:"status"`
	Device       DeviceState        `json:"device"`
	Identity     string             `json:"identity"`
	Leg          *Leg               `json:"leg,omitempty"`
	Conference   *conference.Result `json:"conference,omitempty"`
	Error        string             `json:"error,omitempty"`
	TimerRunning bool               `json:"-"`
}

func (s Snapshot) Connected() bool {
	return s.State == StateConnected
}

func displayName(from string) string {
	return strings.TrimPrefix(from, "client:")
}
