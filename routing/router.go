// Package routing decides where a call placed by a registered client should go.
package routing

import (
	"net/url"
	"strings"

	"github.com/jrsteele09/go-voice-server/internal/config"
	"github.com/jrsteele09/go-voice-server/twiml"
)

const (
	DialTimeout = 30

	clientPrefix = "client:"

	NoRecipientMessage = "Sorry, there is no recipient for this call. Unable to determine call destination. Please try again."
	ErrorMessage       = "An error occurred. Please try again later."
	UnavailableMessage = "Sorry, we are unable to connect your call at this time."
)

// Leg names the routing outcome.
type Leg string

const (
	LegClient Leg = "client"
	LegNumber Leg = "number"
	LegNone   Leg = "none"
	LegError  Leg = "error"
)

// Params are the provider's webhook form fields this router reads.
type Params struct {
	CallSID   string
	From      string
	To        string
	Called    string
	CustomTo  string
	AppToApp  bool
	Direction string
}

func ParamsFromForm(form url.Values) Params {
	return Params{
		CallSID:   form.Get("CallSid"),
		From:      form.Get("From"),
		To:        form.Get("To"),
		Called:    form.Get("Called"),
		CustomTo:  form.Get("customTo"),
		AppToApp:  strings.EqualFold(form.Get("isAppToApp"), "true"),
		Direction: form.Get("Direction"),
	}
}

// Destination is the first non-empty of customTo, To and Called.
func (p Params) Destination() string {
	for _, v := range []string{p.CustomTo, p.To, p.Called} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

type Router struct {
	config config.TelephonyConfig
}

func New(cfg config.TelephonyConfig) *Router {
	return &Router{config: cfg}
}

// Route answers the call-routing webhook. It always returns a document; failures are
// spoken to the caller rather than surfaced as HTTP errors.
func (r *Router) Route(p Params) (*twiml.Response, Leg) {
	target := p.Destination()
	if target == "" {
		return twiml.NewResponse().Say(NoRecipientMessage), LegNone
	}

	if p.AppToApp || strings.HasPrefix(target, clientPrefix) {
		dial := twiml.NewDial(p.From).
			WithTimeout(DialTimeout).
			WithRecord(twiml.RecordNone).
			Client(strings.TrimPrefix(target, clientPrefix))
		return twiml.NewResponse().Dial(dial), LegClient
	}

	callerID := r.config.GetPhoneNumber()
	if callerID == "" {
		return twiml.NewResponse().Say(ErrorMessage), LegError
	}
	dial := twiml.NewDial(callerID).
		WithTimeout(DialTimeout).
		WithRecord(twiml.RecordNone).
		Number(target)
	return twiml.NewResponse().Dial(dial), LegNumber
}

// RouteIncoming rings a registered client for a call arriving on the provider number.
// identity overrides the configured default client.
func (r *Router) RouteIncoming(p Params, identity string) (*twiml.Response, Leg) {
	if identity = strings.TrimSpace(identity); identity == "" {
		identity = r.config.GetDefaultClientIdentity()
	}
	if identity == "" {
		return twiml.NewResponse().Say(UnavailableMessage), LegNone
	}
	dial := twiml.NewDial(p.From).
		WithTimeout(DialTimeout).
		WithRecord(twiml.RecordNone).
		Client(identity)
	return twiml.NewResponse().Dial(dial), LegClient
}
