// Package statusevents carries provider call status callbacks to connected browsers.
package statusevents

import (
	"net/url"
	"strings"
	"time"
)

// Event is one call status callback. Nothing is retained after it is fanned out.
type Event struct {
	CallSID      string    `json:"callSid"`
	CallStatus   string    `json:"callStatus"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	Direction    string    `json:"direction,omitempty"`
	Duration     string    `json:"duration,omitempty"`
	ParentSID    string    `json:"parentCallSid,omitempty"`
	ReceivedAt   time.Time `json:"receivedAt"`
	SequenceNum  string    `json:"sequenceNumber,omitempty"`
	CallbackTime string    `json:"timestamp,omitempty"`
}

func EventFromForm(form url.Values, receivedAt time.Time) Event {
	return Event{
		CallSID:      form.Get("CallSid"),
		CallStatus:   form.Get("CallStatus"),
		From:         form.Get("From"),
		To:           form.Get("To"),
		Direction:    form.Get("Direction"),
		Duration:     form.Get("CallDuration"),
		ParentSID:    form.Get("ParentCallSid"),
		SequenceNum:  form.Get("SequenceNumber"),
		CallbackTime: form.Get("Timestamp"),
		ReceivedAt:   receivedAt,
	}
}

// StatusOther labels any status outside the provider's call lifecycle.
const StatusOther = "other"

var knownStatuses = map[string]struct{}{
	"queued":      {},
	"initiated":   {},
	"ringing":     {},
	"in-progress": {},
	"completed":   {},
	"busy":        {},
	"failed":      {},
	"no-answer":   {},
	"canceled":    {},
}

// StatusLabel bounds CallStatus to the provider's fixed set for use as a metric label.
func (e Event) StatusLabel() string {
	status := strings.ToLower(strings.TrimSpace(e.CallStatus))
	if _, ok := knownStatuses[status]; ok {
		return status
	}
	return StatusOther
}
