// Package callcontrol changes what a live call is doing by redirecting it to new
// call-control instructions.
package callcontrol

import (
	"context"
	"strings"

	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/routing"
	"github.com/jrsteele09/go-voice-server/telephony"
	"github.com/jrsteele09/go-voice-server/twiml"
)

const ResumeMessage = "Call resumed"

type Controller struct {
	api    telephony.API
	config config.TelephonyConfig
}

func New(api telephony.API, cfg config.TelephonyConfig) *Controller {
	return &Controller{api: api, config: cfg}
}

// Hold plays hold music to the far leg until resumed. Resuming speaks a short notice
// and the leg continues.
func (c *Controller) Hold(ctx context.Context, callSID string, hold bool) error {
	if callSID = strings.TrimSpace(callSID); callSID == "" {
		return apperrors.NewValidationError("callSid", "Call SID is required")
	}

	doc := twiml.NewResponse()
	if hold {
		doc.Play(c.config.GetHoldMusicURL(), 0)
	} else {
		doc.Say(ResumeMessage)
	}

	_, err := c.api.UpdateCall(ctx, callSID, telephony.UpdateCallParams{Twiml: doc.String()})
	return err
}

// Forward redirects the call to dial forwardTo from the origination number.
func (c *Controller) Forward(ctx context.Context, callSID, forwardTo string) error {
	callSID = strings.TrimSpace(callSID)
	forwardTo = strings.TrimSpace(forwardTo)
	if callSID == "" {
		return apperrors.NewValidationError("callSid", "Call SID is required")
	}
	if forwardTo == "" {
		return apperrors.NewValidationError("forwardTo", "Forward number is required")
	}
	if !telephony.ValidPhoneNumber(forwardTo) {
		return apperrors.NewValidationError("forwardTo", apperrors.ErrInvalidPhoneNumber.Error())
	}

	callerID := c.config.GetPhoneNumber()
	if callerID == "" {
		return &apperrors.ConfigError{Missing: []string{config.PhoneNumberVar}}
	}

	doc := twiml.NewResponse().Dial(
		twiml.NewDial(callerID).WithTimeout(routing.DialTimeout).Number(forwardTo),
	)
	_, err := c.api.UpdateCall(ctx, callSID, telephony.UpdateCallParams{Twiml: doc.String()})
	return err
}
