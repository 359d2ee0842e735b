// Package conference dials participants into a named multi-party conference.
package conference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/internal/utils"
	"github.com/jrsteele09/go-voice-server/telephony"
	"github.com/jrsteele09/go-voice-server/twiml"
	"github.com/rs/zerolog/log"
)

const (
	MaxParticipants = 10
	StatusFailed    = "failed"

	invalidNumberMessage  = "Invalid phone number format"
	conferenceFullMessage = "Conference is full"
	statusCallbackPath    = "/api/voice/status"
)

// CallOutcome is the result of dialling one participant.
type CallOutcome struct {
	Participant string  `json:"participant"`
	CallSID     *string `json:"callSid"`
	Status      string  `json:"status"`
	Error       string  `json:"error,omitempty"`
}

func (c CallOutcome) Succeeded() bool {
	return c.CallSID != nil
}

// Participant is the per-participant view returned to the UI.
type Participant struct {
	CallSID  *string `json:"callSid"`
	Identity string  `json:"identity"`
	Muted    bool    `json:"muted"`
	Status   string  `json:"status"`
}

type Result struct {
	ConferenceName    string        `json:"conferenceName"`
	Calls             []CallOutcome `json:"calls"`
	Participants      []Participant `json:"participants"`
	TotalParticipants int           `json:"totalParticipants"`
	SuccessfulCalls   int           `json:"successfulCalls"`
	FailedCalls       int           `json:"failedCalls"`
}

type AddResult struct {
	Success     bool   `json:"success"`
	CallSID     string `json:"callSid"`
	Participant string `json:"participant"`
	Status      string `json:"status"`
}

// NowTimeFunc is overridable in tests.
var NowTimeFunc = time.Now

// Orchestrator places one outbound call per participant, each joining the same conference.
type Orchestrator struct {
	api    telephony.API
	config config.TelephonyConfig
}

func New(api telephony.API, cfg config.TelephonyConfig) *Orchestrator {
	return &Orchestrator{api: api, config: cfg}
}

// GenerateName returns a time based conference name.
func GenerateName() string {
	return fmt.Sprintf("conf_%d", NowTimeFunc().UnixMilli())
}

// CreateConference dials participants strictly one after another. A failure for one
// participant is recorded in the result and never aborts the rest.
func (o *Orchestrator) CreateConference(ctx context.Context, name string, participants []string) (*Result, error) {
	if len(participants) == 0 {
		return nil, apperrors.NewValidationError("participants", apperrors.ErrNoParticipants.Error())
	}
	from, err := o.callerID()
	if err != nil {
		return nil, err
	}
	if name = strings.TrimSpace(name); name == "" {
		name = GenerateName()
	}

	doc := o.conferenceTwiml(name, true)
	result := &Result{
		ConferenceName:    name,
		Calls:             make([]CallOutcome, 0, len(participants)),
		Participants:      make([]Participant, 0, len(participants)),
		TotalParticipants: len(participants),
	}

	for i, p := range participants {
		p = strings.TrimSpace(p)
		var outcome CallOutcome
		if i >= MaxParticipants {
			outcome = failed(p, conferenceFullMessage)
		} else {
			outcome = o.dial(ctx, from, p, doc)
		}

		result.Calls = append(result.Calls, outcome)
		result.Participants = append(result.Participants, Participant{
			CallSID:  outcome.CallSID,
			Identity: p,
			Status:   outcome.Status,
		})
		if outcome.Succeeded() {
			result.SuccessfulCalls++
		} else {
			result.FailedCalls++
		}
	}

	log.Info().
		Str("conference", name).
		Int("total", result.TotalParticipants).
		Int("successful", result.SuccessfulCalls).
		Int("failed", result.FailedCalls).
		Msg("conference dial-out complete")
	return result, nil
}

// AddParticipant dials one more participant into an existing conference. The new leg
// does not start the conference on entry.
func (o *Orchestrator) AddParticipant(ctx context.Context, name, participant string) (*AddResult, error) {
	name = strings.TrimSpace(name)
	participant = strings.TrimSpace(participant)
	if name == "" {
		return nil, apperrors.NewValidationError("conferenceName", "conference name is required")
	}
	if participant == "" {
		return nil, apperrors.NewValidationError("participant", "participant is required")
	}
	if !telephony.ValidPhoneNumber(participant) {
		return nil, apperrors.NewValidationError("participant", invalidNumberMessage)
	}
	from, err := o.callerID()
	if err != nil {
		return nil, err
	}

	call, err := o.api.CreateCall(ctx, o.createParams(from, participant, o.conferenceTwiml(name, false)))
	if err != nil {
		return nil, err
	}
	return &AddResult{
		Success:     true,
		CallSID:     call.SID,
		Participant: participant,
		Status:      call.Status,
	}, nil
}

func (o *Orchestrator) dial(ctx context.Context, from, participant, doc string) CallOutcome {
	if !telephony.ValidPhoneNumber(participant) {
		return failed(participant, invalidNumberMessage)
	}

	call, err := o.api.CreateCall(ctx, o.createParams(from, participant, doc))
	if err != nil {
		log.Warn().Err(err).Str("participant", participant).Msg("conference dial failed")
		return failed(participant, telephony.UserMessage(err))
	}
	return CallOutcome{Participant: participant, CallSID: utils.Ptr(call.SID), Status: call.Status}
}

func (o *Orchestrator) createParams(from, to, doc string) telephony.CreateCallParams {
	return telephony.CreateCallParams{
		To:                   to,
		From:                 from,
		Twiml:                doc,
		StatusCallback:       o.config.GetBaseURL() + statusCallbackPath,
		StatusCallbackEvents: telephony.DefaultStatusEvents,
	}
}

func (o *Orchestrator) conferenceTwiml(name string, startOnEnter bool) string {
	return twiml.NewResponse().Dial(twiml.NewDial("").Conference(twiml.Conference{
		StartConferenceOnEnter: startOnEnter,
		EndConferenceOnExit:    false,
		WaitURL:                o.config.GetConferenceWaitURL(),
		MaxParticipants:        MaxParticipants,
		Record:                 twiml.RecordNone,
		Name:                   name,
	})).String()
}

func (o *Orchestrator) callerID() (string, error) {
	from := o.config.GetPhoneNumber()
	if from == "" {
		return "", &apperrors.ConfigError{Missing: []string{config.PhoneNumberVar}}
	}
	return from, nil
}

func failed(participant, message string) CallOutcome {
	return CallOutcome{Participant: participant, Status: StatusFailed, Error: message}
}
