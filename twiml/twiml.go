// Package twiml builds the XML call-control documents returned to the voice provider.
package twiml

import (
	"fmt"
	"strconv"

	voice "github.com/twilio/twilio-go/twiml"
)

const (
	ContentType = "text/xml"

	RecordNone = "do-not-record"
)

// Response is the document root. Verbs are executed by the provider in order.
type Response struct {
	verbs []voice.Element
}

func NewResponse() *Response {
	return &Response{}
}

func (r *Response) Say(text string) *Response {
	r.verbs = append(r.verbs, &voice.VoiceSay{Message: text})
	return r
}

// Play loops the audio at url. A loop of 0 repeats until the call is updated.
func (r *Response) Play(url string, loop int) *Response {
	r.verbs = append(r.verbs, &voice.VoicePlay{Url: url, Loop: strconv.Itoa(loop)})
	return r
}

func (r *Response) Dial(d *Dial) *Response {
	r.verbs = append(r.verbs, d.element())
	return r
}

func (r *Response) Hangup() *Response {
	r.verbs = append(r.verbs, &voice.VoiceHangup{})
	return r
}

func (r *Response) Marshal() ([]byte, error) {
	doc, err := voice.Voice(r.verbs)
	if err != nil {
		return nil, fmt.Errorf("[twiml Marshal] %w", err)
	}
	return []byte(doc), nil
}

// String renders the document, or "" if it cannot be rendered.
func (r *Response) String() string {
	b, err := r.Marshal()
	if err != nil {
		return ""
	}
	return string(b)
}

type Dial struct {
	callerID string
	timeout  int
	record   string
	nouns    []voice.Element
}

func NewDial(callerID string) *Dial {
	return &Dial{callerID: callerID}
}

func (d *Dial) WithTimeout(seconds int) *Dial {
	d.timeout = seconds
	return d
}

func (d *Dial) WithRecord(record string) *Dial {
	d.record = record
	return d
}

func (d *Dial) Number(number string) *Dial {
	d.nouns = append(d.nouns, &voice.VoiceNumber{PhoneNumber: number})
	return d
}

func (d *Dial) Client(identity string) *Dial {
	d.nouns = append(d.nouns, &voice.VoiceClient{Identity: identity})
	return d
}

func (d *Dial) Conference(c Conference) *Dial {
	d.nouns = append(d.nouns, c.element())
	return d
}

func (d *Dial) element() *voice.VoiceDial {
	dial := &voice.VoiceDial{
		CallerId:      d.callerID,
		Record:        d.record,
		InnerElements: d.nouns,
	}
	if d.timeout > 0 {
		dial.Timeout = strconv.Itoa(d.timeout)
	}
	return dial
}

// Conference joins the call to the named room.
type Conference struct {
	StartConferenceOnEnter bool
	EndConferenceOnExit    bool
	WaitURL                string
	MaxParticipants        int
	Record                 string
	Name                   string
}

func (c Conference) element() *voice.VoiceConference {
	conf := &voice.VoiceConference{
		Name:                   c.Name,
		StartConferenceOnEnter: strconv.FormatBool(c.StartConferenceOnEnter),
		EndConferenceOnExit:    strconv.FormatBool(c.EndConferenceOnExit),
		WaitUrl:                c.WaitURL,
		Record:                 c.Record,
	}
	if c.MaxParticipants > 0 {
		conf.MaxParticipants = strconv.Itoa(c.MaxParticipants)
	}
	return conf
}
