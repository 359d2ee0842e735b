package twiml_test

import (
	"encoding/xml"
	"strings"
	"testing"

	"github.com/jrsteele09/go-voice-server/twiml"
	"github.com/stretchr/testify/require"
)

type attrs []xml.Attr

func (a attrs) get(name string) string {
	for _, at := range a {
		if at.Name.Local == name {
			return at.Value
		}
	}
	return ""
}

type noun struct {
	XMLName xml.Name
	Attrs   attrs  `xml:",any,attr"`
	Text    string `xml:",chardata"`
}

type verb struct {
	XMLName xml.Name
	Attrs   attrs  `xml:",any,attr"`
	Text    string `xml:",chardata"`
	Nouns   []noun `xml:",any"`
}

type document struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []verb   `xml:",any"`
}

func parse(t *testing.T, doc string) document {
	t.Helper()
	require.True(t, strings.HasPrefix(doc, "<?xml"), doc)
	var d document
	require.NoError(t, xml.Unmarshal([]byte(doc), &d))
	return d
}

func TestSay(t *testing.T) {
	raw := twiml.NewResponse().Say("Hello <there> & welcome").String()
	require.NotContains(t, raw, "<there>")

	d := parse(t, raw)
	require.Len(t, d.Verbs, 1)
	require.Equal(t, "Say", d.Verbs[0].XMLName.Local)
	require.Equal(t, "Hello <there> & welcome", d.Verbs[0].Text)
}

func TestDialNumber(t *testing.T) {
	d := parse(t, twiml.NewResponse().Dial(
		twiml.NewDial("+15550001111").WithTimeout(30).WithRecord(twiml.RecordNone).Number("+15552223333"),
	).String())

	dial := d.Verbs[0]
	require.Equal(t, "Dial", dial.XMLName.Local)
	require.Equal(t, "+15550001111", dial.Attrs.get("callerId"))
	require.Equal(t, "30", dial.Attrs.get("timeout"))
	require.Equal(t, "do-not-record", dial.Attrs.get("record"))
	require.Len(t, dial.Nouns, 1)
	require.Equal(t, "Number", dial.Nouns[0].XMLName.Local)
	require.Equal(t, "+15552223333", dial.Nouns[0].Text)
}

func TestDialClient(t *testing.T) {
	d := parse(t, twiml.NewResponse().Dial(twiml.NewDial("alice").Client("bob")).String())

	dial := d.Verbs[0]
	require.Equal(t, "alice", dial.Attrs.get("callerId"))
	require.Empty(t, dial.Attrs.get("timeout"))
	require.Equal(t, "Client", dial.Nouns[0].XMLName.Local)
	require.Equal(t, "bob", strings.TrimSpace(dial.Nouns[0].Text))
}

func TestConference(t *testing.T) {
	raw := twiml.NewResponse().Dial(twiml.NewDial("").Conference(twiml.Conference{
		StartConferenceOnEnter: true,
		EndConferenceOnExit:    false,
		WaitURL:                "http://example.com/wait?a=1&b=2",
		MaxParticipants:        10,
		Record:                 twiml.RecordNone,
		Name:                   "conf_1",
	})).String()
	require.Contains(t, raw, `startConferenceOnEnter="true"`)
	require.Contains(t, raw, `endConferenceOnExit="false"`)

	dial := parse(t, raw).Verbs[0]
	require.Empty(t, dial.Attrs.get("callerId"))
	conf := dial.Nouns[0]
	require.Equal(t, "Conference", conf.XMLName.Local)
	require.Equal(t, "conf_1", conf.Text)
	require.Equal(t, "http://example.com/wait?a=1&b=2", conf.Attrs.get("waitUrl"))
	require.Equal(t, "10", conf.Attrs.get("maxParticipants"))
	require.Equal(t, "do-not-record", conf.Attrs.get("record"))
}

func TestPlayLoop(t *testing.T) {
	play := parse(t, twiml.NewResponse().Play("http://example.com/music.wav", 0).String()).Verbs[0]
	require.Equal(t, "Play", play.XMLName.Local)
	require.Equal(t, "0", play.Attrs.get("loop"))
	require.Equal(t, "http://example.com/music.wav", play.Text)
}

func TestVerbOrder(t *testing.T) {
	d := parse(t, twiml.NewResponse().Say("one").Say("two").Hangup().String())
	require.Len(t, d.Verbs, 3)
	require.Equal(t, "one", d.Verbs[0].Text)
	require.Equal(t, "two", d.Verbs[1].Text)
	require.Equal(t, "Hangup", d.Verbs[2].XMLName.Local)
}

func TestEmptyResponse(t *testing.T) {
	d := parse(t, twiml.NewResponse().String())
	require.Empty(t, d.Verbs)
}
