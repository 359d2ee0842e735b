package routing_test

import (
	"net/url"
	"testing"

	"github.com/jrsteele09/go-voice-server/internal/config"
	"github.com/jrsteele09/go-voice-server/routing"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) *routing.Router {
	t.Helper()
	t.Setenv(config.PhoneNumberVar, "+15550000000")
	t.Setenv("DEFAULT_CLIENT_IDENTITY", "")
	return routing.New(config.New())
}

func TestDestinationPrecedence(t *testing.T) {
	tests := []struct {
		name   string
		params routing.Params
		want   string
	}{
		{"customTo wins", routing.Params{CustomTo: "alice", To: "+1555", Called: "+1666"}, "alice"},
		{"To before Called", routing.Params{To: "+1555", Called: "+1666"}, "+1555"},
		{"Called last", routing.Params{Called: "+1666"}, "+1666"},
		{"blank values skipped", routing.Params{CustomTo: "  ", To: "", Called: "+1666"}, "+1666"},
		{"none", routing.Params{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.params.Destination())
		})
	}
}

func TestRouteAppToApp(t *testing.T) {
	r := setupRouter(t)

	form := url.Values{"From": {"client:alice"}, "To": {"bob"}, "isAppToApp": {"true"}}
	doc, leg := r.Route(routing.ParamsFromForm(form))

	require.Equal(t, routing.LegClient, leg)
	xml := doc.String()
	require.Contains(t, xml, `<Dial callerId="client:alice" timeout="30" record="do-not-record">`)
	require.Contains(t, xml, `<Client>bob</Client>`)
	require.NotContains(t, xml, "<Number>")
}

func TestRouteClientPrefix(t *testing.T) {
	r := setupRouter(t)
	doc, leg := r.Route(routing.Params{From: "client:alice", To: "client:bob"})
	require.Equal(t, routing.LegClient, leg)
	require.Contains(t, doc.String(), `<Client>bob</Client>`)
}

func TestRoutePhone(t *testing.T) {
	r := setupRouter(t)

	form := url.Values{"From": {"client:alice"}, "customTo": {"+15551234567"}, "To": {"ignored"}}
	doc, leg := r.Route(routing.ParamsFromForm(form))

	require.Equal(t, routing.LegNumber, leg)
	xml := doc.String()
	require.Contains(t, xml, `callerId="+15550000000"`)
	require.Contains(t, xml, `<Number>+15551234567</Number>`)
	require.NotContains(t, xml, "<Client>")
}

func TestRouteNoRecipient(t *testing.T) {
	r := setupRouter(t)
	doc, leg := r.Route(routing.Params{From: "client:alice"})

	require.Equal(t, routing.LegNone, leg)
	xml := doc.String()
	require.Contains(t, xml, "<Say>")
	require.Contains(t, xml, "no recipient")
	require.NotContains(t, xml, "<Dial")
}

func TestRoutePhoneWithoutCallerID(t *testing.T) {
	r := setupRouter(t)
	t.Setenv(config.PhoneNumberVar, "")

	doc, leg := r.Route(routing.Params{To: "+15551234567"})
	require.Equal(t, routing.LegError, leg)
	require.Contains(t, doc.String(), routing.ErrorMessage)
}

func TestRouteIncoming(t *testing.T) {
	r := setupRouter(t)

	t.Run("no identity configured", func(t *testing.T) {
		doc, leg := r.RouteIncoming(routing.Params{From: "+15557654321"}, "")
		require.Equal(t, routing.LegNone, leg)
		require.Contains(t, doc.String(), routing.UnavailableMessage)
	})

	t.Run("default identity", func(t *testing.T) {
		t.Setenv("DEFAULT_CLIENT_IDENTITY", "support")
		doc, leg := r.RouteIncoming(routing.Params{From: "+15557654321"}, "")
		require.Equal(t, routing.LegClient, leg)
		require.Contains(t, doc.String(), `callerId="+15557654321"`)
		require.Contains(t, doc.String(), `timeout="30"`)
		require.Contains(t, doc.String(), `<Client>support</Client></Dial>`)
	})

	t.Run("explicit identity wins", func(t *testing.T) {
		t.Setenv("DEFAULT_CLIENT_IDENTITY", "support")
		doc, _ := r.RouteIncoming(routing.Params{From: "+15557654321"}, "alice")
		require.Contains(t, doc.String(), `<Client>alice</Client>`)
	})
}
