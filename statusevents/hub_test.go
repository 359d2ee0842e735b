package statusevents_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-voice-server/statusevents"
	"github.com/stretchr/testify/require"
)

func allowAll(*http.Request) bool { return true }

func TestEventFromForm(t *testing.T) {
	now := time.Now()
	form := url.Values{"CallSid": {"CA1"}, "CallStatus": {"ringing"}, "From": {"+1555"}, "To": {"+1666"}, "Direction": {"outbound-api"}}

	e := statusevents.EventFromForm(form, now)
	require.Equal(t, "CA1", e.CallSID)
	require.Equal(t, "ringing", e.CallStatus)
	require.Equal(t, "outbound-api", e.Direction)
	require.Equal(t, now, e.ReceivedAt)
}

func TestStatusLabel(t *testing.T) {
	for _, status := range []string{"queued", "initiated", "ringing", "in-progress", "completed", "busy", "failed", "no-answer", "canceled"} {
		require.Equal(t, status, statusevents.Event{CallStatus: status}.StatusLabel())
	}
	require.Equal(t, "in-progress", statusevents.Event{CallStatus: " In-Progress "}.StatusLabel())

	for _, status := range []string{"", "junk-1", "junk-2", "<script>"} {
		require.Equal(t, statusevents.StatusOther, statusevents.Event{CallStatus: status}.StatusLabel())
	}
}

func TestHubPublishSubscribe(t *testing.T) {
	hub := statusevents.NewHub(allowAll)
	require.Equal(t, 0, hub.Publish(statusevents.Event{CallSID: "nobody"}))

	events, cancel := hub.Subscribe()
	require.Equal(t, 1, hub.SubscriberCount())

	require.Equal(t, 1, hub.Publish(statusevents.Event{CallSID: "CA1"}))
	require.Equal(t, "CA1", (<-events).CallSID)

	cancel()
	cancel()
	require.Equal(t, 0, hub.SubscriberCount())
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	hub := statusevents.NewHub(allowAll)
	_, cancel := hub.Subscribe()
	defer cancel()

	delivered := 0
	for i := 0; i < 100; i++ {
		delivered += hub.Publish(statusevents.Event{CallSID: "CA"})
	}
	require.Less(t, delivered, 100)
}

func TestServeWS(t *testing.T) {
	hub := statusevents.NewHub(allowAll)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(statusevents.Event{CallSID: "CA42", CallStatus: "completed"})

	var got statusevents.Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	require.Equal(t, "CA42", got.CallSID)
	require.Equal(t, "completed", got.CallStatus)

	conn.Close()
	require.Eventually(t, func() bool { return hub.SubscriberCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
