package statusevents

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-voice-server/internal/metrics"
	"github.com/rs/zerolog/log"
)

const (
	subscriberBuffer = 64
	writeTimeout     = 5 * time.Second
	pingInterval     = 30 * time.Second
	pongWait         = 2 * pingInterval
)

type subscriber struct {
	events chan Event
}

// Hub fans status events out to subscribers. A subscriber whose buffer is full misses
// events rather than blocking the webhook.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
	upgrader    websocket.Upgrader
}

func NewHub(checkOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		subscribers: make(map[*subscriber]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Publish returns how many subscribers the event was delivered to.
func (h *Hub) Publish(e Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for s := range h.subscribers {
		select {
		case s.events <- e:
			delivered++
		default:
			log.Warn().Str("callSid", e.CallSID).Msg("status event dropped for slow subscriber")
		}
	}
	return delivered
}

// Subscribe registers a listener. The returned cancel func must be called to release it.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	s := &subscriber{events: make(chan Event, subscriberBuffer)}

	h.mu.Lock()
	h.subscribers[s] = struct{}{}
	h.mu.Unlock()
	metrics.EventSubscribers.Inc()

	var once sync.Once
	return s.events, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, s)
			h.mu.Unlock()
			metrics.EventSubscribers.Dec()
		})
	}
}

func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// ServeWS upgrades the request and streams events as JSON text frames until the client
// goes away or the request context ends.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Err(err).Msg("status events websocket upgrade failed")
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go readLoop(conn, stop)

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case e := <-events:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(e); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop discards client frames; a read error means the peer is gone.
func readLoop(conn *websocket.Conn, stop context.CancelFunc) {
	defer stop()
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
