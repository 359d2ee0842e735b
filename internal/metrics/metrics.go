package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "voice"

var (
	TokensIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "access_tokens_total",
		Help:      "Access token requests by result.",
	}, []string{"result"})

	CallsOriginated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "calls_originated_total",
		Help:      "Outbound calls requested from the provider by kind and result.",
	}, []string{"kind", "result"})

	CallUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "call_updates_total",
		Help:      "Live call updates (hold, resume, forward) by action and result.",
	}, []string{"action", "result"})

	RoutingDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "routing_decisions_total",
		Help:      "Call-routing webhook outcomes by leg type.",
	}, []string{"leg"})

	StatusEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_events_total",
		Help:      "Call status callbacks received by status.",
	}, []string{"status"})

	EventSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "event_subscribers",
		Help:      "Connected status event websocket subscribers.",
	})
)

func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
