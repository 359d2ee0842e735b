package server

import (
	"net/http"

	"github.com/jrsteele09/go-voice-server/internal/metrics"
	"github.com/jrsteele09/go-voice-server/routing"
	"github.com/jrsteele09/go-voice-server/statusevents"
	"github.com/jrsteele09/go-voice-server/twiml"
	"github.com/rs/zerolog/log"
)

// RouteCallHandler answers the provider when a registered client places a call.
// The response is always 200 with a call-control document.
func (s *Server) RouteCallHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			log.Err(err).Msg("invalid routing webhook form")
			writeTwiml(w, twiml.NewResponse().Say(routing.ErrorMessage))
			return
		}

		params := routing.ParamsFromForm(r.Form)
		doc, leg := s.router.Route(params)
		metrics.RoutingDecisions.WithLabelValues(string(leg)).Inc()
		log.Info().
			Str("callSid", params.CallSID).
			Str("from", params.From).
			Str("to", params.Destination()).
			Bool("appToApp", params.AppToApp).
			Str("leg", string(leg)).
			Msg("call routed")
		writeTwiml(w, doc)
	}
}

// IncomingCallHandler rings a client for a call arriving on the provider number. An
// identity query parameter overrides the default client.
func (s *Server) IncomingCallHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			log.Err(err).Msg("invalid incoming webhook form")
			writeTwiml(w, twiml.NewResponse().Say(routing.ErrorMessage))
			return
		}

		params := routing.ParamsFromForm(r.Form)
		doc, leg := s.router.RouteIncoming(params, r.URL.Query().Get("identity"))
		metrics.RoutingDecisions.WithLabelValues(string(leg)).Inc()
		log.Info().
			Str("callSid", params.CallSID).
			Str("from", params.From).
			Str("leg", string(leg)).
			Msg("incoming call routed")
		writeTwiml(w, doc)
	}
}

// StatusHandler records a call status callback and fans it out to event subscribers.
func (s *Server) StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid form body"})
			return
		}

		event := statusevents.EventFromForm(r.Form, s.nowTime())
		metrics.StatusEvents.WithLabelValues(event.StatusLabel()).Inc()
		delivered := s.hub.Publish(event)
		log.Info().
			Str("callSid", event.CallSID).
			Str("status", event.CallStatus).
			Str("from", event.From).
			Str("to", event.To).
			Int("subscribers", delivered).
			Msg("call status")

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

func writeTwiml(w http.ResponseWriter, doc *twiml.Response) {
	body, err := doc.Marshal()
	if err != nil {
		log.Err(err).Msg("failed to render call-control document")
		body = []byte(twiml.NewResponse().Say(routing.ErrorMessage).String())
	}
	w.Header().Set("Content-Type", twiml.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
