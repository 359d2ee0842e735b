package server

import (
	"net/http"
	"time"

	"github.com/jrsteele09/go-voice-server/accesstoken"
	"github.com/jrsteele09/go-voice-server/callcontrol"
	"github.com/jrsteele09/go-voice-server/conference"
	"github.com/jrsteele09/go-voice-server/internal/metrics"
	"github.com/rs/zerolog/log"
)

const debugIdentity = "debug-user"

// TokenHandler mints a fresh voice access token for the requested identity.
func (s *Server) TokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Identity string `json:"identity"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		token, err := s.tokens.Issue(req.Identity)
		metrics.TokensIssued.WithLabelValues(metrics.Result(err)).Inc()
		if err != nil {
			writeError(w, err)
			return
		}

		log.Info().
			Str("identity", token.Identity).
			Str("userId", userFromContext(r.Context()).ID).
			Msg("voice token issued")
		writeJSON(w, http.StatusOK, token)
	}
}

// DebugTokenHandler is registered in DEV only. It mints a token and echoes its decoded claims.
func (s *Server) DebugTokenHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, err := s.tokens.Issue(debugIdentity)
		if err != nil {
			writeError(w, err)
			return
		}
		claims, err := accesstoken.Parse(token.JWT, s.config.GetAPISecret())
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":     token.JWT,
			"identity":  claims.Grants.Identity,
			"grants":    claims.Grants,
			"issuer":    claims.Issuer,
			"subject":   claims.Subject,
			"expiresAt": claims.ExpiresAt.Time.Format(time.RFC3339),
		})
	}
}

func (s *Server) ConferenceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Participants   []string `json:"participants"`
			ConferenceName string   `json:"conferenceName"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		api, err := s.telephonyAPI()
		if err != nil {
			writeError(w, err)
			return
		}
		result, err := conference.New(api, s.config).CreateConference(r.Context(), req.ConferenceName, req.Participants)
		if err != nil {
			writeError(w, err)
			return
		}

		for _, call := range result.Calls {
			outcome := "ok"
			if !call.Succeeded() {
				outcome = "error"
			}
			metrics.CallsOriginated.WithLabelValues("conference", outcome).Inc()
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) ConferenceAddHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ConferenceName string `json:"conferenceName"`
			Participant    string `json:"participant"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		api, err := s.telephonyAPI()
		if err != nil {
			writeError(w, err)
			return
		}
		result, err := conference.New(api, s.config).AddParticipant(r.Context(), req.ConferenceName, req.Participant)
		metrics.CallsOriginated.WithLabelValues("conference_add", metrics.Result(err)).Inc()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) HoldHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CallSID string `json:"callSid"`
			Hold    bool   `json:"hold"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		api, err := s.telephonyAPI()
		if err != nil {
			writeError(w, err)
			return
		}
		err = callcontrol.New(api, s.config).Hold(r.Context(), req.CallSID, req.Hold)
		action := "resume"
		if req.Hold {
			action = "hold"
		}
		metrics.CallUpdates.WithLabelValues(action, metrics.Result(err)).Inc()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func (s *Server) ForwardHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CallSID   string `json:"callSid"`
			ForwardTo string `json:"forwardTo"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		api, err := s.telephonyAPI()
		if err != nil {
			writeError(w, err)
			return
		}
		err = callcontrol.New(api, s.config).Forward(r.Context(), req.CallSID, req.ForwardTo)
		metrics.CallUpdates.WithLabelValues("forward", metrics.Result(err)).Inc()
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}
