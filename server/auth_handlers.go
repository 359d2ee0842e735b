package server

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-voice-server/auth"
	"github.com/jrsteele09/go-voice-server/auth/sessions"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
	"github.com/rs/zerolog/log"
)

type sessionView struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	Token   string      `json:"token"`
	User    *users.User `json:"user"`
	Session sessionView `json:"session"`
}

func newAuthResponse(user *users.User, session *sessions.Session) authResponse {
	return authResponse{
		Token: session.Token,
		User:  user,
		Session: sessionView{
			ID:        session.ID,
			UserID:    session.UserID,
			ExpiresAt: session.ExpiresAt,
			CreatedAt: session.CreatedAt,
		},
	}
}

// SignUpEmailHandler registers an email/password user and signs them in.
func (s *Server) SignUpEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.SignUpRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		user, session, err := s.auth.SignUp(r.Context(), req, clientInfo(r))
		if err != nil {
			writeError(w, err)
			return
		}

		log.Info().Str("userId", user.ID).Msg("user signed up")
		s.setSessionCookie(w, r, session)
		writeJSON(w, http.StatusOK, newAuthResponse(user, session))
	}
}

func (s *Server) SignInEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}

		user, session, err := s.auth.SignIn(r.Context(), req.Email, req.Password, clientInfo(r))
		if err != nil {
			writeError(w, err)
			return
		}

		s.setSessionCookie(w, r, session)
		writeJSON(w, http.StatusOK, newAuthResponse(user, session))
	}
}

// SignOutHandler always succeeds; an unknown token is already signed out.
func (s *Server) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if token := sessionToken(r); token != "" {
			if err := s.auth.SignOut(r.Context(), token); err != nil && !apperrors.Is(err, apperrors.ErrSessionNotFound) {
				log.Err(err).Msg("sign out failed")
			}
		}
		s.clearSessionCookie(w, r)
		writeJSON(w, http.StatusOK, successResponse{Success: true})
	}
}

func (s *Server) GetSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, user, err := s.auth.GetSession(r.Context(), sessionToken(r))
		if err != nil {
			if apperrors.Is(err, apperrors.ErrSessionNotFound) || apperrors.Is(err, apperrors.ErrSessionExpired) {
				writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "No session"})
				return
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, newAuthResponse(user, session))
	}
}

func clientInfo(r *http.Request) auth.ClientInfo {
	ip := r.RemoteAddr
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		ip = strings.TrimSpace(strings.Split(forwarded, ",")[0])
	} else if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		ip = host
	}
	return auth.ClientInfo{IPAddress: ip, UserAgent: r.UserAgent()}
}
