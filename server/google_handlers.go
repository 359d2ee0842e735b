package server

import (
	"net/http"
	"net/url"

	"github.com/rs/zerolog/log"
)

// GoogleSignInHandler redirects the browser to Google. callbackURL is where the user
// lands afterwards and must be a local path.
func (s *Server) GoogleSignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.google == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Google sign-in is not configured"})
			return
		}

		authURL, err := s.google.AuthCodeURL(r.URL.Query().Get("callbackURL"))
		if err != nil {
			writeError(w, err)
			return
		}
		http.Redirect(w, r, authURL, http.StatusFound)
	}
}

func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.google == nil {
			writeJSON(w, http.StatusNotFound, errorResponse{Error: "Google sign-in is not configured"})
			return
		}

		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			log.Warn().Str("error", providerErr).Msg("google sign-in was not completed")
			http.Redirect(w, r, "/?error="+url.QueryEscape(providerErr), http.StatusSeeOther)
			return
		}

		identity, returnURL, err := s.google.Exchange(r.Context(), query.Get("state"), query.Get("code"))
		if err != nil {
			log.Err(err).Msg("google code exchange failed")
			writeError(w, err)
			return
		}

		user, session, err := s.auth.SignInWithGoogle(r.Context(), identity, clientInfo(r))
		if err != nil {
			writeError(w, err)
			return
		}

		log.Info().Str("userId", user.ID).Msg("user signed in with google")
		s.setSessionCookie(w, r, session)
		if returnURL == "" {
			returnURL = "/"
		}
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
	}
}
