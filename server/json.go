package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jrsteele09/go-voice-server/auth"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/telephony"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeJSON = "application/json"
	maxBodyBytes    = 1 << 20
)

type errorResponse struct {
	Error   string   `json:"error"`
	Details string   `json:"details,omitempty"`
	Field   string   `json:"field,omitempty"`
	Code    int      `json:"code,omitempty"`
	Missing []string `json:"missing,omitempty"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return apperrors.NewValidationError("", "Request body is required")
		}
		return apperrors.NewValidationError("", "Invalid JSON body")
	}
	return nil
}

// writeError maps an error to its HTTP status and JSON body. Configuration errors list
// only the missing names, never values.
func writeError(w http.ResponseWriter, err error) {
	var cfgErr *apperrors.ConfigError
	var valErr *apperrors.ValidationError
	var apiErr *telephony.APIError

	switch {
	case apperrors.As(err, &cfgErr):
		log.Error().Strs("missing", cfgErr.Missing).Strs("invalid", cfgErr.Invalid).Msg("server configuration error")
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "Server configuration error",
			Details: cfgErr.Error(),
			Missing: cfgErr.Missing,
		})
	case apperrors.As(err, &valErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: valErr.Message, Field: valErr.Field})
	case apperrors.Is(err, apperrors.ErrInvalidIdentity),
		apperrors.Is(err, apperrors.ErrInvalidPhoneNumber),
		apperrors.Is(err, apperrors.ErrNoParticipants):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "Invalid email or password"})
	case apperrors.Is(err, apperrors.ErrUnauthenticated),
		apperrors.Is(err, apperrors.ErrSessionNotFound),
		apperrors.Is(err, apperrors.ErrSessionExpired),
		apperrors.Is(err, apperrors.ErrInvalidState),
		apperrors.Is(err, apperrors.ErrInvalidNonce),
		apperrors.Is(err, auth.UnverifiedEmailErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case apperrors.Is(err, apperrors.ErrUserExists):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "User already exists"})
	case apperrors.As(err, &apiErr):
		log.Warn().Err(err).Int("code", apiErr.Code).Msg("provider request failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{
			Error:   telephony.UserMessage(err),
			Details: apiErr.Message,
			Code:    apiErr.Code,
		})
	default:
		log.Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error", Details: err.Error()})
	}
}
