package server

import (
	"net/http"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"app":         s.config.GetAppName(),
			"time":        s.nowTime().UTC(),
			"subscribers": s.hub.SubscriberCount(),
		})
	}
}
