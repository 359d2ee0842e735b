package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteHandler("POST "+RouteSignUpEmail, ChainMiddleware(s.SignUpEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSignInEmail, ChainMiddleware(s.SignInEmailHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteSignOut, ChainMiddleware(s.SignOutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteGetSession, ChainMiddleware(s.GetSessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSignInGoogle, ChainMiddleware(s.GoogleSignInHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteCallbackGoogle, ChainMiddleware(s.GoogleCallbackHandler(), s.APIMiddleware()...))

	// Preflight for browser clients on another origin
	s.RegisterRouteHandler("OPTIONS /api/", ChainMiddleware(noContent, s.APIMiddleware()...))

	// VOICE (session required)
	s.RegisterRouteHandler("POST "+RouteVoiceToken, ChainMiddleware(s.TokenHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteVoiceConference, ChainMiddleware(s.ConferenceHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteVoiceConferenceAdd, ChainMiddleware(s.ConferenceAddHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteVoiceHold, ChainMiddleware(s.HoldHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteVoiceForward, ChainMiddleware(s.ForwardHandler(), s.APIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("GET "+RouteVoiceEvents, ChainMiddleware(s.hub.ServeWS, s.RequireSession()))

	if s.env == "DEV" {
		s.RegisterRouteHandler("GET "+RouteVoiceDebugToken, ChainMiddleware(s.DebugTokenHandler(), s.APIMiddleware()...))
	}

	// PROVIDER WEBHOOKS
	s.RegisterRouteHandler("POST "+RouteVoiceRoute, ChainMiddleware(s.RouteCallHandler(), s.WebhookMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVoiceIncoming, ChainMiddleware(s.IncomingCallHandler(), s.WebhookMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteVoiceStatus, ChainMiddleware(s.StatusHandler(), s.WebhookMiddleware()...))

	// SYSTEM
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.Handler())
}
