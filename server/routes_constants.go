package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Email & Password
	RouteSignUpEmail = "/api/auth/sign-up/email"
	RouteSignInEmail = "/api/auth/sign-in/email"
	RouteSignOut     = "/api/auth/sign-out"
	RouteGetSession  = "/api/auth/get-session"

	// Auth Routes - Google
	RouteSignInGoogle   = "/api/auth/sign-in/google"
	RouteCallbackGoogle = "/api/auth/callback/google"

	// Voice API Routes (session required)
	RouteVoiceToken         = "/api/voice/token"
	RouteVoiceDebugToken    = "/api/voice/debug/token"
	RouteVoiceConference    = "/api/voice/conference"
	RouteVoiceConferenceAdd = "/api/voice/conference/add"
	RouteVoiceHold          = "/api/voice/hold"
	RouteVoiceForward       = "/api/voice/forward"
	RouteVoiceEvents        = "/api/voice/events"

	// Provider Webhooks
	RouteVoiceRoute    = "/api/voice/route"
	RouteVoiceIncoming = "/api/voice/incoming"
	RouteVoiceStatus   = "/api/voice/status"

	// System
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
