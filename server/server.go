package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-voice-server/accesstoken"
	"github.com/jrsteele09/go-voice-server/auth"
	"github.com/jrsteele09/go-voice-server/auth/google"
	"github.com/jrsteele09/go-voice-server/internal/config"
	"github.com/jrsteele09/go-voice-server/routing"
	"github.com/jrsteele09/go-voice-server/statusevents"
	"github.com/jrsteele09/go-voice-server/telephony"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env       string
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.Service
	google    *google.Provider
	tokens    *accesstoken.Issuer
	router    *routing.Router
	hub       *statusevents.Hub
	telephony telephony.API
	nowTime   func() time.Time
}

type Option func(*Server)

// WithGoogle enables the Google sign-in routes.
func WithGoogle(p *google.Provider) Option {
	return func(s *Server) {
		s.google = p
	}
}

// WithTelephony replaces the provider REST client built from configuration.
func WithTelephony(api telephony.API) Option {
	return func(s *Server) {
		s.telephony = api
	}
}

func WithHub(hub *statusevents.Hub) Option {
	return func(s *Server) {
		s.hub = hub
	}
}

func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(cfg config.Config, authService *auth.Service, opts ...Option) (*Server, error) {
	if authService == nil {
		return nil, fmt.Errorf("[Server New] auth service is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		auth:    authService,
		tokens:  accesstoken.NewIssuer(cfg),
		router:  routing.New(cfg),
		nowTime: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hub == nil {
		s.hub = statusevents.NewHub(s.allowedOrigin)
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

// telephonyAPI checks call configuration on every request so a missing credential
// surfaces as a configuration error rather than a provider failure.
func (s *Server) telephonyAPI() (telephony.API, error) {
	if err := config.ValidateCallConfig(s.config); err != nil {
		return nil, err
	}
	if s.telephony != nil {
		return s.telephony, nil
	}
	return telephony.NewFromConfig(s.config)
}

func (s *Server) allowedOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return s.corsAllowOrigin(origin) != ""
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%-19s] %s", displayMethod(method), path)
}

func displayMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
