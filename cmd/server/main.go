package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/jrsteele09/go-voice-server/auth"
	"github.com/jrsteele09/go-voice-server/auth/google"
	"github.com/jrsteele09/go-voice-server/auth/oauthflow"
	"github.com/jrsteele09/go-voice-server/auth/sessions"
	sessionpg "github.com/jrsteele09/go-voice-server/auth/sessions/pgrepo"
	"github.com/jrsteele09/go-voice-server/internal/config"
	"github.com/jrsteele09/go-voice-server/internal/database"
	"github.com/jrsteele09/go-voice-server/internal/logging"
	"github.com/jrsteele09/go-voice-server/server"
	"github.com/jrsteele09/go-voice-server/users"
	userpg "github.com/jrsteele09/go-voice-server/users/pgrepo"
	fakeuserrepo "github.com/jrsteele09/go-voice-server/users/repofake"
	"github.com/rs/zerolog/log"
)

const sessionPurgeInterval = 15 * time.Minute

func main() {
	// Values already in the environment win over the .env file.
	envErr := godotenv.Load()

	c := config.New()
	closer := logging.Setup(c.GetEnv(), c.GetLogFile())
	defer closer.Close()
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("could not read .env")
	}

	st, err := openStores(context.Background(), c)
	if err != nil {
		log.Fatal().Err(err).Msg("Could not open stores")
	}
	defer st.Close()

	for {
		if err := run(c, st); err != nil {
			log.Err(err).Msg("Error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("Server stopped")
}

func run(c config.Config, st *stores) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Bytes("stack", debug.Stack()).Msg("Recovered from panic")
			returnError = errors.New("panic recovered")
		}
	}()

	displayAppname(c.GetAppName())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	authService, err := auth.NewService(auth.Repos{Users: st.users, Sessions: st.sessions}, c)
	if err != nil {
		return err
	}
	go purgeSessions(ctx, authService)

	var opts []server.Option
	if c.GoogleEnabled() {
		provider, err := google.NewProvider(ctx, c, c, oauthflow.NewInMemoryRepo())
		if err != nil {
			return fmt.Errorf("google provider: %w", err)
		}
		opts = append(opts, server.WithGoogle(provider))
		log.Info().Msg("Google sign-in enabled")
	}
	logTelephonyConfig(c)

	handler, err := server.New(c, authService, opts...)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: c.GetPort(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- listenAndServe(srv) }()

	select {
	case err := <-serveErr:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(srv)
}

// stores outlive run so a recovered panic does not sign everyone out.
type stores struct {
	users    users.UserRepo
	sessions sessions.Repo
	closer   io.Closer
}

func (s *stores) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// openStores uses Postgres for users and sessions when DATABASE_URL is set. Otherwise
// both live in memory and are lost when the process exits.
func openStores(ctx context.Context, c config.Config) (*stores, error) {
	dsn := c.GetDatabaseURL()
	if dsn == "" {
		log.Warn().Msg("DATABASE_URL not set, using in-memory user and session stores")
		return &stores{users: fakeuserrepo.NewFakeUserRepo(), sessions: sessions.NewInMemoryRepo()}, nil
	}
	db, err := database.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("Connected to Postgres user and session stores")
	return &stores{users: userpg.New(db), sessions: sessionpg.New(db), closer: db}, nil
}

func purgeSessions(ctx context.Context, authService *auth.Service) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := authService.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Err(err).Msg("session purge failed")
				continue
			}
			if n > 0 {
				log.Debug().Int("sessions", n).Msg("expired sessions purged")
			}
		}
	}
}

// logTelephonyConfig reports which provider settings are present. Values are never logged.
func logTelephonyConfig(c config.Config) {
	state := func(v string) string {
		if v == "" {
			return "missing"
		}
		return "set"
	}
	log.Info().
		Str(config.AccountSIDVar, state(c.GetAccountSID())).
		Str(config.APIKeyVar, state(c.GetAPIKey())).
		Str(config.APISecretVar, state(c.GetAPISecret())).
		Str(config.AppSIDVar, state(c.GetAppSID())).
		Str(config.PhoneNumberVar, state(c.GetPhoneNumber())).
		Msg("Telephony configuration")
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("Server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
