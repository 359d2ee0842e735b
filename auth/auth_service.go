package auth

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-voice-server/auth/google"
	"github.com/jrsteele09/go-voice-server/auth/sessions"
	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/internal/utils"
	"github.com/jrsteele09/go-voice-server/users"
	"github.com/pkg/errors"
)

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users    users.UserRepo
	Sessions sessions.Repo
}

// SignUpRequest is the email/password registration payload.
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// ClientInfo is recorded against new sessions.
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

// Service signs users in with email/password or Google and manages their sessions.
type Service struct {
	repos     Repos
	config    config.AuthConfig
	validator *Validator
	nowTime   func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(repos Repos, cfg config.AuthConfig, opts ...ServiceOption) (*Service, error) {
	if repos.Users == nil || repos.Sessions == nil {
		return nil, errors.New("[auth NewService] user and session repositories are required")
	}
	s := &Service{
		repos:     repos,
		config:    cfg,
		validator: NewValidator(),
		nowTime:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SignUp creates a password user and signs them in.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest, client ClientInfo) (*users.User, *sessions.Session, error) {
	if err := s.validator.ValidateSignUp(req); err != nil {
		return nil, nil, err
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, nil, errors.Wrap(err, "hash password")
	}

	now := s.nowTime()
	user := &users.User{
		Email:        users.NormaliseEmail(req.Email),
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignIn checks an email/password pair. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) SignIn(ctx context.Context, email, password string, client ClientInfo) (*users.User, *sessions.Session, error) {
	if err := s.validator.ValidateSignIn(email, password); err != nil {
		return nil, nil, err
	}

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			return nil, nil, apperrors.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if !user.HasPassword() || !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

// SignInWithGoogle finds the user by Google subject, otherwise links an existing
// account with the same verified email, otherwise creates one.
func (s *Service) SignInWithGoogle(ctx context.Context, identity *google.Identity, client ClientInfo) (*users.User, *sessions.Session, error) {
	if identity == nil || identity.Subject == "" {
		return nil, nil, apperrors.ErrInvalidCredentials
	}

	user, err := s.repos.Users.GetByGoogleSubject(ctx, identity.Subject)
	switch {
	case err == nil:
	case apperrors.Is(err, apperrors.ErrUserNotFound):
		user, err = s.linkOrCreateGoogleUser(ctx, identity)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID, client)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *Service) linkOrCreateGoogleUser(ctx context.Context, identity *google.Identity) (*users.User, error) {
	if !identity.EmailVerified {
		return nil, UnverifiedEmailErr
	}
	now := s.nowTime()

	user, err := s.repos.Users.GetByEmail(ctx, identity.Email)
	if err == nil {
		user.GoogleSubject = identity.Subject
		user.EmailVerified = true
		if user.Image == "" {
			user.Image = identity.Picture
		}
		user.UpdatedAt = now
		if err := s.repos.Users.Update(ctx, user); err != nil {
			return nil, errors.Wrap(err, "link google account")
		}
		return user, nil
	}
	if !apperrors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	user = &users.User{
		Email:         users.NormaliseEmail(identity.Email),
		Name:          identity.Name,
		Image:         identity.Picture,
		GoogleSubject: identity.Subject,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repos.Users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "create google user")
	}
	return user, nil
}

// GetSession resolves a session token. Expired sessions are removed. Sessions older than
// the update age have their expiry pushed out again.
func (s *Service) GetSession(ctx context.Context, token string) (*sessions.Session, *users.User, error) {
	if token == "" {
		return nil, nil, apperrors.ErrSessionNotFound
	}
	session, err := s.repos.Sessions.Get(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	now := s.nowTime()
	if session.Expired(now) {
		_ = s.repos.Sessions.Delete(ctx, token)
		return nil, nil, apperrors.ErrSessionExpired
	}

	user, err := s.repos.Users.GetByID(ctx, session.UserID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUserNotFound) {
			_ = s.repos.Sessions.Delete(ctx, token)
			return nil, nil, apperrors.ErrSessionNotFound
		}
		return nil, nil, err
	}

	if now.Sub(session.UpdatedAt) >= s.config.GetSessionUpdateAge() {
		session.ExpiresAt = now.Add(s.config.GetSessionExpiry())
		session.UpdatedAt = now
		if err := s.repos.Sessions.Upsert(ctx, session); err != nil {
			return nil, nil, errors.Wrap(err, "refresh session")
		}
	}
	return session, user, nil
}

func (s *Service) SignOut(ctx context.Context, token string) error {
	return s.repos.Sessions.Delete(ctx, token)
}

// PurgeExpiredSessions is run periodically by the server.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int, error) {
	return s.repos.Sessions.DeleteExpired(ctx, s.nowTime())
}

func (s *Service) createSession(ctx context.Context, userID string, client ClientInfo) (*sessions.Session, error) {
	token, err := utils.RandomString(s.config.GetSessionTokenLength())
	if err != nil {
		return nil, err
	}
	now := s.nowTime()
	session := &sessions.Session{
		Token:     token,
		ID:        uuid.New().String(),
		UserID:    userID,
		ExpiresAt: now.Add(s.config.GetSessionExpiry()),
		CreatedAt: now,
		UpdatedAt: now,
		IPAddress: client.IPAddress,
		UserAgent: client.UserAgent,
	}
	if err := s.repos.Sessions.Upsert(ctx, session); err != nil {
		return nil, errors.Wrap(err, "store session")
	}
	return session, nil
}
