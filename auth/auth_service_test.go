package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-voice-server/auth"
	"github.com/jrsteele09/go-voice-server/auth/google"
	"github.com/jrsteele09/go-voice-server/auth/sessions"
	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
	fakeuserrepo "github.com/jrsteele09/go-voice-server/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "Password123"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo    users.UserRepo
	sessionRepo sessions.Repo
	service     *auth.Service
	now         time.Time
}

func (f *testFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo:    fakeuserrepo.NewFakeUserRepo(),
		sessionRepo: sessions.NewInMemoryRepo(),
		now:         time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}

	service, err := auth.NewService(
		auth.Repos{Users: f.userRepo, Sessions: f.sessionRepo},
		config.Auth{},
		auth.WithNowTime(func() time.Time { return f.now }),
	)
	require.NoError(t, err)
	f.service = service
	return f
}

func (f *testFixture) signUp(t *testing.T) (*users.User, *sessions.Session) {
	t.Helper()
	user, session, err := f.service.SignUp(context.Background(), auth.SignUpRequest{
		Email:    testUserEmail,
		Password: testUserPassword,
		Name:     "John Doe",
	}, auth.ClientInfo{IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	return user, session
}

func TestNewServiceRequiresRepos(t *testing.T) {
	_, err := auth.NewService(auth.Repos{}, config.Auth{})
	require.Error(t, err)
}

func TestSignUp(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	user, session := f.signUp(t)
	require.NotEmpty(t, user.ID)
	require.NotEqual(t, testUserPassword, user.PasswordHash)
	require.Equal(t, user.ID, session.UserID)
	require.Equal(t, f.now.Add(7*24*time.Hour), session.ExpiresAt)
	require.Equal(t, "127.0.0.1", session.IPAddress)

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := f.service.SignUp(ctx, auth.SignUpRequest{Email: "JOHN.DOE@example.com", Password: testUserPassword}, auth.ClientInfo{})
		require.ErrorIs(t, err, apperrors.ErrUserExists)
	})

	t.Run("weak password", func(t *testing.T) {
		_, _, err := f.service.SignUp(ctx, auth.SignUpRequest{Email: "new@example.com", Password: "weak"}, auth.ClientInfo{})
		var vErr *apperrors.ValidationError
		require.ErrorAs(t, err, &vErr)
	})
}

func TestSignIn(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	user, first := f.signUp(t)

	t.Run("correct password mints a new session", func(t *testing.T) {
		got, session, err := f.service.SignIn(ctx, testUserEmail, testUserPassword, auth.ClientInfo{})
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
		require.NotEqual(t, first.Token, session.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := f.service.SignIn(ctx, testUserEmail, "Wrong12345", auth.ClientInfo{})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("unknown email looks the same", func(t *testing.T) {
		_, _, err := f.service.SignIn(ctx, "nobody@example.com", testUserPassword, auth.ClientInfo{})
		require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})
}

func TestSignInWithGoogle(t *testing.T) {
	ctx := context.Background()

	t.Run("creates a new user", func(t *testing.T) {
		f := setupTestFixture(t)
		identity := &google.Identity{Subject: "g-1", Email: "new@example.com", EmailVerified: true, Name: "New"}

		user, session, err := f.service.SignInWithGoogle(ctx, identity, auth.ClientInfo{})
		require.NoError(t, err)
		require.Equal(t, "g-1", user.GoogleSubject)
		require.False(t, user.HasPassword())
		require.Equal(t, user.ID, session.UserID)

		again, _, err := f.service.SignInWithGoogle(ctx, identity, auth.ClientInfo{})
		require.NoError(t, err)
		require.Equal(t, user.ID, again.ID)
	})

	t.Run("links an existing password account", func(t *testing.T) {
		f := setupTestFixture(t)
		existing, _ := f.signUp(t)

		user, _, err := f.service.SignInWithGoogle(ctx, &google.Identity{Subject: "g-2", Email: testUserEmail, EmailVerified: true}, auth.ClientInfo{})
		require.NoError(t, err)
		require.Equal(t, existing.ID, user.ID)
		require.True(t, user.EmailVerified)

		// password sign-in still works after linking
		_, _, err = f.service.SignIn(ctx, testUserEmail, testUserPassword, auth.ClientInfo{})
		require.NoError(t, err)
	})

	t.Run("unverified email is not linked", func(t *testing.T) {
		f := setupTestFixture(t)
		f.signUp(t)

		_, _, err := f.service.SignInWithGoogle(ctx, &google.Identity{Subject: "g-3", Email: testUserEmail}, auth.ClientInfo{})
		require.ErrorIs(t, err, auth.UnverifiedEmailErr)
	})
}

func TestGetSession(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		f := setupTestFixture(t)
		user, session := f.signUp(t)

		got, gotUser, err := f.service.GetSession(ctx, session.Token)
		require.NoError(t, err)
		require.Equal(t, session.ID, got.ID)
		require.Equal(t, user.Email, gotUser.Email)
	})

	t.Run("missing token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, _, err := f.service.GetSession(ctx, "")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("expired session is removed", func(t *testing.T) {
		f := setupTestFixture(t)
		_, session := f.signUp(t)
		f.advance(8 * 24 * time.Hour)

		_, _, err := f.service.GetSession(ctx, session.Token)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		_, err = f.sessionRepo.Get(context.Background(), session.Token)
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("old sessions are extended", func(t *testing.T) {
		f := setupTestFixture(t)
		_, session := f.signUp(t)
		f.advance(2 * 24 * time.Hour)

		got, _, err := f.service.GetSession(ctx, session.Token)
		require.NoError(t, err)
		require.Equal(t, f.now.Add(7*24*time.Hour), got.ExpiresAt)
	})

	t.Run("fresh sessions are left alone", func(t *testing.T) {
		f := setupTestFixture(t)
		_, session := f.signUp(t)
		f.advance(time.Hour)

		got, _, err := f.service.GetSession(ctx, session.Token)
		require.NoError(t, err)
		require.Equal(t, session.ExpiresAt, got.ExpiresAt)
	})
}

func TestSignOut(t *testing.T) {
	f := setupTestFixture(t)
	_, session := f.signUp(t)

	require.NoError(t, f.service.SignOut(context.Background(), session.Token))
	_, _, err := f.service.GetSession(context.Background(), session.Token)
	require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestPurgeExpiredSessions(t *testing.T) {
	f := setupTestFixture(t)
	f.signUp(t)
	f.advance(8 * 24 * time.Hour)

	n, err := f.service.PurgeExpiredSessions(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
