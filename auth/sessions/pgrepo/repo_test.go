package pgrepo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jrsteele09/go-voice-server/auth/sessions"
	sessionpg "github.com/jrsteele09/go-voice-server/auth/sessions/pgrepo"
	"github.com/jrsteele09/go-voice-server/internal/database"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
	userpg "github.com/jrsteele09/go-voice-server/users/pgrepo"
	"github.com/stretchr/testify/require"
)

type testFixture struct {
	users    *userpg.Repo
	sessions *sessionpg.Repo
}

// Runs against a real database when TEST_DATABASE_URL is set.
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &testFixture{users: userpg.New(db), sessions: sessionpg.New(db)}
}

func (f *testFixture) createUser(t *testing.T, email string) *users.User {
	t.Helper()
	ctx := context.Background()
	user := &users.User{Email: email}
	require.NoError(t, f.users.Create(ctx, user))
	t.Cleanup(func() { _ = f.users.Delete(ctx, user.ID) })
	return user
}

func TestRepo(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	u1 := f.createUser(t, "session.one@example.com")
	u2 := f.createUser(t, "session.two@example.com")

	newSession := func(token, userID string, expires time.Time) *sessions.Session {
		return &sessions.Session{Token: token, ID: token + "-id", UserID: userID, ExpiresAt: expires, CreatedAt: now, UpdatedAt: now}
	}

	require.Error(t, f.sessions.Upsert(ctx, &sessions.Session{}))
	require.NoError(t, f.sessions.Upsert(ctx, newSession("pg-live", u1.ID, now.Add(time.Hour))))
	require.NoError(t, f.sessions.Upsert(ctx, newSession("pg-stale", u1.ID, now.Add(-time.Minute))))
	require.NoError(t, f.sessions.Upsert(ctx, newSession("pg-other", u2.ID, now.Add(time.Hour))))

	t.Run("get", func(t *testing.T) {
		s, err := f.sessions.Get(ctx, "pg-live")
		require.NoError(t, err)
		require.Equal(t, u1.ID, s.UserID)
		require.True(t, s.ExpiresAt.Equal(now.Add(time.Hour)))

		_, err = f.sessions.Get(ctx, "nope")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("upsert extends expiry", func(t *testing.T) {
		s, err := f.sessions.Get(ctx, "pg-live")
		require.NoError(t, err)
		s.ExpiresAt = now.Add(2 * time.Hour)
		require.NoError(t, f.sessions.Upsert(ctx, s))

		s, err = f.sessions.Get(ctx, "pg-live")
		require.NoError(t, err)
		require.True(t, s.ExpiresAt.Equal(now.Add(2*time.Hour)))
	})

	t.Run("delete expired", func(t *testing.T) {
		n, err := f.sessions.DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 1)
		_, err = f.sessions.Get(ctx, "pg-stale")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})

	t.Run("delete for user", func(t *testing.T) {
		require.NoError(t, f.sessions.DeleteForUser(ctx, u1.ID))
		_, err := f.sessions.Get(ctx, "pg-live")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
		_, err = f.sessions.Get(ctx, "pg-other")
		require.NoError(t, err)
	})

	t.Run("deleting the user removes its sessions", func(t *testing.T) {
		require.NoError(t, f.users.Delete(ctx, u2.ID))
		_, err := f.sessions.Get(ctx, "pg-other")
		require.ErrorIs(t, err, apperrors.ErrSessionNotFound)
	})
}
