package pgrepo_test

import (
	"context"
	"os"
	"testing"

	"github.com/jrsteele09/go-voice-server/internal/database"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
	"github.com/jrsteele09/go-voice-server/users/pgrepo"
	"github.com/stretchr/testify/require"
)

// Runs against a real database when TEST_DATABASE_URL is set.
func openTestRepo(t *testing.T) *pgrepo.Repo {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return pgrepo.New(db)
}

func TestRepoRoundTrip(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	user := &users.User{Email: "PG.User@example.com", Name: "PG User", GoogleSubject: "pg-sub-1"}
	require.NoError(t, repo.Create(ctx, user))
	t.Cleanup(func() { _ = repo.Delete(ctx, user.ID) })

	err := repo.Create(ctx, &users.User{Email: "pg.user@example.com"})
	require.ErrorIs(t, err, apperrors.ErrUserExists)

	got, err := repo.GetByEmail(ctx, "pg.user@EXAMPLE.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, got.ID)

	got, err = repo.GetByGoogleSubject(ctx, "pg-sub-1")
	require.NoError(t, err)
	require.Equal(t, "PG User", got.Name)

	got.Name = "Renamed"
	require.NoError(t, repo.Update(ctx, got))
	got, err = repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.Name)

	_, err = repo.GetByID(ctx, "missing")
	require.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
