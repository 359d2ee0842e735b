package fakeuserrepo_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/jrsteele09/go-voice-server/users"
	fakeuserrepo "github.com/jrsteele09/go-voice-server/users/repofake"
	"github.com/stretchr/testify/require"
)

func TestFakeUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := fakeuserrepo.NewFakeUserRepo()

	user := &users.User{Email: "Jane@Example.com", Name: "Jane"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &users.User{Email: "jane@example.com"})
		require.ErrorIs(t, err, apperrors.ErrUserExists)
	})

	t.Run("lookup is case insensitive", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "JANE@example.com")
		require.NoError(t, err)
		require.Equal(t, user.ID, got.ID)
	})

	t.Run("link google subject", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.GoogleSubject = "google-123"
		require.NoError(t, repo.Update(ctx, got))

		linked, err := repo.GetByGoogleSubject(ctx, "google-123")
		require.NoError(t, err)
		require.Equal(t, user.ID, linked.ID)
	})

	t.Run("returned users are copies", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		got.Name = "changed"

		again, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "Jane", again.Name)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, user.ID))
		_, err := repo.GetByEmail(ctx, "jane@example.com")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		_, err = repo.GetByGoogleSubject(ctx, "google-123")
		require.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})
}
