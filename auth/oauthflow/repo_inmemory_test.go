package oauthflow_test

import (
	"testing"

	"github.com/jrsteele09/go-voice-server/auth/oauthflow"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRepoTakeIsSingleUse(t *testing.T) {
	repo := oauthflow.NewInMemoryRepo()
	require.Error(t, repo.Upsert("", &oauthflow.FlowState{}))
	require.NoError(t, repo.Upsert("state-1", &oauthflow.FlowState{Nonce: "n1", ReturnURL: "/dashboard"}))

	flow, err := repo.Take("state-1")
	require.NoError(t, err)
	require.Equal(t, "n1", flow.Nonce)
	require.Equal(t, "/dashboard", flow.ReturnURL)

	_, err = repo.Take("state-1")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
}
