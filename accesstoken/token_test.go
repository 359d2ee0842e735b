package accesstoken_test

import (
	"strings"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-voice-server/accesstoken"
	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/stretchr/testify/require"
)

const testSecret = "api-secret"

func setupIssuer(t *testing.T) (*accesstoken.Issuer, time.Time) {
	t.Helper()
	t.Setenv(config.AccountSIDVar, "AC0001")
	t.Setenv(config.APIKeyVar, "SK0001")
	t.Setenv(config.APISecretVar, testSecret)
	t.Setenv(config.AppSIDVar, "AP0001")

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	accesstoken.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { accesstoken.NowTimeFunc = time.Now })

	return accesstoken.NewIssuer(config.New()), now
}

func TestIssue(t *testing.T) {
	issuer, now := setupIssuer(t)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)
	require.Equal(t, "alice", token.Identity)
	require.Equal(t, now.Add(time.Hour), token.ExpiresAt)
	require.Equal(t, time.Hour, token.ExpiresAt.Sub(token.IssuedAt))

	claims, err := accesstoken.Parse(token.JWT, testSecret)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Grants.Identity)
	require.True(t, claims.Grants.Voice.Incoming.Allow)
	require.Equal(t, "AP0001", claims.Grants.Voice.Outgoing.ApplicationSID)
	require.Equal(t, "SK0001", claims.Issuer)
	require.Equal(t, "AC0001", claims.Subject)
	require.Equal(t, "SK0001-"+"1746093600", claims.ID)
	require.Equal(t, now.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestIssueHeader(t *testing.T) {
	issuer, _ := setupIssuer(t)
	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	parsed, _, err := jwtlib.NewParser().ParseUnverified(token.JWT, &accesstoken.Claims{})
	require.NoError(t, err)
	require.Equal(t, "twilio-fpa;v=1", parsed.Header["cty"])
	require.Equal(t, "HS256", parsed.Header["alg"])
}

func TestIssueRejectsWrongSecret(t *testing.T) {
	issuer, _ := setupIssuer(t)
	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	_, err = accesstoken.Parse(token.JWT, "other-secret")
	require.Error(t, err)
}

func TestIssueExpires(t *testing.T) {
	issuer, now := setupIssuer(t)
	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	accesstoken.NowTimeFunc = func() time.Time { return now.Add(61 * time.Minute) }
	_, err = accesstoken.Parse(token.JWT, testSecret)
	require.ErrorIs(t, err, jwtlib.ErrTokenExpired)
}

func TestIssueValidation(t *testing.T) {
	t.Run("empty identity", func(t *testing.T) {
		issuer, _ := setupIssuer(t)
		_, err := issuer.Issue("   ")
		require.ErrorIs(t, err, apperrors.ErrInvalidIdentity)
	})

	t.Run("missing configuration lists names", func(t *testing.T) {
		issuer, _ := setupIssuer(t)
		t.Setenv(config.APISecretVar, "")

		_, err := issuer.Issue("alice")
		var cfgErr *apperrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, []string{config.APISecretVar}, cfgErr.Missing)
	})

	t.Run("wrong prefix", func(t *testing.T) {
		issuer, _ := setupIssuer(t)
		t.Setenv(config.APIKeyVar, "AK0001")

		_, err := issuer.Issue("alice")
		var cfgErr *apperrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.True(t, strings.Contains(err.Error(), "API Key"))
	})
}
