package config_test

import (
	"testing"

	"github.com/jrsteele09/go-voice-server/internal/config"
	apperrors "github.com/jrsteele09/go-voice-server/internal/errors"
	"github.com/stretchr/testify/require"
)

func setTokenEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.AccountSIDVar, "AC123")
	t.Setenv(config.APIKeyVar, "SK123")
	t.Setenv(config.APISecretVar, "secret")
	t.Setenv(config.AppSIDVar, "AP123")
}

func TestValidateTokenConfig(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		setTokenEnv(t)
		require.NoError(t, config.ValidateTokenConfig(config.New()))
	})

	t.Run("missing names are all reported", func(t *testing.T) {
		setTokenEnv(t)
		t.Setenv(config.APIKeyVar, "")
		t.Setenv(config.AppSIDVar, "")

		err := config.ValidateTokenConfig(config.New())
		var cfgErr *apperrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.Equal(t, []string{config.APIKeyVar, config.AppSIDVar}, cfgErr.Missing)
		require.NotContains(t, err.Error(), "secret")
	})

	t.Run("bad prefixes", func(t *testing.T) {
		setTokenEnv(t)
		t.Setenv(config.AccountSIDVar, "XX123")
		t.Setenv(config.AppSIDVar, "XP123")

		err := config.ValidateTokenConfig(config.New())
		var cfgErr *apperrors.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		require.Empty(t, cfgErr.Missing)
		require.Len(t, cfgErr.Invalid, 2)
		require.Contains(t, cfgErr.Invalid[0], "Account SID")
	})
}

func TestValidateCallConfig(t *testing.T) {
	setTokenEnv(t)
	t.Setenv(config.PhoneNumberVar, "")

	err := config.ValidateCallConfig(config.New())
	var cfgErr *apperrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.Equal(t, []string{config.PhoneNumberVar}, cfgErr.Missing)

	t.Setenv(config.PhoneNumberVar, "+15550001111")
	require.NoError(t, config.ValidateCallConfig(config.New()))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("BASE_URL", "https://voice.example.com/")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com/")

	c := config.New()
	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "https://voice.example.com", c.GetBaseURL())
	require.Equal(t, "https://voice.example.com/api/auth/callback/google", c.GetGoogleRedirectURL())

	origins := c.GetAllowedOrigins()
	require.True(t, origins.IsAllowedOrigin("https://voice.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://b.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
}
