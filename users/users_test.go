package users_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-voice-server/users"
	"github.com/stretchr/testify/require"
)

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{"valid", "Password123", ""},
		{"too short", "Pa1", "at least 8"},
		{"too long", "Aa1" + strings.Repeat("x", 200), "at most 128"},
		{"no upper", "password123", "uppercase"},
		{"no lower", "PASSWORD123", "lowercase"},
		{"no number", "Passwordxx", "number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := users.ValidatePasswordStrength(tt.password)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestHashPassword(t *testing.T) {
	hash, err := users.HashPassword("Password123")
	require.NoError(t, err)
	require.NotEqual(t, "Password123", hash)
	require.True(t, users.CheckPasswordHash("Password123", hash))
	require.False(t, users.CheckPasswordHash("password123", hash))
}

func TestNormaliseEmail(t *testing.T) {
	require.Equal(t, "jane@example.com", users.NormaliseEmail("  Jane@Example.COM "))
}
