package telephony_test

import (
	"testing"

	"github.com/jrsteele09/go-voice-server/telephony"
	"github.com/stretchr/testify/require"
)

func TestValidPhoneNumber(t *testing.T) {
	for _, n := range []string{"+15551234567", "555-123-4567", "(555) 123 4567", " +44 20 7946 0958 "} {
		require.True(t, telephony.ValidPhoneNumber(n), n)
	}
	for _, n := range []string{"", "abc", "+1555x123", "++15551234567", "client:alice", "---", "+"} {
		require.False(t, telephony.ValidPhoneNumber(n), n)
	}
}
