package logging_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-voice-server/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesToLogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "server.log")

	closer := logging.Setup("PROD", logFile)
	log.Info().Str("component", "test").Msg("hello file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	require.Contains(t, string(data), `"message":"hello file"`)
	require.Contains(t, string(data), `"component":"test"`)
}
