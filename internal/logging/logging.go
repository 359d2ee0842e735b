package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const devEnv = "DEV"

// Setup configures the global zerolog logger. DEV gets a console writer, everything
// else JSON. A non-empty logFile adds a size-rotated file sink.
func Setup(env, logFile string) io.Closer {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stderr
	level := zerolog.InfoLevel
	if env == devEnv {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
		level = zerolog.DebugLevel
	}

	var closer io.Closer = nopCloser{}
	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		}
		out = zerolog.MultiLevelWriter(out, rotator)
		closer = rotator
	}

	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	return closer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
