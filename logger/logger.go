package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const serviceName = "bluewhale-api"

// Options controls how the process logger is built.
type Options struct {
	Level       string
	Environment string
	Output      io.Writer
}

// New creates the process logger. Development environments get the
// console writer, everything else logs JSON.
func New(opts Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	if opts.Environment == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			Level(ParseLevel(opts.Level)).
			With().
			Timestamp().
			Caller().
			Str("service", serviceName).
			Logger()
	}

	return zerolog.New(out).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// ParseLevel maps LOG_LEVEL values onto zerolog levels, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
