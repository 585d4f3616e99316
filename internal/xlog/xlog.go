// Package xlog configures the process-wide zerolog logger from the
// DARS_LOG environment variable, mirroring the env_logger filter the
// original server used (DARS_LOG=debug, trace, ...).
package xlog

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the process-wide logger. Components should take it (or a
// sub-logger via Log.With()) rather than constructing their own.
var Log = New()

// New builds a logger from DARS_LOG, writing to stderr with a console
// writer when stderr is a terminal isn't checked here — the CLI decides
// presentation; this just fixes the level.
func New() zerolog.Logger {
	level := levelFromEnv(os.Getenv("DARS_LOG"))
	zerolog.SetGlobalLevel(level)
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func levelFromEnv(v string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "off", "none":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
