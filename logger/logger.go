// Package logger builds the shared zerolog logger used across the service.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a logger writing console-formatted output at the given level.
// Unknown levels fall back to info.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
