// Package logger builds the structured JSON logger shared by all commands.
package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New creates a zerolog.Logger writing JSON to stdout at the given level.
// If the level string is invalid, it defaults to info.
func New(level string) zerolog.Logger {
	return NewWithWriter(os.Stdout, level)
}

// NewWithWriter creates a zerolog.Logger writing to w.
func NewWithWriter(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(w).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
