// Package logging configures zerolog for the engine and its daemon.
package logging

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup configures the global logger with a console writer on stderr.
// Engine components never write to stdout; it belongs to the host.
func Setup(verbose bool) {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// Component creates a logger with a component identifier.
// Uses the "cmp" key for consistency with zerolog conventions.
func Component(name string) zerolog.Logger {
	return log.With().Str("cmp", name).Logger()
}
