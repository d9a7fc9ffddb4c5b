// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"randscan/config"
)

// Level picks the effective level: -v raises to info, -vv and above to
// debug; without -v the configured level applies.
func Level(verbosity int, configured string) (zerolog.Level, error) {
	switch {
	case verbosity == 1:
		return zerolog.InfoLevel, nil
	case verbosity >= 2:
		return zerolog.DebugLevel, nil
	}
	if configured == "" {
		return zerolog.WarnLevel, nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(configured))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level %q: %w", configured, err)
	}
	return lvl, nil
}

// New builds a logger writing to w in the given format ("json" or console text).
func New(w io.Writer, format string) zerolog.Logger {
	if strings.EqualFold(format, "json") {
		return zerolog.New(w).With().Timestamp().Logger()
	}
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	return zerolog.New(cw).With().Timestamp().Logger()
}

// Setup installs the global logger and level.
func Setup(w io.Writer, cfg config.LogConfig, verbosity int) (zerolog.Logger, error) {
	lvl, err := Level(verbosity, cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = New(w, cfg.Format)
	return log.Logger, nil
}
