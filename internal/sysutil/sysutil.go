// Package sysutil holds process-level helpers shared by cmd/server and config.
package sysutil

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogOptions configures the global logger.
type LogOptions struct {
	Level   string    // zerolog level name; "warning" is accepted for warn
	Pretty  bool      // human-readable console output instead of JSON
	Service string    // stamped on every line when set
	Version string    // stamped on every line when set
	Out     io.Writer // destination, required
}

// ParseLevel maps a level name to a zerolog level, defaulting to info for
// empty or unknown names.
func ParseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// SetupLogging replaces log.Logger and the global level and returns the
// level in effect.
func SetupLogging(opts LogOptions) zerolog.Level {
	lvl := ParseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	w := opts.Out
	if opts.Pretty {
		w = zerolog.ConsoleWriter{Out: opts.Out, TimeFormat: time.RFC3339}
	}
	lc := zerolog.New(w).With().Timestamp()
	if opts.Service != "" {
		lc = lc.Str("service", opts.Service)
	}
	if opts.Version != "" {
		lc = lc.Str("version", opts.Version)
	}
	log.Logger = lc.Logger()
	return lvl
}

// IsTruthy accepts 1, true, yes, y and on, in any case.
func IsTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// FirstNonEmpty returns the first value that is not blank, unmodified.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
