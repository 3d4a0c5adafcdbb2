/*
Copyright © 2026 The azctl Authors
SPDX-License-Identifier: Apache-2.0
*/

// Package logging configures the process-wide slog logger.
//
// Logs always go to stderr so that command output on stdout stays machine readable.
// The level is chosen from the global verbosity flags and can be overridden with the
// LOG_LEVEL environment variable (debug, info, warn, error).
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// EnvLogLevel overrides the level selected by flags.
const EnvLogLevel = "LOG_LEVEL"

// Options selects the logger level and handler.
type Options struct {
	Debug          bool
	Verbose        bool
	OnlyShowErrors bool
	JSON           bool
}

// Level resolves the effective level for the options. LOG_LEVEL wins when set to a
// recognised value.
func (o Options) Level() slog.Level {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		return lvl
	}
	switch {
	case o.Debug:
		return slog.LevelDebug
	case o.Verbose:
		return slog.LevelInfo
	case o.OnlyShowErrors:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// ParseLevel converts a level name into a slog.Level.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// NewLogger builds a logger writing to w.
func NewLogger(w io.Writer, opts Options) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level(),
		AddSource: opts.Debug,
	}
	if opts.JSON {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// SetDefaultCLILogger installs a stderr logger configured from opts as the slog default.
func SetDefaultCLILogger(opts Options) {
	slog.SetDefault(NewLogger(os.Stderr, opts))
}

// SetDefaultStructuredLogger installs a JSON stderr logger tagged with the program name
// and version.
func SetDefaultStructuredLogger(name, version string) {
	opts := Options{JSON: true}
	logger := NewLogger(os.Stderr, opts).With(
		slog.String("module", name),
		slog.String("version", version),
	)
	slog.SetDefault(logger)
}
