// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger creates the structured logger for a command. When
// stderr is a terminal it uses slog.TextHandler for human-readable
// output; when stderr is piped (every GitHub Actions step) it uses
// slog.JSONHandler. debug lowers the level from Info to Debug.
//
// Callers scope the logger with command-specific context via With():
//
//	logger := cli.NewCommandLogger(debug).With("command", "post")
func NewCommandLogger(debug bool) *slog.Logger {
	return newLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), debug)
}

func newLogger(output io.Writer, terminal, debug bool) *slog.Logger {
	options := &slog.HandlerOptions{Level: slog.LevelInfo}
	if debug {
		options.Level = slog.LevelDebug
	}
	var handler slog.Handler
	if terminal {
		handler = slog.NewTextHandler(output, options)
	} else {
		handler = slog.NewJSONHandler(output, options)
	}
	return slog.New(handler)
}
