// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package nix

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// LogReader reads derivation build logs with "nix log". It satisfies
// failuresummary.LogFetcher.
type LogReader struct {
	// Binary overrides the nix binary. Empty means FindBinary("nix").
	Binary string

	// Timeout bounds each invocation. Zero means no bound beyond the
	// caller's context.
	Timeout time.Duration

	// Logger receives a debug line for every log that could not be
	// read. Nil discards.
	Logger *slog.Logger
}

// FetchLog returns the build log of derivation. A nix invocation that
// fails or exceeds Timeout reports ok=false. Errors are reserved for
// problems that would affect every derivation: no nix binary, or a
// cancelled ctx.
func (reader *LogReader) FetchLog(ctx context.Context, derivation string) (string, bool, error) {
	binary := reader.Binary
	if binary == "" {
		resolved, err := FindBinary("nix")
		if err != nil {
			return "", false, err
		}
		binary = resolved
	}

	runContext := ctx
	if reader.Timeout > 0 {
		var cancel context.CancelFunc
		runContext, cancel = context.WithTimeout(ctx, reader.Timeout)
		defer cancel()
	}

	output, err := RunBinary(runContext, binary, "log", derivation)
	if err == nil {
		return output, true, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	var commandError *CommandError
	if !errors.As(err, &commandError) {
		return "", false, err
	}
	if reader.Logger != nil {
		reader.Logger.Debug("build log unavailable",
			"derivation", derivation,
			"exit_code", commandError.ExitCode,
			"stderr", commandError.Stderr,
			"timed_out", runContext.Err() != nil,
		)
	}
	return "", false, nil
}
