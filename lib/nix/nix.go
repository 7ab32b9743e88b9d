// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package nix provides typed access to the binaries of a Determinate
// Nix installation. It centralizes binary resolution and gives every
// invocation the same error shape.
//
// The action uses two binaries:
//   - nix: "nix log <drv>" to read the build log of a failed derivation
//   - determinate-nixd: "fix hashes --json" to collect hash mismatch fixes
//
// Both are resolved the same way: PATH first, then the directories the
// Determinate installer writes to, which a fresh runner may not have on
// PATH yet.
package nix

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// installDirectories are searched, in order, after PATH. The profile
// holds nix itself; determinate-nixd is installed to /usr/local/bin.
var installDirectories = []string{
	"/nix/var/nix/profiles/default/bin",
	"/usr/local/bin",
}

// FindBinary resolves a binary by name (e.g., "nix",
// "determinate-nixd"), checking PATH first and then the Determinate
// installation directories. Returns the absolute path to the binary.
func FindBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}

	for _, directory := range installDirectories {
		candidate := filepath.Join(directory, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s not found on PATH or in %s (is Determinate Nix installed?)",
		name, strings.Join(installDirectories, ", "))
}

// RunDeterminate executes "determinate-nixd <args>" and returns stdout.
func RunDeterminate(ctx context.Context, args ...string) (string, error) {
	return run(ctx, "determinate-nixd", args)
}

func run(ctx context.Context, binaryName string, args []string) (string, error) {
	binaryPath, err := FindBinary(binaryName)
	if err != nil {
		return "", err
	}
	return RunBinary(ctx, binaryPath, args...)
}

// RunBinary executes the binary at binaryPath and returns stdout. A
// command that starts but fails returns a *CommandError.
func RunBinary(ctx context.Context, binaryPath string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	command := exec.CommandContext(ctx, binaryPath, args...)
	command.Stdout = &stdout
	command.Stderr = &stderr

	if err := command.Run(); err != nil {
		return "", formatError(filepath.Base(binaryPath), args, &stderr, err)
	}
	return stdout.String(), nil
}

// CommandError describes a command that ran and did not succeed.
type CommandError struct {
	// Command is the binary name and its arguments.
	Command string

	// ExitCode is the process exit status, or -1 when the process was
	// killed by a signal (including context cancellation).
	ExitCode int

	// Stderr is the trimmed diagnostic output.
	Stderr string

	Err error
}

func (err *CommandError) Error() string {
	if err.Stderr != "" {
		return fmt.Sprintf("%s: exit code %d: %s", err.Command, err.ExitCode, err.Stderr)
	}
	return fmt.Sprintf("%s: %v", err.Command, err.Err)
}

func (err *CommandError) Unwrap() error {
	return err.Err
}

// formatError builds the error for a failed command, preferring stderr
// (which carries the actual nix diagnostic) over the generic exec error.
// Failures to start the process are returned wrapped but untyped.
func formatError(binaryName string, args []string, stderr *bytes.Buffer, err error) error {
	commandString := binaryName + " " + strings.Join(args, " ")

	var exitError *exec.ExitError
	if !errors.As(err, &exitError) {
		return fmt.Errorf("%s: %w", commandString, err)
	}
	return &CommandError{
		Command:  commandString,
		ExitCode: exitError.ExitCode(),
		Stderr:   strings.TrimSpace(stderr.String()),
		Err:      err,
	}
}
