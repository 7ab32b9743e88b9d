// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [SocketDir] creates a temporary directory in /tmp suitable for Unix
// domain sockets. Unix domain sockets have a 108-byte path limit
// (sun_path in sockaddr_un), and t.TempDir() can produce paths longer
// than that on CI runners with deep workspace directories.
//
// [ServeUnix] runs an http.Handler on a Unix socket inside such a
// directory, for exercising clients that talk to determinate-nixd.
//
// [FakeBinary] writes an executable shell script into a temporary
// directory and prepends that directory to PATH, so code that shells
// out to nix or determinate-nixd can be tested without either
// installed. Tests that use it cannot run in parallel with other
// tests in the same package (it calls t.Setenv).
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
