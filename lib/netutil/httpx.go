// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides HTTP helpers for talking to local daemons
// over Unix domain sockets.
//
// Response body reads are bounded at MaxResponseSize. The event feed
// is the largest thing this binary reads over HTTP, and a runaway
// response must not take the post-run phase of a CI job down with an
// out-of-memory kill.
package netutil

import (
	"context"
	"io"
	"net"
	"net/http"
)

// MaxResponseSize bounds response body reads: 64 MB. A busy job can
// produce tens of thousands of build events; each is a few hundred
// bytes of JSON.
const MaxResponseSize int64 = 64 << 20

// UnixSocketClient returns an http.Client whose every request is
// dialed to socketPath, whatever host the request URL names. Callers
// use a placeholder host such as "http://localhost/...".
func UnixSocketClient(socketPath string) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, network, address string) (net.Conn, error) {
				return (&net.Dialer{}).DialContext(ctx, "unix", socketPath)
			},
		},
	}
}

// ReadResponse reads a response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are ignored: a
// partial or empty body is still useful in an error message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
