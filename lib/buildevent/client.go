// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bureau-foundation/nix-installer-action/lib/netutil"
	"github.com/bureau-foundation/nix-installer-action/lib/version"
)

// DefaultSocketPath is where determinate-nixd listens for API requests.
const DefaultSocketPath = "/nix/var/determinate/determinate-nixd.socket"

// sinceLayout matches JavaScript's Date.toISOString, which is what the
// daemon's query parser was written against: UTC, millisecond
// precision, literal Z.
const sinceLayout = "2006-01-02T15:04:05.000Z"

// Client reads the determinate-nixd event feed over its Unix socket.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client that dials socketPath for every request.
func NewClient(socketPath string) *Client {
	return &Client{httpClient: netutil.UnixSocketClient(socketPath)}
}

// NewClientForTesting creates a Client with a custom transport, so
// tests can point it at an httptest.Server.
func NewClientForTesting(transport http.RoundTripper) *Client {
	return &Client{httpClient: &http.Client{Transport: transport}}
}

// RecentEvents fetches the events recorded at or after since and
// parses them. There is no retry: a missing socket, a non-2xx status,
// or a body that is not JSON is returned as an error.
func (client *Client) RecentEvents(ctx context.Context, since time.Time) (ParseResult, error) {
	query := url.Values{"since": {FormatSince(since)}}
	requestURL := "http://localhost/events/recent?" + query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return ParseResult{}, fmt.Errorf("recent events: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", version.UserAgent())

	response, err := client.httpClient.Do(request)
	if err != nil {
		return ParseResult{}, fmt.Errorf("recent events: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return ParseResult{}, fmt.Errorf("recent events: HTTP %d: %s", response.StatusCode, netutil.ErrorBody(response.Body))
	}

	body, err := netutil.ReadResponse(response.Body)
	if err != nil {
		return ParseResult{}, fmt.Errorf("recent events: reading body: %w", err)
	}

	result, err := ParseJSON(body)
	if err != nil {
		return ParseResult{}, fmt.Errorf("recent events: %w", err)
	}
	return result, nil
}

// FormatSince renders an instant the way the event feed's since
// parameter expects it.
func FormatSince(since time.Time) string {
	return since.UTC().Format(sinceLayout)
}
