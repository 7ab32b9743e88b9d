// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildevent models the build events that determinate-nixd
// publishes on its local event feed, and fetches them.
//
// The feed is a JSON array of loosely-shaped records. Only two kinds
// carry timing and are kept as [Event] values: successful builds
// ([KindBuiltPath]) and failed builds ([KindBuildFailure]). A
// [KindHashMismatch] record is not kept, but flips
// [ParseResult].HasMismatches so callers can point the user at the
// fix-hashes tooling. Anything else (unknown kinds, other protocol
// versions, missing or mistyped fields, unparseable timestamps) is
// dropped without an error: the daemon may emit kinds this binary does
// not know about yet.
//
// Parsing is total: [Parse] accepts any value produced by
// encoding/json and never fails. Transport problems are a different
// matter. [Client.RecentEvents] returns an error when the socket is
// missing, the daemon answers with a non-2xx status, or the body is
// not JSON at all.
//
// Key exports:
//
//   - [Event], [Kind], [Timing] -- the validated event shape
//   - [Parse] and [ParseJSON] -- validation boundary for raw records
//   - [Client] -- GET /events/recent over the daemon's Unix socket
//   - [Tally] -- built/failed/unknown counts for diagnostics
package buildevent
