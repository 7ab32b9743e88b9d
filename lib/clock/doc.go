// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts the wall clock so that code recording
// instants can be tested with fixed times.
//
// The main phase records when it started so the post phase can ask the
// daemon for every event since then, and "summarize --since 1h" counts
// back from now. Tests inject [Fake] to pin those instants and check
// the exact values sent and saved.
package clock
