// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import "time"

// ProtocolVersion is the only event protocol version this package
// understands. Records carrying any other "v" value are dropped.
const ProtocolVersion = "1"

// Kind is the event discriminant, carried in the "c" field on the wire.
type Kind string

const (
	// KindBuiltPath reports a derivation that built successfully.
	KindBuiltPath Kind = "BuiltPathResponseEventV1"

	// KindBuildFailure reports a derivation whose build failed.
	KindBuildFailure Kind = "BuildFailureResponseEventV1"

	// KindHashMismatch reports a fixed-output derivation whose
	// declared hash did not match what was fetched. These records are
	// never returned as events; see ParseResult.HasMismatches.
	KindHashMismatch Kind = "HashMismatchResponseEventV1"
)

// Timing is the timing block of a built or failed derivation.
type Timing struct {
	// StartTime is when the build started.
	StartTime time.Time

	// DurationSeconds is the build's wall-clock duration, copied
	// verbatim from the feed. It may be fractional and may be large
	// (multi-day builds are not unheard of on slow emulated systems).
	DurationSeconds float64
}

// Event is one validated build outcome. Values are constructed by
// Parse and are never mutated afterwards; renderers that need a
// different order sort a copy.
type Event struct {
	// Version is the protocol version tag. Always ProtocolVersion.
	Version string

	// Kind is KindBuiltPath or KindBuildFailure.
	Kind Kind

	// Derivation is the store path of the .drv, for example
	// "/nix/store/rz9hrpay90sjrid5hx3x8v606ji679xa-dep-1.drv".
	Derivation string

	Timing Timing
}

// Failed reports whether the event is a build failure.
func (event Event) Failed() bool {
	return event.Kind == KindBuildFailure
}

// ParseResult is the output of one parse of the event feed.
type ParseResult struct {
	// Events holds the retained events in feed order. The feed is not
	// guaranteed to be chronological.
	Events []Event

	// HasMismatches is true when at least one hash-mismatch record was
	// present in the feed.
	HasMismatches bool
}

// Counts is the number of events of each outcome.
type Counts struct {
	Built   int
	Failed  int
	Unknown int
}

// Tally counts built and failed events. Events with any other kind
// count as Unknown; Parse never produces those, but callers building
// events by hand can.
func Tally(events []Event) Counts {
	var counts Counts
	for _, event := range events {
		switch event.Kind {
		case KindBuiltPath:
			counts.Built++
		case KindBuildFailure:
			counts.Failed++
		default:
			counts.Unknown++
		}
	}
	return counts
}
