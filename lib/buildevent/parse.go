// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buildevent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// startTimeLayouts are tried in order when parsing timing.startTime.
// The daemon emits RFC 3339 in UTC; the date-only form is accepted so
// hand-written fixtures stay readable.
var startTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Parse validates raw, the result of decoding the event feed with
// encoding/json, and returns the events it could make sense of. It
// never fails: a raw value that is not an array yields an empty
// result, and malformed elements are skipped.
func Parse(raw any) ParseResult {
	var result ParseResult

	records, ok := raw.([]any)
	if !ok {
		return result
	}

	for _, record := range records {
		fields, ok := record.(map[string]any)
		if !ok {
			continue
		}
		if version, _ := fields["v"].(string); version != ProtocolVersion {
			continue
		}

		kind, _ := fields["c"].(string)
		switch Kind(kind) {
		case KindHashMismatch:
			result.HasMismatches = true
		case KindBuiltPath, KindBuildFailure:
			if event, ok := parseTimed(Kind(kind), fields); ok {
				result.Events = append(result.Events, event)
			}
		}
	}

	return result
}

// ParseJSON decodes a feed response body and parses it. The only
// error is a body that is not valid JSON; well-formed JSON of the
// wrong shape parses to an empty result like Parse.
func ParseJSON(data []byte) (ParseResult, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var raw any
	if err := decoder.Decode(&raw); err != nil {
		return ParseResult{}, fmt.Errorf("decoding event feed: %w", err)
	}
	return Parse(raw), nil
}

// parseTimed builds an Event from a record of one of the two timed
// kinds. Every field is type-checked before use.
func parseTimed(kind Kind, fields map[string]any) (Event, bool) {
	derivation, ok := fields["drv"].(string)
	if !ok {
		return Event{}, false
	}

	timing, ok := fields["timing"].(map[string]any)
	if !ok {
		return Event{}, false
	}

	startText, ok := timing["startTime"].(string)
	if !ok {
		return Event{}, false
	}
	duration, ok := number(timing["durationSeconds"])
	if !ok {
		return Event{}, false
	}
	startTime, ok := parseStartTime(startText)
	if !ok {
		return Event{}, false
	}

	return Event{
		Version:    ProtocolVersion,
		Kind:       kind,
		Derivation: derivation,
		Timing: Timing{
			StartTime:       startTime,
			DurationSeconds: duration,
		},
	}, true
}

// number accepts the numeric representations encoding/json can
// produce (float64, or json.Number with UseNumber) plus plain Go
// integers for callers assembling raw records in code.
func number(value any) (float64, bool) {
	switch typed := value.(type) {
	case float64:
		if math.IsNaN(typed) {
			return 0, false
		}
		return typed, true
	case json.Number:
		parsed, err := typed.Float64()
		if err != nil {
			return 0, false
		}
		return parsed, true
	case int:
		return float64(typed), true
	case int64:
		return float64(typed), true
	}
	return 0, false
}

func parseStartTime(text string) (time.Time, bool) {
	for _, layout := range startTimeLayouts {
		if parsed, err := time.Parse(layout, text); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}
