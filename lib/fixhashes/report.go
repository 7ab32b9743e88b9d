// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package fixhashes turns the output of "determinate-nixd fix hashes
// --json" into source annotations. Each report entry pins a fixed-output
// derivation hash mismatch to the file and line holding the stale hash,
// along with the hash that should replace it.
//
// The flow is [Run] (or [ReadFile] for a saved report), then [Annotate].
// Parsing is strict about the report version: a report other than "v1"
// fails with [ErrUnsupportedVersion] rather than being half-understood.
package fixhashes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/nix-installer-action/lib/nix"
)

// ReportVersion is the only report format this package reads.
const ReportVersion = "v1"

// ErrUnsupportedVersion is returned for a report whose version is not
// ReportVersion.
var ErrUnsupportedVersion = errors.New("unsupported fix hashes report version")

// Report is the top-level fix hashes document.
type Report struct {
	Version string    `json:"version"`
	Files   []FileFix `json:"files"`
}

// FileFix groups the fixes for one source file, relative to the
// repository root.
type FileFix struct {
	File  string `json:"file"`
	Fixes []Fix  `json:"fixes"`
}

// Fix is one hash expression at a source line. Found is the expression
// text as written. One expression can feed several derivations, each
// with its own mismatch.
type Fix struct {
	Line       int        `json:"line"`
	Found      string     `json:"found"`
	Mismatches []Mismatch `json:"mismatches"`
}

// Mismatch names a derivation whose output hash did not match, and the
// hash to use instead.
type Mismatch struct {
	Derivation  string `json:"derivation"`
	Replacement string `json:"replacement"`

	// Expected is the field name older daemons used for Replacement.
	Expected string `json:"expected,omitempty"`
}

// Suggestion returns the replacement hash.
func (mismatch Mismatch) Suggestion() string {
	if mismatch.Replacement != "" {
		return mismatch.Replacement
	}
	return mismatch.Expected
}

// FixCount returns the total number of fixes across all files.
func (report *Report) FixCount() int {
	count := 0
	for _, file := range report.Files {
		count += len(file.Fixes)
	}
	return count
}

// Parse decodes a report. Comments and trailing commas are accepted so
// that hand-edited reports load too.
func Parse(data []byte) (*Report, error) {
	var report Report
	if err := json.Unmarshal(jsonc.ToJSON(data), &report); err != nil {
		return nil, fmt.Errorf("parsing fix hashes report: %w", err)
	}
	if report.Version != ReportVersion {
		return nil, fmt.Errorf("%w: %q (want %q)", ErrUnsupportedVersion, report.Version, ReportVersion)
	}
	return &report, nil
}

// ReadFile reads and parses a saved report.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	report, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return report, nil
}

// Run asks the Determinate daemon for the hash fixes of the builds it
// has seen.
func Run(ctx context.Context) (*Report, error) {
	output, err := nix.RunDeterminate(ctx, "fix", "hashes", "--json")
	if err != nil {
		var commandError *nix.CommandError
		if errors.As(err, &commandError) {
			return nil, fmt.Errorf("determinate-nixd fix hashes returned non-zero exit code %d with the following error output:\n%s",
				commandError.ExitCode, commandError.Stderr)
		}
		return nil, err
	}
	return Parse([]byte(output))
}
