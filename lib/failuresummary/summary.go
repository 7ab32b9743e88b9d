// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package failuresummary turns failed build events into two reports
// built in one pass: plain log lines for the CI job log (unbounded, may
// contain ANSI color) and Markdown lines for the job summary panel
// (size-capped, ANSI stripped).
//
// Each failure becomes one chunk per report. Markdown chunks are
// admitted in order until the next one would push the summary past its
// budget; that chunk and every one after it are listed by derivation
// path in an omission note instead. Log chunks are never dropped.
// Output is a pure function of the events, the fetched logs, and the
// budget.
package failuresummary

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
)

// DefaultMaxMarkdownLength is the Markdown budget for the failure
// section. GitHub caps a step summary at 1024 KiB; the build timeline
// takes up to about 50 KB of that, and the rest of the summary chrome
// is small.
const DefaultMaxMarkdownLength = 995_000

// MissingLogPlaceholder stands in for a log the fetcher could not
// produce.
const MissingLogPlaceholder = "(failure reading the log for this derivation.)"

// logIndent is prepended to every log line in both reports. In
// Markdown, four spaces make the log an indented code block.
const logIndent = "    "

// redHeading colors the first log line red in the Actions log viewer.
const redHeading = "\x1b[38;2;255;0;0m"

// storeNamePattern splits a derivation path into its store-hash
// prefix, its name, and the .drv suffix, so the name can be bolded.
var storeNamePattern = regexp.MustCompile(`^(/nix[^-]*-)(.*)(\.drv)$`)

// LogFetcher produces the build log for a derivation.
//
// ok=false means no log is available and the report shows
// MissingLogPlaceholder in its place. A non-nil error is a hard
// failure: Summarize stops and returns it.
type LogFetcher interface {
	FetchLog(ctx context.Context, derivation string) (log string, ok bool, err error)
}

// LogFetcherFunc adapts a function to LogFetcher.
type LogFetcherFunc func(ctx context.Context, derivation string) (string, bool, error)

// FetchLog calls function(ctx, derivation).
func (function LogFetcherFunc) FetchLog(ctx context.Context, derivation string) (string, bool, error) {
	return function(ctx, derivation)
}

// Summary holds both renderings of a set of failures.
type Summary struct {
	// LogLines go to the CI job log, one call per line.
	LogLines []string

	// MarkdownLines are joined with "\n" into the job summary.
	MarkdownLines []string
}

// BuildFailures returns the failed builds in events, preserving order.
func BuildFailures(events []buildevent.Event) []buildevent.Event {
	var failures []buildevent.Event
	for _, event := range events {
		if event.Failed() {
			failures = append(failures, event)
		}
	}
	return failures
}

// chunk is one failure rendered for both reports.
type chunk struct {
	derivation    string
	logLines      []string
	markdownLines []string
}

// Summarize renders the failures in events. Returns nil when nothing
// failed. Logs are fetched one at a time, in failure order.
// maxMarkdownLength bounds the byte length of the joined Markdown
// lines, excluding the omission note.
func Summarize(ctx context.Context, events []buildevent.Event, fetcher LogFetcher, maxMarkdownLength int) (*Summary, error) {
	failures := BuildFailures(events)
	if len(failures) == 0 {
		return nil, nil
	}

	summary := &Summary{
		LogLines: []string{
			fmt.Sprintf("%sBuild logs from %d %s", redHeading, len(failures), plural(len(failures), "failure", "failures")),
			"The following build logs are also available in the Markdown summary:",
		},
		MarkdownLines: []string{
			"### Build error review :boom:",
			"> [!NOTE]",
			fmt.Sprintf("> %d %s failed", len(failures), plural(len(failures), "build", "builds")),
		},
	}

	chunks := make([]chunk, 0, len(failures))
	for _, failure := range failures {
		log, ok, err := fetcher.FetchLog(ctx, failure.Derivation)
		if err != nil {
			return nil, fmt.Errorf("fetching log for %s: %w", failure.Derivation, err)
		}
		if !ok {
			log = MissingLogPlaceholder
		}
		chunks = append(chunks, renderChunk(failure.Derivation, log))
	}

	markdownLength := len(strings.Join(summary.MarkdownLines, "\n"))
	var skipped []chunk
	for _, current := range chunks {
		chunkLength := len(strings.Join(current.markdownLines, "\n"))
		if len(skipped) > 0 || markdownLength+chunkLength > maxMarkdownLength {
			skipped = append(skipped, current)
			continue
		}
		summary.LogLines = append(summary.LogLines, current.logLines...)
		summary.MarkdownLines = append(summary.MarkdownLines, current.markdownLines...)
		markdownLength += chunkLength
	}

	if len(skipped) > 0 {
		summary.MarkdownLines = append(summary.MarkdownLines,
			"> [!NOTE]",
			fmt.Sprintf("> The following %s been omitted due to GitHub Actions summary length limitations.",
				plural(len(skipped), "failure has", "failures have")),
			"> The full logs are available in the post-run phase of the Nix Installer Action.",
		)
		summary.LogLines = append(summary.LogLines,
			"The following build logs are NOT available in the Markdown summary:")
		for _, omitted := range skipped {
			summary.MarkdownLines = append(summary.MarkdownLines, fmt.Sprintf("> * `%s`", omitted.derivation))
			summary.LogLines = append(summary.LogLines, omitted.logLines...)
		}
	}

	return summary, nil
}

// renderChunk renders one failure's log as a ::group:: fenced section
// for the job log and a collapsed <details> block for Markdown.
func renderChunk(derivation, log string) chunk {
	rendered := chunk{derivation: derivation}

	rendered.logLines = append(rendered.logLines, "::group::Failed build: "+derivation)
	rendered.markdownLines = append(rendered.markdownLines,
		fmt.Sprintf("<details><summary>Failure log: <code>%s</code></summary>",
			storeNamePattern.ReplaceAllString(derivation, "${1}<strong>${2}</strong>${3}")),
		"",
	)

	for _, line := range strings.Split(log, "\n") {
		indented := logIndent + line
		rendered.logLines = append(rendered.logLines, indented)
		rendered.markdownLines = append(rendered.markdownLines, ansi.Strip(indented))
	}

	rendered.logLines = append(rendered.logLines, "::endgroup::")
	rendered.markdownLines = append(rendered.markdownLines, "", "</details>", "")

	return rendered
}

func plural(count int, singular, pluralForm string) string {
	if count == 1 {
		return singular
	}
	return pluralForm
}
