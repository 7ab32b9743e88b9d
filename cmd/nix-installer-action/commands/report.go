// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bureau-foundation/nix-installer-action/lib/actions"
	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
	"github.com/bureau-foundation/nix-installer-action/lib/config"
	"github.com/bureau-foundation/nix-installer-action/lib/failuresummary"
	"github.com/bureau-foundation/nix-installer-action/lib/logcache"
	"github.com/bureau-foundation/nix-installer-action/lib/nix"
	"github.com/bureau-foundation/nix-installer-action/lib/timeline"
)

const summaryHeader = "## ![](https://avatars.githubusercontent.com/u/80991770?s=30) Determinate Nix build summary"

const feedbackFooter = "_Please let us know what you think about this summary on the [Determinate Systems Discord](https://determinate.systems/discord)._"

var mismatchTip = []string{
	"> [!TIP]",
	"> Some derivations failed to build due to the hash in the Nix expression being outdated.",
	"> To find out how to automatically update your Nix expressions in GitHub Actions, see [our guide](https://docs.determinate.systems/guides/automatically-fix-hashes-in-github-actions).",
	"",
}

// eventSource yields the build events recorded since an instant.
// *buildevent.Client is the production source.
type eventSource interface {
	RecentEvents(ctx context.Context, since time.Time) (buildevent.ParseResult, error)
}

// savedEvents replays a saved /events/recent response. The window was
// fixed when the response was saved, so since is ignored.
type savedEvents struct {
	path string
}

func (source savedEvents) RecentEvents(_ context.Context, _ time.Time) (buildevent.ParseResult, error) {
	data, err := os.ReadFile(source.path)
	if err != nil {
		return buildevent.ParseResult{}, fmt.Errorf("reading saved events: %w", err)
	}
	result, err := buildevent.ParseJSON(data)
	if err != nil {
		return buildevent.ParseResult{}, fmt.Errorf("%s: %w", source.path, err)
	}
	return result, nil
}

// reporter turns the events of one window into the job summary.
type reporter struct {
	config  *config.Config
	runner  *actions.Runner
	logger  *slog.Logger
	source  eventSource
	fetcher failuresummary.LogFetcher

	// writeLogLines sends the failure logs to the job log as well.
	writeLogLines bool
}

// buildReport is what one summarization produced.
type buildReport struct {
	Counts  buildevent.Counts
	Summary *actions.Summary
}

// summarize fetches the events since the given instant and renders
// the summary. An empty Summary means there was nothing to report.
func (r *reporter) summarize(ctx context.Context, since time.Time) (*buildReport, error) {
	result, err := r.source.RecentEvents(ctx, since)
	if err != nil {
		return nil, err
	}

	counts := buildevent.Tally(result.Events)
	r.logger.Info("build outcomes",
		"event", eventBuildCounts,
		"nix_builds_succeeded", counts.Built,
		"nix_builds_failed", counts.Failed,
		"nix_builds_unknown_event", counts.Unknown,
	)

	var chart string
	hasChart := false
	if r.config.Timeline.Enabled {
		chart, hasChart = timeline.ReportWithLimit(result.Events, r.config.Timeline.MaxDiagramLength)
	}

	failures, err := failuresummary.Summarize(ctx, result.Events, r.fetcher, r.config.Summary.MaxMarkdownLength)
	if err != nil {
		return nil, err
	}

	summary := &actions.Summary{}
	if !hasChart && failures == nil && !result.HasMismatches {
		return &buildReport{Counts: counts, Summary: summary}, nil
	}

	summary.AddRaw(summaryHeader, true)
	summary.AddRaw("\n", true)

	if hasChart {
		summary.AddRaw(chart, true)
		summary.AddRaw("\n", true)
	}

	if result.HasMismatches {
		summary.AddRaw(strings.Join(mismatchTip, "\n"), true)
	}

	if failures != nil {
		if r.writeLogLines {
			for _, line := range failures.LogLines {
				r.runner.Info(line)
			}
		}
		summary.AddRaw(strings.Join(failures.MarkdownLines, "\n"), true)
		summary.AddRaw("\n", true)
	}

	summary.AddRaw("---", true)
	summary.AddRaw(feedbackFooter, true)
	summary.AddRaw("\n", true)

	return &buildReport{Counts: counts, Summary: summary}, nil
}

// newLogFetcher reads logs with "nix log", through the on-disk cache
// when logs.cache_dir is set. A cache that cannot be opened is logged
// and skipped.
func newLogFetcher(cfg *config.Config, logger *slog.Logger) failuresummary.LogFetcher {
	reader := &nix.LogReader{
		Timeout: cfg.FetchTimeoutDuration(),
		Logger:  logger,
	}
	if cfg.Logs.CacheDirectory == "" {
		return reader
	}

	cache, err := logcache.New(cfg.Logs.CacheDirectory, reader, logcache.Options{
		Compression: cfg.CacheCompression(),
		Logger:      logger,
	})
	if err != nil {
		logger.Warn("build log cache unavailable",
			"event", eventLogCacheUnavailable,
			"directory", cfg.Logs.CacheDirectory,
			"error", err,
		)
		return reader
	}
	return cache
}

// parseStartTime reads the start instant saved by the main phase.
func parseStartTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("no build start time was saved (did the main phase run?)")
	}
	start, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing saved build start time: %w", err)
	}
	return start, nil
}
