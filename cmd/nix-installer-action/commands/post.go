// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nix-installer-action/cmd/nix-installer-action/cli"
	"github.com/bureau-foundation/nix-installer-action/lib/actions"
	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
	"github.com/bureau-foundation/nix-installer-action/lib/config"
	"github.com/bureau-foundation/nix-installer-action/lib/fixhashes"
)

func postCommand(env *environment) *cli.Command {
	var flags commonFlags

	return &cli.Command{
		Name:    "post",
		Summary: "Annotate hash mismatches and write the build summary",
		Description: `Run after the job's steps. Annotates outdated fixed-output hashes
reported by "determinate-nixd fix hashes", then summarizes the builds
recorded since the main phase into the job summary: a timeline chart,
the logs of failed builds, and a tip when hashes were outdated.

Neither step fails the job: their errors are logged and the phase
succeeds.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("post", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			logger := flags.logger(env, "post")
			runner := env.runner()

			cfg, err := flags.loadConfig(env)
			if err != nil {
				return err
			}

			annotate, err := enabled(runner, inputAnnotateHashes, cfg.Annotations.Enabled)
			if err != nil {
				return err
			}
			summarize, err := enabled(runner, inputSummarize, cfg.Summary.Enabled)
			if err != nil {
				return err
			}

			if annotate {
				annotateMismatches(ctx, runner, logger)
			} else {
				logger.Debug("hash mismatch annotations are disabled")
			}

			if summarize {
				if err := summarizeExecution(ctx, cfg, runner, logger); err != nil {
					logger.Error("summarizing builds failed", "event", eventSummarizeError, "error", err)
				}
			} else {
				logger.Debug("build summary is disabled")
			}

			logger.Info("post phase complete", "event", eventConcludeJob)
			return nil
		},
	}
}

// annotateMismatches asks determinate-nixd for hash fixes and annotates
// them. Failures become a warning on the run.
func annotateMismatches(ctx context.Context, runner *actions.Runner, logger *slog.Logger) {
	report, err := fixhashes.Run(ctx)
	if err != nil {
		runner.Warning(fmt.Sprintf("Could not consume hash mismatch events: %v", err), actions.AnnotationProperties{})
		logger.Warn("reading hash fixes failed", "event", eventAnnotateError, "error", err)
		return
	}

	count := fixhashes.Annotate(report, runner)
	logger.Info("annotated hash mismatches", "event", eventFODAnnotate, "count", count)
}

// summarizeExecution writes the summary of the builds since the
// saved start time.
func summarizeExecution(ctx context.Context, cfg *config.Config, runner *actions.Runner, logger *slog.Logger) error {
	since, err := parseStartTime(runner.State(stateStartDatetime))
	if err != nil {
		return err
	}

	r := &reporter{
		config:        cfg,
		runner:        runner,
		logger:        logger,
		source:        buildevent.NewClient(cfg.Daemon.SocketPath),
		fetcher:       newLogFetcher(cfg, logger),
		writeLogLines: true,
	}
	report, err := r.summarize(ctx, since)
	if err != nil {
		return err
	}
	if report.Summary.Empty() {
		logger.Debug("no builds to summarize")
		return nil
	}

	if err := runner.WriteSummary(report.Summary); err != nil {
		if errors.Is(err, actions.ErrNoSummaryFile) {
			logger.Warn("job summary not written: not running in GitHub Actions")
			return nil
		}
		return err
	}
	logger.Info("job summary written", "event", eventSummaryWritten, "failed", report.Counts.Failed)
	return nil
}
