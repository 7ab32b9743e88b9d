// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/nix-installer-action/cmd/nix-installer-action/cli"
	"github.com/bureau-foundation/nix-installer-action/lib/actions"
	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
	"github.com/bureau-foundation/nix-installer-action/lib/mdpreview"
)

// defaultPreviewWidth is used when stdout is not a terminal.
const defaultPreviewWidth = 100

func summarizeCommand(env *environment) *cli.Command {
	var (
		flags          commonFlags
		since          string
		eventsFile     string
		socketPath     string
		width          int
		failOnFailures bool
	)

	return &cli.Command{
		Name:    "summarize",
		Summary: "Summarize the builds of a time window",
		Description: `Render the build summary the post phase writes, for any window.

Inside GitHub Actions the summary is appended to the job summary.
Elsewhere it is rendered to the terminal.

--since takes an RFC 3339 instant or a duration back from now (1h30m).
Without it, the start time saved by the main phase is used.`,
		Usage: "nix-installer-action summarize [--since <instant|duration>] [--events-file <path>] [flags]",
		Examples: []cli.Example{
			{
				Description: "Summarize the builds of the last 20 minutes",
				Command:     "nix-installer-action summarize --since 20m",
			},
			{
				Description: "Render a saved /events/recent response",
				Command:     "nix-installer-action summarize --events-file events.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("summarize", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			flagSet.StringVar(&since, "since", "", "start of the window: RFC 3339 instant or duration ago")
			flagSet.StringVar(&eventsFile, "events-file", "", "read events from a saved /events/recent response instead of the daemon")
			flagSet.StringVar(&socketPath, "socket", "", "determinate-nixd socket (default: daemon.socket_path)")
			flagSet.IntVar(&width, "width", 0, "terminal preview width (default: terminal width)")
			flagSet.BoolVar(&failOnFailures, "fail-on-failures", false, "exit 1 when any build failed")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}

			logger := flags.logger(env, "summarize")
			runner := env.runner()

			cfg, err := flags.loadConfig(env)
			if err != nil {
				return err
			}
			if socketPath != "" {
				cfg.Daemon.SocketPath = socketPath
			}

			var source eventSource = buildevent.NewClient(cfg.Daemon.SocketPath)
			if eventsFile != "" {
				source = savedEvents{path: eventsFile}
			}

			var start time.Time
			switch {
			case since != "":
				start, err = parseSince(since, env.clock.Now())
			case eventsFile == "":
				start, err = parseStartTime(runner.State(stateStartDatetime))
			}
			if err != nil {
				return err
			}

			r := &reporter{
				config:        cfg,
				runner:        runner,
				logger:        logger,
				source:        source,
				fetcher:       newLogFetcher(cfg, logger),
				writeLogLines: runner.InActions(),
			}
			report, err := r.summarize(ctx, start)
			if err != nil {
				return err
			}

			if report.Summary.Empty() {
				fmt.Fprintln(env.stdout, "No builds to summarize.")
			} else if err := runner.WriteSummary(report.Summary); err != nil {
				if !errors.Is(err, actions.ErrNoSummaryFile) {
					return err
				}
				fmt.Fprint(env.stdout, mdpreview.Render(report.Summary.String(), previewOptions(env, width)))
			} else {
				logger.Info("job summary written", "event", eventSummaryWritten, "failed", report.Counts.Failed)
			}

			if failOnFailures && report.Counts.Failed > 0 {
				return &cli.ExitError{Code: 1}
			}
			return nil
		},
	}
}

// parseSince accepts an RFC 3339 instant, or a duration counted back
// from now.
func parseSince(value string, now time.Time) (time.Time, error) {
	if instant, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return instant, nil
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--since %q is neither an RFC 3339 instant nor a duration", value)
	}
	if duration < 0 {
		return time.Time{}, fmt.Errorf("--since %q: duration must not be negative", value)
	}
	return now.Add(-duration), nil
}

// previewOptions sizes and colors the terminal preview for stdout.
// Anything that is not a terminal gets plain text.
func previewOptions(env *environment, width int) mdpreview.Options {
	options := mdpreview.Options{Width: width, Profile: termenv.Ascii}

	file, ok := env.stdout.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		if options.Width == 0 {
			options.Width = defaultPreviewWidth
		}
		return options
	}

	options.Profile = termenv.EnvColorProfile()
	if options.Width == 0 {
		options.Width = defaultPreviewWidth
		if terminalWidth, _, err := term.GetSize(int(file.Fd())); err == nil && terminalWidth > 0 {
			options.Width = terminalWidth
		}
	}
	return options
}
