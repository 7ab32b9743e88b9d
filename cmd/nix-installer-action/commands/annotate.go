// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nix-installer-action/cmd/nix-installer-action/cli"
	"github.com/bureau-foundation/nix-installer-action/lib/fixhashes"
)

func annotateCommand(env *environment) *cli.Command {
	var (
		flags      commonFlags
		reportPath string
	)

	return &cli.Command{
		Name:    "annotate",
		Summary: "Annotate outdated fixed-output hashes",
		Description: `Emit one error annotation per hash fix, at the file and line of the
outdated hash. Fixes come from "determinate-nixd fix hashes --json",
or from a saved report with --report (JSON or JSONC).`,
		Examples: []cli.Example{
			{
				Description: "Annotate from a saved report",
				Command:     "nix-installer-action annotate --report fixes.json",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("annotate", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			flagSet.StringVar(&reportPath, "report", "", "read a saved fix hashes report instead of running determinate-nixd")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			logger := flags.logger(env, "annotate")

			var report *fixhashes.Report
			var err error
			if reportPath != "" {
				report, err = fixhashes.ReadFile(reportPath)
			} else {
				report, err = fixhashes.Run(ctx)
			}
			if err != nil {
				return err
			}

			count := fixhashes.Annotate(report, env.runner())
			logger.Info("annotated hash mismatches", "event", eventFODAnnotate, "count", count)
			fmt.Fprintf(env.stdout, "%d %s annotated\n", count, pluralize(count, "fix", "fixes"))
			return nil
		},
	}
}

func pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}
