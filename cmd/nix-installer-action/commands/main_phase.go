// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nix-installer-action/cmd/nix-installer-action/cli"
	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
)

func mainCommand(env *environment) *cli.Command {
	var flags commonFlags

	return &cli.Command{
		Name:    "main",
		Summary: "Record the start of the job's build window",
		Description: `Save the current instant in the action state. The post phase
summarizes the builds determinate-nixd recorded from this instant on.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("main", pflag.ContinueOnError)
			flags.addFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			logger := flags.logger(env, "main")
			runner := env.runner()

			start := buildevent.FormatSince(env.clock.Now())
			if err := runner.SaveState(stateStartDatetime, start); err != nil {
				return err
			}
			logger.Info("recorded build window start", "event", eventStartRecorded, "start", start)
			return nil
		},
	}
}
