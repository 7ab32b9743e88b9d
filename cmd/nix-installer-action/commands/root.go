// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the nix-installer-action command tree.
//
// The action runs the binary twice per job: "main" before the user's
// steps record when the job started, and "post" after them reads the
// daemon's build events for that window and writes the job summary.
// "summarize" and "annotate" expose the two halves of post for use
// outside a workflow.
package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/nix-installer-action/cmd/nix-installer-action/cli"
	"github.com/bureau-foundation/nix-installer-action/lib/actions"
	"github.com/bureau-foundation/nix-installer-action/lib/clock"
	"github.com/bureau-foundation/nix-installer-action/lib/config"
	"github.com/bureau-foundation/nix-installer-action/lib/version"
)

// environment is everything a command reads or writes besides its
// flags. Tests substitute each part.
type environment struct {
	getenv    func(string) string
	stdout    io.Writer
	clock     clock.Clock
	newLogger func(debug bool) *slog.Logger
}

func processEnvironment() *environment {
	return &environment{
		getenv:    os.Getenv,
		stdout:    os.Stdout,
		clock:     clock.Real(),
		newLogger: cli.NewCommandLogger,
	}
}

// runner returns a workflow command writer over the environment.
func (env *environment) runner() *actions.Runner {
	return actions.NewRunner(env.getenv, env.stdout)
}

// Root builds and returns the complete command tree.
func Root() *cli.Command {
	return newRoot(processEnvironment())
}

func newRoot(env *environment) *cli.Command {
	return &cli.Command{
		Name: "nix-installer-action",
		Description: `Build reporting for the Determinate Nix Installer action.

Records when a job starts, then summarizes the Nix builds the
determinate-nixd daemon saw during the job: a timeline chart, the logs
of failed builds, and annotations for outdated fixed-output hashes.`,
		Subcommands: []*cli.Command{
			mainCommand(env),
			postCommand(env),
			summarizeCommand(env),
			annotateCommand(env),
			versionCommand(env),
		},
		Examples: []cli.Example{
			{
				Description: "Preview the summary of builds from the last hour",
				Command:     "nix-installer-action summarize --since 1h",
			},
			{
				Description: "Replay a saved event feed",
				Command:     "nix-installer-action summarize --events-file events.json",
			},
		},
	}
}

func versionCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Run: func(_ context.Context, args []string) error {
			fmt.Fprintf(env.stdout, "nix-installer-action %s\n", version.Full())
			return nil
		},
	}
}

// commonFlags are accepted by every command that reads configuration.
type commonFlags struct {
	configPath string
	debug      bool
}

func (flags *commonFlags) addFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&flags.configPath, "config", "",
		"configuration file (default: $"+config.EnvironmentVariable+", then built-in defaults)")
	flagSet.BoolVar(&flags.debug, "debug", false,
		"log at debug level (also enabled by RUNNER_DEBUG=1)")
}

// logger returns the command logger, at debug level when --debug is
// given or the workflow runs with step debugging.
func (flags *commonFlags) logger(env *environment, command string) *slog.Logger {
	debug := flags.debug || env.runner().DebugEnabled()
	return env.newLogger(debug).With("command", command)
}

// loadConfig reads --config, then the file named by
// NIX_INSTALLER_ACTION_CONFIG, then falls back to defaults.
func (flags *commonFlags) loadConfig(env *environment) (*config.Config, error) {
	path := flags.configPath
	if path == "" {
		path = env.getenv(config.EnvironmentVariable)
	}

	var cfg *config.Config
	var err error
	if path == "" {
		cfg, err = config.Load()
	} else {
		cfg, err = config.LoadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// enabled resolves a feature switch: a set action input wins over the
// configuration file.
func enabled(runner *actions.Runner, input string, configured bool) (bool, error) {
	value, set, err := runner.BoolInput(input)
	if err != nil {
		return false, err
	}
	if set {
		return value, nil
	}
	return configured, nil
}
