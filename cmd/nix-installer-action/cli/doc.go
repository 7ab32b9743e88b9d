// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for nix-installer-action.
//
// The central type is [Command], which represents a named subcommand with
// optional nested [Command.Subcommands], a [pflag.FlagSet] factory, and a
// Run function. The tree is assembled in the commands package and
// dispatched via [Command.Execute], which handles flag parsing,
// subcommand routing, and help output with examples.
//
// An unknown subcommand or flag is answered with the closest known name
// by Levenshtein edit distance (at most 3), see suggest.go.
//
// [NewCommandLogger] builds the slog logger every command logs through,
// and [ExitError] lets a command choose its exit code without an extra
// error line.
package cli
