// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the optional YAML configuration of the action's
// reporting steps.
//
// Configuration comes from a single file named by:
//   - the NIX_INSTALLER_ACTION_CONFIG environment variable, or
//   - the --config flag passed to the command
//
// Unlike most tools, having no file is normal: the action runs in CI
// with zero configuration, so [Load] returns [Default] when no file is
// named. A file only needs to mention the fields it changes.
//
// Path fields expand ${VAR} and ${VAR:-default}, which lets a file
// place the log cache under the runner's temporary directory:
//
//	logs:
//	  cache_dir: ${RUNNER_TEMP:-/tmp}/nix-build-logs
//
// Action inputs (summarize, annotate-hashes) are applied on top of the
// loaded configuration by the command, not here.
package config
