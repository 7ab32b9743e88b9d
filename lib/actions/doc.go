// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package actions speaks the GitHub Actions runner protocol: workflow
// commands on stdout (log lines and annotations), action
// inputs from INPUT_* variables, state shared between the main and post
// phases through the GITHUB_STATE file, and the Markdown job summary
// appended to GITHUB_STEP_SUMMARY.
//
// [Runner] carries the environment lookup and the command stream, so
// tests drive it with a map and a bytes.Buffer instead of the process
// environment.
package actions
