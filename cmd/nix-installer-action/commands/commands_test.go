// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/nix-installer-action/lib/clock"
)

// testStart is the fake clock's time in every command test.
var testStart = time.Date(2025, 4, 11, 14, 38, 0, 123_000_000, time.UTC)

// testEnvironment is an environment whose variables, stdout, and log
// output are all in memory.
type testEnvironment struct {
	*environment
	vars   map[string]string
	stdout *bytes.Buffer
	logs   *bytes.Buffer
}

func newTestEnvironment(t *testing.T, vars map[string]string) *testEnvironment {
	t.Helper()
	if vars == nil {
		vars = map[string]string{}
	}
	testEnv := &testEnvironment{
		vars:   vars,
		stdout: &bytes.Buffer{},
		logs:   &bytes.Buffer{},
	}
	testEnv.environment = &environment{
		getenv: func(name string) string { return testEnv.vars[name] },
		stdout: testEnv.stdout,
		clock:  clock.Fake(testStart),
		newLogger: func(debug bool) *slog.Logger {
			return slog.New(slog.NewJSONHandler(testEnv.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		},
	}
	return testEnv
}

func (testEnv *testEnvironment) execute(args ...string) error {
	root := newRoot(testEnv.environment)
	root.HelpOutput = &bytes.Buffer{}
	return root.Execute(context.Background(), args)
}

// writeFile writes content to name in a fresh temp dir and returns
// the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestEventNamesAreDistinct(t *testing.T) {
	t.Parallel()

	names := []string{
		eventStartRecorded,
		eventFODAnnotate,
		eventAnnotateError,
		eventBuildCounts,
		eventSummaryWritten,
		eventSummarizeError,
		eventLogCacheUnavailable,
		eventConcludeJob,
	}
	seen := make(map[string]bool)
	for _, name := range names {
		if seen[name] {
			t.Errorf("event name %q is used twice", name)
		}
		seen[name] = true
	}
}

func TestMain_SavesStartTime(t *testing.T) {
	t.Parallel()

	statePath := writeFile(t, "state", "")
	testEnv := newTestEnvironment(t, map[string]string{"GITHUB_STATE": statePath})

	if err := testEnv.execute("main"); err != nil {
		t.Fatalf("main: %v", err)
	}

	state := readFile(t, statePath)
	if !strings.HasPrefix(state, "DETERMINATE_NIXD_START_DATETIME<<ghadelimiter_") {
		t.Errorf("state file = %q, want heredoc entry", state)
	}
	if !strings.Contains(state, "\n2025-04-11T14:38:00.123Z\n") {
		t.Errorf("state file = %q, want the fake clock's instant", state)
	}
	if !strings.Contains(testEnv.logs.String(), `"event":"start_recorded"`) {
		t.Errorf("logs missing start_recorded event:\n%s", testEnv.logs.String())
	}
}

func TestMain_LegacyStateCommand(t *testing.T) {
	t.Parallel()

	testEnv := newTestEnvironment(t, nil)
	if err := testEnv.execute("main"); err != nil {
		t.Fatalf("main: %v", err)
	}

	want := "::save-state name=DETERMINATE_NIXD_START_DATETIME::2025-04-11T14:38:00.123Z\n"
	if testEnv.stdout.String() != want {
		t.Errorf("stdout = %q, want %q", testEnv.stdout.String(), want)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	testEnv := newTestEnvironment(t, nil)
	if err := testEnv.execute("version"); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(testEnv.stdout.String(), "nix-installer-action ") {
		t.Errorf("stdout = %q", testEnv.stdout.String())
	}
}

func TestUnknownCommandSuggests(t *testing.T) {
	t.Parallel()

	testEnv := newTestEnvironment(t, nil)
	err := testEnv.execute("sumarize")
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), `did you mean "summarize"`) {
		t.Errorf("error = %v", err)
	}
}

func TestInvalidConfigIsRejected(t *testing.T) {
	t.Parallel()

	configPath := writeFile(t, "config.yaml", "summary:\n  max_markdown_length: -1\n")
	testEnv := newTestEnvironment(t, nil)

	err := testEnv.execute("post", "--config", configPath)
	if err == nil {
		t.Fatal("expected error for invalid configuration")
	}
	if !strings.Contains(err.Error(), "summary.max_markdown_length") {
		t.Errorf("error = %v, want the offending field", err)
	}
}

func TestDebugFromRunnerDebug(t *testing.T) {
	t.Parallel()

	var gotDebug bool
	testEnv := newTestEnvironment(t, map[string]string{"RUNNER_DEBUG": "1"})
	testEnv.newLogger = func(debug bool) *slog.Logger {
		gotDebug = debug
		return slog.New(slog.DiscardHandler)
	}

	if err := testEnv.execute("main"); err != nil {
		t.Fatalf("main: %v", err)
	}
	if !gotDebug {
		t.Error("RUNNER_DEBUG=1 did not enable debug logging")
	}
}
