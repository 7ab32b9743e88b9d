// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime"
	"strings"
	"testing"
)

// The ldflags variables are package state, so these tests do not run
// in parallel with each other.

func withBuildInfo(t *testing.T, commit, dirty, buildTime, semver string) {
	t.Helper()
	saved := [4]string{GitCommit, GitDirty, BuildTime, Version}
	GitCommit, GitDirty, BuildTime, Version = commit, dirty, buildTime, semver
	t.Cleanup(func() {
		GitCommit, GitDirty, BuildTime, Version = saved[0], saved[1], saved[2], saved[3]
	})
}

func TestInfo(t *testing.T) {
	withBuildInfo(t, "abc1234", "false", "2026-02-10T12:00:00Z", "1.2.3")
	if got, want := Info(), "1.2.3 (abc1234, 2026-02-10T12:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}

	GitDirty = "true"
	if got, want := Info(), "1.2.3 (abc1234-dirty, 2026-02-10T12:00:00Z)"; got != want {
		t.Errorf("Info() = %q, want %q", got, want)
	}
}

func TestFull(t *testing.T) {
	withBuildInfo(t, "abc1234", "false", "unknown", "1.2.3")
	full := Full()
	if !strings.HasPrefix(full, Info()+"\n") {
		t.Errorf("Full() = %q, want it to start with Info()", full)
	}
	if !strings.Contains(full, runtime.Version()) || !strings.Contains(full, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("Full() = %q, want Go version and platform", full)
	}
}

func TestUserAgent(t *testing.T) {
	withBuildInfo(t, "abc1234", "false", "unknown", "1.2.3")
	if got, want := UserAgent(), "nix-installer-action/1.2.3 (abc1234)"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
