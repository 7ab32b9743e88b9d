// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// FakeBinary installs an executable named name whose body is the
// given POSIX shell script, and puts it first on PATH for the rest of
// the test. Returns the directory holding the binary so a test can
// install several fakes side by side with FakeBinaryIn.
//
//	testutil.FakeBinary(t, "nix", `echo "log for $2"`)
func FakeBinary(t *testing.T, name, script string) string {
	t.Helper()
	directory := t.TempDir()
	FakeBinaryIn(t, directory, name, script)
	t.Setenv("PATH", directory+string(os.PathListSeparator)+os.Getenv("PATH"))
	return directory
}

// FakeBinaryIn writes an executable shell script named name into
// directory. It does not touch PATH.
func FakeBinaryIn(t *testing.T, directory, name, script string) string {
	t.Helper()
	path := filepath.Join(directory, name)
	content := "#!/bin/sh\n" + script + "\n"
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("writing fake binary %s: %v", path, err)
	}
	return path
}
