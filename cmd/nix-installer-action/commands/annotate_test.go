// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"errors"
	"testing"

	"github.com/bureau-foundation/nix-installer-action/lib/fixhashes"
	"github.com/bureau-foundation/nix-installer-action/lib/testutil"
)

func TestAnnotate_FromReportFile(t *testing.T) {
	t.Parallel()

	reportPath := writeFile(t, "fixes.jsonc", "// saved from a failed run\n"+fixHashesFixture)
	testEnv := newTestEnvironment(t, nil)

	if err := testEnv.execute("annotate", "--report", reportPath); err != nil {
		t.Fatalf("annotate: %v", err)
	}

	want := "::error file=flake.nix,line=12::To correct the hash mismatch for fod.drv, use sha256-BBBB\n1 fix annotated\n"
	if testEnv.stdout.String() != want {
		t.Errorf("stdout = %q, want %q", testEnv.stdout.String(), want)
	}
}

func TestAnnotate_UnsupportedVersion(t *testing.T) {
	t.Parallel()

	reportPath := writeFile(t, "fixes.json", `{"version": "v2", "files": []}`)
	testEnv := newTestEnvironment(t, nil)

	err := testEnv.execute("annotate", "--report", reportPath)
	if !errors.Is(err, fixhashes.ErrUnsupportedVersion) {
		t.Errorf("annotate = %v, want ErrUnsupportedVersion", err)
	}
}

func TestAnnotate_RunsDeterminateNixd(t *testing.T) {
	testutil.FakeBinary(t, "determinate-nixd", `echo '{"version": "v1", "files": []}'`)

	testEnv := newTestEnvironment(t, nil)
	if err := testEnv.execute("annotate"); err != nil {
		t.Fatalf("annotate: %v", err)
	}
	if testEnv.stdout.String() != "0 fixes annotated\n" {
		t.Errorf("stdout = %q", testEnv.stdout.String())
	}
}
