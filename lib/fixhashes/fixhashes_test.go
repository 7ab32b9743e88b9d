// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fixhashes

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/nix-installer-action/lib/actions"
	"github.com/bureau-foundation/nix-installer-action/lib/testutil"
)

type annotation struct {
	message    string
	properties actions.AnnotationProperties
}

type recordingAnnotator struct {
	annotations []annotation
}

func (recorder *recordingAnnotator) Error(message string, properties actions.AnnotationProperties) {
	recorder.annotations = append(recorder.annotations, annotation{message: message, properties: properties})
}

const reportFixture = `{
	"version": "v1",
	"files": [
		{
			"file": "flake.nix",
			"fixes": [
				{
					"line": 12,
					"found": "sha256-AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA=",
					"mismatches": [
						{"derivation": "/nix/store/ykvbksjqrza2zpj6nkbycrdfwgfdpr8g-source.drv", "replacement": "sha256-abc="}
					]
				}
			]
		},
		{
			"file": "pkgs/vendor.nix",
			"fixes": [
				{
					"line": 7,
					"found": "lib.fakeHash",
					"mismatches": [
						{"derivation": "/nix/store/rz9hrpay90sjrid5hx3x8v606ji679xa-vendor-x86_64.drv", "replacement": "sha256-one="},
						{"derivation": "/nix/store/c3ra8nw1hh6qy6d2d6kzrwgdgd1j5iqp-vendor-aarch64.drv", "replacement": "sha256-two="}
					]
				}
			]
		}
	]
}`

func TestAnnotate_CountsFixes(t *testing.T) {
	t.Parallel()

	report, err := Parse([]byte(reportFixture))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	recorder := &recordingAnnotator{}
	if count := Annotate(report, recorder); count != 2 {
		t.Errorf("Annotate = %d, want 2", count)
	}
	if report.FixCount() != 2 {
		t.Errorf("FixCount = %d, want 2", report.FixCount())
	}
	if len(recorder.annotations) != 2 {
		t.Fatalf("got %d annotations, want 2", len(recorder.annotations))
	}

	first := recorder.annotations[0]
	if first.message != "To correct the hash mismatch for source.drv, use sha256-abc=" {
		t.Errorf("first message = %q", first.message)
	}
	if first.properties != (actions.AnnotationProperties{File: "flake.nix", StartLine: 12}) {
		t.Errorf("first properties = %+v", first.properties)
	}

	second := recorder.annotations[1]
	wantSecond := "There are multiple replacements for the expression lib.fakeHash:\n" +
		"* For the derivation vendor-x86_64.drv, use `sha256-one=`\n" +
		"* For the derivation vendor-aarch64.drv, use `sha256-two=`"
	if second.message != wantSecond {
		t.Errorf("second message:\n%s\nwant:\n%s", second.message, wantSecond)
	}
	if second.properties != (actions.AnnotationProperties{File: "pkgs/vendor.nix", StartLine: 7}) {
		t.Errorf("second properties = %+v", second.properties)
	}
}

func TestAnnotate_EmptyReport(t *testing.T) {
	t.Parallel()

	recorder := &recordingAnnotator{}
	if count := Annotate(&Report{Version: ReportVersion}, recorder); count != 0 {
		t.Errorf("Annotate = %d, want 0", count)
	}
	if len(recorder.annotations) != 0 {
		t.Errorf("got %d annotations, want none", len(recorder.annotations))
	}
}

func TestAnnotate_ThroughRunner(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	runner := actions.NewRunner(func(string) string { return "" }, &out)
	report := &Report{Version: ReportVersion, Files: []FileFix{{
		File: "flake.nix",
		Fixes: []Fix{{Line: 3, Found: "x", Mismatches: []Mismatch{
			{Derivation: "/nix/store/abc-a.drv", Replacement: "sha256-a="},
			{Derivation: "/nix/store/def-b.drv", Replacement: "sha256-b="},
		}}},
	}}}

	Annotate(report, runner)
	want := "::error file=flake.nix,line=3::There are multiple replacements for the expression x:%0A" +
		"* For the derivation a.drv, use `sha256-a=`%0A* For the derivation b.drv, use `sha256-b=`\n"
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		fix  Fix
		want string
	}{
		{
			name: "legacy expected field",
			fix: Fix{Mismatches: []Mismatch{
				{Derivation: "/nix/store/abc-src.drv", Expected: "sha256-old="},
			}},
			want: "To correct the hash mismatch for src.drv, use sha256-old=",
		},
		{
			name: "only the first store prefix is removed",
			fix: Fix{Mismatches: []Mismatch{
				{Derivation: "/nix/store/abc-wrap-/nix/store/def-inner.drv", Replacement: "r"},
			}},
			want: "To correct the hash mismatch for wrap-/nix/store/def-inner.drv, use r",
		},
		{
			name: "no mismatches uses the list form",
			fix:  Fix{Found: "lib.fakeHash"},
			want: "There are multiple replacements for the expression lib.fakeHash:\n",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			if got := Message(test.fix); got != test.want {
				t.Errorf("Message = %q, want %q", got, test.want)
			}
		})
	}
}

func TestParse_JSONC(t *testing.T) {
	t.Parallel()

	report, err := Parse([]byte(`{
		// saved from a failed run
		"version": "v1",
		"files": [
			{"file": "flake.nix", "fixes": [],},
		],
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(report.Files) != 1 || report.Files[0].File != "flake.nix" {
		t.Errorf("Files = %+v", report.Files)
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		input       string
		wantVersion bool
	}{
		{name: "future version", input: `{"version": "v2", "files": []}`, wantVersion: true},
		{name: "missing version", input: `{"files": []}`, wantVersion: true},
		{name: "not json", input: `determinate-nixd: command not found`},
		{name: "wrong shape", input: `{"version": "v1", "files": {"file": "x"}}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(test.input))
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.Is(err, ErrUnsupportedVersion); got != test.wantVersion {
				t.Errorf("errors.Is(err, ErrUnsupportedVersion) = %v, want %v (err: %v)", got, test.wantVersion, err)
			}
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "fixes.jsonc")
	if err := os.WriteFile(path, []byte(reportFixture), 0o644); err != nil {
		t.Fatal(err)
	}
	report, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if report.FixCount() != 2 {
		t.Errorf("FixCount = %d, want 2", report.FixCount())
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRun(t *testing.T) {
	testutil.FakeBinary(t, "determinate-nixd", `
if [ "$*" != "fix hashes --json" ]; then
	echo "unexpected arguments: $*" >&2
	exit 2
fi
echo '{"version": "v1", "files": [{"file": "flake.nix", "fixes": [{"line": 1, "found": "x", "mismatches": []}]}]}'`)

	report, err := Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.FixCount() != 1 {
		t.Errorf("FixCount = %d, want 1", report.FixCount())
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	testutil.FakeBinary(t, "determinate-nixd", `echo "daemon not running" >&2; exit 1`)

	_, err := Run(context.Background())
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	want := "determinate-nixd fix hashes returned non-zero exit code 1 with the following error output:\ndaemon not running"
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
}
