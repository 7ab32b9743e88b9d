// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"net/http"
	"strings"
	"testing"

	"github.com/bureau-foundation/nix-installer-action/lib/testutil"
)

const (
	builtDerivation    = "/nix/store/rz9hrpay90sjrid5hx3x8v606ji679xa-dep-1.drv"
	failedDerivation   = "/nix/store/0c4ma7ykw0q3zbl1zxq4nnyjzq1wa5cd-broken-1.drv"
	mismatchDerivation = "/nix/store/ykvbksjqrza2zpj6nkbycrdfwgfdpr8g-fod.drv"
)

const recentEventsFixture = `[
	{"v": "1", "c": "BuiltPathResponseEventV1", "drv": "` + builtDerivation + `",
	 "timing": {"startTime": "2025-04-11T14:38:02Z", "durationSeconds": 3}},
	{"v": "1", "c": "BuildFailureResponseEventV1", "drv": "` + failedDerivation + `",
	 "timing": {"startTime": "2025-04-11T14:38:05Z", "durationSeconds": 2}},
	{"v": "1", "c": "HashMismatchResponseEventV1", "drv": "` + mismatchDerivation + `"}
]`

const fixHashesFixture = `{"version": "v1", "files": [{"file": "flake.nix", "fixes": [
	{"line": 12, "found": "sha256-AAAA", "mismatches": [
		{"derivation": "` + mismatchDerivation + `", "replacement": "sha256-BBBB"}
	]}
]}]}`

// fakeNixLog answers "nix log <drv>" with a two-line log.
const fakeNixLog = `if [ "$1" = "log" ]; then
	echo "building '$2'"
	echo "error: hash mismatch in fixed-output derivation"
	exit 0
fi
exit 2`

// serveEvents runs a fake determinate-nixd event API that records the
// since parameter of each request.
func serveEvents(t *testing.T, body string) (string, <-chan string) {
	t.Helper()
	sinces := make(chan string, 8)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/recent", func(writer http.ResponseWriter, request *http.Request) {
		sinces <- request.URL.Query().Get("since")
		writer.Header().Set("Content-Type", "application/json")
		writer.Write([]byte(body))
	})
	return testutil.ServeUnix(t, mux), sinces
}

func socketConfig(t *testing.T, socketPath string) string {
	t.Helper()
	return writeFile(t, "config.yaml", "daemon:\n  socket_path: "+socketPath+"\n")
}

func TestPost_WritesSummaryAndAnnotations(t *testing.T) {
	binaries := testutil.FakeBinary(t, "nix", fakeNixLog)
	testutil.FakeBinaryIn(t, binaries, "determinate-nixd", "cat <<'JSON'\n"+fixHashesFixture+"\nJSON")

	socketPath, sinces := serveEvents(t, recentEventsFixture)
	summaryPath := writeFile(t, "summary.md", "")
	testEnv := newTestEnvironment(t, map[string]string{
		"GITHUB_ACTIONS":                        "true",
		"GITHUB_STEP_SUMMARY":                   summaryPath,
		"STATE_DETERMINATE_NIXD_START_DATETIME": "2025-04-11T14:38:00.000Z",
	})

	if err := testEnv.execute("post", "--config", socketConfig(t, socketPath)); err != nil {
		t.Fatalf("post: %v", err)
	}

	if since := <-sinces; since != "2025-04-11T14:38:00.000Z" {
		t.Errorf("since = %q, want the saved start time", since)
	}

	stdout := testEnv.stdout.String()
	for _, want := range []string{
		"::error file=flake.nix,line=12::To correct the hash mismatch for fod.drv, use sha256-BBBB\n",
		"Build logs from 1 failure\n",
		"::group::Failed build: " + failedDerivation + "\n",
		"    building '" + failedDerivation + "'\n",
		"::endgroup::\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	summary := readFile(t, summaryPath)
	if !strings.HasPrefix(summary, summaryHeader+"\n\n\n<details open><summary><strong>Build timeline</strong>") {
		t.Errorf("summary does not start with the header and timeline:\n%s", summary)
	}
	for _, want := range []string{
		builtDerivation + " (3s):d, 0, 3s",
		failedDerivation + " (2s):crit, 3, 2s",
		"> [!TIP]\n> Some derivations failed to build due to the hash in the Nix expression being outdated.",
		"### Build error review :boom:",
		"<code>/nix/store/0c4ma7ykw0q3zbl1zxq4nnyjzq1wa5cd-<strong>broken-1</strong>.drv</code>",
		"    error: hash mismatch in fixed-output derivation",
		"\n---\n",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if !strings.HasSuffix(summary, feedbackFooter+"\n\n\n") {
		t.Errorf("summary does not end with the feedback footer:\n%s", summary)
	}

	logs := testEnv.logs.String()
	for _, want := range []string{
		`"event":"fod_annotate","count":1`,
		`"nix_builds_succeeded":1,"nix_builds_failed":1,"nix_builds_unknown_event":0`,
		`"event":"summary_written"`,
		`"event":"conclude_job"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q:\n%s", want, logs)
		}
	}
}

func TestPost_FailuresAreSwallowed(t *testing.T) {
	testutil.FakeBinary(t, "determinate-nixd", `echo "daemon unreachable" >&2; exit 1`)

	summaryPath := writeFile(t, "summary.md", "")
	testEnv := newTestEnvironment(t, map[string]string{
		"GITHUB_ACTIONS":                        "true",
		"GITHUB_STEP_SUMMARY":                   summaryPath,
		"STATE_DETERMINATE_NIXD_START_DATETIME": "2025-04-11T14:38:00.000Z",
	})
	absentSocket := testutil.SocketDir(t) + "/absent.sock"

	if err := testEnv.execute("post", "--config", socketConfig(t, absentSocket)); err != nil {
		t.Fatalf("post returned %v, want nil", err)
	}

	stdout := testEnv.stdout.String()
	if !strings.Contains(stdout, "::warning::Could not consume hash mismatch events: determinate-nixd fix hashes returned non-zero exit code 1") {
		t.Errorf("stdout missing annotation warning:\n%s", stdout)
	}
	logs := testEnv.logs.String()
	for _, want := range []string{
		`"event":"annotation-mismatch-execution:error"`,
		`"event":"summarize-execution:error"`,
		`"event":"conclude_job"`,
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("logs missing %q:\n%s", want, logs)
		}
	}
	if summary := readFile(t, summaryPath); summary != "" {
		t.Errorf("summary = %q, want nothing written", summary)
	}
}

func TestPost_InputsOverrideConfig(t *testing.T) {
	t.Parallel()

	testEnv := newTestEnvironment(t, map[string]string{
		"INPUT_ANNOTATE-HASHES": "false",
		"INPUT_SUMMARIZE":       "False",
	})

	if err := testEnv.execute("post"); err != nil {
		t.Fatalf("post: %v", err)
	}
	if testEnv.stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing", testEnv.stdout.String())
	}
	logs := testEnv.logs.String()
	if !strings.Contains(logs, "hash mismatch annotations are disabled") || !strings.Contains(logs, "build summary is disabled") {
		t.Errorf("logs do not record the disabled steps:\n%s", logs)
	}
}

func TestPost_InvalidBooleanInput(t *testing.T) {
	t.Parallel()

	testEnv := newTestEnvironment(t, map[string]string{"INPUT_SUMMARIZE": "yes"})
	err := testEnv.execute("post")
	if err == nil {
		t.Fatal("expected error for a non-boolean input")
	}
	if !strings.Contains(err.Error(), "input summarize") {
		t.Errorf("error = %v", err)
	}
}

func TestPost_MissingStartTime(t *testing.T) {
	t.Parallel()

	testEnv := newTestEnvironment(t, map[string]string{"INPUT_ANNOTATE-HASHES": "false"})
	if err := testEnv.execute("post"); err != nil {
		t.Fatalf("post: %v", err)
	}
	logs := testEnv.logs.String()
	if !strings.Contains(logs, `"event":"summarize-execution:error"`) || !strings.Contains(logs, "no build start time was saved") {
		t.Errorf("logs missing the start time error:\n%s", logs)
	}
}

func TestPost_NothingToReport(t *testing.T) {
	t.Parallel()

	socketPath, _ := serveEvents(t, `[]`)
	summaryPath := writeFile(t, "summary.md", "")
	testEnv := newTestEnvironment(t, map[string]string{
		"GITHUB_STEP_SUMMARY":                   summaryPath,
		"STATE_DETERMINATE_NIXD_START_DATETIME": "2025-04-11T14:38:00.000Z",
		"INPUT_ANNOTATE-HASHES":                 "false",
	})

	if err := testEnv.execute("post", "--config", socketConfig(t, socketPath)); err != nil {
		t.Fatalf("post: %v", err)
	}
	if summary := readFile(t, summaryPath); summary != "" {
		t.Errorf("summary = %q, want nothing written", summary)
	}
}
