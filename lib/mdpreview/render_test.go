// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mdpreview

import (
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

// plain renders without color and strips any escape sequence that
// slipped through, returning the visible text.
func plain(input string, width int) string {
	return ansi.Strip(Render(input, Options{Width: width, Profile: termenv.Ascii}))
}

const summaryFixture = "## ![](https://avatars.githubusercontent.com/u/80991770?s=30) Determinate Nix build summary\n" +
	"\n" +
	"<details open><summary><strong>Build timeline</strong> :hourglass_flowing_sand:</summary>\n" +
	"\n" +
	"```mermaid\n" +
	"gantt\n" +
	"    dateFormat X\n" +
	"hello (4s):crit, 0, 4s\n" +
	"```\n" +
	"\n" +
	"</details>\n" +
	"\n" +
	"### Build error review :boom:\n" +
	"> [!NOTE]\n" +
	"> 1 build failed\n" +
	"<details><summary>Failure log: <code>/nix/store/abc-<strong>hello</strong>.drv</code></summary>\n" +
	"\n" +
	"    error: builder for '/nix/store/abc-hello.drv' failed\n" +
	"    exit code 1\n" +
	"\n" +
	"</details>\n" +
	"\n" +
	"---\n" +
	"\n" +
	"Questions? Ask on [Discord](https://determinate.systems/discord).\n"

func TestRender_Empty(t *testing.T) {
	t.Parallel()

	if got := Render("", Options{}); got != "" {
		t.Errorf("Render(\"\") = %q, want empty", got)
	}
}

func TestRender_JobSummary(t *testing.T) {
	t.Parallel()

	output := plain(summaryFixture, 100)

	for _, want := range []string{
		"Determinate Nix build summary",
		"Build timeline ⏳",
		"gantt",
		"hello (4s):crit, 0, 4s",
		"Build error review 💥",
		"Note",
		"1 build failed",
		"Failure log: /nix/store/abc-hello.drv",
		"error: builder for '/nix/store/abc-hello.drv' failed",
		"exit code 1",
		"───",
		"Discord (https://determinate.systems/discord)",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output is missing %q:\n%s", want, output)
		}
	}

	for _, unwanted := range []string{"<details", "</summary>", "<strong>", "avatars.githubusercontent.com", "[!NOTE]", ":boom:"} {
		if strings.Contains(output, unwanted) {
			t.Errorf("output contains %q:\n%s", unwanted, output)
		}
	}
	if strings.HasSuffix(output, "\n") {
		t.Error("output ends with a newline")
	}
}

func TestRender_AlertLabelOnItsOwnLine(t *testing.T) {
	t.Parallel()

	output := plain("> [!TIP]\n> Use the replacement hash.\n", 80)
	lines := strings.Split(output, "\n")
	if len(lines) < 2 {
		t.Fatalf("output has %d lines, want at least 2:\n%s", len(lines), output)
	}
	if strings.TrimSpace(lines[0]) != "│ Tip" {
		t.Errorf("first line = %q, want the alert label", lines[0])
	}
	if !strings.Contains(lines[1], "Use the replacement hash.") {
		t.Errorf("second line = %q, want the alert body", lines[1])
	}
}

func TestRender_PlainBlockquoteIsNotAnAlert(t *testing.T) {
	t.Parallel()

	output := plain("> [!NOPE] not an alert\n", 80)
	if !strings.Contains(output, "[!NOPE] not an alert") {
		t.Errorf("output = %q, want the text unchanged", output)
	}
}

func TestRender_WrapsToWidth(t *testing.T) {
	t.Parallel()

	input := "The following failures have been omitted due to GitHub Actions summary length limitations, " +
		"and the full logs are available in the post-run phase."
	output := plain(input, 30)
	lines := strings.Split(output, "\n")
	if len(lines) < 3 {
		t.Errorf("expected wrapping at width 30, got %d lines:\n%s", len(lines), output)
	}
	for _, line := range lines {
		if width := ansi.StringWidth(line); width > 30 {
			t.Errorf("line exceeds width 30: %q (width %d)", line, width)
		}
	}
}

func TestRender_Lists(t *testing.T) {
	t.Parallel()

	output := plain("* `/nix/store/abc-one.drv`\n* `/nix/store/def-two.drv`\n\n1. first\n2. second\n", 80)
	for _, want := range []string{"• /nix/store/abc-one.drv", "• /nix/store/def-two.drv", "1. first", "2. second"} {
		if !strings.Contains(output, want) {
			t.Errorf("output is missing %q:\n%s", want, output)
		}
	}
}

func TestRender_ColorProfileEmitsEscapes(t *testing.T) {
	t.Parallel()

	colored := Render("### Build error review", Options{Width: 80, Profile: termenv.ANSI256})
	if !strings.Contains(colored, "\x1b[") {
		t.Errorf("ANSI256 output has no escape sequences: %q", colored)
	}
	if ansi.Strip(colored) != "Build error review" {
		t.Errorf("visible text = %q", ansi.Strip(colored))
	}
}

func TestReplaceShortcodes(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Build error review :boom:":   "Build error review 💥",
		"unknown :not_an_emoji: kept": "unknown :not_an_emoji: kept",
		"time 12:30:45":               "time 12:30:45",
	}
	for input, want := range tests {
		if got := replaceShortcodes(input); got != want {
			t.Errorf("replaceShortcodes(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestStripHTMLTags(t *testing.T) {
	t.Parallel()

	got := stripHTMLTags("<details><summary>Failure log: <code>/nix/store/abc-<strong>x</strong>.drv</code></summary>")
	if got != "Failure log: /nix/store/abc-x.drv" {
		t.Errorf("stripHTMLTags = %q", got)
	}
}
