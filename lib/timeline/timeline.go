// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package timeline renders build events as a Mermaid Gantt chart for
// the job summary.
//
// Mermaid refuses to render diagrams over 50,000 characters, and a
// large build easily produces more. [Report] therefore searches prune
// levels in increasing order until the diagram fits:
//
//	-1  full derivation paths, every build
//	 0  store hash prefix and .drv suffix removed, every build
//	 N  names shortened, builds shorter than N seconds dropped
//
// Raising the level never makes the diagram longer, and once the level
// exceeds the longest build only the chart header remains, so the
// search always ends. Only the levels at which some build drops out are
// tried.
package timeline

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/bureau-foundation/nix-installer-action/lib/buildevent"
)

// MaxDiagramLength is the largest diagram Report emits, leaving
// headroom under Mermaid's 50,000 character maxTextSize.
const MaxDiagramLength = 49_900

var (
	storePrefixPattern = regexp.MustCompile(`^/nix/store/[a-z0-9]+-`)
	drvSuffixPattern   = regexp.MustCompile(`\.drv$`)
)

// ShortName strips the store hash prefix and the .drv suffix from a
// derivation path: "/nix/store/<hash>-hello-2.12.drv" becomes
// "hello-2.12".
func ShortName(derivation string) string {
	return drvSuffixPattern.ReplaceAllString(storePrefixPattern.ReplaceAllString(derivation, ""), "")
}

// Mermaidify renders the built and failed events as a fenced mermaid
// gantt block at the given prune level. Returns false when there are
// no such events. The input slice is not modified.
func Mermaidify(events []buildevent.Event, pruneLevel int) (string, bool) {
	timed := make([]buildevent.Event, 0, len(events))
	for _, event := range events {
		if event.Kind == buildevent.KindBuiltPath || event.Kind == buildevent.KindBuildFailure {
			timed = append(timed, event)
		}
	}
	if len(timed) == 0 {
		return "", false
	}
	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].Timing.StartTime.Before(timed[j].Timing.StartTime)
	})

	zeroMoment := timed[0].Timing.StartTime

	lines := []string{
		"```mermaid",
		"gantt",
		"    dateFormat X",
		"    axisFormat %Mm%Ss",
	}

	for _, event := range timed {
		duration := event.Timing.DurationSeconds
		if duration < float64(pruneLevel) {
			continue
		}

		label := event.Derivation
		if pruneLevel >= 0 {
			label = ShortName(event.Derivation)
		}

		tag := "d"
		if event.Failed() {
			tag = "crit"
		}

		// Millisecond resolution, matching what the daemon records.
		relativeStart := float64(event.Timing.StartTime.Sub(zeroMoment).Milliseconds()) / 1000

		lines = append(lines, fmt.Sprintf("%s (%s):%s, %s, %ss",
			label, FormatDuration(duration), tag, formatNumber(relativeStart), formatNumber(duration)))
	}
	lines = append(lines, "```")

	return strings.Join(lines, "\n"), true
}

// Report renders the smallest-pruned diagram that fits in
// MaxDiagramLength, wrapped in an open <details> block, with a note
// describing what was removed to make it fit. Returns false when there
// is nothing to chart.
func Report(events []buildevent.Event) (string, bool) {
	return ReportWithLimit(events, MaxDiagramLength)
}

// ReportWithLimit is Report with a diagram size other than
// MaxDiagramLength.
func ReportWithLimit(events []buildevent.Event, maxDiagramLength int) (string, bool) {
	pruneLevel, diagram, ok := fit(events, maxDiagramLength)
	if !ok {
		return "", false
	}

	// The blank lines around the diagram are required: without them
	// GitHub renders the fenced block as literal text inside <details>.
	lines := []string{
		"<details open><summary><strong>Build timeline</strong> :hourglass_flowing_sand:</summary>",
		"",
		diagram,
		"",
	}

	switch {
	case pruneLevel == 0:
		lines = append(lines,
			"> [!NOTE]",
			"> `/nix/store/[hash]` and the `.drv` suffixes have been removed to make the graph small enough to render.",
		)
	case pruneLevel > 0:
		lines = append(lines,
			"> [!NOTE]",
			fmt.Sprintf("> `/nix/store/[hash]`, the `.drv` suffix, and builds that took less than %ds have been removed to make the graph small enough to render.", pruneLevel),
		)
	}

	lines = append(lines, "", "</details>")

	return strings.Join(lines, "\n"), true
}

// fit returns the lowest prune level, starting at -1, whose diagram is
// at most maxLength bytes long, together with that diagram. When no
// level fits, the header-only diagram at the highest level is returned.
//
// For a positive level L an event survives while its duration is at
// least L, that is while floor(duration) >= L. The diagram therefore
// only changes at levels floor(duration)+1, and the minimal fitting
// level is always one of those, -1 or 0. Only those are rendered.
func fit(events []buildevent.Event, maxLength int) (int, string, bool) {
	var thresholds []int
	for _, event := range events {
		if event.Kind != buildevent.KindBuiltPath && event.Kind != buildevent.KindBuildFailure {
			continue
		}
		if event.Timing.DurationSeconds >= 0 {
			thresholds = append(thresholds, int(math.Floor(event.Timing.DurationSeconds))+1)
		}
	}
	slices.Sort(thresholds)
	levels := append([]int{-1, 0}, slices.Compact(thresholds)...)

	var diagram string
	var pruneLevel int
	for _, pruneLevel = range levels {
		rendered, ok := Mermaidify(events, pruneLevel)
		if !ok {
			return 0, "", false
		}
		diagram = rendered
		if len(diagram) <= maxLength {
			break
		}
	}
	return pruneLevel, diagram, true
}

// FormatDuration renders seconds as "<M>m<S>s" once a build reaches a
// minute and as "<S>s" before that: 65 is "1m5s", 0 is "0s".
func FormatDuration(seconds float64) string {
	minutes := math.Floor(seconds / 60)
	if minutes > 0 {
		remainder := math.Round((seconds-minutes*60)*1000) / 1000
		return fmt.Sprintf("%sm%ss", formatNumber(minutes), formatNumber(remainder))
	}
	return formatNumber(seconds) + "s"
}

// formatNumber prints integers without a decimal point and fractions
// with the fewest digits that round-trip.
func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
