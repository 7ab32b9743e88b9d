// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package fixhashes

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bureau-foundation/nix-installer-action/lib/actions"
)

// Annotator receives one error annotation per fix. *actions.Runner
// implements it.
type Annotator interface {
	Error(message string, properties actions.AnnotationProperties)
}

var storeHashPrefix = regexp.MustCompile(`/nix/store/\w+-`)

// Annotate emits one annotation per fix in report, anchored at the
// fix's file and line, and returns how many it emitted. That is the
// number of fixes, not files or mismatches.
func Annotate(report *Report, annotator Annotator) int {
	count := 0
	for _, file := range report.Files {
		for _, fix := range file.Fixes {
			annotator.Error(Message(fix), actions.AnnotationProperties{
				File:      file.File,
				StartLine: fix.Line,
			})
			count++
		}
	}
	return count
}

// Message renders the annotation text for fix. A fix with anything
// other than exactly one mismatch is rendered as a list of candidates.
func Message(fix Fix) string {
	if len(fix.Mismatches) == 1 {
		mismatch := fix.Mismatches[0]
		return fmt.Sprintf("To correct the hash mismatch for %s, use %s",
			prettyDerivation(mismatch.Derivation), mismatch.Suggestion())
	}

	candidates := make([]string, 0, len(fix.Mismatches))
	for _, mismatch := range fix.Mismatches {
		candidates = append(candidates, fmt.Sprintf("* For the derivation %s, use `%s`",
			prettyDerivation(mismatch.Derivation), mismatch.Suggestion()))
	}
	return fmt.Sprintf("There are multiple replacements for the expression %s:\n%s",
		fix.Found, strings.Join(candidates, "\n"))
}

// prettyDerivation drops the first store hash prefix.
func prettyDerivation(derivation string) string {
	if location := storeHashPrefix.FindStringIndex(derivation); location != nil {
		return derivation[:location[0]] + derivation[location[1]:]
	}
	return derivation
}
