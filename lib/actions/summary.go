// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package actions

import "strings"

// Summary accumulates job summary Markdown before it is written.
type Summary struct {
	buffer strings.Builder
}

// AddRaw appends text, followed by a newline when eol is set.
func (summary *Summary) AddRaw(text string, eol bool) *Summary {
	summary.buffer.WriteString(text)
	if eol {
		summary.buffer.WriteByte('\n')
	}
	return summary
}

// Empty reports whether nothing has been added.
func (summary *Summary) Empty() bool {
	return summary.buffer.Len() == 0
}

func (summary *Summary) String() string {
	return summary.buffer.String()
}

// WriteSummary appends the accumulated Markdown to the job summary.
// See AppendSummary.
func (runner *Runner) WriteSummary(summary *Summary) error {
	return runner.AppendSummary(summary.String())
}
