// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

// Action state shared between the main and post phases.
const (
	stateStartDatetime = "DETERMINATE_NIXD_START_DATETIME"
)

// Action inputs.
const (
	inputSummarize      = "summarize"
	inputAnnotateHashes = "annotate-hashes"
)

// Diagnostic event names, logged in the "event" attribute so a run's
// milestones can be picked out of the JSON log.
const (
	eventStartRecorded       = "start_recorded"
	eventFODAnnotate         = "fod_annotate"
	eventAnnotateError       = "annotation-mismatch-execution:error"
	eventBuildCounts         = "build_counts"
	eventSummaryWritten      = "summary_written"
	eventSummarizeError      = "summarize-execution:error"
	eventLogCacheUnavailable = "log_cache:unavailable"
	eventConcludeJob         = "conclude_job"
)
