// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// ErrNoSummaryFile is returned by AppendSummary when the runner did not
// provide GITHUB_STEP_SUMMARY, which is the case outside Actions.
var ErrNoSummaryFile = errors.New("GITHUB_STEP_SUMMARY is not set")

// State returns the value saved under name by an earlier phase of this
// action, or "" if none was saved.
func (runner *Runner) State(name string) string {
	return runner.getenv("STATE_" + name)
}

// SaveState records name=value for the later phases of this action.
// With no GITHUB_STATE file the legacy save-state command is issued.
func (runner *Runner) SaveState(name, value string) error {
	path := runner.getenv("GITHUB_STATE")
	if path == "" {
		runner.issue("save-state", [][2]string{{"name", name}}, value)
		return nil
	}

	entry, err := fileCommandEntry(name, value)
	if err != nil {
		return fmt.Errorf("saving state %s: %w", name, err)
	}
	if err := appendExisting(path, entry); err != nil {
		return fmt.Errorf("saving state %s: %w", name, err)
	}
	return nil
}

// AppendSummary appends markdown to the job summary file.
func (runner *Runner) AppendSummary(markdown string) error {
	path := runner.getenv("GITHUB_STEP_SUMMARY")
	if path == "" {
		return ErrNoSummaryFile
	}
	if err := appendExisting(path, markdown); err != nil {
		return fmt.Errorf("writing job summary: %w", err)
	}
	return nil
}

// fileCommandEntry renders a heredoc entry for the GITHUB_STATE and
// GITHUB_OUTPUT files:
//
//	name<<ghadelimiter_<uuid>
//	value
//	ghadelimiter_<uuid>
func fileCommandEntry(name, value string) (string, error) {
	delimiter := "ghadelimiter_" + uuid.NewString()
	if strings.Contains(name, delimiter) {
		return "", fmt.Errorf("name %q contains the delimiter %q", name, delimiter)
	}
	if strings.Contains(value, delimiter) {
		return "", fmt.Errorf("value contains the delimiter %q", delimiter)
	}
	return name + "<<" + delimiter + "\n" + value + "\n" + delimiter + "\n", nil
}

// appendExisting appends text to a file the runner created. A missing
// file is an error rather than something to create.
func appendExisting(path, text string) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := file.WriteString(text); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
