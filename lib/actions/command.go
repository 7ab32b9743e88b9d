// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// AnnotationProperties anchors an annotation in the repository. Zero
// fields are omitted from the command.
type AnnotationProperties struct {
	Title       string
	File        string
	StartLine   int
	EndLine     int
	StartColumn int
	EndColumn   int
}

// Runner writes workflow commands and reads the runner environment.
type Runner struct {
	getenv func(string) string

	mutex sync.Mutex
	out   io.Writer
}

// NewRunner returns a Runner that looks variables up with getenv and
// writes workflow commands to out.
func NewRunner(getenv func(string) string, out io.Writer) *Runner {
	return &Runner{getenv: getenv, out: out}
}

// InActions reports whether the process runs inside a GitHub Actions
// job.
func (runner *Runner) InActions() bool {
	return runner.getenv("GITHUB_ACTIONS") == "true"
}

// DebugEnabled reports whether the workflow run has step debug logging
// turned on (RUNNER_DEBUG=1).
func (runner *Runner) DebugEnabled() bool {
	return runner.getenv("RUNNER_DEBUG") == "1"
}

// Info writes message to the job log as-is.
func (runner *Runner) Info(message string) {
	runner.writeLine(message)
}

// Warning creates a warning annotation.
func (runner *Runner) Warning(message string, properties AnnotationProperties) {
	runner.issue("warning", properties.pairs(), message)
}

// Error creates an error annotation. It does not fail the step.
func (runner *Runner) Error(message string, properties AnnotationProperties) {
	runner.issue("error", properties.pairs(), message)
}

func (runner *Runner) issue(command string, properties [][2]string, message string) {
	runner.writeLine(FormatCommand(command, properties, message))
}

func (runner *Runner) writeLine(line string) {
	runner.mutex.Lock()
	defer runner.mutex.Unlock()
	fmt.Fprintln(runner.out, line)
}

// FormatCommand renders "::command key=value,...::message" with the
// runner's escaping rules applied to the message and each value.
func FormatCommand(command string, properties [][2]string, message string) string {
	var builder strings.Builder
	builder.WriteString("::")
	builder.WriteString(command)
	for index, property := range properties {
		if index == 0 {
			builder.WriteByte(' ')
		} else {
			builder.WriteByte(',')
		}
		builder.WriteString(property[0])
		builder.WriteByte('=')
		builder.WriteString(escapeProperty(property[1]))
	}
	builder.WriteString("::")
	builder.WriteString(escapeData(message))
	return builder.String()
}

// pairs lists the set properties in the order the runner toolkit emits
// them.
func (properties AnnotationProperties) pairs() [][2]string {
	var pairs [][2]string
	add := func(key, value string) {
		if value != "" {
			pairs = append(pairs, [2]string{key, value})
		}
	}
	addInt := func(key string, value int) {
		if value != 0 {
			add(key, strconv.Itoa(value))
		}
	}
	add("title", properties.Title)
	add("file", properties.File)
	addInt("line", properties.StartLine)
	addInt("endLine", properties.EndLine)
	addInt("col", properties.StartColumn)
	addInt("endColumn", properties.EndColumn)
	return pairs
}

var (
	dataEscaper     = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")
	propertyEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A", ":", "%3A", ",", "%2C")
)

func escapeData(value string) string {
	return dataEscaper.Replace(value)
}

func escapeProperty(value string) string {
	return propertyEscaper.Replace(value)
}
