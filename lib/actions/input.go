// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package actions

import (
	"fmt"
	"strings"
)

// Input returns the trimmed value of the action input name, or "" when
// it was not given.
func (runner *Runner) Input(name string) string {
	key := "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
	return strings.TrimSpace(runner.getenv(key))
}

// BoolInput parses the action input name as a YAML 1.2 core schema
// boolean. set is false when the input is empty, letting the caller
// fall back to its own default.
func (runner *Runner) BoolInput(name string) (value, set bool, err error) {
	switch raw := runner.Input(name); raw {
	case "":
		return false, false, nil
	case "true", "True", "TRUE":
		return true, true, nil
	case "false", "False", "FALSE":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("input %s: %q is not a YAML 1.2 core schema boolean (true | True | TRUE | false | False | FALSE)", name, raw)
	}
}
