// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts reading the current time. Production code injects
// Real(); tests inject Fake() with a fixed time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}
