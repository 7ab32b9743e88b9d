// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package mdpreview renders job summary Markdown for a terminal, so
// that running the summarize command by hand shows roughly what GitHub
// would display.
//
// Only the constructs the summary uses get real treatment: headings,
// GitHub alert blockquotes ("> [!NOTE]"), <details>/<summary> HTML
// blocks (tags stripped, text kept), indented log blocks, fenced code
// (highlighted with Chroma), lists, and thematic breaks. Emoji
// shortcodes the summary uses are replaced with the emoji. Everything
// else degrades to plain wrapped text.
//
// Color output is controlled by the termenv profile in [Options]:
// termenv.Ascii produces plain text, which is what tests use.
package mdpreview
