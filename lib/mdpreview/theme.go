// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package mdpreview

import "github.com/charmbracelet/lipgloss"

// Theme is the palette of the preview.
type Theme struct {
	Heading lipgloss.Color
	Text    lipgloss.Color
	Faint   lipgloss.Color
	Border  lipgloss.Color

	// Alert label colors, matching GitHub's alert styling.
	Note      lipgloss.Color
	Tip       lipgloss.Color
	Important lipgloss.Color
	Warning   lipgloss.Color
	Caution   lipgloss.Color
}

// DefaultTheme suits a dark terminal.
var DefaultTheme = Theme{
	Heading:   lipgloss.Color("75"),
	Text:      lipgloss.Color("252"),
	Faint:     lipgloss.Color("245"),
	Border:    lipgloss.Color("240"),
	Note:      lipgloss.Color("33"),
	Tip:       lipgloss.Color("34"),
	Important: lipgloss.Color("135"),
	Warning:   lipgloss.Color("178"),
	Caution:   lipgloss.Color("160"),
}

// alertColor returns the label color for a GitHub alert kind.
func (theme Theme) alertColor(kind string) (lipgloss.Color, bool) {
	switch kind {
	case "NOTE":
		return theme.Note, true
	case "TIP":
		return theme.Tip, true
	case "IMPORTANT":
		return theme.Important, true
	case "WARNING":
		return theme.Warning, true
	case "CAUTION":
		return theme.Caution, true
	default:
		return "", false
	}
}
