// Package util provides small helpers shared by the TUI and the CLI.
package util

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateANSI truncates s to maxWidth visual columns, adding "..." if
// truncated. Escape codes and wide characters are measured correctly.
func TruncateANSI(s string, maxWidth int) string {
	if maxWidth <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= maxWidth {
		return s
	}
	// the tail counts toward maxWidth
	return ansi.Truncate(s, maxWidth, "...")
}

// PadRight pads s with spaces to width visual columns, truncating first if
// it is wider.
func PadRight(s string, width int) string {
	s = TruncateANSI(s, width)
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + spaces(gap)
	}
	return s
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
