package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestTruncateANSI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxWidth int
		want     string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"tiny width", "hello", 3, "..."},
		{"zero width", "hello", 0, "..."},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TruncateANSI(tt.input, tt.maxWidth); got != tt.want {
				t.Errorf("TruncateANSI(%q, %d) = %q, want %q", tt.input, tt.maxWidth, got, tt.want)
			}
		})
	}
}

func TestTruncateANSI_Styled(t *testing.T) {
	styled := lipgloss.NewStyle().Bold(true).Render("kling_gupta_efficiency")
	got := TruncateANSI(styled, 10)
	if w := lipgloss.Width(got); w > 10 {
		t.Errorf("visual width = %d, want <= 10", w)
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		input string
		width int
		want  string
	}{
		{"ab", 5, "ab   "},
		{"abcde", 5, "abcde"},
		{"abcdefgh", 6, "abc..."},
	}
	for _, tt := range tests {
		if got := PadRight(tt.input, tt.width); got != tt.want {
			t.Errorf("PadRight(%q, %d) = %q, want %q", tt.input, tt.width, got, tt.want)
		}
	}
}
