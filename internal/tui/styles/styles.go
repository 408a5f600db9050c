// Package styles holds the lipgloss styles shared by the TUI. Styles are
// rebuilt from a Palette, which can be replaced at runtime by a theme file.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette is the set of colors every style is derived from.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Muted     lipgloss.Color
	Surface   lipgloss.Color
	Text      lipgloss.Color
	Border    lipgloss.Color
}

// DefaultPalette returns the built-in colors. All meet WCAG AA contrast on
// black and on the surface color.
func DefaultPalette() Palette {
	return Palette{
		Primary:   lipgloss.Color("#A78BFA"), // violet-400
		Secondary: lipgloss.Color("#10B981"), // green
		Warning:   lipgloss.Color("#F59E0B"), // amber
		Error:     lipgloss.Color("#F87171"), // red-400
		Muted:     lipgloss.Color("#9CA3AF"),
		Surface:   lipgloss.Color("#1F2937"),
		Text:      lipgloss.Color("#F9FAFB"),
		Border:    lipgloss.Color("#6B7280"),
	}
}

var current Palette

var (
	Primary   lipgloss.Style
	Secondary lipgloss.Style
	Warning   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Text      lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style

	// Step indicator
	StepActive      lipgloss.Style
	StepDone        lipgloss.Style
	StepPending     lipgloss.Style
	StepSeparator   lipgloss.Style
	OptionalCaption lipgloss.Style

	ContentBox lipgloss.Style
	ErrorBox   lipgloss.Style
	Overlay    lipgloss.Style

	HelpBar lipgloss.Style
	HelpKey lipgloss.Style

	// Lists and tables
	Cursor      lipgloss.Style
	Selected    lipgloss.Style
	SectionHead lipgloss.Style
	TableHeader lipgloss.Style
	TableCell   lipgloss.Style
	SQL         lipgloss.Style
)

func init() {
	Apply(DefaultPalette())
}

// Current returns the palette in use.
func Current() Palette {
	return current
}

// Apply rebuilds every style from p. It must be called from the UI loop.
func Apply(p Palette) {
	current = p

	Primary = lipgloss.NewStyle().Foreground(p.Primary)
	Secondary = lipgloss.NewStyle().Foreground(p.Secondary)
	Warning = lipgloss.NewStyle().Foreground(p.Warning)
	Error = lipgloss.NewStyle().Foreground(p.Error)
	Muted = lipgloss.NewStyle().Foreground(p.Muted)
	Text = lipgloss.NewStyle().Foreground(p.Text)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	StepActive = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		Background(p.Primary).
		Padding(0, 2)

	StepDone = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Padding(0, 2)

	StepPending = lipgloss.NewStyle().
		Foreground(p.Muted).
		Padding(0, 2)

	StepSeparator = lipgloss.NewStyle().Foreground(p.Border)

	OptionalCaption = lipgloss.NewStyle().
		Foreground(p.Muted).
		Italic(true)

	ContentBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(1, 2)

	ErrorBox = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Error).
		Foreground(p.Error).
		Padding(1, 2)

	Overlay = lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(p.Primary).
		Background(p.Surface).
		Foreground(p.Text).
		Padding(1, 4)

	HelpBar = lipgloss.NewStyle().
		Foreground(p.Muted).
		MarginTop(1)

	HelpKey = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Secondary)

	Cursor = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary)

	Selected = lipgloss.NewStyle().Foreground(p.Secondary)

	SectionHead = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Text).
		Underline(true)

	TableHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(p.Primary).
		PaddingRight(2)

	TableCell = lipgloss.NewStyle().
		Foreground(p.Text).
		PaddingRight(2)

	SQL = lipgloss.NewStyle().
		Foreground(p.Warning).
		Background(p.Surface).
		Padding(0, 1)
}
