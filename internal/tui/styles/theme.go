package styles

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ThemeFile is a custom palette loaded from YAML.
//
//	name: Solarized Dark
//	version: "1"
//	colors:
//	  primary: "#268BD2"
//	  error: "#DC322F"
//
// Colors left empty keep their default.
type ThemeFile struct {
	Name    string      `yaml:"name"`
	Author  string      `yaml:"author,omitempty"`
	Version string      `yaml:"version"`
	Colors  ThemeColors `yaml:"colors"`
}

// ThemeColors are hex colors (#RGB or #RRGGBB).
type ThemeColors struct {
	Primary   string `yaml:"primary,omitempty"`
	Secondary string `yaml:"secondary,omitempty"`
	Warning   string `yaml:"warning,omitempty"`
	Error     string `yaml:"error,omitempty"`
	Muted     string `yaml:"muted,omitempty"`
	Surface   string `yaml:"surface,omitempty"`
	Text      string `yaml:"text,omitempty"`
	Border    string `yaml:"border,omitempty"`
}

var hexColorRegex = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// LoadThemeFile reads and validates a theme.
func LoadThemeFile(path string) (*ThemeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading theme file: %w", err)
	}

	var theme ThemeFile
	if err := yaml.Unmarshal(data, &theme); err != nil {
		return nil, fmt.Errorf("parsing theme file: %w", err)
	}
	if err := theme.Validate(); err != nil {
		return nil, fmt.Errorf("invalid theme: %w", err)
	}
	return &theme, nil
}

// Validate checks the name, version and every color that is set.
func (t *ThemeFile) Validate() error {
	if t.Name == "" {
		return errors.New("theme name is required")
	}
	if t.Version == "" {
		return errors.New("theme version is required")
	}
	if t.Version != "1" {
		return fmt.Errorf("unsupported theme version: %s (supported: 1)", t.Version)
	}

	var errs []error
	for _, c := range t.colorFields() {
		if c.value != "" && !hexColorRegex.MatchString(c.value) {
			errs = append(errs, fmt.Errorf("color '%s' has invalid format: %s (expected #RGB or #RRGGBB)", c.name, c.value))
		}
	}
	return errors.Join(errs...)
}

// Palette overlays the theme's colors on DefaultPalette.
func (t *ThemeFile) Palette() Palette {
	p := DefaultPalette()
	set := func(dst *lipgloss.Color, v string) {
		if v != "" {
			*dst = lipgloss.Color(v)
		}
	}
	set(&p.Primary, t.Colors.Primary)
	set(&p.Secondary, t.Colors.Secondary)
	set(&p.Warning, t.Colors.Warning)
	set(&p.Error, t.Colors.Error)
	set(&p.Muted, t.Colors.Muted)
	set(&p.Surface, t.Colors.Surface)
	set(&p.Text, t.Colors.Text)
	set(&p.Border, t.Colors.Border)
	return p
}

type namedColor struct {
	name  string
	value string
}

func (t *ThemeFile) colorFields() []namedColor {
	return []namedColor{
		{"primary", t.Colors.Primary},
		{"secondary", t.Colors.Secondary},
		{"warning", t.Colors.Warning},
		{"error", t.Colors.Error},
		{"muted", t.Colors.Muted},
		{"surface", t.Colors.Surface},
		{"text", t.Colors.Text},
		{"border", t.Colors.Border},
	}
}
