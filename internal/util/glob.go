package util

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// GlobFilter matches option names against a shell-style pattern such as
// "*_efficiency" or "primary_*". A pattern without wildcards matches as a
// case-insensitive substring.
type GlobFilter struct {
	pattern string
	g       glob.Glob
}

// NewGlobFilter compiles pattern. An empty pattern matches everything.
func NewGlobFilter(pattern string) (*GlobFilter, error) {
	pattern = strings.TrimSpace(pattern)
	f := &GlobFilter{pattern: pattern}
	if pattern == "" {
		return f, nil
	}
	expr := strings.ToLower(pattern)
	if !strings.ContainsAny(expr, "*?[{") {
		expr = "*" + expr + "*"
	}
	g, err := glob.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	f.g = g
	return f, nil
}

// Pattern returns the pattern as typed.
func (f *GlobFilter) Pattern() string {
	return f.pattern
}

// Match reports whether name matches.
func (f *GlobFilter) Match(name string) bool {
	if f == nil || f.g == nil {
		return true
	}
	return f.g.Match(strings.ToLower(name))
}

// Indices returns the positions in names that match, in order.
func (f *GlobFilter) Indices(names []string) []int {
	out := make([]int, 0, len(names))
	for i, n := range names {
		if f.Match(n) {
			out = append(out, i)
		}
	}
	return out
}
