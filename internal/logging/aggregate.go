package logging

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// LogEntry is one parsed line of debug.log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	SessionID string         `json:"session_id,omitempty"`
	Step      string         `json:"step,omitempty"`
	Component string         `json:"component,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects entries. Empty fields match everything; set fields are
// combined with AND.
type LogFilter struct {
	// Level keeps entries at or above it (DEBUG < INFO < WARN < ERROR).
	Level     string
	Since     time.Time
	SessionID string
	Step      string
	Component string
	// MessageContains is a case-insensitive substring match on msg.
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// standardFields are lifted out of Attrs into LogEntry fields.
var standardFields = map[string]bool{
	"time":       true,
	"level":      true,
	"msg":        true,
	"session_id": true,
	"step":       true,
	"component":  true,
}

// ReadLogDir reads debug.log and its rotated backups from dir and returns
// every entry sorted by time. Lines that are not JSON are skipped.
func ReadLogDir(dir string) ([]LogEntry, error) {
	base := filepath.Join(dir, LogFileName)
	paths, err := filepath.Glob(base + ".*")
	if err != nil {
		return nil, err
	}
	paths = append(paths, base)

	var entries []LogEntry
	found := false
	for _, p := range paths {
		f, err := os.Open(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		found = true
		got, err := ReadEntries(f)
		_ = f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", filepath.Base(p), err)
		}
		entries = append(entries, got...)
	}
	if !found {
		return nil, fmt.Errorf("no log file found in %s", dir)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// ReadEntries parses JSON log lines from r.
func ReadEntries(r io.Reader) ([]LogEntry, error) {
	scanner := bufio.NewScanner(r)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	var entries []LogEntry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	str := func(k string) string {
		s, _ := raw[k].(string)
		return s
	}
	entry := LogEntry{
		Level:     str("level"),
		Message:   str("msg"),
		SessionID: str("session_id"),
		Step:      str("step"),
		Component: str("component"),
		Attrs:     make(map[string]any),
	}
	if t, err := time.Parse(time.RFC3339Nano, str("time")); err == nil {
		entry.Timestamp = t
	}
	for k, v := range raw {
		if !standardFields[k] {
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterLogs returns the entries matching filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	var out []LogEntry
	for _, e := range entries {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f LogFilter) matches(e LogEntry) bool {
	if f.Level != "" {
		floor, ok := levelOrder[strings.ToUpper(f.Level)]
		lvl, entryOK := levelOrder[e.Level]
		if ok && entryOK && lvl < floor {
			return false
		}
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.SessionID != "" && !strings.HasPrefix(e.SessionID, f.SessionID) {
		return false
	}
	if f.Step != "" && !strings.EqualFold(e.Step, f.Step) {
		return false
	}
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	if f.MessageContains != "" &&
		!strings.Contains(strings.ToLower(e.Message), strings.ToLower(f.MessageContains)) {
		return false
	}
	return true
}

// WriteText writes entries one per line:
//
//	15:04:05.000 INFO  [workflow] 1b2c3d4e Filters: filter added column=lead_time
func WriteText(w io.Writer, entries []LogEntry) error {
	for _, e := range entries {
		var b strings.Builder
		b.WriteString(e.Timestamp.Local().Format("15:04:05.000"))
		fmt.Fprintf(&b, " %-5s", e.Level)
		if e.Component != "" {
			fmt.Fprintf(&b, " [%s]", e.Component)
		}
		if e.SessionID != "" {
			b.WriteString(" " + shortID(e.SessionID))
		}
		if e.Step != "" {
			b.WriteString(" " + e.Step + ":")
		}
		b.WriteString(" " + e.Message)

		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
		}
		b.WriteString("\n")

		if _, err := io.WriteString(w, b.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes entries as a JSON array.
func WriteJSON(w io.Writer, entries []LogEntry) error {
	if entries == nil {
		entries = []LogEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
