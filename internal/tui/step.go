package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/teehrview/internal/session"
	"github.com/Iron-Ham/teehrview/internal/teehr"
	"github.com/Iron-Ham/teehrview/internal/workflow"
)

// Client is the part of the TEEHR API the step views use.
type Client interface {
	MetricOptions(ctx context.Context, datasetID int) ([]teehr.MetricOption, error)
	GroupByFields(ctx context.Context, datasetID int) ([]teehr.FieldOption, error)
	FilterOperators(ctx context.Context, datasetID int) ([]teehr.OperatorOption, error)
	UniqueFieldValues(ctx context.Context, datasetID int, field string) ([]teehr.FieldValue, error)
	QueryMetrics(ctx context.Context, datasetID int, q teehr.MetricQuery) (*teehr.MetricResult, error)
}

var _ Client = (*teehr.Client)(nil)

// step is one screen of the workflow. Steps read and write the session they
// are handed and never keep it; they move the workflow only through the
// callbacks they receive.
type step interface {
	// enter runs each time the step becomes active.
	enter(sess *session.Context) tea.Cmd
	// update handles input while active (with the shell's callbacks) and
	// async results at any time (with empty callbacks).
	update(msg tea.Msg, sess *session.Context, cb workflow.StepCallbacks) tea.Cmd
	view(sess *session.Context, width int) string
	help(cb workflow.StepCallbacks) []helpItem
}

type helpItem struct {
	key  string
	desc string
}

// clamp bounds i to [0, n-1]; zero when n is zero.
func clamp(i, n int) int {
	if n <= 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// window returns the [start, end) range of at most size items around cursor.
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	start := cursor - size/2
	start = max(0, min(start, n-size))
	return start, start + size
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// toggle adds name to list or removes it if present.
func toggle(list []string, name string) []string {
	for i, v := range list {
		if v == name {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return append(list, name)
}
