package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/teehrview/internal/bootstrap"
	"github.com/Iron-Ham/teehrview/internal/teehr"
	"github.com/Iron-Ham/teehrview/internal/tui/styles"
)

// startBootstrapMsg starts the dataset bootstrap from inside Update.
type startBootstrapMsg struct{}

// bootstrapMsg carries the settled dataset bootstrap back onto the loop.
type bootstrapMsg struct {
	outcome bootstrap.Outcome
}

// optionsLoadedMsg carries the metric, field and operator options for a
// dataset.
type optionsLoadedMsg struct {
	datasetID int
	metrics   []teehr.MetricOption
	groupBy   []teehr.FieldOption
	operators []teehr.OperatorOption
	err       error
}

// fieldValuesMsg carries the unique values of one field.
type fieldValuesMsg struct {
	datasetID int
	field     string
	values    []teehr.FieldValue
	err       error
}

// resultsMsg carries a metric query result. seq ties it to the run that
// produced it so stale results are dropped.
type resultsMsg struct {
	seq    int
	result *teehr.MetricResult
	err    error
}

// themeChangedMsg is sent by the theme watcher.
type themeChangedMsg struct {
	theme *styles.ThemeFile
	err   error
}

// Commands

func startBootstrap() tea.Msg {
	return startBootstrapMsg{}
}

// waitForBootstrap blocks on the bootstrap channel off the UI loop.
func waitForBootstrap(ch <-chan bootstrap.Outcome) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		o, ok := <-ch
		if !ok {
			return nil
		}
		return bootstrapMsg{outcome: o}
	}
}

// loadOptions fetches everything the query step offers for a dataset.
// Operators fall back to the built-in list when the dataset has none.
func loadOptions(ctx context.Context, c Client, datasetID int) tea.Cmd {
	return func() tea.Msg {
		msg := optionsLoadedMsg{datasetID: datasetID}
		if msg.metrics, msg.err = c.MetricOptions(ctx, datasetID); msg.err != nil {
			return msg
		}
		if msg.groupBy, msg.err = c.GroupByFields(ctx, datasetID); msg.err != nil {
			return msg
		}
		ops, err := c.FilterOperators(ctx, datasetID)
		if err != nil || len(ops) == 0 {
			ops = teehr.DefaultOperatorOptions()
		}
		msg.operators = ops
		return msg
	}
}

// loadFieldValues fetches the unique values of field.
func loadFieldValues(ctx context.Context, c Client, datasetID int, field string) tea.Cmd {
	return func() tea.Msg {
		values, err := c.UniqueFieldValues(ctx, datasetID, field)
		return fieldValuesMsg{datasetID: datasetID, field: field, values: values, err: err}
	}
}

// runQuery executes a metric query.
func runQuery(ctx context.Context, c Client, seq, datasetID int, q teehr.MetricQuery) tea.Cmd {
	return func() tea.Msg {
		result, err := c.QueryMetrics(ctx, datasetID, q)
		return resultsMsg{seq: seq, result: result, err: err}
	}
}
