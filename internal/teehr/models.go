// Package teehr is the client side of the TEEHR dataset API: the wire models
// for datasets, metric options and metric queries, the validation rules a
// query must satisfy before it is sent, and an HTTP client.
package teehr

import (
	"fmt"
	"slices"
	"sort"
)

// Dataset describes one selectable TEEHR dataset.
type Dataset struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// MetricOption is a metric the dataset can compute, e.g. "kling_gupta_efficiency".
type MetricOption struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// FieldOption is a joined-timeseries field usable for group-by, order-by and
// filters.
type FieldOption struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// OperatorOption pairs an operator name ("gte") with its symbol (">=").
type OperatorOption struct {
	Name   string   `json:"name"`
	Symbol Operator `json:"symbol"`
}

// FieldValue is one distinct value of a field, rendered as text.
type FieldValue string

// Filter restricts the joined timeseries before metrics are computed.
// Value holds a string, a number, a time.Time, or a list of those when
// Operator is OpIn.
type Filter struct {
	Column   string   `json:"column"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// String renders the filter as a single SQL predicate.
func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.Column, f.Operator, formatSQLValue(f.Value))
}

// QueryForm is the in-progress query the user builds across the workflow
// steps.
type QueryForm struct {
	DatasetID int
	// DatasetSelected is set by WithDataset. Dataset ids start at zero, so
	// DatasetID alone cannot tell a choice from the default.
	DatasetSelected bool
	IncludeMetrics  []string
	GroupBy         []string
	OrderBy         []string
	Filters         []Filter
	IncludeGeometry bool
}

// DefaultQueryForm returns the form every workflow starts (and resets) with.
func DefaultQueryForm() QueryForm {
	return QueryForm{
		IncludeMetrics: []string{},
		GroupBy:        []string{},
		OrderBy:        []string{},
		Filters:        []Filter{},
	}
}

// Clone returns a deep copy so callers can edit the result without aliasing
// the original's slices.
func (f QueryForm) Clone() QueryForm {
	out := f
	out.IncludeMetrics = slices.Clone(f.IncludeMetrics)
	out.GroupBy = slices.Clone(f.GroupBy)
	out.OrderBy = slices.Clone(f.OrderBy)
	out.Filters = slices.Clone(f.Filters)
	if out.IncludeMetrics == nil {
		out.IncludeMetrics = []string{}
	}
	if out.GroupBy == nil {
		out.GroupBy = []string{}
	}
	if out.OrderBy == nil {
		out.OrderBy = []string{}
	}
	if out.Filters == nil {
		out.Filters = []Filter{}
	}
	return out
}

// HasDataset reports whether a dataset has been chosen.
func (f QueryForm) HasDataset() bool {
	return f.DatasetSelected
}

// WithDataset returns a copy of f with dataset id chosen.
func (f QueryForm) WithDataset(id int) QueryForm {
	f.DatasetID = id
	f.DatasetSelected = true
	return f
}

// MetricQuery converts the form into the request body for get_metrics.
// An empty OrderBy falls back to the group-by fields.
func (f QueryForm) MetricQuery() MetricQuery {
	orderBy := f.OrderBy
	if len(orderBy) == 0 {
		orderBy = f.GroupBy
	}
	filters := f.Filters
	if filters == nil {
		filters = []Filter{}
	}
	return MetricQuery{
		GroupBy:         slices.Clone(f.GroupBy),
		OrderBy:         slices.Clone(orderBy),
		IncludeMetrics:  slices.Clone(f.IncludeMetrics),
		Filters:         slices.Clone(filters),
		IncludeGeometry: f.IncludeGeometry,
	}
}

// MetricQuery is the body of a get_metrics request.
type MetricQuery struct {
	GroupBy         []string `json:"group_by"`
	OrderBy         []string `json:"order_by"`
	IncludeMetrics  []string `json:"include_metrics"`
	Filters         []Filter `json:"filters"`
	IncludeGeometry bool     `json:"include_geometry"`
	ReturnQuery     bool     `json:"return_query"`
}

// MetricResult is a computed metric table.
type MetricResult struct {
	Columns []string
	Rows    []map[string]any
}

// NewMetricResult builds a result table from API records. Columns listed in
// preferred come first in that order; any other keys follow alphabetically.
func NewMetricResult(records []map[string]any, preferred []string) *MetricResult {
	keys := make(map[string]bool)
	for _, rec := range records {
		for k := range rec {
			keys[k] = true
		}
	}

	columns := make([]string, 0, len(keys))
	for _, p := range preferred {
		if keys[p] {
			columns = append(columns, p)
			delete(keys, p)
		}
	}
	rest := make([]string, 0, len(keys))
	for k := range keys {
		rest = append(rest, k)
	}
	sort.Strings(rest)
	columns = append(columns, rest...)

	if records == nil {
		records = []map[string]any{}
	}
	return &MetricResult{Columns: columns, Rows: records}
}

// Len returns the number of rows.
func (r *MetricResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Rows)
}

// Cell renders one cell for display; missing values render as "-".
func (r *MetricResult) Cell(row int, column string) string {
	v, ok := r.Rows[row][column]
	if !ok || v == nil {
		return "-"
	}
	switch x := v.(type) {
	case float64:
		return fmt.Sprintf("%.4g", x)
	default:
		return fmt.Sprint(x)
	}
}
