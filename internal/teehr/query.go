package teehr

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/teehrview/internal/errors"
)

// Operator is a filter comparison operator.
type Operator string

const (
	OpEq   Operator = "="
	OpGt   Operator = ">"
	OpLt   Operator = "<"
	OpGte  Operator = ">="
	OpLte  Operator = "<="
	OpLike Operator = "like"
	OpIn   Operator = "in"
)

// Field names with special validation rules.
const (
	FieldPrimaryLocationID = "primary_location_id"
	FieldGeometry          = "geometry"
)

var operatorNames = map[Operator]string{
	OpEq:   "eq",
	OpGt:   "gt",
	OpLt:   "lt",
	OpGte:  "gte",
	OpLte:  "lte",
	OpLike: "islike",
	OpIn:   "isin",
}

// ValidOperators returns every supported operator in display order.
func ValidOperators() []Operator {
	return []Operator{OpEq, OpGt, OpLt, OpGte, OpLte, OpLike, OpIn}
}

// DefaultOperatorOptions is the operator list used when a dataset does not
// advertise its own.
func DefaultOperatorOptions() []OperatorOption {
	ops := ValidOperators()
	out := make([]OperatorOption, len(ops))
	for i, op := range ops {
		out[i] = OperatorOption{Name: operatorNames[op], Symbol: op}
	}
	return out
}

// ParseOperator accepts either a symbol ("<=") or a name ("lte").
func ParseOperator(s string) (Operator, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for op, name := range operatorNames {
		if s == string(op) || s == name {
			return op, true
		}
	}
	return "", false
}

// Valid reports whether op is a supported operator.
func (op Operator) Valid() bool {
	_, ok := operatorNames[op]
	return ok
}

// ParseFilterValue turns user input into a filter value: a comma-separated
// list for OpIn, otherwise the trimmed string.
func ParseFilterValue(op Operator, raw string) any {
	raw = strings.TrimSpace(raw)
	if op != OpIn {
		return raw
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			values = append(values, p)
		}
	}
	return values
}

// isList reports whether v is a list value (strings are not lists).
func isList(v any) bool {
	switch v.(type) {
	case []string, []any, []int, []float64, []time.Time:
		return true
	default:
		return false
	}
}

// Validate checks the query against the rules the dataset API enforces and
// returns every violation joined. Each violation is a *errors.ValidationError.
func (q MetricQuery) Validate() error {
	var errs []error

	if len(q.IncludeMetrics) == 0 {
		errs = append(errs, errors.NewValidationError("at least one metric must be selected").
			WithField("include_metrics"))
	}
	if len(q.GroupBy) == 0 {
		errs = append(errs, errors.NewValidationError("at least one group_by field must be selected").
			WithField("group_by"))
	}

	for i, f := range q.Filters {
		if err := f.Validate(); err != nil {
			if ve, ok := err.(*errors.ValidationError); ok {
				ve.WithField(fmt.Sprintf("filters[%d].%s", i, ve.Field))
			}
			errs = append(errs, err)
		}
	}

	if q.IncludeGeometry && !slices.Contains(q.GroupBy, FieldPrimaryLocationID) {
		errs = append(errs, errors.NewValidationError(
			"`group_by` must contain `primary_location_id` to include geometry in returned data").
			WithField("include_geometry"))
	}
	if slices.Contains(q.GroupBy, FieldGeometry) && !q.IncludeGeometry {
		errs = append(errs, errors.NewValidationError(
			"group_by contains `geometry` field but `include_geometry` is False, must be True").
			WithField("include_geometry"))
	}

	return errors.Join(errs...)
}

// Validate checks a single filter. The 'in' operator requires a list value
// and a list value requires the 'in' operator.
func (f Filter) Validate() error {
	if strings.TrimSpace(f.Column) == "" {
		return errors.NewValidationError("column is required").WithField("column")
	}
	if !f.Operator.Valid() {
		return errors.NewValidationError(fmt.Sprintf("unknown operator %q", f.Operator)).WithField("operator")
	}
	list := isList(f.Value)
	if list && f.Operator != OpIn {
		return errors.NewValidationError("iterable value must be used with 'in' operator").WithField("value")
	}
	if f.Operator == OpIn && !list {
		return errors.NewValidationError("'in' operator can only be used with iterable value").WithField("value")
	}
	return nil
}
