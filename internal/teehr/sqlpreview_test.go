package teehr

import (
	"testing"
	"time"
)

func TestFiltersToSQL(t *testing.T) {
	ref := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		filters []Filter
		want    string
	}{
		{
			name: "in list and timestamp",
			filters: []Filter{
				{Column: "secondary_location_id", Operator: OpIn, Value: []string{"123456", "9876543"}},
				{Column: "reference_time", Operator: OpEq, Value: ref},
			},
			want: "WHERE secondary_location_id in ('123456','9876543') AND reference_time = '2023-01-01 00:00:00'",
		},
		{
			name:    "no filters",
			filters: []Filter{},
			want:    "--no where clause",
		},
		{
			name:    "nil filters",
			filters: nil,
			want:    NoWhereClause,
		},
		{
			name:    "numeric value is bare",
			filters: []Filter{{Column: "primary_count", Operator: OpGte, Value: 10}},
			want:    "WHERE primary_count >= 10",
		},
		{
			name:    "quotes are escaped",
			filters: []Filter{{Column: "configuration_name", Operator: OpLike, Value: "o'brien%"}},
			want:    "WHERE configuration_name like 'o''brien%'",
		},
		{
			name:    "numbers in lists are quoted",
			filters: []Filter{{Column: "id", Operator: OpIn, Value: []any{1, "b"}}},
			want:    "WHERE id in ('1','b')",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FiltersToSQL(tt.filters); got != tt.want {
				t.Errorf("FiltersToSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}
