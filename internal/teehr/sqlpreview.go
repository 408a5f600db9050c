package teehr

import (
	"fmt"
	"strings"
	"time"
)

// SQLDateTimeFormat is the layout used for timestamps in SQL literals.
const SQLDateTimeFormat = "2006-01-02 15:04:05"

// NoWhereClause is rendered when a query carries no filters.
const NoWhereClause = "--no where clause"

// FiltersToSQL renders filters as the WHERE clause the dataset API will run,
// for preview before the query is submitted.
//
//	WHERE secondary_location_id in ('123456','9876543') AND reference_time = '2023-01-01 00:00:00'
func FiltersToSQL(filters []Filter) string {
	if len(filters) == 0 {
		return NoWhereClause
	}
	preds := make([]string, len(filters))
	for i, f := range filters {
		preds[i] = f.String()
	}
	return "WHERE " + strings.Join(preds, " AND ")
}

func formatSQLValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return quoteSQL(x)
	case time.Time:
		return quoteSQL(x.Format(SQLDateTimeFormat))
	case []string:
		items := make([]string, len(x))
		for i, s := range x {
			items[i] = quoteSQL(s)
		}
		return "(" + strings.Join(items, ",") + ")"
	case []any:
		items := make([]string, len(x))
		for i, item := range x {
			items[i] = formatListItem(item)
		}
		return "(" + strings.Join(items, ",") + ")"
	case []int:
		items := make([]string, len(x))
		for i, n := range x {
			items[i] = quoteSQL(fmt.Sprint(n))
		}
		return "(" + strings.Join(items, ",") + ")"
	case []float64:
		items := make([]string, len(x))
		for i, n := range x {
			items[i] = quoteSQL(fmt.Sprint(n))
		}
		return "(" + strings.Join(items, ",") + ")"
	case []time.Time:
		items := make([]string, len(x))
		for i, ts := range x {
			items[i] = quoteSQL(ts.Format(SQLDateTimeFormat))
		}
		return "(" + strings.Join(items, ",") + ")"
	default:
		return fmt.Sprint(x)
	}
}

// formatListItem quotes every list member, numbers included, matching how
// the API renders 'in' lists.
func formatListItem(v any) string {
	if ts, ok := v.(time.Time); ok {
		return quoteSQL(ts.Format(SQLDateTimeFormat))
	}
	return quoteSQL(fmt.Sprint(v))
}

func quoteSQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
