// Package resultset defines the tabular shape shared by query execution and grading.
package resultset

import (
	"fmt"
	"strings"
)

// ResultSet is the output of one executed statement: ordered column names
// plus ordered rows, each row holding one cell per column.
type ResultSet struct {
	Columns []string `json:"columns"`
	Values  [][]any  `json:"values"`
}

// RowCount returns the number of rows in the result set.
func (rs ResultSet) RowCount() int {
	return len(rs.Values)
}

// First returns the first result set and true, or false when there is none.
func First(sets []ResultSet) (ResultSet, bool) {
	if len(sets) == 0 {
		return ResultSet{}, false
	}
	return sets[0], true
}

// Equal reports whether two result sets hold the same columns and cells in the
// same order. Column names are compared case-insensitively; cells are compared
// by their formatted value so that engine-specific numeric widths do not matter.
func Equal(a, b ResultSet) bool {
	if len(a.Columns) != len(b.Columns) || len(a.Values) != len(b.Values) {
		return false
	}
	for i := range a.Columns {
		if !strings.EqualFold(a.Columns[i], b.Columns[i]) {
			return false
		}
	}
	for i := range a.Values {
		if len(a.Values[i]) != len(b.Values[i]) {
			return false
		}
		for j := range a.Values[i] {
			if FormatValue(a.Values[i][j]) != FormatValue(b.Values[i][j]) {
				return false
			}
		}
	}
	return true
}

// FormatValue converts a cell to its display string. NULL becomes the empty string.
func FormatValue(val any) string {
	if val == nil {
		return ""
	}

	switch v := val.(type) {
	case []byte:
		return string(v)
	case string:
		return v
	case int, int8, int16, int32, int64:
		return fmt.Sprintf("%d", v)
	case uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return fmt.Sprintf("%g", v)
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v)
	}
}
