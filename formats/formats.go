// Package formats renders result sets as JSON, CSV, Apache Arrow IPC and Parquet.
package formats

import (
	"fmt"
	"net/http"

	"github.com/Scc33/BuddySQL/resultset"
)

// Supported output formats.
const (
	FormatJSON    = "json"
	FormatCSV     = "csv"
	FormatArrow   = "arrow"
	FormatParquet = "parquet"
)

// IsSupported reports whether format names a known output format.
func IsSupported(format string) bool {
	switch format {
	case FormatJSON, FormatCSV, FormatArrow, FormatParquet:
		return true
	}
	return false
}

// Write renders a single result set in a tabular format. JSON renders the
// rows as objects without pagination.
func Write(w http.ResponseWriter, format string, set resultset.ResultSet) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, set)
	case FormatArrow:
		return WriteArrowIPC(w, set)
	case FormatParquet:
		return WriteParquet(w, set)
	case FormatJSON, "":
		return WriteJSON(w, set, nil)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
