package formats

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"

	"github.com/Scc33/BuddySQL/resultset"
)

// WriteCSV writes a result set as a CSV attachment.
func WriteCSV(w http.ResponseWriter, set resultset.ResultSet) error {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=\"result.csv\"")
	w.WriteHeader(http.StatusOK)

	return EncodeCSV(w, set)
}

// EncodeCSV writes a header row followed by one record per row. NULL becomes
// an empty field.
func EncodeCSV(w io.Writer, set resultset.ResultSet) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(set.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range set.Values {
		record := make([]string, len(row))
		for i, val := range row {
			record[i] = resultset.FormatValue(val)
		}

		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
