package formats

import (
	"bytes"
	"encoding/csv"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Scc33/BuddySQL/resultset"
)

func TestWriteCSV_BasicOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteCSV(rec, testResultSet()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	// Verify response headers
	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Expected Content-Type 'text/csv', got '%s'", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "result.csv") {
		t.Errorf("Expected Content-Disposition with result.csv, got '%s'", cd)
	}

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	// Header + 3 data rows
	if len(records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(records))
	}
	if strings.Join(records[0], ",") != "id,name,age,score,active,created_at" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][1] != "Alice" {
		t.Errorf("Expected 'Alice', got '%s'", records[1][1])
	}
	if records[1][3] != "95.5" {
		t.Errorf("Expected '95.5', got '%s'", records[1][3])
	}
	if records[2][4] != "false" {
		t.Errorf("Expected 'false', got '%s'", records[2][4])
	}
}

func TestWriteCSV_EmptyResult(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteCSV(rec, emptyResultSet()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	// Only the header
	if len(records) != 1 {
		t.Errorf("Expected 1 record (header only), got %d", len(records))
	}
}

func TestWriteCSV_NullValues(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteCSV(rec, testResultSetWithNulls()); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	last := records[len(records)-1]
	if last[0] != "4" {
		t.Errorf("Expected id '4', got '%s'", last[0])
	}
	for i := 1; i < len(last); i++ {
		if last[i] != "" {
			t.Errorf("Expected empty field for NULL at column %d, got '%s'", i, last[i])
		}
	}
}

func TestWriteCSV_SpecialCharacters(t *testing.T) {
	set := resultset.ResultSet{
		Columns: []string{"text"},
		Values: [][]any{
			{"comma, inside"},
			{`quote "inside"`},
			{"line\nbreak"},
		},
	}

	rec := httptest.NewRecorder()
	if err := WriteCSV(rec, set); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(bytes.NewReader(rec.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	for i, want := range []string{"comma, inside", `quote "inside"`, "line\nbreak"} {
		if records[i+1][0] != want {
			t.Errorf("Row %d: expected %q, got %q", i+1, want, records[i+1][0])
		}
	}
}

func TestWriteCSV_SandboxValues(t *testing.T) {
	set := sandboxResultSet(t, "SELECT first_name, join_date FROM Customers WHERE customer_id = 1")

	var buf bytes.Buffer
	if err := EncodeCSV(&buf, set); err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}

	expected := "first_name,join_date\nJohn,2023-01-15\n"
	if buf.String() != expected {
		t.Errorf("Expected %q, got %q", expected, buf.String())
	}
}

func BenchmarkWriteCSV(b *testing.B) {
	set := largeResultSet(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		if err := WriteCSV(rec, set); err != nil {
			b.Fatalf("WriteCSV failed: %v", err)
		}
	}
}
