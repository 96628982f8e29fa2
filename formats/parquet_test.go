package formats

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/file"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
)

func TestWriteParquet_BasicOutput(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteParquet(rec, testResultSet()); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	// Verify response headers
	if rec.Code != 200 {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/parquet" {
		t.Errorf("Expected Content-Type 'application/parquet', got '%s'", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, ".parquet") {
		t.Errorf("Expected Content-Disposition with .parquet filename, got '%s'", cd)
	}

	// Verify the Parquet file is valid by reading it
	reader, err := file.NewParquetReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	schema := reader.MetaData().Schema
	if schema.NumColumns() != 6 {
		t.Errorf("Expected 6 columns in schema, got %d", schema.NumColumns())
	}
	if reader.NumRows() != 3 {
		t.Errorf("Expected 3 rows, got %d", reader.NumRows())
	}
}

func TestWriteParquet_EmptyResult(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteParquet(rec, emptyResultSet()); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	// Verify the Parquet file is valid (even if empty)
	reader, err := file.NewParquetReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	if reader.MetaData().Schema.NumColumns() != 2 {
		t.Errorf("Expected 2 columns in schema, got %d", reader.MetaData().Schema.NumColumns())
	}
	if reader.NumRows() != 0 {
		t.Errorf("Expected 0 rows, got %d", reader.NumRows())
	}
}

func TestWriteParquet_NullValues(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteParquet(rec, testResultSetWithNulls()); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	reader, err := file.NewParquetReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	if reader.NumRows() != 4 {
		t.Errorf("Expected 4 rows, got %d", reader.NumRows())
	}
}

func TestWriteParquet_LargeDataset(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteParquet(rec, largeResultSet(5000)); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	reader, err := file.NewParquetReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	if reader.NumRows() != 5000 {
		t.Errorf("Expected 5000 rows, got %d", reader.NumRows())
	}
}

func TestEncodeParquet_RowGroups(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeParquet(&buf, largeResultSet(parquetRowGroupSize+10)); err != nil {
		t.Fatalf("EncodeParquet failed: %v", err)
	}

	reader, err := file.NewParquetReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	if reader.NumRowGroups() != 2 {
		t.Errorf("Expected 2 row groups, got %d", reader.NumRowGroups())
	}
	if reader.NumRows() != parquetRowGroupSize+10 {
		t.Errorf("Expected %d rows, got %d", parquetRowGroupSize+10, reader.NumRows())
	}
}

func TestEncodeParquet_StoresArrowSchema(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeParquet(&buf, testResultSet()); err != nil {
		t.Fatalf("EncodeParquet failed: %v", err)
	}

	reader, err := file.NewParquetReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	fr, err := pqarrow.NewFileReader(reader, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		t.Fatalf("Failed to create Arrow reader: %v", err)
	}
	schema, err := fr.Schema()
	if err != nil {
		t.Fatalf("Failed to read Arrow schema: %v", err)
	}

	idx := schema.FieldIndices("created_at")
	if len(idx) != 1 {
		t.Fatalf("Expected created_at field, got schema %v", schema)
	}
	if schema.Field(idx[0]).Type.ID() != arrow.TIMESTAMP {
		t.Errorf("Expected created_at to stay a timestamp, got %v", schema.Field(idx[0]).Type)
	}
}

func TestWriteParquet_SandboxValues(t *testing.T) {
	set := sandboxResultSet(t, "SELECT * FROM Order_Items")

	var buf bytes.Buffer
	if err := EncodeParquet(&buf, set); err != nil {
		t.Fatalf("EncodeParquet failed: %v", err)
	}

	reader, err := file.NewParquetReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	if reader.NumRows() != 17 {
		t.Errorf("Expected 17 rows, got %d", reader.NumRows())
	}
}

func TestWriteParquet_Compression(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteParquet(rec, testResultSet()); err != nil {
		t.Fatalf("WriteParquet failed: %v", err)
	}

	reader, err := file.NewParquetReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create Parquet reader: %v", err)
	}
	defer reader.Close()

	chunk, err := reader.MetaData().RowGroup(0).ColumnChunk(0)
	if err != nil {
		t.Fatalf("Failed to read column chunk metadata: %v", err)
	}
	if chunk.Compression() != compress.Codecs.Snappy {
		t.Errorf("Expected Snappy compression, got %v", chunk.Compression())
	}
}

func BenchmarkWriteParquet(b *testing.B) {
	set := largeResultSet(1000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		if err := WriteParquet(rec, set); err != nil {
			b.Fatalf("WriteParquet failed: %v", err)
		}
	}
}
