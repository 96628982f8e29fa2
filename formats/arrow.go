package formats

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Scc33/BuddySQL/resultset"
	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"
)

// WriteArrowIPC writes a result set as an Apache Arrow IPC stream.
func WriteArrowIPC(w http.ResponseWriter, set resultset.ResultSet) error {
	w.Header().Set("Content-Type", "application/vnd.apache.arrow.stream")
	w.WriteHeader(http.StatusOK)

	return EncodeArrowIPC(w, set)
}

// ipcBatchSize is the number of rows per record in an Arrow IPC stream.
const ipcBatchSize = 1024

// EncodeArrowIPC writes a result set to w as an Arrow IPC stream. An empty
// result produces a stream holding only the schema.
func EncodeArrowIPC(w io.Writer, set resultset.ResultSet) error {
	schema := ArrowSchema(set)
	pool := memory.NewGoAllocator()

	writer := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	err := encodeBatches(set, schema, pool, ipcBatchSize, func(rec arrow.Record) error {
		if err := writer.Write(rec); err != nil {
			return fmt.Errorf("failed to write record batch: %w", err)
		}
		return nil
	})
	if cerr := writer.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to close arrow stream: %w", cerr)
	}
	return err
}

// encodeBatches converts the rows of set into records of at most batchSize
// rows and passes each to emit. Records are released after emit returns.
func encodeBatches(set resultset.ResultSet, schema *arrow.Schema, pool memory.Allocator, batchSize int, emit func(arrow.Record) error) error {
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	for start := 0; start < len(set.Values); start += batchSize {
		end := min(start+batchSize, len(set.Values))
		for r, row := range set.Values[start:end] {
			for c := range schema.Fields() {
				var v any
				if c < len(row) {
					v = row[c]
				}
				if err := appendValue(b.Field(c), v); err != nil {
					return fmt.Errorf("row %d, column %q: %w", start+r, schema.Field(c).Name, err)
				}
			}
		}

		rec := b.NewRecord()
		err := emit(rec)
		rec.Release()
		if err != nil {
			return err
		}
	}
	return nil
}

// ArrowSchema derives an Arrow schema from the values of a result set. Every
// field is nullable; columns with no non-NULL values become strings.
func ArrowSchema(set resultset.ResultSet) *arrow.Schema {
	fields := make([]arrow.Field, len(set.Columns))
	for i, name := range set.Columns {
		fields[i] = arrow.Field{
			Name:     name,
			Type:     inferArrowType(set.Values, i),
			Nullable: true,
		}
	}
	return arrow.NewSchema(fields, nil)
}

// inferArrowType picks one Arrow type for a column. Mixed integer and float
// columns widen to float64; any other mix falls back to string.
func inferArrowType(values [][]any, col int) arrow.DataType {
	var inferred arrow.DataType
	for _, row := range values {
		if col >= len(row) || row[col] == nil {
			continue
		}
		t := arrowTypeOf(row[col])
		switch {
		case inferred == nil:
			inferred = t
		case arrow.TypeEqual(inferred, t):
		case isNumeric(inferred) && isNumeric(t):
			inferred = arrow.PrimitiveTypes.Float64
		default:
			return arrow.BinaryTypes.String
		}
	}
	if inferred == nil {
		return arrow.BinaryTypes.String
	}
	return inferred
}

// arrowTypeOf maps a Go cell value to an Arrow type.
func arrowTypeOf(v any) arrow.DataType {
	switch v.(type) {
	case bool:
		return arrow.FixedWidthTypes.Boolean
	case int, int8, int16, int32, int64:
		return arrow.PrimitiveTypes.Int64
	case uint, uint8, uint16, uint32, uint64:
		return arrow.PrimitiveTypes.Uint64
	case float32, float64:
		return arrow.PrimitiveTypes.Float64
	case []byte:
		return arrow.BinaryTypes.Binary
	case time.Time:
		return arrow.FixedWidthTypes.Timestamp_us
	default:
		return arrow.BinaryTypes.String
	}
}

func isNumeric(t arrow.DataType) bool {
	switch t.ID() {
	case arrow.INT64, arrow.UINT64, arrow.FLOAT64:
		return true
	}
	return false
}

// appendValue appends one cell to builder, or a null for nil.
func appendValue(builder array.Builder, val any) error {
	if val == nil {
		builder.AppendNull()
		return nil
	}

	switch b := builder.(type) {
	case *array.BooleanBuilder:
		v, ok := val.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", val)
		}
		b.Append(v)
	case *array.Int64Builder:
		v, ok := toInt64(val)
		if !ok {
			return fmt.Errorf("expected integer, got %T", val)
		}
		b.Append(v)
	case *array.Uint64Builder:
		v, ok := toUint64(val)
		if !ok {
			return fmt.Errorf("expected unsigned integer, got %T", val)
		}
		b.Append(v)
	case *array.Float64Builder:
		v, ok := toFloat64(val)
		if !ok {
			return fmt.Errorf("expected number, got %T", val)
		}
		b.Append(v)
	case *array.StringBuilder:
		if v, ok := val.(string); ok {
			b.Append(v)
		} else {
			b.Append(resultset.FormatValue(val))
		}
	case *array.BinaryBuilder:
		switch v := val.(type) {
		case []byte:
			b.Append(v)
		case string:
			b.Append([]byte(v))
		default:
			return fmt.Errorf("expected []byte or string, got %T", val)
		}
	case *array.TimestampBuilder:
		v, ok := val.(time.Time)
		if !ok {
			return fmt.Errorf("expected time.Time for timestamp, got %T", val)
		}
		b.Append(arrow.Timestamp(v.UnixMicro()))
	default:
		return fmt.Errorf("unsupported builder type: %T", builder)
	}

	return nil
}

func toInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}
	return 0, false
}

func toUint64(val any) (uint64, bool) {
	switch v := val.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}
	return 0, false
}

func toFloat64(val any) (float64, bool) {
	switch v := val.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}
	if i, ok := toInt64(val); ok {
		return float64(i), true
	}
	if u, ok := toUint64(val); ok {
		return float64(u), true
	}
	return 0, false
}
