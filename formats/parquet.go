package formats

import (
	"fmt"
	"io"
	"net/http"

	"github.com/Scc33/BuddySQL/resultset"
	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
)

// parquetRowGroupSize is the maximum number of rows per Parquet row group.
const parquetRowGroupSize = 64 * 1024

// WriteParquet writes a result set as a Parquet attachment.
func WriteParquet(w http.ResponseWriter, set resultset.ResultSet) error {
	w.Header().Set("Content-Type", "application/parquet")
	w.Header().Set("Content-Disposition", `attachment; filename="query_result.parquet"`)
	w.WriteHeader(http.StatusOK)

	return EncodeParquet(w, set)
}

// EncodeParquet writes a result set to w as a Snappy-compressed Parquet file
// with one row group per parquetRowGroupSize rows. The Arrow schema is
// stored in the file metadata so column types survive a round trip.
func EncodeParquet(w io.Writer, set resultset.ResultSet) error {
	schema := ArrowSchema(set)
	pool := memory.NewGoAllocator()

	props := parquet.NewWriterProperties(
		parquet.WithCompression(compress.Codecs.Snappy),
		parquet.WithDictionaryDefault(true),
		parquet.WithAllocator(pool),
	)
	fw, err := pqarrow.NewFileWriter(schema, w, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}

	err = encodeBatches(set, schema, pool, parquetRowGroupSize, func(rec arrow.Record) error {
		if err := fw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row group: %w", err)
		}
		return nil
	})
	if cerr := fw.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish parquet file: %w", cerr)
	}
	return err
}
