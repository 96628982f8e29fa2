package formats

import (
	"context"
	"testing"
	"time"

	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/resultset"
	"go.uber.org/zap"
)

// testResultSet returns a small result set covering the common cell types
func testResultSet() resultset.ResultSet {
	return resultset.ResultSet{
		Columns: []string{"id", "name", "age", "score", "active", "created_at"},
		Values: [][]any{
			{int64(1), "Alice", int64(30), 95.5, true, time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
			{int64(2), "Bob", int64(25), 87.3, false, time.Date(2024, 1, 16, 14, 45, 0, 0, time.UTC)},
			{int64(3), "Charlie", int64(35), 92.1, true, time.Date(2024, 1, 17, 9, 0, 0, 0, time.UTC)},
		},
	}
}

// testResultSetWithNulls appends a row of NULLs to the standard fixture
func testResultSetWithNulls() resultset.ResultSet {
	set := testResultSet()
	set.Values = append(set.Values, []any{int64(4), nil, nil, nil, nil, nil})
	return set
}

// emptyResultSet has columns but no rows
func emptyResultSet() resultset.ResultSet {
	return resultset.ResultSet{
		Columns: []string{"id", "name"},
		Values:  [][]any{},
	}
}

// largeResultSet builds n rows of (id, label, value)
func largeResultSet(n int) resultset.ResultSet {
	set := resultset.ResultSet{Columns: []string{"id", "label", "value"}}
	set.Values = make([][]any, n)
	for i := 0; i < n; i++ {
		set.Values[i] = []any{int64(i), "row", float64(i) * 1.5}
	}
	return set
}

// sandboxResultSet runs a query against a freshly seeded DuckDB sandbox so the
// encoders see the values the driver really produces.
func sandboxResultSet(t testing.TB, query string) resultset.ResultSet {
	t.Helper()
	mgr, err := database.NewManagerForTesting(database.Config{
		Driver:     database.DriverDuckDB,
		AuthDBPath: ":memory:",
		Logger:     zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer mgr.Close()

	sets, err := mgr.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("Failed to execute %q: %v", query, err)
	}
	set, ok := resultset.First(sets)
	if !ok {
		t.Fatalf("Expected a result set for %q", query)
	}
	return set
}
