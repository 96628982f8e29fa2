package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/Scc33/BuddySQL/resultset"
	"go.uber.org/zap"
)

// ErrEmptyQuery is returned when a script contains no statements.
var ErrEmptyQuery = errors.New("no SQL statements to execute")

// Execute runs a learner's script against the sandbox and returns one result
// set per statement that produced rows. Statements run in order inside a
// single transaction that is always rolled back, so the sandbox never changes.
// Execution stops at the first failing statement and the engine's error is
// returned unchanged.
func (m *Manager) Execute(ctx context.Context, script string) ([]resultset.ResultSet, error) {
	stmts := SplitStatements(script)
	if len(stmts) == 0 {
		return nil, ErrEmptyQuery
	}
	for _, stmt := range stmts {
		if err := stmt.Allowed(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := m.timeoutContext(ctx)
	defer cancel()

	tx, err := m.sandbox.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	startTime := time.Now()
	var results []resultset.ResultSet
	for _, stmt := range stmts {
		if !stmt.IsRead() {
			if _, err := tx.ExecContext(ctx, stmt.SQL); err != nil {
				return nil, err
			}
			continue
		}

		set, err := m.query(ctx, tx, stmt.SQL)
		if err != nil {
			return nil, err
		}
		// A statement that yields no rows yields no result set
		if set.RowCount() > 0 {
			results = append(results, set)
		}
	}

	m.logger.Debug("Executed sandbox script",
		zap.Int("statements", len(stmts)),
		zap.Int("result_sets", len(results)),
		zap.Duration("elapsed", time.Since(startTime)),
	)

	return results, nil
}

// query runs a single row-producing statement and collects its rows.
func (m *Manager) query(ctx context.Context, tx *sql.Tx, query string) (resultset.ResultSet, error) {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return resultset.ResultSet{}, err
	}
	defer rows.Close()

	return m.collect(rows)
}

// collect reads every row of rows into a result set, honoring MaxRows.
func (m *Manager) collect(rows *sql.Rows) (resultset.ResultSet, error) {
	columns, err := rows.Columns()
	if err != nil {
		return resultset.ResultSet{}, fmt.Errorf("failed to get columns: %w", err)
	}

	set := resultset.ResultSet{Columns: columns, Values: [][]any{}}
	for rows.Next() {
		if m.maxRows > 0 && len(set.Values) >= m.maxRows {
			m.logger.Warn("Result set truncated",
				zap.Int("max_rows", m.maxRows),
			)
			break
		}

		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return resultset.ResultSet{}, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			values[i] = normalizeValue(v)
		}
		set.Values = append(set.Values, values)
	}
	if err := rows.Err(); err != nil {
		return resultset.ResultSet{}, err
	}

	return set, nil
}

// normalizeValue converts driver-specific cell values into plain values that
// encode cleanly as JSON and compare by formatted value.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case *big.Int:
		// DuckDB sums integers into HUGEINT
		if val.IsInt64() {
			return val.Int64()
		}
		return val.String()
	case interface{ Float64() float64 }:
		// DuckDB DECIMAL
		return val.Float64()
	case fmt.Stringer:
		return val.String()
	default:
		return v
	}
}
