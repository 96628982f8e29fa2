package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Scc33/BuddySQL/resultset"
	"go.uber.org/zap"
)

// ErrUnknownColumn is returned when a preview sorts by a column the table lacks.
var ErrUnknownColumn = errors.New("unknown sort column")

// Column describes one column of a sandbox table.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Table describes a sandbox table.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Sort represents a sort order.
type Sort struct {
	Column    string
	Direction string
}

// ToSQL converts the sort to SQL.
func (s Sort) ToSQL() string {
	dir := "ASC"
	if strings.ToLower(s.Direction) == "desc" {
		dir = "DESC"
	}
	return fmt.Sprintf("%s %s", quoteIdent(s.Column), dir)
}

// TableExists checks if a table exists in the sandbox. The match ignores case.
func (m *Manager) TableExists(ctx context.Context, table string) (bool, error) {
	query := `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE lower(table_name) = lower(?)
	`
	if m.driver == DriverSQLite {
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND lower(name) = lower(?)`
	}

	var count int
	if err := m.QueryRowScanSandbox(ctx, query, []interface{}{&count}, table); err != nil {
		return false, err
	}
	return count > 0, nil
}

// Tables lists the sandbox tables with their columns, ordered by name.
func (m *Manager) Tables(ctx context.Context) ([]Table, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'main'
		ORDER BY table_name
	`
	if m.driver == DriverSQLite {
		query = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	}

	qctx, cancel := m.timeoutContext(ctx)
	defer cancel()

	rows, err := m.sandbox.QueryContext(qctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		columns, err := m.TableColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, Table{Name: name, Columns: columns})
	}
	return tables, nil
}

// TableColumns retrieves and caches the columns of a sandbox table. Learner
// scripts are always rolled back, so the cache never goes stale.
func (m *Manager) TableColumns(ctx context.Context, table string) ([]Column, error) {
	cacheKey := strings.ToLower(table)
	if cached, ok := m.tableSchemas.Load(cacheKey); ok {
		return cached.([]Column), nil
	}

	query := `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE lower(table_name) = lower(?)
		ORDER BY ordinal_position
	`
	if m.driver == DriverSQLite {
		query = `SELECT name, type, "notnull" = 0 FROM pragma_table_info(?) ORDER BY cid`
	}

	qctx, cancel := m.timeoutContext(ctx)
	defer cancel()

	rows, err := m.sandbox.QueryContext(qctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query table schema: %w", err)
	}
	defer rows.Close()

	var columns []Column
	for rows.Next() {
		var col Column
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table '%s' has no columns or does not exist", table)
	}

	m.tableSchemas.Store(cacheKey, columns)

	m.logger.Debug("Cached table schema",
		zap.String("table", table),
		zap.Int("columns", len(columns)),
	)

	return columns, nil
}

// Preview returns one page of a sandbox table. Sort columns must exist in
// the table.
func (m *Manager) Preview(ctx context.Context, table string, sorts []Sort, limit, offset int) (resultset.ResultSet, error) {
	columns, err := m.TableColumns(ctx, table)
	if err != nil {
		return resultset.ResultSet{}, err
	}

	known := make(map[string]bool, len(columns))
	for _, col := range columns {
		known[strings.ToLower(col.Name)] = true
	}

	query := fmt.Sprintf("SELECT * FROM %s", quoteIdent(table))

	if len(sorts) > 0 {
		sortClauses := make([]string, 0, len(sorts))
		for _, s := range sorts {
			if !known[strings.ToLower(s.Column)] {
				return resultset.ResultSet{}, fmt.Errorf("%w '%s'", ErrUnknownColumn, s.Column)
			}
			sortClauses = append(sortClauses, s.ToSQL())
		}
		query += " ORDER BY " + strings.Join(sortClauses, ", ")
	}

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	if offset > 0 {
		if limit <= 0 && m.driver == DriverSQLite {
			// SQLite only accepts OFFSET after LIMIT
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", offset)
	}

	qctx, cancel := m.timeoutContext(ctx)
	defer cancel()

	rows, err := m.sandbox.QueryContext(qctx, query)
	if err != nil {
		return resultset.ResultSet{}, fmt.Errorf("failed to preview table: %w", err)
	}
	defer rows.Close()

	return m.collect(rows)
}

// Count returns the total number of rows in a sandbox table.
func (m *Manager) Count(ctx context.Context, table string) (int64, error) {
	if _, err := m.TableColumns(ctx, table); err != nil {
		return 0, err
	}

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteIdent(table))
	err := m.QueryRowScanSandbox(ctx, query, []interface{}{&count})
	return count, err
}
