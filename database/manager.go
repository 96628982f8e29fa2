package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Supported sandbox drivers.
const (
	DriverDuckDB = "duckdb"
	DriverSQLite = "sqlite3"
)

// Config holds the configuration for the database manager.
type Config struct {
	// Driver selects the sandbox engine. Empty means DuckDB.
	Driver       string
	SandboxPath  string
	AuthDBPath   string
	Threads      int
	MemoryLimit  string
	QueryTimeout time.Duration
	// MaxRows caps the rows collected per result set. Zero means unlimited.
	MaxRows int
	Logger  *zap.Logger
}

// Manager owns the sandbox database learners query and the internal auth database.
type Manager struct {
	sandbox      *sql.DB
	authDB       *sql.DB
	driver       string
	authDBPath   string   // stored for error messages
	tableSchemas sync.Map // map[string][]Column - cache of table->columns
	queryTimeout time.Duration
	maxRows      int
	logger       *zap.Logger
}

// NewManager creates a new database manager. The sandbox is seeded with the
// sample schema on first use; the auth database must already be initialized.
func NewManager(cfg Config) (*Manager, error) {
	mgr, err := openManager(cfg)
	if err != nil {
		return nil, err
	}

	// Validate the auth database schema
	if err := mgr.initAuthSchema(); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("failed to initialize auth schema: %w", err)
	}

	// Pre-warm connections to eliminate cold-start latency
	mgr.warmConnections()

	return mgr, nil
}

// NewManagerForTesting creates a new database manager and initializes the auth schema.
// This is ONLY for use in tests - production should use the buddysql CLI tool.
func NewManagerForTesting(cfg Config) (*Manager, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 10 * time.Second
	}

	mgr, err := openManager(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize auth schema for testing (instead of validating)
	if err := mgr.InitAuthSchemaForTesting(); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("failed to initialize auth schema: %w", err)
	}

	return mgr, nil
}

// NewSandboxManager creates a manager for local use where no auth database
// file is needed. The auth database lives in memory with the default roles.
func NewSandboxManager(cfg Config) (*Manager, error) {
	cfg.AuthDBPath = ":memory:"

	mgr, err := openManager(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := mgr.timeoutContext(context.Background())
	defer cancel()
	if err := InitAuthDatabase(ctx, mgr.authDB); err != nil {
		mgr.Close()
		return nil, err
	}

	return mgr, nil
}

func openManager(cfg Config) (*Manager, error) {
	mgr := &Manager{
		driver:       cfg.Driver,
		queryTimeout: cfg.QueryTimeout,
		maxRows:      cfg.MaxRows,
		logger:       cfg.Logger,
		authDBPath:   cfg.AuthDBPath,
	}
	if mgr.driver == "" {
		mgr.driver = DriverDuckDB
	}
	if mgr.logger == nil {
		mgr.logger = zap.NewNop()
	}
	if cfg.Threads <= 0 {
		cfg.Threads = 1
	}

	sandboxDSN, err := sandboxDSN(mgr.driver, cfg)
	if err != nil {
		return nil, err
	}

	mgr.sandbox, err = sql.Open(mgr.driver, sandboxDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open sandbox database: %w", err)
	}

	if mgr.driver == DriverSQLite {
		// A shared-cache in-memory SQLite database only lives as long as one
		// connection stays open, and concurrent writers on it fail with
		// SQLITE_LOCKED.
		mgr.sandbox.SetMaxOpenConns(1)
		mgr.sandbox.SetMaxIdleConns(1)
		mgr.sandbox.SetConnMaxLifetime(0)
	} else {
		// DuckDB supports concurrent reads/writes within a single process
		mgr.sandbox.SetMaxOpenConns(cfg.Threads * 2)
		mgr.sandbox.SetMaxIdleConns(cfg.Threads)
		mgr.sandbox.SetConnMaxLifetime(time.Hour)
	}

	if err := mgr.sandbox.Ping(); err != nil {
		mgr.sandbox.Close()
		return nil, fmt.Errorf("failed to ping sandbox database: %w", err)
	}

	mgr.logger.Info("Sandbox database connected",
		zap.String("driver", mgr.driver),
		zap.String("dsn", sandboxDSN),
		zap.Bool("in_memory", cfg.SandboxPath == ""),
	)

	if err := mgr.seed(); err != nil {
		mgr.sandbox.Close()
		return nil, fmt.Errorf("failed to seed sandbox database: %w", err)
	}

	// Auth database is always DuckDB and file-based outside of tests
	authDSN := fmt.Sprintf("%s?threads=%d", cfg.AuthDBPath, cfg.Threads)
	mgr.authDB, err = sql.Open("duckdb", authDSN)
	if err != nil {
		mgr.sandbox.Close()
		return nil, fmt.Errorf("failed to open auth database: %w", err)
	}

	mgr.authDB.SetMaxOpenConns(cfg.Threads * 2)
	mgr.authDB.SetMaxIdleConns(cfg.Threads)
	mgr.authDB.SetConnMaxLifetime(time.Hour)

	if err := mgr.authDB.Ping(); err != nil {
		mgr.Close()
		return nil, fmt.Errorf("failed to ping auth database: %w", err)
	}

	mgr.logger.Info("Auth database connected",
		zap.String("path", cfg.AuthDBPath),
		zap.Int("max_open_conns", cfg.Threads*2),
	)

	return mgr, nil
}

// sandboxDSN builds the connection string for the configured driver.
func sandboxDSN(driver string, cfg Config) (string, error) {
	switch driver {
	case DriverDuckDB:
		dsn := cfg.SandboxPath
		if dsn == "" {
			dsn = ":memory:"
		}
		// Learner SQL must not reach the host filesystem through read_csv, COPY or ATTACH
		dsn = fmt.Sprintf("%s?threads=%d&enable_external_access=false", dsn, cfg.Threads)
		if cfg.MemoryLimit != "" {
			dsn = fmt.Sprintf("%s&memory_limit=%s", dsn, cfg.MemoryLimit)
		}
		return dsn, nil

	case DriverSQLite:
		if cfg.SandboxPath == "" {
			// Unique name so that managers in one process never share a sandbox
			return fmt.Sprintf("file:sandbox-%s?mode=memory&cache=shared", uuid.NewString()), nil
		}
		return fmt.Sprintf("file:%s?_busy_timeout=5000", cfg.SandboxPath), nil

	default:
		return "", fmt.Errorf("unsupported sandbox driver '%s' (use %s or %s)", driver, DriverDuckDB, DriverSQLite)
	}
}

// initAuthSchema validates that the auth database has the required schema.
// The auth database must be pre-initialized using: buddysql auth init
func (m *Manager) initAuthSchema() error {
	ctx, cancel := m.timeoutContext(context.Background())
	defer cancel()

	requiredTables := []string{"roles", "api_keys", "permissions"}
	for _, table := range requiredTables {
		var exists bool
		query := `
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_name = $1
			)
		`
		err := m.authDB.QueryRowContext(ctx, query, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check for table '%s': %w", table, err)
		}
		if !exists {
			return fmt.Errorf("auth database is missing required table '%s'. "+
				"Please initialize the auth database using: buddysql auth init --auth-db %s",
				table, m.authDBPath)
		}
	}

	var roleCount int
	err := m.authDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM roles").Scan(&roleCount)
	if err != nil {
		return fmt.Errorf("failed to count roles: %w", err)
	}
	if roleCount == 0 {
		return fmt.Errorf("auth database has no roles defined. " +
			"Please re-run: buddysql auth init")
	}

	m.logger.Info("Auth database schema validated",
		zap.Int("roles", roleCount),
	)
	return nil
}

// InitAuthSchemaForTesting creates the auth schema and default data.
// This is ONLY for use in tests - production should use the buddysql CLI tool.
func (m *Manager) InitAuthSchemaForTesting() error {
	ctx, cancel := m.timeoutContext(context.Background())
	defer cancel()
	return InitAuthDatabase(ctx, m.authDB)
}

// Sandbox returns the sandbox database connection.
func (m *Manager) Sandbox() *sql.DB {
	return m.sandbox
}

// AuthDB returns the auth database connection.
func (m *Manager) AuthDB() *sql.DB {
	return m.authDB
}

// Driver returns the sandbox driver name.
func (m *Manager) Driver() string {
	return m.driver
}

// QueryTimeout returns the configured query timeout.
func (m *Manager) QueryTimeout() time.Duration {
	return m.queryTimeout
}

// Close closes both database connections.
func (m *Manager) Close() error {
	var err1, err2 error
	if m.sandbox != nil {
		err1 = m.sandbox.Close()
	}
	if m.authDB != nil {
		err2 = m.authDB.Close()
	}

	if err1 != nil {
		return err1
	}
	return err2
}

// timeoutContext bounds ctx by the configured query timeout, if any.
func (m *Manager) timeoutContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.queryTimeout)
}

// QueryRowScanSandbox executes a query that returns a single row and scans it immediately.
func (m *Manager) QueryRowScanSandbox(ctx context.Context, query string, dest []interface{}, args ...interface{}) error {
	ctx, cancel := m.timeoutContext(ctx)
	defer cancel()
	return m.sandbox.QueryRowContext(ctx, query, args...).Scan(dest...)
}

// warmConnections pre-warms the sandbox connection pool to eliminate cold-start latency.
func (m *Manager) warmConnections() {
	maxConns := m.sandbox.Stats().MaxOpenConnections

	m.logger.Info("Pre-warming database connections",
		zap.Int("target_connections", maxConns),
	)

	var wg sync.WaitGroup
	for i := 0; i < maxConns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			conn, err := m.sandbox.Conn(ctx)
			if err != nil {
				m.logger.Warn("Failed to create warm connection",
					zap.Int("connection_index", idx),
					zap.Error(err),
				)
				return
			}
			defer conn.Close()

			if err := conn.PingContext(ctx); err != nil {
				m.logger.Warn("Failed to ping warm connection",
					zap.Int("connection_index", idx),
					zap.Error(err),
				)
			}
		}(i)
	}
	wg.Wait()

	m.logger.Info("Connection pool warmed")
}

// quoteIdent quotes an identifier for both DuckDB and SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
