package buddysql

import (
	"os"
	"strings"
	"time"

	"github.com/Scc33/BuddySQL/database"
	"github.com/caddyserver/caddy/v2"
)

// Defaults applied by Provision to unset fields.
const (
	DefaultRoutePrefix     = "/buddysql"
	DefaultQueryTimeout    = 10 * time.Second
	DefaultMaxRowsPerPage  = 100
	DefaultAbsoluteMaxRows = 10000
	DefaultThreads         = 4
	DefaultAnonymousRole   = "learner"

	// RoutePrefixEnv overrides the path the module answers under.
	RoutePrefixEnv = "BUDDYSQL_ROUTE_PREFIX"
)

// routePrefixFromEnv returns the route prefix from the environment, with a
// leading slash and no trailing slash.
func routePrefixFromEnv() string {
	prefix := os.Getenv(RoutePrefixEnv)
	if prefix == "" {
		prefix = DefaultRoutePrefix
	}
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return strings.TrimSuffix(prefix, "/")
}

// applyDefaults fills in every unset option.
func (b *BuddySQL) applyDefaults() {
	if b.SandboxDriver == "" {
		b.SandboxDriver = database.DriverDuckDB
	}
	if b.QueryTimeout == 0 {
		b.QueryTimeout = caddy.Duration(DefaultQueryTimeout)
	}
	if b.MaxRowsPerPage == 0 {
		b.MaxRowsPerPage = DefaultMaxRowsPerPage
	}
	if b.AbsoluteMaxRows == 0 {
		b.AbsoluteMaxRows = DefaultAbsoluteMaxRows
	}
	if b.Threads == 0 {
		b.Threads = DefaultThreads
	}
	if b.AnonymousRole == "" && !b.RequireAPIKey {
		b.AnonymousRole = DefaultAnonymousRole
	}
}

// databaseConfig maps the module options onto the database manager config.
func (b *BuddySQL) databaseConfig() database.Config {
	return database.Config{
		Driver:       b.SandboxDriver,
		SandboxPath:  b.SandboxPath,
		AuthDBPath:   b.AuthDatabasePath,
		Threads:      b.Threads,
		MemoryLimit:  b.MemoryLimit,
		QueryTimeout: time.Duration(b.QueryTimeout),
		MaxRows:      b.AbsoluteMaxRows,
		Logger:       b.logger,
	}
}
