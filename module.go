// Package buddysql is a Caddy module that serves interactive SQL lessons:
// learners parse, run and grade queries against a seeded sandbox database.
package buddysql

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/handlers"
	"github.com/caddyserver/caddy/v2"
	"github.com/caddyserver/caddy/v2/caddyconfig/caddyfile"
	"github.com/caddyserver/caddy/v2/caddyconfig/httpcaddyfile"
	"github.com/caddyserver/caddy/v2/modules/caddyhttp"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func init() {
	caddy.RegisterModule(BuddySQL{})
	httpcaddyfile.RegisterHandlerDirective("buddysql", parseCaddyfile)
}

// BuddySQL is a Caddy module that provides the lesson, query and grading API.
type BuddySQL struct {
	// SandboxPath is the path to the sandbox database file learners query.
	// If empty, an in-memory database seeded with the sample store is used.
	SandboxPath string `json:"sandbox_path,omitempty"`

	// SandboxDriver selects the sandbox engine: "duckdb" (default) or "sqlite3".
	SandboxDriver string `json:"sandbox_driver,omitempty"`

	// AuthDatabasePath is the path to the internal authentication database.
	// This is required and must be initialized with `buddysql auth init`.
	AuthDatabasePath string `json:"auth_database_path,omitempty"`

	// QueryTimeout is the maximum duration for one script execution.
	// Default is 10 seconds.
	QueryTimeout caddy.Duration `json:"query_timeout,omitempty"`

	// MaxRowsPerPage is the page size of table previews.
	// Default is 100.
	MaxRowsPerPage int `json:"max_rows_per_page,omitempty"`

	// AbsoluteMaxRows caps the rows collected for any one result set.
	// Default is 10000.
	AbsoluteMaxRows int `json:"absolute_max_rows,omitempty"`

	// Threads is the number of threads the engine should use.
	// Default is 4.
	Threads int `json:"threads,omitempty"`

	// MemoryLimit is the maximum memory DuckDB can use (e.g., "512MB").
	MemoryLimit string `json:"memory_limit,omitempty"`

	// RequireAPIKey rejects requests without a valid X-API-Key header.
	// When false, requests without a key run as AnonymousRole.
	RequireAPIKey bool `json:"require_api_key,omitempty"`

	// AnonymousRole is the role used for requests without an API key.
	// Default is "learner".
	AnonymousRole string `json:"anonymous_role,omitempty"`

	logger         *zap.Logger
	dbMgr          *database.Manager
	authorizer     *auth.Authorizer
	authMw         *auth.Middleware
	openAPIHandler *handlers.OpenAPIHandler
	routes         []route
	routePrefix    string // set from BUDDYSQL_ROUTE_PREFIX env var, defaults to /buddysql
}

// route maps a path, and optionally everything below it, to a handler that
// has already been wrapped with authentication and authorization.
type route struct {
	path    string
	subtree bool
	handler http.Handler
}

// CaddyModule returns the Caddy module information.
func (BuddySQL) CaddyModule() caddy.ModuleInfo {
	return caddy.ModuleInfo{
		ID:  "http.handlers.buddysql",
		New: func() caddy.Module { return new(BuddySQL) },
	}
}

// Provision sets up the BuddySQL module.
func (b *BuddySQL) Provision(ctx caddy.Context) error {
	b.logger = ctx.Logger(b)
	return b.setup(database.NewManager)
}

// setup applies defaults, opens the databases and builds the routes. The
// manager constructor is a parameter so tests can create the auth schema.
func (b *BuddySQL) setup(newManager func(database.Config) (*database.Manager, error)) error {
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	b.routePrefix = routePrefixFromEnv()
	b.applyDefaults()

	if b.AuthDatabasePath == "" {
		return fmt.Errorf("auth_database_path is required")
	}

	var err error
	b.dbMgr, err = newManager(b.databaseConfig())
	if err != nil {
		return fmt.Errorf("failed to initialize database manager: %v", err)
	}

	b.authorizer = auth.NewAuthorizer(b.dbMgr.AuthDB())
	if b.RequireAPIKey {
		b.authMw = auth.NewMiddleware(b.authorizer, b.logger)
	} else {
		perm, err := b.authorizer.GetPermission(b.AnonymousRole)
		if err != nil {
			b.dbMgr.Close()
			return fmt.Errorf("failed to load anonymous role: %v", err)
		}
		if perm == nil {
			b.dbMgr.Close()
			return fmt.Errorf("anonymous_role '%s' has no permissions in the auth database", b.AnonymousRole)
		}
		b.authMw = auth.NewAnonymousMiddleware(b.authorizer, b.AnonymousRole, b.logger)
	}

	b.openAPIHandler = handlers.NewOpenAPIHandler(b.routePrefix)
	b.routes = []route{
		b.protect("/parse", false, auth.OperationParse, handlers.NewParseHandler(b.logger)),
		b.protect("/run", true, auth.OperationRun, handlers.NewRunHandler(b.dbMgr, b.routePrefix+"/run", b.logger)),
		b.protect("/grade", false, auth.OperationGrade, handlers.NewGradeHandler(b.dbMgr, b.logger)),
		b.protect("/lessons", true, auth.OperationParse, handlers.NewLessonsHandler(b.routePrefix+"/lessons")),
		b.protect("/schema", true, auth.OperationRun, handlers.NewSchemaHandler(b.dbMgr, b.routePrefix+"/schema", b.MaxRowsPerPage, b.logger)),
	}

	b.logger.Info("BuddySQL module provisioned",
		zap.String("route_prefix", b.routePrefix),
		zap.String("sandbox_driver", b.SandboxDriver),
		zap.String("sandbox_path", b.SandboxPath),
		zap.String("auth_db", b.AuthDatabasePath),
		zap.Duration("query_timeout", time.Duration(b.QueryTimeout)),
		zap.Int("max_rows_per_page", b.MaxRowsPerPage),
		zap.Int("absolute_max_rows", b.AbsoluteMaxRows),
		zap.Int("threads", b.Threads),
		zap.String("memory_limit", b.MemoryLimit),
		zap.Bool("require_api_key", b.RequireAPIKey),
		zap.String("anonymous_role", b.AnonymousRole),
	)

	return nil
}

// protect mounts h under the route prefix behind the auth middleware.
func (b *BuddySQL) protect(path string, subtree bool, op auth.Operation, h http.Handler) route {
	return route{
		path:    b.routePrefix + path,
		subtree: subtree,
		handler: b.authMw.Protect(op, h),
	}
}

// Validate ensures the module configuration is valid.
func (b *BuddySQL) Validate() error {
	if b.SandboxDriver != database.DriverDuckDB && b.SandboxDriver != database.DriverSQLite {
		return fmt.Errorf("invalid sandbox_driver: %s (must be '%s' or '%s')", b.SandboxDriver, database.DriverDuckDB, database.DriverSQLite)
	}
	if b.MaxRowsPerPage <= 0 {
		return fmt.Errorf("max_rows_per_page must be greater than 0")
	}
	if b.AbsoluteMaxRows < 0 {
		return fmt.Errorf("absolute_max_rows must be >= 0 (0 disables the limit)")
	}
	if b.Threads <= 0 {
		return fmt.Errorf("threads must be greater than 0")
	}
	if !b.RequireAPIKey && b.AnonymousRole == "" {
		return fmt.Errorf("anonymous_role is required when require_api_key is off")
	}
	return nil
}

// ServeHTTP implements the caddyhttp.MiddlewareHandler interface.
func (b *BuddySQL) ServeHTTP(w http.ResponseWriter, r *http.Request, next caddyhttp.Handler) error {
	if !strings.HasPrefix(r.URL.Path, b.routePrefix) {
		return next.ServeHTTP(w, r)
	}

	// Extract or generate request ID for tracing
	requestID := r.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.New().String()
	}
	r = r.WithContext(auth.WithRequestID(r.Context(), requestID))
	w.Header().Set("X-Request-ID", requestID)

	// Health check endpoint (no authentication required)
	if r.URL.Path == b.routePrefix+"/health" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
		return nil
	}

	// OpenAPI specification endpoint (no authentication required)
	if r.URL.Path == b.routePrefix+"/openapi.json" {
		b.openAPIHandler.ServeHTTP(w, r)
		return nil
	}

	for _, rt := range b.routes {
		if r.URL.Path == rt.path || (rt.subtree && strings.HasPrefix(r.URL.Path, rt.path+"/")) {
			rt.handler.ServeHTTP(w, r)
			return nil
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"error":"Not Found","message":"Unknown BuddySQL endpoint","code":404}`))
	return nil
}

// Cleanup performs cleanup when the module is unloaded.
func (b *BuddySQL) Cleanup() error {
	if b.dbMgr != nil {
		return b.dbMgr.Close()
	}
	return nil
}

// UnmarshalCaddyfile implements caddyfile.Unmarshaler.
func (b *BuddySQL) UnmarshalCaddyfile(dispenser *caddyfile.Dispenser) error {
	for dispenser.Next() {
		for dispenser.NextBlock(0) {
			switch dispenser.Val() {
			case "sandbox_path":
				if !dispenser.Args(&b.SandboxPath) {
					return dispenser.ArgErr()
				}
			case "sandbox_driver":
				if !dispenser.Args(&b.SandboxDriver) {
					return dispenser.ArgErr()
				}
			case "auth_database_path":
				if !dispenser.Args(&b.AuthDatabasePath) {
					return dispenser.ArgErr()
				}
			case "query_timeout":
				var timeout string
				if !dispenser.Args(&timeout) {
					return dispenser.ArgErr()
				}
				duration, err := caddy.ParseDuration(timeout)
				if err != nil {
					return dispenser.Errf("invalid query_timeout: %v", err)
				}
				b.QueryTimeout = caddy.Duration(duration)
			case "max_rows_per_page":
				n, err := intArg(dispenser)
				if err != nil {
					return err
				}
				b.MaxRowsPerPage = n
			case "absolute_max_rows":
				n, err := intArg(dispenser)
				if err != nil {
					return err
				}
				b.AbsoluteMaxRows = n
			case "threads":
				n, err := intArg(dispenser)
				if err != nil {
					return err
				}
				b.Threads = n
			case "memory_limit":
				if !dispenser.Args(&b.MemoryLimit) {
					return dispenser.ArgErr()
				}
			case "require_api_key":
				var enableStr string
				if !dispenser.Args(&enableStr) {
					return dispenser.ArgErr()
				}
				enableStr = strings.ToLower(enableStr)
				b.RequireAPIKey = enableStr == "true" || enableStr == "yes" || enableStr == "1"
			case "anonymous_role":
				if !dispenser.Args(&b.AnonymousRole) {
					return dispenser.ArgErr()
				}
			default:
				return dispenser.Errf("unknown subdirective: %s", dispenser.Val())
			}
		}
	}
	return nil
}

// intArg reads one integer argument for the current subdirective.
func intArg(dispenser *caddyfile.Dispenser) (int, error) {
	name := dispenser.Val()
	var s string
	if !dispenser.Args(&s) {
		return 0, dispenser.ArgErr()
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, dispenser.Errf("invalid %s: %v", name, err)
	}
	return n, nil
}

// parseCaddyfile unmarshals tokens from h into a new Middleware.
func parseCaddyfile(h httpcaddyfile.Helper) (caddyhttp.MiddlewareHandler, error) {
	var b BuddySQL
	err := b.UnmarshalCaddyfile(h.Dispenser)
	return &b, err
}

// Interface guards
var (
	_ caddy.Module                = (*BuddySQL)(nil)
	_ caddy.Provisioner           = (*BuddySQL)(nil)
	_ caddy.Validator             = (*BuddySQL)(nil)
	_ caddy.CleanerUpper          = (*BuddySQL)(nil)
	_ caddyhttp.MiddlewareHandler = (*BuddySQL)(nil)
	_ caddyfile.Unmarshaler       = (*BuddySQL)(nil)
)
