package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/formats"
	"github.com/Scc33/BuddySQL/resultset"
	"github.com/Scc33/BuddySQL/sqlparse"
	"go.uber.org/zap"
)

// RunHandler executes learner scripts against the sandbox.
type RunHandler struct {
	dbMgr     *database.Manager
	runPrefix string
	logger    *zap.Logger
}

// NewRunHandler creates a new run handler. runPrefix is the path GET
// requests are served under, e.g. "/buddysql/run".
func NewRunHandler(dbMgr *database.Manager, runPrefix string, logger *zap.Logger) *RunHandler {
	return &RunHandler{
		dbMgr:     dbMgr,
		runPrefix: runPrefix,
		logger:    logger,
	}
}

// runResponse is the JSON body of a successful run.
type runResponse struct {
	Results         []resultset.ResultSet `json:"results"`
	Parsed          sqlparse.ParsedQuery  `json:"parsed"`
	ExecutionTimeMs int64                 `json:"execution_time_ms"`
}

// ServeHTTP handles HTTP requests for script execution.
// Supports both POST (with JSON body) and GET (with URL-encoded SQL in path).
func (h *RunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := auth.RequestIDFromContext(r.Context())

	var sqlQuery string
	var format string

	switch r.Method {
	case http.MethodPost:
		req, err := decodeSQLRequest(r)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		sqlQuery = req.SQL
		format = negotiateFormat(r)

	case http.MethodGet:
		// Pattern: {prefix}/run/{urlEncodedSQL}/result.{format}
		parsedSQL, parsedFormat, err := splitRunPath(r.URL.EscapedPath(), h.runPrefix)
		if err != nil {
			sendError(w, fmt.Sprintf("Invalid GET query path: %s", err.Error()), http.StatusBadRequest)
			return
		}
		sqlQuery = parsedSQL
		format = parsedFormat

	default:
		sendError(w, "Method not allowed. Use POST or GET to run queries.", http.StatusMethodNotAllowed)
		return
	}

	h.logger.Info("Executing query",
		zap.String("role", auth.RoleFromContext(r.Context())),
		zap.String("method", r.Method),
		zap.String("sql", sqlQuery),
		zap.String("format", format),
		zap.String("request_id", requestID),
	)

	startTime := time.Now()
	sets, err := h.dbMgr.Execute(r.Context(), sqlQuery)
	executionTime := time.Since(startTime)
	if err != nil {
		if !errors.Is(err, database.ErrEmptyQuery) {
			h.logger.Info("Query failed", zap.Error(err), zap.String("request_id", requestID))
		}
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if sets == nil {
		sets = []resultset.ResultSet{}
	}

	if format == formats.FormatJSON {
		sendJSON(w, http.StatusOK, runResponse{
			Results:         sets,
			Parsed:          sqlparse.Parse(sqlQuery),
			ExecutionTimeMs: executionTime.Milliseconds(),
		})
		return
	}

	// Tabular formats carry a single result set
	set, ok := resultset.First(sets)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := formats.Write(w, format, set); err != nil {
		h.logger.Error("Failed to format response", zap.Error(err), zap.String("request_id", requestID))
	}
}
