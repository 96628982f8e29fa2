package handlers

import (
	"net/http"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/sqlparse"
	"go.uber.org/zap"
)

// ParseHandler decomposes a query into its clauses without running it.
type ParseHandler struct {
	logger *zap.Logger
}

// NewParseHandler creates a new parse handler.
func NewParseHandler(logger *zap.Logger) *ParseHandler {
	return &ParseHandler{logger: logger}
}

// ServeHTTP handles POST {"sql": "..."} and GET ?sql=... requests.
func (h *ParseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var query string

	switch r.Method {
	case http.MethodPost:
		req, err := decodeSQLRequest(r)
		if err != nil {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		query = req.SQL
	case http.MethodGet:
		query = r.URL.Query().Get("sql")
		if query == "" {
			sendError(w, "SQL query is required", http.StatusBadRequest)
			return
		}
	default:
		sendError(w, "Method not allowed. Use POST or GET to parse queries.", http.StatusMethodNotAllowed)
		return
	}

	parsed := sqlparse.Parse(query)
	h.logger.Debug("Parsed query",
		zap.String("type", string(parsed.Type)),
		zap.String("request_id", auth.RequestIDFromContext(r.Context())),
	)

	sendJSON(w, http.StatusOK, parsed)
}
