package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/formats"
	"go.uber.org/zap"
)

// SchemaHandler describes the sandbox tables and previews their contents.
type SchemaHandler struct {
	dbMgr          *database.Manager
	basePath       string
	maxRowsPerPage int
	logger         *zap.Logger
}

// NewSchemaHandler creates a schema handler mounted at basePath, e.g.
// "/buddysql/schema".
func NewSchemaHandler(dbMgr *database.Manager, basePath string, maxRowsPerPage int, logger *zap.Logger) *SchemaHandler {
	return &SchemaHandler{
		dbMgr:          dbMgr,
		basePath:       strings.TrimSuffix(basePath, "/"),
		maxRowsPerPage: maxRowsPerPage,
		logger:         logger,
	}
}

// ServeHTTP lists the tables at the base path and previews one table at
// {basePath}/{table}.
func (h *SchemaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tableName := strings.Trim(strings.TrimPrefix(r.URL.Path, h.basePath), "/")
	if tableName == "" {
		h.handleTables(w, r)
		return
	}
	h.handlePreview(w, r, tableName)
}

// handleTables lists every sandbox table with its columns.
func (h *SchemaHandler) handleTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.dbMgr.Tables(r.Context())
	if err != nil {
		h.logger.Error("Failed to list tables", zap.Error(err), zap.String("request_id", auth.RequestIDFromContext(r.Context())))
		sendError(w, "Failed to list tables", http.StatusInternalServerError)
		return
	}

	sendJSON(w, http.StatusOK, map[string]interface{}{
		"tables": tables,
	})
}

// handlePreview returns one page of a table in the format the client accepts.
func (h *SchemaHandler) handlePreview(w http.ResponseWriter, r *http.Request, tableName string) {
	requestID := auth.RequestIDFromContext(r.Context())

	if err := checkIdentifier("table", tableName); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	exists, err := h.dbMgr.TableExists(r.Context(), tableName)
	if err != nil {
		h.logger.Error("Failed to check table existence", zap.Error(err), zap.String("request_id", requestID))
		sendError(w, "Failed to check table existence", http.StatusInternalServerError)
		return
	}
	if !exists {
		sendError(w, fmt.Sprintf("Table '%s' does not exist", tableName), http.StatusNotFound)
		return
	}

	opts, err := parsePreviewOptions(r.URL.Query(), h.maxRowsPerPage)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	set, err := h.dbMgr.Preview(r.Context(), tableName, opts.Sorts, opts.Limit, opts.Offset)
	if err != nil {
		if errors.Is(err, database.ErrUnknownColumn) {
			sendError(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("Failed to preview table", zap.Error(err), zap.String("table", tableName), zap.String("request_id", requestID))
		sendError(w, "Failed to preview table", http.StatusInternalServerError)
		return
	}

	format := negotiateFormat(r)
	if format != formats.FormatJSON {
		if err := formats.Write(w, format, set); err != nil {
			h.logger.Error("Failed to format response", zap.Error(err), zap.String("request_id", requestID))
		}
		return
	}

	totalRows, err := h.dbMgr.Count(r.Context(), tableName)
	if err != nil {
		h.logger.Error("Failed to count rows", zap.Error(err), zap.String("table", tableName), zap.String("request_id", requestID))
		sendError(w, "Failed to count rows", http.StatusInternalServerError)
		return
	}

	page := &formats.Pagination{Page: opts.Page, Limit: opts.Limit, TotalRows: totalRows}
	if opts.Links {
		page.LinkURL = r.URL
	}
	if err := formats.WriteJSON(w, set, page); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err), zap.String("request_id", requestID))
	}
}
