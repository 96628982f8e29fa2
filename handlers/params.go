package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/formats"
)

// previewOptions are the query parameters of a table preview:
// ?page=2&limit=25&sort=price:desc,name&links=true
type previewOptions struct {
	Page   int
	Limit  int
	Offset int
	Sorts  []database.Sort
	Links  bool
}

// parsePreviewOptions reads preview options from q. Missing or malformed page
// and limit values fall back to the first page of maxRowsPerPage rows, and
// limit never exceeds maxRowsPerPage.
func parsePreviewOptions(q url.Values, maxRowsPerPage int) (previewOptions, error) {
	opts := previewOptions{
		Page:  positiveInt(q.Get("page"), 1),
		Limit: min(positiveInt(q.Get("limit"), maxRowsPerPage), maxRowsPerPage),
	}
	opts.Offset = (opts.Page - 1) * opts.Limit

	switch q.Get("links") {
	case "true", "1":
		opts.Links = true
	}

	sorts, err := parseSorts(q.Get("sort"))
	if err != nil {
		return opts, err
	}
	opts.Sorts = sorts
	return opts, nil
}

func positiveInt(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return fallback
}

// parseSorts parses "column[:asc|desc],..." into sort orders.
func parseSorts(param string) ([]database.Sort, error) {
	if param == "" {
		return nil, nil
	}

	var sorts []database.Sort
	for _, item := range strings.Split(param, ",") {
		column, dir, hasDir := strings.Cut(item, ":")
		column = strings.TrimSpace(column)
		if err := checkIdentifier("column", column); err != nil {
			return nil, err
		}

		s := database.Sort{Column: column, Direction: "asc"}
		if hasDir {
			switch d := strings.ToLower(strings.TrimSpace(dir)); d {
			case "asc", "desc":
				s.Direction = d
			default:
				return nil, fmt.Errorf("invalid sort direction: %s (must be 'asc' or 'desc')", dir)
			}
		}
		sorts = append(sorts, s)
	}
	return sorts, nil
}

// acceptFormats maps Accept header media types to response formats, in
// order of preference.
var acceptFormats = []struct {
	mediaType string
	format    string
}{
	{"text/csv", formats.FormatCSV},
	{"application/parquet", formats.FormatParquet},
	{"application/vnd.apache.arrow", formats.FormatArrow},
}

// negotiateFormat picks the response format from the Accept header,
// defaulting to JSON.
func negotiateFormat(r *http.Request) string {
	accept := r.Header.Get("Accept")
	for _, af := range acceptFormats {
		if strings.Contains(accept, af.mediaType) {
			return af.format
		}
	}
	return formats.FormatJSON
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// checkIdentifier rejects names that cannot be safely quoted into SQL text.
// kind names the identifier in the error, e.g. "table".
func checkIdentifier(kind, name string) error {
	if name == "" {
		return fmt.Errorf("%s name cannot be empty", kind)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid %s name: must contain only alphanumeric characters and underscores", kind)
	}
	return nil
}

// splitRunPath extracts the SQL text and format from a GET run path of the
// form {runPrefix}/{escapedSQL}/result.{format}. escapedPath must be the
// raw escaped path so that an encoded slash inside the SQL survives.
func splitRunPath(escapedPath, runPrefix string) (sql, format string, err error) {
	prefix := strings.TrimSuffix(runPrefix, "/") + "/"
	rest, ok := strings.CutPrefix(escapedPath, prefix)
	if !ok {
		return "", "", fmt.Errorf("invalid path: must start with %s", prefix)
	}

	const marker = "result."
	i := strings.LastIndex("/"+rest, "/"+marker)
	if i == -1 {
		return "", "", fmt.Errorf("invalid path: must contain /result.{format}")
	}
	if i == 0 {
		return "", "", fmt.Errorf("invalid path: missing SQL query")
	}

	// i indexes "/"+rest, so rest[:i-1] drops the separating slash.
	sql, err = url.PathUnescape(rest[:i-1])
	if err != nil {
		return "", "", fmt.Errorf("failed to decode SQL query: %w", err)
	}
	if strings.TrimSpace(sql) == "" {
		return "", "", fmt.Errorf("invalid path: SQL query cannot be empty")
	}

	format = rest[i+len(marker):]
	switch {
	case format == "":
		return "", "", fmt.Errorf("invalid path: missing format extension")
	case !formats.IsSupported(format):
		return "", "", fmt.Errorf("invalid format: %s (must be json, csv, arrow, or parquet)", format)
	}
	return sql, format, nil
}

// sqlRequest is the JSON body accepted by the parse, run and grade endpoints.
type sqlRequest struct {
	SQL       string `json:"sql"`
	Lesson    string `json:"lesson,omitempty"`
	Challenge bool   `json:"challenge,omitempty"`
}

// decodeSQLRequest reads a sqlRequest body and requires a non-blank sql field.
func decodeSQLRequest(r *http.Request) (sqlRequest, error) {
	defer r.Body.Close()

	var req sqlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, errors.New("Invalid JSON in request body")
	}
	if strings.TrimSpace(req.SQL) == "" {
		return req, errors.New("SQL query is required")
	}
	return req, nil
}

// sendJSON writes v as a JSON response.
func sendJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// sendError sends an error response.
// The request ID is available in the X-Request-ID response header.
func sendError(w http.ResponseWriter, message string, statusCode int) {
	sendJSON(w, statusCode, map[string]interface{}{
		"error":   http.StatusText(statusCode),
		"message": message,
		"code":    statusCode,
	})
}
