package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Scc33/BuddySQL/lessons"
)

// LessonsHandler serves the lesson catalog.
type LessonsHandler struct {
	basePath string
}

// NewLessonsHandler creates a lessons handler mounted at basePath, e.g.
// "/buddysql/lessons".
func NewLessonsHandler(basePath string) *LessonsHandler {
	return &LessonsHandler{basePath: strings.TrimSuffix(basePath, "/")}
}

// ServeHTTP lists every lesson at the base path and returns one lesson at
// {basePath}/{slug or id}.
func (h *LessonsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	key := strings.Trim(strings.TrimPrefix(r.URL.Path, h.basePath), "/")
	if key == "" {
		sendJSON(w, http.StatusOK, map[string]interface{}{
			"lessons": lessons.All(),
		})
		return
	}

	lesson, ok := lessons.Lookup(key)
	if !ok {
		sendError(w, fmt.Sprintf("Lesson '%s' does not exist", key), http.StatusNotFound)
		return
	}
	sendJSON(w, http.StatusOK, lesson)
}
