package handlers

import (
	"errors"
	"net/http"

	"github.com/Scc33/BuddySQL/auth"
	"github.com/Scc33/BuddySQL/database"
	"github.com/Scc33/BuddySQL/lessons"
	"go.uber.org/zap"
)

// GradeHandler runs a learner's query and grades it against a lesson.
type GradeHandler struct {
	dbMgr  *database.Manager
	logger *zap.Logger
}

// NewGradeHandler creates a new grade handler.
func NewGradeHandler(dbMgr *database.Manager, logger *zap.Logger) *GradeHandler {
	return &GradeHandler{
		dbMgr:  dbMgr,
		logger: logger,
	}
}

// ServeHTTP handles POST {"sql", "lesson", "challenge"} requests. Broken SQL
// is not an HTTP error: it comes back as a graded submission of type error.
func (h *GradeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := auth.RequestIDFromContext(r.Context())

	if r.Method != http.MethodPost {
		sendError(w, "Method not allowed. Use POST to grade queries.", http.StatusMethodNotAllowed)
		return
	}

	req, err := decodeSQLRequest(r)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Lesson == "" {
		sendError(w, "lesson is required", http.StatusBadRequest)
		return
	}

	sub, err := lessons.Submit(r.Context(), h.dbMgr, req.Lesson, req.SQL, req.Challenge)
	if err != nil {
		if errors.Is(err, lessons.ErrUnknownLesson) {
			sendError(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to grade submission", zap.Error(err), zap.String("request_id", requestID))
		sendError(w, "Failed to grade submission", http.StatusInternalServerError)
		return
	}

	h.logger.Info("Graded submission",
		zap.String("lesson", req.Lesson),
		zap.Bool("challenge", req.Challenge),
		zap.Int("score", sub.Grade.Score),
		zap.String("request_id", requestID),
	)

	sendJSON(w, http.StatusOK, sub)
}
