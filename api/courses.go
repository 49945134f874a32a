package api

import (
	"net/http"

	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
)

// CoursesHandler serves course catalog statistics.
type CoursesHandler struct {
	system *rag.System
	logger log.Logger
}

// NewCoursesHandler creates a new courses handler.
func NewCoursesHandler(system *rag.System, logger log.Logger) *CoursesHandler {
	return &CoursesHandler{system: system, logger: logger}
}

// RegisterRoutes registers course routes on the given mux.
func (h *CoursesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses", h.stats)
}

// stats returns the number of indexed courses and their titles.
func (h *CoursesHandler) stats(w http.ResponseWriter, r *http.Request) {
	analytics, err := h.system.Analytics(r.Context())
	if err != nil {
		h.logger.Error("fetching course analytics", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if analytics.CourseTitles == nil {
		analytics.CourseTitles = []string{}
	}
	writeJSON(w, http.StatusOK, analytics)
}
