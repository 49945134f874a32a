package api

import (
	"net/http"

	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	system *rag.System
	logger log.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(system *rag.System, logger log.Logger) *HealthHandler {
	return &HealthHandler{system: system, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness returns 200 OK when the knowledge store answers queries.
func (h *HealthHandler) readiness(w http.ResponseWriter, r *http.Request) {
	if h.system == nil {
		http.Error(w, "rag system not configured", http.StatusServiceUnavailable)
		return
	}
	if _, err := h.system.Analytics(r.Context()); err != nil {
		h.logger.Error("readiness check failed", "error", err)
		http.Error(w, "knowledge store not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
