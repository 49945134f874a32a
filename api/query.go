package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/lectern/lectern/internal/log"
	"github.com/lectern/lectern/internal/rag"
)

// MaxQueryLength bounds the accepted question size.
const MaxQueryLength = 10_000

// QueryRequest is the request body for POST /api/query.
type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

// QueryResponse is the response body for POST /api/query.
type QueryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []string `json:"sources"`
	SessionID string   `json:"session_id"`
}

// QueryHandler answers course questions over HTTP.
type QueryHandler struct {
	system *rag.System
	logger log.Logger
}

// NewQueryHandler creates a new query handler.
func NewQueryHandler(system *rag.System, logger log.Logger) *QueryHandler {
	return &QueryHandler{system: system, logger: logger}
}

// RegisterRoutes registers query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.query)
}

// query answers a question. A missing session_id starts a new session whose
// ID is returned so the client can continue the conversation.
func (h *QueryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Query) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = h.system.CreateSession()
	}

	answer, sources, err := h.system.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		h.logger.Error("query failed", "error", err, "session_id", sessionID)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Keep sources a JSON array even when empty.
	if sources == nil {
		sources = []string{}
	}

	writeJSON(w, http.StatusOK, QueryResponse{
		Answer:    answer,
		Sources:   sources,
		SessionID: sessionID,
	})
}
