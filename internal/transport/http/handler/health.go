package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	backend func() string
}

// NewHealthHandler returns a handler; backend, when non-nil, reports the
// pending store backend currently in use.
func NewHealthHandler(backend func() string) *HealthHandler {
	return &HealthHandler{backend: backend}
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: "pong"})
	case "store":
		if h.backend == nil {
			writeError(w, http.StatusNotFound, "no pending store")
			return
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{OK: true, Message: h.backend()})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
