package handler

import (
	"log/slog"
	"net/http"
)

// handleHealth reports liveness and database reachability.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Ping(r.Context()); err != nil {
		h.logger.Warn("health check failed", slog.String("error", err.Error()))
		h.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "down"})
		return
	}
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Database: "up"})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
