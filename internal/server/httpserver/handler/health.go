// Package handler provides HTTP request handlers for streamcoordd.
package handler

import (
	"net/http"
	"time"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. It always answers ready; it does not
// look at Raft state or leadership.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
