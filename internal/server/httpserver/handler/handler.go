// Package handler provides HTTP request handlers for streamcoordd.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// Handler is the main HTTP handler that routes requests to the cluster
// admin surface.
type Handler struct {
	client *cluster.Client
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Handler wired to the given cluster client.
func New(client *cluster.Client, logger *slog.Logger) *Handler {
	h := &Handler{
		client: client,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	h.mux.HandleFunc("GET /v1/status", h.handleStatus)

	h.mux.HandleFunc("POST /v1/streams", h.handleStartCluster)
	h.mux.HandleFunc("DELETE /v1/streams/{id}", h.handleDeleteCluster)

	h.mux.HandleFunc("POST /v1/streams/{id}/replicas", h.handleAddReplica)
	h.mux.HandleFunc("DELETE /v1/streams/{id}/replicas/{node}", h.handleDeleteReplica)

	h.mux.HandleFunc("POST /v1/streams/{id}/subscribers", h.handleSubscribe)
	h.mux.HandleFunc("DELETE /v1/streams/{id}/subscribers/{handle}", h.handleUnsubscribe)
}

// writeJSON writes a JSON response with the standard envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with the standard envelope.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, nil)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts the request ID set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return ""
}

// handleClientError converts a cluster.Client error into an HTTP response.
func (h *Handler) handleClientError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, cluster.ErrNotLeader) {
		h.writeError(w, r, http.StatusConflict, "NOT_LEADER", "this node is not the raft leader")
		return
	}

	h.logger.Error("cluster command failed", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal server error")
}
