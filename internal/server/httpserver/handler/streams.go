package handler

import (
	"encoding/json"
	"net/http"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// handleStatus handles GET /v1/status.
func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	streams := h.client.Status(r.Context())
	resp := StatusResponse{Streams: make([]StreamConfigResponse, len(streams))}
	for i, c := range streams {
		resp.Streams[i] = toStreamConfigResponse(c)
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleStartCluster handles POST /v1/streams.
func (h *Handler) handleStartCluster(w http.ResponseWriter, r *http.Request) {
	var req StartClusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.Stream == "" {
		h.writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "stream is required")
		return
	}

	replicas := make([]cluster.Node, len(req.Replicas))
	for i, n := range req.Replicas {
		replicas[i] = cluster.Node(n)
	}

	conf := cluster.StreamConfig{
		Stream:   cluster.StreamID(req.Stream),
		Leader:   cluster.Node(req.Leader),
		Replicas: replicas,
	}

	if err := h.client.StartCluster(r.Context(), conf); err != nil {
		h.handleClientError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, toStreamConfigResponse(conf))
}

// handleDeleteCluster handles DELETE /v1/streams/{id}.
func (h *Handler) handleDeleteCluster(w http.ResponseWriter, r *http.Request) {
	stream := cluster.StreamID(r.PathValue("id"))
	actingUser := r.Header.Get("X-Acting-User")

	if err := h.client.DeleteCluster(r.Context(), stream, actingUser); err != nil {
		h.handleClientError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, nil)
}

// handleAddReplica handles POST /v1/streams/{id}/replicas.
func (h *Handler) handleAddReplica(w http.ResponseWriter, r *http.Request) {
	stream := cluster.StreamID(r.PathValue("id"))

	var req AddReplicaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
		return
	}
	if req.Node == "" {
		h.writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "node is required")
		return
	}

	if err := h.client.AddReplica(r.Context(), stream, cluster.Node(req.Node)); err != nil {
		h.handleClientError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, nil)
}

// handleDeleteReplica handles DELETE /v1/streams/{id}/replicas/{node}.
func (h *Handler) handleDeleteReplica(w http.ResponseWriter, r *http.Request) {
	stream := cluster.StreamID(r.PathValue("id"))
	node := cluster.Node(r.PathValue("node"))

	if err := h.client.DeleteReplica(r.Context(), stream, node); err != nil {
		h.handleClientError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusAccepted, nil)
}

// handleSubscribe handles POST /v1/streams/{id}/subscribers. If the caller
// doesn't supply a subscriber handle, one is minted and returned.
func (h *Handler) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	stream := cluster.StreamID(r.PathValue("id"))

	var req SubscribeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
			return
		}
	}

	subscriber := cluster.Handle(req.Subscriber)
	if subscriber == "" {
		subscriber = cluster.NewHandle()
	}

	if err := h.client.Subscribe(r.Context(), stream, subscriber); err != nil {
		h.handleClientError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, SubscribeResponse{Subscriber: string(subscriber)})
}

// handleUnsubscribe handles DELETE /v1/streams/{id}/subscribers/{handle}.
func (h *Handler) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	stream := cluster.StreamID(r.PathValue("id"))
	subscriber := cluster.Handle(r.PathValue("handle"))

	if err := h.client.Unsubscribe(r.Context(), stream, subscriber); err != nil {
		h.handleClientError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusNoContent, nil)
}
