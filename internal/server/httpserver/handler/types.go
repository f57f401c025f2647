// Package handler provides HTTP request handlers for streamcoordd.
package handler

import (
	"time"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// Response is the standard API response envelope.
type Response struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// NewResponse creates a success response.
func NewResponse(requestID string, data any) *Response {
	return &Response{
		Code:      "OK",
		Message:   "success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details any) *Response {
	return &Response{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// StreamConfigResponse represents a stream cluster's config in API responses.
type StreamConfigResponse struct {
	Stream   string   `json:"stream"`
	Leader   string   `json:"leader,omitempty"`
	Replicas []string `json:"replicas,omitempty"`
	Epoch    int      `json:"epoch"`
}

func toStreamConfigResponse(c cluster.StreamConfig) StreamConfigResponse {
	replicas := make([]string, len(c.Replicas))
	for i, n := range c.Replicas {
		replicas[i] = string(n)
	}
	return StreamConfigResponse{
		Stream:   string(c.Stream),
		Leader:   string(c.Leader),
		Replicas: replicas,
		Epoch:    c.Epoch,
	}
}

// StartClusterRequest is the request body for POST /v1/streams.
type StartClusterRequest struct {
	Stream   string   `json:"stream"`
	Leader   string   `json:"leader"`
	Replicas []string `json:"replicas,omitempty"`
}

// StatusResponse is the response body for GET /v1/status.
type StatusResponse struct {
	Streams []StreamConfigResponse `json:"streams"`
}

// AddReplicaRequest is the request body for POST /v1/streams/{id}/replicas.
type AddReplicaRequest struct {
	Node string `json:"node"`
}

// SubscribeRequest is the request body for POST /v1/streams/{id}/subscribers.
type SubscribeRequest struct {
	Subscriber string `json:"subscriber,omitempty"`
}

// SubscribeResponse is the response body for POST /v1/streams/{id}/subscribers.
type SubscribeResponse struct {
	Subscriber string `json:"subscriber"`
}
