// Package handler provides the HTTP request handlers for streamcoordd's
// admin surface: stream cluster lifecycle, replica membership, and
// subscriber registration, all backed by internal/cluster.Client.
//
//   - handler.go: routing and the shared response envelope
//   - streams.go: stream cluster, replica, and subscriber endpoints
//   - health.go: health and readiness checks
//
// Every stream endpoint except GET /v1/status applies a Command through
// the Raft log; a non-leader node answers 409 with code NOT_LEADER rather
// than proxying. GET /v1/status reads the local state machine, and the
// health endpoints apply nothing.
package handler
