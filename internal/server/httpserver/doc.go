// Package httpserver provides the HTTP/HTTPS admin server for streamcoordd.
//
// This package implements the external admin API using stdlib net/http:
//
//   - Status: GET /v1/status
//   - Stream lifecycle: POST /v1/streams, DELETE /v1/streams/{id}
//   - Replica membership: POST /v1/streams/{id}/replicas,
//     DELETE /v1/streams/{id}/replicas/{node}
//   - Subscribers: POST /v1/streams/{id}/subscribers,
//     DELETE /v1/streams/{id}/subscribers/{handle}
//   - Health: /health, /ready
//
// Features:
//
//   - TLS support
//   - Middleware chain: Recover, CORS, RequestID, RateLimit, Audit
//   - Graceful shutdown with configurable timeout
//
// Stream requests are served by this node's cluster.Client. Mutating
// requests on a non-leader node answer 409 NOT_LEADER instead of proxying;
// GET /v1/status reads this node's local state.
package httpserver
