// Package connection provides connection management for streamcoordctl.
//
// This package manages connections to coordinator fleet members:
//
//   - manager.go: Connection state and lifecycle
//   - http.go: HTTP client used to talk to the admin API
//   - socket.go: Unix socket client for local management
//
// Every streamcoordctl command talks to the admin HTTP API exposed by
// internal/server/httpserver; there is no in-process shortcut even when
// the CLI runs on the same host as a fleet member.
package connection
