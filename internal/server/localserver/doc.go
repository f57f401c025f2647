// Package localserver provides a Unix-socket management interface for a
// single streamcoordd process.
//
// It is reachable only from the local host, via file system permissions on
// the socket path, and exposes a small line-oriented command protocol:
//
//   - status: current leader/voter/stream counts for this node
//   - shutdown: trigger the daemon's graceful shutdown sequence
//   - reload / drain: explanatory no-ops (see handler.go for why)
package localserver
