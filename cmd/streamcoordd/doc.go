// Package main provides the entry point for streamcoordd.
//
// streamcoordd is the core stream coordinator service, providing:
//
//   - Raft consensus and gossip-based membership for a fleet node
//   - HTTP admin API for stream cluster lifecycle management
//   - Prometheus metrics and a local Unix socket for management access
//
// Usage:
//
//	streamcoordd [flags]
//	streamcoordd --config /path/to/config.yaml
//
// The server loads configuration, initializes the coordinator, and starts
// all configured listeners.
package main
