// Package main provides the entry point for streamcoordctl.
//
// The CLI tool provides command-line access to a streamcoordd fleet for:
//
//   - Stream cluster lifecycle (create, delete, replicas, subscribers)
//   - System status, health, and readiness checks
//   - Local CLI configuration management
//
// Usage:
//
//	streamcoordctl [command] [flags]
//	streamcoordctl stream status --output json
//	streamcoordctl connect http://localhost:5080
//
// Each invocation runs a single command; the CLI has no interactive mode.
package main
