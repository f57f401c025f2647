// Package command provides CLI command definitions for streamcoordctl.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags
//   - stream.go: Stream cluster subcommand group (create/delete/replicas/subscribers/status)
//   - system.go: System subcommand group (health/ready/status)
//   - config.go: Local CLI configuration subcommand group
//   - connect.go: Connection management commands
//
// Commands follow a consistent pattern of parsing flags, calling the admin
// HTTP API through internal/cli/connection, and formatting the response
// with internal/cli/output.
package command
