// Package config provides CLI configuration for streamcoordctl.
//
// This package defines CLI-specific configuration:
//
//   - spec.go: CLIConfig struct (~/.streamcoord/cli.yaml)
//   - loader.go: Configuration loading and merging
//
// Configuration includes:
//
//   - Default connection profile
//   - Output format preferences
//   - Saved connections
package config
