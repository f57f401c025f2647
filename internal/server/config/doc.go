// Package config provides server configuration for streamcoordd.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - cluster.go: conversion to cluster.Config
//   - verify.go: business validation (paths exist, required fields set)
//   - sanitize.go: log sanitization (hide sensitive values)
//
// Configuration is loaded via internal/infra/confloader and supports
// multiple sources: files, environment variables, and flags.
package config
