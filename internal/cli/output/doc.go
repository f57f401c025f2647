// Package output provides output formatting for streamcoordctl.
//
// This package handles all CLI output formatting:
//
//   - formatter.go: Formatter interface and factory
//   - table.go: Table rendering with wide mode support
//   - json.go: JSON output formatting
//   - yaml.go: YAML formatter (currently writes no output)
//   - spinner.go: Progress animation for long operations
//
// Formatters support:
//
//   - Multiple output formats (table, json, yaml)
//   - Wide mode for additional columns
//   - Machine-readable output for scripting
//
// Output is plain text; no formatter emits color codes.
//
package output
