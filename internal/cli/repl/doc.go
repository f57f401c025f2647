// Package repl provides interactive mode for streamcoordctl.
//
// This package implements the Read-Eval-Print Loop for interactive sessions:
//
//   - repl.go: Main REPL loop
//   - completer.go: Prefix completion over a fixed command list
//   - history.go: Command history persistence
//
// Run reads one line at a time, records each non-empty line in history and
// returns on exit, quit or end of input. It does not call the completer,
// does not load or save history, and does not execute the lines it reads.
// History keeps the newest 1000 entries and is looked up by recency with
// Get; it has no search. Output is plain text.
//
package repl
