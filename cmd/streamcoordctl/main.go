// Package main provides the entry point for streamcoordctl.
//
// streamcoordctl is the command-line management tool for the stream
// coordinator fleet.
package main

import (
	"fmt"
	"os"

	"github.com/yndnr/streamcoord-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
