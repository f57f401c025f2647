// Package command provides CLI command definitions for streamcoordctl.
//
// It uses urfave/cli/v2 for command parsing. Each invocation runs a single
// command; App does not start an interactive mode.
package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/streamcoord-go/internal/cli/connection"
)

// Build information, set via ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// App creates the CLI application.
func App() *cli.App {
	app := &cli.App{
		Name:    "streamcoordctl",
		Usage:   "stream coordinator fleet management tool",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ConnectCommand(),
			DisconnectCommand(),
			UseCommand(),
			StreamCommand(),
			SystemCommand(),
			ConfigCommand(),
		},
		Before: func(c *cli.Context) error {
			mgr := connection.NewManager()
			c.App.Metadata["connMgr"] = mgr
			return nil
		},
	}

	return app
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "coordinator admin address (e.g., localhost:5080)",
			EnvVars: []string{"STREAMCOORD_SERVER"},
			Value:   "localhost:5080",
		},
		&cli.StringFlag{
			Name:    "acting-user",
			Usage:   "identity recorded on audited operations (e.g. cluster delete)",
			EnvVars: []string{"STREAMCOORD_ACTING_USER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
			Value:   "table",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable verbose output",
		},
	}
}

// GlobalFlags defines flags available to all commands.
type GlobalFlags struct {
	Server     string
	ActingUser string

	Output string // table, json, yaml
	Wide   bool

	Verbose bool
}

// ParseGlobalFlags extracts global flags from context.
func ParseGlobalFlags(c *cli.Context) *GlobalFlags {
	return &GlobalFlags{
		Server:     c.String("server"),
		ActingUser: c.String("acting-user"),
		Output:     c.String("output"),
		Wide:       c.Bool("wide"),
		Verbose:    c.Bool("verbose"),
	}
}

// GetConnectionManager retrieves the connection manager from context.
func GetConnectionManager(c *cli.Context) *connection.Manager {
	if mgr, ok := c.App.Metadata["connMgr"].(*connection.Manager); ok {
		return mgr
	}
	return nil
}

// EnsureConnected returns an HTTP client for the configured server.
func EnsureConnected(c *cli.Context) (*connection.HTTPClient, error) {
	flags := ParseGlobalFlags(c)
	client := connection.NewHTTPClient(flags.Server, flags.ActingUser)
	return client, nil
}

// PrintError prints an error message to stderr.
func PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
}
