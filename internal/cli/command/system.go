// Package command provides CLI command definitions for streamcoordctl.
package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/streamcoord-go/internal/cli/connection"
	"github.com/yndnr/streamcoord-go/internal/cli/output"
)

// SystemCommand returns the system subcommand group.
func SystemCommand() *cli.Command {
	return &cli.Command{
		Name:    "system",
		Aliases: []string{"sys"},
		Usage:   "System management commands",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Show stream cluster count known to the target node",
				Action: systemStatus,
			},
			{
				Name:   "health",
				Usage:  "Check server health",
				Action: systemHealth,
			},
			{
				Name:   "ready",
				Usage:  "Check whether the server has joined Raft",
				Action: systemReady,
			},
		},
	}
}

func systemStatus(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/v1/status")
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result statusResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON:
		formatter := &output.JSONFormatter{}
		return formatter.Format(os.Stdout, result)
	default:
		fmt.Printf("System Status\n")
		fmt.Printf("=============\n\n")
		fmt.Printf("Target:           %s\n", client.BaseURL())
		fmt.Printf("Stream clusters:  %d\n", len(result.Streams))
		return nil
	}
}

func systemHealth(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/health")
	if err != nil {
		PrintError("Health check failed: %v", err)
		return fmt.Errorf("server unhealthy")
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON:
		formatter := &output.JSONFormatter{}
		return formatter.Format(os.Stdout, result)
	default:
		if result.Status == "healthy" {
			fmt.Printf("✓ Server is healthy\n")
			fmt.Printf("  Target: %s\n", client.BaseURL())
		} else {
			fmt.Printf("✗ Server is unhealthy: %s\n", result.Status)
		}
		return nil
	}
}

func systemReady(c *cli.Context) error {
	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := client.Get(ctx, "/ready")
	if err != nil {
		PrintError("Readiness check failed: %v", err)
		return fmt.Errorf("server not ready")
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	flags := ParseGlobalFlags(c)
	switch output.Format(flags.Output) {
	case output.FormatJSON:
		formatter := &output.JSONFormatter{}
		return formatter.Format(os.Stdout, result)
	default:
		if result.Status == "ready" {
			fmt.Printf("✓ Server is ready\n")
		} else {
			fmt.Printf("✗ Server is not ready: %s\n", result.Status)
		}
		return nil
	}
}
