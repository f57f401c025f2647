package command

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/streamcoord-go/internal/cli/connection"
	"github.com/yndnr/streamcoord-go/internal/cli/output"
)

// streamConfigResponse mirrors handler.StreamConfigResponse.
type streamConfigResponse struct {
	Stream   string   `json:"stream"`
	Leader   string   `json:"leader,omitempty"`
	Replicas []string `json:"replicas,omitempty" table:"wide"`
	Epoch    int      `json:"epoch"`
}

type statusResponse struct {
	Streams []streamConfigResponse `json:"streams"`
}

// StreamCommand returns the stream subcommand group, the CLI counterpart of
// cluster.Client's operation surface.
func StreamCommand() *cli.Command {
	return &cli.Command{
		Name:    "stream",
		Aliases: []string{"streams"},
		Usage:   "Manage stream clusters",
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "List known stream clusters",
				Action: streamStatus,
			},
			{
				Name:      "create",
				Usage:     "Start a new stream cluster",
				ArgsUsage: "STREAM",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "leader", Usage: "initial leader node", Required: true},
					&cli.StringSliceFlag{Name: "replica", Usage: "replica node (repeatable)"},
				},
				Action: streamCreate,
			},
			{
				Name:      "delete",
				Usage:     "Delete a stream cluster",
				ArgsUsage: "STREAM",
				Action:    streamDelete,
			},
			{
				Name:      "add-replica",
				Usage:     "Add a replica to a stream cluster",
				ArgsUsage: "STREAM NODE",
				Action:    streamAddReplica,
			},
			{
				Name:      "remove-replica",
				Usage:     "Remove a replica from a stream cluster",
				ArgsUsage: "STREAM NODE",
				Action:    streamRemoveReplica,
			},
			{
				Name:      "subscribe",
				Usage:     "Subscribe to stream lifecycle events",
				ArgsUsage: "STREAM",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subscriber", Usage: "subscriber handle (minted if omitted)"},
				},
				Action: streamSubscribe,
			},
			{
				Name:      "unsubscribe",
				Usage:     "Unsubscribe from stream lifecycle events",
				ArgsUsage: "STREAM SUBSCRIBER",
				Action:    streamUnsubscribe,
			},
		},
	}
}

func streamStatus(c *cli.Context) error {
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
	formatter := output.NewFormatter(output.Format(flags.Output), flags.Wide)
	return formatter.Format(os.Stdout, result.Streams)
}

func streamCreate(c *cli.Context) error {
	stream := c.Args().First()
	if stream == "" {
		return fmt.Errorf("stream name required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body := map[string]any{
		"stream":   stream,
		"leader":   c.String("leader"),
		"replicas": c.StringSlice("replica"),
	}

	resp, err := client.Post(ctx, "/v1/streams", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result streamConfigResponse
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Stream %q accepted (leader=%s, epoch=%d)\n", result.Stream, result.Leader, result.Epoch)
	return nil
}

func streamDelete(c *cli.Context) error {
	stream := c.Args().First()
	if stream == "" {
		return fmt.Errorf("stream name required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Delete(ctx, "/v1/streams/"+stream, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Stream %q delete accepted\n", stream)
	return nil
}

func streamAddReplica(c *cli.Context) error {
	stream, node := c.Args().Get(0), c.Args().Get(1)
	if stream == "" || node == "" {
		return fmt.Errorf("usage: stream add-replica STREAM NODE")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	resp, err := client.Post(ctx, "/v1/streams/"+stream+"/replicas", map[string]any{"node": node})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Replica %q accepted for stream %q\n", node, stream)
	return nil
}

func streamRemoveReplica(c *cli.Context) error {
	stream, node := c.Args().Get(0), c.Args().Get(1)
	if stream == "" || node == "" {
		return fmt.Errorf("usage: stream remove-replica STREAM NODE")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := strings.Join([]string{"/v1/streams", stream, "replicas", node}, "/")
	resp, err := client.Delete(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Replica %q removal accepted for stream %q\n", node, stream)
	return nil
}

func streamSubscribe(c *cli.Context) error {
	stream := c.Args().First()
	if stream == "" {
		return fmt.Errorf("stream name required")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var body any
	if sub := c.String("subscriber"); sub != "" {
		body = map[string]any{"subscriber": sub}
	}

	resp, err := client.Post(ctx, "/v1/streams/"+stream+"/subscribers", body)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}

	var result struct {
		Subscriber string `json:"subscriber"`
	}
	if err := connection.ParseResponse(resp, &result); err != nil {
		return err
	}

	fmt.Printf("Subscribed %q to stream %q\n", result.Subscriber, stream)
	return nil
}

func streamUnsubscribe(c *cli.Context) error {
	stream, subscriber := c.Args().Get(0), c.Args().Get(1)
	if stream == "" || subscriber == "" {
		return fmt.Errorf("usage: stream unsubscribe STREAM SUBSCRIBER")
	}

	client, err := EnsureConnected(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := strings.Join([]string{"/v1/streams", stream, "subscribers", subscriber}, "/")
	resp, err := client.Delete(ctx, path, nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}

	fmt.Printf("Unsubscribed %q from stream %q\n", subscriber, stream)
	return nil
}
