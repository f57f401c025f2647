package cluster

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/raft"
	"github.com/oklog/ulid/v2"
)

// ErrNotLeader is returned by every mutating Client method when this
// node's Raft instance is not currently the leader. Client does not retry
// against another fleet member, and neither does the streamcoordctl HTTP
// client in internal/cli/connection, which talks to a single address.
var ErrNotLeader = fmt.Errorf("cluster: this node is not the raft leader")

// Client is the operation surface exposed to administrators and to the
// coordinator's own HTTP handler. Every method except Status applies a
// Command through Raft and returns once the entry is committed; it does
// not wait for the phase the command starts, and the effects apply returns
// are not read. Status reads the local FSM instead.
type Client struct {
	coord *Coordinator
}

func newClient(c *Coordinator) *Client { return &Client{coord: c} }

func (c *Client) apply(ctx context.Context, cmd Command) error {
	if !c.coord.IsLeader() {
		return ErrNotLeader
	}
	data, err := encodeCommand(cmd)
	if err != nil {
		return fmt.Errorf("client: encode command: %w", err)
	}

	timeout := 10 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	future := c.coord.raft.Apply(data, timeout)
	if err := future.Error(); err != nil {
		if err == raft.ErrNotLeader || err == raft.ErrLeadershipLost {
			return ErrNotLeader
		}
		return fmt.Errorf("client: raft apply: %w", err)
	}
	return nil
}

// NewHandle mints a fresh opaque Handle for a subscriber or out-of-band
// caller that wants to be monitored.
func NewHandle() Handle {
	return Handle(ulid.Make().String())
}

func (c *Client) StartCluster(ctx context.Context, conf StreamConfig) error {
	return c.apply(ctx, StartClusterCmd{Queue: conf})
}

func (c *Client) DeleteCluster(ctx context.Context, stream StreamID, actingUser string) error {
	return c.apply(ctx, DeleteClusterCmd{Stream: stream, ActingUser: actingUser})
}

func (c *Client) AddReplica(ctx context.Context, stream StreamID, node Node) error {
	return c.apply(ctx, StartReplicaCmd{Stream: stream, Node: node})
}

func (c *Client) DeleteReplica(ctx context.Context, stream StreamID, node Node) error {
	return c.apply(ctx, DeleteReplicaCmd{Stream: stream, Node: node})
}

func (c *Client) Subscribe(ctx context.Context, stream StreamID, subscriber Handle) error {
	return c.apply(ctx, SubscribeCmd{Stream: stream, Subscriber: subscriber})
}

func (c *Client) Unsubscribe(ctx context.Context, stream StreamID, subscriber Handle) error {
	return c.apply(ctx, UnsubscribeCmd{Stream: stream, Subscriber: subscriber})
}

// Status returns a point-in-time snapshot of every stream's config. It is
// served locally (no Raft round-trip) and so may be very slightly stale on
// a follower; callers that need linearizable reads should route Status
// through the leader as well.
func (c *Client) Status(ctx context.Context) []StreamConfig {
	return c.coord.fsm.streamsSnapshot()
}
