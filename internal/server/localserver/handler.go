// Package localserver provides the local management server.
package localserver

import (
	"context"
	"fmt"
	"io"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// Handler handles local management commands issued over the Unix socket.
type Handler struct {
	client      *cluster.Client
	coord       *cluster.Coordinator
	requestStop func()
}

// NewHandler creates a new Handler wired to the coordinator's client and a
// callback that triggers the daemon's graceful shutdown sequence.
func NewHandler(coord *cluster.Coordinator, requestStop func()) *Handler {
	return &Handler{
		client:      coord.Client(),
		coord:       coord,
		requestStop: requestStop,
	}
}

// Execute executes a local management command.
func (h *Handler) Execute(w io.Writer, cmd string, args []string) error {
	switch cmd {
	case "status":
		return h.handleStatus(w)
	case "shutdown":
		return h.handleShutdown(w)
	case "reload":
		return h.handleReload(w)
	case "drain":
		return h.handleDrain(w)
	default:
		_, err := w.Write([]byte("unknown command: " + cmd + "\n"))
		return err
	}
}

func (h *Handler) handleStatus(w io.Writer) error {
	streams := h.client.Status(context.Background())
	voters, err := h.coord.VoterCount()
	if err != nil {
		_, werr := fmt.Fprintf(w, "error: %v\n", err)
		return werr
	}
	_, err = fmt.Fprintf(w, "leader=%v streams=%d raft_voters=%d\n", h.coord.IsLeader(), len(streams), voters)
	return err
}

func (h *Handler) handleShutdown(w io.Writer) error {
	if _, err := w.Write([]byte("shutdown initiated\n")); err != nil {
		return err
	}
	if h.requestStop != nil {
		go h.requestStop()
	}
	return nil
}

func (h *Handler) handleReload(w io.Writer) error {
	// Raft/gossip topology is driven by the cluster config at startup, not
	// hot-reloaded: reloading it out from under a running voter could
	// desync the node from the rest of the fleet.
	_, err := w.Write([]byte("reload not supported: cluster topology is fixed at startup\n"))
	return err
}

func (h *Handler) handleDrain(w io.Writer) error {
	// There are no client connections to drain: work arrives as Raft log
	// entries, not as connections this process owns. Stepping down
	// leadership is the nearest equivalent and happens automatically when
	// the process exits during shutdown.
	_, err := w.Write([]byte("drain not applicable: stream placement is Raft-driven, not connection-based\n"))
	return err
}
