// Package logengine provides cluster.LogEngine implementations: an
// in-memory fake for tests and a containerd-backed implementation for
// production, grounded on the teacher pack's own container-runtime client
// (_examples/cuemby-warren/pkg/runtime/containerd.go).
package logengine

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// InMemory is a cluster.LogEngine test double: it never spawns a real
// process, it just tracks handles and lets tests drive offsets and
// failures directly.
type InMemory struct {
	mu        sync.Mutex
	processes map[cluster.Handle]*inMemProc

	// FailStartReplica, when set, makes every StartReplica call fail
	// until cleared — used to exercise phases.go's retry/backoff path.
	FailStartReplica bool
}

type inMemProc struct {
	stream cluster.StreamID
	node   cluster.Node
	offset int64
	epoch  int
}

// NewInMemory returns an empty InMemory engine.
func NewInMemory() *InMemory {
	return &InMemory{processes: make(map[cluster.Handle]*inMemProc)}
}

func newHandle() cluster.Handle {
	return cluster.Handle(ulid.Make().String())
}

// StartWriter implements cluster.LogEngine.
func (e *InMemory) StartWriter(ctx context.Context, stream cluster.StreamID, node cluster.Node, conf cluster.StreamConfig) (cluster.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	h := newHandle()
	e.processes[h] = &inMemProc{stream: stream, node: node, epoch: conf.Epoch}
	return h, nil
}

// StartReplica implements cluster.LogEngine.
func (e *InMemory) StartReplica(ctx context.Context, stream cluster.StreamID, node cluster.Node, leader cluster.Node) (cluster.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.FailStartReplica {
		return "", fmt.Errorf("logengine: start replica %s on %s: simulated failure", stream, node)
	}

	h := newHandle()
	e.processes[h] = &inMemProc{stream: stream, node: node}
	return h, nil
}

// Stop implements cluster.LogEngine.
func (e *InMemory) Stop(ctx context.Context, h cluster.Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.processes, h)
	return nil
}

// Offset implements cluster.LogEngine.
func (e *InMemory) Offset(ctx context.Context, h cluster.Handle) (int64, int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.processes[h]
	if !ok {
		return 0, 0, fmt.Errorf("logengine: unknown handle %s", h)
	}
	return p.offset, p.epoch, nil
}

// PromoteToLeader implements cluster.LogEngine.
func (e *InMemory) PromoteToLeader(ctx context.Context, stream cluster.StreamID, h cluster.Handle) (cluster.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.processes[h]
	if !ok {
		return "", fmt.Errorf("logengine: unknown handle %s", h)
	}
	delete(e.processes, h)

	newH := newHandle()
	e.processes[newH] = &inMemProc{stream: stream, node: p.node, offset: p.offset, epoch: p.epoch + 1}
	return newH, nil
}

// SetOffset lets tests advance a tracked process's reported offset/epoch,
// e.g. to make one replica win a leader election over another.
func (e *InMemory) SetOffset(h cluster.Handle, offset int64, epoch int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.processes[h]; ok {
		p.offset = offset
		p.epoch = epoch
	}
}
