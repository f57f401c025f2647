package cluster

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

// fakeEngine is a minimal LogEngine double driven directly by Handle, so
// tests can set up exactly the offsets a phase will look up without going
// through StartWriter/StartReplica's handle minting.
type fakeEngine struct {
	offsets map[Handle]fakeOffset
	stopped []Handle
}

type fakeOffset struct {
	offset int64
	epoch  int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{offsets: make(map[Handle]fakeOffset)}
}

func (e *fakeEngine) StartWriter(ctx context.Context, stream StreamID, node Node, conf StreamConfig) (Handle, error) {
	return Handle(string(stream) + "/" + string(node)), nil
}

func (e *fakeEngine) StartReplica(ctx context.Context, stream StreamID, node Node, leader Node) (Handle, error) {
	return Handle(string(stream) + "/" + string(node)), nil
}

func (e *fakeEngine) Stop(ctx context.Context, h Handle) error {
	e.stopped = append(e.stopped, h)
	return nil
}

func (e *fakeEngine) Offset(ctx context.Context, h Handle) (int64, int, error) {
	o, ok := e.offsets[h]
	if !ok {
		return 0, 0, errNotFound
	}
	return o.offset, o.epoch, nil
}

func (e *fakeEngine) PromoteToLeader(ctx context.Context, stream StreamID, h Handle) (Handle, error) {
	return h, nil
}

type fakeRegistry struct {
	declared []StreamConfig
	updated  []StreamConfig
	deleted  []StreamID
}

func (r *fakeRegistry) Declare(ctx context.Context, conf StreamConfig) error {
	r.declared = append(r.declared, conf)
	return nil
}

func (r *fakeRegistry) Update(ctx context.Context, conf StreamConfig) error {
	r.updated = append(r.updated, conf)
	return nil
}

func (r *fakeRegistry) Delete(ctx context.Context, stream StreamID) error {
	r.deleted = append(r.deleted, stream)
	return nil
}

func (r *fakeRegistry) Get(ctx context.Context, stream StreamID) (StreamConfig, bool, error) {
	return StreamConfig{}, false, nil
}

func (r *fakeRegistry) List(ctx context.Context) ([]StreamConfig, error) {
	return nil, nil
}

var errNotFound = errors.New("fake: not found")

func TestDoCheckQuorum_IncludesLeaderNodeInProbeSet(t *testing.T) {
	engine := newFakeEngine()
	engine.offsets["orders/node-1"] = fakeOffset{offset: 42, epoch: 1}

	// Single-node stream: no replicas, only the dead leader's node.
	args := CheckQuorumArgs{Stream: "orders", Leader: "node-1", Replicas: nil}
	cmd := doCheckQuorum(context.Background(), engine, slog.Default(), args)

	elect, ok := cmd.(StartLeaderElectionCmd)
	if !ok {
		t.Fatalf("cmd = %T, want StartLeaderElectionCmd", cmd)
	}
	if len(elect.Offsets) != 1 || elect.Offsets[0].Node != "node-1" {
		t.Errorf("Offsets = %+v, want a single entry for node-1", elect.Offsets)
	}
}

func TestDoCheckQuorum_MajorityExcludesLeaderFromThreshold(t *testing.T) {
	engine := newFakeEngine()
	engine.offsets["orders/node-2"] = fakeOffset{offset: 10, epoch: 1}
	// node-1 (the former leader) and node-3 are unreachable.

	args := CheckQuorumArgs{Stream: "orders", Leader: "node-1", Replicas: []Node{"node-2", "node-3"}}
	cmd := doCheckQuorum(context.Background(), engine, slog.Default(), args)

	// majority(2 replicas) = 2, and only 1 of {leader, node-2, node-3}
	// answered, so the round cannot proceed yet.
	if cmd != nil {
		t.Errorf("cmd = %+v, want nil (quorum not met)", cmd)
	}
}

func TestDoDeleteReplica_ReturnsStreamUpdated(t *testing.T) {
	engine := newFakeEngine()
	reg := &fakeRegistry{}
	conf := StreamConfig{Stream: "orders", Leader: "node-1", Replicas: []Node{"node-3"}}

	cmd := doDeleteReplica(context.Background(), engine, reg, slog.Default(), DeleteReplicaArgs{Stream: "orders", Node: "node-2", Conf: conf})

	updated, ok := cmd.(StreamUpdatedCmd)
	if !ok {
		t.Fatalf("cmd = %T, want StreamUpdatedCmd", cmd)
	}
	if updated.Conf.Stream != "orders" || len(updated.Conf.Replicas) != 1 || updated.Conf.Replicas[0] != "node-3" {
		t.Errorf("Conf = %+v, want the replica set with node-2 removed", updated.Conf)
	}
}

func TestDoRepairRegistryUpdate_WritesThroughToRegistry(t *testing.T) {
	reg := &fakeRegistry{}
	conf := StreamConfig{Stream: "orders", Leader: "node-1"}

	cmd := doRepairRegistryUpdate(context.Background(), reg, slog.Default(), RepairRegistryArgs{Conf: conf})

	if len(reg.updated) != 1 || reg.updated[0].Stream != "orders" {
		t.Fatalf("registry.updated = %+v, want one entry for orders", reg.updated)
	}
	if _, ok := cmd.(PhaseFinishedCmd); !ok {
		t.Errorf("cmd = %T, want PhaseFinishedCmd", cmd)
	}
}
