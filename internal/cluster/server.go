package cluster

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/hashicorp/raft"
)

// Config configures a Coordinator instance end to end: Raft transport and
// storage, gossip discovery, and the tuning knobs for the phase executor
// and membership reconciler.
type Config struct {
	NodeID    string
	BindAddr  string
	DataDir   string
	Bootstrap bool

	Discovery DiscoveryConfig

	TickInterval    time.Duration
	ElectionTimeout time.Duration
	RestartTimeout  time.Duration
	StartupLockName string

	Engine   LogEngine
	Registry Registry
	Lock     StartupLock

	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.NodeID == "" {
		return fmt.Errorf("cluster: node_id is required")
	}
	if c.BindAddr == "" {
		return fmt.Errorf("cluster: bind_addr is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("cluster: data_dir is required")
	}
	if c.Engine == nil {
		return fmt.Errorf("cluster: log engine is required")
	}
	if c.Registry == nil {
		return fmt.Errorf("cluster: registry is required")
	}
	if c.TickInterval <= 0 {
		c.TickInterval = 60 * time.Second
	}
	if c.ElectionTimeout <= 0 {
		c.ElectionTimeout = 10 * time.Second
	}
	if c.RestartTimeout <= 0 {
		c.RestartTimeout = 1 * time.Second
	}
	if c.StartupLockName == "" {
		c.StartupLockName = "coordinator_startup"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return nil
}

// Coordinator is the top-level assembly: Raft consensus driving the FSM,
// gossip discovery feeding the membership reconciler, and the leader-local
// aux executor carrying out phases. Exactly one Coordinator runs per fleet
// node; Client is the only way callers should reach it.
type Coordinator struct {
	cfg    Config
	logger *slog.Logger

	fsm       *FSM
	raftNode  *RaftNode
	raft      *raft.Raft
	discovery *Discovery

	aux        *auxExecutor
	membership *membershipReconciler
	client     *Client

	stopCh chan struct{}
	doneCh chan struct{}
}

// New assembles a Coordinator. It does not start any background loop; call
// Start for that.
func New(cfg Config) (*Coordinator, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	fsm := NewFSM(cfg.Logger)

	raftNode, err := NewRaftNode(RaftConfig{
		NodeID:    cfg.NodeID,
		BindAddr:  cfg.BindAddr,
		DataDir:   cfg.DataDir,
		Bootstrap: cfg.Bootstrap,
		Logger:    cfg.Logger,
	}, fsm)
	if err != nil {
		return nil, fmt.Errorf("cluster: create raft node: %w", err)
	}

	disc, err := NewDiscovery(cfg.Discovery)
	if err != nil {
		raftNode.Close()
		return nil, fmt.Errorf("cluster: create discovery: %w", err)
	}

	co := &Coordinator{
		cfg:       cfg,
		logger:    cfg.Logger,
		fsm:       fsm,
		raftNode:  raftNode,
		raft:      raftNode.raft,
		discovery: disc,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
	co.aux = newAuxExecutor(co.raft, fsm, cfg.Engine, cfg.Registry, cfg.Logger)
	co.membership = newMembershipReconciler(co.raft, disc, cfg.TickInterval, cfg.Logger)
	co.client = newClient(co)

	disc.OnJoin(func(nodeID, raftAddr string) {
		co.logger.Info("fleet node joined gossip", "node_id", nodeID, "raft_addr", raftAddr)
	})
	disc.OnLeave(func(nodeID string) {
		co.logger.Info("fleet node left gossip", "node_id", nodeID)
	})

	return co, nil
}

// Client returns the operation surface used by HTTP handlers and the CLI.
func (co *Coordinator) Client() *Client { return co.client }

// IsLeader reports whether this node currently holds Raft leadership.
func (co *Coordinator) IsLeader() bool { return co.raftNode.IsLeader() }

// RaftStats exposes the underlying Raft instance's stats, for metrics
// collection (see internal/telemetry/metric.Collector).
func (co *Coordinator) RaftStats() map[string]string { return co.raftNode.Stats() }

// VoterCount returns the number of voters in the current Raft
// configuration, for metrics collection.
func (co *Coordinator) VoterCount() (int, error) {
	cfg, err := co.raftNode.GetConfiguration()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, server := range cfg.Servers {
		if server.Suffrage == raft.Voter {
			count++
		}
	}
	return count, nil
}

// Start launches the leader-change monitor loop, which in turn starts and
// stops the aux executor and membership reconciler as leadership moves.
func (co *Coordinator) Start() error {
	go co.leaderMonitorLoop()
	return nil
}

// Stop gracefully shuts the coordinator down: the membership reconciler and
// aux executor first (if running), then gossip, then Raft itself.
func (co *Coordinator) Stop() error {
	close(co.stopCh)
	<-co.doneCh

	if err := co.discovery.Leave(); err != nil {
		co.logger.Warn("error leaving gossip cluster", "error", err)
	}
	if err := co.discovery.Shutdown(); err != nil {
		co.logger.Warn("error shutting down discovery", "error", err)
	}
	return co.raftNode.Close()
}

// leaderMonitorLoop watches the Raft leader-change channel and calls
// onBecomeLeader/onLoseLeadership exactly when this node's own leadership
// status flips, mirroring the teacher's own leaderMonitorLoop/
// handleLeaderChange split.
func (co *Coordinator) leaderMonitorLoop() {
	defer close(co.doneCh)

	wasLeader := false
	for {
		select {
		case <-co.stopCh:
			if wasLeader {
				co.onLoseLeadership()
			}
			return
		case isLeader := <-co.raftNode.LeaderCh():
			co.handleLeaderChange(isLeader, &wasLeader)
		}
	}
}

func (co *Coordinator) handleLeaderChange(isLeader bool, wasLeader *bool) {
	if isLeader == *wasLeader {
		return
	}
	*wasLeader = isLeader

	if isLeader {
		co.logger.Info("acquired raft leadership", "node_id", co.cfg.NodeID)
		co.onBecomeLeader()
	} else {
		co.logger.Info("lost raft leadership", "node_id", co.cfg.NodeID)
		co.onLoseLeadership()
	}
}

// onBecomeLeader starts the phase executor and membership reconciler, then
// resumes every stream whose phase is not "running" — these are phases
// that were either in flight on the previous leader (now orphaned) or
// never got picked up because there was no leader at all.
func (co *Coordinator) onBecomeLeader() {
	co.aux.start()
	co.membership.start()
	co.checkClusterParity()
	co.resumeInFlightPhases()
}

func (co *Coordinator) onLoseLeadership() {
	co.membership.stop()
	co.aux.stop()
}

// resumeInFlightPhases re-submits the phase implied by each stream's
// current (non-running) state: the new leader always trusts the
// replicated phase field over whatever side effect may or may not
// still be running elsewhere.
func (co *Coordinator) resumeInFlightPhases() {
	co.fsm.mu.Lock()
	defer co.fsm.mu.Unlock()

	for id, s := range co.fsm.streams {
		switch s.Phase {
		case phaseStartCluster:
			co.aux.submit(id, PhaseDoStartCluster, StartClusterArgs{Queue: s.Conf})
		case phaseDeleteCluster:
			co.aux.submit(id, PhaseDoDeleteCluster, DeleteClusterArgs{Stream: id})
		case phaseStartReplica:
			co.aux.submit(id, PhaseDoStartReplica, StartReplicaArgs{Stream: id, Node: s.PendingNode, Retries: s.Retries})
		case phaseDeleteReplica:
			co.aux.submit(id, PhaseDoDeleteReplica, DeleteReplicaArgs{Stream: id, Node: s.PendingNode, Conf: s.Conf})
		case phaseLeaderElection:
			co.aux.submit(id, PhaseDoCheckQuorum, CheckQuorumArgs{Stream: id, Leader: s.Conf.Leader, Replicas: s.Conf.Replicas})
		case phaseReplicaRestart:
			co.aux.submit(id, PhaseDoStartReplica, StartReplicaArgs{Stream: id, Node: s.PendingNode, Retries: s.Retries})
		}
	}
}

// checkClusterParity warns when the fleet has an even node count, since an
// even-sized Raft voter set has no tie-break advantage over an odd one of
// n-1 and just wastes a node's worth of fault tolerance.
func (co *Coordinator) checkClusterParity() {
	n := len(co.discovery.Members())
	if n > 0 && n%2 == 0 {
		co.logger.Warn("fleet has an even number of nodes, consider an odd count for clean majorities", "nodes", n)
	}
}
