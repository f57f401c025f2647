package cluster

import "fmt"

// Handle is an opaque reference to a monitorable process: a stream leader,
// a replica, or a client subscriber. Handles are minted from ULIDs so they
// sort roughly by creation time and never collide across restarts.
type Handle string

func (h Handle) String() string { return string(h) }

// StreamConfig is the durable, replicated description of one stream
// cluster: its desired replica placement and the currently elected leader.
type StreamConfig struct {
	Stream   StreamID `json:"stream"`
	Leader   Node     `json:"leader"`
	Replicas []Node   `json:"replicas"`
	Epoch    int      `json:"epoch"`
}

// streamPhase is the per-stream finite state.
type streamPhase string

const (
	phaseStartCluster   streamPhase = "start_cluster"
	phaseRunning        streamPhase = "running"
	phaseDeleteCluster  streamPhase = "delete_cluster"
	phaseStartReplica   streamPhase = "start_replica"
	phaseDeleteReplica  streamPhase = "delete_replica"
	phaseLeaderElection streamPhase = "leader_election"
	phaseReplicaRestart streamPhase = "replica_restart"
)

// StreamState is the authoritative, replicated state of one stream cluster.
// It embeds the per-stream FSM phase (invariant 1: a stream has exactly one
// phase at a time) plus the bookkeeping each phase needs to resume after a
// leader change.
type StreamState struct {
	Conf  StreamConfig
	Phase streamPhase

	// LeaderHandle is the Handle monitored for the current writer process,
	// set once start_cluster (or leader_election) reports its reply.
	LeaderHandle Handle

	// pending holds commands that arrived for this stream while it was busy
	// in a non-running phase; they are resubmitted in order once the phase
	// completes (invariant 4: no command is dropped, only deferred).
	Pending []Command

	// retries counts consecutive start_replica failures against the node
	// currently being retried, used for the phase's linear backoff.
	Retries int

	// PendingNode tracks the node a start_replica/delete_replica/
	// replica_restart phase is currently acting on. PendingReplyTo is part
	// of the replicated state, but no command handler sets it.
	PendingNode    Node
	PendingReplyTo *Handle
}

func (s *StreamState) String() string {
	return fmt.Sprintf("StreamState{stream=%s phase=%s leader=%s}", s.Conf.Stream, s.Phase, s.Conf.Leader)
}

// PhaseName identifies a phase the aux executor can run.
type PhaseName string

const (
	PhaseDoStartCluster  PhaseName = "start_cluster"
	PhaseDoDeleteCluster PhaseName = "delete_cluster"
	PhaseDoStartReplica  PhaseName = "start_replica"
	PhaseDoDeleteReplica PhaseName = "delete_replica"
	PhaseDoStopReplicas  PhaseName = "stop_replicas"
	PhaseDoCheckQuorum   PhaseName = "check_quorum"
	PhaseDoStartLeader   PhaseName = "start_new_leader"
	PhaseDoRepairNew     PhaseName = "repair_registry_new"
	PhaseDoRepairUpdate  PhaseName = "repair_registry_update"
)

// PhaseArgs is the closed set of argument shapes a phase can be invoked
// with; runPhase (phases.go) asserts the concrete type each phase expects.
type PhaseArgs interface {
	phaseArgs()
}

type StartClusterArgs struct{ Queue StreamConfig }

func (StartClusterArgs) phaseArgs() {}

type DeleteClusterArgs struct{ Stream StreamID }

func (DeleteClusterArgs) phaseArgs() {}

type StartReplicaArgs struct {
	Stream  StreamID
	Node    Node
	Retries int
}

func (StartReplicaArgs) phaseArgs() {}

type DeleteReplicaArgs struct {
	Stream StreamID
	Node   Node
	Conf   StreamConfig
}

func (DeleteReplicaArgs) phaseArgs() {}

type StopReplicasArgs struct {
	Stream   StreamID
	Replicas []Node
}

func (StopReplicasArgs) phaseArgs() {}

type CheckQuorumArgs struct {
	Stream   StreamID
	Leader   Node
	Replicas []Node
}

func (CheckQuorumArgs) phaseArgs() {}

type StartNewLeaderArgs struct {
	Stream  StreamID
	Node    Node
	Epoch   int
	Offsets []LogOffset
}

func (StartNewLeaderArgs) phaseArgs() {}

type RepairRegistryArgs struct{ Conf StreamConfig }

func (RepairRegistryArgs) phaseArgs() {}
