// Package cluster implements the replicated stream-cluster coordinator.
//
// The coordinator is a deterministic state machine (FSM, see fsm.go)
// replicated by hashicorp/raft. It owns, for every managed stream, the
// authoritative topology (leader/writer node and replica nodes), drives
// leader election on leader failure, restarts failed replicas, performs
// cluster create/delete, and publishes leader-up/leader-down events to
// subscribers. Every side effect (spawning processes, deleting clusters,
// updating the durable registry) is modeled as a phase, executed by the
// leader-local aux executor (aux.go) and reported back as a command.
package cluster

import "time"

// StreamID identifies a stream cluster.
type StreamID string

// Node identifies a fleet member by its node id.
type Node string

// Role is the kind of process a monitored Handle plays for a stream.
type Role uint8

const (
	RoleLeader Role = iota
	RoleFollower
)

// Command is the closed set of commands the FSM accepts. Every command
// reaches Apply through the Raft log in the order chosen by consensus.
type Command interface {
	commandType() string
}

// --- external, client-initiated commands ---

type SubscribeCmd struct {
	Stream     StreamID
	Subscriber Handle
}

func (SubscribeCmd) commandType() string { return "subscribe" }

type UnsubscribeCmd struct {
	Stream     StreamID
	Subscriber Handle
}

func (UnsubscribeCmd) commandType() string { return "unsubscribe" }

type StartClusterCmd struct {
	Queue StreamConfig
}

func (StartClusterCmd) commandType() string { return "start_cluster" }

type DeleteClusterCmd struct {
	Stream     StreamID
	ActingUser string
}

func (DeleteClusterCmd) commandType() string { return "delete_cluster" }

type StartReplicaCmd struct {
	Stream  StreamID
	Node    Node
	Retries int
}

func (StartReplicaCmd) commandType() string { return "start_replica" }

type DeleteReplicaCmd struct {
	Stream StreamID
	Node   Node
}

func (DeleteReplicaCmd) commandType() string { return "delete_replica" }

// --- internal, phase-reply or system-generated commands ---

type StartClusterReplyCmd struct {
	Queue StreamConfig
	Pid   Handle
}

func (StartClusterReplyCmd) commandType() string { return "start_cluster_reply" }

type StartReplicaReplyCmd struct {
	Stream StreamID
	Node   Node
	Pid    Handle
}

func (StartReplicaReplyCmd) commandType() string { return "start_replica_reply" }

type StartReplicaFailedCmd struct {
	Stream  StreamID
	Node    Node
	Retries int
	ReplyTo *Handle
}

func (StartReplicaFailedCmd) commandType() string { return "start_replica_failed" }

type DeleteClusterReplyCmd struct {
	Stream StreamID
}

func (DeleteClusterReplyCmd) commandType() string { return "delete_cluster_reply" }

// PhaseFinishedCmd is the generic "the current phase is done" reply used by
// phases with no data payload of their own (repair_registry_new and
// repair_registry_update).
type PhaseFinishedCmd struct {
	Stream  StreamID
	ReplyTo *Handle
}

func (PhaseFinishedCmd) commandType() string { return "phase_finished" }

type StreamUpdatedCmd struct {
	Conf StreamConfig
}

func (StreamUpdatedCmd) commandType() string { return "stream_updated" }

type ReplicasStoppedCmd struct {
	Stream StreamID
}

func (ReplicasStoppedCmd) commandType() string { return "replicas_stopped" }

type LogOffset struct {
	Node   Node
	Offset int64
	Epoch  int
}

type StartLeaderElectionCmd struct {
	Stream   StreamID
	NewEpoch int
	Offsets  []LogOffset
}

func (StartLeaderElectionCmd) commandType() string { return "start_leader_election" }

type LeaderElectedCmd struct {
	Conf StreamConfig
	Pid  Handle
}

func (LeaderElectedCmd) commandType() string { return "leader_elected" }

// DownReason documents why a monitored handle died, for logging only; the
// FSM's behavior never branches on it.
type DownReason string

type DownCmd struct {
	Handle Handle
	Reason DownReason
}

func (DownCmd) commandType() string { return "down" }

// Effect is the closed set of effects apply() can emit. Effects are
// interpreted by the consensus layer / coordinator runtime, never by apply
// itself — apply must not block.
type Effect interface {
	effectType() string
}

type MonitorEffect struct{ Handle Handle }

func (MonitorEffect) effectType() string { return "monitor" }

type DemonitorEffect struct{ Handle Handle }

func (DemonitorEffect) effectType() string { return "demonitor" }

// LeaderUpMsg/LeaderDownMsg are the two liveness payload kinds
// SendMsgEffect carries to subscribers; QueueDeletedMsg is sent to
// subscribers still registered at the moment a stream is deleted.
type LeaderUpMsg struct {
	Stream StreamID
	Leader Handle
}

type LeaderDownMsg struct {
	Stream StreamID
	Leader Handle
}

type QueueDeletedMsg struct {
	Stream StreamID
}

type SendMsgEffect struct {
	To      Handle
	Payload any
}

func (SendMsgEffect) effectType() string { return "send_msg" }

// ReplyEffect replies to the originator of the command that produced it.
// Value is one of the small closed set of client reply shapes (OKReply,
// ErrorReply).
type ReplyEffect struct {
	To    Handle
	Value any
}

func (ReplyEffect) effectType() string { return "reply" }

type OKReply struct{ Value any }

type ErrorReply struct{ Kind string }

// AuxEffect instructs the leader-local aux executor (aux.go) to run a phase,
// or to submit a batch of drained pending commands back into the log.
type AuxEffect struct {
	Phase    PhaseName
	Args     PhaseArgs
	Pipeline []Command
}

func (AuxEffect) effectType() string { return "aux" }

// DelayedCmdEffect schedules cmd for submission after delay via a timer.
type DelayedCmdEffect struct {
	Delay time.Duration
	Cmd   Command
}

func (DelayedCmdEffect) effectType() string { return "delayed_cmd" }
