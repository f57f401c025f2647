package cluster

import "context"

// LogEngine spawns and tears down the OS-level writer/replica processes
// that actually carry stream traffic. The coordinator never speaks the
// stream's own wire protocol; it only starts, stops, and monitors these
// processes. Implementations: logengine.InMemory (tests), logengine.Containerd
// (production, see internal/logengine/containerd.go).
type LogEngine interface {
	// StartWriter brings up a writer process for stream on node and returns
	// the Handle the coordinator should monitor for it.
	StartWriter(ctx context.Context, stream StreamID, node Node, conf StreamConfig) (Handle, error)

	// StartReplica brings up a replica process for stream on node, tailing
	// the given leader, and returns the Handle to monitor.
	StartReplica(ctx context.Context, stream StreamID, node Node, leader Node) (Handle, error)

	// Stop tears down the process behind h. Stop on an already-gone handle
	// is a no-op, not an error.
	Stop(ctx context.Context, h Handle) error

	// Offset returns the current committed log offset and epoch for the
	// process behind h, used by leader election to rank candidates.
	Offset(ctx context.Context, h Handle) (offset int64, epoch int, err error)

	// PromoteToLeader instructs the replica behind h to become the writer
	// for stream, returning its new Handle (processes may restart under a
	// new identity when promoted).
	PromoteToLeader(ctx context.Context, stream StreamID, h Handle) (Handle, error)
}

// Registry is the durable topology store, independent of the replicated
// log: every node keeps a local copy good enough to resume from after a
// crash, reconciled against the FSM's StreamConfig on every repair phase.
// Implementations: registry.Badger (production, see internal/registry).
type Registry interface {
	Declare(ctx context.Context, conf StreamConfig) error
	Update(ctx context.Context, conf StreamConfig) error
	Delete(ctx context.Context, stream StreamID) error
	Get(ctx context.Context, stream StreamID) (StreamConfig, bool, error)
	List(ctx context.Context) ([]StreamConfig, error)
}

// NodeSource exposes the live fleet membership the coordinator reconciles
// its own Raft voter set against. Backed by Discovery.
type NodeSource interface {
	Members() []Node
}
