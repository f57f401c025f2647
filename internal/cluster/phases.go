package cluster

import (
	"context"
	"log/slog"
	"time"
)

// runPhase dispatches to the concrete phase implementation and
// returns the Command the result should be reported back to the FSM as.
// A nil return is an abnormal termination: the aux executor respawns the
// phase after auxRetryBackoff (see auxExecutor.run).
func runPhase(ctx context.Context, engine LogEngine, reg Registry, logger *slog.Logger, phase PhaseName, args PhaseArgs) Command {
	switch phase {
	case PhaseDoStartCluster:
		return doStartCluster(ctx, engine, reg, logger, args.(StartClusterArgs))
	case PhaseDoDeleteCluster:
		return doDeleteCluster(ctx, engine, reg, logger, args.(DeleteClusterArgs))
	case PhaseDoStartReplica:
		return doStartReplica(ctx, engine, logger, args.(StartReplicaArgs))
	case PhaseDoDeleteReplica:
		return doDeleteReplica(ctx, engine, reg, logger, args.(DeleteReplicaArgs))
	case PhaseDoStopReplicas:
		return doStopReplicas(ctx, engine, logger, args.(StopReplicasArgs))
	case PhaseDoCheckQuorum:
		return doCheckQuorum(ctx, engine, logger, args.(CheckQuorumArgs))
	case PhaseDoStartLeader:
		return doStartNewLeader(ctx, engine, logger, args.(StartNewLeaderArgs))
	case PhaseDoRepairNew:
		return doRepairRegistryNew(ctx, reg, logger, args.(RepairRegistryArgs))
	case PhaseDoRepairUpdate:
		return doRepairRegistryUpdate(ctx, reg, logger, args.(RepairRegistryArgs))
	default:
		logger.Error("aux executor: unknown phase requested", "phase", phase)
		return nil
	}
}

// maxStartReplicaRetries bounds the linear backoff before start_replica
// gives up on a node and reports failure upstream.
const maxStartReplicaRetries = 5

// startReplicaBackoff is the per-attempt linear backoff step.
const startReplicaBackoff = 2 * time.Second

func doStartCluster(ctx context.Context, engine LogEngine, reg Registry, logger *slog.Logger, args StartClusterArgs) Command {
	conf := args.Queue
	h, err := engine.StartWriter(ctx, conf.Stream, conf.Leader, conf)
	if err != nil {
		logger.Error("start_cluster: failed to start writer", "stream", conf.Stream, "node", conf.Leader, "error", err)
		// A nil reply here is an abnormal termination: the aux executor
		// respawns start_cluster on a timer rather than giving up.
		return nil
	}

	if err := reg.Declare(ctx, conf); err != nil {
		logger.Error("start_cluster: failed to declare registry entry", "stream", conf.Stream, "error", err)
	}

	return StartClusterReplyCmd{Queue: conf, Pid: h}
}

func doDeleteCluster(ctx context.Context, engine LogEngine, reg Registry, logger *slog.Logger, args DeleteClusterArgs) Command {
	if err := reg.Delete(ctx, args.Stream); err != nil {
		logger.Error("delete_cluster: failed to delete registry entry", "stream", args.Stream, "error", err)
	}
	return DeleteClusterReplyCmd{Stream: args.Stream}
}

func doStartReplica(ctx context.Context, engine LogEngine, logger *slog.Logger, args StartReplicaArgs) Command {
	h, err := engine.StartReplica(ctx, args.Stream, args.Node, "")
	if err != nil {
		if args.Retries >= maxStartReplicaRetries {
			logger.Warn("start_replica: exhausted retries, giving up", "stream", args.Stream, "node", args.Node, "retries", args.Retries)
			return StartReplicaFailedCmd{Stream: args.Stream, Node: args.Node, Retries: args.Retries}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(startReplicaBackoff * time.Duration(args.Retries+1)):
		}
		return StartReplicaCmd{Stream: args.Stream, Node: args.Node, Retries: args.Retries + 1}
	}

	return StartReplicaReplyCmd{Stream: args.Stream, Node: args.Node, Pid: h}
}

func doDeleteReplica(ctx context.Context, engine LogEngine, reg Registry, logger *slog.Logger, args DeleteReplicaArgs) Command {
	// The Handle to stop isn't carried on DeleteReplicaArgs because the
	// FSM doesn't track per-node handles, only the leader's; the phase
	// looks the process up through the LogEngine's own bookkeeping by
	// (stream, node) instead of by Handle.
	if err := engine.Stop(ctx, Handle(string(args.Stream)+"/"+string(args.Node))); err != nil {
		logger.Warn("delete_replica: stop returned error, treating as already gone", "stream", args.Stream, "node", args.Node, "error", err)
	}
	return StreamUpdatedCmd{Conf: args.Conf}
}

func doStopReplicas(ctx context.Context, engine LogEngine, logger *slog.Logger, args StopReplicasArgs) Command {
	for _, n := range args.Replicas {
		if err := engine.Stop(ctx, Handle(string(args.Stream)+"/"+string(n))); err != nil {
			logger.Warn("stop_replicas: stop failed, continuing", "stream", args.Stream, "node", n, "error", err)
		}
	}
	return ReplicasStoppedCmd{Stream: args.Stream}
}

// doCheckQuorum collects the current offset/epoch from every reachable node
// that held a copy of the stream, the dead leader included, and once a
// majority of the replica set have answered, starts a new leader election
// round. Unreachable nodes are simply excluded; the algorithm never blocks
// waiting for all of them.
func doCheckQuorum(ctx context.Context, engine LogEngine, logger *slog.Logger, args CheckQuorumArgs) Command {
	need := majority(len(args.Replicas))
	candidates := args.Replicas
	if args.Leader != "" {
		candidates = append([]Node{args.Leader}, args.Replicas...)
	}

	var offsets []LogOffset
	for _, n := range candidates {
		offset, epoch, err := engine.Offset(ctx, Handle(string(args.Stream)+"/"+string(n)))
		if err != nil {
			logger.Debug("check_quorum: node unreachable, excluding", "stream", args.Stream, "node", n, "error", err)
			continue
		}
		offsets = append(offsets, LogOffset{Node: n, Offset: offset, Epoch: epoch})
	}

	if len(offsets) < need {
		logger.Warn("check_quorum: no majority of replicas reachable, election cannot proceed yet",
			"stream", args.Stream, "reachable", len(offsets), "need", need)
		return nil
	}

	return StartLeaderElectionCmd{Stream: args.Stream, Offsets: offsets}
}

func doStartNewLeader(ctx context.Context, engine LogEngine, logger *slog.Logger, args StartNewLeaderArgs) Command {
	h, err := engine.PromoteToLeader(ctx, args.Stream, Handle(string(args.Stream)+"/"+string(args.Node)))
	if err != nil {
		logger.Error("start_new_leader: promotion failed", "stream", args.Stream, "node", args.Node, "error", err)
		return nil
	}

	others := make([]Node, 0, len(args.Offsets))
	for _, o := range args.Offsets {
		if o.Node != args.Node {
			others = append(others, o.Node)
		}
	}

	conf := StreamConfig{
		Stream:   args.Stream,
		Leader:   args.Node,
		Replicas: others,
		Epoch:    args.Epoch,
	}
	return LeaderElectedCmd{Conf: conf, Pid: h}
}

func doRepairRegistryNew(ctx context.Context, reg Registry, logger *slog.Logger, args RepairRegistryArgs) Command {
	if err := reg.Declare(ctx, args.Conf); err != nil {
		logger.Error("repair_registry_new: declare failed", "stream", args.Conf.Stream, "error", err)
	}
	return PhaseFinishedCmd{Stream: args.Conf.Stream}
}

func doRepairRegistryUpdate(ctx context.Context, reg Registry, logger *slog.Logger, args RepairRegistryArgs) Command {
	if err := reg.Update(ctx, args.Conf); err != nil {
		logger.Error("repair_registry_update: update failed", "stream", args.Conf.Stream, "error", err)
	}
	return PhaseFinishedCmd{Stream: args.Conf.Stream}
}
