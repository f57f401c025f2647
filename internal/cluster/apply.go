package cluster

// apply holds f.mu and implements the per-stream FSM transition table.
// It returns the Effects the Coordinator must interpret once the Raft
// commit is durable; apply itself never blocks and never talks to a
// LogEngine/Registry/NodeSource.
func (f *FSM) apply(cmd Command) []Effect {
	switch c := cmd.(type) {
	case SubscribeCmd:
		return f.applySubscribe(c)
	case UnsubscribeCmd:
		return f.applyUnsubscribe(c)
	case StartClusterCmd:
		return f.applyStartCluster(c)
	case DeleteClusterCmd:
		return f.applyDeleteCluster(c)
	case StartReplicaCmd:
		return f.applyStartReplica(c)
	case DeleteReplicaCmd:
		return f.applyDeleteReplica(c)
	case StartClusterReplyCmd:
		return f.applyStartClusterReply(c)
	case StartReplicaReplyCmd:
		return f.applyStartReplicaReply(c)
	case StartReplicaFailedCmd:
		return f.applyStartReplicaFailed(c)
	case DeleteClusterReplyCmd:
		return f.applyDeleteClusterReply(c)
	case PhaseFinishedCmd:
		return f.applyPhaseFinished(c)
	case StreamUpdatedCmd:
		return f.applyStreamUpdated(c)
	case ReplicasStoppedCmd:
		return f.applyReplicasStopped(c)
	case StartLeaderElectionCmd:
		return f.applyStartLeaderElection(c)
	case LeaderElectedCmd:
		return f.applyLeaderElected(c)
	case DownCmd:
		return f.applyDown(c)
	default:
		panic("FATAL: apply: unhandled command type, this is a decode/apply mismatch")
	}
}

// deferIfBusy is the single chokepoint deciding whether an incoming,
// stream-scoped command for a tracked stream runs immediately or is
// deferred (invariant 4): in phaseRunning it returns false and the command
// runs now; any other phase means a phase is already in flight for that
// stream, so the command is appended to Pending and it returns true.
func (f *FSM) deferIfBusy(s *StreamState, cmd Command) bool {
	if s.Phase == phaseRunning {
		return false
	}
	s.Pending = append(s.Pending, cmd)
	return true
}

func (f *FSM) applySubscribe(c SubscribeCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return []Effect{ReplyEffect{Value: ErrorReply{Kind: "not_found"}}}
	}
	if f.monitor.hasSubscription(c.Subscriber, c.Stream) {
		return nil
	}

	f.monitor.addSubscriber(c.Subscriber, c.Stream)
	effects := []Effect{MonitorEffect{Handle: c.Subscriber}}

	if s.LeaderHandle != "" {
		effects = append(effects, SendMsgEffect{To: c.Subscriber, Payload: LeaderUpMsg{Stream: c.Stream, Leader: s.LeaderHandle}})
	} else {
		effects = append(effects, SendMsgEffect{To: c.Subscriber, Payload: LeaderDownMsg{Stream: c.Stream, Leader: s.LeaderHandle}})
	}
	return effects
}

func (f *FSM) applyUnsubscribe(c UnsubscribeCmd) []Effect {
	f.monitor.removeSubscription(c.Subscriber, c.Stream)
	return nil
}

func (f *FSM) applyStartCluster(c StartClusterCmd) []Effect {
	id := c.Queue.Stream
	if _, exists := f.streams[id]; exists {
		return []Effect{ReplyEffect{Value: ErrorReply{Kind: "already_exists"}}}
	}

	f.streams[id] = &StreamState{
		Conf:  c.Queue,
		Phase: phaseStartCluster,
	}

	return []Effect{AuxEffect{
		Phase: PhaseDoStartCluster,
		Args:  StartClusterArgs{Queue: c.Queue},
	}}
}

func (f *FSM) applyStartClusterReply(c StartClusterReplyCmd) []Effect {
	s, ok := f.streams[c.Queue.Stream]
	if !ok {
		return nil
	}
	s.Conf = c.Queue
	s.Phase = phaseRunning
	s.LeaderHandle = c.Pid
	f.monitor.addProcess(c.Pid, c.Queue.Stream, c.Queue.Leader, RoleLeader)
	return f.drainPending(s)
}

func (f *FSM) applyDeleteCluster(c DeleteClusterCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return []Effect{ReplyEffect{Value: ErrorReply{Kind: "not_found"}}}
	}
	if f.deferIfBusy(s, c) {
		return nil
	}

	s.Phase = phaseDeleteCluster
	return []Effect{AuxEffect{
		Phase: PhaseDoDeleteCluster,
		Args:  DeleteClusterArgs{Stream: c.Stream},
	}}
}

func (f *FSM) applyDeleteClusterReply(c DeleteClusterReplyCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return nil
	}

	var effects []Effect
	for _, sub := range f.monitor.subscribersOf(c.Stream) {
		effects = append(effects, SendMsgEffect{To: sub, Payload: QueueDeletedMsg{Stream: c.Stream}})
	}
	if s.LeaderHandle != "" {
		effects = append(effects, DemonitorEffect{Handle: s.LeaderHandle})
	}
	delete(f.streams, c.Stream)
	return effects
}

func (f *FSM) applyStartReplica(c StartReplicaCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return []Effect{ReplyEffect{Value: ErrorReply{Kind: "not_found"}}}
	}
	if f.deferIfBusy(s, c) {
		return nil
	}

	s.Phase = phaseStartReplica
	s.PendingNode = c.Node
	s.Retries = c.Retries

	return []Effect{AuxEffect{
		Phase: PhaseDoStartReplica,
		Args:  StartReplicaArgs{Stream: c.Stream, Node: c.Node, Retries: c.Retries},
	}}
}

func (f *FSM) applyStartReplicaReply(c StartReplicaReplyCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return nil
	}

	alreadyPresent := false
	for _, n := range s.Conf.Replicas {
		if n == c.Node {
			alreadyPresent = true
			break
		}
	}
	if !alreadyPresent {
		s.Conf.Replicas = append(s.Conf.Replicas, c.Node)
	}
	f.monitor.addProcess(c.Pid, c.Stream, c.Node, RoleFollower)
	s.Retries = 0
	// PendingNode is left set to c.Node (rather than cleared here) so a
	// leadership change before repair_registry_update reports back still
	// resumes against the right node; applyPhaseFinished clears it once
	// the phase actually completes.

	return []Effect{AuxEffect{
		Phase: PhaseDoRepairUpdate,
		Args:  RepairRegistryArgs{Conf: s.Conf},
	}}
}

// applyStartReplicaFailed is reached when the aux executor exhausted its
// retry budget for a start_replica phase. The stream goes back to running
// so later commands aren't stuck behind a dead placement attempt forever;
// the caller (if any) is told it failed.
func (f *FSM) applyStartReplicaFailed(c StartReplicaFailedCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return nil
	}
	s.Phase = phaseRunning
	s.PendingNode = ""
	s.Retries = 0

	effects := f.drainPending(s)
	if c.ReplyTo != nil {
		effects = append(effects, ReplyEffect{To: *c.ReplyTo, Value: ErrorReply{Kind: "start_replica_failed"}})
	}
	return effects
}

func (f *FSM) applyDeleteReplica(c DeleteReplicaCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return []Effect{ReplyEffect{Value: ErrorReply{Kind: "not_found"}}}
	}
	if f.deferIfBusy(s, c) {
		return nil
	}

	s.Phase = phaseDeleteReplica
	s.PendingNode = c.Node

	conf := s.Conf
	kept := conf.Replicas[:0:0]
	for _, n := range conf.Replicas {
		if n != c.Node {
			kept = append(kept, n)
		}
	}
	conf.Replicas = kept
	s.Conf = conf

	return []Effect{AuxEffect{
		Phase: PhaseDoDeleteReplica,
		Args:  DeleteReplicaArgs{Stream: c.Stream, Node: c.Node, Conf: s.Conf},
	}}
}

func (f *FSM) applyPhaseFinished(c PhaseFinishedCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return nil
	}
	s.Phase = phaseRunning
	s.PendingNode = ""
	effects := f.drainPending(s)
	if c.ReplyTo != nil {
		effects = append(effects, ReplyEffect{To: *c.ReplyTo, Value: OKReply{}})
	}
	return effects
}

// applyStreamUpdated confirms a conf change a phase already echoed back
// (delete_replica's new replica set, most recently). The durable registry
// entry is stale until repair_registry_update runs, so that phase is queued
// here rather than folding straight back to running.
func (f *FSM) applyStreamUpdated(c StreamUpdatedCmd) []Effect {
	s, ok := f.streams[c.Conf.Stream]
	if !ok {
		return nil
	}
	s.Conf = c.Conf
	return []Effect{AuxEffect{
		Phase: PhaseDoRepairUpdate,
		Args:  RepairRegistryArgs{Conf: c.Conf},
	}}
}

// applyReplicasStopped is reached once every replica of a dead leader has
// been told to stop; the stream stays in phaseLeaderElection while
// check_quorum decides whether enough nodes are reachable to proceed.
func (f *FSM) applyReplicasStopped(c ReplicasStoppedCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return nil
	}
	return []Effect{AuxEffect{
		Phase: PhaseDoCheckQuorum,
		Args:  CheckQuorumArgs{Stream: c.Stream, Leader: s.Conf.Leader, Replicas: s.Conf.Replicas},
	}}
}

// applyDown handles a monitored process or subscriber dying. A process
// death on the current leader of a running stream stops every replica and
// kicks off leader election; a process death on a replica restarts just
// that replica, immediately if the leader is still alive, or deferred
// until the stream is running again otherwise. A subscriber death just
// cleans up its subscriptions.
func (f *FSM) applyDown(c DownCmd) []Effect {
	if f.monitor.isSubscriber(c.Handle) {
		f.monitor.removeSubscriber(c.Handle)
		return nil
	}

	entry, ok := f.monitor.lookupProcess(c.Handle)
	if !ok {
		return nil
	}
	f.monitor.removeProcess(c.Handle)

	s, ok := f.streams[entry.Stream]
	if !ok {
		return nil
	}

	if entry.Role == RoleLeader {
		return f.applyLeaderDown(s, entry.Stream, c.Handle)
	}
	return f.applyFollowerDown(s, entry)
}

// applyLeaderDown stops every replica before handing the stream to
// check_quorum, and tells subscribers the stream has no leader in the
// meantime. A leader death outside phaseRunning is logged and otherwise
// ignored: some other phase already owns this stream's fate.
func (f *FSM) applyLeaderDown(s *StreamState, stream StreamID, deadLeader Handle) []Effect {
	if s.Phase != phaseRunning {
		f.logger.Warn("leader process down outside running phase, no election triggered",
			"stream", stream, "phase", s.Phase)
		return nil
	}

	s.Phase = phaseLeaderElection
	s.LeaderHandle = ""

	effects := []Effect{AuxEffect{
		Phase: PhaseDoStopReplicas,
		Args:  StopReplicasArgs{Stream: stream, Replicas: s.Conf.Replicas},
	}}
	for _, sub := range f.monitor.subscribersOf(stream) {
		effects = append(effects, SendMsgEffect{To: sub, Payload: LeaderDownMsg{Stream: stream, Leader: deadLeader}})
	}
	return effects
}

// applyFollowerDown restarts the replica that died. If the leader is still
// serving, the restart runs right away; otherwise it is queued behind the
// leader-election already in flight, to avoid racing check_quorum/
// start_new_leader over the same node.
func (f *FSM) applyFollowerDown(s *StreamState, entry processEntry) []Effect {
	if s.Phase == phaseRunning {
		s.Phase = phaseReplicaRestart
		s.PendingNode = entry.Node
		s.Retries = 1
		return []Effect{AuxEffect{
			Phase: PhaseDoStartReplica,
			Args:  StartReplicaArgs{Stream: entry.Stream, Node: entry.Node, Retries: 1},
		}}
	}

	s.Pending = append(s.Pending, StartReplicaCmd{Stream: entry.Stream, Node: entry.Node, Retries: 1})
	return nil
}

func (f *FSM) applyStartLeaderElection(c StartLeaderElectionCmd) []Effect {
	s, ok := f.streams[c.Stream]
	if !ok {
		return nil
	}
	s.Phase = phaseLeaderElection

	node := electLeader(c.Offsets)
	return []Effect{AuxEffect{
		Phase: PhaseDoStartLeader,
		Args:  StartNewLeaderArgs{Stream: c.Stream, Node: node, Epoch: c.NewEpoch, Offsets: c.Offsets},
	}}
}

// applyLeaderElected installs the newly promoted leader and tells
// subscribers right away, but leaves the stream out of phaseRunning until
// repair_registry_update has confirmed the new conf durably, matching the
// delete_replica/start_replica reply paths.
func (f *FSM) applyLeaderElected(c LeaderElectedCmd) []Effect {
	s, ok := f.streams[c.Conf.Stream]
	if !ok {
		return nil
	}
	if s.LeaderHandle != "" {
		f.monitor.removeProcess(s.LeaderHandle)
	}
	s.Conf = c.Conf
	s.LeaderHandle = c.Pid
	f.monitor.addProcess(c.Pid, c.Conf.Stream, c.Conf.Leader, RoleLeader)

	effects := []Effect{AuxEffect{
		Phase: PhaseDoRepairUpdate,
		Args:  RepairRegistryArgs{Conf: c.Conf},
	}}
	for _, sub := range f.monitor.subscribersOf(c.Conf.Stream) {
		effects = append(effects, SendMsgEffect{To: sub, Payload: LeaderUpMsg{Stream: c.Conf.Stream, Leader: s.LeaderHandle}})
	}
	return effects
}

// drainPending resubmits every command that arrived while the stream was
// busy, in arrival order, as fresh AuxEffect/Apply work via the pipeline
// field of an AuxEffect with no phase — the Coordinator resubmits each one
// through raft.Apply exactly as if a client had sent it just now.
func (f *FSM) drainPending(s *StreamState) []Effect {
	if len(s.Pending) == 0 {
		return nil
	}
	pending := s.Pending
	s.Pending = nil
	return []Effect{AuxEffect{Pipeline: pending}}
}

// electLeader picks the replica with the highest committed offset, breaking
// ties by the highest epoch.
func electLeader(offsets []LogOffset) Node {
	if len(offsets) == 0 {
		return ""
	}
	best := offsets[0]
	for _, o := range offsets[1:] {
		if o.Offset > best.Offset || (o.Offset == best.Offset && o.Epoch > best.Epoch) {
			best = o
		}
	}
	return best.Node
}

// majority returns the smallest number of votes that constitutes a
// majority of n voters: floor(n/2) + 1.
func majority(n int) int {
	return n/2 + 1
}
