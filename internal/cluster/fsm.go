package cluster

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/hashicorp/raft"
)

// LogEntryType tags the payload carried by a raft.Log, so Apply can decode
// it without reflection over the Command interface (interfaces don't
// survive JSON round-trips on their own).
type LogEntryType uint8

const (
	EntrySubscribe LogEntryType = iota
	EntryUnsubscribe
	EntryStartCluster
	EntryDeleteCluster
	EntryStartReplica
	EntryDeleteReplica
	EntryStartClusterReply
	EntryStartReplicaReply
	EntryStartReplicaFailed
	EntryDeleteClusterReply
	EntryPhaseFinished
	EntryStreamUpdated
	EntryReplicasStopped
	EntryStartLeaderElection
	EntryLeaderElected
	EntryDown
)

// LogEntry is the wire shape written to the Raft log for every command.
type LogEntry struct {
	Type    LogEntryType    `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// encodeCommand turns a Command into the LogEntry bytes raft.Apply expects.
func encodeCommand(cmd Command) ([]byte, error) {
	var t LogEntryType
	switch cmd.(type) {
	case SubscribeCmd:
		t = EntrySubscribe
	case UnsubscribeCmd:
		t = EntryUnsubscribe
	case StartClusterCmd:
		t = EntryStartCluster
	case DeleteClusterCmd:
		t = EntryDeleteCluster
	case StartReplicaCmd:
		t = EntryStartReplica
	case DeleteReplicaCmd:
		t = EntryDeleteReplica
	case StartClusterReplyCmd:
		t = EntryStartClusterReply
	case StartReplicaReplyCmd:
		t = EntryStartReplicaReply
	case StartReplicaFailedCmd:
		t = EntryStartReplicaFailed
	case DeleteClusterReplyCmd:
		t = EntryDeleteClusterReply
	case PhaseFinishedCmd:
		t = EntryPhaseFinished
	case StreamUpdatedCmd:
		t = EntryStreamUpdated
	case ReplicasStoppedCmd:
		t = EntryReplicasStopped
	case StartLeaderElectionCmd:
		t = EntryStartLeaderElection
	case LeaderElectedCmd:
		t = EntryLeaderElected
	case DownCmd:
		t = EntryDown
	default:
		return nil, fmt.Errorf("encode command: unknown command type %T", cmd)
	}

	payload, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode command: marshal payload: %w", err)
	}
	return json.Marshal(LogEntry{Type: t, Payload: payload})
}

func decodeCommand(entry LogEntry) (Command, error) {
	var (
		cmd Command
		err error
	)
	switch entry.Type {
	case EntrySubscribe:
		var c SubscribeCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryUnsubscribe:
		var c UnsubscribeCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStartCluster:
		var c StartClusterCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryDeleteCluster:
		var c DeleteClusterCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStartReplica:
		var c StartReplicaCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryDeleteReplica:
		var c DeleteReplicaCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStartClusterReply:
		var c StartClusterReplyCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStartReplicaReply:
		var c StartReplicaReplyCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStartReplicaFailed:
		var c StartReplicaFailedCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryDeleteClusterReply:
		var c DeleteClusterReplyCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryPhaseFinished:
		var c PhaseFinishedCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStreamUpdated:
		var c StreamUpdatedCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryReplicasStopped:
		var c ReplicasStoppedCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryStartLeaderElection:
		var c StartLeaderElectionCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryLeaderElected:
		var c LeaderElectedCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	case EntryDown:
		var c DownCmd
		err = json.Unmarshal(entry.Payload, &c)
		cmd = c
	default:
		return nil, fmt.Errorf("decode command: unknown entry type %d", entry.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode command: unmarshal payload: %w", err)
	}
	return cmd, nil
}

// FSM is the deterministic replicated state machine: for every stream it
// owns the phase and config (StreamState), plus the process/subscriber
// monitor tables. apply must be a pure function of (state, command) — it
// never calls out to LogEngine/Registry/NodeSource directly; it only
// returns Effects for the Coordinator to interpret after the Raft commit.
type FSM struct {
	mu sync.Mutex

	streams map[StreamID]*StreamState
	monitor *monitorTable
	logger  *slog.Logger
}

// NewFSM builds an empty FSM ready to have its first command applied.
func NewFSM(logger *slog.Logger) *FSM {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSM{
		streams: make(map[StreamID]*StreamState),
		monitor: newMonitorTable(),
		logger:  logger,
	}
}

// Apply implements raft.FSM. It decodes the log entry and applies it,
// panicking on structural corruption (an unmarshal failure or unknown tag
// means the log itself is untrustworthy — there is no safe degraded mode).
func (f *FSM) Apply(log *raft.Log) interface{} {
	var entry LogEntry
	if err := json.Unmarshal(log.Data, &entry); err != nil {
		panic(fmt.Sprintf("FATAL: failed to unmarshal raft log entry at index %d: %v", log.Index, err))
	}

	cmd, err := decodeCommand(entry)
	if err != nil {
		panic(fmt.Sprintf("FATAL: raft log entry at index %d is corrupt: %v", log.Index, err))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.apply(cmd)
}

// Snapshot implements raft.FSM.
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	streams := make(map[StreamID]*StreamState, len(f.streams))
	for id, s := range f.streams {
		cp := *s
		streams[id] = &cp
	}
	return &fsmSnapshot{streams: streams}, nil
}

// Restore implements raft.FSM. It fully replaces in-memory state; the
// monitor tables are rebuilt from the restored StreamState.LeaderHandle
// entries rather than persisted directly, since they are pure derived
// bookkeeping (invariant 3).
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	gz, err := gzip.NewReader(rc)
	if err != nil {
		return fmt.Errorf("restore: open gzip reader: %w", err)
	}
	defer gz.Close()

	var streams map[StreamID]*StreamState
	if err := json.NewDecoder(gz).Decode(&streams); err != nil {
		return fmt.Errorf("restore: decode snapshot: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.streams = streams
	f.monitor = newMonitorTable()
	for id, s := range f.streams {
		if s.LeaderHandle != "" {
			f.monitor.addProcess(s.LeaderHandle, id, s.Conf.Leader, RoleLeader)
		}
	}
	return nil
}

type fsmSnapshot struct {
	streams map[StreamID]*StreamState
}

func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		gz := gzip.NewWriter(sink)
		if err := json.NewEncoder(gz).Encode(s.streams); err != nil {
			return fmt.Errorf("persist: encode snapshot: %w", err)
		}
		return gz.Close()
	}()
	if err != nil {
		sink.Cancel()
		return err
	}
	return sink.Close()
}

func (s *fsmSnapshot) Release() {}

// streamConf looks up a stream's current config, used by the aux executor
// to rebuild phase args when respawning a failed phase after a nil reply.
func (f *FSM) streamConf(id StreamID) (StreamConfig, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	s, ok := f.streams[id]
	if !ok {
		return StreamConfig{}, false
	}
	return s.Conf, true
}

// streamsSnapshot returns a read-only copy of every stream's config, used
// by the client API's status calls. Safe to call concurrently with Apply.
func (f *FSM) streamsSnapshot() []StreamConfig {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]StreamConfig, 0, len(f.streams))
	for _, s := range f.streams {
		out = append(out, s.Conf)
	}
	return out
}
