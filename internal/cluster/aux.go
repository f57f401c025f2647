package cluster

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/raft"
)

// auxExecutor is the leader-local, non-replicated phase runner.
// At most one phase runs per stream at a time (guarded by the FSM's own
// phase field); many streams' phases run concurrently. A phase's task is
// orphaned, never cancelled, on loss of leadership — the new leader's
// state_enter resumes whatever phase the replicated StreamState says is in
// flight, so an in-flight side effect on the old leader racing with a new
// attempt on the new leader is expected and must be idempotent at the
// LogEngine/Registry layer.
type auxExecutor struct {
	raft   *raft.Raft
	fsm    *FSM
	engine LogEngine
	reg    Registry
	logger *slog.Logger

	mu      sync.Mutex
	tasks   map[StreamID]*auxTask
	running bool
}

type auxTask struct {
	stream StreamID
	cancel context.CancelFunc
}

func newAuxExecutor(r *raft.Raft, fsm *FSM, engine LogEngine, reg Registry, logger *slog.Logger) *auxExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &auxExecutor{
		raft:   r,
		fsm:    fsm,
		engine: engine,
		reg:    reg,
		logger: logger,
		tasks:  make(map[StreamID]*auxTask),
	}
}

// start marks the executor active. Called from onBecomeLeader.
func (a *auxExecutor) start() {
	a.mu.Lock()
	a.running = true
	a.mu.Unlock()
}

// stop orphans every in-flight task: their goroutines keep running to
// completion (the side effect already in motion must not be interrupted
// mid-way) and still hand their result to raft.Apply, which fails on a
// node that is no longer leader; applyCommand logs that failure. No new
// task or respawn is accepted until start. Called from onLoseLeadership.
func (a *auxExecutor) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.running = false
	for id := range a.tasks {
		delete(a.tasks, id)
	}
}

// submit runs phase in its own goroutine, if this node is still the
// effector the executor believes it is; the goroutine's eventual result is
// applied back through raft.Apply as a new command, never returned
// directly to apply().
func (a *auxExecutor) submit(stream StreamID, phase PhaseName, args PhaseArgs) {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	if _, inFlight := a.tasks[stream]; inFlight {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.tasks[stream] = &auxTask{stream: stream, cancel: cancel}
	a.mu.Unlock()

	go a.run(ctx, stream, phase, args)
}

// submitPipeline resubmits a batch of previously-deferred commands,
// exactly as a client would have submitted them just now.
func (a *auxExecutor) submitPipeline(cmds []Command) {
	for _, cmd := range cmds {
		a.applyCommand(cmd)
	}
}

// auxRetryBackoff is the delay before a phase that terminated abnormally
// (panicked, or returned nil) is respawned.
const auxRetryBackoff = 3 * time.Second

func (a *auxExecutor) run(ctx context.Context, stream StreamID, phase PhaseName, args PhaseArgs) {
	defer func() {
		a.mu.Lock()
		delete(a.tasks, stream)
		a.mu.Unlock()
	}()

	reply := a.runPhaseSafely(ctx, phase, args)
	if reply == nil {
		a.respawn(ctx, stream, phase, args)
		return
	}
	a.applyCommand(reply)
}

// runPhaseSafely recovers a panicking phase into a nil reply, so one bad
// phase can't take the whole executor goroutine down with it.
func (a *auxExecutor) runPhaseSafely(ctx context.Context, phase PhaseName, args PhaseArgs) (reply Command) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("aux executor: phase panicked, treating as abnormal termination", "phase", phase, "panic", r)
			reply = nil
		}
	}()
	return runPhase(ctx, a.engine, a.reg, a.logger, phase, args)
}

// respawn re-submits phase after it terminated abnormally (panic, or a nil
// reply such as check_quorum missing its majority), on a timer. The one
// special case is start_new_leader: a half-applied promotion can't simply
// be retried as itself, so respawn restarts the election round from
// check_quorum instead, against the stream's current conf.
func (a *auxExecutor) respawn(ctx context.Context, stream StreamID, phase PhaseName, args PhaseArgs) {
	select {
	case <-ctx.Done():
		return
	default:
	}

	respawnPhase, respawnArgs := phase, args
	if phase == PhaseDoStartLeader {
		conf, ok := a.fsm.streamConf(stream)
		if !ok {
			return
		}
		respawnPhase = PhaseDoCheckQuorum
		respawnArgs = CheckQuorumArgs{Stream: stream, Leader: conf.Leader, Replicas: conf.Replicas}
	}

	time.AfterFunc(auxRetryBackoff, func() {
		a.submit(stream, respawnPhase, respawnArgs)
	})
}

func (a *auxExecutor) applyCommand(cmd Command) {
	data, err := encodeCommand(cmd)
	if err != nil {
		a.logger.Error("aux executor: failed to encode phase reply command", "error", err)
		return
	}
	future := a.raft.Apply(data, 10*time.Second)
	if err := future.Error(); err != nil {
		a.logger.Warn("aux executor: raft apply of phase reply failed, likely lost leadership", "error", err)
	}
}
