package cluster

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hashicorp/raft"
)

// membershipReconciler periodically diffs the live fleet (from NodeSource,
// i.e. gossip) against the Raft voter configuration and issues AddVoter/
// RemoveServer calls to converge them. This is the
// coordinator's own cluster resizing, distinct from per-stream replica
// placement, and runs only on the leader.
type membershipReconciler struct {
	raft   *raft.Raft
	source NodeSource
	logger *slog.Logger

	tickInterval time.Duration
	inFlight     atomic.Bool

	stopCh chan struct{}
	doneCh chan struct{}
}

func newMembershipReconciler(r *raft.Raft, source NodeSource, tickInterval time.Duration, logger *slog.Logger) *membershipReconciler {
	if logger == nil {
		logger = slog.Default()
	}
	if tickInterval <= 0 {
		tickInterval = 5 * time.Second
	}
	return &membershipReconciler{
		raft:         r,
		source:       source,
		logger:       logger,
		tickInterval: tickInterval,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
	}
}

func (m *membershipReconciler) start() {
	// Fresh channels each time: stop closes both, and leadership may return.
	m.stopCh = make(chan struct{})
	m.doneCh = make(chan struct{})
	go m.loop()
}

func (m *membershipReconciler) stop() {
	close(m.stopCh)
	<-m.doneCh
}

func (m *membershipReconciler) loop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick is guarded by inFlight so a reconciliation that takes longer than
// tickInterval (e.g. a slow AddVoter round-trip) never overlaps itself.
func (m *membershipReconciler) tick() {
	if m.raft.State() != raft.Leader {
		return
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer m.inFlight.Store(false)

	live := make(map[raft.ServerID]Node)
	for _, n := range m.source.Members() {
		live[raft.ServerID(n)] = n
	}

	cfgFuture := m.raft.GetConfiguration()
	if err := cfgFuture.Error(); err != nil {
		m.logger.Error("membership tick: failed to read raft configuration", "error", err)
		return
	}

	voters := make(map[raft.ServerID]struct{})
	for _, srv := range cfgFuture.Configuration().Servers {
		voters[srv.ID] = struct{}{}
	}

	for id, n := range live {
		if _, ok := voters[id]; ok {
			continue
		}
		m.logger.Info("membership tick: adding voter", "node", n)
		if err := m.raft.AddVoter(id, raft.ServerAddress(n), 0, 0).Error(); err != nil {
			m.logger.Error("membership tick: AddVoter failed", "node", n, "error", err)
		}
	}

	for id := range voters {
		if _, ok := live[id]; ok {
			continue
		}
		m.logger.Info("membership tick: removing voter no longer in fleet", "node", id)
		if err := m.raft.RemoveServer(id, 0, 0).Error(); err != nil {
			m.logger.Error("membership tick: RemoveServer failed", "node", id, "error", err)
		}
	}
}
