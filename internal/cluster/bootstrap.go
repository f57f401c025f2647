package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// StartupLock arbitrates which node in a freshly-booting fleet gets to call
// raft.BootstrapCluster. The original design note asked for "a global named
// lock"; we resolve that open question by leasing a key in the durable
// Registry instead (see registry.Badger.AcquireLock) — it's already present
// on every node, already transactional, and needs no extra moving part.
type StartupLock interface {
	// Acquire attempts to take the named lock for ttl, returning whether it
	// was acquired. A lock held by a process that died is reclaimable once
	// its ttl lapses; acquire never blocks.
	Acquire(ctx context.Context, name string, holder Node, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string, holder Node) error
}

// BootstrapConfig controls how a coordinator node joins or forms its Raft
// cluster on startup.
type BootstrapConfig struct {
	Self       Node
	LockName   string
	LockTTL    time.Duration
	Peers      []string
	Logger     *slog.Logger
}

// BootstrapDecision reports whether this node should call BootstrapCluster
// itself (Bootstrap), join an existing cluster by dialing a seed (Join), or
// simply start its Raft node and wait to be added as a voter by the
// current leader's membership tick (Wait). Exactly one node across a fresh
// fleet should bootstrap; the lock makes that a property of acquisition
// order rather than a precomputed leader.
type BootstrapDecision string

const (
	DecisionBootstrap BootstrapDecision = "bootstrap"
	DecisionJoin       BootstrapDecision = "join"
	DecisionWait       BootstrapDecision = "wait"
)

// DecideBootstrap is called by main before constructing a Coordinator's
// Config, to resolve its Bootstrap field. Peers configured via gossip
// seeds always imply Join (the seeds will gossip this node into the
// existing fleet); otherwise the StartupLock arbitrates which of a set of
// simultaneously-booting, seedless nodes gets to bootstrap.
func DecideBootstrap(ctx context.Context, lock StartupLock, cfg BootstrapConfig) (BootstrapDecision, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if len(cfg.Peers) > 0 {
		return DecisionJoin, nil
	}

	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	acquired, err := lock.Acquire(ctx, cfg.LockName, cfg.Self, ttl)
	if err != nil {
		return "", fmt.Errorf("decide bootstrap: acquire startup lock: %w", err)
	}
	if !acquired {
		logger.Info("startup lock held by another node, waiting to be added as a voter", "node", cfg.Self)
		return DecisionWait, nil
	}

	logger.Info("acquired startup lock, bootstrapping raft cluster", "node", cfg.Self)
	return DecisionBootstrap, nil
}
