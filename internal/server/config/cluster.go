// Package config defines the server configuration structure.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

// ToClusterConfig converts ServerConfig to cluster.Config.
//
// This handles default value population, NodeID generation, and field
// mapping; engine/registry/lock are supplied by the caller (main.go) since
// they depend on concrete collaborator implementations the config package
// has no business constructing.
func ToClusterConfig(cfg *ServerConfig, engine cluster.LogEngine, registry cluster.Registry, lock cluster.StartupLock, logger *slog.Logger) (cluster.Config, error) {
	if cfg == nil {
		return cluster.Config{}, fmt.Errorf("server config is nil")
	}

	nodeID := cfg.Cluster.NodeID
	if nodeID == "" {
		generated, err := generateNodeID()
		if err != nil {
			return cluster.Config{}, fmt.Errorf("generate node ID: %w", err)
		}
		nodeID = generated
		logger.Info("generated cluster node ID", "node_id", nodeID)
	}

	return cluster.Config{
		NodeID:    nodeID,
		BindAddr:  cfg.Cluster.RaftAddr,
		DataDir:   cfg.Cluster.DataDir,
		Bootstrap: cfg.Cluster.Bootstrap,
		Discovery: cluster.DiscoveryConfig{
			NodeID:    nodeID,
			ClusterID: "streamcoord",
			BindAddr:  cfg.Cluster.GossipAddr,
			BindPort:  cfg.Cluster.GossipPort,
			RaftAddr:  cfg.Cluster.RaftAddr,
			SeedNodes: cfg.Cluster.Seeds,
			Logger:    logger,
		},
		TickInterval:    cfg.Cluster.tickInterval(),
		ElectionTimeout: cfg.Cluster.electionTimeout(),
		RestartTimeout:  cfg.Cluster.restartTimeout(),
		StartupLockName: cfg.Cluster.StartupLockName,
		Engine:          engine,
		Registry:        registry,
		Lock:            lock,
		Logger:          logger,
	}, nil
}

// generateNodeID generates a unique node identifier.
//
// Format: scnode-<16 hex chars> (e.g., "scnode-a1b2c3d4e5f67890")
func generateNodeID() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return "scnode-" + hex.EncodeToString(buf), nil
}
