// Package config defines the server configuration structure.
package config

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

type nopEngine struct{}

func (nopEngine) StartWriter(context.Context, cluster.StreamID, cluster.Node, cluster.StreamConfig) (cluster.Handle, error) {
	return "", nil
}
func (nopEngine) StartReplica(context.Context, cluster.StreamID, cluster.Node, cluster.Node) (cluster.Handle, error) {
	return "", nil
}
func (nopEngine) Stop(context.Context, cluster.Handle) error { return nil }
func (nopEngine) Offset(context.Context, cluster.Handle) (int64, int, error) {
	return 0, 0, nil
}
func (nopEngine) PromoteToLeader(context.Context, cluster.StreamID, cluster.Handle) (cluster.Handle, error) {
	return "", nil
}

type nopRegistry struct{}

func (nopRegistry) Declare(context.Context, cluster.StreamConfig) error { return nil }
func (nopRegistry) Update(context.Context, cluster.StreamConfig) error { return nil }
func (nopRegistry) Delete(context.Context, cluster.StreamID) error     { return nil }
func (nopRegistry) Get(context.Context, cluster.StreamID) (cluster.StreamConfig, bool, error) {
	return cluster.StreamConfig{}, false, nil
}
func (nopRegistry) List(context.Context) ([]cluster.StreamConfig, error) { return nil, nil }

type nopLock struct{}

func (nopLock) Acquire(context.Context, string, cluster.Node, time.Duration) (bool, error) {
	return true, nil
}
func (nopLock) Release(context.Context, string, cluster.Node) error { return nil }

func TestToClusterConfig_ValidConfig(t *testing.T) {
	logger := slog.Default()

	cfg := &ServerConfig{
		Cluster: ClusterSection{
			NodeID:     "test-node-01",
			RaftAddr:   "127.0.0.1:5343",
			GossipAddr: "127.0.0.1",
			GossipPort: 5344,
			Bootstrap:  true,
			Seeds:      []string{"127.0.0.1:5344", "127.0.0.1:5345"},
			DataDir:    "/var/lib/streamcoordd/cluster",
		},
	}

	result, err := ToClusterConfig(cfg, nopEngine{}, nopRegistry{}, nopLock{}, logger)
	if err != nil {
		t.Fatalf("ToClusterConfig failed: %v", err)
	}

	if result.NodeID != "test-node-01" {
		t.Errorf("NodeID = %q, want %q", result.NodeID, "test-node-01")
	}
	if result.BindAddr != "127.0.0.1:5343" {
		t.Errorf("BindAddr = %q, want %q", result.BindAddr, "127.0.0.1:5343")
	}
	if result.Discovery.BindAddr != "127.0.0.1" {
		t.Errorf("Discovery.BindAddr = %q, want %q", result.Discovery.BindAddr, "127.0.0.1")
	}
	if result.Discovery.BindPort != 5344 {
		t.Errorf("Discovery.BindPort = %d, want %d", result.Discovery.BindPort, 5344)
	}
	if !result.Bootstrap {
		t.Error("Bootstrap should be true")
	}
	if len(result.Discovery.SeedNodes) != 2 {
		t.Errorf("SeedNodes length = %d, want 2", len(result.Discovery.SeedNodes))
	}
	if result.DataDir != "/var/lib/streamcoordd/cluster" {
		t.Errorf("DataDir = %q, want %q", result.DataDir, "/var/lib/streamcoordd/cluster")
	}
	if result.Logger == nil {
		t.Error("Logger should not be nil")
	}
}

func TestToClusterConfig_AutoGenerateNodeID(t *testing.T) {
	logger := slog.Default()

	cfg := &ServerConfig{
		Cluster: ClusterSection{
			NodeID:     "",
			RaftAddr:   "127.0.0.1:5343",
			GossipAddr: "127.0.0.1",
			GossipPort: 5344,
			Bootstrap:  true,
			DataDir:    "/var/lib/streamcoordd/cluster",
		},
	}

	result, err := ToClusterConfig(cfg, nopEngine{}, nopRegistry{}, nopLock{}, logger)
	if err != nil {
		t.Fatalf("ToClusterConfig failed: %v", err)
	}

	if result.NodeID == "" {
		t.Error("NodeID should have been auto-generated")
	}
	if !strings.HasPrefix(result.NodeID, "scnode-") {
		t.Errorf("auto-generated NodeID %q should start with 'scnode-'", result.NodeID)
	}
}

func TestGenerateNodeID_Format(t *testing.T) {
	nodeID, err := generateNodeID()
	if err != nil {
		t.Fatalf("generateNodeID failed: %v", err)
	}

	if !strings.HasPrefix(nodeID, "scnode-") {
		t.Errorf("NodeID %q should start with 'scnode-'", nodeID)
	}
	if len(nodeID) != 23 {
		t.Errorf("NodeID length = %d, want 23", len(nodeID))
	}

	hexPart := nodeID[7:]
	for i, c := range hexPart {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("Character at position %d is not hex: %c", i, c)
		}
	}
}

func TestGenerateNodeID_Uniqueness(t *testing.T) {
	generated := make(map[string]bool)
	iterations := 100

	for i := 0; i < iterations; i++ {
		nodeID, err := generateNodeID()
		if err != nil {
			t.Fatalf("generateNodeID failed on iteration %d: %v", i, err)
		}
		if generated[nodeID] {
			t.Errorf("Duplicate NodeID generated: %s", nodeID)
		}
		generated[nodeID] = true
	}

	if len(generated) != iterations {
		t.Errorf("Generated %d unique IDs, want %d", len(generated), iterations)
	}
}
