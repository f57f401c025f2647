package logengine

import (
	"context"
	"testing"

	"github.com/yndnr/streamcoord-go/internal/cluster"
)

func TestInMemory_StartWriterAndOffset(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()

	h, err := e.StartWriter(ctx, "orders", "node-1", cluster.StreamConfig{Epoch: 3})
	if err != nil {
		t.Fatalf("StartWriter: %v", err)
	}
	if h == "" {
		t.Fatal("expected non-empty handle")
	}

	offset, epoch, err := e.Offset(ctx, h)
	if err != nil {
		t.Fatalf("Offset: %v", err)
	}
	if offset != 0 {
		t.Errorf("offset = %d, want 0", offset)
	}
	if epoch != 3 {
		t.Errorf("epoch = %d, want 3", epoch)
	}
}

func TestInMemory_StartReplicaFailure(t *testing.T) {
	e := NewInMemory()
	e.FailStartReplica = true
	ctx := context.Background()

	if _, err := e.StartReplica(ctx, "orders", "node-2", "node-1"); err == nil {
		t.Fatal("expected error from simulated failure")
	}

	e.FailStartReplica = false
	h, err := e.StartReplica(ctx, "orders", "node-2", "node-1")
	if err != nil {
		t.Fatalf("StartReplica after clearing failure: %v", err)
	}
	if h == "" {
		t.Fatal("expected non-empty handle")
	}
}

func TestInMemory_StopRemovesHandle(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()

	h, _ := e.StartWriter(ctx, "orders", "node-1", cluster.StreamConfig{})
	if err := e.Stop(ctx, h); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, _, err := e.Offset(ctx, h); err == nil {
		t.Fatal("expected error reading offset of stopped handle")
	}

	// Stop on an already-gone handle is a no-op.
	if err := e.Stop(ctx, h); err != nil {
		t.Fatalf("Stop on already-stopped handle: %v", err)
	}
}

func TestInMemory_PromoteToLeader(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()

	h, _ := e.StartReplica(ctx, "orders", "node-2", "node-1")
	e.SetOffset(h, 42, 1)

	newH, err := e.PromoteToLeader(ctx, "orders", h)
	if err != nil {
		t.Fatalf("PromoteToLeader: %v", err)
	}
	if newH == h {
		t.Fatal("expected a new handle after promotion")
	}

	if _, _, err := e.Offset(ctx, h); err == nil {
		t.Fatal("old handle should no longer resolve")
	}

	offset, epoch, err := e.Offset(ctx, newH)
	if err != nil {
		t.Fatalf("Offset of promoted handle: %v", err)
	}
	if offset != 42 {
		t.Errorf("offset = %d, want 42 (carried over from replica)", offset)
	}
	if epoch != 2 {
		t.Errorf("epoch = %d, want 2 (incremented on promotion)", epoch)
	}
}

func TestInMemory_ElectionRanking(t *testing.T) {
	e := NewInMemory()
	ctx := context.Background()

	h1, _ := e.StartReplica(ctx, "orders", "node-1", "node-0")
	h2, _ := e.StartReplica(ctx, "orders", "node-2", "node-0")
	e.SetOffset(h1, 10, 1)
	e.SetOffset(h2, 20, 1)

	o1, _, _ := e.Offset(ctx, h1)
	o2, _, _ := e.Offset(ctx, h2)
	if !(o2 > o1) {
		t.Fatalf("expected node-2's offset (%d) to outrank node-1's (%d)", o2, o1)
	}
}
