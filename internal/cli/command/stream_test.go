package command

import (
	"net/http"
	"testing"
)

func TestStreamCommand(t *testing.T) {
	cmd := StreamCommand()
	if cmd == nil {
		t.Fatal("StreamCommand returned nil")
	}

	if cmd.Name != "stream" {
		t.Errorf("Name = %q, want %q", cmd.Name, "stream")
	}

	subNames := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subNames[sub.Name] = true
	}

	for _, name := range []string{"status", "create", "delete", "add-replica", "remove-replica", "subscribe", "unsubscribe"} {
		if !subNames[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestStreamStatus_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{
			"streams": []map[string]any{
				{"stream": "orders", "leader": "node-1", "replicas": []string{"node-2", "node-3"}, "epoch": 2},
			},
		})
	})

	ctx := testContext(server, "--output", "json")
	if err := streamStatus(ctx); err != nil {
		t.Errorf("streamStatus() error = %v", err)
	}
}

func TestStreamCreate_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		jsonResponse(w, http.StatusAccepted, map[string]any{
			"stream": "orders", "leader": "node-1", "epoch": 0,
		})
	})

	ctx := makeTestContext(server, map[string]any{
		"leader": "node-1",
	}, []string{"orders"})

	if err := streamCreate(ctx); err != nil {
		t.Errorf("streamCreate() error = %v", err)
	}
}

func TestStreamCreate_MissingStream(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	ctx := testContext(server)
	if err := streamCreate(ctx); err == nil {
		t.Error("streamCreate() expected error for missing stream name")
	}
}

func TestStreamDelete_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	ctx := makeTestContext(server, map[string]any{}, []string{"orders"})
	if err := streamDelete(ctx); err != nil {
		t.Errorf("streamDelete() error = %v", err)
	}
}

func TestStreamDelete_NotLeader(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams/orders", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusConflict, "NOT_LEADER", "this node is not the raft leader")
	})

	ctx := makeTestContext(server, map[string]any{}, []string{"orders"})
	if err := streamDelete(ctx); err == nil {
		t.Error("streamDelete() expected error when not leader")
	}
}

func TestStreamAddReplica_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams/orders/replicas", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	ctx := makeTestContext(server, map[string]any{}, []string{"orders", "node-2"})
	if err := streamAddReplica(ctx); err != nil {
		t.Errorf("streamAddReplica() error = %v", err)
	}
}

func TestStreamAddReplica_MissingArgs(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	ctx := makeTestContext(server, map[string]any{}, []string{"orders"})
	if err := streamAddReplica(ctx); err == nil {
		t.Error("streamAddReplica() expected error for missing node arg")
	}
}

func TestStreamRemoveReplica_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams/orders/replicas/node-2", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})

	ctx := makeTestContext(server, map[string]any{}, []string{"orders", "node-2"})
	if err := streamRemoveReplica(ctx); err != nil {
		t.Errorf("streamRemoveReplica() error = %v", err)
	}
}

func TestStreamSubscribe_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams/orders/subscribers", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		jsonResponse(w, http.StatusCreated, map[string]string{"subscriber": "01HZX0000000000000000000"})
	})

	ctx := makeTestContext(server, map[string]any{}, []string{"orders"})
	if err := streamSubscribe(ctx); err != nil {
		t.Errorf("streamSubscribe() error = %v", err)
	}
}

func TestStreamUnsubscribe_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/streams/orders/subscribers/sub-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := makeTestContext(server, map[string]any{}, []string{"orders", "sub-1"})
	if err := streamUnsubscribe(ctx); err != nil {
		t.Errorf("streamUnsubscribe() error = %v", err)
	}
}

func TestStreamUnsubscribe_MissingArgs(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	ctx := makeTestContext(server, map[string]any{}, []string{"orders"})
	if err := streamUnsubscribe(ctx); err == nil {
		t.Error("streamUnsubscribe() expected error for missing subscriber arg")
	}
}
