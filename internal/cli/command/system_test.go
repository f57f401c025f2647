package command

import (
	"net/http"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestSystemCommand(t *testing.T) {
	cmd := SystemCommand()
	if cmd == nil {
		t.Fatal("SystemCommand returned nil")
	}

	if cmd.Name != "system" {
		t.Errorf("Name = %q, want %q", cmd.Name, "system")
	}

	if len(cmd.Aliases) == 0 || cmd.Aliases[0] != "sys" {
		t.Error("expected alias 'sys'")
	}

	subNames := make(map[string]bool)
	for _, sub := range cmd.Subcommands {
		subNames[sub.Name] = true
	}

	requiredSubs := []string{"status", "health", "ready"}
	for _, name := range requiredSubs {
		if !subNames[name] {
			t.Errorf("missing subcommand: %s", name)
		}
	}
}

func TestSystemCommand_StatusAction(t *testing.T) {
	cmd := SystemCommand()

	var statusCmd *cli.Command
	for _, sub := range cmd.Subcommands {
		if sub.Name == "status" {
			statusCmd = sub
			break
		}
	}

	if statusCmd == nil {
		t.Fatal("status subcommand not found")
	}
	if statusCmd.Action == nil {
		t.Error("status command should have an action")
	}
}

func TestSystemCommand_HealthAction(t *testing.T) {
	cmd := SystemCommand()

	var healthCmd *cli.Command
	for _, sub := range cmd.Subcommands {
		if sub.Name == "health" {
			healthCmd = sub
			break
		}
	}

	if healthCmd == nil {
		t.Fatal("health subcommand not found")
	}
	if healthCmd.Action == nil {
		t.Error("health command should have an action")
	}
}

func TestSystemStatus_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]any{
			"streams": []map[string]any{
				{"stream": "orders", "leader": "node-1", "replicas": []string{"node-2"}, "epoch": 3},
			},
		})
	})

	ctx := testContext(server, "--output", "json")
	if err := systemStatus(ctx); err != nil {
		t.Errorf("systemStatus() error = %v", err)
	}
}

func TestSystemStatus_TableFormat(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]any{"streams": []map[string]any{}})
	})

	ctx := testContext(server, "--output", "table")
	if err := systemStatus(ctx); err != nil {
		t.Errorf("systemStatus() table format error = %v", err)
	}
}

func TestSystemStatus_ServerError(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/v1/status", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "server error")
	})

	ctx := testContext(server, "--output", "json")
	if err := systemStatus(ctx); err == nil {
		t.Error("systemStatus() expected error for server error")
	}
}

func TestSystemHealth_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			errorResponse(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	ctx := testContext(server, "--output", "json")
	if err := systemHealth(ctx); err != nil {
		t.Errorf("systemHealth() error = %v", err)
	}
}

func TestSystemHealth_TableFormat(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	ctx := testContext(server, "--output", "table")
	if err := systemHealth(ctx); err != nil {
		t.Errorf("systemHealth() table format error = %v", err)
	}
}

func TestSystemHealth_Unhealthy(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "unhealthy"})
	})

	ctx := testContext(server, "--output", "table")
	if err := systemHealth(ctx); err != nil {
		t.Errorf("systemHealth() should not error for unhealthy status: %v", err)
	}
}

func TestSystemReady_Success(t *testing.T) {
	server := newMockServer()
	defer server.Close()

	server.handle("/ready", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	ctx := testContext(server, "--output", "table")
	if err := systemReady(ctx); err != nil {
		t.Errorf("systemReady() error = %v", err)
	}
}
