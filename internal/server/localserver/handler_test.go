package localserver

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestHandler_Execute_Shutdown(t *testing.T) {
	var mu sync.Mutex
	called := false
	done := make(chan struct{})
	h := &Handler{requestStop: func() {
		mu.Lock()
		called = true
		mu.Unlock()
		close(done)
	}}

	var buf bytes.Buffer
	if err := h.Execute(&buf, "shutdown", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "shutdown initiated") {
		t.Errorf("output = %q, want it to mention shutdown initiated", buf.String())
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("requestStop was not invoked")
	}
	mu.Lock()
	defer mu.Unlock()
	if !called {
		t.Error("requestStop was not invoked")
	}
}

func TestHandler_Execute_Reload(t *testing.T) {
	h := &Handler{}
	var buf bytes.Buffer
	if err := h.Execute(&buf, "reload", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "reload not supported") {
		t.Errorf("output = %q, want explanatory reload message", buf.String())
	}
}

func TestHandler_Execute_Drain(t *testing.T) {
	h := &Handler{}
	var buf bytes.Buffer
	if err := h.Execute(&buf, "drain", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "drain not applicable") {
		t.Errorf("output = %q, want explanatory drain message", buf.String())
	}
}

func TestHandler_Execute_UnknownCommand(t *testing.T) {
	h := &Handler{}
	var buf bytes.Buffer
	if err := h.Execute(&buf, "frobnicate", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "unknown command: frobnicate") {
		t.Errorf("output = %q, want unknown-command message", buf.String())
	}
}

func TestHandler_Execute_ShutdownWithNilCallback(t *testing.T) {
	h := &Handler{}
	var buf bytes.Buffer
	if err := h.Execute(&buf, "shutdown", nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.Contains(buf.String(), "shutdown initiated") {
		t.Errorf("output = %q, want it to mention shutdown initiated", buf.String())
	}
}
