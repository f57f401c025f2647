package localserver

import (
	"bufio"
	"net"
	"testing"
	"time"
)

func TestServer_HandleConnection_DispatchesCommand(t *testing.T) {
	client, conn := net.Pipe()
	defer client.Close()

	s := &Server{handler: &Handler{}}
	go s.handleConnection(conn)

	if _, err := client.Write([]byte("drain\n")); err != nil {
		t.Fatalf("write command: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if line != "drain not applicable: stream placement is Raft-driven, not connection-based\n" {
		t.Errorf("response = %q", line)
	}
}

func TestServer_HandleConnection_IgnoresEmptyLine(t *testing.T) {
	client, conn := net.Pipe()
	defer client.Close()

	s := &Server{handler: &Handler{}}
	done := make(chan struct{})
	go func() {
		s.handleConnection(conn)
		close(done)
	}()

	if _, err := client.Write([]byte("\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handleConnection did not return for a blank line")
	}
}

func TestServer_HandleConnection_ExtraArgsDontBreakDispatch(t *testing.T) {
	client, conn := net.Pipe()
	defer client.Close()

	s := &Server{handler: &Handler{}}
	go s.handleConnection(conn)

	if _, err := client.Write([]byte("reload extra args here\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	line, err := bufio.NewReader(client).ReadString('\n')
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if line != "reload not supported: cluster topology is fixed at startup\n" {
		t.Errorf("response = %q, want reload message despite extra args", line)
	}
}
