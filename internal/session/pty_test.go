package session

import (
	"strings"
	"testing"
	"time"
)

func TestPtyExistsBeforeCreate(t *testing.T) {
	b := NewPtyBackend("/bin/sh")
	exists, err := b.Exists("wk-missing")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if exists {
		t.Error("unknown session should not exist")
	}
}

func TestPtySendToMissingSession(t *testing.T) {
	b := NewPtyBackend("/bin/sh")
	if err := b.Send("wk-missing", "echo hi\n"); err == nil {
		t.Error("Send to a missing session should error")
	}
}

func TestPtyDestroyMissingSession(t *testing.T) {
	b := NewPtyBackend("/bin/sh")
	if err := b.Destroy("wk-missing"); err == nil {
		t.Error("Destroy of a missing session should error")
	}
}

func TestPtyCreateRejectsInvalidName(t *testing.T) {
	b := NewPtyBackend("/bin/sh")
	if err := b.Create("bad name", ""); err == nil {
		t.Error("Create should reject names tmux-style validation rejects")
	}
}

func TestPtyCreateSendDestroy(t *testing.T) {
	b := NewPtyBackend("/bin/sh")

	if err := b.Create("wk-test", t.TempDir()); err != nil {
		t.Skipf("cannot start pty shell in this environment: %v", err)
	}
	defer b.Destroy("wk-test")

	exists, err := b.Exists("wk-test")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !exists {
		t.Fatal("session should exist after Create")
	}

	if err := b.Send("wk-test", "true\n"); err != nil {
		t.Errorf("Send: %v", err)
	}

	state, err := b.ActivityState("wk-test")
	if err != nil {
		t.Fatalf("ActivityState: %v", err)
	}
	if state != StateActive {
		t.Errorf("fresh session should be active, got %v", state)
	}

	if err := b.Destroy("wk-test"); err != nil {
		t.Errorf("Destroy: %v", err)
	}

	// Give the exit watcher a moment.
	time.Sleep(50 * time.Millisecond)
	exists, _ = b.Exists("wk-test")
	if exists {
		t.Error("session should not exist after Destroy")
	}
}

func TestPtyCreateReplacesExisting(t *testing.T) {
	b := NewPtyBackend("/bin/sh")

	if err := b.Create("wk-reuse", ""); err != nil {
		t.Skipf("cannot start pty shell in this environment: %v", err)
	}
	defer b.Destroy("wk-reuse")

	first := b.sessions["wk-reuse"]
	if err := b.Create("wk-reuse", ""); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if b.sessions["wk-reuse"] == first {
		t.Error("Create should replace the prior session")
	}
}

func TestPtyShellFallback(t *testing.T) {
	b := NewPtyBackend("")
	if strings.TrimSpace(b.shell) == "" {
		t.Error("backend should fall back to a shell")
	}
}
