package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func collectEvents(t *testing.T, configPath, authPath string) (chan Event, func()) {
	t.Helper()
	events := make(chan Event, 16)
	w, err := NewWatcher(configPath, authPath, func(e Event) { events <- e })
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return events, func() {
		cancel()
		_ = w.Stop()
	}
}

func waitEvent(t *testing.T, events chan Event) Event {
	t.Helper()
	select {
	case e := <-events:
		return e
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return Event{}
	}
}

func TestWatcherReportsConfigWrites(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "openclaw.json")
	authPath := filepath.Join(dir, "agent", "auth-profiles.json")

	events, stop := collectEvents(t, configPath, authPath)
	defer stop()

	if err := os.WriteFile(configPath, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	e := waitEvent(t, events)
	if e.Kind != KindConfig || e.Removed {
		t.Fatalf("event = %+v", e)
	}
}

func TestWatcherIgnoresUnrelatedFiles(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "openclaw.json")
	authPath := filepath.Join(dir, "auth-profiles.json")

	events, stop := collectEvents(t, configPath, authPath)
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(authPath, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	e := waitEvent(t, events)
	if e.Kind != KindAuthProfiles {
		t.Fatalf("expected the auth-profiles event first, got %+v", e)
	}
}

func TestWatcherReportsRemovalWhenFileDoesNotReappear(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "openclaw.json")
	authPath := filepath.Join(dir, "auth-profiles.json")

	if err := os.WriteFile(configPath, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	events, stop := collectEvents(t, configPath, authPath)
	defer stop()

	if err := os.Remove(configPath); err != nil {
		t.Fatal(err)
	}

	e := waitEvent(t, events)
	if e.Kind != KindConfig {
		t.Fatalf("event = %+v", e)
	}
	if !e.Removed {
		t.Fatalf("deletion without a replacement must be reported as removed, got %+v", e)
	}
}

func TestWatcherCoalescesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "openclaw.json")
	authPath := filepath.Join(dir, "auth-profiles.json")

	events, stop := collectEvents(t, configPath, authPath)
	defer stop()

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(configPath, []byte(`{}`), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	waitEvent(t, events)
	select {
	case e := <-events:
		t.Fatalf("burst should produce one event, got extra %+v", e)
	case <-time.After(400 * time.Millisecond):
	}
}
