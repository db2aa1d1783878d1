package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/garden"
	"github.com/jacksakers/ProjectReflect/internal/storage"
)

func recv(t *testing.T, ch <-chan core.PlantSnapshot) core.PlantSnapshot {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed")
		}
		return snap
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for snapshot")
	}
	return core.PlantSnapshot{}
}

func TestWatcher_EmitsOnRevisionChange(t *testing.T) {
	st, dbPath := openTestStore(t)
	seedCatalog(t, st)

	w, err := storage.NewWatcher(st, dbPath, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	w.SetDebounce(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := w.Subscribe(ctx, "u1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if first := recv(t, ch); first.Exists {
		t.Fatalf("initial snapshot = %+v, want no plant", first)
	}

	engine := garden.NewEngine(st, st)
	if _, err := engine.Initialize(ctx, "u1"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	snap := recv(t, ch)
	if !snap.Exists || snap.Plant.Revision != 1 {
		t.Fatalf("snapshot after initialize = %+v", snap)
	}

	if _, err := engine.AddPoints(ctx, "u1", 1); err != nil {
		t.Fatalf("add points: %v", err)
	}
	snap = recv(t, ch)
	if snap.Plant.CurrentPoints != 1 || snap.Plant.Revision != 2 {
		t.Fatalf("snapshot after add = %+v", snap)
	}

	cancel()
	for range ch {
	}
}

func TestWatcher_RejectsEmptyUser(t *testing.T) {
	st, dbPath := openTestStore(t)
	w, err := storage.NewWatcher(st, dbPath, nil)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if _, err := w.Subscribe(context.Background(), ""); err == nil {
		t.Fatalf("expected error")
	}
}
