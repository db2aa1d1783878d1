package storage

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/garden"
)

// DefaultDebounce is how long the database files must be quiet before a
// change is re-read.
const DefaultDebounce = 100 * time.Millisecond

var _ garden.Subscriber = (*Watcher)(nil)

// Watcher streams plant snapshots by watching the database files for writes.
// Any process writing the same database file is observed.
type Watcher struct {
	store    *Store
	dbPath   string
	debounce time.Duration
	logger   *slog.Logger
}

// NewWatcher returns a Watcher over the database at dbPath.
func NewWatcher(store *Store, dbPath string, logger *slog.Logger) (*Watcher, error) {
	if err := store.check("new watcher"); err != nil {
		return nil, err
	}
	if dbPath == "" {
		return nil, fmt.Errorf("new watcher: empty db path")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{store: store, dbPath: dbPath, debounce: DefaultDebounce, logger: logger}, nil
}

// SetDebounce changes the quiet period. Non-positive values are ignored.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Subscribe emits the user's current plant immediately and again whenever
// its revision changes. The channel is closed when ctx is done.
func (w *Watcher) Subscribe(ctx context.Context, userID string) (<-chan core.PlantSnapshot, error) {
	if userID == "" {
		return nil, fmt.Errorf("subscribe: empty user id")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("subscribe: new watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(w.dbPath)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("subscribe: watch %s: %w", filepath.Dir(w.dbPath), err)
	}

	first, err := w.snapshot(ctx, userID)
	if err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	ch := make(chan core.PlantSnapshot, 4)
	ch <- first
	go w.loop(ctx, fw, userID, first, ch)
	return ch, nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, userID string, last core.PlantSnapshot, ch chan<- core.PlantSnapshot) {
	defer close(ch)
	defer func() { _ = fw.Close() }()

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	var pending time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if !w.isDBFile(event.Name) {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.debounce {
				continue
			}
			pending = time.Time{}

			snap, err := w.snapshot(ctx, userID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.logger.Warn("storage: re-read plant after change", "user", userID, "err", err)
				continue
			}
			if snap.Exists == last.Exists && snap.Plant.Revision == last.Plant.Revision {
				continue
			}
			last = snap
			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.logger.Debug("storage: watch error", "err", err)
		}
	}
}

// isDBFile matches the database file and its -wal and -shm companions.
func (w *Watcher) isDBFile(name string) bool {
	base := filepath.Base(w.dbPath)
	return strings.HasPrefix(filepath.Base(name), base)
}

func (w *Watcher) snapshot(ctx context.Context, userID string) (core.PlantSnapshot, error) {
	plant, ok, err := w.store.CurrentPlant(ctx, userID)
	if err != nil {
		return core.PlantSnapshot{}, err
	}
	return core.PlantSnapshot{UserID: userID, Plant: plant, Exists: ok, At: w.store.now().UTC()}, nil
}
