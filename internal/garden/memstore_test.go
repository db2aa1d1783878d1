package garden

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// memState is the committed state of memStore.
type memState struct {
	plants  map[string]core.CurrentPlant
	queues  map[string][]string
	archive map[string][]core.CompletedPlant
}

func (s memState) clone() memState {
	c := memState{
		plants:  make(map[string]core.CurrentPlant, len(s.plants)),
		queues:  make(map[string][]string, len(s.queues)),
		archive: make(map[string][]core.CompletedPlant, len(s.archive)),
	}
	for k, v := range s.plants {
		c.plants[k] = v
	}
	for k, v := range s.queues {
		c.queues[k] = slices.Clone(v)
	}
	for k, v := range s.archive {
		c.archive[k] = slices.Clone(v)
	}
	return c
}

// memStore is an in-memory Store whose transactions work on a copy that is
// swapped in on success.
type memStore struct {
	mu    sync.Mutex
	state memState

	conflicts    int
	appendErr    error
	saveQueueErr error
	readQueueErr error
}

func newMemStore() *memStore {
	return &memStore{state: memState{
		plants:  map[string]core.CurrentPlant{},
		queues:  map[string][]string{},
		archive: map[string][]core.CompletedPlant{},
	}}
}

func (m *memStore) Update(ctx context.Context, fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conflicts > 0 {
		m.conflicts--
		return core.ErrConflict
	}
	tx := &memTx{store: m, state: m.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	m.state = tx.state
	return nil
}

func (m *memStore) CurrentPlant(ctx context.Context, userID string) (core.CurrentPlant, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.state.plants[userID]
	return p, ok, nil
}

func (m *memStore) CompletedPlants(ctx context.Context, userID string) ([]core.CompletedPlant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.state.archive[userID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CompletedAt.After(out[j].CompletedAt) })
	return out, nil
}

func (m *memStore) setPlant(p core.CurrentPlant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.plants[p.UserID] = p
}

func (m *memStore) snapshot() memState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

type memTx struct {
	store *memStore
	state memState
}

func (tx *memTx) CurrentPlant(ctx context.Context, userID string) (core.CurrentPlant, bool, error) {
	p, ok := tx.state.plants[userID]
	return p, ok, nil
}

func (tx *memTx) SaveCurrentPlant(ctx context.Context, plant core.CurrentPlant) error {
	var stored int64
	if p, ok := tx.state.plants[plant.UserID]; ok {
		stored = p.Revision
	}
	if stored != plant.Revision {
		return core.ErrConflict
	}
	plant.Revision++
	tx.state.plants[plant.UserID] = plant
	return nil
}

func (tx *memTx) SeedQueue(ctx context.Context, userID string) ([]string, error) {
	if tx.store.readQueueErr != nil {
		return nil, tx.store.readQueueErr
	}
	return slices.Clone(tx.state.queues[userID]), nil
}

func (tx *memTx) SaveSeedQueue(ctx context.Context, userID string, plantIDs []string) error {
	if tx.store.saveQueueErr != nil {
		return tx.store.saveQueueErr
	}
	tx.state.queues[userID] = slices.Clone(plantIDs)
	return nil
}

func (tx *memTx) AppendCompletedPlant(ctx context.Context, record core.CompletedPlant) error {
	if tx.store.appendErr != nil {
		return tx.store.appendErr
	}
	tx.state.archive[record.UserID] = append(tx.state.archive[record.UserID], record)
	return nil
}

// memCatalog is a fixed Catalog with injectable failures.
type memCatalog struct {
	types   []core.PlantType
	listErr error
	getErr  error
}

func (c *memCatalog) ActivePlantTypes(ctx context.Context) ([]core.PlantType, error) {
	if c.listErr != nil {
		return nil, c.listErr
	}
	out := make([]core.PlantType, 0, len(c.types))
	for _, pt := range c.types {
		if pt.IsActive {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (c *memCatalog) PlantType(ctx context.Context, id string) (core.PlantType, error) {
	if c.getErr != nil {
		return core.PlantType{}, c.getErr
	}
	for _, pt := range c.types {
		if pt.ID == id {
			return pt, nil
		}
	}
	return core.PlantType{}, core.ErrNotFound
}

func testCatalog() *memCatalog {
	return &memCatalog{types: []core.PlantType{
		{ID: "A", Name: "Golden Fern", PointsToBloom: 10, IsActive: true},
		{ID: "B", Name: "Rainbow Daisy", PointsToBloom: 18, IsActive: true},
		{ID: "C", Name: "Cosmic Rose", PointsToBloom: 30, IsActive: true},
		{ID: "retired", Name: "Old Weed", PointsToBloom: 5, IsActive: false},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

// testEngine builds an engine over fresh in-memory fakes.
func testEngine(t *testing.T, opts ...Option) (*Engine, *memStore, *memCatalog) {
	t.Helper()
	store := newMemStore()
	catalog := testCatalog()
	base := []Option{WithLogger(discardLogger()), WithClock(func() time.Time { return fixedNow })}
	return NewEngine(store, catalog, append(base, opts...)...), store, catalog
}
