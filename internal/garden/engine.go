package garden

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

const (
	// DefaultPointsToBloom is the threshold used when the catalog cannot supply one.
	DefaultPointsToBloom = 10

	// DefaultPlantID is assigned when the catalog cannot be listed at all.
	DefaultPlantID = "default_plant"

	// UnknownPlantName is archived when the plant type's name cannot be read.
	UnknownPlantName = "Unknown Plant"

	defaultConflictRetries = 3

	// lockStripes is the number of mutexes users are hashed onto.
	lockStripes = 64
)

// Outcome describes the plant state after an engine operation.
type Outcome struct {
	Plant core.CurrentPlant

	// Completed is set when the operation bloomed the previous plant.
	Completed *core.CompletedPlant

	// Created is set when a new plant was assigned.
	Created bool

	// Degraded is set when a catalog read failed and defaults were used.
	Degraded bool
}

// Bloomed reports whether the operation completed a plant.
func (o Outcome) Bloomed() bool { return o.Completed != nil }

// Status is the derived view of a user's current plant.
type Status struct {
	Plant          core.CurrentPlant
	Exists         bool
	PlantType      core.PlantType
	PlantTypeKnown bool
	Stage          core.Stage
	Progress       int
	PointsToNext   int
}

// Engine applies point awards to each user's current plant.
type Engine struct {
	store            Store
	catalog          Catalog
	queue            *SeedQueue
	logger           *slog.Logger
	now              func() time.Time
	defaultThreshold int
	retries          int
	rng              *rand.Rand

	locks [lockStripes]sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for degraded-mode warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithDefaultThreshold sets the fallback bloom threshold. Non-positive values are ignored.
func WithDefaultThreshold(points int) Option {
	return func(e *Engine) {
		if points > 0 {
			e.defaultThreshold = points
		}
	}
}

// WithRand sets the random source used to shuffle seed queue refills.
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

// WithConflictRetries sets how often a compare-and-swap conflict is retried.
func WithConflictRetries(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.retries = n
		}
	}
}

// NewEngine returns an engine over store and catalog.
func NewEngine(store Store, catalog Catalog, opts ...Option) *Engine {
	e := &Engine{
		store:            store,
		catalog:          catalog,
		logger:           slog.Default(),
		now:              time.Now,
		defaultThreshold: DefaultPointsToBloom,
		retries:          defaultConflictRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.queue = NewSeedQueue(store, catalog, e.rng)
	return e
}

// lock serializes operations for one user so awards apply in call order.
// Users share a fixed set of stripes, so the lock set never grows.
func (e *Engine) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	l := &e.locks[h.Sum32()%lockStripes]
	l.Lock()
	return l.Unlock
}

// Initialize assigns a first plant if the user has none. It is a no-op
// returning the existing plant otherwise.
func (e *Engine) Initialize(ctx context.Context, userID string) (Outcome, error) {
	if userID == "" {
		return Outcome{}, fmt.Errorf("initialize: empty user id")
	}
	unlock := e.lock(userID)
	defer unlock()

	var out Outcome
	err := e.update(ctx, func(tx Tx) error {
		out = Outcome{}
		plant, ok, err := tx.CurrentPlant(ctx, userID)
		if err != nil {
			return fmt.Errorf("read current plant: %w: %w", core.ErrPersistence, err)
		}
		if ok {
			out.Plant = plant
			return nil
		}

		plant, degraded, err := e.assign(ctx, tx, userID, 0)
		if err != nil {
			return err
		}
		out.Plant = plant
		out.Created = true
		out.Degraded = degraded
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("initialize: %w", err)
	}
	return out, nil
}

// AddPoints awards delta points to the user's plant. Reaching the threshold
// archives the plant with its final total, overshoot included, and assigns
// the next one from the seed queue in the same transaction.
func (e *Engine) AddPoints(ctx context.Context, userID string, delta int) (Outcome, error) {
	if delta <= 0 {
		return Outcome{}, fmt.Errorf("add points: delta %d: %w", delta, core.ErrInvalidDelta)
	}
	if userID == "" {
		return Outcome{}, fmt.Errorf("add points: empty user id")
	}
	unlock := e.lock(userID)
	defer unlock()

	var out Outcome
	err := e.update(ctx, func(tx Tx) error {
		out = Outcome{}
		plant, ok, err := tx.CurrentPlant(ctx, userID)
		if err != nil {
			return fmt.Errorf("read current plant: %w: %w", core.ErrPersistence, err)
		}
		if !ok {
			plant, out.Degraded, err = e.assign(ctx, tx, userID, 0)
			if err != nil {
				return err
			}
			out.Created = true
		}
		if plant.MaxPoints <= 0 {
			e.logger.Warn("garden: stored plant has no bloom threshold, using default",
				"user", userID, "plant", plant.PlantID, "max_points", plant.MaxPoints, "default", e.defaultThreshold)
			plant.MaxPoints = e.defaultThreshold
			out.Degraded = true
		}

		// Saturate rather than wrap; a saturated total always blooms.
		total := math.MaxInt
		if plant.CurrentPoints <= 0 || delta <= math.MaxInt-plant.CurrentPoints {
			total = plant.CurrentPoints + delta
		}
		if total < plant.MaxPoints {
			plant.CurrentPoints = total
			if err := tx.SaveCurrentPlant(ctx, plant); err != nil {
				return wrapSave(err)
			}
			plant.Revision++
			out.Plant = plant
			return nil
		}

		name, known := e.plantName(ctx, userID, plant.PlantID)
		if !known {
			out.Degraded = true
		}
		record := core.CompletedPlant{
			ID:          uuid.NewString(),
			UserID:      userID,
			PlantID:     plant.PlantID,
			PlantType:   name,
			FinalPoints: total,
			MaxPoints:   plant.MaxPoints,
			StartedAt:   plant.StartedAt,
			CompletedAt: e.now().UTC(),
		}
		if err := tx.AppendCompletedPlant(ctx, record); err != nil {
			return fmt.Errorf("archive plant: %w: %w", core.ErrPersistence, err)
		}

		next, degraded, err := e.assign(ctx, tx, userID, plant.Revision)
		if err != nil {
			return err
		}
		out.Plant = next
		out.Completed = &record
		out.Degraded = out.Degraded || degraded
		return nil
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("add points: %w", err)
	}
	return out, nil
}

// CurrentStage returns the user's growth stage, or the seed stage if no
// plant has been assigned yet.
func (e *Engine) CurrentStage(ctx context.Context, userID string) (core.Stage, error) {
	plant, ok, err := e.store.CurrentPlant(ctx, userID)
	if err != nil {
		return core.StageSeed, fmt.Errorf("current stage: %w: %w", core.ErrPersistence, err)
	}
	if !ok {
		return core.StageSeed, nil
	}
	stage, err := core.StageOf(plant.CurrentPoints, plant.MaxPoints)
	if err != nil {
		return core.StageSeed, fmt.Errorf("current stage: %w", err)
	}
	return stage, nil
}

// Status returns the user's plant together with its derived progress.
func (e *Engine) Status(ctx context.Context, userID string) (Status, error) {
	plant, ok, err := e.store.CurrentPlant(ctx, userID)
	if err != nil {
		return Status{}, fmt.Errorf("status: %w: %w", core.ErrPersistence, err)
	}
	return e.Describe(ctx, plant, ok)
}

// Describe derives a Status from a plant snapshot.
func (e *Engine) Describe(ctx context.Context, plant core.CurrentPlant, exists bool) (Status, error) {
	st := Status{Plant: plant, Exists: exists, Stage: core.StageSeed}
	if !exists {
		return st, nil
	}

	var err error
	if st.Stage, err = core.StageOf(plant.CurrentPoints, plant.MaxPoints); err != nil {
		return Status{}, fmt.Errorf("describe: %w", err)
	}
	if st.Progress, err = core.Progress(plant.CurrentPoints, plant.MaxPoints); err != nil {
		return Status{}, fmt.Errorf("describe: %w", err)
	}
	if st.PointsToNext, err = core.PointsToNextStage(plant.CurrentPoints, plant.MaxPoints); err != nil {
		return Status{}, fmt.Errorf("describe: %w", err)
	}

	pt, err := e.catalog.PlantType(ctx, plant.PlantID)
	if err == nil {
		st.PlantType = pt
		st.PlantTypeKnown = true
	} else if !errors.Is(err, core.ErrNotFound) {
		e.logger.Warn("garden: plant type unavailable", "plant", plant.PlantID, "err", err)
	}
	return st, nil
}

// Garden lists the user's completed plants, newest first.
func (e *Engine) Garden(ctx context.Context, userID string) ([]core.CompletedPlant, error) {
	plants, err := e.store.CompletedPlants(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("garden: %w: %w", core.ErrPersistence, err)
	}
	return plants, nil
}

// assign draws a plant from the queue and saves it with zero points.
// prevRevision is the revision of the plant row being replaced.
func (e *Engine) assign(ctx context.Context, tx Tx, userID string, prevRevision int64) (core.CurrentPlant, bool, error) {
	degraded := false
	plantID, err := e.queue.Draw(ctx, tx, userID)
	if err != nil {
		if !errors.Is(err, core.ErrCatalogReadDegraded) {
			return core.CurrentPlant{}, false, err
		}
		e.logger.Warn("garden: catalog unavailable, assigning default plant",
			"user", userID, "plant", DefaultPlantID, "err", err)
		plantID = DefaultPlantID
		degraded = true
	}

	maxPoints, ok := e.threshold(ctx, userID, plantID)
	if !ok {
		degraded = true
	}

	plant := core.CurrentPlant{
		UserID:        userID,
		PlantID:       plantID,
		CurrentPoints: 0,
		MaxPoints:     maxPoints,
		StartedAt:     e.now().UTC(),
		Revision:      prevRevision,
	}
	if err := tx.SaveCurrentPlant(ctx, plant); err != nil {
		return core.CurrentPlant{}, false, wrapSave(err)
	}
	plant.Revision++
	return plant, degraded, nil
}

// threshold reads the bloom threshold for plantID. ok is false when the
// default was used instead.
func (e *Engine) threshold(ctx context.Context, userID, plantID string) (int, bool) {
	if plantID == DefaultPlantID {
		return e.defaultThreshold, false
	}
	pt, err := e.catalog.PlantType(ctx, plantID)
	if err != nil {
		e.logger.Warn("garden: catalog read degraded, using default threshold",
			"user", userID, "plant", plantID, "default", e.defaultThreshold, "err", err)
		return e.defaultThreshold, false
	}
	if pt.PointsToBloom <= 0 {
		e.logger.Warn("garden: catalog threshold invalid, using default threshold",
			"user", userID, "plant", plantID, "points_to_bloom", pt.PointsToBloom, "default", e.defaultThreshold)
		return e.defaultThreshold, false
	}
	return pt.PointsToBloom, true
}

// plantName snapshots the display name archived with a bloom.
func (e *Engine) plantName(ctx context.Context, userID, plantID string) (string, bool) {
	pt, err := e.catalog.PlantType(ctx, plantID)
	if err != nil || pt.Name == "" {
		e.logger.Warn("garden: plant name unavailable, archiving as unknown",
			"user", userID, "plant", plantID, "err", err)
		return UnknownPlantName, false
	}
	return pt.Name, true
}

// update runs fn in a store transaction, retrying revision conflicts.
func (e *Engine) update(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt <= e.retries; attempt++ {
		err = e.store.Update(ctx, fn)
		if !errors.Is(err, core.ErrConflict) {
			break
		}
		e.logger.Debug("garden: revision conflict, retrying", "attempt", attempt+1)
	}
	if err != nil && !isKnown(err) {
		err = fmt.Errorf("%w: %w", core.ErrPersistence, err)
	}
	return err
}

func wrapSave(err error) error {
	if errors.Is(err, core.ErrConflict) {
		return fmt.Errorf("save current plant: %w", err)
	}
	return fmt.Errorf("save current plant: %w: %w", core.ErrPersistence, err)
}

func isKnown(err error) bool {
	for _, target := range []error{
		core.ErrPersistence,
		core.ErrConflict,
		core.ErrNoActivePlantTypes,
		core.ErrInvalidDelta,
		core.ErrInvalidThreshold,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
