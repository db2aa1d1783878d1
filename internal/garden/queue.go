package garden

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// SeedQueue hands out plant types in shuffled, non-repeating rounds.
// A round is a shuffle of every active catalog entry; the next round is only
// drawn once the current one is used up.
type SeedQueue struct {
	store   Store
	catalog Catalog
	rng     *rand.Rand
}

// NewSeedQueue returns a queue backed by store and catalog. A nil rng uses
// the global random source.
func NewSeedQueue(store Store, catalog Catalog, rng *rand.Rand) *SeedQueue {
	return &SeedQueue{store: store, catalog: catalog, rng: rng}
}

// Next draws the user's next plant id in its own transaction.
func (q *SeedQueue) Next(ctx context.Context, userID string) (string, error) {
	var plantID string
	err := q.store.Update(ctx, func(tx Tx) error {
		id, err := q.Draw(ctx, tx, userID)
		if err != nil {
			return err
		}
		plantID = id
		return nil
	})
	if err != nil {
		return "", err
	}
	return plantID, nil
}

// Draw pops the front of the user's queue inside tx, refilling it first if
// it is empty. The refill and the pop are persisted as one write, so a
// refilled queue is never stored without its first draw.
func (q *SeedQueue) Draw(ctx context.Context, tx Tx, userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("seed queue: empty user id")
	}

	queue, err := tx.SeedQueue(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("seed queue: read: %w: %w", core.ErrPersistence, err)
	}

	if len(queue) == 0 {
		queue, err = q.refill(ctx)
		if err != nil {
			return "", err
		}
	}

	next := queue[0]
	rest := queue[1:]
	if err := tx.SaveSeedQueue(ctx, userID, rest); err != nil {
		return "", fmt.Errorf("seed queue: save: %w: %w", core.ErrPersistence, err)
	}
	return next, nil
}

// refill returns a fresh shuffle of all active plant type ids.
func (q *SeedQueue) refill(ctx context.Context) ([]string, error) {
	types, err := q.catalog.ActivePlantTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed queue: list active plant types: %w: %w", core.ErrCatalogReadDegraded, err)
	}

	ids := make([]string, 0, len(types))
	for _, pt := range types {
		if !pt.IsActive || pt.ID == "" {
			continue
		}
		ids = append(ids, pt.ID)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("seed queue: refill: %w", core.ErrNoActivePlantTypes)
	}
	return core.Shuffle(ids, q.rng), nil
}
