// Package garden grows each user's current plant: it awards points, detects
// blooms, archives completed plants and draws the next plant from a shuffled
// per-user seed queue.
package garden

import (
	"context"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// Tx is the set of per-user reads and writes that must commit together.
type Tx interface {
	// CurrentPlant returns the user's plant; ok is false if none has been assigned.
	CurrentPlant(ctx context.Context, userID string) (plant core.CurrentPlant, ok bool, err error)

	// SaveCurrentPlant upserts the plant if its Revision still matches the
	// stored one, returning core.ErrConflict otherwise. The row is written
	// with Revision+1. A Revision of 0 means no plant is expected to exist yet.
	SaveCurrentPlant(ctx context.Context, plant core.CurrentPlant) error

	SeedQueue(ctx context.Context, userID string) ([]string, error)
	SaveSeedQueue(ctx context.Context, userID string, plantIDs []string) error

	// AppendCompletedPlant adds a record to the user's garden archive.
	AppendCompletedPlant(ctx context.Context, record core.CompletedPlant) error
}

// Store runs transactions and serves read-only garden queries.
type Store interface {
	// Update runs fn in one transaction; it commits only if fn returns nil.
	Update(ctx context.Context, fn func(tx Tx) error) error

	CurrentPlant(ctx context.Context, userID string) (core.CurrentPlant, bool, error)

	// CompletedPlants lists the user's archive, newest first.
	CompletedPlants(ctx context.Context, userID string) ([]core.CompletedPlant, error)
}

// Catalog is read-only access to the shared plant type catalog.
type Catalog interface {
	ActivePlantTypes(ctx context.Context) ([]core.PlantType, error)

	// PlantType returns core.ErrNotFound when id is unknown.
	PlantType(ctx context.Context, id string) (core.PlantType, error)
}

// Subscriber streams snapshots of a user's current plant as it changes.
// The channel is closed when ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan core.PlantSnapshot, error)
}
