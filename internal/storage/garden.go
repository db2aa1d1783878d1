package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/garden"
)

var (
	_ garden.Store   = (*Store)(nil)
	_ garden.Catalog = (*Store)(nil)
)

// Update runs fn in a single SQLite transaction and commits only if fn
// returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx garden.Tx) error) error {
	if err := s.check("update"); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&gardenTx{tx: tx, store: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update: commit: %w", err)
	}
	return nil
}

// CurrentPlant returns the user's plant; ok is false if none is assigned.
func (s *Store) CurrentPlant(ctx context.Context, userID string) (core.CurrentPlant, bool, error) {
	if err := s.check("current plant"); err != nil {
		return core.CurrentPlant{}, false, err
	}
	return currentPlant(ctx, s.db, userID)
}

// CompletedPlants returns the user's garden archive, newest first.
func (s *Store) CompletedPlants(ctx context.Context, userID string) ([]core.CompletedPlant, error) {
	if err := s.check("completed plants"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, plant_id, plant_type, final_points, max_points, started_at, completed_at
		 FROM completed_plants
		 WHERE user_id = ?
		 ORDER BY completed_at DESC, id DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("completed plants: query: %w", err)
	}
	defer rows.Close()

	plants := make([]core.CompletedPlant, 0)
	for rows.Next() {
		var p core.CompletedPlant
		var startedAt, completedAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.PlantID, &p.PlantType, &p.FinalPoints, &p.MaxPoints, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("completed plants: scan: %w", err)
		}
		if p.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, fmt.Errorf("completed plants: parse started_at: %w", err)
		}
		if p.CompletedAt, err = parseTime(completedAt); err != nil {
			return nil, fmt.Errorf("completed plants: parse completed_at: %w", err)
		}
		plants = append(plants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("completed plants: rows: %w", err)
	}
	return plants, nil
}

func currentPlant(ctx context.Context, q queryer, userID string) (core.CurrentPlant, bool, error) {
	var p core.CurrentPlant
	var startedAt string
	err := q.QueryRowContext(ctx,
		`SELECT user_id, plant_id, current_points, max_points, started_at, revision FROM current_plants WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.PlantID, &p.CurrentPoints, &p.MaxPoints, &startedAt, &p.Revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.CurrentPlant{}, false, nil
		}
		return core.CurrentPlant{}, false, fmt.Errorf("current plant: scan: %w", err)
	}
	if p.StartedAt, err = parseTime(startedAt); err != nil {
		return core.CurrentPlant{}, false, fmt.Errorf("current plant: parse started_at: %w", err)
	}
	return p, true, nil
}

// gardenTx implements garden.Tx over a *sql.Tx.
type gardenTx struct {
	tx    *sql.Tx
	store *Store
}

func (g *gardenTx) CurrentPlant(ctx context.Context, userID string) (core.CurrentPlant, bool, error) {
	return currentPlant(ctx, g.tx, userID)
}

func (g *gardenTx) SaveCurrentPlant(ctx context.Context, plant core.CurrentPlant) error {
	if plant.UserID == "" {
		return fmt.Errorf("save current plant: user is empty")
	}

	var result sql.Result
	var err error
	if plant.Revision == 0 {
		result, err = g.tx.ExecContext(ctx,
			`INSERT INTO current_plants (user_id, plant_id, current_points, max_points, started_at, revision)
			 VALUES (?, ?, ?, ?, ?, 1)
			 ON CONFLICT(user_id) DO NOTHING`,
			plant.UserID, plant.PlantID, plant.CurrentPoints, plant.MaxPoints, formatTime(plant.StartedAt),
		)
	} else {
		result, err = g.tx.ExecContext(ctx,
			`UPDATE current_plants
			 SET plant_id = ?, current_points = ?, max_points = ?, started_at = ?, revision = revision + 1
			 WHERE user_id = ? AND revision = ?`,
			plant.PlantID, plant.CurrentPoints, plant.MaxPoints, formatTime(plant.StartedAt), plant.UserID, plant.Revision,
		)
	}
	if err != nil {
		return fmt.Errorf("save current plant: write: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("save current plant: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("save current plant: user %s revision %d: %w", plant.UserID, plant.Revision, core.ErrConflict)
	}
	return nil
}

func (g *gardenTx) SeedQueue(ctx context.Context, userID string) ([]string, error) {
	var encoded string
	err := g.tx.QueryRowContext(ctx, `SELECT plant_ids FROM seed_queues WHERE user_id = ?`, userID).Scan(&encoded)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("seed queue: scan: %w", err)
	}
	ids, err := decodeList(encoded)
	if err != nil {
		return nil, fmt.Errorf("seed queue: decode: %w", err)
	}
	return ids, nil
}

func (g *gardenTx) SaveSeedQueue(ctx context.Context, userID string, plantIDs []string) error {
	encoded, err := encodeList(plantIDs)
	if err != nil {
		return fmt.Errorf("save seed queue: encode: %w", err)
	}
	_, err = g.tx.ExecContext(ctx,
		`INSERT INTO seed_queues (user_id, plant_ids, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET plant_ids = excluded.plant_ids, updated_at = excluded.updated_at`,
		userID, encoded, formatTime(g.store.now()),
	)
	if err != nil {
		return fmt.Errorf("save seed queue: upsert: %w", err)
	}
	return nil
}

func (g *gardenTx) AppendCompletedPlant(ctx context.Context, record core.CompletedPlant) error {
	if record.ID == "" || record.UserID == "" {
		return fmt.Errorf("append completed plant: id and user are required")
	}
	_, err := g.tx.ExecContext(ctx,
		`INSERT INTO completed_plants (id, user_id, plant_id, plant_type, final_points, max_points, started_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.UserID, record.PlantID, record.PlantType, record.FinalPoints, record.MaxPoints,
		formatTime(record.StartedAt), formatTime(record.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("append completed plant: insert: %w", err)
	}
	return nil
}
