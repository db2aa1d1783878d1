package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

const plantTypeColumns = `id, name, description, points_to_bloom, difficulty, rarity, storage_folder, is_active`

func scanPlantType(row scanner) (core.PlantType, error) {
	var pt core.PlantType
	var active int
	err := row.Scan(&pt.ID, &pt.Name, &pt.Description, &pt.PointsToBloom, &pt.Difficulty, &pt.Rarity, &pt.StorageFolder, &active)
	if err != nil {
		return core.PlantType{}, err
	}
	pt.IsActive = active != 0
	return pt, nil
}

// UpsertPlantTypes inserts or replaces catalog entries by id in one transaction.
func (s *Store) UpsertPlantTypes(ctx context.Context, types []core.PlantType) error {
	if err := s.check("upsert plant types"); err != nil {
		return err
	}
	for i, pt := range types {
		if strings.TrimSpace(pt.ID) == "" {
			return fmt.Errorf("upsert plant types: entry %d has no id", i)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert plant types: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, pt := range types {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO plant_types (`+plantTypeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				description = excluded.description,
				points_to_bloom = excluded.points_to_bloom,
				difficulty = excluded.difficulty,
				rarity = excluded.rarity,
				storage_folder = excluded.storage_folder,
				is_active = excluded.is_active`,
			pt.ID, pt.Name, pt.Description, pt.PointsToBloom, pt.Difficulty, pt.Rarity, pt.StorageFolder, boolInt(pt.IsActive),
		)
		if err != nil {
			return fmt.Errorf("upsert plant types: %s: %w", pt.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert plant types: commit: %w", err)
	}
	return nil
}

// PlantTypes returns every catalog entry ordered by id.
func (s *Store) PlantTypes(ctx context.Context) ([]core.PlantType, error) {
	if err := s.check("plant types"); err != nil {
		return nil, err
	}
	return s.queryPlantTypes(ctx, "plant types", `SELECT `+plantTypeColumns+` FROM plant_types ORDER BY id ASC`)
}

// ActivePlantTypes returns the catalog entries that can be drawn, ordered by id.
func (s *Store) ActivePlantTypes(ctx context.Context) ([]core.PlantType, error) {
	if err := s.check("active plant types"); err != nil {
		return nil, err
	}
	return s.queryPlantTypes(ctx, "active plant types", `SELECT `+plantTypeColumns+` FROM plant_types WHERE is_active = 1 ORDER BY id ASC`)
}

func (s *Store) queryPlantTypes(ctx context.Context, op, query string) ([]core.PlantType, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	types := make([]core.PlantType, 0)
	for rows.Next() {
		pt, err := scanPlantType(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		types = append(types, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return types, nil
}

// PlantType returns a catalog entry by id, or core.ErrNotFound.
func (s *Store) PlantType(ctx context.Context, id string) (core.PlantType, error) {
	if err := s.check("plant type"); err != nil {
		return core.PlantType{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+plantTypeColumns+` FROM plant_types WHERE id = ?`, id)
	pt, err := scanPlantType(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.PlantType{}, fmt.Errorf("plant type %q: %w", id, core.ErrNotFound)
		}
		return core.PlantType{}, fmt.Errorf("plant type: %w", err)
	}
	return pt, nil
}
