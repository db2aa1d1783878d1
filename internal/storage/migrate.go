package storage

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current schema version for the local SQLite database.
const SchemaVersion = 2

// migration is one schema step. Statements run in order inside a single
// transaction together with the version record.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "journal",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS entries (
				id TEXT PRIMARY KEY,
				author_id TEXT NOT NULL,
				text TEXT NOT NULL,
				moods TEXT NOT NULL DEFAULT '[]',
				categories TEXT NOT NULL DEFAULT '[]',
				entry_type TEXT NOT NULL,
				created_at TEXT NOT NULL,
				created_date TEXT NOT NULL,
				meditation TEXT NULL,
				triage TEXT NULL,
				tags TEXT NOT NULL DEFAULT '[]',
				photo_url TEXT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_entries_author_created ON entries(author_id, created_at);`,
			`CREATE TABLE IF NOT EXISTS capsules (
				id TEXT PRIMARY KEY,
				author_id TEXT NOT NULL,
				text TEXT NOT NULL,
				moods TEXT NOT NULL DEFAULT '[]',
				categories TEXT NOT NULL DEFAULT '[]',
				include_reply INTEGER NOT NULL DEFAULT 0,
				reply_text TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				created_at TEXT NOT NULL,
				open_date TEXT NOT NULL,
				opened_at TEXT NULL,
				replied_at TEXT NULL,
				opened_prematurely INTEGER NOT NULL DEFAULT 0
			);`,
			`CREATE INDEX IF NOT EXISTS idx_capsules_author_open ON capsules(author_id, open_date);`,
		},
	},
	{
		version: 2,
		name:    "garden",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS plant_types (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				points_to_bloom INTEGER NOT NULL,
				difficulty TEXT NOT NULL DEFAULT '',
				rarity TEXT NOT NULL DEFAULT '',
				storage_folder TEXT NOT NULL DEFAULT '',
				is_active INTEGER NOT NULL DEFAULT 1
			);`,
			`CREATE TABLE IF NOT EXISTS current_plants (
				user_id TEXT PRIMARY KEY,
				plant_id TEXT NOT NULL,
				current_points INTEGER NOT NULL,
				max_points INTEGER NOT NULL,
				started_at TEXT NOT NULL,
				revision INTEGER NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS seed_queues (
				user_id TEXT PRIMARY KEY,
				plant_ids TEXT NOT NULL,
				updated_at TEXT NOT NULL
			);`,
			`CREATE TABLE IF NOT EXISTS completed_plants (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				plant_id TEXT NOT NULL,
				plant_type TEXT NOT NULL,
				final_points INTEGER NOT NULL,
				max_points INTEGER NOT NULL,
				started_at TEXT NOT NULL,
				completed_at TEXT NOT NULL
			);`,
			`CREATE INDEX IF NOT EXISTS idx_completed_plants_user_completed ON completed_plants(user_id, completed_at);`,
		},
	},
}

// Migrate ensures the SQLite schema exists and is at the current SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current > SchemaVersion {
		return fmt.Errorf("migrate: database version %d is newer than supported version %d", current, SchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return err
		}
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: v%d %s: begin transaction: %w", m.version, m.name, err)
	}
	defer func() { _ = transaction.Rollback() }()

	for i, stmt := range m.statements {
		if _, err := transaction.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: v%d %s: statement %d: %w", m.version, m.name, i+1, err)
		}
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, m.version)
	if err != nil {
		return fmt.Errorf("migrate: v%d %s: record schema version: %w", m.version, m.name, err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("migrate: v%d %s: commit transaction: %w", m.version, m.name, err)
	}
	return nil
}
