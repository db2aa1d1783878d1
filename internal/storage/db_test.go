package storage_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/jacksakers/ProjectReflect/internal/storage"
)

func TestOpen_CreatesAndMigrates(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "reflect.db")

	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if current != storage.SchemaVersion {
		t.Fatalf("current version=%d, want %d", current, storage.SchemaVersion)
	}

	var mode string
	if err := db.QueryRow(`PRAGMA journal_mode;`).Scan(&mode); err != nil {
		t.Fatalf("read journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("journal_mode=%q, want wal", mode)
	}
}

func TestOpen_EmptyPath(t *testing.T) {
	if _, err := storage.Open(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestMigrate_IdempotentAndRecordsEveryVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reflect.db")

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=rwc&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate first: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate second: %v", err)
	}

	var count, current int
	err = db.QueryRow(`SELECT COUNT(*), COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&count, &current)
	if err != nil {
		t.Fatalf("read schema_migrations: %v", err)
	}
	if current != storage.SchemaVersion || count != storage.SchemaVersion {
		t.Fatalf("versions=%d current=%d, want %d of each", count, current, storage.SchemaVersion)
	}

	for _, table := range []string{"entries", "capsules", "plant_types", "current_plants", "seed_queues", "completed_plants"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Fatalf("table %s missing: %v", table, err)
		}
	}
}

func TestMigrate_UpgradesFromVersionOne(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reflect.db")

	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=rwc")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	stmts := []string{
		`CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY);`,
		`CREATE TABLE entries (id TEXT PRIMARY KEY, author_id TEXT NOT NULL, text TEXT NOT NULL, moods TEXT NOT NULL DEFAULT '[]',
			categories TEXT NOT NULL DEFAULT '[]', entry_type TEXT NOT NULL, created_at TEXT NOT NULL, created_date TEXT NOT NULL,
			meditation TEXT NULL, triage TEXT NULL, tags TEXT NOT NULL DEFAULT '[]', photo_url TEXT NULL);`,
		`INSERT INTO schema_migrations(version) VALUES (1);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed v1: %v", err)
		}
	}

	if err := storage.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	var name string
	if err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'current_plants'`).Scan(&name); err != nil {
		t.Fatalf("current_plants not created: %v", err)
	}
}

func TestMigrate_RejectsNewerDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "reflect.db")
	db, err := sql.Open("sqlite", "file:"+dbPath+"?mode=rwc")
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	for _, s := range []string{
		`CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY);`,
		`INSERT INTO schema_migrations(version) VALUES (99);`,
	} {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	if err := storage.Migrate(db); err == nil {
		t.Fatalf("expected error for newer schema")
	}
}

func TestDefaultDBPath_ReturnsNonEmpty(t *testing.T) {
	p, err := storage.DefaultDBPath()
	if err != nil {
		t.Fatalf("default db path: %v", err)
	}
	if !strings.HasSuffix(p, filepath.Join("reflect", "reflect.db")) {
		t.Fatalf("default db path=%q", p)
	}
}

func TestResolveDBPath_Precedence(t *testing.T) {
	t.Setenv(storage.EnvDBPath, "/tmp/from-env.db")

	p, err := storage.ResolveDBPath("/tmp/configured.db")
	if err != nil || p != "/tmp/configured.db" {
		t.Fatalf("configured path = %q, %v", p, err)
	}

	p, err = storage.ResolveDBPath("  ")
	if err != nil || p != "/tmp/from-env.db" {
		t.Fatalf("env path = %q, %v", p, err)
	}

	t.Setenv(storage.EnvDBPath, "")
	p, err = storage.ResolveDBPath("")
	if err != nil || !strings.HasSuffix(p, "reflect.db") {
		t.Fatalf("default path = %q, %v", p, err)
	}
}

func TestNew_NilDB(t *testing.T) {
	if _, err := storage.New(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
	var st *storage.Store
	if _, err := st.PlantTypes(context.Background()); err == nil {
		t.Fatalf("expected error from nil store")
	}
}
