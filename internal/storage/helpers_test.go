package storage_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jacksakers/ProjectReflect/internal/storage"
)

var testNow = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

// openTestStore opens a migrated database in a temp dir with a fixed clock.
func openTestStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "reflect.db")

	db, err := storage.Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	st, err := storage.New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	st.SetClock(func() time.Time { return testNow })
	return st, dbPath
}
