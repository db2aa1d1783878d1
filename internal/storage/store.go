// Package storage is the SQLite document store behind the journal and the
// garden: entries, time capsules, the plant catalog and per-user plant state.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store provides SQLite-backed persistence for journal and garden documents.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New returns a Store bound to an existing database handle.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Store{db: db, now: time.Now}, nil
}

// SetClock overrides time.Now for timestamps written by the store.
func (s *Store) SetClock(now func() time.Time) {
	if s != nil && now != nil {
		s.now = now
	}
}

func (s *Store) check(op string) error {
	if s == nil {
		return fmt.Errorf("%s: store is nil", op)
	}
	if s.db == nil {
		return fmt.Errorf("%s: db is nil", op)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var items []string
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items, nil
}

// encodeJSON stores v as a JSON column, or NULL when v is nil.
func encodeJSON[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeJSON[T any](ns sql.NullString) (*T, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(ns.String), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// likePattern escapes LIKE wildcards in q and wraps it for substring matching.
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(q)) + "%"
}

type scanner interface {
	Scan(dest ...any) error
}

const entryColumns = `id, author_id, text, moods, categories, entry_type, created_at, created_date, meditation, triage, tags, photo_url`

func scanEntry(row scanner) (core.Entry, error) {
	var e core.Entry
	var moods, categories, tags, entryType, createdAt string
	var meditation, triage, photoURL sql.NullString

	err := row.Scan(&e.ID, &e.AuthorID, &e.Text, &moods, &categories, &entryType, &createdAt, &e.CreatedDate, &meditation, &triage, &tags, &photoURL)
	if err != nil {
		return core.Entry{}, err
	}
	e.Type = core.EntryType(entryType)
	e.PhotoURL = photoURL.String

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Entry{}, fmt.Errorf("parse created_at: %w", err)
	}
	if e.Moods, err = decodeList(moods); err != nil {
		return core.Entry{}, fmt.Errorf("decode moods: %w", err)
	}
	if e.Categories, err = decodeList(categories); err != nil {
		return core.Entry{}, fmt.Errorf("decode categories: %w", err)
	}
	if e.Tags, err = decodeList(tags); err != nil {
		return core.Entry{}, fmt.Errorf("decode tags: %w", err)
	}
	if e.Meditation, err = decodeJSON[core.MeditationContext](meditation); err != nil {
		return core.Entry{}, fmt.Errorf("decode meditation: %w", err)
	}
	if e.Triage, err = decodeJSON[core.TriageAnswers](triage); err != nil {
		return core.Entry{}, fmt.Errorf("decode triage: %w", err)
	}
	return e, nil
}

func collectEntries(rows *sql.Rows) ([]core.Entry, error) {
	defer rows.Close()
	entries := make([]core.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return entries, nil
}

// CreateEntry inserts a journal entry. A missing ID, CreatedAt or CreatedDate
// is filled in; the stored entry is returned.
func (s *Store) CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error) {
	if err := s.check("create entry"); err != nil {
		return core.Entry{}, err
	}
	if e.AuthorID == "" {
		return core.Entry{}, fmt.Errorf("create entry: author is empty")
	}
	if strings.TrimSpace(e.Text) == "" {
		return core.Entry{}, fmt.Errorf("create entry: text is empty")
	}
	if e.Type == "" {
		e.Type = core.EntryQuickThought
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if e.CreatedDate == "" {
		e.CreatedDate = e.CreatedAt.Local().Format(core.DateLayout)
	}

	if _, err := s.insertEntry(ctx, "create entry", e, false); err != nil {
		return core.Entry{}, err
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, nil
}

// ImportEntry stores an entry that already carries its id and timestamps.
// It reports false without error when an entry with that id exists.
func (s *Store) ImportEntry(ctx context.Context, e core.Entry) (bool, error) {
	if err := s.check("import entry"); err != nil {
		return false, err
	}
	if e.ID == "" || e.AuthorID == "" || e.CreatedAt.IsZero() {
		return false, fmt.Errorf("import entry: id, author and created_at are required")
	}
	if e.CreatedDate == "" {
		e.CreatedDate = e.CreatedAt.Local().Format(core.DateLayout)
	}
	return s.insertEntry(ctx, "import entry", e, true)
}

func (s *Store) insertEntry(ctx context.Context, op string, e core.Entry, skipExisting bool) (bool, error) {
	moods, err := encodeList(e.Moods)
	if err != nil {
		return false, fmt.Errorf("%s: encode moods: %w", op, err)
	}
	categories, err := encodeList(e.Categories)
	if err != nil {
		return false, fmt.Errorf("%s: encode categories: %w", op, err)
	}
	tags, err := encodeList(e.Tags)
	if err != nil {
		return false, fmt.Errorf("%s: encode tags: %w", op, err)
	}
	meditation, err := encodeJSON(e.Meditation)
	if err != nil {
		return false, fmt.Errorf("%s: encode meditation: %w", op, err)
	}
	triage, err := encodeJSON(e.Triage)
	if err != nil {
		return false, fmt.Errorf("%s: encode triage: %w", op, err)
	}
	var photo any
	if e.PhotoURL != "" {
		photo = e.PhotoURL
	}

	query := `INSERT INTO entries (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if skipExisting {
		query += ` ON CONFLICT(id) DO NOTHING`
	}
	result, err := s.db.ExecContext(ctx, query,
		e.ID, e.AuthorID, e.Text, moods, categories, string(e.Type), formatTime(e.CreatedAt), e.CreatedDate, meditation, triage, tags, photo,
	)
	if err != nil {
		return false, fmt.Errorf("%s: insert: %w", op, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: rows affected: %w", op, err)
	}
	return rows > 0, nil
}

// GetEntry returns one of the author's entries, or core.ErrNotFound.
func (s *Store) GetEntry(ctx context.Context, authorID, id string) (core.Entry, error) {
	if err := s.check("get entry"); err != nil {
		return core.Entry{}, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM entries WHERE id = ? AND author_id = ?`, id, authorID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, fmt.Errorf("get entry %s: %w", id, core.ErrNotFound)
		}
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// ListEntries returns a page of the author's entries, newest first.
func (s *Store) ListEntries(ctx context.Context, authorID string, limit, offset int) ([]core.Entry, error) {
	if err := s.check("list entries"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, fmt.Errorf("list entries: limit must be > 0")
	}
	if offset < 0 {
		return nil, fmt.Errorf("list entries: offset must be >= 0")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE author_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		authorID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: query: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// SearchEntries returns the author's entries whose text contains query,
// ignoring case, newest first.
func (s *Store) SearchEntries(ctx context.Context, authorID, query string, limit int) ([]core.Entry, error) {
	if err := s.check("search entries"); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search entries: query is empty")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("search entries: limit must be > 0")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE author_id = ? AND LOWER(text) LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		authorID, likePattern(query), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search entries: query: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	return entries, nil
}

// EntriesBetween returns the author's entries created in [start, end], newest first.
func (s *Store) EntriesBetween(ctx context.Context, authorID string, start, end time.Time) ([]core.Entry, error) {
	if err := s.check("entries between"); err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("entries between: end before start")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries
		 WHERE author_id = ? AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at DESC, id DESC`,
		authorID, formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("entries between: query: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, fmt.Errorf("entries between: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes one of the author's entries, or returns core.ErrNotFound.
func (s *Store) DeleteEntry(ctx context.Context, authorID, id string) error {
	if err := s.check("delete entry"); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete entry: delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete entry %s: %w", id, core.ErrNotFound)
	}
	return nil
}
