package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

const capsuleColumns = `id, author_id, text, moods, categories, include_reply, reply_text, status, created_at, open_date, opened_at, replied_at, opened_prematurely`

func scanCapsule(row scanner) (core.Capsule, error) {
	var c core.Capsule
	var moods, categories, status, createdAt, openDate string
	var openedAt, repliedAt sql.NullString
	var includeReply, premature int

	err := row.Scan(&c.ID, &c.AuthorID, &c.Text, &moods, &categories, &includeReply, &c.ReplyText, &status, &createdAt, &openDate, &openedAt, &repliedAt, &premature)
	if err != nil {
		return core.Capsule{}, err
	}
	c.Status = core.CapsuleStatus(status)
	c.IncludeReply = includeReply != 0
	c.OpenedPrematurely = premature != 0

	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return core.Capsule{}, fmt.Errorf("parse created_at: %w", err)
	}
	if c.OpenDate, err = parseTime(openDate); err != nil {
		return core.Capsule{}, fmt.Errorf("parse open_date: %w", err)
	}
	if c.OpenedAt, err = parseNullTime(openedAt); err != nil {
		return core.Capsule{}, fmt.Errorf("parse opened_at: %w", err)
	}
	if c.RepliedAt, err = parseNullTime(repliedAt); err != nil {
		return core.Capsule{}, fmt.Errorf("parse replied_at: %w", err)
	}
	if c.Moods, err = decodeList(moods); err != nil {
		return core.Capsule{}, fmt.Errorf("decode moods: %w", err)
	}
	if c.Categories, err = decodeList(categories); err != nil {
		return core.Capsule{}, fmt.Errorf("decode categories: %w", err)
	}
	return c, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// CreateCapsule seals a new time capsule. The open date must lie after now.
func (s *Store) CreateCapsule(ctx context.Context, c core.Capsule) (core.Capsule, error) {
	if err := s.check("create capsule"); err != nil {
		return core.Capsule{}, err
	}
	if c.AuthorID == "" {
		return core.Capsule{}, fmt.Errorf("create capsule: author is empty")
	}
	if strings.TrimSpace(c.Text) == "" {
		return core.Capsule{}, fmt.Errorf("create capsule: text is empty")
	}
	now := s.now()
	if !c.OpenDate.After(now) {
		return core.Capsule{}, fmt.Errorf("create capsule: open date %s: %w", c.OpenDate.Format(core.DateLayout), core.ErrInvalidOpenDate)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = now.UTC()
	c.OpenDate = c.OpenDate.UTC()
	c.Status = core.CapsuleSealed
	c.ReplyText = ""
	c.OpenedAt, c.RepliedAt, c.OpenedPrematurely = nil, nil, false

	if _, err := s.insertCapsule(ctx, "create capsule", c, false); err != nil {
		return core.Capsule{}, err
	}
	return c, nil
}

// ImportCapsule stores a capsule created elsewhere, so the open date is not
// checked against now. It reports false without error when the id exists.
func (s *Store) ImportCapsule(ctx context.Context, c core.Capsule) (bool, error) {
	if err := s.check("import capsule"); err != nil {
		return false, err
	}
	if c.ID == "" || c.AuthorID == "" || c.OpenDate.IsZero() {
		return false, fmt.Errorf("import capsule: id, author and open_date are required")
	}
	if c.Status == "" {
		c.Status = core.CapsuleSealed
	}
	return s.insertCapsule(ctx, "import capsule", c, true)
}

func (s *Store) insertCapsule(ctx context.Context, op string, c core.Capsule, skipExisting bool) (bool, error) {
	moods, err := encodeList(c.Moods)
	if err != nil {
		return false, fmt.Errorf("%s: encode moods: %w", op, err)
	}
	categories, err := encodeList(c.Categories)
	if err != nil {
		return false, fmt.Errorf("%s: encode categories: %w", op, err)
	}

	query := `INSERT INTO capsules (` + capsuleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if skipExisting {
		query += ` ON CONFLICT(id) DO NOTHING`
	}
	result, err := s.db.ExecContext(ctx, query,
		c.ID, c.AuthorID, c.Text, moods, categories, boolInt(c.IncludeReply), c.ReplyText, string(c.Status),
		formatTime(c.CreatedAt), formatTime(c.OpenDate), nullTime(c.OpenedAt), nullTime(c.RepliedAt), boolInt(c.OpenedPrematurely),
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

// GetCapsule returns one of the author's capsules, or core.ErrNotFound.
func (s *Store) GetCapsule(ctx context.Context, authorID, id string) (core.Capsule, error) {
	if err := s.check("get capsule"); err != nil {
		return core.Capsule{}, err
	}
	return s.getCapsule(ctx, s.db, authorID, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) getCapsule(ctx context.Context, q queryer, authorID, id string) (core.Capsule, error) {
	row := q.QueryRowContext(ctx, `SELECT `+capsuleColumns+` FROM capsules WHERE id = ? AND author_id = ?`, id, authorID)
	c, err := scanCapsule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Capsule{}, fmt.Errorf("get capsule %s: %w", id, core.ErrNotFound)
		}
		return core.Capsule{}, fmt.Errorf("get capsule: %w", err)
	}
	return c, nil
}

// ListCapsules returns all of the author's capsules ordered by open date.
func (s *Store) ListCapsules(ctx context.Context, authorID string) ([]core.Capsule, error) {
	if err := s.check("list capsules"); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+capsuleColumns+` FROM capsules WHERE author_id = ? ORDER BY open_date ASC, id ASC`,
		authorID,
	)
	if err != nil {
		return nil, fmt.Errorf("list capsules: query: %w", err)
	}
	return collectCapsules(rows, "list capsules")
}

// OpenedCapsulesBetween returns opened capsules whose open date falls in [start, end].
func (s *Store) OpenedCapsulesBetween(ctx context.Context, authorID string, start, end time.Time) ([]core.Capsule, error) {
	if err := s.check("opened capsules between"); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+capsuleColumns+` FROM capsules
		 WHERE author_id = ? AND status = ? AND open_date >= ? AND open_date <= ?
		 ORDER BY open_date DESC, id ASC`,
		authorID, string(core.CapsuleOpened), formatTime(start), formatTime(end),
	)
	if err != nil {
		return nil, fmt.Errorf("opened capsules between: query: %w", err)
	}
	return collectCapsules(rows, "opened capsules between")
}

func collectCapsules(rows *sql.Rows, op string) ([]core.Capsule, error) {
	defer rows.Close()
	capsules := make([]core.Capsule, 0)
	for rows.Next() {
		c, err := scanCapsule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		capsules = append(capsules, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return capsules, nil
}

// OpenCapsule marks a capsule opened. Opening before the open date is
// allowed and recorded as premature. Opening an opened capsule is a no-op.
func (s *Store) OpenCapsule(ctx context.Context, authorID, id string) (core.Capsule, error) {
	if err := s.check("open capsule"); err != nil {
		return core.Capsule{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("open capsule: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := s.getCapsule(ctx, tx, authorID, id)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("open capsule: %w", err)
	}
	if c.Status == core.CapsuleOpened {
		return c, nil
	}

	now := s.now().UTC()
	c.Status = core.CapsuleOpened
	c.OpenedAt = &now
	c.OpenedPrematurely = now.Before(c.OpenDate)

	_, err = tx.ExecContext(ctx,
		`UPDATE capsules SET status = ?, opened_at = ?, opened_prematurely = ? WHERE id = ? AND author_id = ?`,
		string(c.Status), formatTime(now), boolInt(c.OpenedPrematurely), id, authorID,
	)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("open capsule: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Capsule{}, fmt.Errorf("open capsule: commit: %w", err)
	}
	return c, nil
}

// ReplyCapsule saves the author's reply to a delivered capsule. Replying to
// a capsule that is still sealed returns core.ErrCapsuleSealed.
func (s *Store) ReplyCapsule(ctx context.Context, authorID, id, reply string) (core.Capsule, error) {
	if err := s.check("reply capsule"); err != nil {
		return core.Capsule{}, err
	}
	if strings.TrimSpace(reply) == "" {
		return core.Capsule{}, fmt.Errorf("reply capsule: reply is empty")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("reply capsule: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	c, err := s.getCapsule(ctx, tx, authorID, id)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("reply capsule: %w", err)
	}
	now := s.now().UTC()
	if !core.CapsuleDelivered(c, now) {
		return core.Capsule{}, fmt.Errorf("reply capsule %s: %w", id, core.ErrCapsuleSealed)
	}

	c.ReplyText = reply
	c.RepliedAt = &now
	_, err = tx.ExecContext(ctx,
		`UPDATE capsules SET reply_text = ?, replied_at = ? WHERE id = ? AND author_id = ?`,
		reply, formatTime(now), id, authorID,
	)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("reply capsule: update: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return core.Capsule{}, fmt.Errorf("reply capsule: commit: %w", err)
	}
	return c, nil
}

// DeleteCapsule removes one of the author's capsules, or returns core.ErrNotFound.
func (s *Store) DeleteCapsule(ctx context.Context, authorID, id string) error {
	if err := s.check("delete capsule"); err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, `DELETE FROM capsules WHERE id = ? AND author_id = ?`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete capsule: delete: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete capsule: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete capsule %s: %w", id, core.ErrNotFound)
	}
	return nil
}
