package storage

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// Document schema versions. Version 1 documents carry singular mood,
// category, thought category and body location fields; version 2 carries
// arrays. Documents without a schemaVersion are read as version 1.
const (
	DocumentV1            = 1
	DocumentV2            = 2
	CurrentDocumentSchema = DocumentV2
)

// documentNamespace derives stable ids for imported documents that have none.
var documentNamespace = uuid.MustParse("6f1c2a52-3b8e-4f55-9d61-7a0e5c4b9e21")

// stringList decodes either a JSON string or an array of strings. Null and
// the empty string decode to an empty list.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*l = nil
		} else {
			*l = stringList{s}
		}
		return nil
	}
	var items []string
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("want string or list of strings: %w", err)
	}
	out := make(stringList, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	*l = out
	return nil
}

// flexTime decodes an RFC 3339 string, a YYYY-MM-DD date (local midnight)
// or a {seconds, nanoseconds} timestamp object. Null is the zero time.
type flexTime struct {
	time.Time
}

type timestampObject struct {
	Seconds      *int64 `json:"seconds"`
	Nanoseconds  int64  `json:"nanoseconds"`
	USeconds     *int64 `json:"_seconds"`
	UNanoseconds int64  `json:"_nanoseconds"`
}

func (t *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		return t.parseString(s)
	case '{':
		var obj timestampObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		switch {
		case obj.Seconds != nil:
			t.Time = time.Unix(*obj.Seconds, obj.Nanoseconds).UTC()
		case obj.USeconds != nil:
			t.Time = time.Unix(*obj.USeconds, obj.UNanoseconds).UTC()
		default:
			return fmt.Errorf("timestamp object has no seconds")
		}
		return nil
	default:
		return fmt.Errorf("unsupported timestamp %s", data)
	}
}

func (t *flexTime) parseString(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = ts.UTC()
		return nil
	}
	ts, err := time.ParseInLocation(core.DateLayout, s, time.Local)
	if err != nil {
		return fmt.Errorf("unsupported timestamp %q", s)
	}
	t.Time = ts.UTC()
	return nil
}

func (t flexTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

// entryDocument is the wire shape of an exported journal entry.
type entryDocument struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`
	AuthorUID     string `json:"authorUid"`
	Text          string `json:"text"`
	EntryType     string `json:"entryType"`
	QuickThought  bool   `json:"quickThought"`

	Mood       stringList `json:"mood"`
	Moods      stringList `json:"moods"`
	Category   stringList `json:"category"`
	Categories stringList `json:"categories"`

	CreatedAt   flexTime `json:"createdAt"`
	CreatedDate string   `json:"createdDate"`

	MeditationType     string `json:"meditationType"`
	MeditationName     string `json:"meditationName"`
	MeditationDuration int    `json:"meditationDuration"`

	ThoughtCategory   stringList `json:"thoughtCategory"`
	ThoughtCategories stringList `json:"thoughtCategories"`
	ThoughtContent    string     `json:"thoughtContent"`
	BodyLocation      stringList `json:"bodyLocation"`
	BodyLocations     stringList `json:"bodyLocations"`

	PhotoURL string     `json:"photoUrl"`
	Tags     stringList `json:"tags"`
}

// capsuleDocument is the wire shape of an exported time capsule.
type capsuleDocument struct {
	SchemaVersion int    `json:"schemaVersion"`
	ID            string `json:"id"`
	AuthorUID     string `json:"authorUid"`
	Text          string `json:"text"`

	Mood       stringList `json:"mood"`
	Moods      stringList `json:"moods"`
	Category   stringList `json:"category"`
	Categories stringList `json:"categories"`

	IncludeReply      bool     `json:"includeReply"`
	ReplyText         string   `json:"replyText"`
	Status            string   `json:"status"`
	CreatedAt         flexTime `json:"createdAt"`
	OpenDate          flexTime `json:"openDate"`
	OpenedAt          flexTime `json:"openedAt"`
	RepliedAt         flexTime `json:"repliedAt"`
	OpenedPrematurely bool     `json:"openedPrematurely"`
}

func documentVersion(v int) (int, error) {
	switch {
	case v == 0:
		return DocumentV1, nil
	case v < 0 || v > CurrentDocumentSchema:
		return 0, fmt.Errorf("unsupported schema version %d", v)
	default:
		return v, nil
	}
}

// pick returns the field for the document's version, falling back to the
// other spelling when only that one is present.
func pick(version int, singular, plural stringList) []string {
	primary, secondary := singular, plural
	if version >= DocumentV2 {
		primary, secondary = plural, singular
	}
	if len(primary) > 0 {
		return []string(primary)
	}
	if len(secondary) > 0 {
		return []string(secondary)
	}
	return nil
}

func derivedID(parts ...string) string {
	return uuid.NewSHA1(documentNamespace, []byte(strings.Join(parts, "\x00"))).String()
}

// DecodeEntry normalizes one exported entry document. defaultAuthor is used
// when the document names no author.
func DecodeEntry(data []byte, defaultAuthor string) (core.Entry, error) {
	var doc entryDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	version, err := documentVersion(doc.SchemaVersion)
	if err != nil {
		return core.Entry{}, fmt.Errorf("decode entry: %w", err)
	}

	e := core.Entry{
		ID:          doc.ID,
		AuthorID:    doc.AuthorUID,
		Text:        strings.TrimSpace(doc.Text),
		Moods:       pick(version, doc.Mood, doc.Moods),
		Categories:  pick(version, doc.Category, doc.Categories),
		CreatedAt:   doc.CreatedAt.Time,
		CreatedDate: doc.CreatedDate,
		Tags:        []string(doc.Tags),
		PhotoURL:    doc.PhotoURL,
	}
	if e.AuthorID == "" {
		e.AuthorID = defaultAuthor
	}
	if e.AuthorID == "" {
		return core.Entry{}, fmt.Errorf("decode entry: no author")
	}
	if e.Text == "" {
		return core.Entry{}, fmt.Errorf("decode entry: text is empty")
	}
	if e.CreatedAt.IsZero() {
		return core.Entry{}, fmt.Errorf("decode entry: createdAt is missing")
	}

	switch {
	case doc.EntryType != "":
		e.Type = core.EntryType(doc.EntryType)
	case doc.QuickThought:
		e.Type = core.EntryQuickThought
	case doc.MeditationType != "":
		e.Type = core.EntryDailyReflection
	default:
		e.Type = core.EntryQuickThought
	}
	if e.Type != core.EntryQuickThought && e.Type != core.EntryDailyReflection {
		return core.Entry{}, fmt.Errorf("decode entry: unknown entry type %q", e.Type)
	}

	if doc.MeditationType != "" {
		e.Meditation = &core.MeditationContext{
			ID:              doc.MeditationType,
			Name:            doc.MeditationName,
			DurationMinutes: doc.MeditationDuration,
		}
	}
	triage := core.TriageAnswers{
		ThoughtCategories: pick(version, doc.ThoughtCategory, doc.ThoughtCategories),
		Thought:           doc.ThoughtContent,
		BodyLocations:     pick(version, doc.BodyLocation, doc.BodyLocations),
	}
	if len(triage.ThoughtCategories) > 0 || triage.Thought != "" || len(triage.BodyLocations) > 0 {
		e.Triage = &triage
	}

	if e.ID == "" {
		e.ID = derivedID("entry", e.AuthorID, formatTime(e.CreatedAt), e.Text)
	}
	return e, nil
}

// DecodeCapsule normalizes one exported time capsule document.
func DecodeCapsule(data []byte, defaultAuthor string) (core.Capsule, error) {
	var doc capsuleDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.Capsule{}, fmt.Errorf("decode capsule: %w", err)
	}
	version, err := documentVersion(doc.SchemaVersion)
	if err != nil {
		return core.Capsule{}, fmt.Errorf("decode capsule: %w", err)
	}

	c := core.Capsule{
		ID:                doc.ID,
		AuthorID:          doc.AuthorUID,
		Text:              strings.TrimSpace(doc.Text),
		Moods:             pick(version, doc.Mood, doc.Moods),
		Categories:        pick(version, doc.Category, doc.Categories),
		IncludeReply:      doc.IncludeReply,
		ReplyText:         doc.ReplyText,
		Status:            core.CapsuleStatus(doc.Status),
		CreatedAt:         doc.CreatedAt.Time,
		OpenDate:          doc.OpenDate.Time,
		OpenedAt:          doc.OpenedAt.ptr(),
		RepliedAt:         doc.RepliedAt.ptr(),
		OpenedPrematurely: doc.OpenedPrematurely,
	}
	if c.AuthorID == "" {
		c.AuthorID = defaultAuthor
	}
	if c.AuthorID == "" {
		return core.Capsule{}, fmt.Errorf("decode capsule: no author")
	}
	if c.Text == "" {
		return core.Capsule{}, fmt.Errorf("decode capsule: text is empty")
	}
	if c.OpenDate.IsZero() {
		return core.Capsule{}, fmt.Errorf("decode capsule: openDate is missing")
	}
	switch c.Status {
	case "":
		c.Status = core.CapsuleSealed
		if c.OpenedAt != nil {
			c.Status = core.CapsuleOpened
		}
	case core.CapsuleSealed, core.CapsuleOpened:
	default:
		return core.Capsule{}, fmt.Errorf("decode capsule: unknown status %q", c.Status)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.OpenDate
	}

	if c.ID == "" {
		c.ID = derivedID("capsule", c.AuthorID, formatTime(c.OpenDate), c.Text)
	}
	return c, nil
}

// ImportResult counts the outcome of a document import.
type ImportResult struct {
	Imported int
	Skipped  int
}

// ImportEntries reads newline-delimited entry documents from r and stores
// them. Documents already present are skipped. Decoding stops at the first
// malformed line, reporting its line number.
func (s *Store) ImportEntries(ctx context.Context, r io.Reader, defaultAuthor string) (ImportResult, error) {
	return importLines(ctx, r, "import entries", func(line []byte) (bool, error) {
		e, err := DecodeEntry(line, defaultAuthor)
		if err != nil {
			return false, err
		}
		return s.ImportEntry(ctx, e)
	})
}

// ImportCapsules reads newline-delimited capsule documents from r and stores them.
func (s *Store) ImportCapsules(ctx context.Context, r io.Reader, defaultAuthor string) (ImportResult, error) {
	return importLines(ctx, r, "import capsules", func(line []byte) (bool, error) {
		c, err := DecodeCapsule(line, defaultAuthor)
		if err != nil {
			return false, err
		}
		return s.ImportCapsule(ctx, c)
	})
}

func importLines(ctx context.Context, r io.Reader, op string, store func(line []byte) (bool, error)) (ImportResult, error) {
	var res ImportResult
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		inserted, err := store(line)
		if err != nil {
			return res, fmt.Errorf("%s: line %d: %w", op, lineNo, err)
		}
		if inserted {
			res.Imported++
		} else {
			res.Skipped++
		}
	}
	if err := sc.Err(); err != nil {
		return res, fmt.Errorf("%s: read: %w", op, err)
	}
	return res, nil
}
