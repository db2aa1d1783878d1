package storage_test

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/storage"
)

func TestDecodeEntry_VersionOneSingularFields(t *testing.T) {
	doc := `{
		"authorUid": "u1",
		"text": "  long day  ",
		"mood": "peaceful",
		"createdAt": {"seconds": 1767225600, "nanoseconds": 500},
		"createdDate": "2026-01-01",
		"entryType": "daily_reflection",
		"meditationType": "body_scan",
		"meditationName": "Body Scan",
		"meditationDuration": 5,
		"thoughtCategory": "work",
		"thoughtContent": "the review",
		"bodyLocation": "tense_shoulders",
		"photoUrl": null,
		"tags": []
	}`
	e, err := storage.DecodeEntry([]byte(doc), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Text != "long day" || e.Type != core.EntryDailyReflection {
		t.Fatalf("entry = %+v", e)
	}
	if !slices.Equal(e.Moods, []string{"peaceful"}) || e.Categories != nil {
		t.Fatalf("moods=%v categories=%v", e.Moods, e.Categories)
	}
	if !e.CreatedAt.Equal(time.Unix(1767225600, 500)) {
		t.Fatalf("created_at = %v", e.CreatedAt)
	}
	if e.Meditation == nil || e.Meditation.ID != "body_scan" || e.Meditation.DurationMinutes != 5 {
		t.Fatalf("meditation = %+v", e.Meditation)
	}
	if e.Triage == nil || !slices.Equal(e.Triage.ThoughtCategories, []string{"work"}) || !slices.Equal(e.Triage.BodyLocations, []string{"tense_shoulders"}) {
		t.Fatalf("triage = %+v", e.Triage)
	}
	if e.ID == "" {
		t.Fatalf("no derived id")
	}
}

func TestDecodeEntry_VersionTwoArrays(t *testing.T) {
	doc := `{
		"schemaVersion": 2,
		"id": "e-42",
		"authorUid": "u1",
		"text": "busy mind",
		"moods": ["calm", "hopeful"],
		"categories": ["work"],
		"createdAt": "2026-02-03T04:05:06.789Z",
		"thoughtCategories": ["work", "future"],
		"bodyLocations": ["tight_chest", "racing_heart"],
		"meditationType": "breath_focus"
	}`
	e, err := storage.DecodeEntry([]byte(doc), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.ID != "e-42" || e.Type != core.EntryDailyReflection {
		t.Fatalf("entry = %+v", e)
	}
	if !slices.Equal(e.Moods, []string{"calm", "hopeful"}) || !slices.Equal(e.Triage.BodyLocations, []string{"tight_chest", "racing_heart"}) {
		t.Fatalf("moods=%v body=%v", e.Moods, e.Triage.BodyLocations)
	}
	if e.CreatedDate != "" {
		t.Fatalf("created_date = %q, want it left for the store to fill", e.CreatedDate)
	}
}

func TestDecodeEntry_UnionAcceptsEitherShape(t *testing.T) {
	// A v1 document that already stores a list, and a v2 document that
	// still carries the singular field.
	cases := map[string]string{
		"v1 list":     `{"authorUid":"u","text":"t","createdAt":"2026-01-01","mood":["happy","tired"]}`,
		"v2 singular": `{"schemaVersion":2,"authorUid":"u","text":"t","createdAt":"2026-01-01","mood":"happy","moods":null}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			e, err := storage.DecodeEntry([]byte(doc), "")
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(e.Moods) == 0 || e.Moods[0] != "happy" {
				t.Fatalf("moods = %v", e.Moods)
			}
			if e.Type != core.EntryQuickThought {
				t.Fatalf("type = %q", e.Type)
			}
		})
	}
}

func TestDecodeEntry_Rejects(t *testing.T) {
	cases := map[string]string{
		"no text":          `{"authorUid":"u","createdAt":"2026-01-01T00:00:00Z"}`,
		"no author":        `{"text":"t","createdAt":"2026-01-01T00:00:00Z"}`,
		"no created":       `{"authorUid":"u","text":"t"}`,
		"future version":   `{"schemaVersion":9,"authorUid":"u","text":"t","createdAt":"2026-01-01T00:00:00Z"}`,
		"bad timestamp":    `{"authorUid":"u","text":"t","createdAt":"yesterday"}`,
		"bad mood":         `{"authorUid":"u","text":"t","createdAt":"2026-01-01T00:00:00Z","mood":7}`,
		"bad entry type":   `{"authorUid":"u","text":"t","createdAt":"2026-01-01T00:00:00Z","entryType":"poem"}`,
		"timestamp object": `{"authorUid":"u","text":"t","createdAt":{"nanoseconds":1}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := storage.DecodeEntry([]byte(doc), ""); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestDecodeEntry_DefaultAuthorAndStableID(t *testing.T) {
	doc := []byte(`{"text":"same","createdAt":{"_seconds":1767225600,"_nanoseconds":0},"quickThought":true}`)
	a, err := storage.DecodeEntry(doc, "local")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := storage.DecodeEntry(doc, "local")
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if a.AuthorID != "local" || a.ID != b.ID {
		t.Fatalf("a=%+v b=%+v", a, b)
	}
}

func TestDecodeCapsule(t *testing.T) {
	doc := `{
		"authorUid": "u1",
		"text": "remember this",
		"mood": "hopeful",
		"category": null,
		"includeReply": true,
		"replyText": "",
		"createdAt": {"seconds": 1767225600, "nanoseconds": 0},
		"openDate": {"seconds": 1769904000, "nanoseconds": 0},
		"openedAt": {"seconds": 1769990400, "nanoseconds": 0},
		"repliedAt": null,
		"openedPrematurely": false
	}`
	c, err := storage.DecodeCapsule([]byte(doc), "")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Status != core.CapsuleOpened || c.OpenedAt == nil || c.RepliedAt != nil {
		t.Fatalf("capsule = %+v", c)
	}
	if !c.OpenDate.Equal(time.Unix(1769904000, 0)) || !slices.Equal(c.Moods, []string{"hopeful"}) || c.Categories != nil {
		t.Fatalf("capsule = %+v", c)
	}

	if _, err := storage.DecodeCapsule([]byte(`{"authorUid":"u","text":"x"}`), ""); err == nil {
		t.Fatalf("expected error for missing openDate")
	}
	if _, err := storage.DecodeCapsule([]byte(`{"authorUid":"u","text":"x","openDate":"2026-01-01","status":"lost"}`), ""); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestStore_ImportEntriesSkipsDuplicates(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	lines := strings.Join([]string{
		`{"id":"a","authorUid":"u1","text":"one","createdAt":"2026-01-01T10:00:00Z"}`,
		``,
		`{"id":"b","authorUid":"u1","text":"two","createdAt":"2026-01-02T10:00:00Z","mood":"calm"}`,
	}, "\n")

	res, err := st.ImportEntries(ctx, strings.NewReader(lines), "u1")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 2 || res.Skipped != 0 {
		t.Fatalf("first import = %+v", res)
	}

	res, err = st.ImportEntries(ctx, strings.NewReader(lines), "u1")
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if res.Imported != 0 || res.Skipped != 2 {
		t.Fatalf("second import = %+v", res)
	}

	got, err := st.GetEntry(ctx, "u1", "b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !slices.Equal(got.Moods, []string{"calm"}) {
		t.Fatalf("moods = %v", got.Moods)
	}
}

func TestStore_ImportEntriesReportsBadLine(t *testing.T) {
	st, _ := openTestStore(t)
	lines := `{"id":"a","authorUid":"u1","text":"one","createdAt":"2026-01-01T10:00:00Z"}` + "\n" + `{not json`

	res, err := st.ImportEntries(context.Background(), strings.NewReader(lines), "u1")
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Fatalf("err = %v, want line 2 error", err)
	}
	if res.Imported != 1 {
		t.Fatalf("imported = %d, want 1", res.Imported)
	}
}

func TestStore_ImportCapsules(t *testing.T) {
	st, _ := openTestStore(t)
	ctx := context.Background()

	// Past open dates are allowed on import.
	lines := `{"id":"c1","authorUid":"u1","text":"old","openDate":"2025-06-01T00:00:00Z","createdAt":"2025-01-01T00:00:00Z"}`
	res, err := st.ImportCapsules(ctx, strings.NewReader(lines), "")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if res.Imported != 1 {
		t.Fatalf("result = %+v", res)
	}
	c, err := st.GetCapsule(ctx, "u1", "c1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if c.Status != core.CapsuleSealed || !core.CapsuleDelivered(c, testNow) {
		t.Fatalf("capsule = %+v", c)
	}
}
