package core_test

import (
	"testing"
	"time"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func TestCapsuleDelivered_SealedUsesOpenDate(t *testing.T) {
	now := time.Now().UTC()
	c := core.Capsule{Status: core.CapsuleSealed, CreatedAt: now.Add(-10 * 24 * time.Hour), OpenDate: now.Add(time.Hour)}
	if core.CapsuleDelivered(c, now) {
		t.Fatalf("expected sealed capsule with future open date to be undelivered")
	}

	c.OpenDate = now.Add(-time.Minute)
	if !core.CapsuleDelivered(c, now) {
		t.Fatalf("expected sealed capsule with past open date to be delivered")
	}

	c.OpenDate = now
	if !core.CapsuleDelivered(c, now) {
		t.Fatalf("expected capsule to be delivered exactly at its open date")
	}
}

func TestCapsuleDelivered_OpenedEarly(t *testing.T) {
	now := time.Now().UTC()
	c := core.Capsule{Status: core.CapsuleOpened, OpenDate: now.Add(30 * 24 * time.Hour)}
	if !core.CapsuleDelivered(c, now) {
		t.Fatalf("expected opened capsule to be delivered regardless of open date")
	}
}

func TestCapsuleDelivered_UnknownStatusOrZeroDate(t *testing.T) {
	now := time.Now().UTC()
	if core.CapsuleDelivered(core.Capsule{Status: "lost", OpenDate: now.Add(-time.Hour)}, now) {
		t.Fatalf("expected unknown status to be undelivered")
	}
	if core.CapsuleDelivered(core.Capsule{Status: core.CapsuleSealed}, now) {
		t.Fatalf("expected zero open date to be undelivered")
	}
}

func TestMergeFeed_NewestFirstAndSkipsSealed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opened := now.Add(-30 * time.Minute)
	entries := []core.Entry{
		{ID: "e1", CreatedAt: now.Add(-3 * time.Hour)},
		{ID: "e2", CreatedAt: now.Add(-time.Hour)},
	}
	capsules := []core.Capsule{
		{ID: "sealed", Status: core.CapsuleSealed, OpenDate: now.Add(time.Hour)},
		{ID: "due", Status: core.CapsuleSealed, OpenDate: now.Add(-2 * time.Hour)},
		{ID: "early", Status: core.CapsuleOpened, OpenDate: now.Add(48 * time.Hour), OpenedAt: &opened},
	}

	feed := core.MergeFeed(entries, capsules, now)
	var got []string
	for _, item := range feed {
		if item.Entry != nil {
			got = append(got, item.Entry.ID)
		} else {
			got = append(got, item.Capsule.ID)
		}
	}
	want := []string{"early", "e2", "due", "e1"}
	if len(got) != len(want) {
		t.Fatalf("feed = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("feed = %v, want %v", got, want)
		}
	}
}

func TestDayRange_CoversWholeLocalDay(t *testing.T) {
	loc := time.FixedZone("test", -5*3600)
	now := time.Date(2026, 3, 1, 8, 30, 0, 0, loc)

	start, end := core.DayRange(now, 1)
	if !start.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, loc)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2026, 2, 28, 23, 59, 59, 999999999, loc)) {
		t.Fatalf("end = %v", end)
	}

	start, _ = core.DayRange(now, 365)
	if !start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, loc)) {
		t.Fatalf("year ago start = %v", start)
	}
}
