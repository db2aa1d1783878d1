package core

import (
	"sort"
	"time"
)

// DateLayout is the calendar-day format stored alongside entries.
const DateLayout = "2006-01-02"

// CapsuleDelivered reports whether a capsule is readable at time now.
func CapsuleDelivered(capsule Capsule, now time.Time) bool {
	switch capsule.Status {
	case CapsuleOpened:
		return true
	case CapsuleSealed:

	default:
		return false
	}

	if capsule.OpenDate.IsZero() {
		return false
	}
	return !now.Before(capsule.OpenDate)
}

// SplitCapsules partitions capsules into sealed and delivered, keeping input order.
func SplitCapsules(capsules []Capsule, now time.Time) (sealed, delivered []Capsule) {
	sealed = make([]Capsule, 0)
	delivered = make([]Capsule, 0)
	for _, c := range capsules {
		if CapsuleDelivered(c, now) {
			delivered = append(delivered, c)
		} else {
			sealed = append(sealed, c)
		}
	}
	return sealed, delivered
}

// FeedTime is the moment a delivered capsule appears in the journal.
func (c Capsule) FeedTime() time.Time {
	if c.OpenedAt != nil {
		return *c.OpenedAt
	}
	return c.OpenDate
}

// FeedItem is one row of the combined journal: exactly one of Entry or Capsule is set.
type FeedItem struct {
	At      time.Time
	Entry   *Entry
	Capsule *Capsule
}

// MergeFeed combines entries with delivered capsules, newest first.
func MergeFeed(entries []Entry, capsules []Capsule, now time.Time) []FeedItem {
	items := make([]FeedItem, 0, len(entries)+len(capsules))
	for i := range entries {
		items = append(items, FeedItem{At: entries[i].CreatedAt, Entry: &entries[i]})
	}
	for i := range capsules {
		if !CapsuleDelivered(capsules[i], now) {
			continue
		}
		items = append(items, FeedItem{At: capsules[i].FeedTime(), Capsule: &capsules[i]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].At.After(items[j].At)
	})
	return items
}

// Period is a look-back window used by the "on this day" view.
type Period struct {
	Key     string
	Label   string
	DaysAgo int
}

// OnThisDayPeriods lists the look-back windows in display order.
var OnThisDayPeriods = []Period{
	{Key: "yesterday", Label: "Yesterday", DaysAgo: 1},
	{Key: "week_ago", Label: "One week ago", DaysAgo: 7},
	{Key: "month_ago", Label: "One month ago", DaysAgo: 30},
	{Key: "year_ago", Label: "One year ago", DaysAgo: 365},
}

// DayRange returns the start and inclusive end of the local calendar day
// daysAgo days before now.
func DayRange(now time.Time, daysAgo int) (start, end time.Time) {
	target := now.AddDate(0, 0, -daysAgo)
	start = time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, now.Location())
	end = start.AddDate(0, 0, 1).Add(-time.Nanosecond)
	return start, end
}
