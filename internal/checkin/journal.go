package checkin

import (
	"context"
	"fmt"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

// Feed returns the newest limit journal items: entries merged with
// delivered time capsules.
func (s *Service) Feed(ctx context.Context, userID string, limit int) ([]core.FeedItem, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("feed: limit must be > 0")
	}
	entries, err := s.entries.ListEntries(ctx, userID, limit, 0)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	capsules, err := s.capsules.ListCapsules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}

	items := core.MergeFeed(entries, capsules, s.now())
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// Memory is what was written during one look-back window.
type Memory struct {
	Period core.Period
	Items  []core.FeedItem
}

// OnThisDay returns the windows of core.OnThisDayPeriods that hold at least
// one entry or opened capsule, in display order.
func (s *Service) OnThisDay(ctx context.Context, userID string) ([]Memory, error) {
	now := s.now()
	memories := make([]Memory, 0, len(core.OnThisDayPeriods))
	for _, p := range core.OnThisDayPeriods {
		start, end := core.DayRange(now, p.DaysAgo)
		entries, err := s.entries.EntriesBetween(ctx, userID, start, end)
		if err != nil {
			return nil, fmt.Errorf("on this day: %s: %w", p.Key, err)
		}
		capsules, err := s.capsules.OpenedCapsulesBetween(ctx, userID, start, end)
		if err != nil {
			return nil, fmt.Errorf("on this day: %s: %w", p.Key, err)
		}
		items := core.MergeFeed(entries, capsules, now)
		if len(items) == 0 {
			continue
		}
		memories = append(memories, Memory{Period: p, Items: items})
	}
	return memories, nil
}
