// Package checkin records journal check-ins and grows the author's plant.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jacksakers/ProjectReflect/internal/core"
	"github.com/jacksakers/ProjectReflect/internal/garden"
)

// EntryStore persists journal entries.
type EntryStore interface {
	CreateEntry(ctx context.Context, e core.Entry) (core.Entry, error)
	ListEntries(ctx context.Context, authorID string, limit, offset int) ([]core.Entry, error)
	EntriesBetween(ctx context.Context, authorID string, start, end time.Time) ([]core.Entry, error)
}

// CapsuleStore reads time capsules for the journal views.
type CapsuleStore interface {
	ListCapsules(ctx context.Context, authorID string) ([]core.Capsule, error)
	OpenedCapsulesBetween(ctx context.Context, authorID string, start, end time.Time) ([]core.Capsule, error)
}

// Grower awards points to a user's plant.
type Grower interface {
	AddPoints(ctx context.Context, userID string, delta int) (garden.Outcome, error)
}

// Points are the awards per check-in kind.
type Points struct {
	QuickThought int
	Reflection   int
}

// DefaultPoints returns the standard awards.
func DefaultPoints() Points {
	return Points{QuickThought: core.QuickThoughtPoints, Reflection: core.ReflectionPoints}
}

// Service records check-ins.
type Service struct {
	entries  EntryStore
	capsules CapsuleStore
	grower   Grower
	points   Points
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPoints overrides the awards. Non-positive values keep the default.
func WithPoints(p Points) Option {
	return func(s *Service) {
		if p.QuickThought > 0 {
			s.points.QuickThought = p.QuickThought
		}
		if p.Reflection > 0 {
			s.points.Reflection = p.Reflection
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service.
func New(entries EntryStore, capsules CapsuleStore, grower Grower, opts ...Option) *Service {
	s := &Service{
		entries:  entries,
		capsules: capsules,
		grower:   grower,
		points:   DefaultPoints(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QuickThoughtInput is a short check-in with optional mood and category.
type QuickThoughtInput struct {
	Text     string
	Mood     string
	Category string
}

// ReflectionInput is the outcome of a guided reflection session.
type ReflectionInput struct {
	Text         string
	Mood         string
	MeditationID string
	Triage       core.TriageAnswers
}

// Result is a saved check-in. Awarded is false when the entry was saved but
// the points could not be applied; the returned error then describes why.
type Result struct {
	Entry   core.Entry
	Points  int
	Awarded bool
	Garden  garden.Outcome
}

// QuickThought saves a quick thought and awards its points.
func (s *Service) QuickThought(ctx context.Context, userID string, in QuickThoughtInput) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, fmt.Errorf("quick thought: text is empty")
	}

	e := core.Entry{AuthorID: userID, Text: text, Type: core.EntryQuickThought}
	if strings.TrimSpace(in.Mood) != "" {
		mood, err := core.QuickThoughtMoods.Validate(in.Mood)
		if err != nil {
			return Result{}, fmt.Errorf("quick thought: %w", err)
		}
		e.Moods = []string{mood}
	}
	if strings.TrimSpace(in.Category) != "" {
		category, err := core.EntryCategories.Validate(in.Category)
		if err != nil {
			return Result{}, fmt.Errorf("quick thought: %w", err)
		}
		e.Categories = []string{category}
	}

	return s.record(ctx, "quick thought", e, s.points.QuickThought)
}

// Reflection saves a daily reflection with its meditation and triage
// context and awards its points.
func (s *Service) Reflection(ctx context.Context, userID string, in ReflectionInput) (Result, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Result{}, fmt.Errorf("reflection: text is empty")
	}
	if strings.TrimSpace(in.Mood) == "" {
		return Result{}, fmt.Errorf("reflection: mood is required (choose one of %s)", strings.Join(core.ReflectionMoods.IDs, ", "))
	}
	mood, err := core.ReflectionMoods.Validate(in.Mood)
	if err != nil {
		return Result{}, fmt.Errorf("reflection: %w", err)
	}

	e := core.Entry{AuthorID: userID, Text: text, Type: core.EntryDailyReflection, Moods: []string{mood}}

	triage, err := validateTriage(in.Triage)
	if err != nil {
		return Result{}, fmt.Errorf("reflection: %w", err)
	}
	e.Triage = triage

	if in.MeditationID != "" {
		m, found, err := core.FindMeditation(in.MeditationID)
		if err != nil {
			return Result{}, fmt.Errorf("reflection: %w", err)
		}
		if !found {
			s.logger.Warn("checkin: unknown meditation, recording default", "meditation", in.MeditationID, "default", m.ID)
		}
		ctxRec := m.Context()
		e.Meditation = &ctxRec
	}

	return s.record(ctx, "reflection", e, s.points.Reflection)
}

func validateTriage(t core.TriageAnswers) (*core.TriageAnswers, error) {
	cats, err := core.ThoughtCategories.ValidateAll(t.ThoughtCategories)
	if err != nil {
		return nil, err
	}
	locs, err := core.BodyLocations.ValidateAll(t.BodyLocations)
	if err != nil {
		return nil, err
	}
	out := core.TriageAnswers{Thought: strings.TrimSpace(t.Thought)}
	if len(cats) > 0 {
		out.ThoughtCategories = cats
	}
	if len(locs) > 0 {
		out.BodyLocations = locs
	}
	if out.Thought == "" && out.ThoughtCategories == nil && out.BodyLocations == nil {
		return nil, nil
	}
	return &out, nil
}

// record saves the entry first so a points failure never loses it.
func (s *Service) record(ctx context.Context, op string, e core.Entry, points int) (Result, error) {
	e.CreatedAt = s.now()
	saved, err := s.entries.CreateEntry(ctx, e)
	if err != nil {
		return Result{}, fmt.Errorf("%s: save entry: %w", op, err)
	}

	res := Result{Entry: saved, Points: points}
	outcome, err := s.grower.AddPoints(ctx, saved.AuthorID, points)
	if err != nil {
		s.logger.Warn("checkin: entry saved but points not awarded",
			"user", saved.AuthorID, "entry", saved.ID, "points", points, "err", err)
		return res, fmt.Errorf("%s: entry %s saved, award points: %w", op, saved.ID, err)
	}
	res.Awarded = true
	res.Garden = outcome
	return res, nil
}
