package core

import (
	_ "embed"
	"fmt"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMeditationID is used when a requested meditation is unknown.
const DefaultMeditationID = "breath_focus"

// MeditationStep is one timed phase of a guided meditation script.
type MeditationStep struct {
	Title   string `yaml:"title"`
	Text    string `yaml:"text"`
	Seconds int    `yaml:"seconds"`
}

// Duration returns the step length.
func (s MeditationStep) Duration() time.Duration {
	return time.Duration(s.Seconds) * time.Second
}

// Meditation is a guided practice with the triage keywords it suits.
type Meditation struct {
	ID              string           `yaml:"id"`
	Name            string           `yaml:"name"`
	DurationMinutes int              `yaml:"duration"`
	Description     string           `yaml:"description"`
	MatchKeywords   []string         `yaml:"match"`
	Steps           []MeditationStep `yaml:"steps"`
}

// Context returns the record stored with a reflection entry.
func (m Meditation) Context() MeditationContext {
	return MeditationContext{ID: m.ID, Name: m.Name, DurationMinutes: m.DurationMinutes}
}

//go:embed meditations.yaml
var meditationsYAML []byte

var (
	libraryOnce sync.Once
	library     []Meditation
	libraryErr  error
)

// ParseMeditations decodes a YAML meditation library.
func ParseMeditations(data []byte) ([]Meditation, error) {
	var list []Meditation
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse meditations: %w", err)
	}
	seen := make(map[string]bool, len(list))
	for i, m := range list {
		if m.ID == "" {
			return nil, fmt.Errorf("parse meditations: entry %d has no id", i)
		}
		if seen[m.ID] {
			return nil, fmt.Errorf("parse meditations: duplicate id %q", m.ID)
		}
		seen[m.ID] = true
	}
	return list, nil
}

// Meditations returns the built-in library in its declared order.
func Meditations() ([]Meditation, error) {
	libraryOnce.Do(func() {
		library, libraryErr = ParseMeditations(meditationsYAML)
	})
	if libraryErr != nil {
		return nil, libraryErr
	}
	out := make([]Meditation, len(library))
	copy(out, library)
	return out, nil
}

// FindMeditation looks up a meditation by id, falling back to DefaultMeditationID.
// The boolean is false when the fallback was used.
func FindMeditation(id string) (Meditation, bool, error) {
	list, err := Meditations()
	if err != nil {
		return Meditation{}, false, err
	}
	var fallback Meditation
	for _, m := range list {
		if m.ID == id {
			return m, true, nil
		}
		if m.ID == DefaultMeditationID {
			fallback = m
		}
	}
	return fallback, false, nil
}

// ScoredMeditation pairs a meditation with its triage match score.
type ScoredMeditation struct {
	Meditation
	Score int
}

// SuggestMeditations ranks meditations against triage answers. Each matching
// body location or thought category is worth two points; ties keep library
// order. At most n results are returned.
func SuggestMeditations(list []Meditation, triage TriageAnswers, n int) []ScoredMeditation {
	scored := make([]ScoredMeditation, 0, len(list))
	for _, m := range list {
		keywords := make(map[string]bool, len(m.MatchKeywords))
		for _, k := range m.MatchKeywords {
			keywords[k] = true
		}
		score := 0
		for _, loc := range triage.BodyLocations {
			if keywords[loc] {
				score += 2
			}
		}
		for _, cat := range triage.ThoughtCategories {
			if keywords[cat] {
				score += 2
			}
		}
		scored = append(scored, ScoredMeditation{Meditation: m, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if n >= 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}
