package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Vocabulary is a closed set of label ids accepted for one field.
type Vocabulary struct {
	Field string
	IDs   []string
}

var (
	QuickThoughtMoods = Vocabulary{Field: "mood", IDs: []string{"happy", "calm", "grateful", "anxious", "tired", "frustrated"}}
	ReflectionMoods   = Vocabulary{Field: "mood", IDs: []string{"peaceful", "calm", "neutral", "hopeful", "grateful"}}
	EntryCategories   = Vocabulary{Field: "category", IDs: []string{"work", "relationship", "self", "gratitude", "moment"}}

	ThoughtCategories = Vocabulary{Field: "thought category", IDs: []string{"work", "relationship", "self", "family", "health", "future", "other"}}
	BodyLocations     = Vocabulary{Field: "body location", IDs: []string{"tense_shoulders", "jittery_stomach", "tight_chest", "racing_heart", "heavy_head", "calm_body", "tired_everywhere"}}
)

// Contains reports whether id is in the vocabulary.
func (v Vocabulary) Contains(id string) bool {
	for _, known := range v.IDs {
		if known == id {
			return true
		}
	}
	return false
}

// NormalizeLabel lowercases a label and maps spaces and dashes to underscores.
func NormalizeLabel(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	label = strings.NewReplacer(" ", "_", "-", "_").Replace(label)
	return label
}

// Validate normalizes label and checks it against the vocabulary. Unknown
// labels fail with ErrUnknownLabel and carry the closest suggestions.
func (v Vocabulary) Validate(label string) (string, error) {
	id := NormalizeLabel(label)
	if v.Contains(id) {
		return id, nil
	}
	suggestions := Suggest(id, v.IDs, 2)
	if len(suggestions) > 0 {
		return "", fmt.Errorf("%s %q: %w (did you mean %s?)", v.Field, label, ErrUnknownLabel, strings.Join(suggestions, " or "))
	}
	return "", fmt.Errorf("%s %q: %w (choose one of %s)", v.Field, label, ErrUnknownLabel, strings.Join(v.IDs, ", "))
}

// ValidateAll validates every label, dropping empty ones.
func (v Vocabulary) ValidateAll(labels []string) ([]string, error) {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if strings.TrimSpace(l) == "" {
			continue
		}
		id, err := v.Validate(l)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// suggestLimit scales the accepted edit distance with the candidate length.
func suggestLimit(n int) int {
	switch {
	case n <= 4:
		return 1
	case n <= 8:
		return 2
	default:
		return 3
	}
}

// Suggest returns up to max candidates closest to token, best first.
// Prefix matches rank ahead of edit-distance matches.
func Suggest(token string, candidates []string, max int) []string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" || max <= 0 {
		return nil
	}
	type scored struct {
		val  string
		dist int
	}
	results := make([]scored, 0, len(candidates))
	for _, cand := range candidates {
		c := strings.ToLower(cand)
		switch {
		case c == token:
			results = append(results, scored{val: cand, dist: -2})
		case strings.HasPrefix(c, token) && len(token) >= 2:
			results = append(results, scored{val: cand, dist: -1})
		default:
			dist := levenshtein.ComputeDistance(token, c)
			if dist > suggestLimit(len(c)) {
				continue
			}
			results = append(results, scored{val: cand, dist: dist})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].dist == results[j].dist {
			return results[i].val < results[j].val
		}
		return results[i].dist < results[j].dist
	})
	if len(results) > max {
		results = results[:max]
	}
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.val)
	}
	return out
}
