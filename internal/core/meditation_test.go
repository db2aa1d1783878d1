package core_test

import (
	"testing"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func TestMeditations_LibraryLoads(t *testing.T) {
	list, err := core.Meditations()
	if err != nil {
		t.Fatalf("meditations: %v", err)
	}
	if len(list) != 5 {
		t.Fatalf("library has %d meditations, want 5", len(list))
	}
	for _, m := range list {
		if len(m.Steps) == 0 {
			t.Fatalf("meditation %q has no steps", m.ID)
		}
		for _, st := range m.Steps {
			if st.Duration() <= 0 || st.Text == "" {
				t.Fatalf("meditation %q has an empty step %+v", m.ID, st)
			}
		}
	}
	if list[0].ID != "body_scan" {
		t.Fatalf("first meditation = %q, want body_scan", list[0].ID)
	}
}

func TestSuggestMeditations_ScoresMatches(t *testing.T) {
	list, err := core.Meditations()
	if err != nil {
		t.Fatalf("meditations: %v", err)
	}

	got := core.SuggestMeditations(list, core.TriageAnswers{
		BodyLocations:     []string{"racing_heart"},
		ThoughtCategories: []string{"work"},
	}, 3)
	if len(got) != 3 {
		t.Fatalf("got %d suggestions, want 3", len(got))
	}
	if got[0].ID != "grounding" || got[0].Score != 4 {
		t.Fatalf("top suggestion = %s (%d), want grounding (4)", got[0].ID, got[0].Score)
	}
	if got[1].ID != "breath_focus" || got[2].ID != "thought_observation" {
		t.Fatalf("runners up = %s, %s", got[1].ID, got[2].ID)
	}
}

func TestSuggestMeditations_TiesKeepLibraryOrder(t *testing.T) {
	list, _ := core.Meditations()
	got := core.SuggestMeditations(list, core.TriageAnswers{}, 3)
	want := []string{"body_scan", "breath_focus", "thought_observation"}
	for i, m := range got {
		if m.ID != want[i] || m.Score != 0 {
			t.Fatalf("suggestion %d = %s (%d), want %s (0)", i, m.ID, m.Score, want[i])
		}
	}
}

func TestFindMeditation_FallsBackToBreathFocus(t *testing.T) {
	m, ok, err := core.FindMeditation("levitation")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if ok || m.ID != core.DefaultMeditationID {
		t.Fatalf("FindMeditation(unknown) = %s, %v", m.ID, ok)
	}

	m, ok, _ = core.FindMeditation("loving_kindness")
	if !ok || m.Name != "Loving Kindness" {
		t.Fatalf("FindMeditation(loving_kindness) = %s, %v", m.Name, ok)
	}
}

func TestParseMeditations_RejectsDuplicates(t *testing.T) {
	_, err := core.ParseMeditations([]byte("- id: a\n- id: a\n"))
	if err == nil {
		t.Fatalf("expected duplicate ids to fail")
	}
}
