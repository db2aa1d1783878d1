package core_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func TestVocabularyValidate_NormalizesKnownLabels(t *testing.T) {
	id, err := core.BodyLocations.Validate("Tense Shoulders")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id != "tense_shoulders" {
		t.Fatalf("id = %q, want tense_shoulders", id)
	}
}

func TestVocabularyValidate_SuggestsCloseMatch(t *testing.T) {
	_, err := core.QuickThoughtMoods.Validate("gratefull")
	if !errors.Is(err, core.ErrUnknownLabel) {
		t.Fatalf("err = %v, want ErrUnknownLabel", err)
	}
	if !strings.Contains(err.Error(), "grateful") {
		t.Fatalf("error %q does not suggest grateful", err)
	}
}

func TestVocabularyValidate_ListsChoicesWhenNothingIsClose(t *testing.T) {
	_, err := core.ReflectionMoods.Validate("xyzzy")
	if !errors.Is(err, core.ErrUnknownLabel) {
		t.Fatalf("err = %v, want ErrUnknownLabel", err)
	}
	if !strings.Contains(err.Error(), "peaceful") {
		t.Fatalf("error %q does not list choices", err)
	}
}

func TestVocabularyValidateAll_SkipsBlank(t *testing.T) {
	ids, err := core.ThoughtCategories.ValidateAll([]string{"work", " ", "Family"})
	if err != nil {
		t.Fatalf("validate all: %v", err)
	}
	if len(ids) != 2 || ids[0] != "work" || ids[1] != "family" {
		t.Fatalf("ids = %v", ids)
	}
}

func TestSuggest_PrefixBeforeDistance(t *testing.T) {
	got := core.Suggest("cal", []string{"calm", "call", "tall"}, 3)
	if len(got) < 2 || got[0] != "call" || got[1] != "calm" {
		t.Fatalf("Suggest = %v", got)
	}
	if got := core.Suggest("", []string{"calm"}, 2); got != nil {
		t.Fatalf("Suggest(empty) = %v, want nil", got)
	}
}
