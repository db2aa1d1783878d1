package core_test

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/jacksakers/ProjectReflect/internal/core"
)

func TestShuffle_IsPermutation(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	input := []string{"cosmic_rose", "golden_fern", "midnight_lily", "sunrise_tulip", "golden_fern"}
	original := slices.Clone(input)

	for i := 0; i < 50; i++ {
		out := core.Shuffle(input, rng)
		if !slices.Equal(input, original) {
			t.Fatalf("input mutated: %v", input)
		}
		a := slices.Clone(out)
		b := slices.Clone(original)
		slices.Sort(a)
		slices.Sort(b)
		if !slices.Equal(a, b) {
			t.Fatalf("Shuffle output %v is not a permutation of %v", out, original)
		}
	}
}

func TestShuffle_EmptyAndSingle(t *testing.T) {
	if out := core.Shuffle([]int{}, nil); len(out) != 0 {
		t.Fatalf("Shuffle(empty) = %v", out)
	}
	if out := core.Shuffle([]int{7}, nil); len(out) != 1 || out[0] != 7 {
		t.Fatalf("Shuffle([7]) = %v", out)
	}
	if out := core.Shuffle[int](nil, nil); out == nil || len(out) != 0 {
		t.Fatalf("Shuffle(nil) = %#v, want empty non-nil slice", out)
	}
}

func TestShuffle_Uniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	const trials = 60000
	counts := map[string]int{}
	for i := 0; i < trials; i++ {
		out := core.Shuffle([]string{"a", "b", "c"}, rng)
		counts[strings.Join(out, "")]++
	}
	if len(counts) != 6 {
		t.Fatalf("saw %d permutations, want 6: %v", len(counts), counts)
	}
	expected := trials / 6
	for perm, n := range counts {
		// 5% tolerance is far outside the sampling noise for 10000 expected hits.
		if n < expected*95/100 || n > expected*105/100 {
			t.Fatalf("permutation %s seen %d times, want about %d", perm, n, expected)
		}
	}
}
