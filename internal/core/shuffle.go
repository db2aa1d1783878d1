package core

import "math/rand/v2"

// Shuffle returns a uniformly random permutation of items using Fisher-Yates.
// The input slice is not modified. A nil rng draws from the global source.
func Shuffle[T any](items []T, rng *rand.Rand) []T {
	shuffled := make([]T, len(items))
	copy(shuffled, items)

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	for i := len(shuffled) - 1; i > 0; i-- {
		j := intN(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
