package core

import "errors"

var (
	// ErrInvalidThreshold is returned when a bloom threshold is not positive.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrInvalidDelta is returned when a point delta is not positive.
	ErrInvalidDelta = errors.New("invalid point delta")

	// ErrNoActivePlantTypes is returned when the catalog has no active entries to draw from.
	ErrNoActivePlantTypes = errors.New("no active plant types")

	// ErrPersistence wraps failures writing to or reading from the store.
	ErrPersistence = errors.New("persistence failure")

	// ErrCatalogReadDegraded marks a catalog read that failed and was recovered with defaults.
	ErrCatalogReadDegraded = errors.New("catalog read degraded")

	// ErrConflict is returned when a compare-and-swap save loses to a concurrent writer.
	ErrConflict = errors.New("revision conflict")

	ErrNotFound = errors.New("not found")

	// ErrUnknownLabel is returned for moods or categories outside the vocabulary.
	ErrUnknownLabel = errors.New("unknown label")

	// ErrCapsuleSealed is returned when replying to a capsule that is not yet delivered.
	ErrCapsuleSealed = errors.New("capsule is still sealed")

	ErrInvalidOpenDate = errors.New("open date must be in the future")
)
