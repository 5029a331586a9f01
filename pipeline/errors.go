package pipeline

import "errors"

var (
	// ErrStoreRequired is returned when a cache store is not provided.
	ErrStoreRequired = errors.New("cache store required")

	// ErrEmbedderRequired is returned when an embedder is not provided.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInserterRequired is returned when a vector index inserter is not provided.
	ErrInserterRequired = errors.New("vector index inserter required")

	// ErrNoLessons is returned when a run is started with an empty lesson list.
	ErrNoLessons = errors.New("no lessons to process")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
