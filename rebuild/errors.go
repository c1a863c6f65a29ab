package rebuild

import "errors"

var (
	// ErrSourceRequired is returned when a content source is not provided.
	ErrSourceRequired = errors.New("content source required")

	// ErrIndexerRequired is returned when an indexer is not provided.
	ErrIndexerRequired = errors.New("indexer required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
