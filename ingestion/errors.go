package ingestion

import "errors"

var (
	// ErrRepositoryRequired is returned when an embedding repository is not provided.
	ErrRepositoryRequired = errors.New("embedding repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrEmbeddingUnavailable is returned when the embedding provider fails.
	// Nothing is persisted; the source record stays intact and callers may
	// treat the failure as a warning and retry later.
	ErrEmbeddingUnavailable = errors.New("embedding unavailable")
)
