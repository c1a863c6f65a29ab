package ai

import "errors"

var (
	// ErrMissingAPIKey indicates no embedding API credential is configured.
	// Operations that need the provider fail with this tagged error rather
	// than crashing the process.
	ErrMissingAPIKey = errors.New("embedding api key not configured")

	// ErrProvider indicates the upstream embedding API returned a non-success
	// status or a malformed payload. Recoverable; callers decide whether to retry.
	ErrProvider = errors.New("embedding provider error")

	// ErrEmptyEmbedding indicates the provider returned no vector data.
	ErrEmptyEmbedding = errors.New("empty embedding result")
)
