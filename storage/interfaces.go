package storage

import (
	"context"

	"github.com/poiesic/brainbase/core"
)

// SimilarityQuery describes one scoped cosine-similarity ranking.
// TenantId and Scope are required; ScopeId and ContentType narrow the
// candidate set further when non-nil.
type SimilarityQuery struct {
	TenantId      core.ID
	Scope         core.ScopeKind
	ScopeId       *core.ID
	ContentType   *core.ContentType
	Vector        []float32
	MinSimilarity float32 // Candidates below this similarity are dropped
	Limit         int     // Maximum number of results
}

// EmbeddingRepository provides operations for managing embedding records.
// Implementations must be thread-safe and support concurrent access.
// Every operation is scoped by tenant; no call can touch another tenant's rows.
type EmbeddingRepository interface {
	// Upsert atomically replaces the live record for the tuple
	// (TenantId, Scope, ScopeId, ContentType, ContentId).
	// When a prior record exists its Id and CreatedAt are kept and the
	// content and vector are replaced; otherwise a new Id is assigned.
	// UpdatedAt is always set. Returns the stored record.
	Upsert(ctx context.Context, record *core.EmbeddingRecord) (*core.EmbeddingRecord, error)

	// Insert adds records without tuple-identity handling. Used for chunk
	// fragments, whose deterministic content-hash Ids make re-insertion
	// idempotent. Records with Id == 0 get sequence-generated Ids.
	Insert(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error)

	// Get retrieves a single record by tenant and id.
	// Returns ErrNotFound if the record doesn't exist.
	Get(ctx context.Context, tenant core.ID, id core.ID) (*core.EmbeddingRecord, error)

	// DeleteByScope removes every record for a company or project scope.
	// Used on project deletion. Idempotent; returns the number removed.
	DeleteByScope(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (int, error)

	// DeleteByType removes every record of one content type within a scope.
	// Used before a metadata re-save. Idempotent; returns the number removed.
	DeleteByType(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, contentType core.ContentType) (int, error)

	// DeleteByContentID removes the record(s) tied to one source row.
	// Used on document delete. Idempotent; returns the number removed.
	DeleteByContentID(ctx context.Context, tenant core.ID, contentId core.ID) (int, error)

	// ReplaceByTypes removes every record of the given content types within
	// a scope and inserts the replacements in the same transaction, so two
	// concurrent replacements of one scope serialize instead of leaving a
	// mix of both sets. Returns the number removed.
	ReplaceByTypes(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, types []core.ContentType, records ...*core.EmbeddingRecord) (int, error)

	// FindSimilar ranks the tenant's candidate records by cosine similarity
	// against query.Vector. Results are ordered by similarity descending,
	// ties broken by CreatedAt descending, truncated to query.Limit.
	FindSimilar(ctx context.Context, query *SimilarityQuery) ([]*core.SearchResult, error)

	// CountByTenant returns the number of live records a tenant holds.
	CountByTenant(ctx context.Context, tenant core.ID) (int, error)

	// Close releases resources held by the repository.
	Close() error
}
