package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/brainbase/ai"
	"github.com/poiesic/brainbase/chunk"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/storage"
)

// Indexer is the write path into the embedding store. It embeds content
// that arrives without a vector and routes records to the repository's
// upsert or insert depending on whether they carry a tuple identity.
type Indexer struct {
	repository   storage.EmbeddingRepository
	embedder     ai.Embedder
	maxChunkSize int
	logger       *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithMaxChunkSize sets the soft character bound used when splitting
// context text. Default is chunk.DefaultMaxChunkSize.
func WithMaxChunkSize(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			return fmt.Errorf("chunk size must be positive, got %d", size)
		}
		ix.maxChunkSize = size
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger == nil {
			logger = slog.Default()
		}
		ix.logger = logger.With("component", "indexer")
		return nil
	}
}

// NewIndexer creates a new Indexer.
func NewIndexer(repository storage.EmbeddingRepository, provider ai.AIProvider, opts ...Option) (*Indexer, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	ix := &Indexer{
		repository:   repository,
		embedder:     provider.Embedder(),
		maxChunkSize: chunk.DefaultMaxChunkSize,
		logger:       slog.Default().With("component", "indexer"),
	}

	for _, opt := range opts {
		if err := opt(ix); err != nil {
			return nil, err
		}
	}

	return ix, nil
}

// Store validates the record, embeds its content when no vector is set,
// and persists it. On provider failure nothing is persisted and the
// returned error wraps ErrEmbeddingUnavailable; callers log it as a
// warning rather than failing their own save.
func (ix *Indexer) Store(ctx context.Context, record *core.EmbeddingRecord) error {
	if err := core.ValidateEmbeddingRecord(record, ix.embedder.Dimensions()); err != nil {
		return err
	}

	if len(record.Embedding) == 0 {
		vector, err := ix.embedder.EmbedText(ctx, record.Content)
		if err != nil {
			ix.logger.Warn("embedding generation failed, record not persisted",
				"tenant", record.TenantId, "content_type", record.ContentType.String(), "err", err)
			return fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
		}
		record.Embedding = vector
	}

	if record.HasTuple() {
		_, err := ix.repository.Upsert(ctx, record)
		return err
	}
	_, err := ix.repository.Insert(ctx, record)
	return err
}

// StoreContext replaces a scope's free-form context embeddings. The prior
// additional_context and document_chunk rows for the scope are removed,
// the text is split into paragraph chunks, and one fragment record per
// chunk is inserted with a deterministic content-hash Id. Returns the
// number of fragments stored.
//
// Embedding happens before the delete, so a provider outage leaves the
// old fragments in place rather than wiping the scope.
func (ix *Indexer) StoreContext(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, text string, metadata map[string]any) (int, error) {
	if tenant == 0 {
		return 0, core.ErrTenantRequired
	}
	if scope == core.ScopeProject && scopeId == 0 {
		return 0, core.ErrScopeIdRequired
	}

	chunks := chunk.Split(text, ix.maxChunkSize)

	var vectors [][]float32
	if len(chunks) > 0 {
		var err error
		vectors, err = ix.embedder.EmbedTexts(ctx, chunks)
		if err != nil {
			ix.logger.Warn("context embedding failed, existing fragments kept",
				"tenant", tenant, "scope", scope.String(), "err", err)
			return 0, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
		}
		if len(vectors) != len(chunks) {
			return 0, fmt.Errorf("%w: expected %d vectors, received %d", ErrEmbeddingUnavailable, len(chunks), len(vectors))
		}
	}

	records := make([]*core.EmbeddingRecord, len(chunks))
	for i, text := range chunks {
		records[i] = &core.EmbeddingRecord{
			Id:          core.ChunkID(tenant, scope, scopeId, i, text),
			TenantId:    tenant,
			Scope:       scope,
			ScopeId:     scopeId,
			ContentType: core.ContentTypeDocumentChunk,
			Content:     text,
			Metadata:    metadata,
			Embedding:   vectors[i],
		}
	}

	// Delete and insert ride one repository transaction, so two concurrent
	// refreshes of the same scope cannot leave fragments from both texts.
	contextTypes := []core.ContentType{core.ContentTypeAdditionalContext, core.ContentTypeDocumentChunk}
	if _, err := ix.repository.ReplaceByTypes(ctx, tenant, scope, scopeId, contextTypes, records...); err != nil {
		return 0, err
	}

	if len(records) == 0 {
		return 0, nil
	}

	ix.logger.Info("context fragments stored",
		"tenant", tenant, "scope", scope.String(), "fragments", len(records))
	return len(records), nil
}

// DeleteScope removes every embedding for a scope. Called when a project
// is deleted.
func (ix *Indexer) DeleteScope(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (int, error) {
	return ix.repository.DeleteByScope(ctx, tenant, scope, scopeId)
}

// DeleteType removes every embedding of one content type within a scope.
// Called before a metadata re-save that changes shape.
func (ix *Indexer) DeleteType(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, contentType core.ContentType) (int, error) {
	return ix.repository.DeleteByType(ctx, tenant, scope, scopeId, contentType)
}

// DeleteContent removes the embeddings tied to one source row. Called when
// a document is deleted.
func (ix *Indexer) DeleteContent(ctx context.Context, tenant core.ID, contentId core.ID) (int, error) {
	return ix.repository.DeleteByContentID(ctx, tenant, contentId)
}
