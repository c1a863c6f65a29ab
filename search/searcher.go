package search

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/brainbase/ai"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/storage"
)

const (
	// DefaultThreshold is the minimum cosine similarity a match must reach.
	DefaultThreshold float32 = 0.78

	// DefaultLimit caps the number of matches returned.
	DefaultLimit = 8
)

// SearchQuery describes one text search against a tenant's embeddings.
// Threshold and Limit fall back to the package defaults when zero.
type SearchQuery struct {
	TenantId    core.ID
	Scope       core.ScopeKind
	ScopeId     *core.ID
	ContentType *core.ContentType
	Text        string
	Threshold   float32
	Limit       int
}

// Searcher answers text queries by embedding them and ranking a tenant's
// records by cosine similarity.
type Searcher struct {
	repository storage.EmbeddingRepository
	embedder   ai.Embedder
	logger     *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "searcher")
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.EmbeddingRepository, provider ai.AIProvider, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	s := &Searcher{
		repository: repository,
		embedder:   provider.Embedder(),
		logger:     slog.Default().With("component", "searcher"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Search answers a text query, ranked by similarity descending.
// A provider failure degrades to an empty result set rather than an error:
// retrieval augments an assistant reply, and no augmentation beats no reply.
func (s *Searcher) Search(ctx context.Context, query *SearchQuery) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor answers a text query with monitoring.
// The monitor receives callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query *SearchQuery, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := validateQuery(query); err != nil {
		return nil, err
	}

	threshold := query.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	limit := query.Limit
	if limit == 0 {
		limit = DefaultLimit
	}

	monitor.Start(query)

	vector, err := s.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		s.logger.Warn("query embedding failed, returning no matches",
			"tenant", query.TenantId, "err", err)
		monitor.Finish(nil)
		return []*core.SearchResult{}, nil
	}
	monitor.AfterQueryEmbedding(vector)

	results, err := s.repository.FindSimilar(ctx, &storage.SimilarityQuery{
		TenantId:      query.TenantId,
		Scope:         query.Scope,
		ScopeId:       query.ScopeId,
		ContentType:   query.ContentType,
		Vector:        vector,
		MinSimilarity: threshold,
		Limit:         limit,
	})
	if err != nil {
		s.logger.Error("error querying for similar records", "err", err)
		return nil, err
	}
	monitor.AfterRanking(results)

	if results == nil {
		results = []*core.SearchResult{}
	}
	monitor.Finish(results)

	return results, nil
}

// validateQuery rejects queries the repository could not answer meaningfully.
func validateQuery(query *SearchQuery) error {
	if query == nil {
		return fmt.Errorf("%w: query is nil", ErrInvalidSearchQuery)
	}
	if query.TenantId == 0 {
		return fmt.Errorf("%w: tenant is required", ErrInvalidSearchQuery)
	}
	if err := core.ValidateScopeKind(query.Scope); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSearchQuery, err)
	}
	if query.Text == "" {
		return fmt.Errorf("%w: empty query text", ErrInvalidSearchQuery)
	}
	if query.Threshold < 0 || query.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be within [0, 1]", ErrInvalidSearchQuery)
	}
	if query.Limit < 0 {
		return fmt.Errorf("%w: limit must not be negative", ErrInvalidSearchQuery)
	}
	return nil
}
