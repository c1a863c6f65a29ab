package search

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/brainbase/ai/mock"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/storage"
	"github.com/poiesic/brainbase/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSearcher(t *testing.T) (*Searcher, storage.EmbeddingRepository, *mock.MockEmbedder) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedderWithDimensions(3)
	searcher, err := NewSearcher(repo, mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)

	return searcher, repo, embedder
}

func seedVectors(t *testing.T, repo storage.EmbeddingRepository, tenant core.ID, vectors map[string][]float32) {
	t.Helper()
	ctx := context.Background()
	for content, vec := range vectors {
		_, err := repo.Insert(ctx, &core.EmbeddingRecord{
			TenantId:    tenant,
			Scope:       core.ScopeCompany,
			ContentType: core.ContentTypeDocumentChunk,
			Content:     content,
			Embedding:   vec,
		})
		require.NoError(t, err)
	}
}

func TestSearch_RanksBySimilarity(t *testing.T) {
	searcher, repo, embedder := setupSearcher(t)

	seedVectors(t, repo, 1, map[string][]float32{
		"close":   {0.9, 0.1, 0},
		"middle":  {0.5, 0.5, 0},
		"distant": {0, 0.2, 0.9},
	})
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	results, err := searcher.Search(context.Background(), &SearchQuery{
		TenantId:  1,
		Scope:     core.ScopeCompany,
		Text:      "widgets",
		Threshold: 0.5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].Record.Content)
	assert.Equal(t, "middle", results[1].Record.Content)
}

func TestSearch_DefaultThresholdAndLimit(t *testing.T) {
	searcher, repo, embedder := setupSearcher(t)

	// 10 near-identical records, all above the 0.78 default threshold
	for i := 0; i < 10; i++ {
		_, err := repo.Insert(context.Background(), &core.EmbeddingRecord{
			TenantId:    1,
			Scope:       core.ScopeCompany,
			ContentType: core.ContentTypeDocumentChunk,
			Content:     "fragment",
			Embedding:   []float32{1, float32(i) * 0.01, 0},
		})
		require.NoError(t, err)
	}
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	results, err := searcher.Search(context.Background(), &SearchQuery{
		TenantId: 1,
		Scope:    core.ScopeCompany,
		Text:     "widgets",
	})
	require.NoError(t, err)
	assert.Len(t, results, DefaultLimit)
}

func TestSearch_TenantIsolation(t *testing.T) {
	searcher, repo, embedder := setupSearcher(t)

	seedVectors(t, repo, 1, map[string][]float32{"tenant one": {1, 0, 0}})
	seedVectors(t, repo, 2, map[string][]float32{"tenant two": {1, 0, 0}})
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	results, err := searcher.Search(context.Background(), &SearchQuery{
		TenantId: 2,
		Scope:    core.ScopeCompany,
		Text:     "anything",
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "tenant two", results[0].Record.Content)
}

func TestSearch_ProviderFailureDegrades(t *testing.T) {
	searcher, repo, embedder := setupSearcher(t)

	seedVectors(t, repo, 1, map[string][]float32{"fragment": {1, 0, 0}})
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	results, err := searcher.Search(context.Background(), &SearchQuery{
		TenantId: 1,
		Scope:    core.ScopeCompany,
		Text:     "widgets",
	})
	require.NoError(t, err, "a dead provider must not fail the caller")
	assert.Empty(t, results)
}

func TestSearch_Validation(t *testing.T) {
	searcher, _, _ := setupSearcher(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		query *SearchQuery
	}{
		{"nil query", nil},
		{"missing tenant", &SearchQuery{Scope: core.ScopeCompany, Text: "q"}},
		{"bad scope", &SearchQuery{TenantId: 1, Scope: 99, Text: "q"}},
		{"empty text", &SearchQuery{TenantId: 1, Scope: core.ScopeCompany}},
		{"threshold above one", &SearchQuery{TenantId: 1, Scope: core.ScopeCompany, Text: "q", Threshold: 1.5}},
		{"negative limit", &SearchQuery{TenantId: 1, Scope: core.ScopeCompany, Text: "q", Limit: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := searcher.Search(ctx, tc.query)
			assert.ErrorIs(t, err, ErrInvalidSearchQuery)
		})
	}
}

type recordingMonitor struct {
	started    bool
	embedded   bool
	ranked     bool
	finished   bool
	lastVector []float32
}

func (m *recordingMonitor) Start(_ *SearchQuery) { m.started = true }

func (m *recordingMonitor) AfterQueryEmbedding(v []float32) {
	m.embedded = true
	m.lastVector = v
}
func (m *recordingMonitor) AfterRanking(_ []*core.SearchResult) { m.ranked = true }
func (m *recordingMonitor) Finish(_ []*core.SearchResult)       { m.finished = true }

func TestSearchWithMonitor_StageCallbacks(t *testing.T) {
	searcher, repo, embedder := setupSearcher(t)

	seedVectors(t, repo, 1, map[string][]float32{"fragment": {1, 0, 0}})
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}

	monitor := &recordingMonitor{}
	_, err := searcher.SearchWithMonitor(context.Background(), &SearchQuery{
		TenantId: 1,
		Scope:    core.ScopeCompany,
		Text:     "widgets",
	}, monitor)
	require.NoError(t, err)

	assert.True(t, monitor.started)
	assert.True(t, monitor.embedded)
	assert.True(t, monitor.ranked)
	assert.True(t, monitor.finished)
	assert.Equal(t, []float32{1, 0, 0}, monitor.lastVector)
}
