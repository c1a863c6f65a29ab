package ingestion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/brainbase/ai/mock"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/storage"
	"github.com/poiesic/brainbase/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupIndexer(t *testing.T) (*Indexer, storage.EmbeddingRepository, *mock.MockEmbedder) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedderWithDimensions(4)
	indexer, err := NewIndexer(repo, mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)

	return indexer, repo, embedder
}

func TestNewIndexer_RequiresDependencies(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = NewIndexer(nil, mock.NewMockProvider())
	assert.ErrorIs(t, err, ErrRepositoryRequired)

	_, err = NewIndexer(repo, nil)
	assert.ErrorIs(t, err, ErrAIProviderRequired)
}

func TestStore_EmbedsAndPersists(t *testing.T) {
	indexer, repo, embedder := setupIndexer(t)
	ctx := context.Background()

	record := &core.EmbeddingRecord{
		TenantId:    1,
		Scope:       core.ScopeCompany,
		ContentType: core.ContentTypeCompanyInfo,
		ContentId:   1,
		Content:     "Acme Corp builds widgets",
	}
	require.NoError(t, indexer.Store(ctx, record))

	assert.Equal(t, 1, embedder.CallCount())
	assert.Len(t, record.Embedding, 4)

	stored, err := repo.Get(ctx, 1, record.Id)
	require.NoError(t, err)
	assert.Equal(t, record.Content, stored.Content)
}

func TestStore_KeepsProvidedEmbedding(t *testing.T) {
	indexer, _, embedder := setupIndexer(t)

	record := &core.EmbeddingRecord{
		TenantId:    1,
		Scope:       core.ScopeCompany,
		ContentType: core.ContentTypeCompanyInfo,
		ContentId:   1,
		Content:     "Acme Corp",
		Embedding:   []float32{1, 0, 0, 0},
	}
	require.NoError(t, indexer.Store(context.Background(), record))
	assert.Zero(t, embedder.CallCount(), "preset vectors skip the provider")
}

func TestStore_ValidationFailure(t *testing.T) {
	indexer, _, _ := setupIndexer(t)

	err := indexer.Store(context.Background(), &core.EmbeddingRecord{
		Scope:       core.ScopeCompany,
		ContentType: core.ContentTypeCompanyInfo,
		Content:     "no tenant",
	})
	assert.ErrorIs(t, err, core.ErrInvalidEmbeddingRecord)
}

func TestStore_ProviderFailureLeavesNothingBehind(t *testing.T) {
	indexer, repo, embedder := setupIndexer(t)
	ctx := context.Background()

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}

	err := indexer.Store(ctx, &core.EmbeddingRecord{
		TenantId:    1,
		Scope:       core.ScopeCompany,
		ContentType: core.ContentTypeCompanyInfo,
		ContentId:   1,
		Content:     "Acme Corp",
	})
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)

	count, err := repo.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_UpsertReplacesByTuple(t *testing.T) {
	indexer, repo, _ := setupIndexer(t)
	ctx := context.Background()

	makeRecord := func(content string) *core.EmbeddingRecord {
		return &core.EmbeddingRecord{
			TenantId:    1,
			Scope:       core.ScopeProject,
			ScopeId:     10,
			ContentType: core.ContentTypeDocument,
			ContentId:   50,
			Content:     content,
		}
	}

	require.NoError(t, indexer.Store(ctx, makeRecord("File: plan.pdf")))
	require.NoError(t, indexer.Store(ctx, makeRecord("File: plan-v2.pdf")))

	count, err := repo.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreContext_ReplacesFragments(t *testing.T) {
	indexer, repo, _ := setupIndexer(t)
	ctx := context.Background()

	text := "First paragraph about the team.\n\nSecond paragraph about the stack."

	stored, err := indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, text, map[string]any{"source": "settings"})
	require.NoError(t, err)
	assert.Equal(t, 2, stored)

	// Re-storing shorter text replaces, not accumulates
	stored, err = indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, "Only one paragraph now.", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stored)

	count, err := repo.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreContext_EmptyTextClearsFragments(t *testing.T) {
	indexer, repo, _ := setupIndexer(t)
	ctx := context.Background()

	_, err := indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, "Some context.", nil)
	require.NoError(t, err)

	stored, err := indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, "", nil)
	require.NoError(t, err)
	assert.Zero(t, stored)

	count, err := repo.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStoreContext_ConcurrentRefreshesDoNotMix(t *testing.T) {
	indexer, repo, _ := setupIndexer(t)
	ctx := context.Background()

	texts := map[string]string{
		"alpha": "alpha paragraph one.\n\nalpha paragraph two.",
		"beta":  "beta paragraph one.\n\nbeta paragraph two.\n\nbeta paragraph three.",
	}
	counts := map[string]int{"alpha": 2, "beta": 3}

	var wg sync.WaitGroup
	errs := make(chan error, len(texts))
	for _, text := range texts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, text, nil)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// The surviving fragments all belong to whichever refresh landed last
	results, err := repo.FindSimilar(ctx, &storage.SimilarityQuery{
		TenantId:      1,
		Scope:         core.ScopeCompany,
		Vector:        []float32{1, 0, 0, 0},
		MinSimilarity: -1,
		Limit:         10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	winner := strings.Fields(results[0].Record.Content)[0]
	assert.Len(t, results, counts[winner])
	for _, result := range results {
		assert.True(t, strings.HasPrefix(result.Record.Content, winner))
	}
}

func TestStoreContext_ProviderFailureKeepsOldFragments(t *testing.T) {
	indexer, repo, embedder := setupIndexer(t)
	ctx := context.Background()

	_, err := indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, "Old context paragraph.", nil)
	require.NoError(t, err)

	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("provider down")
	}

	_, err = indexer.StoreContext(ctx, 1, core.ScopeCompany, 0, "New context paragraph.", nil)
	assert.ErrorIs(t, err, ErrEmbeddingUnavailable)

	count, err := repo.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "old fragments survive a failed replace")
}

func TestStoreContext_ScopeValidation(t *testing.T) {
	indexer, _, _ := setupIndexer(t)
	ctx := context.Background()

	_, err := indexer.StoreContext(ctx, 0, core.ScopeCompany, 0, "text", nil)
	assert.ErrorIs(t, err, core.ErrTenantRequired)

	_, err = indexer.StoreContext(ctx, 1, core.ScopeProject, 0, "text", nil)
	assert.ErrorIs(t, err, core.ErrScopeIdRequired)
}

func TestDeletePassthroughs(t *testing.T) {
	indexer, _, _ := setupIndexer(t)
	ctx := context.Background()

	require.NoError(t, indexer.Store(ctx, &core.EmbeddingRecord{
		TenantId:    1,
		Scope:       core.ScopeProject,
		ScopeId:     10,
		ContentType: core.ContentTypeDocument,
		ContentId:   50,
		Content:     "File: plan.pdf",
	}))

	deleted, err := indexer.DeleteContent(ctx, 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	deleted, err = indexer.DeleteScope(ctx, 1, core.ScopeProject, 10)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
