package brainbase

import (
	"context"
	"testing"

	"github.com/poiesic/brainbase/ai/mock"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupDatabase(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase("",
		WithInMemoryStorage(),
		WithProvider(mock.NewMockProviderWithEmbedder(mock.NewMockEmbedderWithDimensions(8))),
	)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDatabase_EndToEnd(t *testing.T) {
	db := setupDatabase(t)
	ctx := context.Background()

	indexer, err := db.NewIndexer()
	require.NoError(t, err)

	require.NoError(t, indexer.Store(ctx, &core.EmbeddingRecord{
		TenantId:    1,
		Scope:       core.ScopeCompany,
		ContentType: core.ContentTypeCompanyInfo,
		ContentId:   1,
		Content:     "Acme Corp builds widgets for the aerospace industry",
	}))

	searcher, err := db.NewSearcher()
	require.NoError(t, err)

	// The mock embedder is deterministic, so the stored text queries
	// itself back with similarity 1.
	results, err := searcher.Search(ctx, &search.SearchQuery{
		TenantId:  1,
		Scope:     core.ScopeCompany,
		Text:      "Acme Corp builds widgets for the aerospace industry",
		Threshold: 0.99,
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, core.ContentTypeCompanyInfo, results[0].Record.ContentType)
}

func TestDatabase_RepositoryAccess(t *testing.T) {
	db := setupDatabase(t)

	count, err := db.Repository().CountByTenant(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDatabase_CloseIsFinal(t *testing.T) {
	db, err := NewDatabase("",
		WithInMemoryStorage(),
		WithProvider(mock.NewMockProvider()),
	)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}
