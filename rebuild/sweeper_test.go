package rebuild

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/poiesic/brainbase/ai/mock"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/ingestion"
	"github.com/poiesic/brainbase/storage"
	"github.com/poiesic/brainbase/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource is an in-memory ContentSource fixture.
type fakeSource struct {
	tenants        []core.ID
	companyInfo    map[core.ID]string
	context        map[core.ID]string
	projects       map[core.ID][]Project
	projectContext map[core.ID]string // keyed by project id
	documents      map[core.ID][]Document
	projectDocs    map[core.ID][]Document // keyed by project id

	companyInfoErr error
}

func (f *fakeSource) ListTenants(ctx context.Context) ([]core.ID, error) {
	return f.tenants, nil
}

func (f *fakeSource) CompanyInfo(ctx context.Context, tenant core.ID) (string, map[string]any, error) {
	if f.companyInfoErr != nil {
		return "", nil, f.companyInfoErr
	}
	return f.companyInfo[tenant], nil, nil
}

func (f *fakeSource) AdditionalContext(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (string, error) {
	if scope == core.ScopeCompany {
		return f.context[tenant], nil
	}
	return f.projectContext[scopeId], nil
}

func (f *fakeSource) ListProjects(ctx context.Context, tenant core.ID) ([]Project, error) {
	return f.projects[tenant], nil
}

func (f *fakeSource) ListDocuments(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) ([]Document, error) {
	if scope == core.ScopeCompany {
		return f.documents[tenant], nil
	}
	return f.projectDocs[scopeId], nil
}

func setupSweep(t *testing.T, source ContentSource) (*Sweeper, storage.EmbeddingRepository, *mock.MockEmbedder) {
	t.Helper()

	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedderWithDimensions(4)
	indexer, err := ingestion.NewIndexer(repo, mock.NewMockProviderWithEmbedder(embedder))
	require.NoError(t, err)

	config := DefaultConfig()
	config.RetryDelay = time.Millisecond

	sweeper, err := NewSweeper(source, indexer, config, io.Discard)
	require.NoError(t, err)

	return sweeper, repo, embedder
}

func TestNewSweeper_RequiresDependencies(t *testing.T) {
	_, err := NewSweeper(nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrSourceRequired)

	_, err = NewSweeper(&fakeSource{}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrIndexerRequired)
}

func TestRun_FullSweep(t *testing.T) {
	source := &fakeSource{
		tenants:     []core.ID{1},
		companyInfo: map[core.ID]string{1: "Acme Corp builds widgets"},
		context:     map[core.ID]string{1: "First paragraph.\n\nSecond paragraph."},
		documents: map[core.ID][]Document{
			1: {{Id: 100, Name: "handbook.pdf", Category: "hr"}},
		},
		projects: map[core.ID][]Project{
			1: {{Id: 10, Name: "Apollo", MetadataText: "Project: Apollo\nStatus: active"}},
		},
		projectContext: map[core.ID]string{10: "Project context paragraph."},
		projectDocs: map[core.ID][]Document{
			10: {{Id: 200, Name: "plan.pdf", Tags: []string{"q3"}}},
		},
	}

	sweeper, repo, _ := setupSweep(t, source)

	report, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Tenants)
	assert.Equal(t, 1, report.CompanyInfo)
	assert.Equal(t, 3, report.ContextFragments) // 2 company + 1 project
	assert.Equal(t, 1, report.ProjectMetadata)
	assert.Equal(t, 2, report.Documents)
	assert.Zero(t, report.Failures)

	count, err := repo.CountByTenant(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestRun_Idempotent(t *testing.T) {
	source := &fakeSource{
		tenants:     []core.ID{1},
		companyInfo: map[core.ID]string{1: "Acme Corp"},
		context:     map[core.ID]string{1: "One paragraph."},
		documents: map[core.ID][]Document{
			1: {{Id: 100, Name: "handbook.pdf"}},
		},
	}

	sweeper, repo, _ := setupSweep(t, source)
	ctx := context.Background()

	_, err := sweeper.Run(ctx)
	require.NoError(t, err)
	_, err = sweeper.Run(ctx)
	require.NoError(t, err)

	count, err := repo.CountByTenant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "a second sweep replaces, never accumulates")
}

func TestRun_OneFailingTenantDoesNotAbortOthers(t *testing.T) {
	source := &fakeSource{
		tenants: []core.ID{1, 2},
		companyInfo: map[core.ID]string{
			1: "Tenant one",
			2: "Tenant two",
		},
	}

	sweeper, repo, embedder := setupSweep(t, source)
	ctx := context.Background()

	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		if text == "Tenant one" {
			return nil, errors.New("provider rejects tenant one")
		}
		return []float32{1, 0, 0, 0}, nil
	}

	report, err := sweeper.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Tenants)
	assert.Equal(t, 1, report.CompanyInfo)
	assert.Equal(t, 1, report.Failures)

	count, err := repo.CountByTenant(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRun_SourceErrorCounted(t *testing.T) {
	source := &fakeSource{
		tenants:        []core.ID{1},
		companyInfoErr: errors.New("source db down"),
	}

	sweeper, _, _ := setupSweep(t, source)

	report, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failures)
	assert.Zero(t, report.CompanyInfo)
}

func TestRun_NoTenants(t *testing.T) {
	sweeper, _, _ := setupSweep(t, &fakeSource{})

	report, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Tenants)
}
