package rebuild

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/poiesic/brainbase/core"
)

// FileSource is a ContentSource backed by a JSON snapshot file. It exists
// for the seeder and for running sweeps against an exported dataset
// without a live application database.
type FileSource struct {
	tenants map[core.ID]*fileTenant
	order   []core.ID
}

type fileTenant struct {
	Id                core.ID        `json:"id"`
	CompanyInfo       string         `json:"company_info"`
	CompanyMetadata   map[string]any `json:"company_metadata"`
	AdditionalContext string         `json:"additional_context"`
	Documents         []Document     `json:"documents"`
	Projects          []fileProject  `json:"projects"`
}

type fileProject struct {
	Id                core.ID    `json:"id"`
	Name              string     `json:"name"`
	MetadataText      string     `json:"metadata_text"`
	AdditionalContext string     `json:"additional_context"`
	Documents         []Document `json:"documents"`
}

type fileSnapshot struct {
	Tenants []*fileTenant `json:"tenants"`
}

var _ ContentSource = (*FileSource)(nil)

// NewFileSource loads a snapshot file.
func NewFileSource(path string) (*FileSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snapshot fileSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	fs := &FileSource{tenants: make(map[core.ID]*fileTenant, len(snapshot.Tenants))}
	for _, tenant := range snapshot.Tenants {
		if tenant.Id == 0 {
			return nil, fmt.Errorf("snapshot tenant without id")
		}
		fs.tenants[tenant.Id] = tenant
		fs.order = append(fs.order, tenant.Id)
	}
	return fs, nil
}

// ListTenants returns the snapshot's tenants in file order.
func (fs *FileSource) ListTenants(ctx context.Context) ([]core.ID, error) {
	return append([]core.ID(nil), fs.order...), nil
}

// CompanyInfo returns the tenant's company profile text and metadata.
func (fs *FileSource) CompanyInfo(ctx context.Context, tenant core.ID) (string, map[string]any, error) {
	t, err := fs.tenant(tenant)
	if err != nil {
		return "", nil, err
	}
	return t.CompanyInfo, t.CompanyMetadata, nil
}

// AdditionalContext returns the free-form context text for a scope.
func (fs *FileSource) AdditionalContext(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (string, error) {
	t, err := fs.tenant(tenant)
	if err != nil {
		return "", err
	}
	if scope == core.ScopeCompany {
		return t.AdditionalContext, nil
	}
	for _, project := range t.Projects {
		if project.Id == scopeId {
			return project.AdditionalContext, nil
		}
	}
	return "", nil
}

// ListProjects returns the tenant's projects.
func (fs *FileSource) ListProjects(ctx context.Context, tenant core.ID) ([]Project, error) {
	t, err := fs.tenant(tenant)
	if err != nil {
		return nil, err
	}
	projects := make([]Project, len(t.Projects))
	for i, project := range t.Projects {
		projects[i] = Project{
			Id:           project.Id,
			Name:         project.Name,
			MetadataText: project.MetadataText,
		}
	}
	return projects, nil
}

// ListDocuments returns the documents attached to a scope.
func (fs *FileSource) ListDocuments(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) ([]Document, error) {
	t, err := fs.tenant(tenant)
	if err != nil {
		return nil, err
	}
	if scope == core.ScopeCompany {
		return t.Documents, nil
	}
	for _, project := range t.Projects {
		if project.Id == scopeId {
			return project.Documents, nil
		}
	}
	return nil, nil
}

func (fs *FileSource) tenant(id core.ID) (*fileTenant, error) {
	t, ok := fs.tenants[id]
	if !ok {
		return nil, fmt.Errorf("tenant %d not in snapshot", id)
	}
	return t, nil
}
