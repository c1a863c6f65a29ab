package rebuild

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/brainbase/core"
)

// ContentSource is the application's view of the source-of-truth records a
// sweep rebuilds embeddings from. The subsystem never reads the caller's
// tables directly; it asks through this interface.
type ContentSource interface {
	// ListTenants returns every tenant the sweep should cover.
	ListTenants(ctx context.Context) ([]core.ID, error)

	// CompanyInfo returns the tenant's rendered company profile and its
	// metadata. An empty string means the tenant has no profile.
	CompanyInfo(ctx context.Context, tenant core.ID) (string, map[string]any, error)

	// AdditionalContext returns the free-form context text for a scope.
	// Empty string means none; any existing fragments get cleared.
	AdditionalContext(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (string, error)

	// ListProjects returns the tenant's live projects.
	ListProjects(ctx context.Context, tenant core.ID) ([]Project, error)

	// ListDocuments returns the live documents attached to a scope.
	ListDocuments(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) ([]Document, error)
}

// Project is a per-project source row.
type Project struct {
	Id           core.ID
	Name         string
	MetadataText string // Rendered project metadata, embedded as one record
}

// Document is the descriptive metadata of an uploaded file. Only the
// metadata is embedded; the file body never enters the store.
type Document struct {
	Id          core.ID  `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Category    string   `json:"category"`
}

// EmbeddingText renders the document fields into the text that gets
// embedded. Empty fields are left out.
func (d *Document) EmbeddingText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s", d.Name)
	if d.Description != "" {
		fmt.Fprintf(&b, "\nDescription: %s", d.Description)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags: %s", strings.Join(d.Tags, ", "))
	}
	if d.Category != "" {
		fmt.Fprintf(&b, "\nCategory: %s", d.Category)
	}
	return b.String()
}

// Metadata returns the bag stored alongside the document embedding.
func (d *Document) Metadata() map[string]any {
	meta := map[string]any{"file_name": d.Name}
	if len(d.Tags) > 0 {
		meta["tags"] = d.Tags
	}
	if d.Category != "" {
		meta["category"] = d.Category
	}
	return meta
}
