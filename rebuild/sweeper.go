// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package rebuild

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/ingestion"
)

// Config holds configuration for a rebuild sweep.
type Config struct {
	// TenantConcurrency is how many tenants are rebuilt in parallel
	TenantConcurrency int

	// ReportInterval is how often to report progress (number of tenants)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for each provider-backed write
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		TenantConcurrency: 2,
		ReportInterval:    1,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
	}
}

// Report summarizes one sweep.
type Report struct {
	Tenants          int
	CompanyInfo      int
	ContextFragments int
	ProjectMetadata  int
	Documents        int
	Failures         int

	mu sync.Mutex
}

func (r *Report) add(field *int, delta int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*field += delta
}

// String renders the report for log output and the CLI.
func (r *Report) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fmt.Sprintf("tenants=%d company_info=%d context_fragments=%d project_metadata=%d documents=%d failures=%d",
		r.Tenants, r.CompanyInfo, r.ContextFragments, r.ProjectMetadata, r.Documents, r.Failures)
}

// Sweeper rebuilds every tenant's embeddings from the source of truth.
// One failing entity is logged and counted; the sweep keeps going, since a
// partial rebuild still beats a stale store.
type Sweeper struct {
	source   ContentSource
	indexer  *ingestion.Indexer
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// NewSweeper creates a new sweeper.
// progress: where to write progress output (typically os.Stderr)
func NewSweeper(source ContentSource, indexer *ingestion.Indexer, config *Config, progress io.Writer) (*Sweeper, error) {
	if source == nil {
		return nil, ErrSourceRequired
	}
	if indexer == nil {
		return nil, ErrIndexerRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.TenantConcurrency < 1 {
		config.TenantConcurrency = 1
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Sweeper{
		source:   source,
		indexer:  indexer,
		config:   config,
		progress: progress,
		logger:   slog.Default().With("component", "sweeper"),
	}, nil
}

// Run executes one full sweep over every tenant the source lists.
func (s *Sweeper) Run(ctx context.Context) (*Report, error) {
	tenants, err := s.source.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	report := &Report{}
	if len(tenants) == 0 {
		fmt.Fprintf(s.progress, "No tenants to sweep\n")
		return report, nil
	}

	fmt.Fprintf(s.progress, "Starting rebuild of %d tenants (concurrency: %d)\n",
		len(tenants), s.config.TenantConcurrency)

	tracker := NewProgressTracker(s.progress, len(tenants), s.config.ReportInterval)
	tracker.Start()

	pool, err := ants.NewPool(s.config.TenantConcurrency)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for _, tenant := range tenants {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			s.rebuildTenant(ctx, tenant, report)
			report.add(&report.Tenants, 1)
			tracker.Increment(1)
		})
		if submitErr != nil {
			wg.Done()
			s.logger.Error("failed to submit tenant rebuild", "tenant", tenant, "err", submitErr)
			report.add(&report.Failures, 1)
		}
	}
	wg.Wait()

	tracker.Finish()

	elapsed := tracker.Elapsed()
	fmt.Fprintf(s.progress, "Rebuild complete in %v: %s\n", elapsed.Round(time.Second), report)

	return report, ctx.Err()
}

// rebuildTenant regenerates all embeddings for one tenant: the company
// scope first, then each project scope.
func (s *Sweeper) rebuildTenant(ctx context.Context, tenant core.ID, report *Report) {
	logger := s.logger.With("tenant", tenant)

	s.rebuildCompanyInfo(ctx, tenant, report, logger)
	s.rebuildContext(ctx, tenant, core.ScopeCompany, 0, report, logger)
	s.rebuildDocuments(ctx, tenant, core.ScopeCompany, 0, report, logger)

	projects, err := s.source.ListProjects(ctx, tenant)
	if err != nil {
		logger.Error("failed to list projects, skipping project scopes", "err", err)
		report.add(&report.Failures, 1)
		return
	}

	for _, project := range projects {
		s.rebuildProjectMetadata(ctx, tenant, project, report, logger)
		s.rebuildContext(ctx, tenant, core.ScopeProject, project.Id, report, logger)
		s.rebuildDocuments(ctx, tenant, core.ScopeProject, project.Id, report, logger)
	}
}

func (s *Sweeper) rebuildCompanyInfo(ctx context.Context, tenant core.ID, report *Report, logger *slog.Logger) {
	text, metadata, err := s.source.CompanyInfo(ctx, tenant)
	if err != nil {
		logger.Error("failed to read company info", "err", err)
		report.add(&report.Failures, 1)
		return
	}
	if text == "" {
		return
	}

	err = s.store(ctx, &core.EmbeddingRecord{
		TenantId:    tenant,
		Scope:       core.ScopeCompany,
		ContentType: core.ContentTypeCompanyInfo,
		ContentId:   tenant, // one profile per tenant
		Content:     text,
		Metadata:    metadata,
	})
	if err != nil {
		logger.Error("failed to rebuild company info", "err", err)
		report.add(&report.Failures, 1)
		return
	}
	report.add(&report.CompanyInfo, 1)
}

func (s *Sweeper) rebuildContext(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, report *Report, logger *slog.Logger) {
	text, err := s.source.AdditionalContext(ctx, tenant, scope, scopeId)
	if err != nil {
		logger.Error("failed to read additional context", "scope", scope.String(), "scope_id", scopeId, "err", err)
		report.add(&report.Failures, 1)
		return
	}

	var stored int
	err = RetryWithBackoff(ctx, func() error {
		var storeErr error
		stored, storeErr = s.indexer.StoreContext(ctx, tenant, scope, scopeId, text, nil)
		return storeErr
	}, s.config.MaxRetries, s.config.RetryDelay)
	if err != nil {
		logger.Error("failed to rebuild context fragments", "scope", scope.String(), "scope_id", scopeId, "err", err)
		report.add(&report.Failures, 1)
		return
	}
	report.add(&report.ContextFragments, stored)
}

func (s *Sweeper) rebuildProjectMetadata(ctx context.Context, tenant core.ID, project Project, report *Report, logger *slog.Logger) {
	if project.MetadataText == "" {
		return
	}

	err := s.store(ctx, &core.EmbeddingRecord{
		TenantId:    tenant,
		Scope:       core.ScopeProject,
		ScopeId:     project.Id,
		ContentType: core.ContentTypeProjectMetadata,
		ContentId:   project.Id,
		Content:     project.MetadataText,
		Metadata:    map[string]any{"project_name": project.Name},
	})
	if err != nil {
		logger.Error("failed to rebuild project metadata", "project", project.Id, "err", err)
		report.add(&report.Failures, 1)
		return
	}
	report.add(&report.ProjectMetadata, 1)
}

func (s *Sweeper) rebuildDocuments(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, report *Report, logger *slog.Logger) {
	documents, err := s.source.ListDocuments(ctx, tenant, scope, scopeId)
	if err != nil {
		logger.Error("failed to list documents", "scope", scope.String(), "scope_id", scopeId, "err", err)
		report.add(&report.Failures, 1)
		return
	}

	for _, document := range documents {
		err := s.store(ctx, &core.EmbeddingRecord{
			TenantId:    tenant,
			Scope:       scope,
			ScopeId:     scopeId,
			ContentType: core.ContentTypeDocument,
			ContentId:   document.Id,
			Content:     document.EmbeddingText(),
			Metadata:    document.Metadata(),
		})
		if err != nil {
			logger.Error("failed to rebuild document embedding", "document", document.Id, "err", err)
			report.add(&report.Failures, 1)
			continue
		}
		report.add(&report.Documents, 1)
	}
}

// store wraps Indexer.Store with the sweep's retry policy.
func (s *Sweeper) store(ctx context.Context, record *core.EmbeddingRecord) error {
	return RetryWithBackoff(ctx, func() error {
		return s.indexer.Store(ctx, record)
	}, s.config.MaxRetries, s.config.RetryDelay)
}
