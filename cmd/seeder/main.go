package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/poiesic/brainbase"
	"github.com/poiesic/brainbase/ai"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/rebuild"
)

// sampleSource is a built-in ContentSource with one demo tenant, used to
// seed a fresh store for local development.
type sampleSource struct{}

var _ rebuild.ContentSource = (*sampleSource)(nil)

func (sampleSource) ListTenants(ctx context.Context) ([]core.ID, error) {
	return []core.ID{1}, nil
}

func (sampleSource) CompanyInfo(ctx context.Context, tenant core.ID) (string, map[string]any, error) {
	info := "Company: Windward Analytics\n" +
		"Industry: Maritime logistics\n" +
		"Description: Windward Analytics builds route optimization and fleet " +
		"tracking software for container shipping operators."
	return info, map[string]any{"industry": "maritime logistics"}, nil
}

func (sampleSource) AdditionalContext(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (string, error) {
	if scope == core.ScopeCompany {
		return "Our customers operate mostly in the North Atlantic and Baltic trade lanes.\n\n" +
			"Support requests about port congestion should reference the weekly congestion digest.", nil
	}
	if scopeId == 10 {
		return "The Harborlight rollout targets the Rotterdam and Hamburg terminals first.", nil
	}
	return "", nil
}

func (sampleSource) ListProjects(ctx context.Context, tenant core.ID) ([]rebuild.Project, error) {
	return []rebuild.Project{
		{
			Id:           10,
			Name:         "Harborlight",
			MetadataText: "Project: Harborlight\nGoal: terminal berth scheduling\nStatus: active",
		},
	}, nil
}

func (sampleSource) ListDocuments(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) ([]rebuild.Document, error) {
	if scope == core.ScopeCompany {
		return []rebuild.Document{
			{Id: 100, Name: "fleet-overview.pdf", Description: "Current fleet composition and capacity", Category: "operations"},
			{Id: 101, Name: "sla-2026.pdf", Description: "Service level commitments for 2026", Tags: []string{"legal", "sla"}},
		}, nil
	}
	if scopeId == 10 {
		return []rebuild.Document{
			{Id: 200, Name: "berth-model.xlsx", Description: "Berth scheduling simulation inputs", Tags: []string{"model"}, Category: "engineering"},
		}, nil
	}
	return nil, nil
}

func main() {
	dbPath := flag.String("db", "", "Path to BadgerDB database directory")
	host := flag.String("embedding-host", "http://localhost:11434/v1", "Embedding service host URL")
	model := flag.String("embedding-model", "embeddinggemma", "Embedding model name")
	apiKey := flag.String("embedding-api-key", os.Getenv("BRAINBASE_EMBEDDING_API_KEY"), "Embedding service API key")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: seeder -db <path> [-embedding-host ...] [-embedding-model ...]")
		os.Exit(1)
	}

	cfg := ai.NewConfig(
		ai.WithHost(*host),
		ai.WithModel(*model),
		ai.WithAPIKey(*apiKey),
	)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid AI configuration", "err", err)
		os.Exit(1)
	}

	db, err := brainbase.NewDatabase(*dbPath, brainbase.WithAIConfig(cfg))
	if err != nil {
		slog.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	sweeper, err := db.NewSweeper(sampleSource{}, nil, os.Stderr)
	if err != nil {
		slog.Error("failed to build sweeper", "err", err)
		os.Exit(1)
	}

	report, err := sweeper.Run(context.Background())
	if err != nil {
		slog.Error("seeding failed", "err", err)
		os.Exit(1)
	}

	fmt.Println("seeded:", report)
}
