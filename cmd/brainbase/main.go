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


package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/brainbase"
	"github.com/poiesic/brainbase/ai"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/rebuild"
	"github.com/poiesic/brainbase/search"
	"github.com/poiesic/brainbase/server"
	"github.com/urfave/cli/v2"
)

func main() {
	// Load .env if present; real environments set variables directly
	godotenv.Load()

	app := &cli.App{
		Name:   "brainbase",
		Usage:  "Embedding store and semantic retrieval for tenant knowledge",
		Before: setupLogger,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the similarity search API",
				Action: serveCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"BRAINBASE_DB"},
					},
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8080",
						EnvVars: []string{"BRAINBASE_ADDR"},
					},
				),
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild all embeddings from a source snapshot",
				Action: rebuildCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"BRAINBASE_DB"},
					},
					&cli.StringFlag{
						Name:     "source",
						Usage:    "Path to the JSON source snapshot",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "concurrency",
						Usage: "Number of tenants rebuilt in parallel",
						Value: 2,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				),
			},
			{
				Name:   "search",
				Usage:  "Run an ad-hoc text query against a tenant's embeddings",
				Action: searchCommand,
				Flags: append(aiFlags(),
					&cli.StringFlag{
						Name:     "db",
						Aliases:  []string{"d"},
						Usage:    "Path to BadgerDB database directory",
						Required: true,
						EnvVars:  []string{"BRAINBASE_DB"},
					},
					&cli.Uint64Flag{
						Name:     "tenant",
						Usage:    "Tenant id to search",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "table",
						Usage: "Scope to search (company_scope or project_scope)",
						Value: "company_scope",
					},
					&cli.Uint64Flag{
						Name:  "project",
						Usage: "Project id (required for project_scope)",
					},
					&cli.StringFlag{
						Name:     "query",
						Aliases:  []string{"q"},
						Usage:    "Query text",
						Required: true,
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum cosine similarity",
						Value: float64(search.DefaultThreshold),
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of matches",
						Value: search.DefaultLimit,
					},
				),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// aiFlags returns the embedding provider flags shared by every command.
func aiFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			Value:   "http://localhost:11434/v1",
			EnvVars: []string{"BRAINBASE_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			Value:   "embeddinggemma",
			EnvVars: []string{"BRAINBASE_EMBEDDING_MODEL"},
		},
		&cli.StringFlag{
			Name:    "embedding-api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"BRAINBASE_EMBEDDING_API_KEY"},
		},
		&cli.IntFlag{
			Name:    "embedding-dimensions",
			Usage:   "Expected embedding vector length",
			Value:   ai.DefaultDimensions,
			EnvVars: []string{"BRAINBASE_EMBEDDING_DIMENSIONS"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	cfg := ai.NewConfig(
		ai.WithHost(c.String("embedding-host")),
		ai.WithModel(c.String("embedding-model")),
		ai.WithAPIKey(c.String("embedding-api-key")),
		ai.WithDimensions(c.Int("embedding-dimensions")),
	)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	return cfg, nil
}

func openDatabase(c *cli.Context) (*brainbase.Database, error) {
	cfg, err := aiConfigFromFlags(c)
	if err != nil {
		return nil, err
	}
	return brainbase.NewDatabase(c.String("db"), brainbase.WithAIConfig(cfg))
}

func serveCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	srv := server.NewServer(db.Repository(), searcher)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(c.String("addr"))
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func rebuildCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	source, err := rebuild.NewFileSource(c.String("source"))
	if err != nil {
		return err
	}

	config := rebuild.DefaultConfig()
	config.TenantConcurrency = c.Int("concurrency")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")

	sweeper, err := db.NewSweeper(source, config, os.Stderr)
	if err != nil {
		return err
	}

	report, err := sweeper.Run(c.Context)
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	fmt.Println(report)
	return nil
}

func searchCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	scope, err := core.ParseScopeKind(c.String("table"))
	if err != nil {
		return fmt.Errorf("unknown table %q", c.String("table"))
	}

	query := &search.SearchQuery{
		TenantId:  core.ID(c.Uint64("tenant")),
		Scope:     scope,
		Text:      c.String("query"),
		Threshold: float32(c.Float64("threshold")),
		Limit:     c.Int("limit"),
	}
	if projectID := core.ID(c.Uint64("project")); projectID != 0 {
		query.ScopeId = &projectID
	}

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	results, err := searcher.Search(c.Context, query)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Println("no matches")
		return nil
	}
	for _, result := range results {
		fmt.Printf("%.3f  [%s] %s\n", result.Similarity, result.Record.ContentType, result.Record.Content)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
