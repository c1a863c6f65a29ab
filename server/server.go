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


package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/search"
	"github.com/poiesic/brainbase/storage"
)

// Server exposes the similarity search surface over HTTP.
type Server struct {
	echo       *echo.Echo
	repository storage.EmbeddingRepository
	searcher   *search.Searcher
	logger     *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "server")
	}
}

// NewServer creates the HTTP server and registers its routes.
func NewServer(repository storage.EmbeddingRepository, searcher *search.Searcher, opts ...Option) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	s := &Server{
		echo:       e,
		repository: repository,
		searcher:   searcher,
		logger:     slog.Default().With("component", "server"),
	}
	for _, opt := range opts {
		opt(s)
	}

	e.GET("/healthz", s.handleHealth)
	api := e.Group("/api/v1")
	api.POST("/search", s.handleSearch)
	api.POST("/query", s.handleQuery)

	return s
}

// Start begins serving on the given address and blocks until shutdown.
func (s *Server) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler returns the underlying handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

type searchFilter struct {
	TenantId    core.ID  `json:"tenant_id"`
	ScopeId     *core.ID `json:"scope_id"`
	ContentType string   `json:"content_type"`
}

type searchRequest struct {
	Table          string        `json:"table"`
	QueryEmbedding []float32     `json:"query_embedding"`
	MatchCount     int           `json:"match_count"`
	Filter         *searchFilter `json:"filter"`
}

type queryRequest struct {
	Table       string   `json:"table"`
	TenantId    core.ID  `json:"tenant_id"`
	Query       string   `json:"query"`
	Threshold   float32  `json:"threshold"`
	Limit       int      `json:"limit"`
	ScopeId     *core.ID `json:"scope_id"`
	ContentType string   `json:"content_type"`
}

type match struct {
	Id          core.ID        `json:"id"`
	TenantId    core.ID        `json:"tenant_id"`
	ScopeId     core.ID        `json:"scope_id,omitempty"`
	ContentType string         `json:"content_type"`
	ContentId   core.ID        `json:"content_id,omitempty"`
	Content     string         `json:"content"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Similarity  float32        `json:"similarity"`
}

type matchesResponse struct {
	Matches []match `json:"matches"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch answers a raw-vector similarity search.
func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	scope, err := core.ParseScopeKind(req.Table)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown table: " + req.Table})
	}
	if len(req.QueryEmbedding) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "query_embedding must not be empty"})
	}
	if req.MatchCount <= 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "match_count must be positive"})
	}
	if req.Filter == nil || req.Filter.TenantId == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "filter.tenant_id is required"})
	}

	query := &storage.SimilarityQuery{
		TenantId: req.Filter.TenantId,
		Scope:    scope,
		ScopeId:  req.Filter.ScopeId,
		Vector:   req.QueryEmbedding,
		Limit:    req.MatchCount,
	}
	if req.Filter.ContentType != "" {
		contentType, err := core.ParseContentType(req.Filter.ContentType)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown content_type: " + req.Filter.ContentType})
		}
		query.ContentType = &contentType
	}

	results, err := s.repository.FindSimilar(c.Request().Context(), query)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidQuery) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		s.logger.Error("similarity search failed", "tenant", query.TenantId, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "search failed", Details: err.Error()})
	}

	return c.JSON(http.StatusOK, toMatchesResponse(results))
}

// handleQuery answers a text query through the Searcher.
func (s *Server) handleQuery(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "malformed request body"})
	}

	scope, err := core.ParseScopeKind(req.Table)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown table: " + req.Table})
	}

	query := &search.SearchQuery{
		TenantId:  req.TenantId,
		Scope:     scope,
		ScopeId:   req.ScopeId,
		Text:      req.Query,
		Threshold: req.Threshold,
		Limit:     req.Limit,
	}
	if req.ContentType != "" {
		contentType, err := core.ParseContentType(req.ContentType)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown content_type: " + req.ContentType})
		}
		query.ContentType = &contentType
	}

	results, err := s.searcher.Search(c.Request().Context(), query)
	if err != nil {
		if errors.Is(err, search.ErrInvalidSearchQuery) {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		}
		s.logger.Error("text query failed", "tenant", req.TenantId, "err", err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: "search failed", Details: err.Error()})
	}

	return c.JSON(http.StatusOK, toMatchesResponse(results))
}

func toMatchesResponse(results []*core.SearchResult) matchesResponse {
	matches := make([]match, len(results))
	for i, result := range results {
		record := result.Record
		matches[i] = match{
			Id:          record.Id,
			TenantId:    record.TenantId,
			ScopeId:     record.ScopeId,
			ContentType: record.ContentType.String(),
			ContentId:   record.ContentId,
			Content:     record.Content,
			Metadata:    record.Metadata,
			Similarity:  result.Similarity,
		}
	}
	return matchesResponse{Matches: matches}
}
