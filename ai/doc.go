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


// Package ai provides the embedding-provider abstraction for Brainbase.
//
// The embedding model is an external collaborator reached over HTTP; this
// package keeps that boundary narrow so the provider and its vector
// dimensionality can be swapped without touching callers.
//
// # Design Principles
//
// The package is designed around two key interfaces:
//
//   - Embedder: Generates vector embeddings from text
//   - AIProvider: Owns the embedder's configuration and lifecycle
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Error Taxonomy
//
// Two sentinel errors separate the recoverable failure modes:
//
//   - ErrMissingAPIKey: no credential configured. Fatal to the specific
//     operation, never to the process.
//   - ErrProvider: the upstream HTTP call failed or returned a malformed
//     payload. Recoverable; the caller decides whether to retry.
//
// No retry logic lives in this package.
//
// # Usage Example
//
//	cfg := ai.NewConfig(
//	    ai.WithHost("https://api.openai.com"),
//	    ai.WithAPIKey(os.Getenv("EMBEDDING_API_KEY")),
//	)
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	vector, err := provider.Embedder().EmbedText(ctx, "Hello world")
package ai
