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


// Package storage provides the storage abstraction layer for Brainbase.
//
// This package defines the EmbeddingRepository interface that decouples the
// persistence of embedding records from business logic, allowing different
// storage backends (BadgerDB, in-memory, etc.) to be used interchangeably.
// There is deliberately no ambient database handle: callers receive a
// repository value and inject it where needed.
//
// # Constructor Return Type Pattern
//
// Public constructors return interface types to enforce abstraction and
// enable alternative backends:
//
//	repo, backend, err := badger.NewMemoryRepository()  // storage.EmbeddingRepository
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Identity and the Upsert Contract
//
// Every source-backed record has a tuple identity
// (tenant, scope kind, scope id, content type, content id). Upsert replaces
// the live record for that tuple atomically inside a single transaction, so
// callers never race a delete against an insert and duplicates cannot
// accumulate. Chunk fragments have no tuple and go through Insert.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support concurrent
// access from multiple goroutines. Tenant scoping on every operation makes
// cross-tenant interference impossible by construction.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and timeout
// support.
package storage
