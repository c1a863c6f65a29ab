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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidEmbeddingRecord indicates an EmbeddingRecord failed validation.
	ErrInvalidEmbeddingRecord = errors.New("invalid embedding record")

	// ErrTenantRequired indicates the TenantId field is missing.
	ErrTenantRequired = errors.New("tenant id is required")

	// ErrScopeIdRequired indicates a project-scoped record is missing its ScopeId.
	ErrScopeIdRequired = errors.New("project-scoped record requires a scope id")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidScopeKind indicates an invalid ScopeKind value.
	ErrInvalidScopeKind = errors.New("invalid scope kind")

	// ErrInvalidContentType indicates an invalid ContentType value.
	ErrInvalidContentType = errors.New("invalid content type")

	// ErrDimensionMismatch indicates an embedding whose length differs from
	// the configured model dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
