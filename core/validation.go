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

import "fmt"

// ValidateEmbeddingRecord validates an EmbeddingRecord according to domain rules.
//
// Validation rules:
//   - TenantId must be set
//   - Scope must be a known kind; project scope requires ScopeId
//   - ContentType must be valid
//   - Content must not be empty
//   - Embedding, when present and dimensions > 0, must match dimensions exactly
//
// NOT validated:
//   - Id (0 is valid; the repository assigns sequence IDs)
//   - Metadata (intentionally schema-less, never interpreted here)
func ValidateEmbeddingRecord(record *EmbeddingRecord, dimensions int) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidEmbeddingRecord)
	}

	if record.TenantId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrTenantRequired)
	}

	if err := ValidateScopeKind(record.Scope); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, err)
	}

	if record.Scope == ScopeProject && record.ScopeId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrScopeIdRequired)
	}

	if err := ValidateContentType(record.ContentType); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, err)
	}

	if record.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidEmbeddingRecord, ErrEmptyContent)
	}

	if dimensions > 0 && len(record.Embedding) > 0 && len(record.Embedding) != dimensions {
		return fmt.Errorf("%w: %w: expected %d, got %d",
			ErrInvalidEmbeddingRecord, ErrDimensionMismatch, dimensions, len(record.Embedding))
	}

	return nil
}

// ValidateScopeKind validates a ScopeKind value.
func ValidateScopeKind(scope ScopeKind) error {
	switch scope {
	case ScopeCompany, ScopeProject:
		return nil
	default:
		return fmt.Errorf("%w: %d", ErrInvalidScopeKind, scope)
	}
}

// ValidateContentType validates a ContentType value.
func ValidateContentType(ct ContentType) error {
	if _, ok := contentTypeNames[ct]; !ok {
		return fmt.Errorf("%w: %d", ErrInvalidContentType, ct)
	}
	return nil
}
