package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// ScopeKind identifies which of the two logical embedding tables a record
// belongs to: the company-wide table or the per-project table.
type ScopeKind int

const (
	// ScopeCompany holds tenant-wide records with no project attached.
	ScopeCompany ScopeKind = iota + 1
	// ScopeProject holds records attached to a specific project.
	ScopeProject
)

// String returns the wire name of the scope, as used by the search endpoint.
func (s ScopeKind) String() string {
	switch s {
	case ScopeCompany:
		return "company_scope"
	case ScopeProject:
		return "project_scope"
	default:
		return "unknown"
	}
}

// ParseScopeKind parses the wire name of a scope.
// Returns ErrInvalidScopeKind for unrecognized names.
func ParseScopeKind(name string) (ScopeKind, error) {
	switch name {
	case "company_scope":
		return ScopeCompany, nil
	case "project_scope":
		return ScopeProject, nil
	default:
		return 0, ErrInvalidScopeKind
	}
}

// ContentType classifies what kind of source entity an embedding represents.
// It determines how ContentId is interpreted and what rebuild logic applies.
type ContentType int

const (
	// ContentTypeCompanyInfo is the tenant's structured company profile.
	ContentTypeCompanyInfo ContentType = iota + 1
	// ContentTypeDocument is the descriptive metadata of an uploaded document.
	ContentTypeDocument
	// ContentTypeAdditionalContext is free-form context text supplied by the tenant.
	ContentTypeAdditionalContext
	// ContentTypeProjectMetadata is the structured metadata of a project.
	ContentTypeProjectMetadata
	// ContentTypeDocumentChunk is a fragment split from larger context text.
	// Chunk records carry no ContentId since they have no single source row.
	ContentTypeDocumentChunk
)

var contentTypeNames = map[ContentType]string{
	ContentTypeCompanyInfo:       "company_info",
	ContentTypeDocument:          "document",
	ContentTypeAdditionalContext: "additional_context",
	ContentTypeProjectMetadata:   "project_metadata",
	ContentTypeDocumentChunk:     "document_chunk",
}

// String returns the wire name of the content type.
func (c ContentType) String() string {
	if name, ok := contentTypeNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseContentType parses the wire name of a content type.
// Returns ErrInvalidContentType for unrecognized names.
func ParseContentType(name string) (ContentType, error) {
	for ct, n := range contentTypeNames {
		if n == name {
			return ct, nil
		}
	}
	return 0, ErrInvalidContentType
}

// EmbeddingRecord is the current embedding of one piece of tenant content.
// For a given (TenantId, Scope, ScopeId, ContentType, ContentId) tuple at
// most one live record exists; replacements go through the repository's
// atomic upsert rather than accumulating duplicates.
type EmbeddingRecord struct {
	Id          ID
	TenantId    ID        // Owning account; required, immutable
	Scope       ScopeKind // Which logical table the record lives in
	ScopeId     ID        // Project id for ScopeProject records, 0 otherwise
	ContentType ContentType
	ContentId   ID             // Source row reference, 0 for chunk fragments
	Content     string         // Exact text that was embedded
	Metadata    map[string]any // Open bag, threaded through to search results uninterpreted
	Embedding   []float32      // Fixed-length vector (populated by the embedder)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasTuple reports whether the record has a replace-by-tuple identity.
// Chunk fragments (document_chunk records with no source row) are inserted
// rather than upserted.
func (r *EmbeddingRecord) HasTuple() bool {
	return r.ContentId != 0 || r.ContentType != ContentTypeDocumentChunk
}

// ChunkID derives a deterministic ID for a chunk fragment from its scope
// and position. Re-chunking identical text yields identical IDs, which
// keeps rebuild sweeps idempotent.
func ChunkID(tenant ID, scope ScopeKind, scopeId ID, ordinal int, text string) ID {
	return IDFromContent(fmt.Sprintf("%s:%d:%d:%d:%s", scope, tenant, scopeId, ordinal, text))
}

// SearchResult is a similarity match with the full record and its score.
type SearchResult struct {
	Record     *EmbeddingRecord
	Similarity float32
}
