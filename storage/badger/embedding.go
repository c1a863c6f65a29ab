package badger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/brainbase/core"
	"github.com/poiesic/brainbase/storage"
)

// upsertRetries bounds how often a tuple upsert is replayed after losing a
// write-write race on the tuple key.
const upsertRetries = 3

// EmbeddingRepository implements storage.EmbeddingRepository for BadgerDB.
type EmbeddingRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.EmbeddingRepository = (*EmbeddingRepository)(nil)

// NewEmbeddingRepository creates a new EmbeddingRepository.
func NewEmbeddingRepository(backend *Backend) (*EmbeddingRepository, error) {
	idSeq, err := backend.GetSequence(embRecordIDSeq)
	if err != nil {
		return nil, err
	}

	return &EmbeddingRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *EmbeddingRepository) Close() error {
	return r.idSeq.Release()
}

// Upsert atomically replaces the live record for the tuple
// (TenantId, Scope, ScopeId, ContentType, ContentId). The tuple lookup and
// the rewrite happen in one transaction, so concurrent writers cannot leave
// two live records for the same tuple; the loser of the race retries.
func (r *EmbeddingRepository) Upsert(ctx context.Context, record *core.EmbeddingRecord) (*core.EmbeddingRecord, error) {
	if !record.HasTuple() {
		return nil, fmt.Errorf("%w: chunk fragments go through Insert", storage.ErrInvalidQuery)
	}

	var lastErr error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			tupleKey := makeTupleKey(record.TenantId, record.Scope, record.ScopeId, record.ContentType, record.ContentId)

			now := time.Now().UTC()
			old, err := r.readByTuple(tx, record.TenantId, tupleKey)
			if err != nil {
				return err
			}
			if old != nil {
				// Replacement keeps the identity and age of the row
				record.Id = old.Id
				record.CreatedAt = old.CreatedAt
			} else {
				nextID, err := r.nextID()
				if err != nil {
					return err
				}
				record.Id = nextID
				record.CreatedAt = now
			}
			record.UpdatedAt = now

			value, err := storage.MarshalEmbeddingRecord(record)
			if err != nil {
				return err
			}
			if err := tx.Set(makeRecordKey(record.TenantId, record.Id), value); err != nil {
				return err
			}
			if err := tx.Set(tupleKey, storage.MarshalID(record.Id)); err != nil {
				return err
			}
			if record.ContentId != 0 {
				key := makeContentKey(record.TenantId, record.ContentId, record.Id)
				if err := tx.Set(key, storage.MarshalID(record.Id)); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)

		if err == nil {
			return record, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %w", storage.ErrConflict, lastErr)
}

// Insert adds records without tuple-identity handling. Chunk fragments
// arrive with deterministic content-hash Ids, so re-inserting the same
// fragment overwrites itself instead of duplicating.
func (r *EmbeddingRepository) Insert(ctx context.Context, records ...*core.EmbeddingRecord) ([]*core.EmbeddingRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if err := r.insertTx(tx, record); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return records, err
}

// Get retrieves a single record by tenant and id.
func (r *EmbeddingRepository) Get(ctx context.Context, tenant core.ID, id core.ID) (*core.EmbeddingRecord, error) {
	var result *core.EmbeddingRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readRecord(tx, makeRecordKey(tenant, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// DeleteByScope removes every record for a company or project scope.
func (r *EmbeddingRepository) DeleteByScope(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID) (int, error) {
	return r.deleteMatching(tenant, func(record *core.EmbeddingRecord) bool {
		return record.Scope == scope && record.ScopeId == scopeId
	})
}

// DeleteByType removes every record of one content type within a scope.
func (r *EmbeddingRepository) DeleteByType(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, contentType core.ContentType) (int, error) {
	return r.deleteMatching(tenant, func(record *core.EmbeddingRecord) bool {
		return record.Scope == scope && record.ScopeId == scopeId && record.ContentType == contentType
	})
}

// DeleteByContentID removes the record(s) tied to one source row, using the
// content-id index instead of a full tenant scan.
func (r *EmbeddingRepository) DeleteByContentID(ctx context.Context, tenant core.ID, contentId core.ID) (int, error) {
	if contentId == 0 {
		return 0, nil
	}

	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		startKey := makePartialContentKey(tenant, contentId)

		var recordIDs []core.ID
		opts := badger.DefaultIteratorOptions
		opts.Prefix = startKey
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			var recordID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				recordID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				iter.Close()
				return err
			}
			recordIDs = append(recordIDs, recordID)
		}
		iter.Close()

		for _, recordID := range recordIDs {
			record, err := r.readRecord(tx, makeRecordKey(tenant, recordID))
			if err != nil {
				return err
			}
			if record == nil {
				// Stale index entry; drop it anyway
				record = &core.EmbeddingRecord{Id: recordID, TenantId: tenant, ContentId: contentId}
			}
			if err := r.deleteRecordKeys(tx, record); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ReplaceByTypes swaps a scope's records of the given content types for the
// supplied replacements inside one transaction. A concurrent replacement of
// the same scope hits a transaction conflict and retries, so the surviving
// set always comes from a single caller and never mixes two writes.
func (r *EmbeddingRepository) ReplaceByTypes(ctx context.Context, tenant core.ID, scope core.ScopeKind, scopeId core.ID, types []core.ContentType, records ...*core.EmbeddingRecord) (int, error) {
	match := func(record *core.EmbeddingRecord) bool {
		return record.Scope == scope && record.ScopeId == scopeId &&
			slices.Contains(types, record.ContentType)
	}

	var lastErr error
	for attempt := 0; attempt < upsertRetries; attempt++ {
		deleted := 0
		err := r.backend.WithTx(func(tx *badger.Txn) error {
			victims, err := r.collectMatching(tx, tenant, match)
			if err != nil {
				return err
			}
			for _, victim := range victims {
				if err := r.deleteRecordKeys(tx, victim); err != nil {
					return err
				}
				deleted++
			}
			for _, record := range records {
				if err := r.insertTx(tx, record); err != nil {
					return err
				}
			}
			return tx.Commit()
		}, true)

		if err == nil {
			return deleted, nil
		}
		if !errors.Is(err, badger.ErrConflict) {
			return 0, err
		}
		lastErr = err
	}

	return 0, fmt.Errorf("%w: %w", storage.ErrConflict, lastErr)
}

// FindSimilar ranks the tenant's candidate records by cosine similarity.
func (r *EmbeddingRepository) FindSimilar(ctx context.Context, query *storage.SimilarityQuery) ([]*core.SearchResult, error) {
	if query.TenantId == 0 {
		return nil, fmt.Errorf("%w: tenant is required", storage.ErrInvalidQuery)
	}
	if len(query.Vector) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", storage.ErrInvalidQuery)
	}
	if query.Limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}

	var results []*core.SearchResult
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTenantRecordPrefix(query.TenantId)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var record *core.EmbeddingRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalEmbeddingRecord(val)
				return err
			})
			if err != nil {
				return err
			}
			if record == nil || len(record.Embedding) == 0 {
				continue
			}

			if record.Scope != query.Scope {
				continue
			}
			if query.ScopeId != nil && record.ScopeId != *query.ScopeId {
				continue
			}
			if query.ContentType != nil && record.ContentType != *query.ContentType {
				continue
			}

			similarity := cosineSimilarity(query.Vector, record.Embedding)
			if similarity >= query.MinSimilarity {
				results = append(results, &core.SearchResult{
					Record:     record,
					Similarity: similarity,
				})
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ties broken by newest record first
	slices.SortFunc(results, func(a, b *core.SearchResult) int {
		if a.Similarity > b.Similarity {
			return -1
		}
		if a.Similarity < b.Similarity {
			return 1
		}
		return b.Record.CreatedAt.Compare(a.Record.CreatedAt)
	})

	if len(results) > query.Limit {
		results = results[:query.Limit]
	}

	return results, nil
}

// CountByTenant returns the number of live records a tenant holds.
func (r *EmbeddingRepository) CountByTenant(ctx context.Context, tenant core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeTenantRecordPrefix(tenant)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper methods

// nextID draws the next sequence value, skipping the 0 a fresh sequence
// can hand out first.
func (r *EmbeddingRepository) nextID() (core.ID, error) {
	nextID, err := r.idSeq.Next()
	if err != nil {
		return 0, err
	}
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return 0, err
		}
	}
	return core.ID(nextID), nil
}

// readRecord reads an embedding record from the transaction.
func (r *EmbeddingRepository) readRecord(tx *badger.Txn, key []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var record *core.EmbeddingRecord
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		record, unmarshalErr = storage.UnmarshalEmbeddingRecord(val)
		return unmarshalErr
	})
	return record, err
}

// readByTuple resolves a tuple key to its live record, or nil.
func (r *EmbeddingRepository) readByTuple(tx *badger.Txn, tenant core.ID, tupleKey []byte) (*core.EmbeddingRecord, error) {
	item, err := tx.Get(tupleKey)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var recordID core.ID
	if err := item.Value(func(val []byte) error {
		var err error
		recordID, err = storage.UnmarshalID(val)
		return err
	}); err != nil {
		return nil, err
	}

	return r.readRecord(tx, makeRecordKey(tenant, recordID))
}

// deleteMatching scans a tenant's records and removes those the predicate
// selects, cleaning up index keys alongside the primary key.
func (r *EmbeddingRepository) deleteMatching(tenant core.ID, match func(*core.EmbeddingRecord) bool) (int, error) {
	deleted := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		victims, err := r.collectMatching(tx, tenant, match)
		if err != nil {
			return err
		}
		for _, record := range victims {
			if err := r.deleteRecordKeys(tx, record); err != nil {
				return err
			}
			deleted++
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// collectMatching scans a tenant's records within the transaction and
// returns those the predicate selects.
func (r *EmbeddingRepository) collectMatching(tx *badger.Txn, tenant core.ID, match func(*core.EmbeddingRecord) bool) ([]*core.EmbeddingRecord, error) {
	var victims []*core.EmbeddingRecord

	opts := badger.DefaultIteratorOptions
	opts.Prefix = makeTenantRecordPrefix(tenant)
	iter := tx.NewIterator(opts)
	defer iter.Close()

	for iter.Rewind(); iter.Valid(); iter.Next() {
		var record *core.EmbeddingRecord
		err := iter.Item().Value(func(val []byte) error {
			var err error
			record, err = storage.UnmarshalEmbeddingRecord(val)
			return err
		})
		if err != nil {
			return nil, err
		}
		if record != nil && match(record) {
			victims = append(victims, record)
		}
	}
	return victims, nil
}

// insertTx writes one record and its content index key into the transaction,
// assigning a sequence Id and timestamps.
func (r *EmbeddingRepository) insertTx(tx *badger.Txn, record *core.EmbeddingRecord) error {
	if record.Id == 0 {
		nextID, err := r.nextID()
		if err != nil {
			return err
		}
		record.Id = nextID
	}

	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt

	value, err := storage.MarshalEmbeddingRecord(record)
	if err != nil {
		return err
	}
	if err := tx.Set(makeRecordKey(record.TenantId, record.Id), value); err != nil {
		return err
	}
	if record.ContentId != 0 {
		key := makeContentKey(record.TenantId, record.ContentId, record.Id)
		if err := tx.Set(key, storage.MarshalID(record.Id)); err != nil {
			return err
		}
	}
	return nil
}

// deleteRecordKeys removes a record's primary key and its index keys.
func (r *EmbeddingRepository) deleteRecordKeys(tx *badger.Txn, record *core.EmbeddingRecord) error {
	if record.HasTuple() {
		tupleKey := makeTupleKey(record.TenantId, record.Scope, record.ScopeId, record.ContentType, record.ContentId)
		if err := tx.Delete(tupleKey); err != nil {
			return err
		}
	}
	if record.ContentId != 0 {
		key := makeContentKey(record.TenantId, record.ContentId, record.Id)
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return tx.Delete(makeRecordKey(record.TenantId, record.Id))
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Vectors arrive from external embedding providers and are not assumed to
// be unit-normalized.
func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
