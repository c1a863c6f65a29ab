package badger

import (
	"encoding/binary"

	"github.com/poiesic/brainbase/core"
)

// Key prefixes for different data types
const (
	embRecordPrefix  = "embrec"
	embTuplePrefix   = "embtup"
	embContentPrefix = "embcid"
	embRecordIDSeq   = "embrecseq"
)

// makeRecordKey generates the primary key for an embedding record.
// Format: prefix:tenant:id
func makeRecordKey(tenant, id core.ID) []byte {
	prefix := embRecordPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(tenant))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}

// makeTenantRecordPrefix generates the partial record key covering every
// record a tenant holds. Scans over it can never touch another tenant.
func makeTenantRecordPrefix(tenant core.ID) []byte {
	prefix := embRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(tenant))
	return buf
}

// makeTupleKey generates the identity-index key for a source-backed record.
// Format: prefix:tenant:scope:scopeId:contentType:contentId
// At most one live record exists per tuple key; the upsert path reads and
// rewrites it inside the same transaction.
func makeTupleKey(tenant core.ID, scope core.ScopeKind, scopeId core.ID, contentType core.ContentType, contentId core.ID) []byte {
	prefix := embTuplePrefix + ":"
	buf := make([]byte, len(prefix)+26)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(tenant))
	offset += 8
	buf[offset] = byte(scope)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(scopeId))
	offset += 8
	buf[offset] = byte(contentType)
	offset++
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentId))
	return buf
}

// makeContentKey generates a composite key for the content-id index.
// Format: prefix:tenant:contentId:recordId
func makeContentKey(tenant, contentId, recordId core.ID) []byte {
	prefix := embContentPrefix + ":"
	buf := make([]byte, len(prefix)+24)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(tenant))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentId))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(recordId))
	return buf
}

// makePartialContentKey generates a partial key for content-id lookups.
// Format: prefix:tenant:contentId
func makePartialContentKey(tenant, contentId core.ID) []byte {
	prefix := embContentPrefix + ":"
	buf := make([]byte, len(prefix)+16)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], uint64(tenant))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(contentId))
	return buf
}
