package metastore

import (
	"time"

	"github.com/meteordb/tablestore/internal/collection"
)

func entityToRecord(e *EntityRecord) collection.Record {
	return collection.Record{
		"PartitionKey":     e.PartitionKey,
		"RowKey":           e.RowKey,
		"Properties":       e.Properties,
		"LastModifiedTime": e.LastModifiedTime,
		"ETag":             e.ETag,
	}
}

func recordToEntity(r collection.Record) *EntityRecord {
	e := &EntityRecord{
		PartitionKey: r["PartitionKey"].(string),
		RowKey:       r["RowKey"].(string),
		ETag:         r["ETag"].(string),
	}
	if t, ok := r["LastModifiedTime"].(time.Time); ok {
		e.LastModifiedTime = t
	}
	if props, ok := r["Properties"].(*OrderedProperties); ok {
		e.Properties = props
	}
	return e
}

// normalizeETagForCompare applies spec.md §4.5's URL-encoding quirk: the
// first two ':' characters are replaced with "%3A" before comparing,
// because the reference implementation's If-Match header handling runs the
// condition value through a URL decode step that never fully round-trips.
func normalizeETagForCompare(etag string) string {
	out := make([]byte, 0, len(etag)+6)
	replaced := 0
	for i := 0; i < len(etag); i++ {
		if etag[i] == ':' && replaced < 2 {
			out = append(out, "%3A"...)
			replaced++
			continue
		}
		out = append(out, etag[i])
	}
	return string(out)
}

// etagMatches is used by update/merge: both sides run through the
// %3A-encoding normalization before comparing.
func etagMatches(provided, stored string) bool {
	if provided == "" || provided == "*" {
		return true
	}
	return normalizeETagForCompare(provided) == normalizeETagForCompare(stored)
}

// etagMatchesRaw is used by delete: spec.md §9 preserves this asymmetry —
// delete compares the If-Match value against the stored ETag exactly as
// given, with no %3A normalization on either side.
func etagMatchesRaw(provided, stored string) bool {
	if provided == "" || provided == "*" {
		return true
	}
	return provided == stored
}

func mergeProperties(base, incoming *OrderedProperties) *OrderedProperties {
	out := base.Clone()
	if incoming != nil {
		incoming.Range(func(name string, v PropertyValue) bool {
			out.Set(name, v)
			return true
		})
	}
	return out
}

// formatTimestamp renders a stored lastModifiedTime the way Timestamp
// properties are round-tripped through filter comparisons: RFC3339Nano,
// the same layout parseODataDateTime tries first.
func formatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// stampTimestamp recomputes the Timestamp property from lastModifiedTime,
// per spec.md §3/§4.5: every successful write recomputes Timestamp's string
// form and tags it Edm.DateTime.
func stampTimestamp(props *OrderedProperties, lastModifiedTime time.Time) *OrderedProperties {
	if props == nil {
		props = NewOrderedProperties()
	}
	props.Set("Timestamp", PropertyValue{Value: formatTimestamp(lastModifiedTime), EdmType: "Edm.DateTime"})
	return props
}

// InsertTableEntity inserts a brand-new entity. Fails with
// ErrEntityAlreadyExists if (PartitionKey, RowKey) is already present.
func (s *Store) InsertTableEntity(account, table string, e *EntityRecord, batchID string) (*EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, wrap(KindTableNotExist, "insert entity: table %s/%s does not exist", account, table)
	}

	if _, exists := coll.By(e.PartitionKey, e.RowKey); exists {
		return nil, wrap(KindEntityAlreadyExists, "insert entity: %s/%s already exists", e.PartitionKey, e.RowKey)
	}

	out := e.Clone()
	out.LastModifiedTime = time.Now().UTC()
	out.ETag = s.nextETag()
	out.Properties = stampTimestamp(out.Properties, out.LastModifiedTime)

	if err := coll.Insert(entityToRecord(out)); err != nil {
		return nil, err
	}

	if err := s.recordBatchInsert(batchID, collName, out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertOrUpdateTableEntity unconditionally replaces (or creates) an
// entity; there is no ETag check.
func (s *Store) InsertOrUpdateTableEntity(account, table string, e *EntityRecord, batchID string) (*EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, wrap(KindTableNotExist, "insert-or-update entity: table %s/%s does not exist", account, table)
	}

	existing, existed := coll.By(e.PartitionKey, e.RowKey)

	out := e.Clone()
	out.LastModifiedTime = time.Now().UTC()
	out.ETag = s.nextETag()
	out.Properties = stampTimestamp(out.Properties, out.LastModifiedTime)

	var err error
	if existed {
		err = coll.Update(entityToRecord(out))
	} else {
		err = coll.Insert(entityToRecord(out))
	}
	if err != nil {
		return nil, err
	}

	if existed {
		if err := s.recordBatchPreImage(batchID, collName, recordToEntity(existing)); err != nil {
			return nil, err
		}
	} else if err := s.recordBatchInsert(batchID, collName, out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertOrMergeTableEntity merges incoming properties into the existing
// entity (last-writer-wins per property), or inserts a new entity if none
// exists. Per spec.md §9's preserved Open-Question resolution, the
// existence probe here ignores batchID entirely — it is a plain lookup
// against current state, the same one a non-batched call would make, since
// this store applies batched writes in place rather than staging them.
func (s *Store) InsertOrMergeTableEntity(account, table string, e *EntityRecord, batchID string) (*EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, wrap(KindTableNotExist, "insert-or-merge entity: table %s/%s does not exist", account, table)
	}

	existing, existed := coll.By(e.PartitionKey, e.RowKey)

	out := e.Clone()
	if existed {
		out.Properties = mergeProperties(recordToEntity(existing).Properties, e.Properties)
	}
	out.LastModifiedTime = time.Now().UTC()
	out.ETag = s.nextETag()
	out.Properties = stampTimestamp(out.Properties, out.LastModifiedTime)

	var err error
	if existed {
		err = coll.Update(entityToRecord(out))
	} else {
		err = coll.Insert(entityToRecord(out))
	}
	if err != nil {
		return nil, err
	}

	if existed {
		if err := s.recordBatchPreImage(batchID, collName, recordToEntity(existing)); err != nil {
			return nil, err
		}
	} else if err := s.recordBatchInsert(batchID, collName, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateTableEntity fully replaces an existing entity after an ETag check.
// ifMatch of "" or "*" skips the check.
func (s *Store) UpdateTableEntity(account, table string, e *EntityRecord, ifMatch string, batchID string) (*EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, wrap(KindTableNotExist, "update entity: table %s/%s does not exist", account, table)
	}

	existing, exists := coll.By(e.PartitionKey, e.RowKey)
	if !exists {
		return nil, wrap(KindEntityNotFound, "update entity: %s/%s not found", e.PartitionKey, e.RowKey)
	}
	base := recordToEntity(existing)

	if !etagMatches(ifMatch, base.ETag) {
		return nil, ErrPreconditionFailed
	}

	out := e.Clone()
	out.LastModifiedTime = time.Now().UTC()
	out.ETag = s.nextETag()
	out.Properties = stampTimestamp(out.Properties, out.LastModifiedTime)

	if err := coll.Update(entityToRecord(out)); err != nil {
		return nil, err
	}

	if err := s.recordBatchPreImage(batchID, collName, base); err != nil {
		return nil, err
	}
	return out, nil
}

// MergeTableEntity partially merges properties into an existing entity
// after an ETag check.
func (s *Store) MergeTableEntity(account, table string, e *EntityRecord, ifMatch string, batchID string) (*EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, wrap(KindTableNotExist, "merge entity: table %s/%s does not exist", account, table)
	}

	existing, exists := coll.By(e.PartitionKey, e.RowKey)
	if !exists {
		return nil, wrap(KindEntityNotFound, "merge entity: %s/%s not found", e.PartitionKey, e.RowKey)
	}
	base := recordToEntity(existing)

	if !etagMatches(ifMatch, base.ETag) {
		return nil, ErrPreconditionFailed
	}

	out := base.Clone()
	out.Properties = mergeProperties(base.Properties, e.Properties)
	out.LastModifiedTime = time.Now().UTC()
	out.ETag = s.nextETag()
	out.Properties = stampTimestamp(out.Properties, out.LastModifiedTime)

	if err := coll.Update(entityToRecord(out)); err != nil {
		return nil, err
	}

	if err := s.recordBatchPreImage(batchID, collName, base); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTableEntity removes an entity after an ETag check. Unlike
// update/merge, the If-Match comparison here is against the raw stored
// ETag — see etagMatchesRaw.
func (s *Store) DeleteTableEntity(account, table, partitionKey, rowKey, ifMatch string, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return wrap(KindTableNotExist, "delete entity: table %s/%s does not exist", account, table)
	}

	existing, exists := coll.By(partitionKey, rowKey)
	if !exists {
		return wrap(KindEntityNotFound, "delete entity: %s/%s not found", partitionKey, rowKey)
	}
	base := recordToEntity(existing)

	if !etagMatchesRaw(ifMatch, base.ETag) {
		return ErrPreconditionFailed
	}

	if err := coll.Remove(existing); err != nil {
		return err
	}

	return s.recordBatchPreImage(batchID, collName, base)
}

// recordBatchInsert and recordBatchPreImage log undo-log entries when
// batchID is non-empty and a batch is active, and return ErrInvalidInput
// for a non-empty batchID while no batch is active. The batchID is not
// compared with the one passed to Begin.
func (s *Store) recordBatchInsert(batchID, collName string, inserted *EntityRecord) error {
	if batchID == "" {
		return nil
	}
	if !s.batch.Active() {
		return wrap(KindInvalidInput, "batch %q is not active", batchID)
	}
	s.batch.RecordInsert(collName, inserted)
	return nil
}

func (s *Store) recordBatchPreImage(batchID, collName string, pre *EntityRecord) error {
	if batchID == "" {
		return nil
	}
	if !s.batch.Active() {
		return wrap(KindInvalidInput, "batch %q is not active", batchID)
	}
	s.batch.RecordPreImage(collName, pre)
	return nil
}
