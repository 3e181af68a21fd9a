package metastore

import (
	"encoding/base64"
	"strings"

	"github.com/meteordb/tablestore/internal/collection"
	"github.com/meteordb/tablestore/internal/odata"
)

// tableCandidate and entityCandidate adapt stored records to
// odata.Candidate for predicate evaluation during a scan.
type tableCandidate struct {
	name string
}

func (c tableCandidate) Field(name string) (any, bool) {
	if name == "table" {
		return c.name, true
	}
	return nil, false
}

func (c tableCandidate) Property(string) (any, bool) { return nil, false }

type entityCandidate struct {
	partitionKey, rowKey string
	properties           *OrderedProperties
}

func (c entityCandidate) Field(name string) (any, bool) {
	switch name {
	case "PartitionKey":
		return c.partitionKey, true
	case "RowKey":
		return c.rowKey, true
	default:
		return nil, false
	}
}

func (c entityCandidate) Property(name string) (any, bool) {
	if c.properties == nil {
		return nil, false
	}
	pv, ok := c.properties.Get(name)
	if !ok {
		return nil, false
	}
	return pv.Value, true
}

func encodeContinuationToken(key string) string {
	if key == "" {
		return ""
	}
	return base64.StdEncoding.EncodeToString([]byte(key))
}

func decodeContinuationToken(token string) string {
	if token == "" {
		return ""
	}
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return ""
	}
	return string(b)
}

func clampTop(top int) int {
	if top <= 0 || top > QueryResultMaxNum {
		return QueryResultMaxNum
	}
	return top
}

// QueryTable lists tables for account matching filter, ordered by table
// name, resuming at continuationTableName (a token previously returned as
// nextTableName — the name a prior call popped off its own result rather
// than returning). It fetches top+1 rows and, when a (top+1)th row exists,
// pops it off to produce the next page's continuation token instead of
// returning it — the "overfetch-then-pop-tail" pagination shape spec.md
// §4.6 calls for; the popped row is itself the next page's first row, so
// resuming compares with >= rather than >.
func (s *Store) QueryTable(account, filter string, top int, continuationTableName string) ([]*TableRecord, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, "", err
	}
	top = clampTop(top)

	pred, err := odata.Compile(filter, odata.TargetTable)
	if err != nil {
		return nil, "", ErrQueryConditionInvalid
	}

	startAfter := decodeContinuationToken(continuationTableName)

	tables, _ := s.coll.Collection(TablesCollection)
	rows := tables.Query().
		Where(func(r collection.Record) bool { return r["Account"].(string) == account }).
		Where(func(r collection.Record) bool {
			return startAfter == "" || r["Table"].(string) >= startAfter
		}).
		Where(func(r collection.Record) bool {
			return pred(tableCandidate{name: r["Table"].(string)})
		}).
		SimpleSort("Table").
		Limit(top + 1).
		Data()

	next := ""
	if len(rows) > top {
		next = encodeContinuationToken(rows[top]["Table"].(string))
		rows = rows[:top]
	}

	out := make([]*TableRecord, len(rows))
	for i, r := range rows {
		out[i] = recordToTable(r)
	}
	return out, next, nil
}

// QueryTableEntities lists entities in table matching filter, ordered by
// (PartitionKey, RowKey), resuming at the given continuation values (the
// row they name is the first row of the page, so RowKey compares with >=).
// Per spec.md §4.6, the continuation is encoded per-key — the partition key
// and row key each get their own base64 token — rather than as one
// composite token.
func (s *Store) QueryTableEntities(account, table, filter string, top int, continuationPartitionKey, continuationRowKey string) ([]*EntityRecord, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, "", "", err
	}
	top = clampTop(top)

	pred, err := odata.Compile(filter, odata.TargetEntity)
	if err != nil {
		return nil, "", "", ErrQueryConditionInvalid
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, "", "", wrap(KindTableNotExist, "query entities: table %s/%s does not exist", account, table)
	}

	startPK := decodeContinuationToken(continuationPartitionKey)
	startRK := decodeContinuationToken(continuationRowKey)

	rows := coll.Query().
		Where(func(r collection.Record) bool {
			if startPK == "" {
				return true
			}
			pk, rk := r["PartitionKey"].(string), r["RowKey"].(string)
			if pk != startPK {
				return pk > startPK
			}
			return rk >= startRK
		}).
		Where(func(r collection.Record) bool {
			e := recordToEntity(r)
			return pred(entityCandidate{partitionKey: e.PartitionKey, rowKey: e.RowKey, properties: e.Properties})
		}).
		Sort(func(a, b collection.Record) int {
			pa, pb := a["PartitionKey"].(string), b["PartitionKey"].(string)
			if pa != pb {
				return strings.Compare(pa, pb)
			}
			return strings.Compare(a["RowKey"].(string), b["RowKey"].(string))
		}).
		Limit(top + 1).
		Data()

	nextPK, nextRK := "", ""
	if len(rows) > top {
		extra := rows[top]
		nextPK = encodeContinuationToken(extra["PartitionKey"].(string))
		nextRK = encodeContinuationToken(extra["RowKey"].(string))
		rows = rows[:top]
	}

	out := make([]*EntityRecord, len(rows))
	for i, r := range rows {
		out[i] = recordToEntity(r)
	}
	return out, nextPK, nextRK, nil
}

// QueryTableEntitiesWithPartitionAndRowKey is the direct point-lookup form
// of entity query, addressed by exact (PartitionKey, RowKey).
func (s *Store) QueryTableEntitiesWithPartitionAndRowKey(account, table, partitionKey, rowKey string) (*EntityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	collName := entityCollectionName(account, table)
	coll, ok := s.coll.Collection(collName)
	if !ok {
		return nil, wrap(KindTableNotExist, "get entity: table %s/%s does not exist", account, table)
	}

	r, exists := coll.By(partitionKey, rowKey)
	if !exists {
		return nil, wrap(KindEntityNotFound, "get entity: %s/%s not found", partitionKey, rowKey)
	}
	return recordToEntity(r), nil
}
