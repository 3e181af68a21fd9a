// Package collection implements the durable-collection abstraction the rest
// of the store is built against: named, indexed collections of records with
// periodic snapshotting, modeled after an in-process document store (the
// spec's own reference implementation used lokijs; this is the same shape
// rendered as typed Go).
//
// Grounded on the teacher's sharded map-based tables (internal/store and
// internal/datatable), generalized from fixed-shape byte-slice key/value
// pairs to arbitrary record maps keyed by a named composite primary key, and
// from a single Get/Put/Delete surface to the chainable find/where/sort/limit
// query builder the spec calls for.
package collection

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Record is a single stored document. Collections treat it as opaque except
// for the fields named in its Options.PrimaryKey.
type Record map[string]any

// Clone returns a shallow copy, sufficient for the value types this store
// keeps in records (strings, numbers, times, *metastore.OrderedProperties
// which callers clone themselves before mutating).
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Options configures a collection at creation time.
type Options struct {
	// PrimaryKey names the fields whose combined value must be unique within
	// the collection, and is the key used by By and Insert/Update/Remove.
	PrimaryKey []string
}

// Collection is one named set of records.
type Collection struct {
	mu      sync.RWMutex
	name    string
	opts    Options
	order   []string
	records map[string]Record
}

func newCollection(name string, opts Options) *Collection {
	return &Collection{
		name:    name,
		opts:    opts,
		records: make(map[string]Record),
	}
}

func (c *Collection) Name() string { return c.name }

func (c *Collection) primaryKey(r Record) string {
	parts := make([]string, len(c.opts.PrimaryKey))
	for i, field := range c.opts.PrimaryKey {
		parts[i] = fmt.Sprint(r[field])
	}
	return strings.Join(parts, "\x00")
}

// keyOf builds the same key string from caller-supplied field values, used by
// By for a direct primary-key lookup without constructing a Record.
func keyOf(values ...any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, "\x00")
}

// ErrDuplicateKey is returned by Insert when a record with the same primary
// key already exists.
var ErrDuplicateKey = fmt.Errorf("collection: duplicate primary key")

// ErrNotFound is returned by Update/Remove when no record matches.
var ErrNotFound = fmt.Errorf("collection: record not found")

func (c *Collection) Insert(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.primaryKey(r)
	if _, exists := c.records[key]; exists {
		return ErrDuplicateKey
	}
	c.records[key] = r.Clone()
	c.order = append(c.order, key)
	return nil
}

func (c *Collection) Update(r Record) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := c.primaryKey(r)
	if _, exists := c.records[key]; !exists {
		return ErrNotFound
	}
	c.records[key] = r.Clone()
	return nil
}

func (c *Collection) Remove(r Record) error {
	key := c.primaryKey(r)
	c.mu.Lock()
	_, exists := c.records[key]
	c.mu.Unlock()
	if !exists {
		return ErrNotFound
	}
	c.RemoveByKey(key)
	return nil
}

// RemoveByKey removes the record for a raw primary-key string as produced by
// primaryKey/keyOf; it is a no-op (not an error) when nothing matches, since
// callers generally already know whether the row exists.
func (c *Collection) RemoveByKey(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.records[key]; !exists {
		return
	}
	delete(c.records, key)
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// By looks up a record by its exact primary-key field values, in the order
// given in Options.PrimaryKey.
func (c *Collection) By(values ...any) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.records[keyOf(values...)]
	if !ok {
		return nil, false
	}
	return r.Clone(), true
}

// FindOne returns the first record (in insertion order) matching pred.
func (c *Collection) FindOne(pred func(Record) bool) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, key := range c.order {
		r := c.records[key]
		if pred == nil || pred(r) {
			return r.Clone(), true
		}
	}
	return nil, false
}

// snapshot returns a defensive copy of every record, in insertion order.
func (c *Collection) snapshot() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Record, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.records[key].Clone())
	}
	return out
}

func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Query starts a chainable read against a consistent snapshot of the
// collection taken at call time (the spec's "no cross-operation read-
// committed snapshots" only promises that operation N sees the effects of
// operation N-1, not that a single query observes concurrent mutation
// mid-scan).
func (c *Collection) Query() *QueryBuilder {
	return &QueryBuilder{rows: c.snapshot()}
}

// QueryBuilder implements the spec's chainable find/where/sort/limit surface.
type QueryBuilder struct {
	rows []Record
}

func (q *QueryBuilder) Where(pred func(Record) bool) *QueryBuilder {
	if pred == nil {
		return q
	}
	filtered := q.rows[:0:0]
	for _, r := range q.rows {
		if pred(r) {
			filtered = append(filtered, r)
		}
	}
	q.rows = filtered
	return q
}

// Find is an alias for Where kept for parity with the spec's named surface
// (`find(filter)` alongside `where(predicate)`); in this Go rendering both
// take a predicate since there is no dynamic filter-object literal.
func (q *QueryBuilder) Find(pred func(Record) bool) *QueryBuilder {
	return q.Where(pred)
}

func (q *QueryBuilder) Sort(cmp func(a, b Record) int) *QueryBuilder {
	sort.SliceStable(q.rows, func(i, j int) bool {
		return cmp(q.rows[i], q.rows[j]) < 0
	})
	return q
}

// SimpleSort sorts ascending by a single string-valued field.
func (q *QueryBuilder) SimpleSort(field string) *QueryBuilder {
	return q.Sort(func(a, b Record) int {
		return strings.Compare(fmt.Sprint(a[field]), fmt.Sprint(b[field]))
	})
}

func (q *QueryBuilder) Limit(n int) *QueryBuilder {
	if n >= 0 && n < len(q.rows) {
		q.rows = q.rows[:n]
	}
	return q
}

func (q *QueryBuilder) Data() []Record {
	return q.rows
}
