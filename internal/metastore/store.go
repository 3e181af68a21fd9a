package metastore

import (
	"fmt"
	"sync"
	"time"

	"github.com/meteordb/tablestore/internal/batch"
	"github.com/meteordb/tablestore/internal/collection"
	"github.com/meteordb/tablestore/internal/seq"
)

// Store is the single entry point owning the table registry, every
// per-table entity collection, the service-properties registry, and the
// one in-flight batch transaction. A single mutex serializes every
// operation, realizing the single-threaded cooperative scheduling model
// spec.md §5 describes without requiring callers to run on one goroutine.
type Store struct {
	mu     sync.Mutex
	coll   *collection.Store
	seq    *seq.Generator
	batch  *batch.Manager
	closed bool
}

// NewStore opens (or creates) the backing collection store at path, ensures
// the tables and services collections exist, and performs one initial save
// so a brand-new store is observable on disk immediately. An empty path
// yields a purely in-memory store.
func NewStore(path string) (*Store, error) {
	coll, err := collection.Open(path)
	if err != nil {
		return nil, fmt.Errorf("metastore: open collection store: %w", err)
	}

	coll.AddCollection(TablesCollection, collection.Options{PrimaryKey: []string{"Account", "Table"}})
	coll.AddCollection(ServicesCollection, collection.Options{PrimaryKey: []string{"AccountName"}})

	if err := coll.Save(); err != nil {
		return nil, fmt.Errorf("metastore: initial save: %w", err)
	}

	return &Store{
		coll:  coll,
		seq:   seq.NewGenerator(),
		batch: batch.NewManager(),
	}, nil
}

// StartAutosave snapshots the store to disk on a fixed interval.
func (s *Store) StartAutosave(interval time.Duration, onError func(error)) {
	s.coll.StartAutosave(interval, onError)
}

// Close flushes a final snapshot and marks the store closed; every
// operation after Close observably fails with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	return s.coll.Close()
}

func (s *Store) checkOpen() error {
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// nextETag produces a strictly increasing, emulator-style opaque ETag: a
// nanosecond timestamp plus a sequence suffix from internal/seq so two
// writes landing in the same nanosecond still get distinct tags.
func (s *Store) nextETag() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), s.seq.Next())
}
