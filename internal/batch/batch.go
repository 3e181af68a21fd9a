// Package batch implements the undo-log side of a batch transaction: one
// in-flight batch at a time, logging pre-images and fresh inserts so a
// caller can roll every operation in the batch back in one call.
//
// Grounded on the teacher's transactionmanager.TransactionManager — a
// single mutex-guarded struct tracking in-flight transaction state —
// generalized from "queue every operation and replay it at COMMIT" to "let
// operations apply immediately and log enough to undo them," since this
// store's batches commit in place and only need a rollback path.
//
// Manager deliberately logs pre-images and inserts as `any` rather than a
// concrete entity type: package metastore owns the Store that drives a
// Manager, so a concrete dependency here would import metastore and create
// an import cycle. Callers type-assert back to their own record type inside
// the restore/undo callbacks passed to End.
package batch

import "sync"

type preImage struct {
	table string
	value any
}

type insert struct {
	table string
	value any
}

// Manager tracks the undo log for one in-flight batch. Intended to be
// created once per metastore.Store.
type Manager struct {
	mu        sync.Mutex
	active    bool
	batchID   string
	preImages []preImage
	inserts   []insert
}

func NewManager() *Manager {
	return &Manager{}
}

// Begin starts a new batch. Starting a batch while one is already active is
// a programming error in the caller — this store's batches are never
// nested or interleaved — so Begin panics rather than returning a value an
// already-sloppy caller might ignore.
func (m *Manager) Begin(batchID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		panic("batch: Begin called while a batch is already active")
	}
	m.active = true
	m.batchID = batchID
	m.preImages = nil
	m.inserts = nil
	return nil
}

// RecordPreImage logs the prior state of a row an in-flight batch is about
// to update/merge/delete, so End(false, ...) can restore it.
func (m *Manager) RecordPreImage(table string, pre any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preImages = append(m.preImages, preImage{table: table, value: pre})
}

// RecordInsert logs a row an in-flight batch newly created, so
// End(false, ...) can remove it.
func (m *Manager) RecordInsert(table string, inserted any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inserts = append(m.inserts, insert{table: table, value: inserted})
}

// End closes the active batch. When succeeded is false, restore is called
// once per logged pre-image (most recent first) and undo once per logged
// insert (most recent first), so a caller can unwind partially-applied
// writes in the reverse order they were made.
func (m *Manager) End(succeeded bool, restore func(table string, pre any), undo func(table string, inserted any)) {
	m.mu.Lock()
	preImages := m.preImages
	inserts := m.inserts
	m.active = false
	m.batchID = ""
	m.preImages = nil
	m.inserts = nil
	m.mu.Unlock()

	if succeeded {
		return
	}

	for i := len(inserts) - 1; i >= 0; i-- {
		if undo != nil {
			undo(inserts[i].table, inserts[i].value)
		}
	}
	for i := len(preImages) - 1; i >= 0; i-- {
		if restore != nil {
			restore(preImages[i].table, preImages[i].value)
		}
	}
}

func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// BatchID returns the ID passed to the active Begin, or "" when no batch is
// in flight.
func (m *Manager) BatchID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batchID
}
