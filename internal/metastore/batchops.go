package metastore

// BeginBatch starts a new batch transaction. Calling BeginBatch while
// another batch is already active is a programming error — see
// batch.Manager.Begin — this store never interleaves or nests batches.
func (s *Store) BeginBatch(batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	return s.batch.Begin(batchID)
}

// CommitBatch ends the active batch successfully, discarding its undo log.
func (s *Store) CommitBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}
	s.batch.End(true, nil, nil)
	return nil
}

// RollbackBatch ends the active batch, restoring every logged pre-image and
// removing every entity it newly inserted.
func (s *Store) RollbackBatch() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	s.batch.End(false,
		func(table string, pre any) {
			rec, ok := pre.(*EntityRecord)
			if !ok {
				return
			}
			coll, ok := s.coll.Collection(table)
			if !ok {
				return
			}
			r := entityToRecord(rec)
			if err := coll.Update(r); err != nil {
				_ = coll.Insert(r)
			}
		},
		func(table string, inserted any) {
			rec, ok := inserted.(*EntityRecord)
			if !ok {
				return
			}
			coll, ok := s.coll.Collection(table)
			if !ok {
				return
			}
			_ = coll.Remove(entityToRecord(rec))
		},
	)
	return nil
}

// BatchActive reports whether a batch is currently in flight.
func (s *Store) BatchActive() bool {
	return s.batch.Active()
}
