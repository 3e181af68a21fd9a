package metastore

import "github.com/meteordb/tablestore/internal/collection"

func tableToRecord(t *TableRecord) collection.Record {
	return collection.Record{
		"Account":  t.Account,
		"Table":    t.Table,
		"TableACL": t.TableACL,
	}
}

func recordToTable(r collection.Record) *TableRecord {
	t := &TableRecord{
		Account: r["Account"].(string),
		Table:   r["Table"].(string),
	}
	if acl, ok := r["TableACL"].(*TableACL); ok {
		t.TableACL = acl
	}
	return t
}

// CreateTable registers a new table for account. Fails with
// ErrTableAlreadyExists if (account, table) is already registered.
func (s *Store) CreateTable(account, table string) (*TableRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	tables, _ := s.coll.Collection(TablesCollection)
	if _, exists := tables.By(account, table); exists {
		return nil, wrap(KindTableAlreadyExists, "create table: %s/%s already exists", account, table)
	}

	rec := &TableRecord{Account: account, Table: table}
	if err := tables.Insert(tableToRecord(rec)); err != nil {
		return nil, wrap(KindTableAlreadyExists, "create table %s/%s: %w", account, table, err)
	}

	s.coll.AddCollection(entityCollectionName(account, table), collection.Options{
		PrimaryKey: []string{"PartitionKey", "RowKey"},
	})

	return rec, nil
}

// DeleteTable removes a table's registry row and its entity collection.
// Deleting an unknown table is ErrTableNotExist.
func (s *Store) DeleteTable(account, table string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return err
	}

	tables, _ := s.coll.Collection(TablesCollection)
	rec, exists := tables.By(account, table)
	if !exists {
		return wrap(KindTableNotExist, "delete table: %s/%s does not exist", account, table)
	}

	if err := tables.Remove(rec); err != nil {
		return err
	}
	s.coll.RemoveCollection(entityCollectionName(account, table))
	return nil
}

// GetTable returns the registry row for (account, table).
func (s *Store) GetTable(account, table string) (*TableRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	tables, _ := s.coll.Collection(TablesCollection)
	rec, exists := tables.By(account, table)
	if !exists {
		return nil, wrap(KindTableNotExist, "get table: %s/%s does not exist", account, table)
	}
	return recordToTable(rec), nil
}

// SetTableACL stores an opaque access-control blob against a table. This is
// storage only — ACL enforcement is a Non-goal. A caller-supplied acl with
// a blank ID is assigned one via uuid.NewString().
func (s *Store) SetTableACL(account, table string, acl *TableACL) (*TableRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	tables, _ := s.coll.Collection(TablesCollection)
	rec, exists := tables.By(account, table)
	if !exists {
		return nil, wrap(KindTableNotExist, "set table acl: %s/%s does not exist", account, table)
	}

	out := recordToTable(rec)
	out.TableACL = defaultACLID(acl)

	if err := tables.Update(tableToRecord(out)); err != nil {
		return nil, err
	}
	return out, nil
}

// GetAccessPolicy and SetAccessPolicy are the get/set *access-policy*
// endpoints distinct from SetTableACL's opaque-blob storage. They always
// fail with ErrNotImplemented, per spec.md §7.
func (s *Store) GetAccessPolicy(account, table string) (*TableACL, error) {
	return nil, ErrNotImplemented
}

func (s *Store) SetAccessPolicy(account, table string, acl *TableACL) error {
	return ErrNotImplemented
}
