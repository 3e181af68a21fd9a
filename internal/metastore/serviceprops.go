package metastore

import "github.com/meteordb/tablestore/internal/collection"

func servicePropsToRecord(r *ServicePropertiesRecord) collection.Record {
	return collection.Record{
		"AccountName":   r.AccountName,
		"CORS":          r.CORS,
		"HourMetrics":   r.HourMetrics,
		"MinuteMetrics": r.MinuteMetrics,
		"Logging":       r.Logging,
	}
}

func recordToServiceProps(rec collection.Record) *ServicePropertiesRecord {
	r := &ServicePropertiesRecord{AccountName: rec["AccountName"].(string)}
	if v, ok := rec["CORS"].(*CORSRules); ok {
		r.CORS = v
	}
	if v, ok := rec["HourMetrics"].(*MetricsConfig); ok {
		r.HourMetrics = v
	}
	if v, ok := rec["MinuteMetrics"].(*MetricsConfig); ok {
		r.MinuteMetrics = v
	}
	if v, ok := rec["Logging"].(*LoggingConfig); ok {
		r.Logging = v
	}
	return r
}

// GetServiceProperties returns the stored service-properties row for
// account, or a zero-value record (no error) if the account has never set
// one — matching spec.md §4.8's "service properties default to empty until
// first set."
func (s *Store) GetServiceProperties(account string) (*ServicePropertiesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	services, _ := s.coll.Collection(ServicesCollection)
	rec, exists := services.By(account)
	if !exists {
		return &ServicePropertiesRecord{AccountName: account}, nil
	}
	return recordToServiceProps(rec), nil
}

// SetServiceProperties upserts account's service-properties row.
// Per spec.md §4.8, each of cors/hourMetrics/minuteMetrics/logging replaces
// the stored value only when the caller's update defines that field —
// leaving it nil keeps whatever was previously stored.
func (s *Store) SetServiceProperties(account string, update *ServicePropertiesRecord) (*ServicePropertiesRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	services, _ := s.coll.Collection(ServicesCollection)
	existing, exists := services.By(account)

	out := &ServicePropertiesRecord{AccountName: account}
	if exists {
		out = recordToServiceProps(existing)
	}
	if update.CORS != nil {
		out.CORS = update.CORS
	}
	if update.HourMetrics != nil {
		out.HourMetrics = update.HourMetrics
	}
	if update.MinuteMetrics != nil {
		out.MinuteMetrics = update.MinuteMetrics
	}
	if update.Logging != nil {
		out.Logging = update.Logging
	}

	var err error
	if exists {
		err = services.Update(servicePropsToRecord(out))
	} else {
		err = services.Insert(servicePropsToRecord(out))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}
