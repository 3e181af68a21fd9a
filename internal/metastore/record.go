// Package metastore implements the table-storage metadata store: the table
// registry, per-table entity collections, service-properties registry, and
// the CRUD/query operations layered on top of package collection.
//
// Grounded on the teacher's dbmanager.DBManager (the single entry point that
// owns every collection and enforces the "closed store rejects further
// operations" lifecycle), generalized from a flat key/value keyspace to a
// table/entity/service-properties data model.
package metastore

import (
	"encoding/gob"
	"time"
)

// PropertyValue is one stored entity property: its decoded value alongside
// the OData EDM type tag that travelled with it (empty for an untyped,
// implicitly-string property). Keeping the tag alongside the value in one
// struct, rather than as a sibling "<name>@odata.type" map entry, is what
// makes merge's last-writer-wins semantics apply to value and type tag in
// lockstep — overwriting a PropertyValue can never leave a stale type tag
// behind the way two independent map entries could.
type PropertyValue struct {
	Value   any
	EdmType string
}

// OrderedProperties is an insertion-ordered name -> PropertyValue mapping.
// Grounded on the teacher's datatable.MapDataTable, generalized to track
// insertion order explicitly since Go maps (unlike the teacher's use case)
// must preserve the order entities were written in when re-serialized.
type OrderedProperties struct {
	Names  []string
	Values map[string]PropertyValue
}

func NewOrderedProperties() *OrderedProperties {
	return &OrderedProperties{Values: make(map[string]PropertyValue)}
}

func (p *OrderedProperties) Set(name string, v PropertyValue) {
	if _, exists := p.Values[name]; !exists {
		p.Names = append(p.Names, name)
	}
	p.Values[name] = v
}

func (p *OrderedProperties) Get(name string) (PropertyValue, bool) {
	v, ok := p.Values[name]
	return v, ok
}

func (p *OrderedProperties) Delete(name string) {
	if _, exists := p.Values[name]; !exists {
		return
	}
	delete(p.Values, name)
	for i, n := range p.Names {
		if n == name {
			p.Names = append(p.Names[:i], p.Names[i+1:]...)
			break
		}
	}
}

// Range visits every property in insertion order, stopping early if fn
// returns false.
func (p *OrderedProperties) Range(fn func(name string, v PropertyValue) bool) {
	for _, name := range p.Names {
		if !fn(name, p.Values[name]) {
			return
		}
	}
}

func (p *OrderedProperties) Len() int {
	return len(p.Names)
}

func (p *OrderedProperties) Clone() *OrderedProperties {
	out := &OrderedProperties{
		Names:  append([]string(nil), p.Names...),
		Values: make(map[string]PropertyValue, len(p.Values)),
	}
	for k, v := range p.Values {
		out.Values[k] = v
	}
	return out
}

// TableACL is the opaque access-policy blob setTableACL stores. ACL
// enforcement is a Non-goal — this is storage and retrieval only.
type TableACL struct {
	ID         string // policy identifier; defaulted to uuid.NewString() when the caller leaves it blank
	Start      time.Time
	Expiry     time.Time
	Permission string
}

// TableRecord is one row of the table registry.
type TableRecord struct {
	Account  string
	Table    string
	TableACL *TableACL
}

// EntityRecord is one row of a per-table entity collection.
type EntityRecord struct {
	PartitionKey     string
	RowKey           string
	Properties       *OrderedProperties
	LastModifiedTime time.Time
	ETag             string
}

// Clone returns a deep-enough copy: the record and its property map are
// copied, so mutating the result never reaches back into stored state.
func (e *EntityRecord) Clone() *EntityRecord {
	out := *e
	if e.Properties != nil {
		out.Properties = e.Properties.Clone()
	}
	return &out
}

// CORSRules, MetricsConfig, and LoggingConfig back ServicePropertiesRecord's
// per-field replace-iff-defined upsert semantics (C8).
type CORSRules struct {
	AllowedOrigins  []string
	AllowedMethods  []string
	AllowedHeaders  []string
	ExposedHeaders  []string
	MaxAgeInSeconds int
}

type MetricsConfig struct {
	Enabled         bool
	IncludeAPIs     bool
	RetentionInDays int
}

type LoggingConfig struct {
	Delete          bool
	Read            bool
	Write           bool
	RetentionInDays int
}

// ServicePropertiesRecord is the single per-account row in the
// services collection.
type ServicePropertiesRecord struct {
	AccountName   string
	CORS          *CORSRules
	HourMetrics   *MetricsConfig
	MinuteMetrics *MetricsConfig
	Logging       *LoggingConfig
}

// gob.Register lets these concrete types round-trip through the
// collection layer's map[string]any-typed Record when a collection
// snapshot is gob-encoded to disk.
func init() {
	gob.Register(&OrderedProperties{})
	gob.Register(&TableACL{})
	gob.Register(&CORSRules{})
	gob.Register(&MetricsConfig{})
	gob.Register(&LoggingConfig{})
}
