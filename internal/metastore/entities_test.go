package metastore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newEntity(pk, rk string, props map[string]PropertyValue) *EntityRecord {
	op := NewOrderedProperties()
	for k, v := range props {
		op.Set(k, v)
	}
	return &EntityRecord{PartitionKey: pk, RowKey: rk, Properties: op}
}

func TestInsertTableEntity(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTable("acct", "widgets")
	require.NoError(t, err)

	t.Run("InsertsAndStampsETag", func(t *testing.T) {
		e := newEntity("p1", "r1", map[string]PropertyValue{"Name": {Value: "gizmo"}})
		out, err := s.InsertTableEntity("acct", "widgets", e, "")
		require.NoError(t, err)
		require.NotEmpty(t, out.ETag)
		require.False(t, out.LastModifiedTime.IsZero())

		ts, ok := out.Properties.Get("Timestamp")
		require.True(t, ok, "expected insert to stamp a Timestamp property")
		require.Equal(t, "Edm.DateTime", ts.EdmType)
		require.Equal(t, formatTimestamp(out.LastModifiedTime), ts.Value)
	})

	t.Run("RejectsDuplicateKey", func(t *testing.T) {
		e := newEntity("p1", "r1", nil)
		_, err := s.InsertTableEntity("acct", "widgets", e, "")
		require.ErrorIs(t, err, ErrEntityAlreadyExists)
	})

	t.Run("RejectsUnknownTable", func(t *testing.T) {
		e := newEntity("p2", "r2", nil)
		_, err := s.InsertTableEntity("acct", "nope", e, "")
		require.ErrorIs(t, err, ErrTableNotExist)
	})
}

func TestInsertOrMergeTableEntity(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTable("acct", "widgets")
	require.NoError(t, err)

	base := newEntity("p1", "r1", map[string]PropertyValue{
		"Name":  {Value: "gizmo"},
		"Color": {Value: "red"},
	})
	_, err = s.InsertTableEntity("acct", "widgets", base, "")
	require.NoError(t, err)

	merge := newEntity("p1", "r1", map[string]PropertyValue{
		"Color": {Value: "blue"},
		"Size":  {Value: "large"},
	})
	out, err := s.InsertOrMergeTableEntity("acct", "widgets", merge, "")
	require.NoError(t, err)

	name, ok := out.Properties.Get("Name")
	require.True(t, ok, "expected Name to survive the merge untouched")
	require.Equal(t, "gizmo", name.Value)

	color, ok := out.Properties.Get("Color")
	require.True(t, ok)
	require.Equal(t, "blue", color.Value, "expected Color to be overwritten by merge")

	size, ok := out.Properties.Get("Size")
	require.True(t, ok)
	require.Equal(t, "large", size.Value, "expected Size to be added by merge")
}

func TestMergeTableEntityOverwritesTypeTag(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTable("acct", "widgets")
	require.NoError(t, err)

	base := newEntity("p1", "r1", map[string]PropertyValue{
		"Size": {Value: "42", EdmType: "Edm.Int32"},
	})
	inserted, err := s.InsertTableEntity("acct", "widgets", base, "")
	require.NoError(t, err)

	// Incoming Size carries no type tag; since PropertyValue holds value and
	// tag in one struct, merge's overwrite naturally drops the stale
	// Edm.Int32 tag along with the old value rather than leaving it behind.
	merge := newEntity("p1", "r1", map[string]PropertyValue{
		"Size": {Value: "large"},
	})
	out, err := s.MergeTableEntity("acct", "widgets", merge, inserted.ETag, "")
	require.NoError(t, err)

	size, ok := out.Properties.Get("Size")
	require.True(t, ok)
	require.Equal(t, "large", size.Value)
	require.Empty(t, size.EdmType, "expected the stale Edm.Int32 tag to be cleared, not carried over")
}

func TestInsertOrMergeTableEntityInsertsWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTable("acct", "widgets")
	require.NoError(t, err)

	e := newEntity("p9", "r9", map[string]PropertyValue{"Name": {Value: "new"}})
	out, err := s.InsertOrMergeTableEntity("acct", "widgets", e, "")
	require.NoError(t, err)
	require.NotEmpty(t, out.ETag, "expected a stamped ETag for the newly inserted entity")
}

func TestUpdateTableEntityETagCheck(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTable("acct", "widgets")
	require.NoError(t, err)

	inserted, err := s.InsertTableEntity("acct", "widgets", newEntity("p1", "r1", nil), "")
	require.NoError(t, err)

	t.Run("WrongETagRejected", func(t *testing.T) {
		_, err := s.UpdateTableEntity("acct", "widgets", newEntity("p1", "r1", nil), "stale-etag", "")
		require.ErrorIs(t, err, ErrPreconditionFailed)
	})

	t.Run("CorrectETagAccepted", func(t *testing.T) {
		out, err := s.UpdateTableEntity("acct", "widgets", newEntity("p1", "r1", nil), inserted.ETag, "")
		require.NoError(t, err)
		require.NotEqual(t, inserted.ETag, out.ETag, "expected a fresh ETag after update")

		ts, ok := out.Properties.Get("Timestamp")
		require.True(t, ok, "expected update to recompute the Timestamp property")
		require.Equal(t, "Edm.DateTime", ts.EdmType)
		require.Equal(t, formatTimestamp(out.LastModifiedTime), ts.Value)
	})

	t.Run("WildcardAlwaysAccepted", func(t *testing.T) {
		_, err := s.UpdateTableEntity("acct", "widgets", newEntity("p1", "r1", nil), "*", "")
		require.NoError(t, err)
	})
}

func TestETagURLEncodingQuirk(t *testing.T) {
	// This store's own ETags never contain ':' (the opaque
	// "<unixnano>-<seq>" form), so the quirk is exercised directly against
	// the comparison helpers with a synthetic colon-bearing stored value,
	// the shape a real Table Storage ETag (wrapping an RFC3339 timestamp)
	// takes.
	stored := "W/\"datetime'2020-01-01T00:00:00.0000000Z'\""
	urlEncoded := "W/\"datetime'2020-01-01T00%3A00%3A00.0000000Z'\""

	t.Run("UpdateMergeNormalizeBothSides", func(t *testing.T) {
		require.True(t, etagMatches(urlEncoded, stored), "expected the %%3A-encoded If-Match value to match the raw stored ETag")
		require.True(t, etagMatches(stored, stored))
	})

	t.Run("DeleteComparesRaw", func(t *testing.T) {
		require.False(t, etagMatchesRaw(urlEncoded, stored), "expected delete's raw comparison to reject an encoding-equivalent but textually different ETag")
		require.True(t, etagMatchesRaw(stored, stored))
	})

	t.Run("WildcardAndEmptyAlwaysMatch", func(t *testing.T) {
		require.True(t, etagMatches("", stored))
		require.True(t, etagMatches("*", stored))
		require.True(t, etagMatchesRaw("", stored))
		require.True(t, etagMatchesRaw("*", stored))
	})
}

func TestDeleteTableEntity(t *testing.T) {
	s := newTestStore(t)
	_, err := s.CreateTable("acct", "widgets")
	require.NoError(t, err)
	inserted, err := s.InsertTableEntity("acct", "widgets", newEntity("p1", "r1", nil), "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteTableEntity("acct", "widgets", "p1", "r1", inserted.ETag, ""))

	_, err = s.QueryTableEntitiesWithPartitionAndRowKey("acct", "widgets", "p1", "r1")
	require.ErrorIs(t, err, ErrEntityNotFound)
}
