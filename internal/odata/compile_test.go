package odata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCandidate lets tests exercise Compile without depending on package
// metastore's record types.
type fakeCandidate struct {
	fields     map[string]any
	properties map[string]any
}

func (f fakeCandidate) Field(name string) (any, bool) {
	v, ok := f.fields[name]
	return v, ok
}

func (f fakeCandidate) Property(name string) (any, bool) {
	v, ok := f.properties[name]
	return v, ok
}

func mustCompile(t *testing.T, filter string, target Target) Predicate {
	t.Helper()
	pred, err := Compile(filter, target)
	require.NoErrorf(t, err, "Compile(%q)", filter)
	return pred
}

func TestCompileEmptyFilterMatchesEverything(t *testing.T) {
	pred := mustCompile(t, "", TargetEntity)
	assert.True(t, pred(fakeCandidate{}), "empty filter should match any candidate")
}

func TestCompileStringEquality(t *testing.T) {
	pred := mustCompile(t, "RowKey eq 'b'", TargetEntity)

	match := fakeCandidate{fields: map[string]any{"RowKey": "b"}}
	noMatch := fakeCandidate{fields: map[string]any{"RowKey": "a"}}

	assert.True(t, pred(match), "expected RowKey 'b' to match")
	assert.False(t, pred(noMatch), "expected RowKey 'a' to not match")
}

func TestCompileStringRangeAnd(t *testing.T) {
	pred := mustCompile(t, "PartitionKey ge 'b' and PartitionKey le 'd'", TargetEntity)

	for _, tc := range []struct {
		pk    string
		match bool
	}{
		{"a", false},
		{"b", true},
		{"c", true},
		{"d", true},
		{"e", false},
	} {
		c := fakeCandidate{fields: map[string]any{"PartitionKey": tc.pk}}
		assert.Equalf(t, tc.match, pred(c), "PartitionKey=%q", tc.pk)
	}
}

func TestCompileEscapedQuote(t *testing.T) {
	pred := mustCompile(t, "RowKey eq 'it''s'", TargetEntity)
	c := fakeCandidate{fields: map[string]any{"RowKey": "it's"}}
	assert.True(t, pred(c), "expected escaped quote literal to unescape to it's")
}

func TestCompileDatetimeComparison(t *testing.T) {
	pred := mustCompile(t, "When gt datetime'2020-01-01T00:00:00Z'", TargetEntity)

	after := fakeCandidate{properties: map[string]any{"When": "2021-06-15T12:00:00Z"}}
	before := fakeCandidate{properties: map[string]any{"When": "2019-01-01T00:00:00Z"}}

	assert.True(t, pred(after), "expected later date to match gt comparison")
	assert.False(t, pred(before), "expected earlier date to not match gt comparison")
}

func TestCompileLongIntEquality(t *testing.T) {
	pred := mustCompile(t, "Count eq 42L", TargetEntity)

	// long integers are stored (and therefore read back) as strings.
	match := fakeCandidate{properties: map[string]any{"Count": "42"}}
	noMatch := fakeCandidate{properties: map[string]any{"Count": "43"}}

	assert.True(t, pred(match), "expected Count '42' to match 42L")
	assert.False(t, pred(noMatch), "expected Count '43' to not match 42L")
}

func TestCompileGuidPrefixStripped(t *testing.T) {
	pred := mustCompile(t, "Id eq guid'01234567-89ab-cdef-0123-456789abcdef'", TargetEntity)
	c := fakeCandidate{properties: map[string]any{"Id": "01234567-89ab-cdef-0123-456789abcdef"}}
	assert.True(t, pred(c), "expected guid literal to compare as a plain string")
}

func TestCompileBooleanAndParens(t *testing.T) {
	pred := mustCompile(t, "(PartitionKey eq 'a' or PartitionKey eq 'b') and RowKey eq 'x'", TargetEntity)

	yes := fakeCandidate{fields: map[string]any{"PartitionKey": "b", "RowKey": "x"}}
	no := fakeCandidate{fields: map[string]any{"PartitionKey": "c", "RowKey": "x"}}

	assert.True(t, pred(yes), "expected grouped or + and to match")
	assert.False(t, pred(no), "expected non-matching partition key to fail")
}

func TestCompileNot(t *testing.T) {
	pred := mustCompile(t, "not (RowKey eq 'x')", TargetEntity)
	assert.False(t, pred(fakeCandidate{fields: map[string]any{"RowKey": "x"}}), "expected not to invert a true comparison")
	assert.True(t, pred(fakeCandidate{fields: map[string]any{"RowKey": "y"}}), "expected not to invert a false comparison")
}

func TestCompileTableNameFilter(t *testing.T) {
	pred := mustCompile(t, "TableName ge 'b' and TableName lt 'd'", TargetTable)

	in := fakeCandidate{fields: map[string]any{"table": "customers"}}
	out := fakeCandidate{fields: map[string]any{"table": "ztable"}}

	assert.True(t, pred(in), "expected 'customers' to fall within [b, d)")
	assert.False(t, pred(out), "expected 'ztable' to fall outside [b, d)")
}

func TestCompileRejectsCustomPropertyOnTableQuery(t *testing.T) {
	_, err := Compile("SomeProperty eq 'x'", TargetTable)
	assert.ErrorIs(t, err, ErrQueryConditionInvalid)
}

func TestCompileRejectsUnbalancedParens(t *testing.T) {
	_, err := Compile("(RowKey eq 'x'", TargetEntity)
	assert.ErrorIs(t, err, ErrQueryConditionInvalid)
}

func TestCompileRejectsBinaryLiteralNotAfterOperator(t *testing.T) {
	_, err := Compile("binary'ff' eq RowKey", TargetEntity)
	assert.ErrorIs(t, err, ErrQueryConditionInvalid)
}

func TestCompileMissingPropertyDoesNotMatch(t *testing.T) {
	pred := mustCompile(t, "Missing eq 'x'", TargetEntity)
	assert.False(t, pred(fakeCandidate{}), "expected a missing property to never match a literal")
}
