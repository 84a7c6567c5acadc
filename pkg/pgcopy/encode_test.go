package pgcopy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
)

// encodeOne is a test helper running the composite encoder over a column
func encodeOne(t *testing.T, col columnar.Column) *columnar.StringColumn {
	t.Helper()
	dst := columnar.NewStringColumn()
	EncodeColumnText(dst, col, col.Len())
	return dst
}

func TestEncodePrimitives(t *testing.T) {
	ints := columnar.NewIntColumn()
	require.NoError(t, ints.Append(int64(42)))
	ints.AppendNull()

	out := encodeOne(t, ints)
	assert.Equal(t, "42", out.Value(0))
	assert.True(t, out.IsNull(1))

	bools := columnar.NewBoolColumn()
	require.NoError(t, bools.Append(true))
	require.NoError(t, bools.Append(false))
	out = encodeOne(t, bools)
	assert.Equal(t, "t", out.Value(0))
	assert.Equal(t, "f", out.Value(1))

	ts := columnar.NewTimestampColumn()
	require.NoError(t, ts.Append(time.Date(2024, 3, 15, 12, 30, 45, 123456000, time.UTC)))
	out = encodeOne(t, ts)
	assert.Equal(t, "2024-03-15 12:30:45.123456+00", out.Value(0))
}

func TestEncodeNullListYieldsNull(t *testing.T) {
	list := columnar.NewListColumn(columnar.NewIntColumn())
	list.AppendNull()

	out := encodeOne(t, list)
	assert.True(t, out.IsNull(0), "null list must encode as NULL, not as {}")
}

func TestEncodeListWithNullElement(t *testing.T) {
	list := columnar.NewListColumn(columnar.NewIntColumn())
	require.NoError(t, list.Append([]interface{}{int64(1), nil, int64(3)}))

	out := encodeOne(t, list)
	assert.Equal(t, "{1,NULL,3}", out.Value(0))
}

func TestEncodeEmptyList(t *testing.T) {
	list := columnar.NewListColumn(columnar.NewIntColumn())
	require.NoError(t, list.Append([]interface{}{}))

	out := encodeOne(t, list)
	assert.Equal(t, "{}", out.Value(0))
}

func TestEncodeNestedListSkipsQuoting(t *testing.T) {
	inner := columnar.NewListColumn(columnar.NewIntColumn())
	outer := columnar.NewListColumn(inner)
	require.NoError(t, outer.Append([]interface{}{
		[]interface{}{int64(1), int64(2)},
		[]interface{}{int64(3)},
	}))

	out := encodeOne(t, outer)
	assert.Equal(t, "{{1,2},{3}}", out.Value(0))
}

func TestEncodeListQuotesElements(t *testing.T) {
	list := columnar.NewListColumn(columnar.NewStringColumn())
	require.NoError(t, list.Append([]interface{}{"a,b", "plain", ""}))

	out := encodeOne(t, list)
	assert.Equal(t, `{"a,b",plain,""}`, out.Value(0))
}

func TestEncodeStruct(t *testing.T) {
	a := columnar.NewStringColumn()
	b := columnar.NewIntColumn()
	st := columnar.NewStructColumn([]string{"a", "b"}, []columnar.Column{a, b})
	require.NoError(t, st.Append(map[string]interface{}{"a": "x,y"}))

	out := encodeOne(t, st)
	assert.Equal(t, `("x,y",)`, out.Value(0), "null struct field must be an empty slot")
}

func TestEncodeStructPlainFieldStaysBare(t *testing.T) {
	a := columnar.NewStringColumn()
	st := columnar.NewStructColumn([]string{"a"}, []columnar.Column{a})
	require.NoError(t, st.Append(map[string]interface{}{"a": "plain"}))

	out := encodeOne(t, st)
	// QuoteAndEscape leaves plain values bare even inside row literals;
	// the field goes through quoting, which decides no quotes are needed
	assert.Equal(t, "(plain)", out.Value(0))
}

func TestEncodeNullStructYieldsNull(t *testing.T) {
	a := columnar.NewStringColumn()
	st := columnar.NewStructColumn([]string{"a"}, []columnar.Column{a})
	st.AppendNull()

	out := encodeOne(t, st)
	assert.True(t, out.IsNull(0))
}

func TestEncodeBlob(t *testing.T) {
	blobs := columnar.NewBytesColumn()
	require.NoError(t, blobs.Append([]byte{0x00, 0xFF}))
	blobs.AppendNull()

	out := encodeOne(t, blobs)
	assert.Equal(t, `\x00FF`, out.Value(0))
	assert.True(t, out.IsNull(1))
}

func TestEncodeListOfStruct(t *testing.T) {
	name := columnar.NewStringColumn()
	st := columnar.NewStructColumn([]string{"name"}, []columnar.Column{name})
	list := columnar.NewListColumn(st)
	require.NoError(t, list.Append([]interface{}{
		map[string]interface{}{"name": "a"},
		nil,
	}))

	out := encodeOne(t, list)
	// struct sub-representations contain parentheses, so the list quotes them
	assert.Equal(t, `{"(a)",NULL}`, out.Value(0))
}

func TestEncodeAmortizesChildEncoding(t *testing.T) {
	// Two list rows sharing one child column: both windows must resolve
	// against a single encoding pass of the child
	list := columnar.NewListColumn(columnar.NewIntColumn())
	require.NoError(t, list.Append([]interface{}{int64(1), int64(2)}))
	require.NoError(t, list.Append([]interface{}{int64(3)}))

	out := encodeOne(t, list)
	assert.Equal(t, "{1,2}", out.Value(0))
	assert.Equal(t, "{3}", out.Value(1))
}
