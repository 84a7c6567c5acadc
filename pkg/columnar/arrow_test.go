package columnar

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromArrowRecord(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "name", Type: arrow.BinaryTypes.String, Nullable: true},
		{Name: "created", Type: arrow.FixedWidthTypes.Timestamp_us, Nullable: true},
		{Name: "payload", Type: arrow.BinaryTypes.Binary, Nullable: true},
		{Name: "tags", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64), Nullable: true},
		{Name: "point", Type: arrow.StructOf(
			arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		), Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	names := b.Field(1).(*array.StringBuilder)
	created := b.Field(2).(*array.TimestampBuilder)
	payloads := b.Field(3).(*array.BinaryBuilder)
	tags := b.Field(4).(*array.ListBuilder)
	tagVals := tags.ValueBuilder().(*array.Int64Builder)
	points := b.Field(5).(*array.StructBuilder)
	pointX := points.FieldBuilder(0).(*array.Int64Builder)

	// row 0
	ids.Append(1)
	names.Append("a")
	created.Append(arrow.Timestamp(1_000_000))
	payloads.Append([]byte{0x00, 0xFF})
	tags.Append(true)
	tagVals.AppendValues([]int64{1, 2}, nil)
	points.Append(true)
	pointX.Append(9)

	// row 1: everything null
	ids.AppendNull()
	names.AppendNull()
	created.AppendNull()
	payloads.AppendNull()
	tags.AppendNull()
	points.AppendNull()

	// row 2
	ids.Append(3)
	names.Append("c")
	created.Append(arrow.Timestamp(0))
	payloads.Append([]byte{0x01})
	tags.Append(true)
	tagVals.Append(3)
	tagVals.AppendNull()
	points.Append(true)
	pointX.AppendNull()

	rec := b.NewRecord()
	defer rec.Release()

	batch, err := FromArrowRecord(rec)
	require.NoError(t, err)
	require.Equal(t, 3, batch.Rows())
	require.Equal(t, 6, batch.Columns())
	assert.Equal(t, []string{"id", "name", "created", "payload", "tags", "point"}, batch.Names())

	assert.Equal(t, int64(1), batch.Column(0).Get(0))
	assert.True(t, batch.Column(0).IsNull(1))
	assert.Equal(t, int64(3), batch.Column(0).Get(2))

	assert.Equal(t, "a", batch.Column(1).Get(0))
	assert.True(t, batch.Column(1).IsNull(1))

	assert.Equal(t, time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC),
		batch.Column(2).(*TimestampColumn).Value(0))
	assert.True(t, batch.Column(2).IsNull(1))

	assert.Equal(t, []byte{0x00, 0xFF}, batch.Column(3).(*BytesColumn).Value(0))
	assert.True(t, batch.Column(3).IsNull(1))

	list := batch.Column(4).(*ListColumn)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, list.Get(0))
	assert.True(t, list.IsNull(1))
	assert.Equal(t, []interface{}{int64(3), nil}, list.Get(2))

	point := batch.Column(5).(*StructColumn)
	assert.Equal(t, int64(9), point.Fields()[0].Get(0))
	assert.True(t, point.IsNull(1))
	assert.False(t, point.IsNull(2))
	assert.True(t, point.Fields()[0].IsNull(2))
}

func TestFromArrowRecordSlice(t *testing.T) {
	mem := memory.NewGoAllocator()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		{Name: "vals", Type: arrow.ListOf(arrow.PrimitiveTypes.Int64), Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	ids := b.Field(0).(*array.Int64Builder)
	lists := b.Field(1).(*array.ListBuilder)
	elems := lists.ValueBuilder().(*array.Int64Builder)

	rows := [][]int64{{1, 2}, {3}, {4, 5, 6}}
	for i, vals := range rows {
		ids.Append(int64(10 * (i + 1)))
		lists.Append(true)
		elems.AppendValues(vals, nil)
	}

	rec := b.NewRecord()
	defer rec.Release()

	sliced := rec.NewSlice(1, 3)
	defer sliced.Release()

	batch, err := FromArrowRecord(sliced)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Rows())

	assert.Equal(t, int64(20), batch.Column(0).Get(0))
	assert.Equal(t, int64(30), batch.Column(0).Get(1))

	// list windows must track the slice, not the start of the buffer
	list := batch.Column(1).(*ListColumn)
	assert.Equal(t, []interface{}{int64(3)}, list.Get(0))
	assert.Equal(t, []interface{}{int64(4), int64(5), int64(6)}, list.Get(1))

	// clearing discards the nonzero base offset the slice carried in
	list.Clear()
	require.NoError(t, list.Append([]interface{}{int64(7)}))
	start, end := list.Window(0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 1, end)
	assert.Equal(t, []interface{}{int64(7)}, list.Get(0))
}
