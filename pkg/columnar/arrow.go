package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
)

// FromArrowRecord converts an Arrow record batch into a Batch, so engines
// that already hold Arrow data can feed the copy driver directly. Values
// are copied out of the record; the record may be released afterwards.
func FromArrowRecord(rec arrow.Record) (*Batch, error) {
	schema := rec.Schema()
	names := make([]string, rec.NumCols())
	cols := make([]Column, rec.NumCols())
	for c := 0; c < int(rec.NumCols()); c++ {
		names[c] = schema.Field(c).Name
		col, err := fromArrowArray(rec.Column(c))
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", names[c], err)
		}
		cols[c] = col
	}
	return NewBatch(names, cols), nil
}

func fromArrowArray(arr arrow.Array) (Column, error) {
	switch a := arr.(type) {
	case *array.String:
		col := NewStringColumn()
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				col.AppendNull()
				continue
			}
			col.AppendString(a.Value(i))
		}
		return col, nil
	case *array.Int64:
		col := NewIntColumn()
		for i := 0; i < a.Len(); i++ {
			appendIntValue(col, a.IsNull(i), a.Value(i))
		}
		return col, nil
	case *array.Int32:
		col := NewIntColumn()
		for i := 0; i < a.Len(); i++ {
			appendIntValue(col, a.IsNull(i), int64(a.Value(i)))
		}
		return col, nil
	case *array.Int16:
		col := NewIntColumn()
		for i := 0; i < a.Len(); i++ {
			appendIntValue(col, a.IsNull(i), int64(a.Value(i)))
		}
		return col, nil
	case *array.Int8:
		col := NewIntColumn()
		for i := 0; i < a.Len(); i++ {
			appendIntValue(col, a.IsNull(i), int64(a.Value(i)))
		}
		return col, nil
	case *array.Float64:
		col := NewFloatColumn()
		for i := 0; i < a.Len(); i++ {
			appendFloatValue(col, a.IsNull(i), a.Value(i))
		}
		return col, nil
	case *array.Float32:
		col := NewFloatColumn()
		for i := 0; i < a.Len(); i++ {
			appendFloatValue(col, a.IsNull(i), float64(a.Value(i)))
		}
		return col, nil
	case *array.Boolean:
		col := NewBoolColumn()
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				col.AppendNull()
				continue
			}
			col.values = append(col.values, a.Value(i))
			col.valid = append(col.valid, true)
		}
		return col, nil
	case *array.Timestamp:
		tsType, ok := a.DataType().(*arrow.TimestampType)
		if !ok {
			return nil, fmt.Errorf("timestamp array with %T data type", a.DataType())
		}
		col := NewTimestampColumn()
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				col.AppendNull()
				continue
			}
			col.values = append(col.values, a.Value(i).ToTime(tsType.Unit).UTC())
			col.valid = append(col.valid, true)
		}
		return col, nil
	case *array.Binary:
		col := NewBytesColumn()
		for i := 0; i < a.Len(); i++ {
			if a.IsNull(i) {
				col.AppendNull()
				continue
			}
			data := make([]byte, len(a.Value(i)))
			copy(data, a.Value(i))
			col.values = append(col.values, data)
			col.valid = append(col.valid, true)
		}
		return col, nil
	case *array.List:
		child, err := fromArrowArray(a.ListValues())
		if err != nil {
			return nil, fmt.Errorf("list element: %w", err)
		}
		// Both Offsets and ListValues expose the unsliced buffers, so a
		// sliced array's rows live at the data offset, not at index zero.
		// The offsets are copied verbatim against the unsliced child.
		base := a.Data().Offset()
		offsets := a.Offsets()[base : base+a.Len()+1]
		col := NewListColumn(child)
		col.offsets = append(col.offsets[:0], offsets...)
		for i := 0; i < a.Len(); i++ {
			col.valid = append(col.valid, !a.IsNull(i))
		}
		return col, nil
	case *array.Struct:
		structType, ok := a.DataType().(*arrow.StructType)
		if !ok {
			return nil, fmt.Errorf("struct array with %T data type", a.DataType())
		}
		names := make([]string, a.NumField())
		fields := make([]Column, a.NumField())
		for f := 0; f < a.NumField(); f++ {
			names[f] = structType.Field(f).Name
			field, err := fromArrowArray(a.Field(f))
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", names[f], err)
			}
			fields[f] = field
		}
		col := NewStructColumn(names, fields)
		for i := 0; i < a.Len(); i++ {
			col.valid = append(col.valid, !a.IsNull(i))
		}
		return col, nil
	default:
		return nil, fmt.Errorf("unsupported arrow array type %T", arr)
	}
}

func appendIntValue(col *IntColumn, isNull bool, v int64) {
	if isNull {
		col.AppendNull()
		return
	}
	col.values = append(col.values, v)
	col.valid = append(col.valid, true)
}

func appendFloatValue(col *FloatColumn, isNull bool, v float64) {
	if isNull {
		col.AppendNull()
		return
	}
	col.values = append(col.values, v)
	col.valid = append(col.valid, true)
}
