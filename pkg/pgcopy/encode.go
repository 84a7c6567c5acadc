package pgcopy

import (
	"fmt"
	"strconv"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
)

const hexDigits = "0123456789ABCDEF"

// timestampLayout renders timestamps the way the server's text input
// expects them; values are normalized to UTC first.
const timestampLayout = "2006-01-02 15:04:05.999999+00"

// CastToText renders one primitive value as text. List, struct and bytes
// columns are handled by EncodeColumnText; calling this with one is a
// programming error.
func CastToText(col columnar.Column, row int) string {
	switch c := col.(type) {
	case *columnar.StringColumn:
		return c.Value(row)
	case *columnar.IntColumn:
		return strconv.FormatInt(c.Value(row), 10)
	case *columnar.FloatColumn:
		return strconv.FormatFloat(c.Value(row), 'g', -1, 64)
	case *columnar.BoolColumn:
		if c.Value(row) {
			return "t"
		}
		return "f"
	case *columnar.TimestampColumn:
		return c.Value(row).UTC().Format(timestampLayout)
	default:
		panic(fmt.Sprintf("no text cast for column type %s", col.Type()))
	}
}

// EncodeColumnText renders the first size values of col into dst as COPY
// text sub-representations, propagating nulls. Composite columns recurse:
// the child column of a list is encoded once for the whole batch and each
// row assembles its element window from the result. Dispatch is closed
// over the column type enumeration; an unknown column type panics.
func EncodeColumnText(dst *columnar.StringColumn, col columnar.Column, size int) {
	switch c := col.(type) {
	case *columnar.ListColumn:
		encodeListText(dst, c, size)
	case *columnar.StructColumn:
		encodeStructText(dst, c, size)
	case *columnar.BytesColumn:
		encodeBytesText(dst, c, size)
	default:
		for r := 0; r < size; r++ {
			if col.IsNull(r) {
				dst.AppendNull()
				continue
			}
			dst.AppendString(CastToText(col, r))
		}
	}
}

// encodeListText builds `{e0,e1,...}` array literals. A null row yields a
// null result, never an empty container. Null elements render as the
// literal NULL token; non-null elements are quoted per their own content,
// except that list-of-list children stay unquoted to preserve the nested
// array syntax.
func encodeListText(dst *columnar.StringColumn, col *columnar.ListColumn, size int) {
	child := col.Child()
	childText := columnar.NewStringColumn()
	EncodeColumnText(childText, child, child.Len())
	skipQuoting := child.Type() == columnar.ColumnTypeList

	for r := 0; r < size; r++ {
		if col.IsNull(r) {
			dst.AppendNull()
			continue
		}
		b := builderPool.Get()
		b.WriteByte('{')
		start, end := col.Window(r)
		for j := start; j < end; j++ {
			if j > start {
				b.WriteByte(',')
			}
			if childText.IsNull(j) {
				b.WriteString("NULL")
			} else if skipQuoting {
				b.WriteString(childText.Value(j))
			} else {
				quoteAndEscapeInto(b, childText.Value(j))
			}
		}
		b.WriteByte('}')
		dst.AppendString(b.String())
		builderPool.Put(b)
	}
}

// encodeStructText builds `(v0,v1,...)` row literals. Null fields render
// as an empty slot (row literals encode null by omitting the value, unlike
// array literals); non-null fields are quoted per their own content.
func encodeStructText(dst *columnar.StringColumn, col *columnar.StructColumn, size int) {
	fields := col.Fields()
	fieldText := make([]*columnar.StringColumn, len(fields))
	for f, field := range fields {
		fieldText[f] = columnar.NewStringColumn()
		EncodeColumnText(fieldText[f], field, size)
	}

	for r := 0; r < size; r++ {
		if col.IsNull(r) {
			dst.AppendNull()
			continue
		}
		b := builderPool.Get()
		b.WriteByte('(')
		for f := range fieldText {
			if f > 0 {
				b.WriteByte(',')
			}
			if fieldText[f].IsNull(r) {
				continue
			}
			quoteAndEscapeInto(b, fieldText[f].Value(r))
		}
		b.WriteByte(')')
		dst.AppendString(b.String())
		builderPool.Put(b)
	}
}

// encodeBytesText renders blobs as \x followed by two uppercase hex digits
// per byte, most-significant nibble first.
func encodeBytesText(dst *columnar.StringColumn, col *columnar.BytesColumn, size int) {
	for r := 0; r < size; r++ {
		if col.IsNull(r) {
			dst.AppendNull()
			continue
		}
		data := col.Value(r)
		b := builderPool.Get()
		b.Grow(2 + len(data)*2)
		b.WriteByte('\\')
		b.WriteByte('x')
		for _, c := range data {
			b.WriteByte(hexDigits[c>>4])
			b.WriteByte(hexDigits[c&0x0F])
		}
		dst.AppendString(b.String())
		builderPool.Put(b)
	}
}
