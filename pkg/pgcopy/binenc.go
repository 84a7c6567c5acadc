package pgcopy

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
)

// Type OIDs the binary format embeds in array and record envelopes
const (
	oidBool        = 16
	oidBytea       = 17
	oidInt8        = 20
	oidText        = 25
	oidFloat8      = 701
	oidTimestamptz = 1184

	oidBoolArray        = 1000
	oidByteaArray       = 1001
	oidTextArray        = 1009
	oidInt8Array        = 1016
	oidFloat8Array      = 1022
	oidTimestamptzArray = 1185
)

// postgresEpoch is the zero point of binary timestamp payloads
var postgresEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// elementOID maps a column to the OID its values carry inside an array or
// record envelope. Nested composites have no client-known OID, so only
// primitives and one level of list nesting are encodable in binary mode.
func elementOID(col columnar.Column) (uint32, error) {
	switch c := col.(type) {
	case *columnar.BoolColumn:
		return oidBool, nil
	case *columnar.BytesColumn:
		return oidBytea, nil
	case *columnar.IntColumn:
		return oidInt8, nil
	case *columnar.StringColumn:
		return oidText, nil
	case *columnar.FloatColumn:
		return oidFloat8, nil
	case *columnar.TimestampColumn:
		return oidTimestamptz, nil
	case *columnar.ListColumn:
		switch c.Child().(type) {
		case *columnar.BoolColumn:
			return oidBoolArray, nil
		case *columnar.BytesColumn:
			return oidByteaArray, nil
		case *columnar.IntColumn:
			return oidInt8Array, nil
		case *columnar.StringColumn:
			return oidTextArray, nil
		case *columnar.FloatColumn:
			return oidFloat8Array, nil
		case *columnar.TimestampColumn:
			return oidTimestamptzArray, nil
		default:
			return 0, errors.Newf(errors.ErrorTypeData,
				"no element oid for array of %s; use the text format", c.Child().Type())
		}
	default:
		return 0, errors.Newf(errors.ErrorTypeData,
			"no element oid for column type %s; use the text format", col.Type())
	}
}

// appendBinaryField appends the 32-bit payload length followed by the
// payload of the value at (col, row). The length is patched in after the
// payload is written.
func appendBinaryField(dst []byte, col columnar.Column, row int) ([]byte, error) {
	lenPos := len(dst)
	dst = binary.BigEndian.AppendUint32(dst, 0)
	start := len(dst)
	dst, err := appendBinaryPayload(dst, col, row)
	if err != nil {
		return dst, err
	}
	binary.BigEndian.PutUint32(dst[lenPos:], uint32(len(dst)-start))
	return dst, nil
}

// appendBinaryPayload appends the raw binary payload of the non-null value
// at (col, row), per the target protocol's documented per-type formats.
func appendBinaryPayload(dst []byte, col columnar.Column, row int) ([]byte, error) {
	switch c := col.(type) {
	case *columnar.BoolColumn:
		if c.Value(row) {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case *columnar.IntColumn:
		return binary.BigEndian.AppendUint64(dst, uint64(c.Value(row))), nil
	case *columnar.FloatColumn:
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(c.Value(row))), nil
	case *columnar.StringColumn:
		return append(dst, c.Value(row)...), nil
	case *columnar.BytesColumn:
		return append(dst, c.Value(row)...), nil
	case *columnar.TimestampColumn:
		micros := c.Value(row).Sub(postgresEpoch).Microseconds()
		return binary.BigEndian.AppendUint64(dst, uint64(micros)), nil
	case *columnar.ListColumn:
		return appendBinaryArray(dst, c, row)
	case *columnar.StructColumn:
		return appendBinaryRecord(dst, c, row)
	default:
		return dst, errors.Newf(errors.ErrorTypeData,
			"no binary encoding for column type %s", col.Type())
	}
}

// appendBinaryArray writes the one-dimensional array envelope: dimension
// count, has-null flag, element OID, then per dimension the length and
// lower bound, then each element as NULL sentinel or length plus payload.
// An empty array is zero-dimensional.
func appendBinaryArray(dst []byte, col *columnar.ListColumn, row int) ([]byte, error) {
	if _, nested := col.Child().(*columnar.ListColumn); nested {
		return dst, errors.New(errors.ErrorTypeData,
			"multidimensional arrays have no ragged binary form; use the text format")
	}
	elemOID, err := elementOID(col.Child())
	if err != nil {
		return dst, err
	}

	start, end := col.Window(row)
	hasNull := uint32(0)
	for j := start; j < end; j++ {
		if col.Child().IsNull(j) {
			hasNull = 1
			break
		}
	}

	if end == start {
		dst = binary.BigEndian.AppendUint32(dst, 0) // ndim
		dst = binary.BigEndian.AppendUint32(dst, 0) // hasnull
		return binary.BigEndian.AppendUint32(dst, elemOID), nil
	}

	dst = binary.BigEndian.AppendUint32(dst, 1) // ndim
	dst = binary.BigEndian.AppendUint32(dst, hasNull)
	dst = binary.BigEndian.AppendUint32(dst, elemOID)
	dst = binary.BigEndian.AppendUint32(dst, uint32(end-start)) // dimension length
	dst = binary.BigEndian.AppendUint32(dst, 1)                 // lower bound

	for j := start; j < end; j++ {
		if col.Child().IsNull(j) {
			dst = binary.BigEndian.AppendUint32(dst, uint32(binaryNullField))
			continue
		}
		dst, err = appendBinaryField(dst, col.Child(), j)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

// appendBinaryRecord writes the record envelope: column count, then per
// field its type OID and either the NULL sentinel or length plus payload.
func appendBinaryRecord(dst []byte, col *columnar.StructColumn, row int) ([]byte, error) {
	fields := col.Fields()
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(fields)))
	for _, field := range fields {
		oid, err := elementOID(field)
		if err != nil {
			return dst, err
		}
		dst = binary.BigEndian.AppendUint32(dst, oid)
		if field.IsNull(row) {
			dst = binary.BigEndian.AppendUint32(dst, uint32(binaryNullField))
			continue
		}
		dst, err = appendBinaryField(dst, field, row)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}
