package pgcopy

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
)

func textSession(t *testing.T) *session {
	t.Helper()
	sess, err := newSession(CopyFormatText, "", false)
	require.NoError(t, err)
	return sess
}

func textColumn(values ...interface{}) *columnar.StringColumn {
	col := columnar.NewStringColumn()
	for _, v := range values {
		if v == nil {
			col.AppendNull()
		} else {
			col.AppendString(v.(string))
		}
	}
	return col
}

func TestTextWriterRow(t *testing.T) {
	w := newTextRowWriter(textSession(t))
	defer w.Release()

	col := textColumn("a", nil)
	require.NoError(t, w.WriteValue(col, 0))
	w.WriteSeparator()
	require.NoError(t, w.WriteValue(col, 1))
	w.FinishRow()

	assert.Equal(t, "a\t\b\n", string(w.Buffer().B))
}

func TestTextWriterRowTerminatorPerRow(t *testing.T) {
	w := newTextRowWriter(textSession(t))
	defer w.Release()

	col := textColumn("x", "y", "z")
	for r := 0; r < col.Len(); r++ {
		require.NoError(t, w.WriteValue(col, r))
		w.FinishRow()
	}

	assert.Equal(t, col.Len(), bytes.Count(w.Buffer().B, []byte{'\n'}))
}

func TestTextWriterEscaping(t *testing.T) {
	w := newTextRowWriter(textSession(t))
	defer w.Release()

	require.NoError(t, w.WriteValue(textColumn("a\tb\nc\\d\be"), 0))
	assert.Equal(t, `a\tb\nc\\d\be`, string(w.Buffer().B))
}

func TestTextWriterNullByteWithoutReplacement(t *testing.T) {
	w := newTextRowWriter(textSession(t))
	defer w.Release()

	err := w.WriteValue(textColumn("a\x00b"), 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestTextWriterNullByteReplacement(t *testing.T) {
	sess, err := newSession(CopyFormatText, "?", true)
	require.NoError(t, err)
	w := newTextRowWriter(sess)
	defer w.Release()

	require.NoError(t, w.WriteValue(textColumn("a\x00b"), 0))
	assert.Equal(t, "a?b", string(w.Buffer().B))
}

func TestTextWriterReplacementIsEscaped(t *testing.T) {
	sess, err := newSession(CopyFormatText, "\\0", true)
	require.NoError(t, err)
	w := newTextRowWriter(sess)
	defer w.Release()

	require.NoError(t, w.WriteValue(textColumn("\x00"), 0))
	assert.Equal(t, `\\0`, string(w.Buffer().B))
}

func TestTextWriterFooter(t *testing.T) {
	w := newTextRowWriter(textSession(t))
	defer w.Release()

	w.WriteFooter()
	assert.Equal(t, "\\.\n", string(w.Buffer().B))
}

func TestSessionRejectsNullByteInReplacement(t *testing.T) {
	_, err := newSession(CopyFormatText, "a\x00b", true)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestBinaryWriterHeader(t *testing.T) {
	w := newBinaryRowWriter()
	defer w.Release()

	w.WriteHeader()
	buf := w.Buffer().B
	require.Len(t, buf, 19)
	assert.Equal(t, binarySignature, buf[:11])
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(buf[11:15]))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(buf[15:19]))
}

func TestBinaryWriterRowFraming(t *testing.T) {
	w := newBinaryRowWriter()
	defer w.Release()

	ints := columnar.NewIntColumn()
	require.NoError(t, ints.Append(int64(7)))
	ints.AppendNull()

	w.BeginRow(2)
	require.NoError(t, w.WriteValue(ints, 0))
	require.NoError(t, w.WriteValue(ints, 1))
	w.FinishRow()

	buf := w.Buffer().B
	// field count + (length + int8 payload) + null sentinel
	require.Len(t, buf, 2+4+8+4)
	assert.Equal(t, uint16(2), binary.BigEndian.Uint16(buf[0:2]))
	assert.Equal(t, uint32(8), binary.BigEndian.Uint32(buf[2:6]))
	assert.Equal(t, uint64(7), binary.BigEndian.Uint64(buf[6:14]))
	assert.Equal(t, int32(-1), int32(binary.BigEndian.Uint32(buf[14:18])))
}

func TestBinaryWriterFooter(t *testing.T) {
	w := newBinaryRowWriter()
	defer w.Release()

	w.WriteFooter()
	assert.Equal(t, []byte{0xFF, 0xFF}, w.Buffer().B)
}

func TestBinaryWriterTotalSize(t *testing.T) {
	w := newBinaryRowWriter()
	defer w.Release()

	ints := columnar.NewIntColumn()
	rows := 3
	for r := 0; r < rows; r++ {
		require.NoError(t, ints.Append(int64(r)))
	}

	w.WriteHeader()
	for r := 0; r < rows; r++ {
		w.BeginRow(1)
		require.NoError(t, w.WriteValue(ints, r))
		w.FinishRow()
	}
	w.WriteFooter()

	expected := 19 + rows*(2+4+8) + 2
	assert.Equal(t, expected, w.Buffer().Len())
}
