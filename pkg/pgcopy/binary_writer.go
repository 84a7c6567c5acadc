package pgcopy

import (
	"encoding/binary"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/pool"
)

// binarySignature opens every binary copy stream, followed by a 32-bit
// zero flags word and a 32-bit zero header-extension length.
var binarySignature = []byte{'P', 'G', 'C', 'O', 'P', 'Y', '\n', 0xFF, '\r', '\n', 0x00}

// binaryNullField is the 32-bit field length sentinel for NULL. A var,
// not a const: the negative value is only convertible to uint32 at run
// time.
var binaryNullField int32 = -1

// binaryRowWriter emits the binary copy framing: a 16-bit field count per
// row, then per field either the NULL sentinel or a 32-bit length followed
// by the value's binary payload.
type binaryRowWriter struct {
	buf *pool.ByteBuffer
}

func newBinaryRowWriter() *binaryRowWriter {
	return &binaryRowWriter{buf: pool.GetByteBuffer()}
}

func (w *binaryRowWriter) WriteHeader() {
	w.buf.B = append(w.buf.B, binarySignature...)
	w.buf.B = binary.BigEndian.AppendUint32(w.buf.B, 0) // flags
	w.buf.B = binary.BigEndian.AppendUint32(w.buf.B, 0) // header extension length
}

func (w *binaryRowWriter) BeginRow(columnCount int) {
	w.buf.B = binary.BigEndian.AppendUint16(w.buf.B, uint16(columnCount))
}

func (w *binaryRowWriter) WriteValue(col columnar.Column, row int) error {
	if col.IsNull(row) {
		w.buf.B = binary.BigEndian.AppendUint32(w.buf.B, uint32(binaryNullField))
		return nil
	}
	var err error
	w.buf.B, err = appendBinaryField(w.buf.B, col, row)
	return err
}

func (w *binaryRowWriter) WriteSeparator() {}

func (w *binaryRowWriter) FinishRow() {}

// WriteFooter appends the 16-bit end-of-stream sentinel
func (w *binaryRowWriter) WriteFooter() {
	w.buf.B = binary.BigEndian.AppendUint16(w.buf.B, 0xFFFF)
}

func (w *binaryRowWriter) Buffer() *pool.ByteBuffer { return w.buf }

func (w *binaryRowWriter) Reset() { w.buf.Reset() }

func (w *binaryRowWriter) Release() {
	pool.PutByteBuffer(w.buf)
	w.buf = nil
}
