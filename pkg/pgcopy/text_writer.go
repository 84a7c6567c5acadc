package pgcopy

import (
	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
	"github.com/ajitpratap0/pgbulk/pkg/pool"
)

const (
	// textNullSentinel marks SQL NULL in the text stream. A non-printable
	// control byte cannot collide with real text: any literal backspace in
	// a value is escaped before it reaches the wire.
	textNullSentinel = '\b'
	textDelimiter    = '\t'
	textRowTerm      = '\n'
)

// textRowWriter emits one delimited line per row. Values are expected to
// already be textual (the composite encoder runs first); this writer only
// escapes characters the COPY text format treats specially.
type textRowWriter struct {
	sess *session
	buf  *pool.ByteBuffer
}

func newTextRowWriter(sess *session) *textRowWriter {
	return &textRowWriter{
		sess: sess,
		buf:  pool.GetByteBuffer(),
	}
}

func (w *textRowWriter) WriteHeader() {}

func (w *textRowWriter) BeginRow(columnCount int) {}

func (w *textRowWriter) WriteValue(col columnar.Column, row int) error {
	text, ok := col.(*columnar.StringColumn)
	if !ok {
		panic("text writer fed a non-textual column")
	}
	if text.IsNull(row) {
		w.buf.B = append(w.buf.B, textNullSentinel)
		return nil
	}
	return w.writeEscaped(text.Value(row))
}

// writeEscaped appends s with COPY text escaping: backslash and the
// control characters the format assigns meaning to get a backslash escape,
// and NUL bytes are substituted with the configured replacement. A NUL
// with no replacement configured poisons the value and fails the batch.
func (w *textRowWriter) writeEscaped(s string) error {
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\n':
			w.buf.B = append(w.buf.B, '\\', 'n')
		case '\r':
			w.buf.B = append(w.buf.B, '\\', 'r')
		case '\t':
			w.buf.B = append(w.buf.B, '\\', 't')
		case '\b':
			w.buf.B = append(w.buf.B, '\\', 'b')
		case '\f':
			w.buf.B = append(w.buf.B, '\\', 'f')
		case '\v':
			w.buf.B = append(w.buf.B, '\\', 'v')
		case '\\':
			w.buf.B = append(w.buf.B, '\\', '\\')
		case 0:
			if !w.sess.hasNullByteReplacement {
				return errors.New(errors.ErrorTypeData,
					"null byte in text value and no replacement configured")
			}
			if err := w.writeEscaped(w.sess.nullByteReplacement); err != nil {
				return err
			}
		default:
			w.buf.B = append(w.buf.B, c)
		}
	}
	return nil
}

func (w *textRowWriter) WriteSeparator() {
	w.buf.B = append(w.buf.B, textDelimiter)
}

func (w *textRowWriter) FinishRow() {
	w.buf.B = append(w.buf.B, textRowTerm)
}

// WriteFooter appends the end-of-data line. The driver invokes it only
// when the transfer wrote no rows; a stream with data needs no trailer.
func (w *textRowWriter) WriteFooter() {
	w.buf.B = append(w.buf.B, '\\', '.', textRowTerm)
}

func (w *textRowWriter) Buffer() *pool.ByteBuffer { return w.buf }

func (w *textRowWriter) Reset() { w.buf.Reset() }

func (w *textRowWriter) Release() {
	pool.PutByteBuffer(w.buf)
	w.buf = nil
}
