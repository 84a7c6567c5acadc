package pgcopy

import (
	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/pool"
)

// rowWriter turns batch values into the bytes of one copy-format variant.
// Both implementations share a life cycle: an optional stream header, then
// per row BeginRow, WriteValue per column (text interleaves WriteSeparator
// between columns), FinishRow, and finally a format-specific footer. The
// writer accumulates into a pooled buffer which the driver flushes to the
// transport; one writer serves one session, its buffer is drained per
// batch.
type rowWriter interface {
	// WriteHeader appends the stream header; a no-op for the text format
	WriteHeader()
	// BeginRow starts a row of columnCount fields; a no-op for the text format
	BeginRow(columnCount int)
	// WriteValue appends the value at (col, row), or the format's NULL
	// encoding when the value is null
	WriteValue(col columnar.Column, row int) error
	// WriteSeparator appends the field delimiter; a no-op for the binary format
	WriteSeparator()
	// FinishRow terminates the current row
	FinishRow()
	// WriteFooter appends the end-of-stream marker
	WriteFooter()
	// Buffer exposes the accumulated bytes
	Buffer() *pool.ByteBuffer
	// Reset drains the buffer between flushes
	Reset()
	// Release returns the buffer to the pool; the writer is dead afterwards
	Release()
}

// newRowWriter selects the writer implementation for the session's format
func newRowWriter(sess *session) rowWriter {
	if sess.format == CopyFormatBinary {
		return newBinaryRowWriter()
	}
	return newTextRowWriter(sess)
}
