package pgcopy

import (
	"context"
	stderrors "errors"
	"strings"

	"go.uber.org/zap"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
	"github.com/ajitpratap0/pgbulk/pkg/logger"
	"github.com/ajitpratap0/pgbulk/pkg/metrics"
)

// copyState tracks the transfer life cycle. Only Begin leaves the
// uninitialized state, nothing follows closed, and a transport failure
// parks the session in failed until the caller decides whether to still
// issue the end command or abandon the connection.
type copyState int

const (
	stateUninitialized copyState = iota
	stateActive
	stateClosed
	stateFailed
)

// Target identifies the table receiving the copy
type Target struct {
	// Schema qualifies the table when non-empty
	Schema string
	// Table is the receiving table name
	Table string
	// Columns restricts the copy to an explicit column list when non-empty
	Columns []string
}

// Config carries per-transfer settings for a Copier
type Config struct {
	// Format selects the wire variant
	Format CopyFormat
	// NullByteReplacement substitutes NUL bytes in text values when
	// ReplaceNullBytes is set; it must not itself contain NUL
	NullByteReplacement string
	// ReplaceNullBytes enables NUL substitution
	ReplaceNullBytes bool
}

// Copier drives one bulk-copy transfer: it issues the begin command,
// encodes and pushes batches, and finishes the protocol exchange. It owns
// the session state, the row writer and the reusable scratch batch, and is
// not safe for concurrent use; exactly one CopyBatch may be in flight.
type Copier struct {
	transport Transport
	sess      *session
	state     copyState
	target    Target

	writer  rowWriter
	scratch []*columnar.StringColumn

	rowsWritten int64
	bytesSent   int64

	logger *zap.Logger
}

// NewCopier validates the configuration and builds a copier over the given
// transport. Configuration problems surface here, before any command is
// issued.
func NewCopier(transport Transport, cfg Config) (*Copier, error) {
	sess, err := newSession(cfg.Format, cfg.NullByteReplacement, cfg.ReplaceNullBytes)
	if err != nil {
		return nil, err
	}
	return &Copier{
		transport: transport,
		sess:      sess,
		state:     stateUninitialized,
		logger:    logger.With(zap.String("component", "copier")),
	}, nil
}

// quoteIdentifier renders a double-quoted identifier with inner quotes doubled
func quoteIdentifier(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// buildCopyCommand renders the COPY ... FROM STDIN command for the target
// and format. The text clause declares the NULL sentinel so the server and
// the text writer agree on it.
func buildCopyCommand(target Target, format CopyFormat) string {
	var b strings.Builder
	b.WriteString("COPY ")
	if target.Schema != "" {
		b.WriteString(quoteIdentifier(target.Schema))
		b.WriteByte('.')
	}
	b.WriteString(quoteIdentifier(target.Table))
	if len(target.Columns) > 0 {
		b.WriteString(" (")
		for i, col := range target.Columns {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(quoteIdentifier(col))
		}
		b.WriteByte(')')
	}
	b.WriteString(" FROM STDIN ")
	switch format {
	case CopyFormatBinary:
		b.WriteString("(FORMAT BINARY)")
	default:
		b.WriteString("(FORMAT TEXT, NULL '" + string(rune(textNullSentinel)) + "')")
	}
	return b.String()
}

// Begin issues the copy command and moves the session to active. For the
// binary format the stream header goes out as the very first chunk, before
// any data.
func (c *Copier) Begin(ctx context.Context, target Target) error {
	if c.state != stateUninitialized {
		return errors.New(errors.ErrorTypeValidation, "copy transfer already begun")
	}
	c.target = target
	c.logger = c.logger.With(
		zap.String("table", target.Table),
		zap.String("format", c.sess.format.String()))

	sql := buildCopyCommand(target, c.sess.format)
	if err := c.transport.BeginCopy(ctx, sql); err != nil {
		c.state = stateFailed
		c.countError(err)
		return errors.Wrap(err, errType(err), "failed to begin copy")
	}

	c.writer = newRowWriter(c.sess)
	if c.sess.format == CopyFormatBinary {
		c.writer.WriteHeader()
		if err := c.flushWriter(ctx); err != nil {
			return err
		}
	}

	c.state = stateActive
	c.logger.Info("copy transfer begun", zap.String("command", sql))
	return nil
}

// CopyBatch encodes one batch and pushes it to the transport. For the text
// format the batch first runs through the composite encoder into a scratch
// batch that is allocated on first use and reused afterwards; a later
// batch with a different column count is a caller contract violation.
func (c *Copier) CopyBatch(ctx context.Context, batch *columnar.Batch) error {
	if c.state != stateActive {
		return errors.Newf(errors.ErrorTypeValidation,
			"copy batch in state %d: transfer is not active", int(c.state))
	}

	timer := metrics.NewTimer(c.target.Table, c.sess.format.String())
	defer timer.Stop()

	var err error
	if c.sess.format == CopyFormatText {
		err = c.writeTextBatch(batch)
	} else {
		err = c.writeBinaryBatch(batch)
	}
	if err != nil {
		c.state = stateFailed
		c.writer.Reset()
		c.countError(err)
		return err
	}

	if err := c.flushWriter(ctx); err != nil {
		return err
	}

	rows := int64(batch.Rows())
	c.rowsWritten += rows
	metrics.RowsCopied.WithLabelValues(c.target.Table, c.sess.format.String()).Add(float64(rows))
	metrics.BatchesFlushed.WithLabelValues(c.target.Table, c.sess.format.String()).Inc()
	c.logger.Debug("batch flushed", zap.Int64("rows", rows))
	return nil
}

func (c *Copier) writeTextBatch(batch *columnar.Batch) error {
	if c.scratch == nil {
		c.scratch = make([]*columnar.StringColumn, batch.Columns())
		for i := range c.scratch {
			c.scratch[i] = columnar.NewStringColumn()
		}
	} else if len(c.scratch) != batch.Columns() {
		return errors.Newf(errors.ErrorTypeValidation,
			"batch has %d columns, scratch batch has %d", batch.Columns(), len(c.scratch))
	}

	rows := batch.Rows()
	for col := 0; col < batch.Columns(); col++ {
		c.scratch[col].Clear()
		EncodeColumnText(c.scratch[col], batch.Column(col), rows)
	}

	for r := 0; r < rows; r++ {
		for col := 0; col < batch.Columns(); col++ {
			if col > 0 {
				c.writer.WriteSeparator()
			}
			if err := c.writer.WriteValue(c.scratch[col], r); err != nil {
				return err
			}
		}
		c.writer.FinishRow()
	}
	return nil
}

func (c *Copier) writeBinaryBatch(batch *columnar.Batch) error {
	rows := batch.Rows()
	for r := 0; r < rows; r++ {
		c.writer.BeginRow(batch.Columns())
		for col := 0; col < batch.Columns(); col++ {
			if err := c.writer.WriteValue(batch.Column(col), r); err != nil {
				return err
			}
		}
		c.writer.FinishRow()
	}
	return nil
}

// flushWriter sends the writer's buffer as one chunk and drains it
func (c *Copier) flushWriter(ctx context.Context) error {
	buf := c.writer.Buffer()
	if buf.Len() == 0 {
		return nil
	}
	if err := c.transport.Send(ctx, buf.B); err != nil {
		c.state = stateFailed
		c.countError(err)
		return errors.Wrap(err, errType(err), "failed to send copy data")
	}
	c.bytesSent += int64(buf.Len())
	metrics.BytesSent.WithLabelValues(c.target.Table, c.sess.format.String()).Add(float64(buf.Len()))
	c.writer.Reset()
	return nil
}

// Finish writes the format-specific footer, ends the transfer and checks
// the final status. On an active session the binary footer is the 16-bit
// end sentinel; the text footer is the end-of-data line and goes out only
// when no rows were written. After a transport failure Finish may still be
// called to issue the end command, but no footer is sent.
func (c *Copier) Finish(ctx context.Context) error {
	switch c.state {
	case stateActive:
		c.writer.Reset()
		if c.sess.format == CopyFormatBinary {
			c.writer.WriteFooter()
		} else if c.rowsWritten == 0 {
			c.writer.WriteFooter()
		}
		if err := c.flushWriter(ctx); err != nil {
			return err
		}
	case stateFailed:
		// end command only; the stream is already broken
	case stateClosed:
		return errors.New(errors.ErrorTypeValidation, "copy transfer already finished")
	default:
		return errors.New(errors.ErrorTypeValidation, "copy transfer never begun")
	}

	if c.writer != nil {
		c.writer.Release()
		c.writer = nil
	}

	tag, err := c.transport.Finish(ctx)
	if err != nil {
		c.state = stateClosed
		c.countError(err)
		return errors.Wrap(err, errType(err), "failed to finish copy")
	}
	c.state = stateClosed
	c.logger.Info("copy transfer finished",
		zap.String("status", tag),
		zap.Int64("rows", c.rowsWritten),
		zap.Int64("bytes", c.bytesSent))
	return nil
}

// RowsWritten returns the number of rows pushed so far
func (c *Copier) RowsWritten() int64 { return c.rowsWritten }

// BytesSent returns the number of copy stream bytes sent so far
func (c *Copier) BytesSent() int64 { return c.bytesSent }

func (c *Copier) countError(err error) {
	var e *errors.Error
	typ := "unknown"
	if stderrors.As(err, &e) {
		typ = string(e.Type)
	}
	metrics.TransferErrors.WithLabelValues(
		c.target.Table, c.sess.format.String(), typ).Inc()
}

// errType preserves the structured type when re-wrapping an error
func errType(err error) errors.ErrorType {
	var e *errors.Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return errors.ErrorTypeInternal
}
