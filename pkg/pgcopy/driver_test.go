package pgcopy

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
	"github.com/ajitpratap0/pgbulk/pkg/testutil"
)

// mockTransport records the protocol exchange for assertions
type mockTransport struct {
	beginSQL  string
	chunks    [][]byte
	finished  bool
	closed    bool
	beginErr  error
	sendErr   error
	finishErr error
	finishTag string
}

func (m *mockTransport) BeginCopy(_ context.Context, sql string) error {
	m.beginSQL = sql
	return m.beginErr
}

func (m *mockTransport) Send(_ context.Context, data []byte) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	chunk := make([]byte, len(data))
	copy(chunk, data)
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *mockTransport) Finish(_ context.Context) (string, error) {
	m.finished = true
	if m.finishErr != nil {
		return "", m.finishErr
	}
	if m.finishTag == "" {
		return "COPY 0", nil
	}
	return m.finishTag, nil
}

func (m *mockTransport) Close(_ context.Context) error {
	m.closed = true
	return nil
}

func intBatch(t *testing.T, values ...interface{}) *columnar.Batch {
	t.Helper()
	col := columnar.NewIntColumn()
	for _, v := range values {
		require.NoError(t, col.Append(v))
	}
	return columnar.NewBatch([]string{"n"}, []columnar.Column{col})
}

func newTestCopier(t *testing.T, transport Transport, format CopyFormat) *Copier {
	t.Helper()
	c, err := NewCopier(transport, Config{Format: format})
	require.NoError(t, err)
	return c
}

func TestCopierConfigValidation(t *testing.T) {
	_, err := NewCopier(&mockTransport{}, Config{
		Format:              CopyFormatText,
		NullByteReplacement: "bad\x00",
		ReplaceNullBytes:    true,
	})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestCopyBatchBeforeBeginRejected(t *testing.T) {
	c := newTestCopier(t, &mockTransport{}, CopyFormatText)

	err := c.CopyBatch(context.Background(), intBatch(t, int64(1)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestCopyBatchAfterFinishRejected(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1))))
	require.NoError(t, c.Finish(ctx))

	err := c.CopyBatch(ctx, intBatch(t, int64(2)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestFailedBeginSendsNoData(t *testing.T) {
	transport := &mockTransport{
		beginErr: errors.New(errors.ErrorTypeProtocol, "relation does not exist"),
	}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	err := c.Begin(ctx, Target{Table: "missing"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProtocol))

	err = c.CopyBatch(ctx, intBatch(t, int64(1)))
	require.Error(t, err)
	assert.Empty(t, transport.chunks, "no data chunk may follow a failed begin")
}

func TestCopyCommandText(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)

	require.NoError(t, c.Begin(context.Background(), Target{
		Schema:  "public",
		Table:   "events",
		Columns: []string{"id", "payload"},
	}))
	assert.Equal(t,
		"COPY \"public\".\"events\" (\"id\", \"payload\") FROM STDIN (FORMAT TEXT, NULL '\b')",
		transport.beginSQL)
}

func TestCopyCommandBinaryAndHeaderFirst(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatBinary)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "events"}))
	assert.Equal(t, `COPY "events" FROM STDIN (FORMAT BINARY)`, transport.beginSQL)
	require.Len(t, transport.chunks, 1, "binary header must precede any data")
	assert.True(t, bytes.HasPrefix(transport.chunks[0], binarySignature))

	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1))))
	require.Len(t, transport.chunks, 2)
}

func TestTextTransferRoundTrip(t *testing.T) {
	transport := &mockTransport{finishTag: "COPY 2"}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1), nil)))
	require.NoError(t, c.Finish(ctx))

	require.Len(t, transport.chunks, 1)
	assert.Equal(t, "1\n\b\n", string(transport.chunks[0]))
	assert.True(t, transport.finished)
	assert.EqualValues(t, 2, c.RowsWritten())
}

func TestTextFooterOnlyWhenNoRows(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.Finish(ctx))

	require.Len(t, transport.chunks, 1)
	assert.Equal(t, "\\.\n", string(transport.chunks[0]))
}

func TestBinaryFooterAlways(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatBinary)
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1))))
	require.NoError(t, c.Finish(ctx))

	last := transport.chunks[len(transport.chunks)-1]
	assert.Equal(t, []byte{0xFF, 0xFF}, last)
}

func TestScratchBatchColumnCountFixed(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1))))

	two := columnar.NewBatch(
		[]string{"a", "b"},
		[]columnar.Column{columnar.NewIntColumn(), columnar.NewIntColumn()})
	err := c.CopyBatch(ctx, two)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}

func TestScratchBatchReusedAcrossBatches(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1), int64(2))))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(3))))

	require.Len(t, transport.chunks, 2)
	assert.Equal(t, "1\n2\n", string(transport.chunks[0]))
	assert.Equal(t, "3\n", string(transport.chunks[1]))
}

func TestSendFailureMovesSessionToFailed(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	transport.sendErr = errors.New(errors.ErrorTypeTransport, "broken pipe")

	err := c.CopyBatch(ctx, intBatch(t, int64(1)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeTransport))

	// further batches are rejected
	transport.sendErr = nil
	err = c.CopyBatch(ctx, intBatch(t, int64(2)))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	// the caller may still issue the end command
	require.NoError(t, c.Finish(ctx))
	assert.True(t, transport.finished)
	assert.Empty(t, transport.chunks, "no footer after a transport failure")
}

func TestFinishProtocolError(t *testing.T) {
	transport := &mockTransport{
		finishErr: errors.New(errors.ErrorTypeProtocol, "constraint violation"),
	}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.CopyBatch(ctx, intBatch(t, int64(1))))

	err := c.Finish(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeProtocol))
}

func TestFinishTwiceRejected(t *testing.T) {
	transport := &mockTransport{}
	c := newTestCopier(t, transport, CopyFormatText)
	ctx := context.Background()

	require.NoError(t, c.Begin(ctx, Target{Table: "t"}))
	require.NoError(t, c.Finish(ctx))

	err := c.Finish(ctx)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
}
