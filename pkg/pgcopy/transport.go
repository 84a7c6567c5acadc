package pgcopy

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgproto3"
	"go.uber.org/zap"

	"github.com/ajitpratap0/pgbulk/pkg/errors"
	"github.com/ajitpratap0/pgbulk/pkg/logger"
)

// Transport abstracts the copy-in side of a database connection: issue the
// begin command, push chunks of encoded bytes, end the transfer and check
// the final status. The Copier drives exactly one transfer over it at a
// time.
type Transport interface {
	// BeginCopy executes the copy command and succeeds only if the server
	// acknowledges copy-in mode
	BeginCopy(ctx context.Context, sql string) error
	// Send transmits one chunk of copy data, retrying transparently on a
	// transient would-block signal and failing only on hard errors
	Send(ctx context.Context, data []byte) error
	// Finish signals end of data, fetches the final result, and returns
	// the server's command status
	Finish(ctx context.Context) (string, error)
	// Close terminates the connection
	Close(ctx context.Context) error
}

// PgTransport implements Transport over a hijacked pgconn connection,
// speaking the wire protocol directly through its frontend.
type PgTransport struct {
	conn     net.Conn
	frontend *pgproto3.Frontend
	logger   *zap.Logger
}

// Connect establishes a connection with pgconn (which handles startup and
// authentication) and takes over its raw connection and protocol frontend.
func Connect(ctx context.Context, dsn string) (*PgTransport, error) {
	pgConn, err := pgconn.Connect(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to connect")
	}
	hijacked, err := pgConn.Hijack()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to take over connection")
	}
	return &PgTransport{
		conn:     hijacked.Conn,
		frontend: hijacked.Frontend,
		logger:   logger.With(zap.String("component", "pg_transport")),
	}, nil
}

// BeginCopy sends the copy command and reads backend messages until the
// server either enters copy-in mode or rejects the command. A rejection is
// drained through ReadyForQuery so the connection stays usable.
func (t *PgTransport) BeginCopy(ctx context.Context, sql string) error {
	t.frontend.Send(&pgproto3.Query{String: sql})
	if err := t.flush(); err != nil {
		return err
	}

	var serverErr *errors.Error
	for {
		msg, err := t.frontend.Receive()
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeTransport, "failed to read copy response")
		}
		switch m := msg.(type) {
		case *pgproto3.CopyInResponse:
			return nil
		case *pgproto3.ErrorResponse:
			serverErr = errors.Newf(errors.ErrorTypeProtocol,
				"copy command rejected: %s", m.Message)
		case *pgproto3.ReadyForQuery:
			if serverErr != nil {
				return serverErr
			}
			return errors.New(errors.ErrorTypeProtocol,
				"server did not enter copy-in mode")
		case *pgproto3.NoticeResponse, *pgproto3.ParameterStatus,
			*pgproto3.NotificationResponse, *pgproto3.CommandComplete,
			*pgproto3.RowDescription, *pgproto3.DataRow, *pgproto3.EmptyQueryResponse:
			// irrelevant to copy-in; keep draining
		default:
			t.logger.Debug("ignoring backend message during copy begin",
				zap.String("type", fmt.Sprintf("%T", msg)))
		}
	}
}

// Send transmits one CopyData chunk. A timeout on the socket is the Go
// shape of the would-block signal; it retries until the write lands or a
// hard error ends the session.
func (t *PgTransport) Send(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeTransport, "copy canceled")
	}
	t.frontend.Send(&pgproto3.CopyData{Data: data})
	for {
		err := t.frontend.Flush()
		if err == nil {
			return nil
		}
		var netErr net.Error
		if stderrors.As(err, &netErr) && netErr.Timeout() {
			continue
		}
		return errors.Wrap(err, errors.ErrorTypeTransport, "failed to send copy data")
	}
}

// Finish sends CopyDone and reads until ReadyForQuery, returning the
// command status. A server error surfaces verbatim as a protocol error.
func (t *PgTransport) Finish(ctx context.Context) (string, error) {
	t.frontend.Send(&pgproto3.CopyDone{})
	if err := t.flush(); err != nil {
		return "", err
	}

	var tag string
	var serverErr *errors.Error
	for {
		msg, err := t.frontend.Receive()
		if err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeTransport, "failed to read copy result")
		}
		switch m := msg.(type) {
		case *pgproto3.CommandComplete:
			tag = string(m.CommandTag)
		case *pgproto3.ErrorResponse:
			serverErr = errors.Newf(errors.ErrorTypeProtocol,
				"copy failed: %s", m.Message)
		case *pgproto3.ReadyForQuery:
			if serverErr != nil {
				return "", serverErr
			}
			if tag == "" {
				return "", errors.New(errors.ErrorTypeProtocol,
					"copy ended without a command status")
			}
			return tag, nil
		}
	}
}

// Close sends Terminate and closes the socket
func (t *PgTransport) Close(ctx context.Context) error {
	t.frontend.Send(&pgproto3.Terminate{})
	_ = t.frontend.Flush()
	if err := t.conn.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to close connection")
	}
	return nil
}

func (t *PgTransport) flush() error {
	if err := t.frontend.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeTransport, "failed to flush frontend")
	}
	return nil
}
