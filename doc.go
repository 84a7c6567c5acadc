// Package pgbulk is the root of the pgbulk module, a bulk loader that
// serializes columnar in-memory batches into the PostgreSQL COPY wire
// format (text and binary) and drives the copy-in protocol.
//
// The interesting packages live under pkg/:
//
//   - pkg/pgcopy: the composite text encoder, the two row writers, and
//     the protocol driver
//   - pkg/columnar: nullable columnar batches, with an Arrow adapter
//   - pkg/config, pkg/logger, pkg/errors, pkg/metrics: job configuration
//     and the ambient plumbing
//
// The pgbulk CLI in cmd/pgbulk loads CSV and JSON-lines files into a
// table using the library.
package pgbulk
