// Package pgcopy serializes columnar batches into the PostgreSQL
// COPY FROM STDIN wire format and drives the copy-in protocol.
//
// The Copier owns one transfer: Begin issues the COPY command and, for the
// binary format, sends the stream header; CopyBatch encodes one
// columnar.Batch (text batches run through the composite encoder into a
// reusable scratch batch first) and pushes the bytes as one chunk; Finish
// writes the format-specific footer, ends the transfer and checks the
// server's final status.
//
// Nested values follow the server's literal grammars: lists render as
// {e0,e1,...} with null elements as the NULL token, structs as (v0,v1,...)
// with null fields as empty slots, and blobs as \x-prefixed hex. Quoting
// is value-local and round-trippable; see NeedsQuoting and QuoteAndEscape.
//
// Configuration, protocol and transport failures are structured errors
// (see the errors package); lifecycle misuse such as copying before Begin
// is reported as a validation error, and type-dispatch mismatches panic.
package pgcopy
