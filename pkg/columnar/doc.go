// Package columnar implements the in-memory batch model consumed by the
// copy driver: ordered, equally-sized, nullable columns.
//
// Primitive columns (string, int, float, bool, timestamp, bytes) store
// values in flat slices with a parallel validity slice. List columns share
// one child column across all rows and address it through offset windows,
// so nested data is encoded once per batch rather than once per row.
// Struct columns hold parallel field columns of the same length.
//
// Batches are built row-wise with Batch.AppendRow or converted from Arrow
// record batches with FromArrowRecord, and recycled with Batch.Reset.
package columnar
