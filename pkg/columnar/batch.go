package columnar

import "fmt"

// Batch is an ordered set of equally-sized named columns supplied to the
// copy driver per flush. Batches are ephemeral; Reset clears all columns
// for reuse.
type Batch struct {
	names []string
	cols  []Column
}

// NewBatch creates a batch over the given named columns
func NewBatch(names []string, cols []Column) *Batch {
	if len(names) != len(cols) {
		panic(fmt.Sprintf("batch: %d names for %d columns", len(names), len(cols)))
	}
	return &Batch{names: names, cols: cols}
}

// NewColumn creates an empty column of the given primitive type. List and
// struct columns carry child columns and must be built with NewListColumn
// or NewStructColumn.
func NewColumn(t ColumnType) (Column, error) {
	switch t {
	case ColumnTypeString:
		return NewStringColumn(), nil
	case ColumnTypeInt:
		return NewIntColumn(), nil
	case ColumnTypeFloat:
		return NewFloatColumn(), nil
	case ColumnTypeBool:
		return NewBoolColumn(), nil
	case ColumnTypeTimestamp:
		return NewTimestampColumn(), nil
	case ColumnTypeBytes:
		return NewBytesColumn(), nil
	default:
		return nil, fmt.Errorf("no standalone constructor for column type %s", t)
	}
}

// Columns returns the number of columns
func (b *Batch) Columns() int { return len(b.cols) }

// Rows returns the number of rows. Columns are required to be equally
// sized; the first column is authoritative.
func (b *Batch) Rows() int {
	if len(b.cols) == 0 {
		return 0
	}
	return b.cols[0].Len()
}

// Column returns the column at index c
func (b *Batch) Column(c int) Column { return b.cols[c] }

// Name returns the name of the column at index c
func (b *Batch) Name(c int) string { return b.names[c] }

// Names returns all column names in order
func (b *Batch) Names() []string { return b.names }

// AppendRow appends one value per column; nil values become nulls
func (b *Batch) AppendRow(values []interface{}) error {
	if len(values) != len(b.cols) {
		return fmt.Errorf("row has %d values, batch has %d columns", len(values), len(b.cols))
	}
	for c, v := range values {
		if v == nil {
			b.cols[c].AppendNull()
			continue
		}
		if err := b.cols[c].Append(v); err != nil {
			return fmt.Errorf("column %q: %w", b.names[c], err)
		}
	}
	return nil
}

// Reset clears all columns so the batch can be refilled
func (b *Batch) Reset() {
	for _, col := range b.cols {
		col.Clear()
	}
}

// MemoryUsage returns the total bytes held by all columns
func (b *Batch) MemoryUsage() int64 {
	var total int64
	for _, col := range b.cols {
		total += col.MemoryUsage()
	}
	return total
}
