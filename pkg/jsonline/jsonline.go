// Package jsonline decodes JSON-lines input into columnar batches
package jsonline

import (
	"bufio"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
)

// Reader streams one JSON object per line into batch rows
type Reader struct {
	scanner *bufio.Scanner
	columns []string
	line    int
}

// NewReader wraps r, mapping each object's keys onto the given columns in
// order. Missing keys and JSON nulls become null values.
func NewReader(r io.Reader, columns []string) *Reader {
	scanner := bufio.NewScanner(r)
	// Rows with large nested values can exceed the default line limit
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	return &Reader{
		scanner: scanner,
		columns: columns,
	}
}

// ReadInto appends up to maxRows decoded rows to the batch and reports how
// many were read; io.EOF semantics are folded into a zero count.
func (r *Reader) ReadInto(batch *columnar.Batch, maxRows int) (int, error) {
	rows := 0
	values := make([]interface{}, len(r.columns))
	for rows < maxRows && r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var obj map[string]interface{}
		if err := gojson.Unmarshal(line, &obj); err != nil {
			return rows, errors.Wrap(err, errors.ErrorTypeData,
				"invalid json object").WithDetail("line", r.line)
		}
		for i, col := range r.columns {
			values[i] = obj[col]
		}
		if err := batch.AppendRow(values); err != nil {
			return rows, errors.Wrap(err, errors.ErrorTypeData,
				"row does not match schema").WithDetail("line", r.line)
		}
		rows++
	}
	if err := r.scanner.Err(); err != nil {
		return rows, errors.Wrap(err, errors.ErrorTypeData, "failed to read input")
	}
	return rows, nil
}
