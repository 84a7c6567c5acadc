package main

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/ajitpratap0/pgbulk/pkg/columnar"
	"github.com/ajitpratap0/pgbulk/pkg/config"
	"github.com/ajitpratap0/pgbulk/pkg/errors"
	"github.com/ajitpratap0/pgbulk/pkg/jsonline"
)

// csvNullToken marks NULL in CSV input for columns of any type; empty
// fields are NULL for non-string columns only.
const csvNullToken = `\N`

// rowSource yields batch-sized slices of rows from an input file
type rowSource interface {
	// NewBatch builds an empty batch matching the declared schema
	NewBatch() (*columnar.Batch, error)
	// ReadInto appends up to maxRows rows and reports how many were read
	ReadInto(batch *columnar.Batch, maxRows int) (int, error)
	Close() error
}

func openSource(cfg *config.CopyJobConfig) (rowSource, error) {
	file, err := os.Open(cfg.Source.Path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to open source file")
	}
	switch cfg.Source.Format {
	case config.SourceFormatCSV:
		return newCSVSource(file, cfg.Source.Columns)
	case config.SourceFormatJSONLines:
		return newJSONLinesSource(file, cfg.Source.Columns), nil
	default:
		file.Close()
		return nil, errors.Newf(errors.ErrorTypeConfig,
			"unsupported source format %q", cfg.Source.Format)
	}
}

// columnTypeFromSpec maps config type names onto columnar types
func columnTypeFromSpec(spec config.ColumnSpec) (columnar.ColumnType, error) {
	switch spec.Type {
	case "string", "":
		return columnar.ColumnTypeString, nil
	case "int":
		return columnar.ColumnTypeInt, nil
	case "float":
		return columnar.ColumnTypeFloat, nil
	case "bool":
		return columnar.ColumnTypeBool, nil
	case "timestamp":
		return columnar.ColumnTypeTimestamp, nil
	case "bytes":
		return columnar.ColumnTypeBytes, nil
	default:
		return 0, errors.Newf(errors.ErrorTypeConfig,
			"column %q has unsupported type %q", spec.Name, spec.Type)
	}
}

func buildBatch(specs []config.ColumnSpec) (*columnar.Batch, error) {
	names := make([]string, len(specs))
	cols := make([]columnar.Column, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
		t, err := columnTypeFromSpec(spec)
		if err != nil {
			return nil, err
		}
		col, err := columnar.NewColumn(t)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to build column")
		}
		cols[i] = col
	}
	return columnar.NewBatch(names, cols), nil
}

// csvSource reads a header-prefixed CSV file
type csvSource struct {
	file    *os.File
	reader  *csv.Reader
	specs   []config.ColumnSpec
	indexes []int // position of each declared column in the CSV header
}

func newCSVSource(file *os.File, specs []config.ColumnSpec) (*csvSource, error) {
	reader := csv.NewReader(file)
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to read csv header")
	}

	indexes := make([]int, len(specs))
	for i, spec := range specs {
		indexes[i] = -1
		for h, name := range header {
			if name == spec.Name {
				indexes[i] = h
				break
			}
		}
		if indexes[i] < 0 {
			file.Close()
			return nil, errors.Newf(errors.ErrorTypeConfig,
				"column %q not found in csv header", spec.Name)
		}
	}

	return &csvSource{
		file:    file,
		reader:  reader,
		specs:   specs,
		indexes: indexes,
	}, nil
}

func (s *csvSource) NewBatch() (*columnar.Batch, error) {
	return buildBatch(s.specs)
}

func (s *csvSource) ReadInto(batch *columnar.Batch, maxRows int) (int, error) {
	rows := 0
	values := make([]interface{}, len(s.specs))
	for rows < maxRows {
		record, err := s.reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, errors.Wrap(err, errors.ErrorTypeData, "failed to read csv row")
		}
		for i, idx := range s.indexes {
			field := record[idx]
			switch {
			case field == csvNullToken:
				values[i] = nil
			case field == "" && s.specs[i].Type != "string" && s.specs[i].Type != "":
				values[i] = nil
			default:
				values[i] = field
			}
		}
		if err := batch.AppendRow(values); err != nil {
			return rows, errors.Wrap(err, errors.ErrorTypeData, "row does not match schema")
		}
		rows++
	}
	return rows, nil
}

func (s *csvSource) Close() error { return s.file.Close() }

// jsonLinesSource reads one JSON object per line
type jsonLinesSource struct {
	file   *os.File
	reader *jsonline.Reader
	specs  []config.ColumnSpec
}

func newJSONLinesSource(file *os.File, specs []config.ColumnSpec) *jsonLinesSource {
	names := make([]string, len(specs))
	for i, spec := range specs {
		names[i] = spec.Name
	}
	return &jsonLinesSource{
		file:   file,
		reader: jsonline.NewReader(file, names),
		specs:  specs,
	}
}

func (s *jsonLinesSource) NewBatch() (*columnar.Batch, error) {
	return buildBatch(s.specs)
}

func (s *jsonLinesSource) ReadInto(batch *columnar.Batch, maxRows int) (int, error) {
	return s.reader.ReadInto(batch, maxRows)
}

func (s *jsonLinesSource) Close() error { return s.file.Close() }
