// Package config provides the configuration system for pgbulk copy jobs.
// A single CopyJobConfig structure describes one bulk load end to end:
// where the rows come from, which table receives them, how the copy stream
// is encoded, and how the process logs.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/pgbulk/pkg/errors"
)

// SourceFormat names a supported input file format
type SourceFormat string

const (
	// SourceFormatCSV reads comma-separated files with a header row
	SourceFormatCSV SourceFormat = "csv"
	// SourceFormatJSONLines reads one JSON object per line
	SourceFormatJSONLines SourceFormat = "jsonl"
)

// ColumnSpec declares one input column's name and type
type ColumnSpec struct {
	// Name is the column name, matched against CSV headers or JSON keys
	Name string `yaml:"name" json:"name"`
	// Type is one of string, int, float, bool, timestamp, bytes
	Type string `yaml:"type" json:"type"`
}

// SourceConfig describes the input rows
type SourceConfig struct {
	// Path is the input file
	Path string `yaml:"path" json:"path"`
	// Format selects the input decoder
	Format SourceFormat `yaml:"format" json:"format"`
	// Columns declares the input schema in column order
	Columns []ColumnSpec `yaml:"columns" json:"columns"`
}

// TargetConfig identifies the receiving table
type TargetConfig struct {
	// DSN is the connection string
	DSN string `yaml:"dsn" json:"dsn"`
	// Schema qualifies the table when non-empty
	Schema string `yaml:"schema" json:"schema"`
	// Table is the receiving table name
	Table string `yaml:"table" json:"table"`
	// Columns restricts the copy to an explicit column list when non-empty
	Columns []string `yaml:"columns" json:"columns"`
}

// CopyConfig controls the copy stream encoding
type CopyConfig struct {
	// Format is "text" or "binary"
	Format string `yaml:"format" json:"format"`
	// NullByteReplacement substitutes NUL bytes in text values when
	// ReplaceNullBytes is set
	NullByteReplacement string `yaml:"null_byte_replacement" json:"null_byte_replacement"`
	// ReplaceNullBytes enables NUL substitution
	ReplaceNullBytes bool `yaml:"replace_null_bytes" json:"replace_null_bytes"`
	// BatchSize is the number of rows per flushed batch
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// LoggingConfig controls process logging
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Encoding    string `yaml:"encoding" json:"encoding"`
	Development bool   `yaml:"development" json:"development"`
}

// CopyJobConfig is the root configuration for one bulk load
type CopyJobConfig struct {
	// Name identifies the job in logs
	Name string `yaml:"name" json:"name"`

	Source  SourceConfig  `yaml:"source" json:"source"`
	Target  TargetConfig  `yaml:"target" json:"target"`
	Copy    CopyConfig    `yaml:"copy" json:"copy"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// NewCopyJobConfig returns a config with defaults applied
func NewCopyJobConfig(name string) *CopyJobConfig {
	return &CopyJobConfig{
		Name: name,
		Source: SourceConfig{
			Format: SourceFormatCSV,
		},
		Copy: CopyConfig{
			Format:    "text",
			BatchSize: 10000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for problems that would fail the job
func (c *CopyJobConfig) Validate() error {
	if c.Source.Path == "" {
		return errors.New(errors.ErrorTypeConfig, "source.path is required")
	}
	switch c.Source.Format {
	case SourceFormatCSV, SourceFormatJSONLines:
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported source format %q", c.Source.Format)
	}
	if len(c.Source.Columns) == 0 {
		return errors.New(errors.ErrorTypeConfig, "source.columns is required")
	}
	for _, col := range c.Source.Columns {
		if col.Name == "" {
			return errors.New(errors.ErrorTypeConfig, "every source column needs a name")
		}
	}
	if c.Target.DSN == "" {
		return errors.New(errors.ErrorTypeConfig, "target.dsn is required")
	}
	if c.Target.Table == "" {
		return errors.New(errors.ErrorTypeConfig, "target.table is required")
	}
	switch c.Copy.Format {
	case "text", "binary":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unsupported copy format %q", c.Copy.Format)
	}
	if c.Copy.BatchSize <= 0 {
		return errors.New(errors.ErrorTypeConfig, "copy.batch_size must be positive")
	}
	for i := 0; i < len(c.Copy.NullByteReplacement); i++ {
		if c.Copy.NullByteReplacement[i] == 0 {
			return errors.New(errors.ErrorTypeConfig,
				"copy.null_byte_replacement cannot contain null bytes")
		}
	}
	return nil
}

// LoadFromFile reads and validates a YAML job configuration
func LoadFromFile(path string) (*CopyJobConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to read config file")
	}
	cfg := NewCopyJobConfig("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "failed to parse config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
