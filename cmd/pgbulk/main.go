package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/ajitpratap0/pgbulk/pkg/config"
	"github.com/ajitpratap0/pgbulk/pkg/logger"
	"github.com/ajitpratap0/pgbulk/pkg/pgcopy"
)

var version = "0.1.0"

func main() {
	root := &cobra.Command{
		Use:     "pgbulk",
		Short:   "Bulk-load columnar data into PostgreSQL via COPY",
		Version: version,
	}

	root.AddCommand(newLoadCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLoadCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a CSV or JSON-lines file into a table",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(configPath)
			if err != nil {
				return err
			}
			return runLoad(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "job config file (YAML)")
	cmd.Flags().String("dsn", "", "connection string")
	cmd.Flags().String("table", "", "target table")
	cmd.Flags().String("schema", "", "target schema")
	cmd.Flags().StringSlice("columns", nil, "explicit target column list")
	cmd.Flags().String("source", "", "input file path")
	cmd.Flags().String("source-format", "", "input format: csv or jsonl")
	cmd.Flags().String("format", "", "copy format: text or binary")
	cmd.Flags().String("null-byte-replacement", "", "replacement for NUL bytes in text values")
	cmd.Flags().Int("batch-size", 0, "rows per flushed batch")
	cmd.Flags().String("log-level", "", "log level")

	viper.SetEnvPrefix("PGBULK")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("target.dsn", cmd.Flags().Lookup("dsn"))
	_ = viper.BindPFlag("target.table", cmd.Flags().Lookup("table"))
	_ = viper.BindPFlag("target.schema", cmd.Flags().Lookup("schema"))
	_ = viper.BindPFlag("target.columns", cmd.Flags().Lookup("columns"))
	_ = viper.BindPFlag("source.path", cmd.Flags().Lookup("source"))
	_ = viper.BindPFlag("source.format", cmd.Flags().Lookup("source-format"))
	_ = viper.BindPFlag("copy.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("copy.null_byte_replacement", cmd.Flags().Lookup("null-byte-replacement"))
	_ = viper.BindPFlag("copy.batch_size", cmd.Flags().Lookup("batch-size"))
	_ = viper.BindPFlag("logging.level", cmd.Flags().Lookup("log-level"))

	return cmd
}

// resolveConfig loads the config file when given and layers flag and
// environment overrides from viper on top.
func resolveConfig(configPath string) (*config.CopyJobConfig, error) {
	var cfg *config.CopyJobConfig
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.NewCopyJobConfig("pgbulk-load")
	}

	if v := viper.GetString("target.dsn"); v != "" {
		cfg.Target.DSN = v
	}
	if v := viper.GetString("target.table"); v != "" {
		cfg.Target.Table = v
	}
	if v := viper.GetString("target.schema"); v != "" {
		cfg.Target.Schema = v
	}
	if v := viper.GetStringSlice("target.columns"); len(v) > 0 {
		cfg.Target.Columns = v
	}
	if v := viper.GetString("source.path"); v != "" {
		cfg.Source.Path = v
	}
	if v := viper.GetString("source.format"); v != "" {
		cfg.Source.Format = config.SourceFormat(v)
	}
	if v := viper.GetString("copy.format"); v != "" {
		cfg.Copy.Format = v
	}
	if v := viper.GetString("copy.null_byte_replacement"); v != "" {
		cfg.Copy.NullByteReplacement = v
		cfg.Copy.ReplaceNullBytes = true
	}
	if v := viper.GetInt("copy.batch_size"); v > 0 {
		cfg.Copy.BatchSize = v
	}
	if v := viper.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runLoad(ctx context.Context, cfg *config.CopyJobConfig) error {
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		Encoding:    cfg.Logging.Encoding,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(
		zap.String("job", cfg.Name),
		zap.String("table", cfg.Target.Table))

	source, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer source.Close()

	transport, err := pgcopy.Connect(ctx, cfg.Target.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = transport.Close(ctx) }()

	format := pgcopy.CopyFormatText
	if cfg.Copy.Format == "binary" {
		format = pgcopy.CopyFormatBinary
	}
	copier, err := pgcopy.NewCopier(transport, pgcopy.Config{
		Format:              format,
		NullByteReplacement: cfg.Copy.NullByteReplacement,
		ReplaceNullBytes:    cfg.Copy.ReplaceNullBytes,
	})
	if err != nil {
		return err
	}

	start := time.Now()
	if err := copier.Begin(ctx, pgcopy.Target{
		Schema:  cfg.Target.Schema,
		Table:   cfg.Target.Table,
		Columns: cfg.Target.Columns,
	}); err != nil {
		return err
	}

	batch, err := source.NewBatch()
	if err != nil {
		return err
	}
	for {
		batch.Reset()
		rows, err := source.ReadInto(batch, cfg.Copy.BatchSize)
		if err != nil {
			return err
		}
		if rows == 0 {
			break
		}
		if err := copier.CopyBatch(ctx, batch); err != nil {
			return err
		}
	}

	if err := copier.Finish(ctx); err != nil {
		return err
	}

	log.Info("load complete",
		zap.Int64("rows", copier.RowsWritten()),
		zap.Int64("bytes", copier.BytesSent()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
