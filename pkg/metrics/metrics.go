// Package metrics provides Prometheus metrics for pgbulk copy transfers.
//
// Metrics are registered once at package load via promauto and labeled by
// target table and copy format, so concurrent transfers into different
// tables stay distinguishable.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RowsCopied counts rows handed to the row writer
	RowsCopied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgbulk_rows_copied_total",
		Help: "Total rows encoded and sent to the server",
	}, []string{"table", "format"})

	// BytesSent counts copy-data bytes pushed to the transport
	BytesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgbulk_bytes_sent_total",
		Help: "Total copy stream bytes sent to the server",
	}, []string{"table", "format"})

	// BatchesFlushed counts batch flushes
	BatchesFlushed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgbulk_batches_flushed_total",
		Help: "Total batches encoded and flushed",
	}, []string{"table", "format"})

	// FlushDuration observes per-batch encode-and-send latency
	FlushDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pgbulk_flush_duration_seconds",
		Help:    "Time to encode one batch and push it to the transport",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
	}, []string{"table", "format"})

	// TransferErrors counts failed transfers by error type
	TransferErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pgbulk_transfer_errors_total",
		Help: "Total copy transfer failures",
	}, []string{"table", "format", "error_type"})
)

// Timer measures one flush for the FlushDuration histogram
type Timer struct {
	start  time.Time
	table  string
	format string
}

// NewTimer starts a flush timer for the given table and format
func NewTimer(table, format string) *Timer {
	return &Timer{start: time.Now(), table: table, format: format}
}

// Stop records the elapsed time and returns it
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	FlushDuration.WithLabelValues(t.table, t.format).Observe(elapsed.Seconds())
	return elapsed
}
