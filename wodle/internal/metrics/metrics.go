// Package metrics holds the wodle's Prometheus collectors. A wodle runs as a
// short-lived job, so collectors are exported through a node_exporter textfile
// rather than an HTTP endpoint.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Delivery metrics
	EventsForwarded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_wodle_events_forwarded_total",
			Help: "Total number of events delivered to analysisd",
		},
		[]string{"integration"},
	)

	EventBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_wodle_event_bytes_total",
			Help: "Total bytes of formatted event data delivered to analysisd",
		},
		[]string{"integration"},
	)

	DeliveryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_wodle_delivery_failures_total",
			Help: "Total number of analysisd transport failures by reason",
		},
		[]string{"integration", "reason"},
	)

	// Source metrics
	SourceErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telhawk_wodle_source_errors_total",
			Help: "Total number of errors reading from an integration source",
		},
		[]string{"integration"},
	)

	// Run metrics
	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "telhawk_wodle_run_duration_seconds",
			Help:    "Duration of a wodle run in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"integration"},
	)

	LastRunSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telhawk_wodle_last_run_success",
			Help: "Whether the last wodle run completed without error (1) or not (0)",
		},
		[]string{"integration"},
	)

	LastRunTimestamp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "telhawk_wodle_last_run_timestamp_seconds",
			Help: "Unix time the last wodle run finished",
		},
		[]string{"integration"},
	)
)

// WriteTextfile writes every registered collector to path in the text
// exposition format. The file is replaced atomically.
func WriteTextfile(path string) error {
	return writeTextfile(path, prometheus.DefaultGatherer)
}

func writeTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}
	return nil
}
