package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	InsightsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adinsights_insights_generated_total",
			Help: "Insights produced by the engine",
		},
		[]string{"impact", "type"},
	)

	RecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adinsights_records_skipped_total",
			Help: "Campaign records skipped because they were malformed",
		},
		[]string{"reason"},
	)

	PersistTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adinsights_persist_total",
			Help: "Insight persist calls by outcome",
		},
		[]string{"status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "adinsights_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~2.5s
		},
		[]string{"method", "route", "status"},
	)

	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adinsights_ingest_records_total",
			Help: "Campaign rows ingested from ad platforms",
		},
		[]string{"platform"},
	)
)
