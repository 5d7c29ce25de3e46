// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "schoolattend"

var (
	RowsParsed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "rows_parsed_total",
		Help:      "Attendance rows extracted from uploads, by strategy.",
	}, []string{"strategy"})

	RowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "rows_dropped_total",
		Help:      "Lines or rows that could not be used, by reason.",
	}, []string{"reason"})

	EntriesWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "entries_written_total",
		Help:      "Day entries appended to attendance documents.",
	})

	BatchesCommitted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "batches_committed_total",
		Help:      "Write batches committed to the document store.",
	})

	IngestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "ingest",
		Name:      "duration_seconds",
		Help:      "Time spent parsing and writing one upload.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	JobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "jobs",
		Name:      "processed_total",
		Help:      "Asynchronous ingestion jobs finished, by final status.",
	}, []string{"status"})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)
