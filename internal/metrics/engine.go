package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// IndexJobDuration tracks how long each indexing job type takes.
	IndexJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ordersearch",
			Name:      "index_job_duration_seconds",
			Help:      "Indexing job duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300},
		},
		[]string{"job"},
	)

	// IndexedDocumentsTotal counts documents upserted into the index.
	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ordersearch",
			Name:      "indexed_documents_total",
			Help:      "Total number of documents upserted into the search index",
		},
		[]string{"job"},
	)

	// IndexErrorsTotal counts per-record indexing failures.
	IndexErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ordersearch",
			Name:      "index_errors_total",
			Help:      "Total number of source records that failed to index",
		},
	)

	// SearchDuration tracks query execution time.
	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ordersearch",
			Name:      "search_duration_seconds",
			Help:      "Search execution duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"kind"},
	)

	// SuggestionsTotal counts suggestion lookups.
	SuggestionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ordersearch",
			Name:      "suggestions_total",
			Help:      "Total number of suggestion lookups",
		},
	)
)

var registerEngineOnce sync.Once

// RegisterEngineMetrics registers indexing and search metrics. Explicit
// registration keeps tests that import this package from tripping over
// duplicate collectors.
func RegisterEngineMetrics() {
	registerEngineOnce.Do(func() {
		prometheus.MustRegister(
			IndexJobDuration,
			IndexedDocumentsTotal,
			IndexErrorsTotal,
			SearchDuration,
			SuggestionsTotal,
		)
	})
}
