package storage

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cydiarepo_storage_query_duration_seconds",
			Help:    "Duration of storage queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	queryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cydiarepo_storage_query_errors_total",
			Help: "Total number of failed storage queries",
		},
		[]string{"query", "kind"},
	)
)

func observeQuery(query string, start time.Time, err error) {
	queryDuration.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil {
		queryErrors.WithLabelValues(query, classify(err).String()).Inc()
	}
}
