// Package metrics exposes Prometheus instrumentation for the report pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamCalls counts YouTube Data API calls by operation.
	UpstreamCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "youtube_api_calls_total",
		Help: "Number of YouTube Data API calls issued, by operation.",
	}, []string{"operation"})

	// UpstreamErrors counts failed YouTube Data API calls by operation.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "youtube_api_errors_total",
		Help: "Number of YouTube Data API calls that returned an error, by operation.",
	}, []string{"operation"})

	// ReportsGenerated counts finished reports by filter.
	ReportsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reports_generated_total",
		Help: "Number of channel reports generated, by duration filter.",
	}, []string{"filter"})

	// CacheHits counts memoization cache hits by lookup kind.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "memo_cache_hits_total",
		Help: "Number of memoization cache hits, by lookup kind.",
	}, []string{"kind"})
)
