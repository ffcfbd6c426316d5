package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts served HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration observes HTTP request latency
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urbanpulse_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// CacheOperations counts cache lookups by outcome (hit, miss, evict, shared)
	CacheOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_cache_operations_total",
			Help: "Cache lookups and evictions by cache name and outcome",
		},
		[]string{"cache", "outcome"},
	)

	// CacheEntries reports the number of stored entries per cache
	CacheEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "urbanpulse_cache_entries",
			Help: "Entries currently held per cache, fresh or stale",
		},
		[]string{"cache"},
	)

	// UpstreamRequests counts provider calls by outcome (ok, error, breaker_open)
	UpstreamRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_upstream_requests_total",
			Help: "Outbound provider requests by provider and outcome",
		},
		[]string{"provider", "outcome"},
	)

	// UpstreamDuration observes provider latency
	UpstreamDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "urbanpulse_upstream_request_duration_seconds",
			Help:    "Outbound provider request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// InsightFallbacks counts insight requests answered by the rule table
	InsightFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "urbanpulse_insight_fallbacks_total",
			Help: "Insight requests served by the rule-based fallback, by reason",
		},
		[]string{"reason"},
	)
)
