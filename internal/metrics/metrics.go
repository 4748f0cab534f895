// Package metrics содержит Prometheus-метрики сервиса рекомендаций.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RankRequests считает вызовы ранжирования по результату: ok, upstream_error.
	RankRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyspots_rank_requests_total",
			Help: "Total number of ranking calls by result",
		},
		[]string{"result"},
	)

	RankDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studyspots_rank_duration_seconds",
			Help:    "Duration of ranking calls including store fetches",
			Buckets: prometheus.DefBuckets,
		},
	)

	RankedCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "studyspots_ranked_candidates",
			Help:    "Number of candidate spots scored per ranking call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	ScoringWarnings = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyspots_scoring_warnings_total",
			Help: "Data quality warnings attached to scored spots",
		},
		[]string{"warning"},
	)

	// StatusSubmissions считает попытки добавить наблюдение: result = created, invalid, upstream_error.
	StatusSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyspots_status_submissions_total",
			Help: "Status observation submissions by source and result",
		},
		[]string{"source", "result"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyspots_store_errors_total",
			Help: "Failed store operations",
		},
		[]string{"operation"},
	)

	// BreakerState: 0 = closed, 1 = half-open, 2 = open.
	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "studyspots_breaker_state",
			Help: "Circuit breaker state in front of the store",
		},
		[]string{"name"},
	)

	BreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyspots_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyspots_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status code",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyspots_rate_limited_total",
			Help: "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)
)
