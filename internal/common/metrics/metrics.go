// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	AdvisorRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_requests_total",
			Help: "Advice requests by outcome (advised, no_viable, invalid, failed)",
		},
		[]string{"outcome"},
	)

	AdvisorFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "advisor_fallbacks_total",
			Help: "Times a component used its degraded path",
		},
		[]string{"component", "reason"},
	)

	AdvisorStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "advisor_stage_duration_seconds",
			Help:    "Duration of each advice pipeline stage in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	WeatherCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weather_cache_lookups_total",
			Help: "Weather cache lookups by result (hit, miss)",
		},
		[]string{"result"},
	)
)
