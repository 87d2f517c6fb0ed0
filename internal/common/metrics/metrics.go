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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of job processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	ROIEstimatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roi_estimates_total",
			Help: "ROI estimates produced, by recommended approach",
		},
		[]string{"recommendation"},
	)

	ROICacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roi_cache_hits_total",
			Help: "ROI estimates served from the memoisation cache",
		},
	)

	ROIStaleRevisions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "roi_stale_revisions_total",
			Help: "Session estimates discarded because a newer revision was already published",
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roi_http_requests_total",
			Help: "HTTP requests to the estimate API by route and status",
		},
		[]string{"route", "status"},
	)
)
