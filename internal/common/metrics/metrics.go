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
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
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

	MatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_runs_total",
			Help: "Match runs by service type and outcome",
		},
		[]string{"service_type", "outcome"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "matching_run_duration_seconds",
			Help:    "Wall time of a match run",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"service_type"},
	)

	MatchPoolSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matching_eligible_pool_size",
			Help:    "Contractors that passed the hard filters per run",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	MatchRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matching_filter_rejections_total",
			Help: "Contractors rejected by the candidate filter, by gate",
		},
		[]string{"gate"},
	)

	Assignments = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assignment_operations_total",
			Help: "Assign and revoke operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	AuditEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full or the backend failed",
		},
	)
)
