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

	DocumentFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_fetch_failures_total",
			Help: "Document category fetches that failed and were treated as empty",
		},
		[]string{"category"},
	)

	DocumentCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "document_cache_lookups_total",
			Help: "Document status cache lookups by result",
		},
		[]string{"result"},
	)

	ReadinessMissingRequired = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "readiness_missing_required",
			Help:    "Number of missing required items per readiness computation",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 13},
		},
	)

	SubmissionSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_steps_total",
			Help: "Submission steps by outcome",
		},
		[]string{"step", "outcome"},
	)
)

// JobStarted marks a job active and returns a func that records its
// duration and outcome. An empty errorCode counts as success.
func JobStarted(taskType string) func(errorCode string) {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	timer := prometheus.NewTimer(WorkerJobDuration.WithLabelValues(taskType))
	return func(errorCode string) {
		timer.ObserveDuration()
		WorkerJobsActive.WithLabelValues(taskType).Dec()
		if errorCode == "" {
			WorkerJobsCompleted.WithLabelValues(taskType).Inc()
			return
		}
		WorkerJobsFailed.WithLabelValues(taskType, errorCode).Inc()
	}
}
