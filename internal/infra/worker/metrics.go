package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"feedreader/internal/pkg/config"
)

// WorkerMetrics holds the Prometheus metrics of the scheduler.
//
// Metrics:
//   - worker_config_*: configuration load state (see config.ConfigMetrics)
//   - worker_job_runs_total{job,status}: job runs by job and outcome
//   - worker_job_duration_seconds{job}: job duration
//   - worker_job_last_success_timestamp{job}: last successful run
//   - worker_scheduler_running: 1 while the scheduler is started
type WorkerMetrics struct {
	*config.ConfigMetrics

	JobRunsTotal            *prometheus.CounterVec
	JobDurationSeconds      *prometheus.HistogramVec
	JobLastSuccessTimestamp *prometheus.GaugeVec
	SchedulerRunning        prometheus.Gauge
}

// NewWorkerMetrics registers the worker metrics with reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics(reg, "worker"),

		JobRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_job_runs_total",
			Help: "Total number of scheduler job runs by job and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_job_duration_seconds",
			Help:    "Duration of scheduler job runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900},
		}, []string{"job"}),

		JobLastSuccessTimestamp: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run of each job",
		}, []string{"job"}),

		SchedulerRunning: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_scheduler_running",
			Help: "1 while the scheduler is started, 0 otherwise",
		}),
	}
}

// RecordJobRun counts one run of job with status (success, failure, canceled).
func (m *WorkerMetrics) RecordJobRun(job, status string) {
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
}

// RecordJobDuration observes the duration of one run of job.
func (m *WorkerMetrics) RecordJobDuration(job string, seconds float64) {
	m.JobDurationSeconds.WithLabelValues(job).Observe(seconds)
}

// RecordLastSuccess stamps the last successful run of job.
func (m *WorkerMetrics) RecordLastSuccess(job string) {
	m.JobLastSuccessTimestamp.WithLabelValues(job).SetToCurrentTime()
}

// SetRunning updates the scheduler state gauge.
func (m *WorkerMetrics) SetRunning(running bool) {
	if running {
		m.SchedulerRunning.Set(1)
		return
	}
	m.SchedulerRunning.Set(0)
}
