package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the engine's Prometheus instruments
type Recorder struct {
	jobsSubmitted      prometheus.Counter
	jobsCompleted      prometheus.Counter
	jobsFailed         prometheus.Counter
	extractionFailures *prometheus.CounterVec
	jobsInFlight       prometheus.Gauge
	jobDuration        prometheus.Histogram
}

// NewRecorder registers the engine metrics with the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// registry to avoid duplicate registration.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		jobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "notreally_jobs_submitted_total",
			Help: "Total analysis jobs accepted",
		}),
		jobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "notreally_jobs_completed_total",
			Help: "Total analysis jobs that reached completed",
		}),
		jobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "notreally_jobs_failed_total",
			Help: "Total analysis jobs that reached failed",
		}),
		extractionFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notreally_extraction_failures_total",
			Help: "Isolated per-modality extraction failures",
		}, []string{"modality"}),
		jobsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notreally_jobs_in_flight",
			Help: "Pipelines currently running",
		}),
		jobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "notreally_job_duration_seconds",
			Help:    "Wall time from submission to terminal status",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
		}),
	}
}

// JobSubmitted records an accepted submission
func (r *Recorder) JobSubmitted() {
	r.jobsSubmitted.Inc()
}

// PipelineStarted marks a pipeline as in flight
func (r *Recorder) PipelineStarted() {
	r.jobsInFlight.Inc()
}

// JobCompleted records a completed job and its duration
func (r *Recorder) JobCompleted(duration time.Duration) {
	r.jobsCompleted.Inc()
	r.jobsInFlight.Dec()
	r.jobDuration.Observe(duration.Seconds())
}

// JobFailed records a failed job and its duration
func (r *Recorder) JobFailed(duration time.Duration) {
	r.jobsFailed.Inc()
	r.jobsInFlight.Dec()
	r.jobDuration.Observe(duration.Seconds())
}

// ExtractionFailed records an isolated single-modality failure
func (r *Recorder) ExtractionFailed(modality string) {
	r.extractionFailures.WithLabelValues(modality).Inc()
}
