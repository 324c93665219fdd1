package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// UploadMetrics records metadata for proof upload pipeline runs.
type UploadMetrics struct {
	duration        *prometheus.HistogramVec
	outcomes        *prometheus.CounterVec
	retries         *prometheus.CounterVec
	analysisFailure prometheus.Counter
}

// NewUploadMetrics registers the upload pipeline metrics on the provided registerer.
func NewUploadMetrics(reg prometheus.Registerer) *UploadMetrics {
	if reg == nil {
		return &UploadMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "proof_upload_duration_seconds",
		Help:    "Duration of proof file uploads in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proof_upload_outcomes",
		Help: "Proof upload outcomes by terminal state.",
	}, []string{"outcome"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "proof_upload_retries",
		Help: "Proof upload retry attempts past the first.",
	}, []string{"channel"})
	analysisFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proof_analysis_failures",
		Help: "Print file analyses that ended in an error.",
	})
	reg.MustRegister(duration, outcomes, retries, analysisFailure)
	return &UploadMetrics{
		duration:        duration,
		outcomes:        outcomes,
		retries:         retries,
		analysisFailure: analysisFailure,
	}
}

// ObserveDuration records how long a single file upload took.
func (u *UploadMetrics) ObserveDuration(channel string, duration time.Duration) {
	if u == nil || u.duration == nil {
		return
	}
	u.duration.WithLabelValues(normalizeLabel(channel)).Observe(duration.Seconds())
}

// IncOutcome increments the counter for a terminal upload state.
func (u *UploadMetrics) IncOutcome(outcome string) {
	if u == nil || u.outcomes == nil {
		return
	}
	u.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncRetry increments the retry counter for the channel.
func (u *UploadMetrics) IncRetry(channel string) {
	if u == nil || u.retries == nil {
		return
	}
	u.retries.WithLabelValues(normalizeLabel(channel)).Inc()
}

// IncAnalysisFailure increments the analysis failure counter.
func (u *UploadMetrics) IncAnalysisFailure() {
	if u == nil || u.analysisFailure == nil {
		return
	}
	u.analysisFailure.Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
