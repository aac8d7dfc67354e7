package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PromMetricsRecorder fulfills MetricsRecorder with Prometheus collectors:
// a duration histogram and an outcome counter, both labeled by operation.
type PromMetricsRecorder struct {
	durations *prometheus.HistogramVec
	results   *prometheus.CounterVec
}

// NewPromMetricsRecorder registers the migration collectors with reg (the
// default registerer when nil) and returns the recorder.
func NewPromMetricsRecorder(reg prometheus.Registerer) (*PromMetricsRecorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &PromMetricsRecorder{
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ixforge",
			Name:      "migration_duration_seconds",
			Help:      "Duration of structural migration runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ixforge",
			Name:      "migration_runs_total",
			Help:      "Structural migration runs by operation and status.",
		}, []string{"operation", "status"}),
	}
	for _, c := range []prometheus.Collector{r.durations, r.results} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records a migration outcome.
func (r *PromMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
	r.results.WithLabelValues(operation, status).Inc()
}
