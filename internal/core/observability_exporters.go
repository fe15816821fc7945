package core

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRecorder receives service operation outcomes.
type MetricsRecorder interface {
	// Observe records one operation with its outcome and duration.
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
	// ObserveImport records the wells read and plates built for a category.
	ObserveImport(ctx context.Context, category string, wells, plates int)
}

type noopMetrics struct{}

func (noopMetrics) Observe(context.Context, string, bool, time.Duration) {}
func (noopMetrics) ObserveImport(context.Context, string, int, int) {}

// PrometheusRecorder publishes service metrics to a Prometheus registerer.
type PrometheusRecorder struct {
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
	wells      *prometheus.CounterVec
	plates     *prometheus.CounterVec
}

// NewPrometheusRecorder registers the platemap collectors on reg. It panics
// if the collectors are already registered there.
func NewPrometheusRecorder(reg prometheus.Registerer) *PrometheusRecorder {
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platemap",
			Name:      "operations_total",
			Help:      "Service operations by name and result.",
		}, []string{"operation", "status"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "platemap",
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"operation"}),
		wells: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platemap",
			Name:      "wells_imported_total",
			Help:      "Wells read from input documents.",
		}, []string{"category"}),
		plates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "platemap",
			Name:      "plates_built_total",
			Help:      "Plates produced by chunking.",
		}, []string{"category"}),
	}
}

// Observe implements MetricsRecorder.
func (r *PrometheusRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.operations.WithLabelValues(operation, status).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveImport implements MetricsRecorder.
func (r *PrometheusRecorder) ObserveImport(_ context.Context, category string, wells, plates int) {
	r.wells.WithLabelValues(category).Add(float64(wells))
	r.plates.WithLabelValues(category).Add(float64(plates))
}
