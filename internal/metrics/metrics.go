// Package metrics records sensor decisions and execution times for one
// analysis run in a dedicated Prometheus registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder owns the registry of a single analysis run.
type Recorder struct {
	reg       *prometheus.Registry
	decisions *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		decisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sensorgate_sensor_decisions_total",
				Help: "Sensor applicability decisions by outcome and skip reason",
			},
			[]string{"sensor", "outcome", "reason"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sensorgate_sensor_duration_seconds",
				Help:    "Sensor execution time",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"sensor"},
		),
	}
}

// Decision counts one applicability decision. An empty reason is recorded as "none".
func (r *Recorder) Decision(sensor string, executed bool, reason string) {
	outcome := "skipped"
	if executed {
		outcome = "executed"
	}
	if reason == "" {
		reason = "none"
	}
	r.decisions.WithLabelValues(sensor, outcome, reason).Inc()
}

// Observe records how long a sensor ran.
func (r *Recorder) Observe(sensor string, d time.Duration) {
	r.duration.WithLabelValues(sensor).Observe(d.Seconds())
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// WriteFile writes the metrics in text exposition format, suitable for the
// node_exporter textfile collector.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
