// Package metrics exposes the recompute pipeline's prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "facewarp"

// Outcome labels for the recompute counter.
const (
	OutcomePublished  = "published"  // frame became the current one
	OutcomeSuperseded = "superseded" // cancelled or beaten by a newer request
	OutcomeFailed     = "failed"     // render returned an error
)

// Metrics groups the collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Duration      prometheus.Histogram
	Recomputes    *prometheus.CounterVec
	ControlPoints prometheus.Gauge
	Generation    prometheus.Gauge
}

// New registers the collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Time spent warping and post-processing one frame.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		Recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Recomputes by outcome.",
		}, []string{"outcome"}),
		ControlPoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "control_points",
			Help:      "Control point pairs fed to the last warp, anchors included.",
		}),
		Generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "published_generation",
			Help:      "Input generation of the frame currently displayed.",
		}),
	}
	m.registry.MustRegister(m.Duration, m.Recomputes, m.ControlPoints, m.Generation)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Published records a frame that reached the display.
func (m *Metrics) Published(gen uint64, points int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Duration.Observe(elapsed.Seconds())
	m.Recomputes.WithLabelValues(OutcomePublished).Inc()
	m.ControlPoints.Set(float64(points))
	m.Generation.Set(float64(gen))
}

// Superseded records a recompute discarded for a newer generation.
func (m *Metrics) Superseded() {
	if m == nil {
		return
	}
	m.Recomputes.WithLabelValues(OutcomeSuperseded).Inc()
}

// Failed records a recompute that returned an error.
func (m *Metrics) Failed() {
	if m == nil {
		return
	}
	m.Recomputes.WithLabelValues(OutcomeFailed).Inc()
}
