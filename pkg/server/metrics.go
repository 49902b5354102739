package server

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chazu/helix/pkg/scene"
	"github.com/chazu/helix/pkg/viewport"
)

// Metric names.
const (
	MetricRebuildDuration = "helix_rebuild_duration_seconds"
	MetricSceneTriangles  = "helix_scene_triangles"
	MetricCaptures        = "helix_captures_total"
	MetricHTTPRequests    = "helix_http_requests_total"
)

// Metrics holds the server's collectors.
type Metrics struct {
	rebuildDuration prometheus.Histogram
	sceneTriangles  prometheus.Gauge
	captures        *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
}

// NewMetrics creates the collectors. They are not registered; call Register.
func NewMetrics() *Metrics {
	return &Metrics{
		rebuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRebuildDuration,
			Help:    "Time to rebuild and tessellate the tower in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
		sceneTriangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricSceneTriangles,
			Help: "Triangle count of the current scene",
		}),
		captures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCaptures,
			Help: "Frame captures by outcome",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricHTTPRequests,
			Help: "HTTP requests by method, route and status",
		}, []string{"method", "path", "status"}),
	}
}

// Register registers all metrics with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.rebuildDuration,
		m.sceneTriangles,
		m.captures,
		m.httpRequests,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveScene records a finished rebuild. It is a scene.Observer.
func (m *Metrics) ObserveScene(s *scene.Scene) {
	m.rebuildDuration.Observe(s.BuildTime.Seconds())
	m.sceneTriangles.Set(float64(s.TriangleCount()))
}

// ObserveCapture counts one capture attempt.
func (m *Metrics) ObserveCapture(err error) {
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, viewport.ErrCaptureUnavailable):
		result = "unavailable"
	case errors.Is(err, viewport.ErrCaptureInProgress):
		result = "in_progress"
	default:
		result = "error"
	}
	m.captures.WithLabelValues(result).Inc()
}
