// Package metrics exposes Prometheus collectors for mesh builds and the
// streaming server.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Faultbox/geoidmesh/internal/geodesy"
	"github.com/Faultbox/geoidmesh/internal/mesh"
	"github.com/Faultbox/geoidmesh/pkg/math"
)

const namespace = "geoidmesh"

// Build result labels.
const (
	ResultOK          = "ok"
	ResultGeometry    = "geometry_inconsistency"
	ResultRowMismatch = "row_mismatch"
	ResultDegenerate  = "degenerate_vector"
	ResultOther       = "error"
)

// Collector records build and server metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	buildDuration prometheus.Histogram
	buildsTotal   *prometheus.CounterVec
	vertices      prometheus.Gauge
	triangles     prometheus.Gauge
	phaseShift    prometheus.Gauge

	connections   prometheus.Gauge
	messagesTotal *prometheus.CounterVec
	bytesSent     prometheus.Counter
	rateLimited   prometheus.Counter
	superseded    prometheus.Counter
}

// New creates a Collector with Go runtime and process collectors attached.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		buildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Time spent building one mesh",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		buildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "builds_total",
			Help:      "Mesh builds by result",
		}, []string{"result"}),
		vertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_vertices",
			Help:      "Vertex count of the last successful build",
		}),
		triangles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_triangles",
			Help:      "Triangle count of the last successful build",
		}),
		phaseShift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mesh_phase_shift_radians",
			Help:      "Phase shift of the last successful build",
		}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ws_connections",
			Help:      "Open websocket connections",
		}),
		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "Websocket messages by direction and type",
		}, []string{"direction", "type"}),
		bytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_sent_bytes_total",
			Help:      "Bytes written to websocket clients",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_rate_limited_total",
			Help:      "Requests rejected by the per-connection rate limit",
		}),
		superseded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rebuilds_superseded_total",
			Help:      "Pending rebuild requests replaced by a newer one",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.buildDuration,
		c.buildsTotal,
		c.vertices,
		c.triangles,
		c.phaseShift,
		c.connections,
		c.messagesTotal,
		c.bytesSent,
		c.rateLimited,
		c.superseded,
	)
	return c
}

// Registry returns the registry holding every collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveBuild implements mesh.Observer.
func (c *Collector) ObserveBuild(stats mesh.BuildStats, err error) {
	c.buildDuration.Observe(stats.Duration.Seconds())
	c.buildsTotal.WithLabelValues(Result(err)).Inc()
	if err != nil {
		return
	}
	c.vertices.Set(float64(stats.Vertices))
	c.triangles.Set(float64(stats.Triangles))
	c.phaseShift.Set(stats.PhaseShift)
}

// Result classifies a build error into a label value.
func Result(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, geodesy.ErrGeometryInconsistency):
		return ResultGeometry
	case errors.Is(err, mesh.ErrRowMismatch):
		return ResultRowMismatch
	case errors.Is(err, math.ErrDegenerateVector):
		return ResultDegenerate
	default:
		return ResultOther
	}
}

// ConnectionOpened counts a new websocket client.
func (c *Collector) ConnectionOpened() {
	c.connections.Inc()
}

// ConnectionClosed counts a websocket client leaving.
func (c *Collector) ConnectionClosed() {
	c.connections.Dec()
}

// MessageReceived counts one inbound message of the given type.
func (c *Collector) MessageReceived(msgType string) {
	c.messagesTotal.WithLabelValues("in", msgType).Inc()
}

// MessageSent counts one outbound message and its size.
func (c *Collector) MessageSent(msgType string, bytes int) {
	c.messagesTotal.WithLabelValues("out", msgType).Inc()
	if bytes > 0 {
		c.bytesSent.Add(float64(bytes))
	}
}

// RateLimited counts a rejected request.
func (c *Collector) RateLimited() {
	c.rateLimited.Inc()
}

// RebuildSuperseded counts a pending rebuild dropped for a newer one.
func (c *Collector) RebuildSuperseded() {
	c.superseded.Inc()
}
