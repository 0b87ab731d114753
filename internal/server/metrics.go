package server

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kleypas/netplot/pkg/observe"
)

// Metrics implements the observe hook interfaces on a private Prometheus
// registry. New serves the registry on /metrics; events only start flowing
// once the hooks are installed process-wide:
//
//	m := server.NewMetrics()
//	m.Install()
//	srv := server.New(server.Config{Metrics: m})
type Metrics struct {
	// Pipeline
	LoadTotal         *prometheus.CounterVec
	LoadDuration      prometheus.Histogram
	SynthesisTotal    *prometheus.CounterVec
	SynthesisDuration prometheus.Histogram
	ExportTotal       *prometheus.CounterVec
	ExportDuration    prometheus.Histogram
	DiagramNodes      prometheus.Gauge
	DiagramEdges      prometheus.Gauge

	// Cache
	CacheOpsTotal *prometheus.CounterVec
	CacheSetBytes prometheus.Histogram

	// HTTP
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	registry *prometheus.Registry
}

var (
	_ observe.PipelineHooks = (*Metrics)(nil)
	_ observe.CacheHooks    = (*Metrics)(nil)
	_ observe.ServerHooks   = (*Metrics)(nil)
)

// NewMetrics creates a Metrics with all collectors registered on a fresh
// registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.initPipelineMetrics()
	m.initCacheMetrics()
	m.initHTTPMetrics()
	return m
}

// Install registers the metrics as the process-wide observe hooks.
func (m *Metrics) Install() {
	observe.SetPipelineHooks(m)
	observe.SetCacheHooks(m)
	observe.SetServerHooks(m)
}

// Registry returns the underlying Prometheus registry for scraping.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) initPipelineMetrics() {
	factory := promauto.With(m.registry)

	m.LoadTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netplot_load_total",
			Help: "Total number of declaration loads by status",
		},
		[]string{"status"},
	)
	m.LoadDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netplot_load_duration_seconds",
			Help:    "Declaration load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.SynthesisTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netplot_synthesis_total",
			Help: "Total number of diagram syntheses by status",
		},
		[]string{"status"},
	)
	m.SynthesisDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netplot_synthesis_duration_seconds",
			Help:    "Diagram synthesis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.ExportTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netplot_export_total",
			Help: "Total number of artifact exports by status",
		},
		[]string{"status"},
	)
	m.ExportDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netplot_export_duration_seconds",
			Help:    "Artifact export duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
	m.DiagramNodes = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netplot_diagram_nodes",
			Help: "Node count of the most recent successful synthesis",
		},
	)
	m.DiagramEdges = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netplot_diagram_edges",
			Help: "Edge count of the most recent successful synthesis",
		},
	)
}

func (m *Metrics) initCacheMetrics() {
	factory := promauto.With(m.registry)

	m.CacheOpsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netplot_cache_operations_total",
			Help: "Total number of cache operations by key type and operation",
		},
		[]string{"type", "op"},
	)
	m.CacheSetBytes = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "netplot_cache_set_bytes",
			Help:    "Size of cached entries in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		},
	)
}

func (m *Metrics) initHTTPMetrics() {
	factory := promauto.With(m.registry)

	m.RequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netplot_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)
	m.RequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netplot_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	m.RequestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Name: "netplot_http_requests_in_flight",
			Help: "Number of HTTP requests currently being served",
		},
	)
}

// =============================================================================
// observe.PipelineHooks
// =============================================================================

func (m *Metrics) OnLoadStart(context.Context, string) {}

func (m *Metrics) OnLoadComplete(_ context.Context, _ string, _ int, duration time.Duration, err error) {
	m.LoadTotal.WithLabelValues(statusLabel(err)).Inc()
	m.LoadDuration.Observe(duration.Seconds())
}

func (m *Metrics) OnSynthesisStart(context.Context, int) {}

func (m *Metrics) OnSynthesisComplete(_ context.Context, nodeCount, edgeCount int, duration time.Duration, err error) {
	m.SynthesisTotal.WithLabelValues(statusLabel(err)).Inc()
	m.SynthesisDuration.Observe(duration.Seconds())
	if err == nil {
		m.DiagramNodes.Set(float64(nodeCount))
		m.DiagramEdges.Set(float64(edgeCount))
	}
}

func (m *Metrics) OnExportStart(context.Context, []string) {}

func (m *Metrics) OnExportComplete(_ context.Context, _ []string, duration time.Duration, err error) {
	m.ExportTotal.WithLabelValues(statusLabel(err)).Inc()
	m.ExportDuration.Observe(duration.Seconds())
}

// =============================================================================
// observe.CacheHooks
// =============================================================================

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOpsTotal.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOpsTotal.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.CacheOpsTotal.WithLabelValues(keyType, "set").Inc()
	m.CacheSetBytes.Observe(float64(size))
}

// =============================================================================
// observe.ServerHooks
// =============================================================================

func (m *Metrics) OnRequest(context.Context, string, string) {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) OnResponse(_ context.Context, method, route string, statusCode int, duration time.Duration) {
	m.RequestsInFlight.Dec()
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
