package server

import (
	"context"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"

	"github.com/kleypas/netplot/pkg/observe"
)

func metricValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.Counter.GetValue()
	}
	return m.Gauge.GetValue()
}

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m.registry == nil {
		t.Fatal("registry not initialized")
	}
	if m.SynthesisTotal == nil || m.SynthesisDuration == nil {
		t.Error("synthesis metrics not initialized")
	}
	if m.CacheOpsTotal == nil || m.CacheSetBytes == nil {
		t.Error("cache metrics not initialized")
	}
	if m.RequestsTotal == nil || m.RequestDuration == nil || m.RequestsInFlight == nil {
		t.Error("http metrics not initialized")
	}
}

func TestMetricsSynthesisEvents(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()

	m.OnSynthesisComplete(ctx, 12, 8, 40*time.Millisecond, nil)
	m.OnSynthesisComplete(ctx, 0, 0, 5*time.Millisecond, context.Canceled)

	success, err := m.SynthesisTotal.GetMetricWithLabelValues("success")
	if err != nil {
		t.Fatalf("get success counter: %v", err)
	}
	if got := metricValue(t, success); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}

	failure, err := m.SynthesisTotal.GetMetricWithLabelValues("error")
	if err != nil {
		t.Fatalf("get error counter: %v", err)
	}
	if got := metricValue(t, failure); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}

	// Gauges keep the last successful run, not the failed one.
	if got := metricValue(t, m.DiagramNodes); got != 12 {
		t.Errorf("diagram nodes = %v, want 12", got)
	}
	if got := metricValue(t, m.DiagramEdges); got != 8 {
		t.Errorf("diagram edges = %v, want 8", got)
	}
}

func TestMetricsCacheEvents(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()

	m.OnCacheHit(ctx, "diagram")
	m.OnCacheHit(ctx, "diagram")
	m.OnCacheMiss(ctx, "artifact")
	m.OnCacheSet(ctx, "artifact", 2048)

	hits, err := m.CacheOpsTotal.GetMetricWithLabelValues("diagram", "hit")
	if err != nil {
		t.Fatalf("get hit counter: %v", err)
	}
	if got := metricValue(t, hits); got != 2 {
		t.Errorf("diagram hits = %v, want 2", got)
	}

	sets, err := m.CacheOpsTotal.GetMetricWithLabelValues("artifact", "set")
	if err != nil {
		t.Fatalf("get set counter: %v", err)
	}
	if got := metricValue(t, sets); got != 1 {
		t.Errorf("artifact sets = %v, want 1", got)
	}
}

func TestMetricsHTTPEvents(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()

	m.OnRequest(ctx, "POST", "/api/v1/synthesize")
	if got := metricValue(t, m.RequestsInFlight); got != 1 {
		t.Errorf("in flight = %v, want 1", got)
	}

	m.OnResponse(ctx, "POST", "/api/v1/synthesize", 200, 30*time.Millisecond)
	if got := metricValue(t, m.RequestsInFlight); got != 0 {
		t.Errorf("in flight after response = %v, want 0", got)
	}

	total, err := m.RequestsTotal.GetMetricWithLabelValues("POST", "/api/v1/synthesize", "200")
	if err != nil {
		t.Fatalf("get request counter: %v", err)
	}
	if got := metricValue(t, total); got != 1 {
		t.Errorf("request count = %v, want 1", got)
	}
}

func TestMetricsInstall(t *testing.T) {
	m := NewMetrics()
	m.Install()
	defer observe.Reset()

	if observe.Pipeline() != observe.PipelineHooks(m) {
		t.Error("pipeline hooks not installed")
	}
	if observe.Cache() != observe.CacheHooks(m) {
		t.Error("cache hooks not installed")
	}
	if observe.Server() != observe.ServerHooks(m) {
		t.Error("server hooks not installed")
	}
}
