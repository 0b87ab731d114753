package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/kleypas/netplot/pkg/cache"
	"github.com/kleypas/netplot/pkg/observe"
	"github.com/kleypas/netplot/pkg/pipeline"
	"github.com/kleypas/netplot/pkg/store"
)

const testDecl = `
public:
  autonomous_systems:
    - name: transit
      region: international
      devices:
        - name: edge-a
        - name: edge-b
private:
  lan:
    gateway:
      name: rt-lan
      addr: 10.0.0.1
      interfaces:
        - name: wan0
          type: domestic
          addr: 203.0.113.5
    devices:
      - name: nas
        addr: 10.0.0.20
`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return New(Config{
		Runner: pipeline.NewRunner(c, nil, logger),
		Store:  store.NewMemoryStore(),
		Logger: logger,
	})
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response body: %v", err)
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var health HealthResponse
	decodeBody(t, rec, &health)
	if health.Status != "ok" {
		t.Errorf("status = %q, want %q", health.Status, "ok")
	}
	if health.Version == "" {
		t.Error("version should not be empty")
	}
}

func TestSynthesize(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", map[string]any{
		"declaration": testDecl,
		"formats":     []string{"json", "dot"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}

	var res SynthesizeResponse
	decodeBody(t, rec, &res)
	if len(res.DeclHash) != 64 {
		t.Errorf("decl hash length = %d, want 64", len(res.DeclHash))
	}
	if len(res.Diagram.Nodes) == 0 {
		t.Error("diagram has no nodes")
	}
	if len(res.Artifacts) != 2 {
		t.Errorf("artifact count = %d, want 2", len(res.Artifacts))
	}
	if !bytes.HasPrefix(res.Artifacts["dot"], []byte("digraph")) {
		t.Error("dot artifact should start with digraph")
	}
}

func TestSynthesizeCacheReported(t *testing.T) {
	srv := newTestServer(t)
	body := map[string]any{
		"declaration": testDecl,
		"formats":     []string{"json"},
	}

	var first SynthesizeResponse
	decodeBody(t, doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", body), &first)
	if first.Cache.SynthHit {
		t.Error("first request should not hit the synthesis cache")
	}

	var second SynthesizeResponse
	decodeBody(t, doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", body), &second)
	if !second.Cache.SynthHit {
		t.Error("second request should hit the synthesis cache")
	}
	if second.DeclHash != first.DeclHash {
		t.Errorf("decl hash changed between runs: %q vs %q", first.DeclHash, second.DeclHash)
	}
}

func TestSynthesizeRequiresDeclaration(t *testing.T) {
	srv := newTestServer(t)

	// Server-side paths are not accepted in place of an inline declaration.
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", map[string]any{
		"source": "homelab.yaml",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "INVALID_INPUT" {
		t.Errorf("error code = %q, want INVALID_INPUT", resp.Code)
	}
}

func TestSynthesizeMalformedBody(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/synthesize", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSynthesizeInvalidFormat(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", map[string]any{
		"declaration": testDecl,
		"formats":     []string{"bmp"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSynthesizeInvalidDeclaration(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", map[string]any{
		"declaration": "private:\n  bad:\n    subnet: 10.0.0.0/24\n",
		"formats":     []string{"json"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusBadRequest, rec.Body.String())
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "INVALID_DECLARATION" {
		t.Errorf("error code = %q, want INVALID_DECLARATION", resp.Code)
	}
}

func TestSnapshotLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// Create.
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/snapshots", map[string]any{
		"name":        "homelab",
		"declaration": testDecl,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want %d (body: %s)", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created SnapshotSummary
	decodeBody(t, rec, &created)
	if created.ID == "" {
		t.Fatal("created snapshot has no ID")
	}
	if created.Nodes == 0 {
		t.Error("created snapshot has no nodes")
	}

	// List.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/snapshots", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d, want %d", rec.Code, http.StatusOK)
	}
	var list []SnapshotSummary
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].Name != "homelab" {
		t.Errorf("list = %+v, want one snapshot named homelab", list)
	}

	// Get.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want %d", rec.Code, http.StatusOK)
	}
	var snap store.Snapshot
	decodeBody(t, rec, &snap)
	if snap.Name != "homelab" || len(snap.Diagram.Nodes) == 0 {
		t.Errorf("snapshot = %q with %d nodes, want homelab with nodes", snap.Name, len(snap.Diagram.Nodes))
	}

	// Render.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/"+created.ID+"/render?format=dot", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("render status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("content type = %q, want text/vnd.graphviz", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "digraph") {
		t.Error("rendered dot should start with digraph")
	}

	// Delete.
	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/snapshots/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want %d", rec.Code, http.StatusNoContent)
	}

	// Gone, and cached renders purged with it.
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/"+created.ID+"/render?format=dot", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("render after delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	rec = doRequest(t, srv, http.MethodDelete, "/api/v1/snapshots/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRenderSnapshotCached(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/snapshots", map[string]any{
		"name":        "cached",
		"declaration": testDecl,
	})
	var created SnapshotSummary
	decodeBody(t, rec, &created)

	first := doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/"+created.ID+"/render?format=dot", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("render status = %d, want %d", first.Code, http.StatusOK)
	}

	// Remove the snapshot behind the API's back: the cached render must
	// still be served without consulting the store.
	if err := srv.store.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("store delete: %v", err)
	}
	second := doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/"+created.ID+"/render?format=dot", nil)
	if second.Code != http.StatusOK {
		t.Fatalf("cached render status = %d, want %d", second.Code, http.StatusOK)
	}
	if second.Body.String() != first.Body.String() {
		t.Error("cached render differs from original")
	}
}

func TestCreateSnapshotRequiresName(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/snapshots", map[string]any{
		"declaration": testDecl,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestGetSnapshotNotFound(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	var resp errorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != "SNAPSHOT_NOT_FOUND" {
		t.Errorf("error code = %q, want SNAPSHOT_NOT_FOUND", resp.Code)
	}
}

func TestRenderSnapshotInvalidFormat(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/snapshots/whatever/render?format=bmp", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	m := NewMetrics()
	m.Install()
	defer observe.Reset()

	srv := New(Config{
		Runner:  pipeline.NewRunner(nil, nil, logger),
		Logger:  logger,
		Metrics: m,
	})

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/synthesize", map[string]any{
		"declaration": testDecl,
		"formats":     []string{"json"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("synthesize status = %d, want %d", rec.Code, http.StatusOK)
	}

	rec = doRequest(t, srv, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d, want %d", rec.Code, http.StatusOK)
	}
	body := rec.Body.String()
	for _, want := range []string{"netplot_synthesis_total", "netplot_http_requests_total"} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v2/synthesize", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
