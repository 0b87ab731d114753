package pipeline

import (
	"context"
	"io"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kleypas/netplot/pkg/cache"
	neterrors "github.com/kleypas/netplot/pkg/errors"
	"github.com/kleypas/netplot/pkg/observe"
	"github.com/kleypas/netplot/pkg/synth"
)

func newTestRunner(t *testing.T) *Runner {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

func testOptions() Options {
	return Options{
		Declaration: testYAML,
		Formats:     []string{FormatJSON, FormatDOT},
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Logger == nil {
		t.Fatal("NewRunner should fill nil fields")
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestRunnerExecute(t *testing.T) {
	r := newTestRunner(t)
	defer r.Close()

	result, err := r.Execute(context.Background(), testOptions())
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.NetworkCount != 1 {
		t.Errorf("networks = %d, want 1", result.Stats.NetworkCount)
	}
	if result.Stats.NodeCount == 0 || result.Stats.EdgeCount == 0 {
		t.Errorf("stats = %+v, want nodes and edges", result.Stats)
	}
	if len(result.DeclHash) != 64 {
		t.Errorf("DeclHash length = %d, want 64", len(result.DeclHash))
	}
	if len(result.Artifacts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(result.Artifacts))
	}
	if result.CacheInfo.SynthHit || result.CacheInfo.ExportHit {
		t.Errorf("first run should not hit cache: %+v", result.CacheInfo)
	}
}

func TestRunnerExecuteCacheHit(t *testing.T) {
	r := newTestRunner(t)
	defer r.Close()
	ctx := context.Background()

	first, err := r.Execute(ctx, testOptions())
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := r.Execute(ctx, testOptions())
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if !second.CacheInfo.SynthHit {
		t.Error("second run should hit the diagram cache")
	}
	if !second.CacheInfo.ExportHit {
		t.Error("second run should hit the artifact cache")
	}

	// Cached results report the same outputs as the original run
	if second.DeclHash != first.DeclHash {
		t.Error("DeclHash should be stable across runs")
	}
	if len(second.Diagram.Nodes) != len(first.Diagram.Nodes) ||
		len(second.Diagram.Edges) != len(first.Diagram.Edges) {
		t.Error("cached diagram shape differs from original")
	}
	if !reflect.DeepEqual(second.Synthesis, first.Synthesis) {
		t.Errorf("cached stats = %+v, want %+v", second.Synthesis, first.Synthesis)
	}
	if !reflect.DeepEqual(second.Artifacts, first.Artifacts) {
		t.Error("cached artifacts differ from original")
	}
}

func TestRunnerExecuteRefreshSkipsCache(t *testing.T) {
	r := newTestRunner(t)
	defer r.Close()
	ctx := context.Background()

	if _, err := r.Execute(ctx, testOptions()); err != nil {
		t.Fatal(err)
	}

	opts := testOptions()
	opts.Refresh = true
	result, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheInfo.SynthHit || result.CacheInfo.ExportHit {
		t.Errorf("refresh run should bypass cache: %+v", result.CacheInfo)
	}
}

func TestRunnerSynthesisKeyIncludesOptions(t *testing.T) {
	r := newTestRunner(t)
	defer r.Close()
	ctx := context.Background()

	decl, err := Load(testOptions())
	if err != nil {
		t.Fatal(err)
	}

	if _, hit, err := r.SynthesizeWithCacheInfo(ctx, decl, testOptions()); err != nil || hit {
		t.Fatalf("first synthesis: hit = %v, err = %v", hit, err)
	}
	if _, hit, err := r.SynthesizeWithCacheInfo(ctx, decl, testOptions()); err != nil || !hit {
		t.Fatalf("repeat synthesis: hit = %v, err = %v, want hit", hit, err)
	}

	// Different overrides change the key
	opts := testOptions()
	opts.Overrides = []synth.Override{{Match: "lan", WidthScale: 2}}
	if _, hit, err := r.SynthesizeWithCacheInfo(ctx, decl, opts); err != nil || hit {
		t.Fatalf("overridden synthesis: hit = %v, err = %v, want miss", hit, err)
	}
}

func TestRunnerExportKeyIncludesDetail(t *testing.T) {
	r := newTestRunner(t)
	defer r.Close()
	ctx := context.Background()

	decl, err := Load(testOptions())
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Synthesize(ctx, decl, testOptions())
	if err != nil {
		t.Fatal(err)
	}

	opts := Options{Declaration: testYAML, Formats: []string{FormatDOT}}
	if _, hit, err := r.ExportWithCacheInfo(ctx, &res.Diagram, opts); err != nil || hit {
		t.Fatalf("first export: hit = %v, err = %v", hit, err)
	}
	if _, hit, err := r.ExportWithCacheInfo(ctx, &res.Diagram, opts); err != nil || !hit {
		t.Fatalf("repeat export: hit = %v, err = %v, want hit", hit, err)
	}

	detailed := opts
	detailed.Detailed = true
	if _, hit, err := r.ExportWithCacheInfo(ctx, &res.Diagram, detailed); err != nil || hit {
		t.Fatalf("detailed export: hit = %v, err = %v, want miss", hit, err)
	}
}

func TestRunnerExecuteInvalidOptions(t *testing.T) {
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	defer r.Close()

	_, err := r.Execute(context.Background(), Options{})
	if err == nil {
		t.Fatal("Execute without source should fail")
	}
	if !strings.Contains(err.Error(), "invalid options") {
		t.Errorf("error = %v, want invalid options", err)
	}
}

func TestRunnerExecuteInvalidDeclaration(t *testing.T) {
	r := NewRunner(nil, nil, log.NewWithOptions(io.Discard, log.Options{}))
	defer r.Close()

	opts := Options{
		Declaration: "private:\n  bad:\n    subnet: 10.0.0.0/24\n",
		Formats:     []string{FormatJSON},
	}
	_, err := r.Execute(context.Background(), opts)
	if err == nil {
		t.Fatal("Declaration without gateway should fail")
	}
	if !neterrors.Is(err, neterrors.ErrCodeInvalidDeclaration) {
		t.Errorf("error code = %v, want INVALID_DECLARATION", neterrors.GetCode(err))
	}
}

// countingHooks records pipeline events for hook wiring tests.
type countingHooks struct {
	loadStart, loadComplete   int
	synthComplete             int
	exportComplete            int
	cacheHits, cacheMisses    int
	cacheSets                 int
	observedSynthesisNetworks int
}

func (h *countingHooks) OnLoadStart(context.Context, string) { h.loadStart++ }
func (h *countingHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {
	h.loadComplete++
}
func (h *countingHooks) OnSynthesisStart(_ context.Context, networks int) {
	h.observedSynthesisNetworks = networks
}
func (h *countingHooks) OnSynthesisComplete(context.Context, int, int, time.Duration, error) {
	h.synthComplete++
}
func (h *countingHooks) OnExportStart(context.Context, []string) {}
func (h *countingHooks) OnExportComplete(context.Context, []string, time.Duration, error) {
	h.exportComplete++
}
func (h *countingHooks) OnCacheHit(context.Context, string)      { h.cacheHits++ }
func (h *countingHooks) OnCacheMiss(context.Context, string)     { h.cacheMisses++ }
func (h *countingHooks) OnCacheSet(context.Context, string, int) { h.cacheSets++ }

func TestRunnerExecuteFiresHooks(t *testing.T) {
	hooks := &countingHooks{}
	observe.SetPipelineHooks(hooks)
	observe.SetCacheHooks(hooks)
	defer observe.Reset()

	r := newTestRunner(t)
	defer r.Close()
	ctx := context.Background()

	if _, err := r.Execute(ctx, testOptions()); err != nil {
		t.Fatal(err)
	}

	if hooks.loadStart != 1 || hooks.loadComplete != 1 {
		t.Errorf("load hooks = %d/%d, want 1/1", hooks.loadStart, hooks.loadComplete)
	}
	if hooks.synthComplete != 1 || hooks.exportComplete != 1 {
		t.Errorf("stage hooks = %d/%d, want 1/1", hooks.synthComplete, hooks.exportComplete)
	}
	if hooks.observedSynthesisNetworks != 1 {
		t.Errorf("synthesis networks = %d, want 1", hooks.observedSynthesisNetworks)
	}
	if hooks.cacheMisses == 0 || hooks.cacheSets == 0 {
		t.Errorf("cache hooks = %d misses / %d sets, want both > 0", hooks.cacheMisses, hooks.cacheSets)
	}

	// Second run reports hits
	if _, err := r.Execute(ctx, testOptions()); err != nil {
		t.Fatal(err)
	}
	if hooks.cacheHits == 0 {
		t.Errorf("cache hits = %d, want > 0 on repeat run", hooks.cacheHits)
	}
}
