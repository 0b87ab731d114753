package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kleypas/netplot/pkg/cache"
	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/observe"
	"github.com/kleypas/netplot/pkg/spec"
	"github.com/kleypas/netplot/pkg/synth"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// cachedSynthesis is the envelope stored under diagram keys. Stats ride
// along so a cache hit reports the same numbers as the original run.
type cachedSynthesis struct {
	Diagram diagram.Diagram `json:"diagram"`
	Stats   synth.Stats     `json:"stats"`
}

// Execute runs the complete load → synthesize → export pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	source := opts.Source
	if source == "" {
		source = "inline"
	}

	// Stage 1: Load
	loadStart := time.Now()
	observe.Pipeline().OnLoadStart(ctx, source)
	decl, err := Load(opts)
	result.Stats.LoadTime = time.Since(loadStart)
	networkCount := 0
	if decl != nil {
		networkCount = len(decl.Private)
	}
	observe.Pipeline().OnLoadComplete(ctx, source, networkCount, result.Stats.LoadTime, err)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	result.Declaration = decl
	result.Stats.NetworkCount = networkCount

	// Compute declaration hash for cache keys and API responses
	if declData, err := json.Marshal(decl); err == nil {
		result.DeclHash = cache.Hash(declData)
	}

	r.Logger.Info("loaded declaration",
		"source", source,
		"networks", networkCount,
		"duration", result.Stats.LoadTime)

	// Stage 2: Synthesize
	synthStart := time.Now()
	observe.Pipeline().OnSynthesisStart(ctx, networkCount)
	synthRes, synthHit, err := r.SynthesizeWithCacheInfo(ctx, decl, opts)
	result.Stats.SynthTime = time.Since(synthStart)
	if err != nil {
		observe.Pipeline().OnSynthesisComplete(ctx, 0, 0, result.Stats.SynthTime, err)
		return nil, fmt.Errorf("synthesize: %w", err)
	}
	observe.Pipeline().OnSynthesisComplete(ctx, synthRes.Stats.Nodes, synthRes.Stats.Edges, result.Stats.SynthTime, nil)
	result.Diagram = synthRes.Diagram
	result.Synthesis = synthRes.Stats
	result.Stats.NodeCount = synthRes.Stats.Nodes
	result.Stats.EdgeCount = synthRes.Stats.Edges
	result.CacheInfo.SynthHit = synthHit

	r.Logger.Info("synthesized diagram",
		"nodes", synthRes.Stats.Nodes,
		"edges", synthRes.Stats.Edges,
		"duration", result.Stats.SynthTime)

	// Stage 3: Export
	exportStart := time.Now()
	observe.Pipeline().OnExportStart(ctx, opts.Formats)
	artifacts, exportHit, err := r.ExportWithCacheInfo(ctx, &result.Diagram, opts)
	result.Stats.ExportTime = time.Since(exportStart)
	observe.Pipeline().OnExportComplete(ctx, opts.Formats, result.Stats.ExportTime, err)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}
	result.Artifacts = artifacts
	result.CacheInfo.ExportHit = exportHit

	r.Logger.Info("exported artifacts",
		"formats", opts.Formats,
		"duration", result.Stats.ExportTime)

	return result, nil
}

// SynthesizeWithCacheInfo synthesizes with caching and returns cache hit info.
func (r *Runner) SynthesizeWithCacheInfo(ctx context.Context, decl *spec.Declaration, opts Options) (*synth.Result, bool, error) {
	r.applyLogger(&opts)

	synthOpts, err := opts.SynthOptions()
	if err != nil {
		return nil, false, err
	}

	// Compute cache key from content digests of declaration and options
	declData, err := json.Marshal(decl)
	if err != nil {
		return nil, false, fmt.Errorf("serialize declaration for cache key: %w", err)
	}
	optsData, err := json.Marshal(synthOpts)
	if err != nil {
		return nil, false, fmt.Errorf("serialize options for cache key: %w", err)
	}
	cacheKey := r.Keyer.DiagramKey(cache.Hash(declData), cache.Hash(optsData))

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached cachedSynthesis
			if err := json.Unmarshal(data, &cached); err == nil && cached.Diagram.Validate() == nil {
				observe.Cache().OnCacheHit(ctx, "diagram")
				return &synth.Result{Diagram: cached.Diagram, Stats: cached.Stats}, true, nil
			}
			// If deserialization fails, fall through to recompute
		}
		observe.Cache().OnCacheMiss(ctx, "diagram")
	}

	// Synthesize
	res, err := runSynthesis(decl, synthOpts)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := json.Marshal(cachedSynthesis{Diagram: res.Diagram, Stats: res.Stats}); err == nil {
		_ = cache.RetryWithBackoff(ctx, func() error {
			return r.Cache.Set(ctx, cacheKey, data, TTLDiagram)
		})
		observe.Cache().OnCacheSet(ctx, "diagram", len(data))
	}

	return res, false, nil // Cache miss
}

// Synthesize is a convenience wrapper that calls SynthesizeWithCacheInfo and discards the cache hit info.
func (r *Runner) Synthesize(ctx context.Context, decl *spec.Declaration, opts Options) (*synth.Result, error) {
	res, _, err := r.SynthesizeWithCacheInfo(ctx, decl, opts)
	return res, err
}

// ExportWithCacheInfo generates artifacts with caching and returns cache hit info.
func (r *Runner) ExportWithCacheInfo(ctx context.Context, d *diagram.Diagram, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	// Compute cache key from diagram content
	diagramData, err := diagram.Marshal(*d)
	if err != nil {
		return nil, false, fmt.Errorf("serialize diagram for cache key: %w", err)
	}
	diagramHash := cache.Hash(diagramData)

	// Try to get all formats from cache (unless refresh requested)
	if !opts.Refresh {
		allCached := true
		artifacts := make(map[string][]byte)

		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}

		if allCached && len(artifacts) == len(opts.Formats) {
			observe.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil // All artifacts from cache
		}
		observe.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Export all formats
	exported, err := Export(d, opts)
	if err != nil {
		return nil, false, err
	}

	// Cache each format
	for format, data := range exported {
		cacheKey := r.Keyer.ArtifactKey(diagramHash, opts.ArtifactKeyOpts(format))
		_ = cache.RetryWithBackoff(ctx, func() error {
			return r.Cache.Set(ctx, cacheKey, data, TTLArtifact)
		})
		observe.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return exported, false, nil // Cache miss
}

// Export is a convenience wrapper that calls ExportWithCacheInfo and discards the cache hit info.
func (r *Runner) Export(ctx context.Context, d *diagram.Diagram, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.ExportWithCacheInfo(ctx, d, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
