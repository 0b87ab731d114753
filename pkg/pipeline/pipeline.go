// Package pipeline provides the core synthesis pipeline for netplot.
//
// This package implements the complete load → synthesize → export pipeline
// shared by the CLI and API components. By centralizing this logic, we
// ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Load: Parse a network declaration from a file or inline content
//  2. Synthesize: Build the positioned diagram from the declaration
//  3. Export: Generate output in various formats (JSON, DOT, SVG, PNG, PDF)
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    Source:  "homelab.yaml",
//	    Formats: []string{"svg"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts["svg"]
//
// Run individual stages:
//
//	// Load only
//	decl, err := pipeline.Load(opts)
//
//	// Synthesize with an existing declaration
//	res, err := runner.Synthesize(ctx, decl, opts)
//
//	// Export with an existing diagram
//	artifacts, err := runner.Export(ctx, &res.Diagram, opts)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kleypas/netplot/pkg/cache"
	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/layout"
	"github.com/kleypas/netplot/pkg/spec"
	"github.com/kleypas/netplot/pkg/synth"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

// DefaultPNGScale is the zoom factor applied when rasterizing PNG output.
const DefaultPNGScale = 2.0

// Cache TTLs. Keys are content hashes, so stale reads are impossible; the
// TTLs only bound how long unused entries occupy the backend.
const (
	// TTLDiagram is the lifetime of cached synthesis results.
	TTLDiagram = 24 * time.Hour

	// TTLArtifact is the lifetime of cached rendered artifacts. Rendering
	// shells out to graphviz and rsvg, so artifacts are kept longer.
	TTLArtifact = 7 * 24 * time.Hour
)

// Format constants for output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the synthesis pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Source      string `json:"source,omitempty"`      // path to a declaration file
	Declaration string `json:"declaration,omitempty"` // inline declaration content (YAML or JSON)

	// Synthesis options
	Layout        layout.Config    `json:"layout,omitempty"`
	Overrides     []synth.Override `json:"overrides,omitempty"`
	OverridesPath string           `json:"overrides_path,omitempty"`

	// Export options
	Formats  []string `json:"formats,omitempty"`
	Detailed bool     `json:"detailed,omitempty"` // include device metadata in DOT labels
	PNGScale float64  `json:"png_scale,omitempty"`

	// Refresh skips cache reads, forcing recomputation.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Declaration is the parsed declaration.
	Declaration *spec.Declaration

	// DeclHash is the content hash of the declaration.
	DeclHash string

	// Diagram is the synthesized node/edge graph.
	Diagram diagram.Diagram

	// Synthesis counts what synthesis emitted and skipped.
	Synthesis synth.Stats

	// Artifacts contains exported outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NetworkCount int
	NodeCount    int
	EdgeCount    int
	LoadTime     time.Duration
	SynthTime    time.Duration
	ExportTime   time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	SynthHit  bool // Whether the synthesized diagram came from cache
	ExportHit bool // Whether all artifacts came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the full pipeline.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	if err := o.ValidateForExport(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks required fields for loading a declaration.
func (o *Options) ValidateForLoad() error {
	if o.Source == "" && o.Declaration == "" {
		return fmt.Errorf("source or declaration is required")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// SetExportDefaults sets default values for exporting.
func (o *Options) SetExportDefaults() {
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForExport validates and sets defaults for exporting.
func (o *Options) ValidateForExport() error {
	o.SetExportDefaults()
	return ValidateFormats(o.Formats)
}

// SynthOptions assembles the synthesis options, loading the override file if
// one is configured. Defaults are applied so the result serializes stably
// for cache keying.
func (o *Options) SynthOptions() (synth.Options, error) {
	overrides := o.Overrides
	if o.OverridesPath != "" {
		loaded, err := synth.LoadOverrides(o.OverridesPath)
		if err != nil {
			return synth.Options{}, err
		}
		overrides = append(append([]synth.Override{}, overrides...), loaded...)
	}

	opts := synth.Options{
		Layout:    o.Layout,
		Overrides: overrides,
		Logger:    o.Logger,
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return synth.Options{}, err
	}
	return opts, nil
}

// ArtifactKeyOpts returns cache key options for one exported format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Format:   format,
		Detailed: o.Detailed,
		PNGScale: o.PNGScale,
	}
}
