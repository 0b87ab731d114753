package synth

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/layout"
)

// =============================================================================
// Options - Synthesis Configuration
// =============================================================================

// Options configures one Synthesizer. The zero value is usable after
// ValidateAndSetDefaults.
type Options struct {
	// Layout holds the container sizing constants. Zero fields are filled
	// with defaults.
	Layout layout.Config `json:"layout,omitempty"`

	// Overrides is the structural fixup table applied during synthesis.
	Overrides []Override `json:"overrides,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks the override table and applies defaults.
// Idempotent; calling it multiple times has the same effect as calling once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	for i := range o.Overrides {
		if err := o.Overrides[i].Validate(); err != nil {
			return err
		}
	}
	o.Layout.SetDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Result - Synthesis Output
// =============================================================================

// Result contains the outputs of one synthesis run.
type Result struct {
	// Diagram is the positioned node/edge graph.
	Diagram diagram.Diagram

	// Stats counts what the run emitted and skipped.
	Stats Stats
}

// Stats contains synthesis statistics.
type Stats struct {
	Nodes          int `json:"nodes"`
	Edges          int `json:"edges"`
	Groups         int `json:"groups"`
	Roots          int `json:"roots"`
	Subnets        int `json:"subnets"`
	UpgradedEdges  int `json:"upgraded_edges,omitempty"`
	SkippedTargets int `json:"skipped_targets,omitempty"` // unresolvable diversion/interface targets
	DroppedEdges   int `json:"dropped_edges,omitempty"`   // duplicate-ID emissions suppressed
	Overrides      int `json:"overrides,omitempty"`       // fixups that matched at least once
}
