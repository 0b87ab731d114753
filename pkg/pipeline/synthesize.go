package pipeline

import (
	"github.com/kleypas/netplot/pkg/spec"
	"github.com/kleypas/netplot/pkg/synth"
)

// Synthesize builds the positioned diagram for a declaration.
func Synthesize(decl *spec.Declaration, opts Options) (*synth.Result, error) {
	synthOpts, err := opts.SynthOptions()
	if err != nil {
		return nil, err
	}
	return runSynthesis(decl, synthOpts)
}

// runSynthesis executes synthesis with fully resolved options. The cached
// path resolves options once for the cache key and reuses them here.
func runSynthesis(decl *spec.Declaration, synthOpts synth.Options) (*synth.Result, error) {
	s, err := synth.New(synthOpts)
	if err != nil {
		return nil, err
	}
	return s.Synthesize(decl)
}
