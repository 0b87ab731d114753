package pipeline

import (
	"github.com/kleypas/netplot/pkg/spec"
)

// Load parses the declaration named by the options, from the source file or
// from inline content. Inline content wins when both are set, so API
// requests can carry a declaration body alongside a descriptive source name.
// The result is not validated here; synthesis validates before building.
func Load(opts Options) (*spec.Declaration, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	if opts.Declaration != "" {
		return spec.Parse([]byte(opts.Declaration))
	}
	return spec.Load(opts.Source)
}
