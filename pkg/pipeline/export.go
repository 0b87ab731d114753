package pipeline

import (
	"fmt"

	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/export"
)

// Export generates output artifacts in the requested formats.
func Export(d *diagram.Diagram, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForExport(); err != nil {
		return nil, err
	}

	// All graphic formats share one DOT document.
	var dot string
	for _, format := range opts.Formats {
		if format != FormatJSON {
			dot = export.ToDOT(d, export.Options{Detailed: opts.Detailed})
			break
		}
	}

	artifacts := make(map[string][]byte)

	for _, format := range opts.Formats {
		var data []byte
		var err error

		switch format {
		case FormatJSON:
			data, err = diagram.Marshal(*d)
		case FormatDOT:
			data = []byte(dot)
		case FormatSVG:
			data, err = export.RenderSVG(dot)
		case FormatPNG:
			data, err = export.RenderPNG(dot, opts.PNGScale)
		case FormatPDF:
			data, err = export.RenderPDF(dot)
		default:
			return nil, fmt.Errorf("unsupported format: %s", format)
		}

		if err != nil {
			return nil, fmt.Errorf("export %s: %w", format, err)
		}
		artifacts[format] = data
	}

	return artifacts, nil
}
