// Package export renders synthesized diagrams to portable formats.
//
// # Overview
//
// The canonical diagram format is the JSON produced by pkg/diagram; this
// package covers everything downstream of it: a Graphviz DOT conversion for
// quick previews and tooling interop, SVG rendering, and PDF/PNG conversion.
//
// # Usage
//
// Convert a diagram to DOT, then render:
//
//	dot := export.ToDOT(&result.Diagram, export.Options{})
//	svg, err := export.RenderSVG(dot)
//
// For PDF or PNG output:
//
//	pdf, err := export.RenderPDF(dot)
//	png, err := export.RenderPNG(dot, 2.0) // 2x scale
//
// # DOT Format
//
// Containers (backbone groups and networks) become cluster subgraphs, so the
// nesting structure survives the conversion. Edge categories map onto the
// same stroke colors and dash patterns the canvas uses.
//
// # Dependencies
//
// SVG rendering happens in-process via [github.com/goccy/go-graphviz]. PDF
// and PNG conversion shell out to rsvg-convert (librsvg).
package export
