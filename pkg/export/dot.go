package export

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/kleypas/netplot/pkg/diagram"
)

// Options configures diagram export.
type Options struct {
	// Detailed includes addresses and other metadata in node labels.
	// When false, only the display label is shown.
	Detailed bool
}

// defaultStroke is used for edges that carry no style of their own.
const defaultStroke = "#b1b1b7"

// ToDOT converts a diagram to Graphviz DOT format. Containers become cluster
// subgraphs so the nesting structure survives; the edge colors and dash
// patterns mirror the canvas styling. The resulting DOT string can be
// rendered with [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(d *diagram.Diagram, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph netplot {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  compound=true;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=12, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.ParentContainerID != "" {
			continue
		}
		writeNode(&buf, d, n, opts, 1)
	}

	buf.WriteString("\n")
	for i := range d.Edges {
		writeEdge(&buf, &d.Edges[i])
	}

	buf.WriteString("}\n")
	return buf.String()
}

// writeNode emits one node statement, or a cluster subgraph with its nested
// contents when the node is a container.
func writeNode(buf *bytes.Buffer, d *diagram.Diagram, n *diagram.Node, opts Options, depth int) {
	indent := strings.Repeat("  ", depth)

	if !n.IsContainer() {
		attrs := fmtNodeAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(buf, "%s%q [%s];\n", indent, n.ID, strings.Join(attrs, ", "))
		return
	}

	fmt.Fprintf(buf, "%ssubgraph %q {\n", indent, "cluster_"+n.ID)
	fmt.Fprintf(buf, "%s  label=%q;\n", indent, n.DisplayLabel())
	fmt.Fprintf(buf, "%s  style=\"rounded\";\n", indent)
	fmt.Fprintf(buf, "%s  color=\"#94a3b8\";\n", indent)
	for _, child := range d.Children(n.ID) {
		writeNode(buf, d, child, opts, depth+1)
	}
	fmt.Fprintf(buf, "%s}\n", indent)
}

func writeEdge(buf *bytes.Buffer, e *diagram.Edge) {
	attrs := []string{fmt.Sprintf("color=%q", edgeStroke(e))}
	if e.Style != nil && e.Style.Dasharray != "" {
		attrs = append(attrs, "style=dashed")
	}
	if e.Style != nil && e.Style.StrokeWidth > 0 {
		attrs = append(attrs, fmt.Sprintf("penwidth=%g", e.Style.StrokeWidth))
	}
	if e.Label != "" {
		attrs = append(attrs, fmt.Sprintf("label=%q", e.Label), "fontsize=10")
	}
	fmt.Fprintf(buf, "  %q -> %q [%s];\n", e.Source, e.Target, strings.Join(attrs, ", "))
}

func edgeStroke(e *diagram.Edge) string {
	if e.Style != nil && e.Style.Stroke != "" {
		return e.Style.Stroke
	}
	return defaultStroke
}

func fmtLabel(n *diagram.Node, detailed bool) string {
	if !detailed {
		return n.DisplayLabel()
	}

	var parts []string
	for _, k := range slices.Sorted(maps.Keys(n.Data)) {
		if s, ok := n.Data[k].(string); ok {
			parts = append(parts, fmt.Sprintf("%s: %s", k, s))
		}
	}
	if len(parts) == 0 {
		return n.DisplayLabel()
	}
	return n.DisplayLabel() + "\n" + strings.Join(parts, "\n")
}

func fmtNodeAttrs(n *diagram.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case diagram.KindCloud:
		attrs = append(attrs, "shape=ellipse", "fillcolor=\"#e0f2fe\"")
	case diagram.KindRouter:
		attrs = append(attrs, "fillcolor=\"#fef9c3\"")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with
// [RenderPDF] or [RenderPNG].
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg element so the viewBox starts at the
// origin and the width/height match it, which keeps downstream scaling sane.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(dot string) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion. A scale of 2.0
// produces a 2x resolution image suitable for high-DPI displays.
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(dot)
	if err != nil {
		return nil, err
	}
	return ToPNG(svg, scale)
}
