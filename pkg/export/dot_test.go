package export

import (
	"strings"
	"testing"

	"github.com/kleypas/netplot/pkg/diagram"
)

func testDiagram() *diagram.Diagram {
	return &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "internet-domestic", Kind: diagram.KindCloud, Label: "Internet (domestic)"},
			{ID: "net-lan", Kind: diagram.KindNetwork, Label: "lan",
				Size: &diagram.Size{Width: 360, Height: 240}},
			{ID: "gateway-lan", Kind: diagram.KindRouter, Label: "rt-lan",
				ParentContainerID: "net-lan",
				Data:              map[string]any{diagram.DataAddr: "10.0.0.1"}},
			{ID: "device-lan/nas", Kind: diagram.KindDevice, Label: "nas",
				ParentContainerID: "net-lan"},
		},
		Edges: []diagram.Edge{
			{ID: "e1", Source: "internet-domestic", Target: "gateway-lan",
				Category: diagram.CategoryUplink,
				Style:    &diagram.EdgeStyle{Stroke: "#b1b1b7"}},
			{ID: "e2", Source: "gateway-lan", Target: "device-lan/nas",
				Category: diagram.CategoryDiversion, Animated: true,
				Style: &diagram.EdgeStyle{Stroke: "#7c3aed", StrokeWidth: 2},
				Label: "tunnel"},
		},
	}
}

func TestToDOTBasic(t *testing.T) {
	dot := ToDOT(testDiagram(), Options{})

	if !strings.Contains(dot, "digraph netplot") {
		t.Error("ToDOT() output missing digraph declaration")
	}
	if !strings.Contains(dot, `"internet-domestic"`) {
		t.Error("ToDOT() output missing internet node")
	}
	if !strings.Contains(dot, `"internet-domestic" -> "gateway-lan"`) {
		t.Error("ToDOT() output missing uplink edge")
	}
}

func TestToDOTClusters(t *testing.T) {
	dot := ToDOT(testDiagram(), Options{})

	if !strings.Contains(dot, `subgraph "cluster_net-lan"`) {
		t.Error("ToDOT() network container not rendered as cluster")
	}
	// Contained nodes appear inside the cluster block, not at top level.
	clusterStart := strings.Index(dot, "cluster_net-lan")
	nodeAt := strings.Index(dot, `"device-lan/nas" [`)
	if nodeAt < clusterStart {
		t.Error("ToDOT() contained device emitted outside its cluster")
	}
}

func TestToDOTNestedClusters(t *testing.T) {
	d := &diagram.Diagram{
		Nodes: []diagram.Node{
			{ID: "net-outer", Kind: diagram.KindNetwork, Label: "outer"},
			{ID: "net-inner", Kind: diagram.KindNetwork, Label: "inner",
				ParentContainerID: "net-outer"},
			{ID: "device-inner/a", Kind: diagram.KindDevice, Label: "a",
				ParentContainerID: "net-inner"},
		},
	}
	dot := ToDOT(d, Options{})

	outer := strings.Index(dot, "cluster_net-outer")
	inner := strings.Index(dot, "cluster_net-inner")
	dev := strings.Index(dot, `"device-inner/a"`)
	if outer == -1 || inner == -1 || dev == -1 {
		t.Fatalf("ToDOT() missing nested structure:\n%s", dot)
	}
	if !(outer < inner && inner < dev) {
		t.Errorf("ToDOT() nesting order wrong: outer=%d inner=%d dev=%d", outer, inner, dev)
	}
}

func TestToDOTEdgeStyling(t *testing.T) {
	dot := ToDOT(testDiagram(), Options{})

	if !strings.Contains(dot, `color="#7c3aed"`) {
		t.Error("ToDOT() diversion edge missing stroke color")
	}
	if !strings.Contains(dot, "penwidth=2") {
		t.Error("ToDOT() diversion edge missing penwidth")
	}
	if !strings.Contains(dot, `label="tunnel"`) {
		t.Error("ToDOT() diversion edge missing label")
	}
}

func TestToDOTDashedEdges(t *testing.T) {
	d := testDiagram()
	d.Edges = append(d.Edges, diagram.Edge{
		ID: "e3", Source: "internet-domestic", Target: "device-lan/nas",
		Category: diagram.CategoryInterface,
		Style:    &diagram.EdgeStyle{Stroke: "#b1b1b7", Dasharray: "4 4"},
	})
	dot := ToDOT(d, Options{})

	if !strings.Contains(dot, "style=dashed") {
		t.Error("ToDOT() dashed edge missing dashed style")
	}
}

func TestToDOTKindShapes(t *testing.T) {
	dot := ToDOT(testDiagram(), Options{})

	if !strings.Contains(dot, "shape=ellipse") {
		t.Error("ToDOT() cloud node missing ellipse shape")
	}
	if !strings.Contains(dot, `fillcolor="#fef9c3"`) {
		t.Error("ToDOT() router node missing fill color")
	}
}

func TestFmtLabelDetailed(t *testing.T) {
	n := &diagram.Node{
		ID:    "gateway-lan",
		Label: "rt-lan",
		Data: map[string]any{
			diagram.DataAddr:    "10.0.0.1",
			diagram.DataNetwork: "lan",
		},
	}

	if got := fmtLabel(n, false); got != "rt-lan" {
		t.Errorf("fmtLabel() simple = %q, want rt-lan", got)
	}

	detailed := fmtLabel(n, true)
	if !strings.HasPrefix(detailed, "rt-lan\n") {
		t.Errorf("fmtLabel() detailed should start with the label: %q", detailed)
	}
	if !strings.Contains(detailed, "addr: 10.0.0.1") {
		t.Errorf("fmtLabel() detailed missing addr: %q", detailed)
	}
	if !strings.Contains(detailed, "network: lan") {
		t.Errorf("fmtLabel() detailed missing network: %q", detailed)
	}
}

func TestFmtLabelSkipsFlags(t *testing.T) {
	n := &diagram.Node{
		ID:    "device-hub/origin",
		Label: "origin",
		Data: map[string]any{
			diagram.DataCDNOrigin: true,
			diagram.DataAddr:      "10.0.0.9",
		},
	}

	detailed := fmtLabel(n, true)
	if strings.Contains(detailed, "cdnOrigin") {
		t.Errorf("fmtLabel() detailed should skip boolean flags: %q", detailed)
	}
	if !strings.Contains(detailed, "addr: 10.0.0.9") {
		t.Errorf("fmtLabel() detailed missing addr: %q", detailed)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="12.5 7.0 100.0 50.0" xmlns="http://www.w3.org/2000/svg">`)
	out := string(normalizeViewBox(in))

	if !strings.Contains(out, `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("normalizeViewBox() = %q", out)
	}
	if !strings.Contains(out, `width="100" height="50"`) {
		t.Errorf("normalizeViewBox() missing pixel dimensions: %q", out)
	}

	// SVG without a viewBox passes through untouched.
	plain := []byte(`<svg xmlns="http://www.w3.org/2000/svg">`)
	if got := string(normalizeViewBox(plain)); got != string(plain) {
		t.Errorf("normalizeViewBox() modified viewBox-less svg: %q", got)
	}
}
