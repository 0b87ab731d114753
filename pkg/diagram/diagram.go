package diagram

import (
	neterrors "github.com/kleypas/netplot/pkg/errors"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// NodeKind identifies the visual role of a node.
type NodeKind string

// Node kinds.
const (
	KindCloud         NodeKind = "cloud"          // public-internet anchor
	KindBackboneGroup NodeKind = "backbone-group" // autonomous-system container
	KindNetwork       NodeKind = "network"        // private-network container (root or subnet)
	KindRouter        NodeKind = "router"         // network gateway
	KindDevice        NodeKind = "device"         // ordinary host
)

// EdgeCategory identifies the relationship an edge represents.
type EdgeCategory string

// Edge categories.
const (
	CategoryUplink      EdgeCategory = "uplink"         // internet → device/gateway
	CategoryGatewayLink EdgeCategory = "gateway-link"   // gateway → device inside one network
	CategorySubnetLink  EdgeCategory = "subnet-link"    // parent gateway → child gateway
	CategoryInterface   EdgeCategory = "interface-link" // inferred from a named gateway interface
	CategoryDiversion   EdgeCategory = "diversion"      // declared traffic redirection
	CategoryCDN         EdgeCategory = "cdn"            // CDN origin/edge overlay
)

// Edge anchor positions, consumed by the canvas to pick connection handles.
const (
	AnchorTop    = "top"
	AnchorBottom = "bottom"
)

// Node data keys shared between synthesis and consumers.
const (
	DataRegion    = "region"    // domestic/international classification
	DataAddr      = "addr"      // declared address, verbatim
	DataNetwork   = "network"   // owning network name
	DataGroup     = "group"     // owning backbone-group name
	DataSubnet    = "subnet"    // declared subnet descriptor, verbatim
	DataCDNOrigin = "cdnOrigin" // device fans out to CDN edges
	DataCDNEdge   = "cdnEdge"   // device serves as a CDN edge
)

// =============================================================================
// Diagram - Positioned Node/Edge Serialization
// =============================================================================

// Diagram is the canonical output of layout synthesis: a flat, ordered list
// of positioned nodes and typed edges. It is what API responses, snapshots,
// caching, and exporters all consume.
//
// Order is significant and deterministic: synthesizing the same declaration
// twice produces byte-identical diagrams.
type Diagram struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// =============================================================================
// Node
// =============================================================================

// Position is a 2D layout coordinate. Top-level nodes use absolute
// coordinates; nodes with a parent container are positioned relative to the
// container's top-left corner.
type Position struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
}

// Size is a width/height pair. Only container nodes carry one.
type Size struct {
	Width  float64 `json:"width" bson:"width"`
	Height float64 `json:"height" bson:"height"`
}

// Node is one positioned element of the diagram.
type Node struct {
	ID                string         `json:"id" bson:"id"`
	Kind              NodeKind       `json:"kind" bson:"kind"`
	Label             string         `json:"label,omitempty" bson:"label,omitempty"`
	Position          Position       `json:"position" bson:"position"`
	Size              *Size          `json:"size,omitempty" bson:"size,omitempty"`
	ParentContainerID string         `json:"parentContainerId,omitempty" bson:"parentContainerId,omitempty"`
	Data              map[string]any `json:"data,omitempty" bson:"data,omitempty"`
}

// IsContainer returns true for node kinds that visually enclose other nodes.
func (n *Node) IsContainer() bool {
	return n.Kind == KindBackboneGroup || n.Kind == KindNetwork
}

// DisplayLabel returns the label if set, otherwise the ID.
func (n *Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

// Flag sets a boolean data flag on the node, allocating Data lazily.
func (n *Node) Flag(key string) {
	if n.Data == nil {
		n.Data = map[string]any{}
	}
	n.Data[key] = true
}

// HasFlag reports whether a boolean data flag is set.
func (n *Node) HasFlag(key string) bool {
	v, ok := n.Data[key].(bool)
	return ok && v
}

// =============================================================================
// Edge
// =============================================================================

// EdgeStyle carries visual hints for the canvas. All fields are optional.
type EdgeStyle struct {
	Stroke      string  `json:"stroke,omitempty" bson:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty" bson:"strokeWidth,omitempty"`
	Dasharray   string  `json:"dasharray,omitempty" bson:"dasharray,omitempty"`
}

// Edge is one typed connection. Direction is always Source → Target.
type Edge struct {
	ID           string       `json:"id" bson:"id"`
	Source       string       `json:"source" bson:"source"`
	Target       string       `json:"target" bson:"target"`
	Category     EdgeCategory `json:"category" bson:"category"`
	SourceAnchor string       `json:"sourceAnchor,omitempty" bson:"sourceAnchor,omitempty"`
	TargetAnchor string       `json:"targetAnchor,omitempty" bson:"targetAnchor,omitempty"`
	Animated     bool         `json:"animated" bson:"animated"`
	Style        *EdgeStyle   `json:"style,omitempty" bson:"style,omitempty"`
	Label        string       `json:"label,omitempty" bson:"label,omitempty"`
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks structural integrity: pairwise-distinct node and edge IDs,
// edge endpoints that exist, and parent references that point at containers.
// A violation is a synthesis defect, so failures carry ErrCodeDuplicateID or
// ErrCodeNotFound and should be treated as bugs rather than user errors.
func (d *Diagram) Validate() error {
	nodes := make(map[string]*Node, len(d.Nodes))
	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.ID == "" {
			return neterrors.New(neterrors.ErrCodeInvalidInput, "node with empty id")
		}
		if _, dup := nodes[n.ID]; dup {
			return neterrors.New(neterrors.ErrCodeDuplicateID, "duplicate node id %q", n.ID)
		}
		nodes[n.ID] = n
	}

	for i := range d.Nodes {
		n := &d.Nodes[i]
		if n.ParentContainerID == "" {
			continue
		}
		parent, ok := nodes[n.ParentContainerID]
		if !ok {
			return neterrors.New(neterrors.ErrCodeNotFound,
				"node %q references missing parent %q", n.ID, n.ParentContainerID)
		}
		if !parent.IsContainer() {
			return neterrors.New(neterrors.ErrCodeInvalidInput,
				"node %q nested inside non-container %q", n.ID, n.ParentContainerID)
		}
	}

	edgeIDs := make(map[string]struct{}, len(d.Edges))
	for i := range d.Edges {
		e := &d.Edges[i]
		if e.ID == "" {
			return neterrors.New(neterrors.ErrCodeInvalidInput, "edge with empty id")
		}
		if _, dup := edgeIDs[e.ID]; dup {
			return neterrors.New(neterrors.ErrCodeDuplicateID, "duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = struct{}{}

		if _, ok := nodes[e.Source]; !ok {
			return neterrors.New(neterrors.ErrCodeNotFound,
				"edge %q source %q does not exist", e.ID, e.Source)
		}
		if _, ok := nodes[e.Target]; !ok {
			return neterrors.New(neterrors.ErrCodeNotFound,
				"edge %q target %q does not exist", e.ID, e.Target)
		}
	}

	return nil
}

// =============================================================================
// Lookup Helpers
// =============================================================================

// NodeByID returns the node with the given ID, or false if absent.
// Linear scan; build an index for hot paths.
func (d *Diagram) NodeByID(id string) (*Node, bool) {
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			return &d.Nodes[i], true
		}
	}
	return nil, false
}

// NodesOfKind returns all nodes of one kind, in diagram order.
func (d *Diagram) NodesOfKind(kind NodeKind) []*Node {
	var out []*Node
	for i := range d.Nodes {
		if d.Nodes[i].Kind == kind {
			out = append(out, &d.Nodes[i])
		}
	}
	return out
}

// EdgesOfCategory returns all edges of one category, in diagram order.
func (d *Diagram) EdgesOfCategory(cat EdgeCategory) []*Edge {
	var out []*Edge
	for i := range d.Edges {
		if d.Edges[i].Category == cat {
			out = append(out, &d.Edges[i])
		}
	}
	return out
}

// Children returns the nodes directly nested inside the given container, in
// diagram order.
func (d *Diagram) Children(containerID string) []*Node {
	var out []*Node
	for i := range d.Nodes {
		if d.Nodes[i].ParentContainerID == containerID {
			out = append(out, &d.Nodes[i])
		}
	}
	return out
}
