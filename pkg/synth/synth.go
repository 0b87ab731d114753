package synth

import (
	"strings"

	"github.com/charmbracelet/log"

	"github.com/kleypas/netplot/pkg/diagram"
	neterrors "github.com/kleypas/netplot/pkg/errors"
	"github.com/kleypas/netplot/pkg/layout"
	"github.com/kleypas/netplot/pkg/spec"
	"github.com/kleypas/netplot/pkg/topology"
)

// =============================================================================
// Placement Constants
// =============================================================================

// Coordinates are layout units on an infinite canvas. Top-level nodes are
// absolute; nodes inside a container are relative to its top-left corner.
const (
	internetY              = 40.0
	internetDomesticX      = 240.0
	internetInternationalX = 720.0

	groupBandY  = 220.0 // backbone groups sit between internet and networks
	groupStartX = 80.0

	rootBandY  = 480.0 // root private networks
	rootStartX = 80.0

	gatewayRowY     = 40.0  // gateway row inside a network container
	deviceRowY      = 150.0 // first device row inside a network container
	groupDeviceRowY = 60.0  // device row inside a backbone group
	rowStep         = 90.0

	nodeBoxWidth = 80.0 // nominal node footprint used to center rows

	childBottomGap = 30.0 // gap between child subnets and the parent's bottom edge
)

// Edge stroke palette. Structural edges stay muted; overlays get color so
// diverted traffic reads at a glance.
const (
	strokeStructural = "#b1b1b7"
	strokeDiversion  = "#7c3aed"
	strokeDetour     = "#f59e0b"
	strokeCDN        = "#10b981"
)

// =============================================================================
// Synthesizer
// =============================================================================

// Synthesizer builds positioned diagrams from declarations. It is stateless
// across runs; one instance may be reused for any number of declarations.
type Synthesizer struct {
	opts  Options
	sizer *layout.Sizer
}

// New creates a Synthesizer after validating the options.
func New(opts Options) (*Synthesizer, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Synthesizer{opts: opts, sizer: layout.NewSizer(opts.Layout)}, nil
}

// Synthesize builds the full node/edge graph for one declaration. The run is
// all-or-nothing: a malformed declaration or a subnet nesting cycle aborts
// with a terminal error, while unresolvable diversion and interface targets
// merely drop their edges and are counted in Stats.
func (s *Synthesizer) Synthesize(decl *spec.Declaration) (*Result, error) {
	if err := spec.Validate(decl); err != nil {
		return nil, err
	}

	topo, err := topology.Resolve(decl.Private)
	if err != nil {
		return nil, err
	}

	b := &builder{
		opts:      &s.opts,
		sizer:     s.sizer,
		topo:      topo,
		decl:      decl,
		index:     newNodeIndex(),
		edgeSlot:  map[string]int{},
		connected: map[string]bool{},
		handled:   map[string]bool{},
		log:       s.opts.Logger,
	}

	// Reparent fixups rewrite the nesting before any placement happens.
	if err := b.applyParentOverrides(); err != nil {
		return nil, err
	}

	b.emitInternet()
	b.emitGroups()
	b.emitRootNetworks()
	b.emitInferredInterfaces()
	b.applyEdgeOverrides()
	b.resolvePendingRouters()
	b.resolveDiversions()

	d := diagram.Diagram{Nodes: b.nodes, Edges: b.edges}
	if err := d.Validate(); err != nil {
		// Any inconsistency here is a bug in synthesis, not bad input.
		return nil, neterrors.Wrap(neterrors.ErrCodeInternal, err, "synthesis produced an inconsistent diagram")
	}

	b.stats.Nodes = len(b.nodes)
	b.stats.Edges = len(b.edges)
	b.log.Debug("synthesis complete",
		"nodes", b.stats.Nodes,
		"edges", b.stats.Edges,
		"skipped_targets", b.stats.SkippedTargets,
		"upgraded_edges", b.stats.UpgradedEdges)

	return &Result{Diagram: d, Stats: b.stats}, nil
}

// =============================================================================
// Builder - Per-Run Synthesis State
// =============================================================================

// builder owns all mutable state of one synthesis run: the node/edge lists,
// the lookup indices, and the deferred work queues. Nothing in it outlives
// the run or is shared across runs.
type builder struct {
	opts  *Options
	sizer *layout.Sizer
	topo  *topology.Topology
	decl  *spec.Declaration

	nodes []diagram.Node
	edges []diagram.Edge

	index     *nodeIndex
	edgeSlot  map[string]int  // edge id → slot, for upgrades and duplicate suppression
	connected map[string]bool // source/target pairs with at least one edge

	pendingRouters []pendingRouter
	diversions     []diversionWork
	handled        map[string]bool // node ids whose diversion is fully resolved

	stats Stats
	log   *log.Logger
}

// pendingRouter is a gateway diversion recorded during network emission and
// resolved after all structural nodes exist.
type pendingRouter struct {
	routerID string
	target   string
	traffic  spec.Traffic
	region   spec.Region
	label    string
}

// diversionWork is one emitted node that declared a diversion, in emission
// order. The diversion resolver walks this list last.
type diversionWork struct {
	nodeID string
	div    *spec.Diversion
}

func (b *builder) emitNode(n diagram.Node, declaredName string) {
	slot := len(b.nodes)
	b.nodes = append(b.nodes, n)
	b.index.add(n.ID, slot, declaredName)
}

// emitEdge appends an edge unless its ID already exists. Re-emitting the same
// relationship (same endpoints, same category) is a no-op, which keeps
// repeated declared interfaces from producing duplicate-ID defects.
func (b *builder) emitEdge(e diagram.Edge) bool {
	if _, dup := b.edgeSlot[e.ID]; dup {
		b.stats.DroppedEdges++
		b.log.Debug("duplicate edge suppressed", "id", e.ID)
		return false
	}
	b.edgeSlot[e.ID] = len(b.edges)
	b.edges = append(b.edges, e)
	b.connected[pairKey(e.Source, e.Target)] = true
	return true
}

// upgradeEdge replaces a previously emitted edge in its slot with a
// re-identified successor. This is the only in-place edge mutation.
func (b *builder) upgradeEdge(oldID string, e diagram.Edge) {
	slot, ok := b.edgeSlot[oldID]
	if !ok {
		return
	}
	delete(b.edgeSlot, oldID)
	b.edgeSlot[e.ID] = slot
	b.edges[slot] = e
	b.connected[pairKey(e.Source, e.Target)] = true
	b.stats.UpgradedEdges++
}

func (b *builder) flagNode(id, key string) {
	if slot, ok := b.index.byID[id]; ok {
		b.nodes[slot].Flag(key)
	}
}

func (b *builder) hasConnection(source, target string) bool {
	return b.connected[pairKey(source, target)]
}

func pairKey(source, target string) string {
	return source + "\x00" + target
}

// =============================================================================
// Step 1 - Internet Nodes
// =============================================================================

func (b *builder) emitInternet() {
	domestic := InternetNodeID(spec.RegionDomestic)
	international := InternetNodeID(spec.RegionInternational)

	b.emitNode(diagram.Node{
		ID:       domestic,
		Kind:     diagram.KindCloud,
		Label:    "Internet (domestic)",
		Position: diagram.Position{X: internetDomesticX, Y: internetY},
		Data:     map[string]any{diagram.DataRegion: string(spec.RegionDomestic)},
	}, "")
	b.emitNode(diagram.Node{
		ID:       international,
		Kind:     diagram.KindCloud,
		Label:    "Internet (international)",
		Position: diagram.Position{X: internetInternationalX, Y: internetY},
		Data:     map[string]any{diagram.DataRegion: string(spec.RegionInternational)},
	}, "")

	b.emitEdge(diagram.Edge{
		ID:       EdgeID(domestic, international, diagram.CategoryUplink),
		Source:   domestic,
		Target:   international,
		Category: diagram.CategoryUplink,
		Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
	})
}

// =============================================================================
// Step 2 - Backbone Groups
// =============================================================================

func (b *builder) emitGroups() {
	groups := b.decl.Public.AutonomousSystems
	if len(groups) == 0 {
		return
	}
	spacing := clampSpacing(len(groups))

	x := groupStartX
	for _, g := range groups {
		size := b.sizer.Size(len(g.Devices), false, 0, 0, true)
		b.emitGroup(g, diagram.Position{X: x, Y: groupBandY}, size)
		x += size.Width + spacing
	}
	b.stats.Groups = len(groups)
}

func (b *builder) emitGroup(g *spec.BackboneGroup, pos diagram.Position, size layout.Size) {
	groupID := GroupNodeID(g.Name)
	b.emitNode(diagram.Node{
		ID:       groupID,
		Kind:     diagram.KindBackboneGroup,
		Label:    g.Name,
		Position: pos,
		Size:     &diagram.Size{Width: size.Width, Height: size.Height},
		Data: map[string]any{
			diagram.DataRegion: string(g.Region),
			diagram.DataGroup:  g.Name,
		},
	}, g.Name)

	internet := InternetNodeID(g.Region)
	_, cols := layout.Grid(len(g.Devices))

	for i, dev := range g.Devices {
		devID := GroupDeviceNodeID(g.Name, dev.Name)
		row, col := i/cols, i%cols
		b.emitNode(diagram.Node{
			ID:                devID,
			Kind:              diagram.KindDevice,
			Label:             dev.Name,
			ParentContainerID: groupID,
			Position:          rowPosition(col, rowItems(len(g.Devices), row, cols), size.Width, groupDeviceRowY+float64(row)*rowStep),
			Data:              deviceData(dev, "", g.Name),
		}, dev.Name)

		b.emitEdge(diagram.Edge{
			ID:       EdgeID(internet, devID, diagram.CategoryUplink),
			Source:   internet,
			Target:   devID,
			Category: diagram.CategoryUplink,
			Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
		})

		// External-server diversions whose region differs from the group's
		// own region pull in a second uplink from the other internet node.
		if div := dev.Diversion; div != nil {
			if div.TargetType == spec.TargetExternal && div.Region.Valid() && div.Region != g.Region {
				cross := InternetNodeID(div.Region)
				b.emitEdge(diagram.Edge{
					ID:       EdgeID(cross, devID, diagram.CategoryUplink),
					Source:   cross,
					Target:   devID,
					Category: diagram.CategoryUplink,
					Style:    &diagram.EdgeStyle{Stroke: strokeStructural, Dasharray: "6 3"},
					Label:    div.Label,
				})
			}
			b.diversions = append(b.diversions, diversionWork{nodeID: devID, div: div})
		}
	}
}

// =============================================================================
// Step 4 - Inferred Interface Edges
// =============================================================================

// emitInferredInterfaces walks every gateway interface once more and turns
// types that name an already-emitted node into interface-link edges. Types
// "domestic"/"international" made uplinks in step 3 and the interface backing
// the actual parent relation made a subnet-link, so both are skipped here.
func (b *builder) emitInferredInterfaces() {
	for _, n := range b.decl.Private {
		gatewayID := GatewayNodeID(n.Name)
		parent, _ := b.topo.Parent(n.Name)

		for _, iface := range n.Gateway.Interfaces {
			if spec.Region(iface.Type).Valid() {
				continue
			}
			if iface.Type == parent {
				continue
			}

			matched, ok := b.resolveInterfaceTarget(iface.Type, gatewayID)
			if !ok {
				b.stats.SkippedTargets++
				b.log.Warn("interface type matches no node",
					"network", n.Name, "interface", iface.Name, "type", iface.Type)
				continue
			}

			b.emitEdge(diagram.Edge{
				ID:       EdgeID(matched, gatewayID, diagram.CategoryInterface),
				Source:   matched,
				Target:   gatewayID,
				Category: diagram.CategoryInterface,
				Style:    &diagram.EdgeStyle{Stroke: strokeStructural, Dasharray: "4 4"},
				Label:    iface.Name,
			})
		}
	}
}

// resolveInterfaceTarget matches an interface type string to a node: the
// gateway of a declared network with that name first, then any node whose id
// or label contains the string. The owning gateway itself never matches.
func (b *builder) resolveInterfaceTarget(ifaceType, selfID string) (string, bool) {
	if b.decl.Private.Has(ifaceType) {
		id := GatewayNodeID(ifaceType)
		if _, ok := b.index.byID[id]; ok && id != selfID {
			return id, true
		}
	}
	for i := range b.nodes {
		id := b.nodes[i].ID
		if id == selfID {
			continue
		}
		if strings.Contains(id, ifaceType) || strings.Contains(b.nodes[i].Label, ifaceType) {
			return id, true
		}
	}
	return "", false
}

// =============================================================================
// Step 5 - Structural Override Edges
// =============================================================================

// applyParentOverrides rewrites subnet nesting from the fixup table before
// placement. Unknown parents are skipped with a warning; a reparent that
// would create a cycle aborts the run, because the topology state cannot be
// trusted afterwards.
func (b *builder) applyParentOverrides() error {
	for _, name := range b.decl.Private.Names() {
		parent, ok := parentFor(b.opts.Overrides, name)
		if !ok {
			continue
		}
		if !b.decl.Private.Has(parent) {
			b.log.Warn("override parent is not a declared network", "network", name, "parent", parent)
			continue
		}
		cur, _ := b.topo.Parent(name)
		if cur == parent {
			continue
		}
		if err := b.topo.Reparent(name, parent); err != nil {
			return neterrors.Wrap(neterrors.ErrCodeInvalidOverride, err,
				"override cannot nest %q under %q", name, parent)
		}
		b.stats.Overrides++
		b.log.Debug("override reparented network", "network", name, "parent", parent)
	}
	return nil
}

// applyEdgeOverrides emits the extra uplink and cross-network edges from the
// fixup table, after the structural graph exists.
func (b *builder) applyEdgeOverrides() {
	for i := range b.opts.Overrides {
		o := &b.opts.Overrides[i]
		if o.Uplink == "" && o.ConnectTo == "" {
			continue
		}

		for _, name := range b.decl.Private.Names() {
			if !o.Matches(name) {
				continue
			}
			gatewayID := GatewayNodeID(name)
			if _, ok := b.index.byID[gatewayID]; !ok {
				continue
			}

			if o.Uplink != "" {
				internet := InternetNodeID(spec.Region(o.Uplink))
				if b.emitEdge(diagram.Edge{
					ID:       EdgeID(internet, gatewayID, diagram.CategoryUplink),
					Source:   internet,
					Target:   gatewayID,
					Category: diagram.CategoryUplink,
					Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
				}) {
					b.stats.Overrides++
				}
			}

			if o.ConnectTo != "" {
				peerID := GatewayNodeID(o.ConnectTo)
				if _, ok := b.index.byID[peerID]; !ok {
					b.log.Warn("override connect_to matches no gateway", "network", name, "connect_to", o.ConnectTo)
					continue
				}
				if b.emitEdge(diagram.Edge{
					ID:       EdgeID(gatewayID, peerID, diagram.CategoryInterface),
					Source:   gatewayID,
					Target:   peerID,
					Category: diagram.CategoryInterface,
					Style:    &diagram.EdgeStyle{Stroke: strokeStructural, Dasharray: "4 4"},
				}) {
					b.stats.Overrides++
				}
			}
		}
	}
}

// =============================================================================
// Shared Placement Helpers
// =============================================================================

// clampSpacing derives the horizontal gap between top-level siblings from
// their count: more siblings, tighter packing, clamped to [40, 80].
func clampSpacing(count int) float64 {
	s := 900.0 / float64(count)
	if s < 40 {
		return 40
	}
	if s > 80 {
		return 80
	}
	return s
}

// rowItems returns how many items the given grid row actually holds: full
// rows hold cols items, the last row holds the remainder.
func rowItems(total, row, cols int) int {
	remaining := total - row*cols
	if remaining > cols {
		return cols
	}
	return remaining
}

// rowPosition spreads row items evenly across a container width and returns
// the position of the item in the given column.
func rowPosition(col, itemsInRow int, width, y float64) diagram.Position {
	spacing := width / float64(itemsInRow+1)
	return diagram.Position{X: spacing*float64(col+1) - nodeBoxWidth/2, Y: y}
}

// deviceData builds the metadata payload for a device node.
func deviceData(dev *spec.Device, network, group string) map[string]any {
	data := map[string]any{}
	if dev.Addr != "" {
		data[diagram.DataAddr] = dev.Addr
	}
	if network != "" {
		data[diagram.DataNetwork] = network
	}
	if group != "" {
		data[diagram.DataGroup] = group
	}
	return data
}

