package synth

import (
	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/spec"
)

// =============================================================================
// Step 6 - Pending Router Diversions
// =============================================================================

// resolvePendingRouters resolves the gateway diversions recorded during
// network emission, now that every structural node exists. The emitted edge
// flows target → router: visually the serving target feeds the requesting
// router. External detours resolved here mark the router handled so the
// diversion resolver does not emit the relationship a second time.
func (b *builder) resolvePendingRouters() {
	for _, p := range b.pendingRouters {
		targetID, ok := b.resolveRouterTarget(p.target)
		if !ok {
			b.stats.SkippedTargets++
			b.log.Warn("router diversion target matches no node",
				"router", p.routerID, "target", p.target)
			continue
		}

		stroke := strokeDiversion
		if p.traffic == spec.TrafficDetour {
			stroke = strokeDetour
		}
		b.emitEdge(diagram.Edge{
			ID:       EdgeID(targetID, p.routerID, diagram.CategoryDiversion),
			Source:   targetID,
			Target:   p.routerID,
			Category: diagram.CategoryDiversion,
			Animated: true,
			Style:    &diagram.EdgeStyle{Stroke: stroke, StrokeWidth: 2},
			Label:    p.label,
		})

		if p.traffic == spec.TrafficDetour {
			b.handled[p.routerID] = true
		}
	}
}

// =============================================================================
// Diversion Resolver
// =============================================================================

// resolveDiversions walks every emitted node that declared a diversion, in
// emission order, and appends overlay edges. Only internal-server diversions
// resolve here; external-server ones were consumed during emission as
// cross-region uplinks or edge upgrades.
func (b *builder) resolveDiversions() {
	for _, w := range b.diversions {
		if w.div.TargetType != spec.TargetInternal {
			continue
		}
		if b.handled[w.nodeID] {
			continue
		}

		switch {
		case w.div.IsCDN():
			b.resolveCDN(w.nodeID, w.div)
		case w.div.IsDetour():
			b.resolveDetour(w.nodeID, w.div)
		default:
			b.resolvePlain(w.nodeID, w.div)
		}
	}
}

// resolveCDN fans one origin out to every resolvable target. Each edge runs
// origin-top to target-bottom so the overlay arcs over the structural graph,
// and both endpoints get their CDN role flags for downstream styling.
// Unresolvable targets are dropped, not errors.
func (b *builder) resolveCDN(originID string, div *spec.Diversion) {
	matched := false
	for _, target := range div.Target {
		targetID, ok := b.resolveTarget(target, true)
		if !ok {
			b.stats.SkippedTargets++
			b.log.Warn("cdn target matches no node", "origin", originID, "target", target)
			continue
		}
		if targetID == originID {
			b.log.Debug("cdn target resolved to its own origin, skipping", "target", target)
			continue
		}

		b.emitEdge(diagram.Edge{
			ID:           EdgeID(originID, targetID, diagram.CategoryCDN),
			Source:       originID,
			Target:       targetID,
			Category:     diagram.CategoryCDN,
			SourceAnchor: diagram.AnchorTop,
			TargetAnchor: diagram.AnchorBottom,
			Animated:     true,
			Style:        &diagram.EdgeStyle{Stroke: strokeCDN, StrokeWidth: 2},
			Label:        div.Label,
		})
		b.flagNode(targetID, diagram.DataCDNEdge)
		matched = true
	}
	if matched {
		b.flagNode(originID, diagram.DataCDNOrigin)
	}
}

// resolveDetour emits the single overlay edge target → device and marks the
// device handled.
func (b *builder) resolveDetour(nodeID string, div *spec.Diversion) {
	target := div.Target.First()
	targetID, ok := b.resolveTarget(target, false)
	if !ok {
		b.stats.SkippedTargets++
		b.log.Warn("detour target matches no node", "device", nodeID, "target", target)
		return
	}

	b.emitEdge(diagram.Edge{
		ID:       EdgeID(targetID, nodeID, diagram.CategoryDiversion),
		Source:   targetID,
		Target:   nodeID,
		Category: diagram.CategoryDiversion,
		Animated: true,
		Style:    &diagram.EdgeStyle{Stroke: strokeDetour, StrokeWidth: 2},
		Label:    div.Label,
	})
	b.handled[nodeID] = true
}

// resolvePlain emits one overlay edge target → device. If nothing connects
// the region's internet node to the target yet, a backfilled uplink shows
// the diversion's destination as reachable from the wider internet.
func (b *builder) resolvePlain(nodeID string, div *spec.Diversion) {
	target := div.Target.First()
	targetID, ok := b.resolveTarget(target, false)
	if !ok {
		b.stats.SkippedTargets++
		b.log.Warn("diversion target matches no node", "device", nodeID, "target", target)
		return
	}

	b.emitEdge(diagram.Edge{
		ID:       EdgeID(targetID, nodeID, diagram.CategoryDiversion),
		Source:   targetID,
		Target:   nodeID,
		Category: diagram.CategoryDiversion,
		Animated: true,
		Style:    &diagram.EdgeStyle{Stroke: strokeDiversion, StrokeWidth: 2},
		Label:    div.Label,
	})

	region := div.Region
	if !region.Valid() {
		region = spec.RegionDomestic
	}
	internet := InternetNodeID(region)
	if !b.hasConnection(internet, targetID) {
		b.emitEdge(diagram.Edge{
			ID:       EdgeID(internet, targetID, diagram.CategoryUplink),
			Source:   internet,
			Target:   targetID,
			Category: diagram.CategoryUplink,
			Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
		})
	}
}
