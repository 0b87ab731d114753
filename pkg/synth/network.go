package synth

import (
	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/layout"
	"github.com/kleypas/netplot/pkg/spec"
)

// =============================================================================
// Step 3 - Private Networks
// =============================================================================

// emitRootNetworks places each root network left to right in the root band
// and recurses into its subnet subtree. Networks identified as subnets are
// skipped here; they are emitted inside their parent.
func (b *builder) emitRootNetworks() {
	roots := b.topo.Roots()
	b.stats.Roots = len(roots)
	b.stats.Subnets = len(b.topo.Subnets())
	if len(roots) == 0 {
		return
	}
	spacing := clampSpacing(len(roots))

	x := rootStartX
	for _, name := range roots {
		size := b.networkSize(name)
		b.emitNetwork(b.decl.Private.Get(name), "", diagram.Position{X: x, Y: rootBandY}, size)
		x += size.Width + spacing
	}
}

// networkSize combines the generic sizing policy with any override headroom.
func (b *builder) networkSize(name string) layout.Size {
	size := b.sizer.Size(
		b.topo.DeviceCount(name),
		b.topo.HasChildren(name),
		b.topo.Level(name),
		b.topo.MaxDepth(name),
		false,
	)
	w, h := scaleFor(b.opts.Overrides, name)
	size.Width *= w
	size.Height *= h
	return size
}

// emitNetwork emits one network container and everything inside it: the
// gateway row (gateway plus sub-gateways), the device grid, and recursively
// each child subnet. Containers are emitted before their contents so that
// later name lookups always resolve.
func (b *builder) emitNetwork(n *spec.Network, parentID string, pos diagram.Position, size layout.Size) {
	netID := NetworkNodeID(n.Name)
	netData := map[string]any{diagram.DataNetwork: n.Name}
	if n.Subnet != "" {
		netData[diagram.DataSubnet] = n.Subnet
	}
	b.emitNode(diagram.Node{
		ID:                netID,
		Kind:              diagram.KindNetwork,
		Label:             n.Name,
		Position:          pos,
		Size:              &diagram.Size{Width: size.Width, Height: size.Height},
		ParentContainerID: parentID,
		Data:              netData,
	}, n.Name)

	gw := n.Gateway
	gatewayID := GatewayNodeID(n.Name)
	subs := n.SubGateways()
	headerCount := 1 + len(subs)

	b.emitNode(diagram.Node{
		ID:                gatewayID,
		Kind:              diagram.KindRouter,
		Label:             gw.Name,
		ParentContainerID: netID,
		Position:          rowPosition(0, headerCount, size.Width, gatewayRowY),
		Data:              gatewayData(gw, n.Name),
	}, gw.Name)

	// One uplink per region-typed interface; a gateway with both a domestic
	// and an international interface links to both internet nodes.
	for _, iface := range gw.Interfaces {
		region := spec.Region(iface.Type)
		if !region.Valid() {
			continue
		}
		internet := InternetNodeID(region)
		b.emitEdge(diagram.Edge{
			ID:       EdgeID(internet, gatewayID, diagram.CategoryUplink),
			Source:   internet,
			Target:   gatewayID,
			Category: diagram.CategoryUplink,
			Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
		})
	}

	// Gateway diversions targeting declared devices cannot resolve yet; the
	// targets may not be emitted. Park them for step 6.
	if div := gw.Diversion; div != nil {
		if div.TargetType == spec.TargetInternal {
			b.pendingRouters = append(b.pendingRouters, pendingRouter{
				routerID: gatewayID,
				target:   div.Target.First(),
				traffic:  div.Traffic,
				region:   div.Region,
				label:    div.Label,
			})
		}
		b.diversions = append(b.diversions, diversionWork{nodeID: gatewayID, div: div})
	}

	// Sub-gateways share the header row with the gateway.
	for i, sub := range subs {
		subID := DeviceNodeID(n.Name, sub.Name)
		b.emitNode(diagram.Node{
			ID:                subID,
			Kind:              diagram.KindRouter,
			Label:             sub.Name,
			ParentContainerID: netID,
			Position:          rowPosition(i+1, headerCount, size.Width, gatewayRowY),
			Data:              deviceData(sub, n.Name, ""),
		}, sub.Name)

		b.emitEdge(diagram.Edge{
			ID:       EdgeID(gatewayID, subID, diagram.CategoryGatewayLink),
			Source:   gatewayID,
			Target:   subID,
			Category: diagram.CategoryGatewayLink,
			Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
		})

		if sub.Diversion != nil {
			b.diversions = append(b.diversions, diversionWork{nodeID: subID, div: sub.Diversion})
		}
	}

	// Ordinary devices form the grid below the header row, each tethered to
	// the gateway by a provisional link.
	devices := n.PlainDevices()
	_, cols := layout.Grid(len(devices))
	for i, dev := range devices {
		devID := DeviceNodeID(n.Name, dev.Name)
		row, col := i/cols, i%cols
		b.emitNode(diagram.Node{
			ID:                devID,
			Kind:              diagram.KindDevice,
			Label:             dev.Name,
			ParentContainerID: netID,
			Position:          rowPosition(col, rowItems(len(devices), row, cols), size.Width, deviceRowY+float64(row)*rowStep),
			Data:              deviceData(dev, n.Name, ""),
		}, dev.Name)

		linkID := EdgeID(gatewayID, devID, diagram.CategoryGatewayLink)
		b.emitEdge(diagram.Edge{
			ID:       linkID,
			Source:   gatewayID,
			Target:   devID,
			Category: diagram.CategoryGatewayLink,
			Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
		})

		if div := dev.Diversion; div != nil {
			if div.TargetType == spec.TargetExternal {
				// The provisional link becomes the diversion itself: same
				// endpoints, new identity and styling.
				stroke := strokeDiversion
				if div.IsDetour() {
					stroke = strokeDetour
				}
				b.upgradeEdge(linkID, diagram.Edge{
					ID:       EdgeID(gatewayID, devID, diagram.CategoryDiversion),
					Source:   gatewayID,
					Target:   devID,
					Category: diagram.CategoryDiversion,
					Animated: true,
					Style:    &diagram.EdgeStyle{Stroke: stroke, StrokeWidth: 2},
					Label:    div.Label,
				})
			}
			b.diversions = append(b.diversions, diversionWork{nodeID: devID, div: div})
		}
	}

	// Child subnets nest inside this container, bottom-aligned and evenly
	// distributed across its width.
	children := b.topo.Children(n.Name)
	if len(children) == 0 {
		return
	}

	rows, _ := layout.Grid(len(devices))
	bandTop := deviceRowY + float64(rows)*rowStep

	childSpacing := size.Width / float64(len(children)+1)
	for i, childName := range children {
		child := b.decl.Private.Get(childName)
		childSize := b.networkSize(childName)

		childX := childSpacing*float64(i+1) - childSize.Width/2
		childY := size.Height - childSize.Height - childBottomGap
		if childY < bandTop {
			childY = bandTop
		}

		b.emitNetwork(child, netID, diagram.Position{X: childX, Y: childY}, childSize)

		b.emitEdge(diagram.Edge{
			ID:       EdgeID(gatewayID, GatewayNodeID(childName), diagram.CategorySubnetLink),
			Source:   gatewayID,
			Target:   GatewayNodeID(childName),
			Category: diagram.CategorySubnetLink,
			Style:    &diagram.EdgeStyle{Stroke: strokeStructural},
		})
	}
}

// gatewayData builds the metadata payload for a gateway node.
func gatewayData(gw *spec.Gateway, network string) map[string]any {
	data := map[string]any{diagram.DataNetwork: network}
	if gw.Addr != "" {
		data[diagram.DataAddr] = gw.Addr
	}
	return data
}
