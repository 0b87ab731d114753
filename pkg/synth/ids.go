package synth

import (
	"fmt"

	"github.com/kleypas/netplot/pkg/diagram"
	"github.com/kleypas/netplot/pkg/spec"
)

// Node IDs derive deterministically from entity kind, owning scope, and name.
// Scope and name are joined with '/', which validation forbids inside declared
// names, so a device name containing hyphens can never produce the same ID as
// a different scope/name pair ("a" + "b-c" vs "a-b" + "c"). Declared names are
// unique inside their scope, making the derived IDs globally unique.

// InternetNodeID returns the ID of the fixed internet node for a region.
func InternetNodeID(region spec.Region) string {
	return "internet-" + string(region)
}

// GroupNodeID returns the container ID for a backbone group.
func GroupNodeID(group string) string {
	return "backbone-" + group
}

// GroupDeviceNodeID returns the ID for a device inside a backbone group.
func GroupDeviceNodeID(group, device string) string {
	return "backbone-" + group + "/" + device
}

// NetworkNodeID returns the container ID for a private network.
func NetworkNodeID(network string) string {
	return "net-" + network
}

// GatewayNodeID returns the ID for a network's gateway.
func GatewayNodeID(network string) string {
	return "gateway-" + network
}

// DeviceNodeID returns the ID for a device inside a private network.
func DeviceNodeID(network, device string) string {
	return "device-" + network + "/" + device
}

// EdgeID derives an edge identifier from its endpoints and category, joined
// with the same separator the node IDs use so distinct endpoint pairs cannot
// map to one ID. Two edges may share endpoints as long as their categories
// differ; an upgraded edge changes category and therefore ID.
func EdgeID(source, target string, category diagram.EdgeCategory) string {
	return fmt.Sprintf("e-%s/%s/%s", source, target, category)
}
