package spec

// Region classifies an entity as domestic or international. Backbone groups
// carry a region directly; gateways reach a region through interface typing.
type Region string

// Known regions.
const (
	RegionDomestic      Region = "domestic"
	RegionInternational Region = "international"
)

// Valid reports whether r is a known region.
func (r Region) Valid() bool {
	return r == RegionDomestic || r == RegionInternational
}

// TargetType classifies where a diversion's traffic lands.
type TargetType string

// Known diversion target types.
const (
	// TargetInternal marks a diversion whose target is a declared device
	// inside the topology (resolved to a node by the diversion resolver).
	TargetInternal TargetType = "innerserver"

	// TargetExternal marks a diversion whose target lives outside the
	// topology; it restyles the device's uplink rather than adding edges.
	TargetExternal TargetType = "outerserver"
)

// Traffic classifies the kind of diverted traffic.
type Traffic string

// Known traffic classes. An empty Traffic means a plain diversion.
const (
	TrafficCDN    Traffic = "cdn"
	TrafficDetour Traffic = "external-detour"
)

// Declaration is the root of a topology declaration. It is immutable once
// loaded; every synthesis run reads it and builds derived state of its own.
type Declaration struct {
	Public  Public      `yaml:"public" json:"public"`
	Private NetworkList `yaml:"private" json:"private" validate:"dive"`
}

// Public holds the public-internet side of the declaration.
type Public struct {
	AutonomousSystems []*BackboneGroup `yaml:"autonomous_systems" json:"autonomous_systems" validate:"dive"`
}

// BackboneGroup is a top-level public entity (autonomous-system-like)
// hosting externally reachable devices.
type BackboneGroup struct {
	Name    string    `yaml:"name" json:"name" validate:"required"`
	Region  Region    `yaml:"region" json:"region" validate:"required,oneof=domestic international"`
	Devices []*Device `yaml:"devices" json:"devices" validate:"dive"`
}

// Network is a private LAN-like entity: one gateway plus an ordered device
// list. Its name comes from the key in the `private` mapping, so it is not
// decoded from the body.
type Network struct {
	Name    string    `yaml:"-" json:"-"`
	Subnet  string    `yaml:"subnet" json:"subnet"`
	Gateway *Gateway  `yaml:"gateway" json:"gateway" validate:"required"`
	Devices []*Device `yaml:"devices" json:"devices" validate:"dive"`
}

// SubGateways returns the devices that expose their own interface list.
// These denote nested networks reached via interface typing and are placed
// in the header row beside the main gateway.
func (n *Network) SubGateways() []*Device {
	var out []*Device
	for _, d := range n.Devices {
		if d.IsSubGateway() {
			out = append(out, d)
		}
	}
	return out
}

// PlainDevices returns the devices without an interface list, in declaration
// order. These form the device grid below the gateway row.
func (n *Network) PlainDevices() []*Device {
	var out []*Device
	for _, d := range n.Devices {
		if !d.IsSubGateway() {
			out = append(out, d)
		}
	}
	return out
}

// Gateway is a network's single router. Its interfaces drive both internet
// uplinks (types "domestic"/"international") and subnet nesting (types
// naming another declared network).
type Gateway struct {
	Name       string       `yaml:"name" json:"name" validate:"required"`
	Addr       string       `yaml:"addr" json:"addr"`
	Interfaces []*Interface `yaml:"interfaces" json:"interfaces" validate:"dive"`
	Diversion  *Diversion   `yaml:"diversion" json:"diversion,omitempty"`
}

// Interface is a named, typed, addressed port on a gateway or sub-gateway.
type Interface struct {
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type" json:"type" validate:"required"`
	Addr string `yaml:"addr" json:"addr"`
}

// Device is a host inside a backbone group or private network. A device
// carrying an interface list is a sub-gateway: it stands in for a nested
// network's router.
type Device struct {
	Name       string       `yaml:"name" json:"name" validate:"required"`
	Addr       string       `yaml:"addr" json:"addr"`
	Interface  string       `yaml:"interface" json:"interface,omitempty"`
	Interfaces []*Interface `yaml:"interfaces" json:"interfaces,omitempty" validate:"dive"`
	Diversion  *Diversion   `yaml:"diversion" json:"diversion,omitempty"`
}

// IsSubGateway reports whether the device exposes its own interface list.
func (d *Device) IsSubGateway() bool {
	return len(d.Interfaces) > 0
}

// Diversion declares a traffic-redirection relationship from the owning
// device or gateway to one or more targets.
type Diversion struct {
	Target     TargetList `yaml:"target" json:"target" validate:"required,min=1"`
	TargetType TargetType `yaml:"target_type" json:"target_type" validate:"required,oneof=innerserver outerserver"`
	Traffic    Traffic    `yaml:"traffic_type" json:"traffic_type,omitempty" validate:"omitempty,oneof=cdn external-detour"`
	Region     Region     `yaml:"region" json:"region,omitempty" validate:"omitempty,oneof=domestic international"`
	Label      string     `yaml:"label" json:"label,omitempty"`
}

// IsCDN reports whether the diversion fans out to CDN edges.
func (d *Diversion) IsCDN() bool {
	return d.Traffic == TrafficCDN
}

// IsDetour reports whether the diversion is an external detour.
func (d *Diversion) IsDetour() bool {
	return d.Traffic == TrafficDetour
}

// NetworkList is an ordered collection of private networks. It decodes from
// a mapping (name → network body) while preserving declaration order, which
// plain Go maps cannot.
type NetworkList []*Network

// Get returns the network with the given name, or nil.
func (l NetworkList) Get(name string) *Network {
	for _, n := range l {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// Has reports whether a network with the given name is declared.
func (l NetworkList) Has(name string) bool {
	return l.Get(name) != nil
}

// Names returns the network names in declaration order.
func (l NetworkList) Names() []string {
	out := make([]string, len(l))
	for i, n := range l {
		out[i] = n.Name
	}
	return out
}

// TargetList holds diversion targets. It decodes from either a single
// scalar name or a sequence of names.
type TargetList []string

// First returns the first target, or "" when the list is empty. Router
// diversions resolve only the first element of a multi-target list.
func (t TargetList) First() string {
	if len(t) == 0 {
		return ""
	}
	return t[0]
}
