// Package layout computes container dimensions for topology diagrams.
//
// Containers (backbone groups, networks, subnets) must be large enough to
// hold their device grid and, when subnets nest inside them, the recursively
// accumulated space of the whole subtree. The sizing policy is deterministic
// arithmetic over device counts and nesting depth; all constants are tunable
// through [Config] but the shape of the policy is fixed.
package layout

import "math"

// Packing limits for the device grid inside a container.
const (
	maxDevicesPerRow = 4
	minDevicesPerRow = 2
)

// Size is a width/height pair in layout units.
type Size struct {
	Width  float64
	Height float64
}

// Config holds the tunable sizing constants. The zero value is not usable;
// call [Config.SetDefaults] or start from [DefaultConfig].
type Config struct {
	BackboneBase Size    // base dims for backbone-group containers (wide, shallow)
	NetworkBase  Size    // base dims for network containers (narrow, tall)
	DeviceCell   float64 // per-device width and height in the packing grid

	BackboneVMargin float64 // vertical margin above the device grid, backbone groups
	NetworkVMargin  float64 // vertical margin, networks (room for the sub-gateway row)

	ChildWiden      float64 // multiplicative width factor when children nest inside
	ChildWidenFloor float64 // hard floor for ChildWiden

	HeightBase        float64 // base height factor with children
	NetworkDepthStep  float64 // per-depth height increment, networks
	BackboneDepthStep float64 // per-depth height increment, backbone groups
	MinChildHeight    float64 // height floor with children
	DepthHeightBonus  float64 // additional height floor per depth level
}

// DefaultConfig returns the standard sizing constants.
func DefaultConfig() Config {
	return Config{
		BackboneBase:      Size{Width: 360, Height: 160},
		NetworkBase:       Size{Width: 280, Height: 240},
		DeviceCell:        90,
		BackboneVMargin:   80,
		NetworkVMargin:    140,
		ChildWiden:        1.4,
		ChildWidenFloor:   1.25,
		HeightBase:        1.3,
		NetworkDepthStep:  0.5,
		BackboneDepthStep: 0.25,
		MinChildHeight:    520,
		DepthHeightBonus:  160,
	}
}

// SetDefaults fills zero-valued fields with the standard constants. Calling
// it multiple times is safe; explicitly set fields are preserved.
func (c *Config) SetDefaults() {
	def := DefaultConfig()
	if c.BackboneBase == (Size{}) {
		c.BackboneBase = def.BackboneBase
	}
	if c.NetworkBase == (Size{}) {
		c.NetworkBase = def.NetworkBase
	}
	if c.DeviceCell == 0 {
		c.DeviceCell = def.DeviceCell
	}
	if c.BackboneVMargin == 0 {
		c.BackboneVMargin = def.BackboneVMargin
	}
	if c.NetworkVMargin == 0 {
		c.NetworkVMargin = def.NetworkVMargin
	}
	if c.ChildWiden == 0 {
		c.ChildWiden = def.ChildWiden
	}
	if c.ChildWidenFloor == 0 {
		c.ChildWidenFloor = def.ChildWidenFloor
	}
	if c.HeightBase == 0 {
		c.HeightBase = def.HeightBase
	}
	if c.NetworkDepthStep == 0 {
		c.NetworkDepthStep = def.NetworkDepthStep
	}
	if c.BackboneDepthStep == 0 {
		c.BackboneDepthStep = def.BackboneDepthStep
	}
	if c.MinChildHeight == 0 {
		c.MinChildHeight = def.MinChildHeight
	}
	if c.DepthHeightBonus == 0 {
		c.DepthHeightBonus = def.DepthHeightBonus
	}
}

// Sizer computes container dimensions from one immutable Config.
type Sizer struct {
	cfg Config
}

// NewSizer creates a Sizer, filling any zero config fields with defaults.
func NewSizer(cfg Config) *Sizer {
	cfg.SetDefaults()
	return &Sizer{cfg: cfg}
}

// Config returns the sizing constants in use.
func (s *Sizer) Config() Config {
	return s.cfg
}

// Size computes the dimensions of one container.
//
//   - deviceCount: direct device slots (gateway included for networks)
//   - hasChildren/maxChildDepth: subnet subtree shape below this container
//   - level: nesting level of the container itself (0 = top level)
//   - backbone: backbone-group geometry instead of network geometry
//
// The result is always positive in both dimensions; inputs are well-formed
// non-negative values by construction, so there are no error paths.
func (s *Sizer) Size(deviceCount int, hasChildren bool, level, maxChildDepth int, backbone bool) Size {
	base := s.cfg.NetworkBase
	vMargin := s.cfg.NetworkVMargin
	depthStep := s.cfg.NetworkDepthStep
	if backbone {
		base = s.cfg.BackboneBase
		vMargin = s.cfg.BackboneVMargin
		depthStep = s.cfg.BackboneDepthStep
	}

	rows, cols := Grid(deviceCount)

	// The +2 columns of slack keep sibling containers from touching.
	width := math.Max(base.Width, float64(cols+2)*s.cfg.DeviceCell)
	height := math.Max(base.Height, float64(rows)*s.cfg.DeviceCell+vMargin)

	if hasChildren {
		width *= math.Max(s.cfg.ChildWiden, s.cfg.ChildWidenFloor)

		factor := s.cfg.HeightBase + float64(maxChildDepth)*depthStep
		floor := s.cfg.MinChildHeight + float64(maxChildDepth)*s.cfg.DepthHeightBonus
		height = math.Max(height*factor, floor)
	}

	if level > 0 {
		wShrink, hShrink := LevelShrink(level)
		width *= wShrink
		height *= hShrink
	}

	return Size{Width: width, Height: height}
}

// Grid returns the packing grid for a device count: at most four devices per
// row, at least two per row when more than one device exists.
func Grid(deviceCount int) (rows, cols int) {
	if deviceCount <= 0 {
		return 0, 0
	}

	cols = deviceCount
	if cols > maxDevicesPerRow {
		cols = maxDevicesPerRow
	}
	if deviceCount > 1 && cols < minDevicesPerRow {
		cols = minDevicesPerRow
	}
	rows = (deviceCount + cols - 1) / cols
	return rows, cols
}

// LevelShrink returns the width and height shrink factors for a nested
// container. Deeper nesting shrinks modestly and never below the floors, so
// leaf subnets stay legible.
func LevelShrink(level int) (width, height float64) {
	width = math.Max(0.85, 1-float64(level)*0.08)
	height = math.Max(0.9, 1-float64(level)*0.05)
	return width, height
}
