// Package topology derives the subnet structure of a declaration: which
// networks nest under which, how many device slots each container needs, and
// how deep each subnet subtree goes.
//
// Nesting is inferred, never declared. A network's gateway interfaces are
// scanned in declaration order; the first interface whose type names another
// declared network establishes that network as the parent. Networks without
// an inferred parent are roots and drive top-level placement.
package topology

import (
	neterrors "github.com/kleypas/netplot/pkg/errors"
	"github.com/kleypas/netplot/pkg/spec"
)

// Topology is the resolved subnet structure of one declaration. It is
// immutable after Resolve and safe for concurrent reads.
type Topology struct {
	order       []string            // all network names in declaration order
	parentOf    map[string]string   // network -> inferred parent
	childrenOf  map[string][]string // network -> children in declaration order
	deviceCount map[string]int      // network -> devices + gateway slot
	levels      map[string]int      // network -> nesting level (root = 0)
	roots       []string            // declaration order
}

// Resolve walks the private networks and infers the parent/child structure
// from gateway interface typing. Cycles in the inferred structure are
// rejected with a TOPOLOGY_CYCLE error; the depth calculation below assumes
// acyclicity.
func Resolve(networks spec.NetworkList) (*Topology, error) {
	t := &Topology{
		order:       make([]string, 0, len(networks)),
		parentOf:    make(map[string]string, len(networks)),
		childrenOf:  make(map[string][]string, len(networks)),
		deviceCount: make(map[string]int, len(networks)),
		levels:      make(map[string]int, len(networks)),
	}

	for _, n := range networks {
		t.order = append(t.order, n.Name)
		// The gateway itself occupies a device slot in the layout grid.
		t.deviceCount[n.Name] = len(n.Devices) + 1

		if n.Gateway == nil {
			continue
		}
		for _, iface := range n.Gateway.Interfaces {
			if iface.Type == n.Name {
				// Only another network can be a parent.
				continue
			}
			if !networks.Has(iface.Type) {
				continue
			}
			t.parentOf[n.Name] = iface.Type
			t.childrenOf[iface.Type] = append(t.childrenOf[iface.Type], n.Name)
			break // first match wins; a network has at most one parent
		}
	}

	for _, name := range t.order {
		if _, nested := t.parentOf[name]; !nested {
			t.roots = append(t.roots, name)
		}
	}

	if err := t.detectCycles(); err != nil {
		return nil, err
	}

	for _, root := range t.roots {
		t.assignLevels(root, 0)
	}
	return t, nil
}

// detectCycles follows parent pointers from every network using white/gray/
// black coloring. Each network has at most one parent, so walking the parent
// chain covers the whole inferred structure.
func (t *Topology) detectCycles() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(t.order))
	var cycleAt string

	var dfs func(name string)
	dfs = func(name string) {
		color[name] = gray
		if parent, ok := t.parentOf[name]; ok {
			switch color[parent] {
			case white:
				dfs(parent)
			case gray:
				cycleAt = name
			}
		}
		color[name] = black
	}

	for _, name := range t.order {
		if color[name] == white {
			dfs(name)
			if cycleAt != "" {
				return neterrors.New(neterrors.ErrCodeTopologyCycle,
					"subnet nesting cycle involving network %q", cycleAt)
			}
		}
	}
	return nil
}

func (t *Topology) assignLevels(name string, level int) {
	t.levels[name] = level
	for _, child := range t.childrenOf[name] {
		t.assignLevels(child, level+1)
	}
}

// Parent returns the inferred parent of a network, if any.
func (t *Topology) Parent(name string) (string, bool) {
	parent, ok := t.parentOf[name]
	return parent, ok
}

// Children returns a network's child subnets in declaration order. The
// returned slice is shared; callers must not modify it.
func (t *Topology) Children(name string) []string {
	return t.childrenOf[name]
}

// HasChildren reports whether a network has nested subnets.
func (t *Topology) HasChildren(name string) bool {
	return len(t.childrenOf[name]) > 0
}

// DeviceCount returns the number of device slots a network's container must
// hold: its declared devices plus one for the gateway.
func (t *Topology) DeviceCount(name string) int {
	return t.deviceCount[name]
}

// Roots returns the root networks (no inferred parent) in declaration order.
func (t *Topology) Roots() []string {
	return t.roots
}

// IsRoot reports whether the network has no inferred parent.
func (t *Topology) IsRoot(name string) bool {
	_, nested := t.parentOf[name]
	return !nested
}

// Subnets returns the nested (non-root) networks in declaration order.
func (t *Topology) Subnets() []string {
	var out []string
	for _, name := range t.order {
		if !t.IsRoot(name) {
			out = append(out, name)
		}
	}
	return out
}

// Level returns a network's nesting level: 0 for roots, parent level + 1
// for subnets.
func (t *Topology) Level(name string) int {
	return t.levels[name]
}

// MaxDepth returns the maximum nesting depth below the given network.
func (t *Topology) MaxDepth(name string) int {
	return MaxDepth(name, t.childrenOf)
}

// Reparent forces a network under a new parent, detaching it from any
// previously inferred parent. Structural overrides use this before
// placement; it re-runs the cycle check and recomputes levels and roots.
// On error the topology is left partially updated and must be discarded,
// matching the terminal-error contract of a synthesis run.
func (t *Topology) Reparent(child, parent string) error {
	inOrder := func(name string) bool {
		for _, n := range t.order {
			if n == name {
				return true
			}
		}
		return false
	}
	if !inOrder(child) || !inOrder(parent) {
		return neterrors.New(neterrors.ErrCodeNotFound, "reparent %q under %q: unknown network", child, parent)
	}
	if child == parent {
		return neterrors.New(neterrors.ErrCodeTopologyCycle, "network %q cannot parent itself", child)
	}

	if old, ok := t.parentOf[child]; ok {
		siblings := t.childrenOf[old]
		for i, s := range siblings {
			if s == child {
				t.childrenOf[old] = append(siblings[:i:i], siblings[i+1:]...)
				break
			}
		}
	}
	t.parentOf[child] = parent
	t.childrenOf[parent] = append(t.childrenOf[parent], child)

	t.roots = t.roots[:0]
	for _, name := range t.order {
		if _, nested := t.parentOf[name]; !nested {
			t.roots = append(t.roots, name)
		}
	}
	if err := t.detectCycles(); err != nil {
		return err
	}

	t.levels = make(map[string]int, len(t.order))
	for _, root := range t.roots {
		t.assignLevels(root, 0)
	}
	return nil
}
