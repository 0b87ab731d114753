package synth

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/kleypas/netplot/pkg/spec"
)

// buildDeclaration constructs a valid declaration: groupCount backbone groups
// and netCount networks of devCount devices each. With nest the networks chain
// into one subnet line; with divert the last device declares an internal
// diversion onto host0.
func buildDeclaration(groupCount, netCount, devCount int, nest, divert bool) *spec.Declaration {
	decl := &spec.Declaration{}

	for g := 0; g < groupCount; g++ {
		region := spec.RegionDomestic
		if g%2 == 1 {
			region = spec.RegionInternational
		}
		group := &spec.BackboneGroup{Name: fmt.Sprintf("as%d", g), Region: region}
		for d := 0; d < devCount; d++ {
			group.Devices = append(group.Devices, &spec.Device{Name: fmt.Sprintf("gd%d", d)})
		}
		decl.Public.AutonomousSystems = append(decl.Public.AutonomousSystems, group)
	}

	for n := 0; n < netCount; n++ {
		gw := &spec.Gateway{
			Name:       fmt.Sprintf("rt%d", n),
			Interfaces: []*spec.Interface{{Name: "wan0", Type: "domestic"}},
		}
		if nest && n > 0 {
			up := &spec.Interface{Name: "up0", Type: fmt.Sprintf("zone%d", n-1)}
			gw.Interfaces = append([]*spec.Interface{up}, gw.Interfaces...)
		}
		net := &spec.Network{Name: fmt.Sprintf("zone%d", n), Gateway: gw}
		for d := 0; d < devCount; d++ {
			net.Devices = append(net.Devices, &spec.Device{Name: fmt.Sprintf("host%d", d)})
		}
		decl.Private = append(decl.Private, net)
	}

	if divert && netCount > 0 && devCount > 0 {
		last := decl.Private[netCount-1]
		last.Devices[devCount-1].Diversion = &spec.Diversion{
			Target:     spec.TargetList{"host0"},
			TargetType: spec.TargetInternal,
		}
	}
	return decl
}

func TestSynthesisProperties(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20

	properties := gopter.NewProperties(parameters)

	counts := []gopter.Gen{
		gen.IntRange(0, 3), // groups
		gen.IntRange(0, 4), // networks
		gen.IntRange(0, 5), // devices per scope
		gen.Bool(),         // nest networks into a chain
		gen.Bool(),         // add a diversion
	}

	properties.Property("synthesis is deterministic", prop.ForAll(
		func(groups, nets, devs int, nest, divert bool) bool {
			decl := buildDeclaration(groups, nets, devs, nest, divert)

			s1, err := New(Options{})
			if err != nil {
				return false
			}
			s2, err := New(Options{})
			if err != nil {
				return false
			}

			r1, err1 := s1.Synthesize(decl)
			r2, err2 := s2.Synthesize(decl)
			if err1 != nil || err2 != nil {
				return false
			}
			return reflect.DeepEqual(r1.Diagram, r2.Diagram) && r1.Stats == r2.Stats
		},
		counts[0], counts[1], counts[2], counts[3], counts[4],
	))

	properties.Property("node and edge ids are unique", prop.ForAll(
		func(groups, nets, devs int, nest, divert bool) bool {
			result, err := mustRun(groups, nets, devs, nest, divert)
			if err != nil {
				return false
			}

			nodeIDs := make(map[string]bool)
			for _, n := range result.Diagram.Nodes {
				if nodeIDs[n.ID] {
					return false
				}
				nodeIDs[n.ID] = true
			}
			edgeIDs := make(map[string]bool)
			for _, e := range result.Diagram.Edges {
				if edgeIDs[e.ID] {
					return false
				}
				edgeIDs[e.ID] = true
			}
			return true
		},
		counts[0], counts[1], counts[2], counts[3], counts[4],
	))

	properties.Property("node count follows the declaration", prop.ForAll(
		func(groups, nets, devs int, nest, divert bool) bool {
			result, err := mustRun(groups, nets, devs, nest, divert)
			if err != nil {
				return false
			}

			// Two internet anchors, one container per group/network, one
			// node per device, one gateway per network.
			want := 2 + groups*(1+devs) + nets*(2+devs)
			return len(result.Diagram.Nodes) == want && result.Stats.Nodes == want
		},
		counts[0], counts[1], counts[2], counts[3], counts[4],
	))

	properties.Property("nesting chain puts one root up front", prop.ForAll(
		func(groups, nets, devs int, divert bool) bool {
			result, err := mustRun(groups, nets, devs, true, divert)
			if err != nil {
				return false
			}

			wantRoots := 0
			if nets > 0 {
				wantRoots = 1
			}
			if result.Stats.Roots != wantRoots || result.Stats.Subnets != nets-wantRoots {
				return false
			}

			for n := 1; n < nets; n++ {
				child, ok := result.Diagram.NodeByID(fmt.Sprintf("net-zone%d", n))
				if !ok || child.ParentContainerID != fmt.Sprintf("net-zone%d", n-1) {
					return false
				}
			}
			return true
		},
		counts[0], counts[1], counts[2], counts[4],
	))

	properties.TestingRun(t)
}

func mustRun(groups, nets, devs int, nest, divert bool) (*Result, error) {
	s, err := New(Options{})
	if err != nil {
		return nil, err
	}
	return s.Synthesize(buildDeclaration(groups, nets, devs, nest, divert))
}
