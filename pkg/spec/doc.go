// Package spec defines the network topology declaration: the static,
// immutable description of backbone groups, private networks, gateways,
// devices, and traffic diversions that the synthesis engine turns into a
// positioned diagram.
//
// # Overview
//
// A declaration has exactly two top-level collections:
//
//   - public.autonomous_systems: an ordered list of backbone groups
//     (autonomous-system-like public entities with externally reachable
//     devices)
//   - private: a mapping of network name to private network; insertion
//     order is significant for layout and preserved by the loaders
//
// Subnet nesting is never declared explicitly. It is inferred later by the
// topology resolver from gateway interface typing: an interface whose type
// names another declared network marks that network as this one's parent.
//
// # Loading
//
// Declarations are authored in YAML or JSON. [Load] selects the format from
// the file extension, [Parse] sniffs it from the content:
//
//	decl, err := spec.Load("homelab.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := spec.Validate(decl); err != nil {
//	    return err // terminal: the whole topology is unrenderable
//	}
//
// Both loaders preserve the declaration order of private networks and accept
// a diversion target as either a single name or a list of names. Unknown
// fields are ignored; missing optional fields default to absent.
//
// # Validation
//
// [Validate] enforces the structural rules a malformed declaration would
// otherwise push into the synthesis engine: every network has a gateway,
// names are well-formed and unique within their scope, and enum-like fields
// (regions, target types, traffic types) hold known values. Violations are
// terminal errors with code INVALID_DECLARATION.
package spec
