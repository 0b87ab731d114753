// Package synth turns a validated network declaration into a positioned
// diagram: the layout synthesis engine.
//
// # Synthesis Order
//
// One call to [Synthesizer.Synthesize] builds the whole node/edge graph in a
// fixed sequence. The order matters because later steps resolve node IDs that
// earlier steps created:
//
//  1. Two fixed internet nodes (domestic, international) and the edge
//     connecting them.
//  2. Backbone groups in declaration order, left to right, each with its
//     device row and per-device internet uplinks.
//  3. Root private networks in declaration order, recursing into nested
//     subnets: container, gateway row, device grid, child subnets.
//  4. Inferred interface edges from gateway interfaces whose type names an
//     already-emitted node.
//  5. Structural overrides from the configured fixup table.
//  6. Pending router diversions recorded during step 3.
//
// After the structural graph exists, the diversion resolver appends overlay
// edges (CDN fan-out, external detours, plain redirects) for every emitted
// node that declared one.
//
// # Determinism
//
// Synthesis is a single-threaded batch computation over the immutable
// declaration. All state (node/edge lists, lookup indices, pending work) is
// local to one run; re-running with the same declaration and options yields
// byte-identical output. Unresolvable diversion or interface targets degrade
// the output gracefully (the edge is skipped and counted); only a malformed
// declaration or a subnet nesting cycle aborts the run.
//
// # Edge Upgrades
//
// The node and edge lists are append-only with one exception: when a device
// inside a network declares an external-server diversion, the provisional
// gateway-link edge that was just emitted for it is replaced in its slot by a
// re-identified, re-styled diversion edge. This is the only in-place edge
// replacement; every other duplicate ID is treated as a synthesis defect.
package synth
