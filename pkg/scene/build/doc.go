// Package build discovers a [scene.Forest] from an external object inspector.
//
// # Overview
//
// The builder is the only bridge between the visualized domain and the node
// model. It asks an [Inspector] for root objects, their components and the
// fields of those components, wires parent links as it goes, and resolves
// reference-typed fields into connection edges:
//
//  1. Build the three-level forest breadth-first (root, component, field)
//  2. Flatten it in pre-order and index every node by its handle
//  3. Resolve each reference-typed leaf; connect it to the first node whose
//     handle equals the resolved value
//  4. Stable-sort roots by how many outgoing edges their subtree owns,
//     densest first, roots with no outgoing edges last
//
// # Failure Handling
//
// Build never fails. Entries with empty handles are skipped, references that
// resolve to nothing are ignored, and references that resolve to a handle
// outside the discovered forest are dropped and counted in [Stats.Dropped].
//
// # Inspectors
//
// [StaticInspector] is an in-memory inspector for tests and examples.
// Inspectors for scene documents and live Go values live under pkg/inspect.
package build
