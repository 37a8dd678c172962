// Package scene provides the object-graph model rendered by scenemap: a forest
// of root objects, their components, and the fields of those components.
//
// # Overview
//
// A [Forest] holds every [Node] discovered by a build pass. Nodes form strict
// trees: each non-root node has exactly one parent and children are owned
// exclusively by that parent. Leaf nodes represent fields; a reference-typed
// field that resolves to another node in the forest carries a connection edge
// to it. Connections and incoming connections are kept as exact inverses.
//
//	root (Object)
//	 └── component (Component)
//	      └── field (Type) ──────▶ node of another root
//
// # Derived Properties
//
// Every query that depends on tree structure or expansion state is computed on
// demand rather than cached: [Node.Depth], [Node.Root], [Node.HasOutputsRecursive],
// [Node.CurrentAndChildConnections], [Node.IsVisibleInTree],
// [Node.HighestAncestorWithExpandedParentOrRoot] and friends. Trees are small
// and mutations are driven by user events, so recomputation is cheap.
//
// # View Flags
//
// [Node.Visible] is the per-root pin that controls whether a root subtree
// participates in layout at all; it is inert on non-root nodes.
// [Node.Expanded] controls whether a node's children are rendered individually
// or collapsed into the node. Both flags are mutated in place by the view
// engine in package view.
//
// # Arena Indices
//
// Each node receives a stable [Node.Index] when it is added to a forest.
// Layout state elsewhere is stored in slices indexed the same way, which keeps
// hot paths free of map lookups.
//
// # Concurrency
//
// Forests are not safe for concurrent use. The whole model is driven by a
// single event loop; callers that share a forest across goroutines must
// serialize access.
package scene
