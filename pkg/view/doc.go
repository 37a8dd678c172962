// Package view implements the interactive side of a scene map: which nodes
// are rendered, where they are placed, and how connections are routed between
// them.
//
// # Overview
//
// A [View] wraps a [scene.Forest] and owns all layout state for it. It reacts
// to the interactive commands a host UI exposes:
//
//   - [View.SetExclusiveVisibleRoot] pins a single root and focuses it
//   - [View.ToggleExpanded] expands or collapses a node in place
//   - [View.DigForConnections] pins the roots one hop away from the pinned set
//   - [View.Pin], [View.Unpin] and [View.ShowAll] adjust pins directly
//   - [View.Press], [View.Drag] and [View.Release] handle pointer gestures
//
// Every command mutates node flags and then recomputes rectangles: pin
// changes run a full relayout, expand toggles relayout only the toggled
// subtree so that every other rectangle stays untouched.
//
// # Layout
//
// Roots are dealt round-robin into [Config.Columns] columns, each with its
// own vertical cursor. A root occupies its header height and the cursor
// advances by that height plus [Config.Gutter]. Children of an expanded node
// are stacked below its header, relative to the parent's origin, each
// advancing the cursor by its full computed height (see [View.NodeHeight]).
// Per-depth header heights come from [Config.LevelHeights]; the last entry is
// reused for deeper levels.
//
// Rectangles are stored relative to the parent (roots are absolute) in slices
// indexed by [scene.Node.Index]. [View.AbsoluteRect] resolves the chain on
// demand.
//
// # Routing
//
// [View.Route] walks every pinned root. Expanded nodes hand routing down to
// their children; collapsed nodes and leaves draw every edge owned by their
// subtree from themselves. The target end is redirected to
// [scene.Node.HighestAncestorWithExpandedParentOrRoot] so a line always ends
// at a rendered node. Edges into unpinned roots are dropped, and edges whose
// drawn endpoints share a parent are hidden unless
// [Options.DrawSiblingConnections] is set.
//
// # Frames
//
// [View.Frame] assembles the complete draw request for a rendering
// collaborator: every rendered node with its absolute rectangle and every
// routed connection with its [Bezier] curve.
package view
