package view

import "github.com/matzehuels/scenemap/pkg/scene"

// Direction is the style hint of a routed connection relative to the focused
// root.
type Direction int

const (
	// Neutral connections neither leave nor enter the focused root.
	Neutral Direction = iota
	// Outgoing connections leave the focused root's subtree.
	Outgoing
	// Incoming connections enter the focused root's subtree.
	Incoming
)

// String returns the lowercase name of the direction.
func (d Direction) String() string {
	switch d {
	case Outgoing:
		return "outgoing"
	case Incoming:
		return "incoming"
	default:
		return "neutral"
	}
}

// Route is one connection as it should be drawn.
type Route struct {
	From   *scene.Node // Drawn source endpoint
	To     *scene.Node // Drawn target endpoint
	Source *scene.Node // Leaf that owns the edge
	Target *scene.Node // Node the edge points at

	FromRect Rect // Absolute rectangle of From
	ToRect   Rect // Absolute rectangle of To

	Direction Direction
	Collapsed bool // At least one endpoint was redirected to an ancestor
	Curve     Bezier
}

// Route computes the drawn connections for the current state.
//
// Traversal starts at every pinned root. An expanded node with children
// delegates to its children; any other node draws every edge owned by its
// subtree, from itself. Each edge is therefore drawn at most once.
func (v *View) Route() []Route {
	var routes []Route
	for _, r := range v.forest.Roots() {
		if r.Visible && v.isRendered(r) {
			routes = v.routeFrom(r, routes)
		}
	}
	return routes
}

func (v *View) routeFrom(n *scene.Node, routes []Route) []Route {
	if n.Expanded && !n.IsLeaf() {
		for _, c := range n.Children {
			routes = v.routeFrom(c, routes)
		}
		return routes
	}

	n.Walk(func(src *scene.Node) bool {
		for _, target := range src.Connections {
			if rt, ok := v.route(n, src, target); ok {
				routes = append(routes, rt)
			}
		}
		return true
	})
	return routes
}

func (v *View) route(from, src, target *scene.Node) (Route, bool) {
	if !target.IsRootVisible() {
		return Route{}, false
	}
	to := v.drawnEndpoint(target)

	// Siblings are judged on the edge's own target, not on the node it is
	// drawn to.
	if !v.opts.DrawSiblingConnections && from.Parent != nil && from.Parent == target.Parent {
		return Route{}, false
	}

	fr, ok := v.AbsoluteRect(from)
	if !ok {
		return Route{}, false
	}
	tr, ok := v.AbsoluteRect(to)
	if !ok {
		return Route{}, false
	}

	return Route{
		From:      from,
		To:        to,
		Source:    src,
		Target:    target,
		FromRect:  fr,
		ToRect:    tr,
		Direction: v.direction(from, to),
		Collapsed: from != src || to != target,
		Curve:     Curve(fr, tr, v.cfg.SameLineThreshold),
	}, true
}

// drawnEndpoint redirects a hidden target to the node that represents it on
// screen. Expansion flags left set below a collapsed ancestor are skipped by
// lifting further until the node is visible in tree.
func (v *View) drawnEndpoint(target *scene.Node) *scene.Node {
	to := target.HighestAncestorWithExpandedParentOrRoot()
	for to.Parent != nil && !to.IsVisibleInTree() {
		to = to.Parent
	}
	return to
}

func (v *View) direction(from, to *scene.Node) Direction {
	if v.focus == nil {
		return Neutral
	}
	switch {
	case from.Root() == v.focus:
		return Outgoing
	case to.Root() == v.focus:
		return Incoming
	default:
		return Neutral
	}
}
