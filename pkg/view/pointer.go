package view

import (
	"math"

	"github.com/matzehuels/scenemap/pkg/scene"
)

type pointer struct {
	node     *scene.Node
	distance float64
}

// Press starts a pointer gesture on n. The accumulated drag distance is
// reset. Presses on nodes that are not rendered are ignored.
func (v *View) Press(n *scene.Node) bool {
	v.press = pointer{}
	if !v.owns(n) || !v.isRendered(n) || !n.IsVisibleInTree() {
		return false
	}
	v.press.node = n
	return true
}

// PressAt starts a pointer gesture on the node under p.
func (v *View) PressAt(p Point) (*scene.Node, bool) {
	n, ok := v.HitTest(p)
	if !ok {
		v.press = pointer{}
		return nil, false
	}
	return n, v.Press(n)
}

// Drag moves the pressed root by (dx, dy) and accumulates the absolute
// travel. Only roots move; drags on other nodes still count toward the
// click threshold. It reports whether anything moved.
func (v *View) Drag(dx, dy float64) bool {
	n := v.press.node
	if n == nil {
		return false
	}
	v.press.distance += math.Abs(dx) + math.Abs(dy)
	if !n.IsRoot() {
		return false
	}
	d := Point{dx, dy}
	v.rects[n.Index] = v.rects[n.Index].Offset(d)
	v.offsets[n.Index] = v.offsets[n.Index].Add(d)
	return true
}

// Release ends the gesture. If the accumulated travel stayed within the drag
// threshold it is a click: clicking a node with children toggles its
// expansion. It returns the clicked node, or false for drags and for
// releases without a press.
func (v *View) Release() (*scene.Node, bool) {
	p := v.press
	v.press = pointer{}
	if p.node == nil || p.distance > v.cfg.DragThreshold {
		return nil, false
	}
	if !p.node.IsLeaf() {
		v.ToggleExpanded(p.node)
	}
	return p.node, true
}

// Offset returns the accumulated drag offset of a root.
func (v *View) Offset(root *scene.Node) Point {
	if !v.owns(root) {
		return Point{}
	}
	return v.offsets[root.Index]
}

// SetOffset replaces the drag offset of a root and moves its rectangle
// accordingly.
func (v *View) SetOffset(root *scene.Node, p Point) bool {
	if !v.owns(root) || !root.IsRoot() {
		return false
	}
	delta := Point{p.X - v.offsets[root.Index].X, p.Y - v.offsets[root.Index].Y}
	v.offsets[root.Index] = p
	if v.placed[root.Index] {
		v.rects[root.Index] = v.rects[root.Index].Offset(delta)
	}
	return true
}
