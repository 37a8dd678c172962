package view

import "github.com/matzehuels/scenemap/pkg/scene"

// FrameNode is one rendered node of a frame.
type FrameNode struct {
	Node     *scene.Node
	Rect     Rect // Absolute
	Depth    int
	Leaf     bool
	Expanded bool
	Root     bool
	Focused  bool
}

// Frame is the complete draw request for one repaint.
type Frame struct {
	Nodes   []FrameNode
	Routes  []Route
	Bounds  Rect // Union of all node rectangles
	Toggles Toggles
}

// Frame collects every rendered node in root order and pre-order within each
// root, plus the routed connections.
func (v *View) Frame() Frame {
	f := Frame{Toggles: v.opts.toggles()}
	for _, r := range v.forest.Roots() {
		if !v.isRendered(r) {
			continue
		}
		r.Walk(func(n *scene.Node) bool {
			if n != r && !v.isRendered(n) {
				return false
			}
			rect, ok := v.AbsoluteRect(n)
			if !ok {
				return false
			}
			f.Nodes = append(f.Nodes, FrameNode{
				Node:     n,
				Rect:     rect,
				Depth:    n.Depth(),
				Leaf:     n.IsLeaf(),
				Expanded: n.Expanded,
				Root:     n.IsRoot(),
				Focused:  n == v.focus,
			})
			f.Bounds = f.Bounds.Union(rect)
			return n.Expanded
		})
	}
	f.Routes = v.Route()
	return f
}
