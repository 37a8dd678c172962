package view

import "github.com/matzehuels/scenemap/pkg/scene"

// NodeHeight returns the full height of n: its header height when collapsed
// or a leaf, otherwise the header plus the heights of all children.
func (v *View) NodeHeight(n *scene.Node) float64 {
	h := v.cfg.HeightAt(n.Depth())
	if !n.Expanded || n.IsLeaf() {
		return h
	}
	for _, c := range n.Children {
		h += v.NodeHeight(c)
	}
	return h
}

// Relayout recomputes every rectangle from the current pins and expansion
// flags. Rendered roots are dealt round-robin into columns; drag offsets are
// reapplied on top. Calling it twice without a state change in between
// yields identical rectangles.
func (v *View) Relayout() {
	clear(v.placed)

	cursors := make([]float64, v.cfg.Columns)
	column := 0
	for _, r := range v.forest.Roots() {
		if !v.isRendered(r) {
			continue
		}
		header := v.cfg.HeightAt(0)
		v.rects[r.Index] = Rect{
			X: float64(column) * v.cfg.ColumnWidth(),
			Y: v.cfg.TopMargin + cursors[column],
			W: v.cfg.NodeWidth,
			H: header,
		}.Offset(v.offsets[r.Index])
		v.placed[r.Index] = true
		cursors[column] += header + v.cfg.Gutter

		v.layoutChildren(r)
		column = (column + 1) % v.cfg.Columns
	}
}

// layoutChildren stacks the children of an expanded node below its header,
// relative to its origin, and recurses into expanded children.
func (v *View) layoutChildren(parent *scene.Node) {
	if !parent.Expanded {
		return
	}
	pr := v.rects[parent.Index]
	cursor := pr.H
	for _, c := range parent.Children {
		v.rects[c.Index] = Rect{X: 0, Y: cursor, W: pr.W, H: v.cfg.HeightAt(c.Depth())}
		v.placed[c.Index] = true
		cursor += v.NodeHeight(c)
		v.layoutChildren(c)
	}
}

// Rect returns n's stored rectangle, relative to its parent for non-roots.
func (v *View) Rect(n *scene.Node) (Rect, bool) {
	if !v.owns(n) || !v.placed[n.Index] {
		return Rect{}, false
	}
	return v.rects[n.Index], true
}

// AbsoluteRect resolves n's rectangle in view coordinates by adding the
// origin of every ancestor. It fails if n or an ancestor has not been laid
// out.
func (v *View) AbsoluteRect(n *scene.Node) (Rect, bool) {
	r, ok := v.Rect(n)
	if !ok {
		return Rect{}, false
	}
	if n.Parent == nil {
		return r, true
	}
	pr, ok := v.AbsoluteRect(n.Parent)
	if !ok {
		return Rect{}, false
	}
	return r.Offset(pr.Min()), true
}

// HitTest returns the deepest rendered node whose absolute rectangle contains
// p. Roots later in column order win over earlier ones when they overlap.
func (v *View) HitTest(p Point) (*scene.Node, bool) {
	var hit *scene.Node
	for _, r := range v.forest.Roots() {
		if !v.isRendered(r) {
			continue
		}
		r.Walk(func(n *scene.Node) bool {
			if n != r && !v.isRendered(n) {
				return false
			}
			if ar, ok := v.AbsoluteRect(n); ok && ar.Contains(p) && n.IsVisibleInTree() {
				hit = n
			}
			return n.Expanded
		})
	}
	return hit, hit != nil
}
