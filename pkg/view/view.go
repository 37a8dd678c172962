package view

import (
	"github.com/matzehuels/scenemap/pkg/scene"
)

// View holds the interactive state of one forest: pins, expansion flags (on
// the nodes themselves), rectangles, focus and the current pointer gesture.
//
// A View is not safe for concurrent use.
type View struct {
	forest *scene.Forest
	opts   Options
	cfg    Config

	rects   []Rect  // By node index; relative to parent, absolute for roots
	placed  []bool  // rects[i] is valid
	offsets []Point // Accumulated drag offsets, roots only

	focus *scene.Node
	press pointer
}

// New creates a view over forest and runs a full layout. Node flags are taken
// as they are; a freshly built forest has nothing pinned.
func New(forest *scene.Forest, opts Options) *View {
	opts.Layout = opts.Layout.withDefaults()
	n := forest.Len()
	v := &View{
		forest:  forest,
		opts:    opts,
		cfg:     opts.Layout,
		rects:   make([]Rect, n),
		placed:  make([]bool, n),
		offsets: make([]Point, n),
	}
	v.Relayout()
	return v
}

// Forest returns the underlying forest.
func (v *View) Forest() *scene.Forest { return v.forest }

// Options returns the effective options.
func (v *View) Options() Options { return v.opts }

// Config returns the effective layout constants.
func (v *View) Config() Config { return v.cfg }

// Focus returns the root last passed to SetExclusiveVisibleRoot, or nil.
func (v *View) Focus() *scene.Node { return v.focus }

// SetToggles replaces the draw toggles and runs a full relayout, since the
// roots toggle changes which roots take a column slot.
func (v *View) SetToggles(t Toggles) {
	v.opts.setToggles(t)
	v.Relayout()
}

// Toggles returns the current draw toggles.
func (v *View) Toggles() Toggles { return v.opts.toggles() }

func (v *View) owns(n *scene.Node) bool {
	return n != nil && v.forest.Node(n.Index) == n
}

func (v *View) debug(msg string, kv ...any) {
	if v.opts.Logger != nil {
		v.opts.Logger.Debug(msg, kv...)
	}
}

// =============================================================================
// Visibility & Expansion
// =============================================================================

// IsRendered reports whether n is drawn under the current pins, expansion
// flags and draw toggles. A rendered node is always visible in tree.
func (v *View) IsRendered(n *scene.Node) bool {
	if !v.owns(n) {
		return false
	}
	return v.isRendered(n)
}

func (v *View) isRendered(n *scene.Node) bool {
	connected := n.HasOutputsRecursive() || n.HasInputsRecursive()
	if n.Parent == nil {
		return n.Visible && (connected || v.opts.DrawRootsWithoutConnections)
	}
	if !n.Parent.Expanded || !v.isRendered(n.Parent) {
		return false
	}
	return connected || v.opts.DrawAnyWithoutConnections
}

// SetExclusiveVisibleRoot unpins every root, pins n's root, focuses it and
// runs a full relayout. Nodes outside the forest are ignored.
func (v *View) SetExclusiveVisibleRoot(n *scene.Node) bool {
	if !v.owns(n) {
		return false
	}
	for _, r := range v.forest.Roots() {
		r.Visible = false
	}
	root := n.Root()
	root.Visible = true
	v.focus = root
	v.debug("focus", "root", root.Title)
	v.Relayout()
	return true
}

// ToggleExpanded flips n's expansion flag and relayouts only n's subtree.
// Rectangles outside the subtree are left untouched.
func (v *View) ToggleExpanded(n *scene.Node) bool {
	if !v.owns(n) {
		return false
	}
	n.Expanded = !n.Expanded
	v.debug("toggle", "node", n.Title, "expanded", n.Expanded)
	if v.placed[n.Index] {
		v.layoutChildren(n)
	}
	return true
}

// SetExpanded sets n's expansion flag, relayouting its subtree if it changed.
func (v *View) SetExpanded(n *scene.Node, expanded bool) bool {
	if !v.owns(n) || n.Expanded == expanded {
		return false
	}
	return v.ToggleExpanded(n)
}

// DigForConnections pins the root of every node one hop away from the
// pinned roots, in either direction, and runs a full relayout. Only direct
// neighbours of the pinned set are considered. It returns the roots that
// were newly pinned, in root order.
func (v *View) DigForConnections() []*scene.Node {
	var pinned []*scene.Node
	for _, r := range v.forest.Roots() {
		if r.Visible {
			pinned = append(pinned, r)
		}
	}

	reached := make(map[*scene.Node]bool)
	for _, r := range pinned {
		for _, n := range r.IncomingConnectionsRecursive() {
			reached[n.Root()] = true
		}
	}
	for _, r := range pinned {
		for _, n := range r.CurrentAndChildConnections() {
			reached[n.Root()] = true
		}
	}

	var added []*scene.Node
	for _, r := range v.forest.Roots() {
		if reached[r] && !r.Visible {
			r.Visible = true
			added = append(added, r)
		}
	}
	v.debug("dig", "pinned", len(pinned), "added", len(added))
	v.Relayout()
	return added
}

// Pin pins n's root and runs a full relayout.
func (v *View) Pin(n *scene.Node) bool { return v.setPinned(n, true) }

// Unpin unpins n's root and runs a full relayout. Unpinning the focused root
// clears the focus.
func (v *View) Unpin(n *scene.Node) bool { return v.setPinned(n, false) }

func (v *View) setPinned(n *scene.Node, pinned bool) bool {
	if !v.owns(n) {
		return false
	}
	root := n.Root()
	root.Visible = pinned
	if !pinned && v.focus == root {
		v.focus = nil
	}
	v.Relayout()
	return true
}

// ShowAll pins every root and runs a full relayout.
func (v *View) ShowAll() {
	for _, r := range v.forest.Roots() {
		r.Visible = true
	}
	v.Relayout()
}

// Pinned returns the pinned roots in root order.
func (v *View) Pinned() []*scene.Node {
	var out []*scene.Node
	for _, r := range v.forest.Roots() {
		if r.Visible {
			out = append(out, r)
		}
	}
	return out
}
