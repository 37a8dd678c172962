package view

import (
	"maps"
	"slices"

	"github.com/matzehuels/scenemap/pkg/scene"
)

// State is the serializable interactive state of a view. Nodes are referred
// to by handle so that a state survives a rebuild of the forest.
type State struct {
	Pinned   []scene.Handle         `json:"pinned,omitempty"`
	Expanded []scene.Handle         `json:"expanded,omitempty"`
	Offsets  map[scene.Handle]Point `json:"offsets,omitempty"`
	Focus    scene.Handle           `json:"focus,omitempty"`
	Toggles  Toggles                `json:"toggles"`
}

// Capture records the current pins, expansion flags, drag offsets, focus and
// draw toggles of v.
func Capture(v *View) State {
	s := State{Toggles: v.opts.toggles()}
	for _, r := range v.forest.Roots() {
		if r.Visible {
			s.Pinned = append(s.Pinned, r.Context)
		}
		if off := v.offsets[r.Index]; off != (Point{}) {
			if s.Offsets == nil {
				s.Offsets = make(map[scene.Handle]Point)
			}
			s.Offsets[r.Context] = off
		}
	}
	for _, n := range v.forest.Nodes() {
		if n.Expanded {
			s.Expanded = append(s.Expanded, n.Context)
		}
	}
	if v.focus != nil {
		s.Focus = v.focus.Context
	}
	return s
}

// Apply resets v to s and runs a full relayout. Handles that no longer exist
// in the forest are ignored. It returns the number of ignored handles.
func Apply(v *View, s State) int {
	missing := 0
	for _, n := range v.forest.Nodes() {
		n.Visible = false
		n.Expanded = false
	}
	clear(v.offsets)
	v.focus = nil
	v.opts.setToggles(s.Toggles)

	lookup := func(h scene.Handle) *scene.Node {
		n, ok := v.forest.Lookup(h)
		if !ok {
			missing++
			return nil
		}
		return n
	}

	for _, h := range s.Pinned {
		if n := lookup(h); n != nil {
			n.Root().Visible = true
		}
	}
	for _, h := range s.Expanded {
		if n := lookup(h); n != nil {
			n.Expanded = true
		}
	}
	for _, h := range slices.Sorted(maps.Keys(s.Offsets)) {
		if n := lookup(h); n != nil && n.IsRoot() {
			v.offsets[n.Index] = s.Offsets[h]
		}
	}
	if s.Focus != "" {
		if n := lookup(s.Focus); n != nil {
			v.focus = n.Root()
		}
	}
	v.Relayout()
	return missing
}
