package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/scenemap/pkg/view"
)

// =============================================================================
// Frame - Draw Request Serialization
// =============================================================================

// Frame is the serialization format for one repaint of a view. Renderers and
// API clients consume it without access to the forest.
type Frame struct {
	Width   float64      `json:"width" bson:"width"`
	Height  float64      `json:"height" bson:"height"`
	Nodes   []FrameNode  `json:"nodes" bson:"nodes"`
	Routes  []Route      `json:"routes" bson:"routes"`
	Toggles view.Toggles `json:"toggles" bson:"toggles"`
}

// FrameNode is one drawn box. The rectangle is absolute and already shifted
// so the frame starts at the origin.
type FrameNode struct {
	Index    int       `json:"index" bson:"index"`
	Handle   string    `json:"handle" bson:"handle"`
	Title    string    `json:"title" bson:"title"`
	Depth    int       `json:"depth" bson:"depth"`
	Rect     view.Rect `json:"rect" bson:"rect"`
	Leaf     bool      `json:"leaf,omitempty" bson:"leaf,omitempty"`
	Expanded bool      `json:"expanded,omitempty" bson:"expanded,omitempty"`
	Focused  bool      `json:"focused,omitempty" bson:"focused,omitempty"`
}

// Route is one drawn connection.
type Route struct {
	From      int         `json:"from" bson:"from"`     // Drawn source node index
	To        int         `json:"to" bson:"to"`         // Drawn target node index
	Source    int         `json:"source" bson:"source"` // Leaf owning the edge
	Target    int         `json:"target" bson:"target"` // Node the edge points at
	Direction string      `json:"direction" bson:"direction"`
	Collapsed bool        `json:"collapsed,omitempty" bson:"collapsed,omitempty"`
	Curve     view.Bezier `json:"curve" bson:"curve"`
}

var directions = map[string]bool{
	DirectionNeutral:  true,
	DirectionOutgoing: true,
	DirectionIncoming: true,
}

// FromFrame converts a view frame to its serialization format, translating
// every coordinate by margin minus the frame's top-left corner.
func FromFrame(f view.Frame, margin float64) Frame {
	shift := view.Point{X: margin - f.Bounds.X, Y: margin - f.Bounds.Y}
	out := Frame{
		Width:   f.Bounds.W + 2*margin,
		Height:  f.Bounds.H + 2*margin,
		Nodes:   make([]FrameNode, 0, len(f.Nodes)),
		Routes:  make([]Route, 0, len(f.Routes)),
		Toggles: f.Toggles,
	}
	for _, n := range f.Nodes {
		out.Nodes = append(out.Nodes, FrameNode{
			Index:    n.Node.Index,
			Handle:   string(n.Node.Context),
			Title:    n.Node.Title,
			Depth:    n.Depth,
			Rect:     n.Rect.Offset(shift),
			Leaf:     n.Leaf,
			Expanded: n.Expanded,
			Focused:  n.Focused,
		})
	}
	for _, r := range f.Routes {
		c := r.Curve
		out.Routes = append(out.Routes, Route{
			From:      r.From.Index,
			To:        r.To.Index,
			Source:    r.Source.Index,
			Target:    r.Target.Index,
			Direction: r.Direction.String(),
			Collapsed: r.Collapsed,
			Curve: view.Bezier{
				Start: c.Start.Add(shift),
				C1:    c.C1.Add(shift),
				C2:    c.C2.Add(shift),
				End:   c.End.Add(shift),
				Arrow: [2]view.Point{c.Arrow[0].Add(shift), c.Arrow[1].Add(shift)},
			},
		})
	}
	return out
}

// Node returns the drawn node with the given forest index.
func (f Frame) Node(index int) (FrameNode, bool) {
	for _, n := range f.Nodes {
		if n.Index == index {
			return n, true
		}
	}
	return FrameNode{}, false
}

// Validate checks that every route endpoint is a drawn node.
func (f Frame) Validate() error {
	if f.Width < 0 || f.Height < 0 {
		return fmt.Errorf("negative frame size %gx%g", f.Width, f.Height)
	}
	drawn := make(map[int]bool, len(f.Nodes))
	for _, n := range f.Nodes {
		drawn[n.Index] = true
	}
	for i, r := range f.Routes {
		if !drawn[r.From] || !drawn[r.To] {
			return fmt.Errorf("route %d: endpoint %d→%d not drawn", i, r.From, r.To)
		}
		if !directions[r.Direction] {
			return fmt.Errorf("route %d: unknown direction %q", i, r.Direction)
		}
	}
	return nil
}

// UnmarshalFrame deserializes JSON bytes to a Frame and validates it.
func UnmarshalFrame(data []byte) (Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, err
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}
