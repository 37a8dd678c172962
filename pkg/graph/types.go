package graph

import (
	"encoding/json"
	"fmt"

	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
)

// =============================================================================
// Constants - Single Source of Truth
// =============================================================================

// Output formats.
const (
	FormatSVG  = "svg"
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// Formats lists every output format in display order.
var Formats = []string{FormatSVG, FormatJSON, FormatDOT, FormatPNG, FormatPDF}

// Node kinds.
const (
	KindRoot      = "root"
	KindComponent = "component"
	KindField     = "field"
)

// Route directions, as written by [view.Direction.String].
const (
	DirectionNeutral  = "neutral"
	DirectionOutgoing = "outgoing"
	DirectionIncoming = "incoming"
)

// NoParent marks a root in [Node.Parent].
const NoParent = -1

// =============================================================================
// Scene - Forest Serialization
// =============================================================================

// Scene is the canonical serialization format for a built forest.
// Used for snapshots, API responses and caching.
//
// Nodes appear in forest pre-order, so a node's parent always precedes it and
// Index equals its position. Roots keep their column order.
type Scene struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// Node is one serialized forest node.
type Node struct {
	Index     int    `json:"index" bson:"index"`
	Handle    string `json:"handle" bson:"handle"`
	Title     string `json:"title" bson:"title"`
	Kind      string `json:"kind" bson:"kind"`
	Parent    int    `json:"parent" bson:"parent"` // NoParent for roots
	Reference bool   `json:"reference,omitempty" bson:"reference,omitempty"`
}

// IsRoot returns true if the node has no parent.
func (n *Node) IsRoot() bool { return n.Parent == NoParent }

// Edge is a connection between two node indices.
type Edge struct {
	From int `json:"from" bson:"from"`
	To   int `json:"to" bson:"to"`
}

// =============================================================================
// Forest ↔ Scene Conversion
// =============================================================================

// FromForest converts a forest to its serialization format.
func FromForest(f *scene.Forest, name string) Scene {
	out := Scene{
		Name:  name,
		Nodes: make([]Node, f.Len()),
		Edges: make([]Edge, 0, f.EdgeCount()),
	}
	for i, n := range f.Nodes() {
		parent := NoParent
		if n.Parent != nil {
			parent = n.Parent.Index
		}
		out.Nodes[i] = Node{
			Index:     n.Index,
			Handle:    string(n.Context),
			Title:     n.Title,
			Kind:      n.Kind.String(),
			Parent:    parent,
			Reference: n.Reference,
		}
	}
	for _, e := range f.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From.Index, To: e.To.Index})
	}
	return out
}

// Inspector returns an inspector that reproduces the snapshot when passed to
// [build.Build]. Every edge becomes a reference field resolving to the
// target's handle; a field with several edges keeps the first.
func (s Scene) Inspector() (*build.StaticInspector, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	target := make(map[int]string, len(s.Edges))
	for _, e := range s.Edges {
		if _, dup := target[e.From]; !dup {
			target[e.From] = s.Nodes[e.To].Handle
		}
	}

	insp := new(build.StaticInspector)
	for _, n := range s.Nodes {
		h := scene.Handle(n.Handle)
		if n.IsRoot() {
			insp.AddRoot(h, n.Title)
			continue
		}
		owner := scene.Handle(s.Nodes[n.Parent].Handle)
		if n.Reference {
			insp.AddReference(owner, h, n.Title, scene.Handle(target[n.Index]))
		} else {
			insp.AddChild(owner, h, n.Title)
		}
	}
	return insp, nil
}

// Validate checks that indices are consistent.
func (s Scene) Validate() error {
	for i, n := range s.Nodes {
		if n.Index != i {
			return fmt.Errorf("node %q: index %d at position %d", n.Handle, n.Index, i)
		}
		if n.Handle == "" {
			return fmt.Errorf("node %d: empty handle", i)
		}
		if n.Parent != NoParent && (n.Parent < 0 || n.Parent >= i) {
			return fmt.Errorf("node %q: parent %d must precede it", n.Handle, n.Parent)
		}
	}
	for _, e := range s.Edges {
		if e.From < 0 || e.From >= len(s.Nodes) || e.To < 0 || e.To >= len(s.Nodes) {
			return fmt.Errorf("edge %d→%d: endpoint out of range", e.From, e.To)
		}
	}
	return nil
}

// UnmarshalScene deserializes JSON bytes to a Scene and validates it.
func UnmarshalScene(data []byte) (Scene, error) {
	var s Scene
	if err := json.Unmarshal(data, &s); err != nil {
		return Scene{}, err
	}
	if err := s.Validate(); err != nil {
		return Scene{}, err
	}
	return s, nil
}
