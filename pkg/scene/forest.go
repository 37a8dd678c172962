package scene

import (
	"errors"
	"slices"
)

var (
	// ErrParentMismatch is returned by [Forest.Validate] when a child's Parent
	// does not point back at the node that lists it.
	ErrParentMismatch = errors.New("child parent does not match owner")

	// ErrSharedChild is returned by [Forest.Validate] when a node is reachable
	// from more than one owner. Children must be owned exclusively.
	ErrSharedChild = errors.New("node owned by more than one parent")

	// ErrConnectionAsymmetry is returned by [Forest.Validate] when a
	// connection has no matching incoming connection on its target (or the
	// reverse). The two sets must be exact inverses.
	ErrConnectionAsymmetry = errors.New("connections and incoming connections are not inverses")

	// ErrForeignNode is returned by [Forest.Validate] when an edge points at a
	// node that does not belong to the forest.
	ErrForeignNode = errors.New("edge endpoint outside forest")
)

// Edge is a directed connection between two nodes of a forest.
type Edge struct {
	From *Node // Leaf that holds the reference
	To   *Node // Node the reference resolves to
}

// Forest is the complete node set produced by one build pass.
//
// Roots keep the order they were given in (after the builder's sort). Nodes
// are stored in pre-order over all roots; a node's Index is its position in
// that slice.
type Forest struct {
	roots  []*Node
	nodes  []*Node
	lookup map[Handle]*Node
}

// NewForest creates a forest from the given roots and assigns arena indices
// in pre-order. The context lookup keeps the first node in pre-order for each
// handle.
func NewForest(roots []*Node) *Forest {
	f := &Forest{
		roots:  roots,
		lookup: make(map[Handle]*Node),
	}
	f.reindex()
	return f
}

func (f *Forest) reindex() {
	f.nodes = f.nodes[:0]
	clear(f.lookup)
	for _, r := range f.roots {
		r.Walk(func(n *Node) bool {
			n.Index = len(f.nodes)
			f.nodes = append(f.nodes, n)
			if _, dup := f.lookup[n.Context]; !dup {
				f.lookup[n.Context] = n
			}
			return true
		})
	}
}

// SetRootOrder replaces the root ordering and reassigns arena indices.
// Roots not present in the forest are ignored; roots missing from order keep
// their relative order after the listed ones.
func (f *Forest) SetRootOrder(order []*Node) {
	seen := make(map[*Node]bool, len(order))
	next := make([]*Node, 0, len(f.roots))
	for _, r := range order {
		if slices.Contains(f.roots, r) && !seen[r] {
			seen[r] = true
			next = append(next, r)
		}
	}
	for _, r := range f.roots {
		if !seen[r] {
			next = append(next, r)
		}
	}
	f.roots = next
	f.reindex()
}

// Roots returns the root nodes in column placement order.
// The returned slice must not be modified.
func (f *Forest) Roots() []*Node { return f.roots }

// Nodes returns every node in pre-order over all roots.
// The returned slice must not be modified.
func (f *Forest) Nodes() []*Node { return f.nodes }

// Len returns the total number of nodes.
func (f *Forest) Len() int { return len(f.nodes) }

// Node returns the node with the given arena index, or nil if out of range.
func (f *Forest) Node(index int) *Node {
	if index < 0 || index >= len(f.nodes) {
		return nil
	}
	return f.nodes[index]
}

// Lookup returns the first node in pre-order whose Context equals h.
func (f *Forest) Lookup(h Handle) (*Node, bool) {
	n, ok := f.lookup[h]
	return n, ok
}

// Edges returns every connection in the forest, ordered by the pre-order
// position of the source node and then by insertion order.
func (f *Forest) Edges() []Edge {
	var edges []Edge
	for _, n := range f.nodes {
		for _, t := range n.Connections {
			edges = append(edges, Edge{From: n, To: t})
		}
	}
	return edges
}

// EdgeCount returns the number of connections in the forest.
func (f *Forest) EdgeCount() int {
	count := 0
	for _, n := range f.nodes {
		count += len(n.Connections)
	}
	return count
}

// Validate checks the structural invariants of the forest and returns nil if
// they hold:
//
//  1. Every child's Parent is the node that lists it, roots have no parent
//  2. No node is owned by more than one parent
//  3. Connections and incoming connections are exact inverses
//
// Depth consistency follows from 1 since Depth is derived from Parent.
func (f *Forest) Validate() error {
	if err := f.validateOwnership(); err != nil {
		return err
	}
	return f.validateConnections()
}

func (f *Forest) validateOwnership() error {
	owned := make(map[*Node]bool, len(f.nodes))
	for _, r := range f.roots {
		if r.Parent != nil {
			return ErrParentMismatch
		}
		owned[r] = true
	}
	for _, n := range f.nodes {
		for _, c := range n.Children {
			if c.Parent != n {
				return ErrParentMismatch
			}
			if owned[c] {
				return ErrSharedChild
			}
			owned[c] = true
		}
	}
	return nil
}

func (f *Forest) validateConnections() error {
	type pair struct{ from, to *Node }
	out := make(map[pair]int)
	in := make(map[pair]int)
	for _, n := range f.nodes {
		for _, t := range n.Connections {
			if f.Node(t.Index) != t {
				return ErrForeignNode
			}
			out[pair{n, t}]++
		}
		for _, s := range n.IncomingConnections {
			if f.Node(s.Index) != s {
				return ErrForeignNode
			}
			in[pair{s, n}]++
		}
	}
	if len(out) != len(in) {
		return ErrConnectionAsymmetry
	}
	for k, v := range out {
		if in[k] != v {
			return ErrConnectionAsymmetry
		}
	}
	return nil
}
