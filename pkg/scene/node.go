package scene

// Handle is an opaque identity token for the domain object or field a node
// represents. Handles are supplied by an inspector and are only ever compared
// for equality; the model never dereferences them.
type Handle string

// Kind records which level of the forest a node was discovered at.
// It is informative only: tree queries rely on Parent and Children.
type Kind int

const (
	// KindRoot is a top-level object.
	KindRoot Kind = iota
	// KindComponent is a sub-component of a root object.
	KindComponent
	// KindField is a field of a component.
	KindField
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindComponent:
		return "component"
	case KindField:
		return "field"
	default:
		return "unknown"
	}
}

// Node is one element of the forest: a root object, a component, or a field.
//
// The zero value is a detached leaf root. Nodes are normally created by a
// build pass and added to a [Forest], which assigns Index.
type Node struct {
	Index     int    // Arena index within the owning forest
	Title     string // Display label
	Context   Handle // Identity of the represented domain object or field
	Kind      Kind
	Reference bool // Field is reference-typed (only meaningful on leaves)

	Parent   *Node   // Nil iff the node is a root
	Children []*Node // Owned exclusively by this node

	Connections         []*Node // Outgoing edges
	IncomingConnections []*Node // Incoming edges, inverse of Connections

	Visible  bool // Pin; only read on roots
	Expanded bool // Children rendered individually when true
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// IsRoot reports whether the node has no parent.
func (n *Node) IsRoot() bool { return n.Parent == nil }

// Root returns the topmost ancestor of the node, or the node itself for roots.
func (n *Node) Root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}

// Depth returns 0 for roots and parent.Depth()+1 otherwise.
func (n *Node) Depth() int {
	if n.Parent == nil {
		return 0
	}
	return n.Parent.Depth() + 1
}

// HasOutputs reports whether this node itself has outgoing connections.
func (n *Node) HasOutputs() bool { return len(n.Connections) > 0 }

// HasInputs reports whether this node itself has incoming connections.
func (n *Node) HasInputs() bool { return len(n.IncomingConnections) > 0 }

// HasOutputsRecursive reports whether this node or any descendant has
// outgoing connections. The search stops at the first hit.
func (n *Node) HasOutputsRecursive() bool {
	if n.HasOutputs() {
		return true
	}
	for _, c := range n.Children {
		if c.HasOutputsRecursive() {
			return true
		}
	}
	return false
}

// HasInputsRecursive reports whether this node or any descendant has
// incoming connections. The search stops at the first hit.
func (n *Node) HasInputsRecursive() bool {
	if n.HasInputs() {
		return true
	}
	for _, c := range n.Children {
		if c.HasInputsRecursive() {
			return true
		}
	}
	return false
}

// NodeAndChildrenRecursive returns the node followed by all of its
// descendants in depth-first pre-order.
func (n *Node) NodeAndChildrenRecursive() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		out = append(out, x)
		return true
	})
	return out
}

// Walk visits the node and its descendants in depth-first pre-order.
// Returning false from fn skips the visited node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// CurrentAndChildConnections returns the outgoing connections of the node
// and every descendant, in pre-order of their owners. This is the edge set a
// collapsed subtree is drawn with.
func (n *Node) CurrentAndChildConnections() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		out = append(out, x.Connections...)
		return true
	})
	return out
}

// IncomingConnectionsRecursive returns the incoming connections of the node
// and every descendant, in pre-order of their owners.
func (n *Node) IncomingConnectionsRecursive() []*Node {
	var out []*Node
	n.Walk(func(x *Node) bool {
		out = append(out, x.IncomingConnections...)
		return true
	})
	return out
}

// IsRootVisible reports whether the node's root is pinned.
func (n *Node) IsRootVisible() bool { return n.Root().Visible }

// IsVisibleInTree reports whether the node's root is pinned and every
// ancestor up to the root is expanded. Rendering and hit-testing must consult
// this before drawing or accepting input for a node.
func (n *Node) IsVisibleInTree() bool {
	if n.Parent == nil {
		return n.Visible
	}
	if !n.Parent.Expanded {
		return false
	}
	return n.Parent.IsVisibleInTree()
}

// IsExpandedToRoot reports the expansion state of the node's root.
func (n *Node) IsExpandedToRoot() bool { return n.Root().Expanded }

// HighestAncestorWithExpandedParentOrRoot walks upward while the current node
// is collapsed and its parent is collapsed too. It stops at the first node
// that is expanded, whose parent is expanded, or that is a root. A hidden
// connection endpoint is drawn at the returned node.
func (n *Node) HighestAncestorWithExpandedParentOrRoot() *Node {
	cur := n
	for !cur.Expanded && cur.Parent != nil && !cur.Parent.Expanded {
		cur = cur.Parent
	}
	return cur
}

// Connect adds a directed edge from n to target and records the inverse on
// target.
func (n *Node) Connect(target *Node) {
	n.Connections = append(n.Connections, target)
	target.IncomingConnections = append(target.IncomingConnections, n)
}

// AddChild appends child to n's children and sets its parent.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	n.Children = append(n.Children, child)
}

// String returns the node title.
func (n *Node) String() string { return n.Title }
