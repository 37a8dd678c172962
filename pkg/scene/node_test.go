package scene

import (
	"errors"
	"slices"
	"testing"
)

// fixture builds:
//
//	A ── A1 ── a (ref → B)
//	  └─ A2
//	B ── B1 ── b (ref → A1)
//	C
func fixture() (*Forest, map[string]*Node) {
	m := map[string]*Node{}
	mk := func(name string, kind Kind) *Node {
		n := &Node{Title: name, Context: Handle(name), Kind: kind}
		m[name] = n
		return n
	}
	a, b, c := mk("A", KindRoot), mk("B", KindRoot), mk("C", KindRoot)
	a1, a2, b1 := mk("A1", KindComponent), mk("A2", KindComponent), mk("B1", KindComponent)
	fa, fb := mk("a", KindField), mk("b", KindField)
	a.AddChild(a1)
	a.AddChild(a2)
	a1.AddChild(fa)
	b.AddChild(b1)
	b1.AddChild(fb)
	fa.Connect(b)
	fb.Connect(a1)
	return NewForest([]*Node{a, b, c}), m
}

func TestDerivedStructure(t *testing.T) {
	f, m := fixture()

	tests := []struct {
		name  string
		depth int
		root  string
		leaf  bool
	}{
		{"A", 0, "A", false},
		{"A1", 1, "A", false},
		{"a", 2, "A", true},
		{"A2", 1, "A", true},
		{"b", 2, "B", true},
		{"C", 0, "C", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := m[tt.name]
			if got := n.Depth(); got != tt.depth {
				t.Errorf("Depth() = %d, want %d", got, tt.depth)
			}
			if got := n.Root(); got != m[tt.root] {
				t.Errorf("Root() = %v, want %s", got, tt.root)
			}
			if got := n.IsLeaf(); got != tt.leaf {
				t.Errorf("IsLeaf() = %v, want %v", got, tt.leaf)
			}
		})
	}

	for _, n := range f.Nodes() {
		if n.IsRoot() {
			if n.Depth() != 0 {
				t.Errorf("%s: root depth %d", n, n.Depth())
			}
			continue
		}
		if n.Depth() != n.Parent.Depth()+1 {
			t.Errorf("%s: depth %d, parent depth %d", n, n.Depth(), n.Parent.Depth())
		}
	}
}

func TestRecursiveConnections(t *testing.T) {
	_, m := fixture()

	if !m["A"].HasOutputsRecursive() || m["A"].HasOutputs() {
		t.Error("A should have outputs only through descendants")
	}
	if !m["A"].HasInputsRecursive() {
		t.Error("A should have inputs through A1")
	}
	if m["A2"].HasOutputsRecursive() || m["A2"].HasInputsRecursive() {
		t.Error("A2 has no connections")
	}
	if m["C"].HasOutputsRecursive() || m["C"].HasInputsRecursive() {
		t.Error("C has no connections")
	}

	if got := m["A"].CurrentAndChildConnections(); !slices.Equal(got, []*Node{m["B"]}) {
		t.Errorf("A.CurrentAndChildConnections() = %v, want [B]", got)
	}
	if got := m["B"].IncomingConnectionsRecursive(); !slices.Equal(got, []*Node{m["a"]}) {
		t.Errorf("B.IncomingConnectionsRecursive() = %v, want [a]", got)
	}
}

func TestNodeAndChildrenRecursive(t *testing.T) {
	_, m := fixture()
	var titles []string
	for _, n := range m["A"].NodeAndChildrenRecursive() {
		titles = append(titles, n.Title)
	}
	want := []string{"A", "A1", "a", "A2"}
	if !slices.Equal(titles, want) {
		t.Errorf("pre-order = %v, want %v", titles, want)
	}
}

func TestIsVisibleInTree(t *testing.T) {
	_, m := fixture()
	a, a1, fa := m["A"], m["A1"], m["a"]

	a.Visible = true
	if !a.IsVisibleInTree() {
		t.Error("pinned root should be visible")
	}
	if a1.IsVisibleInTree() {
		t.Error("child of collapsed root should be hidden")
	}

	a.Expanded = true
	if !a1.IsVisibleInTree() {
		t.Error("child of expanded pinned root should be visible")
	}
	if fa.IsVisibleInTree() {
		t.Error("field under collapsed component should be hidden")
	}

	// Stale expansion below a collapsed ancestor never makes a node visible.
	a1.Expanded = true
	a.Expanded = false
	if fa.IsVisibleInTree() {
		t.Error("field should be hidden while root is collapsed")
	}

	a.Expanded = true
	a.Visible = false
	if fa.IsVisibleInTree() || !fa.IsExpandedToRoot() {
		t.Error("unpinned root hides its whole subtree")
	}
	if fa.IsRootVisible() {
		t.Error("IsRootVisible() should follow the root pin")
	}
}

func TestHighestAncestorWithExpandedParentOrRoot(t *testing.T) {
	tests := []struct {
		name       string
		expandRoot bool
		expandComp bool
		want       string
	}{
		{"all collapsed", false, false, "A"},
		{"root expanded", true, false, "A1"},
		{"fully expanded", true, true, "a"},
		{"component expanded only", false, true, "A1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, m := fixture()
			m["A"].Expanded = tt.expandRoot
			m["A1"].Expanded = tt.expandComp
			if got := m["a"].HighestAncestorWithExpandedParentOrRoot(); got != m[tt.want] {
				t.Errorf("got %v, want %s", got, tt.want)
			}
		})
	}
}

func TestForestLookupAndIndex(t *testing.T) {
	f, m := fixture()

	for i, n := range f.Nodes() {
		if n.Index != i || f.Node(i) != n {
			t.Fatalf("node %s has index %d at position %d", n, n.Index, i)
		}
	}
	if f.Node(-1) != nil || f.Node(f.Len()) != nil {
		t.Error("out of range index should return nil")
	}
	if n, ok := f.Lookup("B1"); !ok || n != m["B1"] {
		t.Errorf("Lookup(B1) = %v, %v", n, ok)
	}
	if _, ok := f.Lookup("missing"); ok {
		t.Error("Lookup(missing) should fail")
	}
	if got := f.EdgeCount(); got != 2 {
		t.Errorf("EdgeCount() = %d, want 2", got)
	}
	edges := f.Edges()
	if len(edges) != 2 || edges[0].From != m["a"] || edges[0].To != m["B"] {
		t.Errorf("Edges() = %v", edges)
	}
}

func TestForestSetRootOrder(t *testing.T) {
	f, m := fixture()
	f.SetRootOrder([]*Node{m["C"], m["B"]})

	var got []string
	for _, r := range f.Roots() {
		got = append(got, r.Title)
	}
	if want := []string{"C", "B", "A"}; !slices.Equal(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
	if m["C"].Index != 0 || f.Node(0) != m["C"] {
		t.Error("indices should follow the new root order")
	}
}

func TestForestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		f, _ := fixture()
		if err := f.Validate(); err != nil {
			t.Fatalf("Validate() = %v", err)
		}
	})

	t.Run("asymmetric", func(t *testing.T) {
		f, m := fixture()
		m["b"].Connections = append(m["b"].Connections, m["C"])
		if err := f.Validate(); !errors.Is(err, ErrConnectionAsymmetry) {
			t.Fatalf("Validate() = %v, want ErrConnectionAsymmetry", err)
		}
	})

	t.Run("parent mismatch", func(t *testing.T) {
		f, m := fixture()
		m["A2"].Parent = m["B"]
		if err := f.Validate(); !errors.Is(err, ErrParentMismatch) {
			t.Fatalf("Validate() = %v, want ErrParentMismatch", err)
		}
	})

	t.Run("foreign endpoint", func(t *testing.T) {
		f, m := fixture()
		stray := &Node{Title: "stray", Index: 0}
		m["a"].Connect(stray)
		if err := f.Validate(); !errors.Is(err, ErrForeignNode) {
			t.Fatalf("Validate() = %v, want ErrForeignNode", err)
		}
	})
}

func TestKindString(t *testing.T) {
	if KindRoot.String() != "root" || KindField.String() != "field" || Kind(9).String() != "unknown" {
		t.Error("unexpected Kind names")
	}
}
