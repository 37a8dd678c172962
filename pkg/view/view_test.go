package view

import (
	"slices"
	"testing"

	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
)

func buildForest(setup func(*build.StaticInspector)) *scene.Forest {
	insp := new(build.StaticInspector)
	setup(insp)
	f, _ := build.Build(insp, build.Options{})
	return f
}

func node(t *testing.T, f *scene.Forest, h scene.Handle) *scene.Node {
	t.Helper()
	n, ok := f.Lookup(h)
	if !ok {
		t.Fatalf("node %q not found", h)
	}
	return n
}

func handles(nodes []*scene.Node) []scene.Handle {
	out := make([]scene.Handle, len(nodes))
	for i, n := range nodes {
		out[i] = n.Context
	}
	return out
}

// abc is the forest A ── A1 (ref → B), B, C.
func abc(s *build.StaticInspector) {
	s.AddRoot("A", "A").AddRoot("B", "B").AddRoot("C", "C").
		AddReference("A", "A1", "A1", "B")
}

func TestSetExclusiveVisibleRoot(t *testing.T) {
	f := buildForest(abc)
	v := New(f, Options{})
	b, c := node(t, f, "B"), node(t, f, "C")

	c.Visible = true
	if !v.SetExclusiveVisibleRoot(node(t, f, "A1")) {
		t.Fatal("SetExclusiveVisibleRoot() = false")
	}
	if got := handles(v.Pinned()); !slices.Equal(got, []scene.Handle{"A"}) {
		t.Errorf("Pinned() = %v, want [A]", got)
	}
	if v.Focus() != node(t, f, "A") {
		t.Errorf("Focus() = %v, want A", v.Focus())
	}
	if _, ok := v.Rect(b); ok {
		t.Error("unpinned root should not be laid out")
	}

	if v.SetExclusiveVisibleRoot(&scene.Node{Title: "stray"}) {
		t.Error("stray node should be ignored")
	}
	if v.SetExclusiveVisibleRoot(nil) {
		t.Error("nil node should be ignored")
	}
}

func TestDigForConnections(t *testing.T) {
	f := buildForest(abc)
	v := New(f, Options{})
	v.SetExclusiveVisibleRoot(node(t, f, "A"))

	added := v.DigForConnections()
	if got := handles(added); !slices.Equal(got, []scene.Handle{"B"}) {
		t.Errorf("DigForConnections() = %v, want [B]", got)
	}
	if !node(t, f, "B").Visible {
		t.Error("B should be pinned")
	}
	if node(t, f, "C").Visible {
		t.Error("unrelated C must stay unpinned")
	}
}

func TestDigForConnectionsOneHop(t *testing.T) {
	// chain: in → A → B → D, C unrelated
	f := buildForest(func(s *build.StaticInspector) {
		s.AddRoot("A", "A").AddRoot("B", "B").AddRoot("C", "C").AddRoot("D", "D").AddRoot("in", "in").
			AddChild("A", "A/c", "c").AddReference("A/c", "A/c.f", "f", "B").
			AddChild("B", "B/c", "c").AddReference("B/c", "B/c.f", "f", "D").
			AddChild("in", "in/c", "c").AddReference("in/c", "in/c.f", "f", "A/c")
	})
	v := New(f, Options{})
	v.SetExclusiveVisibleRoot(node(t, f, "A"))

	added := v.DigForConnections()
	got := handles(added)
	slices.Sort(got)
	if want := []scene.Handle{"B", "in"}; !slices.Equal(got, want) {
		t.Fatalf("first dig = %v, want %v", got, want)
	}
	if node(t, f, "D").Visible {
		t.Error("two-hop neighbour D pinned by a single dig")
	}

	if got := handles(v.DigForConnections()); !slices.Equal(got, []scene.Handle{"D"}) {
		t.Errorf("second dig = %v, want [D]", got)
	}
	if node(t, f, "C").Visible {
		t.Error("C should never be pinned")
	}
	if got := v.DigForConnections(); len(got) != 0 {
		t.Errorf("third dig = %v, want nothing new", handles(got))
	}
}

func TestPinUnpinShowAll(t *testing.T) {
	f := buildForest(abc)
	v := New(f, Options{DrawRootsWithoutConnections: true})
	a, c := node(t, f, "A"), node(t, f, "C")

	v.SetExclusiveVisibleRoot(a)
	v.Pin(node(t, f, "C"))
	if got := handles(v.Pinned()); !slices.Equal(got, []scene.Handle{"A", "C"}) {
		t.Errorf("Pinned() = %v", got)
	}
	if _, ok := v.Rect(c); !ok {
		t.Error("pinned root with roots toggle should be laid out")
	}

	v.Unpin(node(t, f, "A1"))
	if a.Visible || v.Focus() != nil {
		t.Error("unpinning the focused root clears pin and focus")
	}

	v.ShowAll()
	if len(v.Pinned()) != 3 {
		t.Errorf("ShowAll() pinned %d roots, want 3", len(v.Pinned()))
	}
}

func TestIsRendered(t *testing.T) {
	f := buildForest(func(s *build.StaticInspector) {
		abc(s)
		s.AddChild("A", "A2", "A2")
	})
	a, a1, a2, c := node(t, f, "A"), node(t, f, "A1"), node(t, f, "A2"), node(t, f, "C")

	tests := []struct {
		name  string
		opts  Options
		setup func()
		node  *scene.Node
		want  bool
	}{
		{"unpinned root", Options{}, func() {}, a, false},
		{"pinned connected root", Options{}, func() { a.Visible = true }, a, true},
		{"child of collapsed root", Options{}, func() { a.Visible = true }, a1, false},
		{"connected child of expanded root", Options{}, func() { a.Visible, a.Expanded = true, true }, a1, true},
		{"unconnected child", Options{}, func() { a.Visible, a.Expanded = true, true }, a2, false},
		{"unconnected child with toggle", Options{DrawAnyWithoutConnections: true}, func() { a.Visible, a.Expanded = true, true }, a2, true},
		{"unconnected root", Options{}, func() { c.Visible = true }, c, false},
		{"unconnected root with toggle", Options{DrawRootsWithoutConnections: true}, func() { c.Visible = true }, c, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, n := range f.Nodes() {
				n.Visible, n.Expanded = false, false
			}
			tt.setup()
			v := New(f, tt.opts)
			if got := v.IsRendered(tt.node); got != tt.want {
				t.Errorf("IsRendered(%s) = %v, want %v", tt.node, got, tt.want)
			}
			if tt.want && !tt.node.IsVisibleInTree() {
				t.Errorf("rendered node %s is not visible in tree", tt.node)
			}
		})
	}
}

func TestUnconnectedRootStillInForest(t *testing.T) {
	f := buildForest(abc)
	v := New(f, Options{})
	c := node(t, f, "C")
	v.ShowAll()

	if v.IsRendered(c) {
		t.Error("C has no connections and should not be rendered")
	}
	if _, ok := v.Rect(c); ok {
		t.Error("C should not take a column slot")
	}
	if !slices.Contains(f.Nodes(), c) || !slices.Contains(f.Roots(), c) {
		t.Error("C must stay in the forest and in root order")
	}
	if f.Roots()[len(f.Roots())-1] != c {
		t.Error("C should sort last")
	}
}

func TestToggles(t *testing.T) {
	f := buildForest(abc)
	v := New(f, Options{})
	v.ShowAll()
	c := node(t, f, "C")

	v.SetToggles(Toggles{Roots: true})
	if !v.IsRendered(c) || !v.Toggles().Roots {
		t.Error("roots toggle should render C")
	}
	if _, ok := v.Rect(c); !ok {
		t.Error("changing toggles should relayout")
	}
}
