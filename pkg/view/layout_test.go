package view

import (
	"fmt"
	"reflect"
	"slices"
	"testing"

	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
)

// ring builds n roots r0..r(n-1), each referencing the next.
func ring(n int) func(*build.StaticInspector) {
	return func(s *build.StaticInspector) {
		for i := range n {
			h := scene.Handle(fmt.Sprintf("r%d", i))
			s.AddRoot(h, string(h))
		}
		for i := range n {
			h := scene.Handle(fmt.Sprintf("r%d", i))
			next := scene.Handle(fmt.Sprintf("r%d", (i+1)%n))
			s.AddReference(h, h+"/ref", "ref", next)
		}
	}
}

func TestRootColumns(t *testing.T) {
	f := buildForest(ring(5))
	v := New(f, Options{})
	v.ShowAll()

	want := []Rect{
		{X: 0, Y: 30, W: 200, H: 24},
		{X: 220, Y: 30, W: 200, H: 24},
		{X: 440, Y: 30, W: 200, H: 24},
		{X: 660, Y: 30, W: 200, H: 24},
		{X: 0, Y: 74, W: 200, H: 24},
	}
	for i, r := range f.Roots() {
		got, ok := v.AbsoluteRect(r)
		if !ok || got != want[i] {
			t.Errorf("root %s rect = %+v (%v), want %+v", r, got, ok, want[i])
		}
	}
}

func TestRootColumnsSkipUnrendered(t *testing.T) {
	// Root order is A, C, B: C has no connections and sorts before B only
	// because both score zero and C was listed first.
	f := buildForest(func(s *build.StaticInspector) {
		s.AddRoot("A", "A").AddRoot("C", "C").AddRoot("B", "B").
			AddReference("A", "A1", "A1", "B")
	})
	if got := handles(f.Roots()); !slices.Equal(got, []scene.Handle{"A", "C", "B"}) {
		t.Fatalf("roots = %v", got)
	}
	v := New(f, Options{})
	v.ShowAll()

	got, _ := v.AbsoluteRect(node(t, f, "B"))
	if want := (Rect{X: 220, Y: 30, W: 200, H: 24}); got != want {
		t.Errorf("B rect = %+v, want %+v", got, want)
	}
}

// deep builds root R with components K (three reference fields) and K2
// (one reference field); all fields point at root T.
func deep(s *build.StaticInspector) {
	s.AddRoot("R", "R").AddRoot("T", "T").
		AddChild("R", "K", "K").
		AddReference("K", "K.a", "a", "T").
		AddReference("K", "K.b", "b", "T").
		AddReference("K", "K.c", "c", "T").
		AddChild("R", "K2", "K2").
		AddReference("K2", "K2.a", "a", "T")
}

func TestChildLayout(t *testing.T) {
	f := buildForest(deep)
	r, k, k2 := node(t, f, "R"), node(t, f, "K"), node(t, f, "K2")
	r.Expanded = true
	k.Expanded = true
	v := New(f, Options{})
	v.SetExclusiveVisibleRoot(r)

	tests := []struct {
		node *scene.Node
		rel  Rect
		abs  Rect
	}{
		{k, Rect{0, 24, 200, 20}, Rect{0, 54, 200, 20}},
		{node(t, f, "K.a"), Rect{0, 20, 200, 20}, Rect{0, 74, 200, 20}},
		{node(t, f, "K.c"), Rect{0, 60, 200, 20}, Rect{0, 114, 200, 20}},
		{k2, Rect{0, 104, 200, 20}, Rect{0, 134, 200, 20}},
	}
	for _, tt := range tests {
		t.Run(tt.node.Title, func(t *testing.T) {
			rel, _ := v.Rect(tt.node)
			abs, _ := v.AbsoluteRect(tt.node)
			if rel != tt.rel || abs != tt.abs {
				t.Errorf("rel %+v abs %+v, want %+v %+v", rel, abs, tt.rel, tt.abs)
			}
		})
	}

	if got := v.NodeHeight(r); got != 24+80+20 {
		t.Errorf("NodeHeight(R) = %v, want 124", got)
	}
}

func TestLevelHeightsClamp(t *testing.T) {
	cfg := Config{Columns: 1, NodeWidth: 100, LevelHeights: []float64{30, 10}}
	for depth, want := range []float64{30, 10, 10, 10} {
		if got := cfg.HeightAt(depth); got != want {
			t.Errorf("HeightAt(%d) = %v, want %v", depth, got, want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	d := DefaultConfig()
	tests := []struct {
		name string
		cfg  Config
		want Config
	}{
		{"unset", Config{}, d},
		{"columns only", Config{Columns: 3}, func() Config { c := d; c.Columns = 3; return c }()},
		{"width and heights", Config{NodeWidth: 150, LevelHeights: []float64{30}}, func() Config {
			c := d
			c.NodeWidth, c.LevelHeights = 150, []float64{30}
			return c
		}()},
		{"negative margins", Config{Columns: 2, TopMargin: -5, DragThreshold: -1}, func() Config { c := d; c.Columns = 2; return c }()},
		{"explicit values kept", Config{ColumnGap: 8, Gutter: 4, SameLineThreshold: 12, DragThreshold: 3}, func() Config {
			c := d
			c.ColumnGap, c.Gutter, c.SameLineThreshold, c.DragThreshold = 8, 4, 12, 3
			return c
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.withDefaults()
			if !slices.Equal(got.LevelHeights, tt.want.LevelHeights) {
				t.Errorf("LevelHeights = %v, want %v", got.LevelHeights, tt.want.LevelHeights)
			}
			got.LevelHeights, tt.want.LevelHeights = nil, nil
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPartialConfigKeepsClickThreshold(t *testing.T) {
	f := buildForest(deep)
	r := node(t, f, "R")
	v := New(f, Options{Layout: Config{Columns: 3}})
	v.ShowAll()

	v.Press(r)
	v.Drag(0.5, 0.25)
	if clicked, ok := v.Release(); !ok || clicked != r {
		t.Errorf("Release() = %v, %v; a small movement should still click", clicked, ok)
	}
	if rect, _ := v.Rect(r); rect.Y != DefaultTopMargin {
		t.Errorf("root y = %v, want the default top margin", rect.Y)
	}
}

func TestRelayoutIdempotent(t *testing.T) {
	f := buildForest(deep)
	node(t, f, "R").Expanded = true
	node(t, f, "K2").Expanded = true
	v := New(f, Options{})
	v.ShowAll()

	first := slices.Clone(v.rects)
	firstPlaced := slices.Clone(v.placed)
	v.Relayout()
	if !slices.Equal(first, v.rects) || !slices.Equal(firstPlaced, v.placed) {
		t.Error("relayout without state change moved rectangles")
	}
}

func TestToggleExpandedLocalRelayout(t *testing.T) {
	f := buildForest(deep)
	r, k, k2, tgt := node(t, f, "R"), node(t, f, "K"), node(t, f, "K2"), node(t, f, "T")
	r.Expanded = true
	v := New(f, Options{})
	v.ShowAll()

	before := v.NodeHeight(k)
	siblingBefore, _ := v.Rect(k2)
	rootBefore, _ := v.Rect(r)
	otherBefore, _ := v.Rect(tgt)

	v.ToggleExpanded(k)

	after := v.NodeHeight(k)
	if after-before != 60 || after != v.cfg.HeightAt(1)+60 {
		t.Errorf("height %v -> %v, want +60 over the header", before, after)
	}
	if got, _ := v.Rect(k2); got != siblingBefore {
		t.Errorf("sibling moved: %+v -> %+v", siblingBefore, got)
	}
	if got, _ := v.Rect(r); got != rootBefore {
		t.Errorf("parent moved: %+v -> %+v", rootBefore, got)
	}
	if got, _ := v.Rect(tgt); got != otherBefore {
		t.Errorf("other root moved: %+v -> %+v", otherBefore, got)
	}
	for _, c := range k.Children {
		if _, ok := v.Rect(c); !ok {
			t.Errorf("child %s not laid out", c)
		}
	}
}

func TestAbsoluteRectUnplaced(t *testing.T) {
	f := buildForest(deep)
	v := New(f, Options{})
	if _, ok := v.AbsoluteRect(node(t, f, "K.a")); ok {
		t.Error("node under unpinned root has no rectangle")
	}
	if _, ok := v.AbsoluteRect(&scene.Node{}); ok {
		t.Error("stray node has no rectangle")
	}
}

func TestHitTest(t *testing.T) {
	f := buildForest(deep)
	node(t, f, "R").Expanded = true
	v := New(f, Options{})
	v.SetExclusiveVisibleRoot(node(t, f, "R"))

	tests := []struct {
		p    Point
		want scene.Handle
	}{
		{Point{10, 35}, "R"},
		{Point{10, 60}, "K"},
		{Point{199, 75}, "K2"},
	}
	for _, tt := range tests {
		n, ok := v.HitTest(tt.p)
		if !ok || n.Context != tt.want {
			t.Errorf("HitTest(%v) = %v, want %s", tt.p, n, tt.want)
		}
	}
	if n, ok := v.HitTest(Point{500, 500}); ok {
		t.Errorf("HitTest(empty) = %v", n)
	}
}
