package reflectinspect

import (
	"testing"

	"github.com/matzehuels/scenemap/pkg/scene/build"
)

type transform struct{ X, Y float64 }

type follow struct {
	Target *transform
	Speed  float64
	hidden *transform
}

type health struct {
	Max      int
	LastHurt *transform
}

type camera struct {
	Follow *follow
}

type player struct {
	Transform *transform
	Parts     []*health
	Name      string
}

func TestInspector(t *testing.T) {
	pt := &transform{1, 2}
	p := &player{Transform: pt, Parts: []*health{{Max: 10}}, Name: "p1"}
	c := &camera{Follow: &follow{Target: pt, hidden: pt}}

	insp := New(
		Root{Name: "camera", Value: c},
		Root{Name: "player", Value: p},
		Root{Name: "bad", Value: transform{}},
		Root{Name: "nil", Value: (*camera)(nil)},
	)

	roots := insp.ListRoots()
	if len(roots) != 2 || roots[0].Title != "camera (Object)" {
		t.Fatalf("roots = %+v", roots)
	}

	comps := insp.ListChildren(roots[1].Handle)
	if len(comps) != 2 || comps[0].Title != "transform (Component)" || comps[1].Title != "health (Component)" {
		t.Fatalf("player components = %+v", comps)
	}

	f, stats := build.Build(insp, build.Options{})
	if stats.Edges != 1 {
		t.Fatalf("edges = %d, want 1 (camera follow target)", stats.Edges)
	}
	target, ok := f.Lookup(comps[0].Handle)
	if !ok || len(target.IncomingConnections) != 1 {
		t.Fatalf("player transform incoming = %v", target)
	}
	if src := target.IncomingConnections[0]; src.Title != "Target (transform)" || !src.Reference {
		t.Errorf("source = %q", src.Title)
	}

	// Field values are read at resolve time.
	p.Parts[0].LastHurt = pt
	_, stats = build.Build(insp, build.Options{})
	if stats.Edges != 2 {
		t.Errorf("edges after mutation = %d, want 2", stats.Edges)
	}

	if v, ok := insp.Value(roots[1].Handle); !ok || v.(*player) != p {
		t.Error("Value() should return the inspected pointer")
	}
}
