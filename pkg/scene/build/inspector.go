package build

import "github.com/matzehuels/scenemap/pkg/scene"

// Entry is one object, component or field reported by an inspector.
type Entry struct {
	Handle    scene.Handle // Identity, compared by equality only
	Title     string       // Display label
	Reference bool         // Field is reference-typed and may resolve to a node
}

// Inspector enumerates a domain snapshot for the builder.
//
// ListChildren is called once per root to list its components and once per
// component to list its fields. ResolveFieldValue returns the handle a
// reference field currently points to, or false when the field is null.
type Inspector interface {
	ListRoots() []Entry
	ListChildren(owner scene.Handle) []Entry
	ResolveFieldValue(owner, field scene.Handle) (scene.Handle, bool)
}

type fieldKey struct{ owner, field scene.Handle }

// StaticInspector is an in-memory [Inspector] assembled by hand.
//
// The zero value is ready to use.
type StaticInspector struct {
	roots    []Entry
	children map[scene.Handle][]Entry
	values   map[fieldKey]scene.Handle
}

// AddRoot registers a root object.
func (s *StaticInspector) AddRoot(h scene.Handle, title string) *StaticInspector {
	s.roots = append(s.roots, Entry{Handle: h, Title: title})
	return s
}

// AddChild registers a non-reference child of owner.
func (s *StaticInspector) AddChild(owner, h scene.Handle, title string) *StaticInspector {
	return s.add(owner, Entry{Handle: h, Title: title})
}

// AddReference registers a reference-typed child of owner whose value is
// target. An empty target registers a null reference.
func (s *StaticInspector) AddReference(owner, h scene.Handle, title string, target scene.Handle) *StaticInspector {
	s.add(owner, Entry{Handle: h, Title: title, Reference: true})
	if target != "" {
		if s.values == nil {
			s.values = make(map[fieldKey]scene.Handle)
		}
		s.values[fieldKey{owner, h}] = target
	}
	return s
}

func (s *StaticInspector) add(owner scene.Handle, e Entry) *StaticInspector {
	if s.children == nil {
		s.children = make(map[scene.Handle][]Entry)
	}
	s.children[owner] = append(s.children[owner], e)
	return s
}

func (s *StaticInspector) ListRoots() []Entry { return s.roots }

func (s *StaticInspector) ListChildren(owner scene.Handle) []Entry { return s.children[owner] }

func (s *StaticInspector) ResolveFieldValue(owner, field scene.Handle) (scene.Handle, bool) {
	v, ok := s.values[fieldKey{owner, field}]
	return v, ok
}
