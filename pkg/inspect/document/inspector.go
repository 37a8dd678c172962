package document

import (
	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
)

// Options configures an [Inspector].
type Options struct {
	// IncludeScalars lists non-reference fields as leaves too. By default
	// only reference-typed fields are listed.
	IncludeScalars bool
}

// Inspector serves a [Document] to the graph builder.
type Inspector struct {
	roots    []build.Entry
	children map[scene.Handle][]build.Entry
	refs     map[scene.Handle]string // Field handle to ref
}

// NewInspector indexes doc. The document must have passed Validate.
func NewInspector(doc *Document, opts Options) *Inspector {
	in := &Inspector{
		children: make(map[scene.Handle][]build.Entry),
		refs:     make(map[scene.Handle]string),
	}
	for _, o := range doc.Objects {
		oh := o.Handle()
		in.roots = append(in.roots, build.Entry{Handle: oh, Title: o.Title()})
		for _, c := range o.Components {
			ch := c.Handle(o)
			in.children[oh] = append(in.children[oh], build.Entry{Handle: ch, Title: c.Title()})
			for _, f := range c.Fields {
				if !f.IsReference() && !opts.IncludeScalars {
					continue
				}
				fh := f.Handle(ch)
				in.children[ch] = append(in.children[ch], build.Entry{
					Handle:    fh,
					Title:     f.Title(),
					Reference: f.IsReference(),
				})
				if f.Ref != "" {
					in.refs[fh] = f.Ref
				}
			}
		}
	}
	return in
}

// ListRoots implements [build.Inspector].
func (in *Inspector) ListRoots() []build.Entry { return in.roots }

// ListChildren implements [build.Inspector].
func (in *Inspector) ListChildren(owner scene.Handle) []build.Entry { return in.children[owner] }

// ResolveFieldValue implements [build.Inspector]. Field handles are unique
// within a document, so the owner is not consulted.
func (in *Inspector) ResolveFieldValue(_, field scene.Handle) (scene.Handle, bool) {
	ref, ok := in.refs[field]
	if !ok {
		return "", false
	}
	return scene.Handle(ref), true
}

var _ build.Inspector = (*Inspector)(nil)
