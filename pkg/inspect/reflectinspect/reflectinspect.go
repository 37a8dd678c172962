// Package reflectinspect exposes live Go values as a [build.Inspector].
//
// Roots are named pointers to structs. A root's components are its exported
// fields holding pointers to structs (or slices of them). A component's
// fields are its exported pointer-to-struct fields; they are all
// reference-typed and resolve to whichever root or component holds the same
// pointer.
//
//	type Transform struct{ X, Y float64 }
//	type Follow struct{ Target *Transform }
//	type Camera struct{ Follow *Follow }
//	type Player struct{ Transform *Transform }
//
//	insp := reflectinspect.New(
//	    reflectinspect.Root{Name: "camera", Value: cam},
//	    reflectinspect.Root{Name: "player", Value: player},
//	)
//
// Handles encode pointer identity, so they are only stable for the lifetime
// of the inspected values.
package reflectinspect

import (
	"fmt"
	"reflect"

	"github.com/matzehuels/scenemap/pkg/scene"
	"github.com/matzehuels/scenemap/pkg/scene/build"
)

// Root is one top-level value to inspect. Value must be a non-nil pointer to
// a struct; anything else is skipped.
type Root struct {
	Name  string
	Value any
}

type field struct {
	owner reflect.Value // Pointer to the component struct
	index int
}

// Inspector walks Go values by reflection.
type Inspector struct {
	roots    []build.Entry
	values   map[scene.Handle]reflect.Value
	children map[scene.Handle][]build.Entry
	fields   map[scene.Handle]field
}

// New indexes the given roots eagerly; later mutations of reference fields
// are still observed by ResolveFieldValue.
func New(roots ...Root) *Inspector {
	in := &Inspector{
		values:   make(map[scene.Handle]reflect.Value),
		children: make(map[scene.Handle][]build.Entry),
		fields:   make(map[scene.Handle]field),
	}
	for _, r := range roots {
		rv := reflect.ValueOf(r.Value)
		if !isStructPtr(rv) || rv.IsNil() {
			continue
		}
		h := handleOf(rv)
		in.roots = append(in.roots, build.Entry{Handle: h, Title: r.Name + " (Object)"})
		in.values[h] = rv
		in.indexComponents(h, rv)
	}
	return in
}

func (in *Inspector) indexComponents(owner scene.Handle, rv reflect.Value) {
	add := func(cv reflect.Value) {
		if cv.IsNil() {
			return
		}
		ch := handleOf(cv)
		in.children[owner] = append(in.children[owner], build.Entry{
			Handle: ch,
			Title:  cv.Elem().Type().Name() + " (Component)",
		})
		in.values[ch] = cv
		in.indexFields(ch, cv)
	}

	sv := rv.Elem()
	st := sv.Type()
	for i := range st.NumField() {
		sf := st.Field(i)
		if !sf.IsExported() {
			continue
		}
		fv := sv.Field(i)
		switch {
		case isStructPtr(fv):
			add(fv)
		case fv.Kind() == reflect.Slice && isStructPtrType(fv.Type().Elem()):
			for j := range fv.Len() {
				add(fv.Index(j))
			}
		}
	}
}

func (in *Inspector) indexFields(owner scene.Handle, cv reflect.Value) {
	st := cv.Elem().Type()
	for i := range st.NumField() {
		sf := st.Field(i)
		if !sf.IsExported() || !isStructPtrType(sf.Type) {
			continue
		}
		fh := owner + scene.Handle("."+sf.Name)
		in.children[owner] = append(in.children[owner], build.Entry{
			Handle:    fh,
			Title:     fmt.Sprintf("%s (%s)", sf.Name, sf.Type.Elem().Name()),
			Reference: true,
		})
		in.fields[fh] = field{owner: cv, index: i}
	}
}

// ListRoots implements [build.Inspector].
func (in *Inspector) ListRoots() []build.Entry { return in.roots }

// ListChildren implements [build.Inspector].
func (in *Inspector) ListChildren(owner scene.Handle) []build.Entry { return in.children[owner] }

// ResolveFieldValue implements [build.Inspector] by reading the field's
// current pointer value.
func (in *Inspector) ResolveFieldValue(_, fieldHandle scene.Handle) (scene.Handle, bool) {
	f, ok := in.fields[fieldHandle]
	if !ok {
		return "", false
	}
	v := f.owner.Elem().Field(f.index)
	if v.IsNil() {
		return "", false
	}
	return handleOf(v), true
}

// Value returns the Go value behind a root or component handle.
func (in *Inspector) Value(h scene.Handle) (any, bool) {
	v, ok := in.values[h]
	if !ok {
		return nil, false
	}
	return v.Interface(), true
}

func handleOf(v reflect.Value) scene.Handle {
	return scene.Handle(fmt.Sprintf("%s@%#x", v.Elem().Type(), v.Pointer()))
}

func isStructPtr(v reflect.Value) bool {
	return v.IsValid() && isStructPtrType(v.Type())
}

func isStructPtrType(t reflect.Type) bool {
	return t.Kind() == reflect.Pointer && t.Elem().Kind() == reflect.Struct
}

var _ build.Inspector = (*Inspector)(nil)
