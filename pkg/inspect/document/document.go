// Package document reads scene documents and exposes them as a
// [build.Inspector].
//
// A scene document lists objects, the components attached to each object, and
// the fields of each component. Fields with a ref are reference-typed and
// resolve to the id of another object or component:
//
//	objects:
//	  - id: camera
//	    name: Main Camera
//	    components:
//	      - type: Follow
//	        fields:
//	          - name: target
//	            type: Transform
//	            ref: player/Transform
//	  - id: player
//	    components:
//	      - type: Transform
//
// Documents may be written in YAML, JSON or TOML; the format is chosen by
// file extension.
//
// # Handles
//
// An object's handle is its id. A component's handle is its id, defaulting
// to "<object>/<type>". A field's handle is "<component>.<name>".
package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/scenemap/pkg/errors"
	"github.com/matzehuels/scenemap/pkg/scene"
)

// Format is a scene document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown scene format for %s", path)
	}
}

// Document is a parsed scene.
type Document struct {
	Name    string   `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Objects []Object `yaml:"objects" json:"objects" toml:"objects" validate:"dive"`
}

// Object is a root of the scene.
type Object struct {
	ID         string      `yaml:"id" json:"id" toml:"id" validate:"required"`
	Name       string      `yaml:"name,omitempty" json:"name,omitempty" toml:"name,omitempty"`
	Components []Component `yaml:"components,omitempty" json:"components,omitempty" toml:"components,omitempty" validate:"dive"`
}

// Component is attached to exactly one object.
type Component struct {
	ID     string  `yaml:"id,omitempty" json:"id,omitempty" toml:"id,omitempty"`
	Type   string  `yaml:"type" json:"type" toml:"type" validate:"required"`
	Fields []Field `yaml:"fields,omitempty" json:"fields,omitempty" toml:"fields,omitempty" validate:"dive"`
}

// Field is a named value on a component.
type Field struct {
	Name string `yaml:"name" json:"name" toml:"name" validate:"required"`
	Type string `yaml:"type,omitempty" json:"type,omitempty" toml:"type,omitempty"`
	// Ref is the handle the field points to. Empty with Reference set is a
	// null reference.
	Ref       string `yaml:"ref,omitempty" json:"ref,omitempty" toml:"ref,omitempty"`
	Reference bool   `yaml:"reference,omitempty" json:"reference,omitempty" toml:"reference,omitempty"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
}

// IsReference reports whether the field is reference-typed.
func (f Field) IsReference() bool { return f.Reference || f.Ref != "" }

// TypeName returns the declared type, or a generic one.
func (f Field) TypeName() string {
	switch {
	case f.Type != "":
		return f.Type
	case f.IsReference():
		return "Reference"
	default:
		return "Value"
	}
}

// Handle returns the object's handle.
func (o Object) Handle() scene.Handle { return scene.Handle(o.ID) }

// Title returns the object's display label.
func (o Object) Title() string {
	name := o.Name
	if name == "" {
		name = o.ID
	}
	return name + " (Object)"
}

// Handle returns the component's handle within obj.
func (c Component) Handle(obj Object) scene.Handle {
	if c.ID != "" {
		return scene.Handle(c.ID)
	}
	return scene.Handle(obj.ID + "/" + c.Type)
}

// Title returns the component's display label.
func (c Component) Title() string { return c.Type + " (Component)" }

// Handle returns the field's handle within its component.
func (f Field) Handle(component scene.Handle) scene.Handle {
	return component + scene.Handle("."+f.Name)
}

// Title returns the field's display label.
func (f Field) Title() string { return fmt.Sprintf("%s (%s)", f.Name, f.TypeName()) }

var validate = validator.New()

// Parse decodes and validates a document.
func Parse(data []byte, format Format) (*Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
		if err == io.EOF {
			err = nil
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case FormatTOML:
		err = toml.Unmarshal(data, &doc)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format: %s", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidScene, err, "decode %s scene", format)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Load reads and parses the document at path.
func Load(path string) (*Document, []byte, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "scene %s not found", path)
		}
		return nil, nil, fmt.Errorf("read scene: %w", err)
	}
	doc, err := Parse(data, format)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// Validate checks required fields and handle uniqueness.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidScene, err, "invalid scene")
	}
	seen := make(map[scene.Handle]string)
	claim := func(h scene.Handle, what string) error {
		if prev, dup := seen[h]; dup {
			return errors.New(errors.ErrCodeInvalidScene, "duplicate handle %q (%s and %s)", h, prev, what)
		}
		seen[h] = what
		return nil
	}
	for _, o := range d.Objects {
		if err := claim(o.Handle(), "object"); err != nil {
			return err
		}
		for _, c := range o.Components {
			ch := c.Handle(o)
			if err := claim(ch, "component"); err != nil {
				return err
			}
			for _, f := range c.Fields {
				if err := claim(f.Handle(ch), "field"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
