// Package resolve turns a type alias's textual "header/definition" pointer
// into an embedded copy of the enumeration or structure it names.
package resolve

import (
	"regexp"
	"strings"

	"gitlab.com/tozd/go/errors"

	"github.com/morozRed/capibara/internal/model"
)

var (
	// ErrMalformedReference is returned for a non-empty reference that is not
	// of the form <header-ref>/<definition-name>.
	ErrMalformedReference = errors.New("malformed associated reference")
	// ErrUnresolved is returned alongside model.NoRef when a well-formed
	// reference names no known entity.
	ErrUnresolved = errors.New("associated reference not found")
)

// The header part takes everything up to the last slash that still leaves a
// non-empty definition, so "a/b/" splits into "a" and "b/".
var referencePattern = regexp.MustCompile(`^(.+)/(.+)$`)

// Reference is a parsed associated reference.
type Reference struct {
	Header string
	Name   string
}

func (r Reference) String() string {
	return r.Header + "/" + r.Name
}

// Parse splits raw into its header and definition parts.
func Parse(raw string) (Reference, error) {
	caps := referencePattern.FindStringSubmatch(raw)
	if caps == nil {
		return Reference{}, errors.Errorf("%q: %w", raw, ErrMalformedReference)
	}
	return Reference{Header: caps[1], Name: caps[2]}, nil
}

// Resolver looks references up in fully loaded enumerations and structures.
type Resolver struct {
	enums   []model.Enumeration
	structs []model.Structure
}

// New returns a resolver over enums and structs. Both collections must be
// complete: resolution against a partially loaded collection silently misses.
func New(enums []model.Enumeration, structs []model.Structure) *Resolver {
	return &Resolver{enums: enums, structs: structs}
}

// Resolve returns the associated reference for raw. An empty (or blank) raw
// is model.NoRef with no error. Enumerations are searched before structures
// and the first entity matching both name and header ref wins.
func (r *Resolver) Resolve(raw string) (model.AssociatedRef, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return model.NoRef{}, nil
	}

	ref, err := Parse(raw)
	if err != nil {
		return model.NoRef{}, err
	}

	for _, e := range r.enums {
		if e.Name == ref.Name && e.Header.Ref == ref.Header {
			return model.EnumRef{Enumeration: copyEnum(e)}, nil
		}
	}
	for _, s := range r.structs {
		if s.Name == ref.Name && s.Header.Ref == ref.Header {
			return model.StructRef{Structure: copyStruct(s)}, nil
		}
	}
	return model.NoRef{}, errors.Errorf("%s: %w", ref, ErrUnresolved)
}

// The copies own their slices so the document never aliases the source collections.
func copyEnum(e model.Enumeration) model.Enumeration {
	e.Variants = append([]model.Variant{}, e.Variants...)
	e.OSAffinity = append([]string{}, e.OSAffinity...)
	return e
}

func copyStruct(s model.Structure) model.Structure {
	s.Fields = append([]model.Field{}, s.Fields...)
	s.OSAffinity = append([]string{}, s.OSAffinity...)
	return s
}
