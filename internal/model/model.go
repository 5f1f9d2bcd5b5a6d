// Package model defines the records aggregated from header fragment files
// and the document they are assembled into.
package model

// HeaderSuffix is appended to a header ref to form the header's display name.
const HeaderSuffix = ".h"

// HeaderSummary is the back-reference every entity carries to its owning header.
type HeaderSummary struct {
	Ref  string `json:"ref"`
	Name string `json:"name"`
}

// NewHeaderSummary builds the summary for a header ref.
func NewHeaderSummary(ref string) HeaderSummary {
	return HeaderSummary{Ref: ref, Name: ref + HeaderSuffix}
}

// Header is one documented header directory.
type Header struct {
	Ref        string   `json:"ref"`
	Name       string   `json:"name"`
	Summary    string   `json:"summary"`
	OSAffinity []string `json:"os_affinity"`
}

// Return describes a function or function-like macro result.
type Return struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// Parameter is a typed function parameter.
type Parameter struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// MacroParameter is a parameter of a function-like macro; macros are untyped.
type MacroParameter struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
}

// Variant is one enumerator of an Enumeration.
type Variant struct {
	Name        string `json:"name" yaml:"name"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	Description string `json:"description" yaml:"description"`
}

// Field is one member of a Structure.
type Field struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
}

// Macro is a preprocessor definition, either object-like or function-like.
type Macro struct {
	Name        string
	Header      HeaderSummary
	Summary     string
	Kind        MacroKind
	Description string
	OSAffinity  []string
}

// Enumeration is a C enum.
type Enumeration struct {
	Name        string        `json:"name"`
	Header      HeaderSummary `json:"header"`
	Summary     string        `json:"summary"`
	Variants    []Variant     `json:"variants"`
	Description string        `json:"description"`
	OSAffinity  []string      `json:"os_affinity"`
}

// Structure is a C struct.
type Structure struct {
	Name        string        `json:"name"`
	Header      HeaderSummary `json:"header"`
	Summary     string        `json:"summary"`
	Fields      []Field       `json:"fields"`
	Description string        `json:"description"`
	OSAffinity  []string      `json:"os_affinity"`
}

// Function is a C function declaration. Associated lists the names of
// related entities.
type Function struct {
	Name        string        `json:"name"`
	Header      HeaderSummary `json:"header"`
	Summary     string        `json:"summary"`
	Returns     Return        `json:"returns"`
	Parameters  []Parameter   `json:"parameters"`
	Description string        `json:"description"`
	Associated  []string      `json:"associated"`
	OSAffinity  []string      `json:"os_affinity"`
}

// TypeAlias is a typedef. AssociatedRef carries a resolved copy of the
// enumeration or structure the alias names, if any.
type TypeAlias struct {
	Name          string
	Header        HeaderSummary
	Summary       string
	Type          string
	AssociatedRef AssociatedRef
	Description   string
	OSAffinity    []string
}

// Document is the single artifact produced by a run.
type Document struct {
	BuildDate    string        `json:"build_date"`
	ReferenceURL string        `json:"reference_url"`
	Headers      []Header      `json:"headers"`
	Macros       []Macro       `json:"macros"`
	Enums        []Enumeration `json:"enums"`
	Structs      []Structure   `json:"structs"`
	Typedefs     []TypeAlias   `json:"typedefs"`
	Functions    []Function    `json:"functions"`
}

// NonNil returns s, or an empty non-nil slice when s is nil, so that
// encoded lists are never null.
func NonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
