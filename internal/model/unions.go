package model

import (
	"encoding/json"

	"gitlab.com/tozd/go/errors"
)

// MacroKind is either ObjectMacro or FunctionMacro.
type MacroKind interface {
	macroKind()
}

// ObjectMacro is an object-like macro: #define NAME value.
type ObjectMacro struct{}

// FunctionMacro is a function-like macro with a documented result and parameters.
type FunctionMacro struct {
	Returns    Return           `json:"returns"`
	Parameters []MacroParameter `json:"parameters"`
}

func (ObjectMacro) macroKind()   {}
func (FunctionMacro) macroKind() {}

const (
	MacroKindObject   = "object"
	MacroKindFunction = "function"
)

// AssociatedRef is NoRef, EnumRef or StructRef. The resolved variants embed a
// full copy of the entity they point at.
type AssociatedRef interface {
	associatedRef()
}

// NoRef marks a type alias that names no known enumeration or structure.
type NoRef struct{}

// EnumRef embeds the enumeration a type alias names.
type EnumRef struct {
	Enumeration Enumeration
}

// StructRef embeds the structure a type alias names.
type StructRef struct {
	Structure Structure
}

func (NoRef) associatedRef()     {}
func (EnumRef) associatedRef()   {}
func (StructRef) associatedRef() {}

const (
	RefNone   = "none"
	RefEnum   = "enum"
	RefStruct = "struct"
)

// RefTag returns the wire tag of an associated reference.
func RefTag(ref AssociatedRef) string {
	switch ref.(type) {
	case EnumRef:
		return RefEnum
	case StructRef:
		return RefStruct
	default:
		return RefNone
	}
}

// tagged encodes a single-key object {tag: value}.
func tagged(tag string, value any) ([]byte, error) {
	return json.Marshal(map[string]any{tag: value})
}

func marshalMacroKind(kind MacroKind) ([]byte, error) {
	switch k := kind.(type) {
	case ObjectMacro:
		return tagged(MacroKindObject, struct{}{})
	case FunctionMacro:
		k.Parameters = NonNil(k.Parameters)
		return tagged(MacroKindFunction, k)
	case nil:
		return nil, errors.New("macro kind is not set")
	default:
		return nil, errors.Errorf("unknown macro kind %T", kind)
	}
}

func marshalAssociatedRef(ref AssociatedRef) ([]byte, error) {
	switch r := ref.(type) {
	case nil, NoRef:
		return tagged(RefNone, nil)
	case EnumRef:
		return tagged(RefEnum, r.Enumeration)
	case StructRef:
		return tagged(RefStruct, r.Structure)
	default:
		return nil, errors.Errorf("unknown associated reference %T", ref)
	}
}

// MarshalJSON writes the macro with its kind as an externally tagged object.
func (m Macro) MarshalJSON() ([]byte, error) {
	kind, err := marshalMacroKind(m.Kind)
	if err != nil {
		return nil, errors.Errorf("macro %s: %w", m.Name, err)
	}
	return json.Marshal(struct {
		Name        string          `json:"name"`
		Header      HeaderSummary   `json:"header"`
		Summary     string          `json:"summary"`
		Kind        json.RawMessage `json:"kind"`
		Description string          `json:"description"`
		OSAffinity  []string        `json:"os_affinity"`
	}{m.Name, m.Header, m.Summary, kind, m.Description, NonNil(m.OSAffinity)})
}

// MarshalJSON writes the alias with its associated reference as an externally
// tagged object.
func (t TypeAlias) MarshalJSON() ([]byte, error) {
	ref, err := marshalAssociatedRef(t.AssociatedRef)
	if err != nil {
		return nil, errors.Errorf("typedef %s: %w", t.Name, err)
	}
	return json.Marshal(struct {
		Name          string          `json:"name"`
		Header        HeaderSummary   `json:"header"`
		Summary       string          `json:"summary"`
		Type          string          `json:"type"`
		AssociatedRef json.RawMessage `json:"associated_ref"`
		Description   string          `json:"description"`
		OSAffinity    []string        `json:"os_affinity"`
	}{t.Name, t.Header, t.Summary, t.Type, ref, t.Description, NonNil(t.OSAffinity)})
}
