package loader

import (
	"path/filepath"
	"strings"

	"github.com/morozRed/capibara/internal/affinity"
)

// Kind is the kind of record a loading pass produces.
type Kind string

const (
	KindMacro    Kind = "macro"
	KindEnum     Kind = "enum"
	KindStruct   Kind = "struct"
	KindTypedef  Kind = "typedef"
	KindFunction Kind = "function"
	KindHeader   Kind = "header"
)

// EntityKinds lists the fragment kinds in the order a sequential run loads them.
var EntityKinds = []Kind{KindMacro, KindEnum, KindStruct, KindTypedef, KindFunction}

var prefixes = map[Kind]string{
	KindMacro:    "mo-",
	KindEnum:     "em-",
	KindStruct:   "st-",
	KindTypedef:  "tf-",
	KindFunction: "fn-",
}

var slots = map[Kind]affinity.Slot{
	KindMacro:    affinity.SlotMacro,
	KindEnum:     affinity.SlotEnum,
	KindStruct:   affinity.SlotStruct,
	KindTypedef:  affinity.SlotTypedef,
	KindFunction: affinity.SlotFunction,
}

// Prefix returns the filename prefix that marks a fragment of kind k.
func (k Kind) Prefix() string {
	return prefixes[k]
}

// Classify returns the fragment kind a file name belongs to.
func Classify(fileName string) (Kind, bool) {
	for _, kind := range EntityKinds {
		if strings.HasPrefix(fileName, prefixes[kind]) {
			return kind, true
		}
	}
	return "", false
}

// EntityName strips the extension and the kind prefix from a fragment file name.
func EntityName(kind Kind, fileName string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	return strings.TrimPrefix(stem, kind.Prefix())
}
