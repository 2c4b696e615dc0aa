package types

import (
	"fmt"
	"strings"
)

// Type is the resolved type of a position in a program.
//
// The set of implementations is closed: *Named, Primitive, *Array and Null.
type Type interface {
	// TypeName is the name as it would be written in source
	TypeName() string
	// Hash uniquely identifies the type within one program
	Hash() string
	isType()
}

type PrimitiveKind int

const (
	Number PrimitiveKind = iota
	String
	Boolean
	Void
	Any
	Undefined
)

var primitiveNames = map[PrimitiveKind]string{
	Number:    "number",
	String:    "string",
	Boolean:   "boolean",
	Void:      "void",
	Any:       "any",
	Undefined: "undefined",
}

// Primitive is one of the predefined value types of the language.
type Primitive struct {
	Kind PrimitiveKind
}

func (p Primitive) TypeName() string { return primitiveNames[p.Kind] }
func (p Primitive) Hash() string     { return "prim:" + p.TypeName() }
func (Primitive) isType()            {}

// Array is an array type, written T[] in source.
type Array struct {
	Elem Type
}

func (a *Array) TypeName() string { return a.Elem.TypeName() + "[]" }
func (a *Array) Hash() string     { return "array:" + a.Elem.Hash() }
func (*Array) isType()            {}

// Null is the type of the null literal, a subtype of every named type.
type Null struct{}

func (Null) TypeName() string { return "null" }
func (Null) Hash() string     { return "null" }
func (Null) isType()          {}

type NamedKind int

const (
	KindClass NamedKind = iota
	KindInterface
)

func (k NamedKind) String() string {
	if k == KindInterface {
		return "interface"
	}
	return "class"
}

// IsPrimitive reports whether t is one of the predefined value types.
func IsPrimitive(t Type) bool {
	_, ok := t.(Primitive)
	return ok
}

// IsArray reports whether t is an array type.
func IsArray(t Type) bool {
	_, ok := t.(*Array)
	return ok
}

// IsNamed reports whether t is a class or interface type, and returns it if so.
func IsNamed(t Type) (*Named, bool) {
	named, ok := t.(*Named)
	return named, ok && named != nil
}

// Equal compares two types by identity, treating two nil types as equal.
func Equal(t1, t2 Type) bool {
	if t1 == nil || t2 == nil {
		return t1 == nil && t2 == nil
	}
	return t1.Hash() == t2.Hash()
}

// JoinNames renders a list of types, for messages and logs.
func JoinNames[T Type](ts []T) string {
	names := make([]string, len(ts))
	for i, t := range ts {
		names[i] = t.TypeName()
	}
	return fmt.Sprintf("{%s}", strings.Join(names, ", "))
}
