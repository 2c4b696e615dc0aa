package types

import (
	"fmt"
	"go/token"
)

// Site locates a declaration: the unit it lives in and its byte range there.
type Site struct {
	Unit     string
	PosStart token.Pos
	PosEnd   token.Pos
}

func (s Site) String() string {
	return fmt.Sprintf("%s:%v-%v", s.Unit, s.PosStart, s.PosEnd)
}

// Named is a class or interface declared in the program, or one of the builtin named types.
type Named struct {
	Name string
	Kind NamedKind
	// Super is the extended class, nil for Object and for interfaces
	Super *Named
	// Interfaces are implemented (for classes) or extended (for interfaces) interfaces
	Interfaces []*Named

	// Ambient types come from `declare` statements or the builtin universe.
	// Their members are read-only for refactoring purposes.
	Ambient bool
	// Local types are declared inside a function or method body
	Local bool
	// Enclosing is the method whose body declares a Local type
	Enclosing *Method

	Site Site

	fields  []*Field
	methods []*Method
}

func (n *Named) TypeName() string { return n.Name }
func (n *Named) Hash() string     { return "named:" + n.Name }
func (*Named) isType()            {}

func (n *Named) IsClass() bool     { return n.Kind == KindClass }
func (n *Named) IsInterface() bool { return n.Kind == KindInterface }

// Fields are the fields declared by n itself, in declaration order.
func (n *Named) Fields() []*Field { return n.fields }

// Methods are the methods declared by n itself, in declaration order.
func (n *Named) Methods() []*Method { return n.methods }

func (n *Named) AddField(f *Field) {
	f.Owner = n
	n.fields = append(n.fields, f)
}

func (n *Named) AddMethod(m *Method) {
	m.Owner = n
	n.methods = append(n.methods, m)
}

// DeclaredMethod returns the method called name declared by n itself (not inherited), or nil.
func (n *Named) DeclaredMethod(name string) *Method {
	for _, m := range n.methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// DeclaredField returns the field called name declared by n itself (not inherited), or nil.
func (n *Named) DeclaredField(name string) *Field {
	for _, f := range n.fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Constructor returns the constructor declared by n, or nil.
func (n *Named) Constructor() *Method {
	for _, m := range n.methods {
		if m.Constructor {
			return m
		}
	}
	return nil
}

// Method is a function or method binding. Top-level functions have a nil Owner.
type Method struct {
	Name        string
	Owner       *Named
	Params      []*Variable
	Result      Type
	Constructor bool
	Static      bool
	Ambient     bool
	Site        Site
}

// Key identifies the method within one program.
func (m *Method) Key() string {
	if m.Owner == nil {
		return "func " + m.Name
	}
	return m.Owner.Name + "." + m.Name
}

func (m *Method) String() string {
	return m.Key() + "(...)"
}

// IsVirtual reports whether calls to m may dispatch to an overriding method.
func (m *Method) IsVirtual() bool {
	return m.Owner != nil && !m.Static && !m.Constructor
}

// ParamType returns the type of the parameter at index, or nil if there is no such parameter.
func (m *Method) ParamType(index int) Type {
	if index < 0 || index >= len(m.Params) {
		return nil
	}
	return m.Params[index].Type
}

// Field is a class field or interface property.
type Field struct {
	Name   string
	Owner  *Named
	Type   Type
	Static bool
	Site   Site
}

func (f *Field) Key() string {
	if f.Owner == nil {
		return "field " + f.Name
	}
	return f.Owner.Name + "#" + f.Name
}

type VariableKind int

const (
	LocalVariable VariableKind = iota
	ParameterVariable
)

// Variable is a local variable or a parameter.
type Variable struct {
	Name string
	Kind VariableKind
	Type Type
	// Method declaring the parameter, or the method whose body declares the local (nil at top level)
	Method *Method
	// Index is the position of a parameter, unused for locals
	Index int
	Site  Site
}

// Key identifies the variable within one program by its declaration site.
func (v *Variable) Key() string {
	return fmt.Sprintf("var %s@%s", v.Name, v.Site)
}
