package types

// ObjectTypeName is the root of every class and interface hierarchy
const ObjectTypeName = "Object"

var (
	NumberType    = Primitive{Kind: Number}
	StringType    = Primitive{Kind: String}
	BooleanType   = Primitive{Kind: Boolean}
	VoidType      = Primitive{Kind: Void}
	AnyType       = Primitive{Kind: Any}
	UndefinedType = Primitive{Kind: Undefined}
	NullType      = Null{}
)

// Universe holds the named types of one program, including the builtin ones.
type Universe struct {
	Object *Named
	named  map[string]*Named
	order  []*Named
}

func NewUniverse() *Universe {
	object := &Named{
		Name:    ObjectTypeName,
		Kind:    KindClass,
		Ambient: true,
		Site:    Site{Unit: "<builtin>"},
	}
	u := &Universe{
		Object: object,
		named:  make(map[string]*Named),
	}
	u.Declare(object)
	return u
}

// Declare registers a named type. A later declaration with the same name shadows an earlier one.
func (u *Universe) Declare(n *Named) {
	if _, exists := u.named[n.Name]; !exists {
		u.order = append(u.order, n)
	}
	u.named[n.Name] = n
}

// Lookup resolves a type name as written in source, including primitive names.
func (u *Universe) Lookup(name string) Type {
	switch name {
	case "number":
		return NumberType
	case "string":
		return StringType
	case "boolean":
		return BooleanType
	case "void":
		return VoidType
	case "any", "unknown":
		return AnyType
	case "undefined":
		return UndefinedType
	case "null":
		return NullType
	}
	if named, ok := u.named[name]; ok {
		return named
	}
	return nil
}

// LookupNamed resolves a class or interface by name.
func (u *Universe) LookupNamed(name string) *Named {
	return u.named[name]
}

// Named returns every named type in declaration order, Object first.
func (u *Universe) Named() []*Named {
	return u.order
}
