package constraints

import (
	"fmt"

	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/hashicorp/go-set/v3"
)

// ReceiverIndex is the parameter index that denotes the receiver of a method,
// whose type is the method's declaring type.
const ReceiverIndex = -1

// Variable is a node of the constraint graph.
//
// The set of implementations is closed: ExpressionVariable, ParameterVariable,
// ReturnVariable and DeclaredTypeVariable. Two variables are the same node iff their
// Hash is equal.
type Variable interface {
	// Hash is the identity of the variable within one program
	Hash() string
	// Type is the static type of the variable, nil when it could not be resolved
	Type() types.Type
	String() string
	variable()
}

// NewVariableSet returns an empty set of variables, keyed by Hash.
func NewVariableSet(size int) *set.HashSet[Variable, string] {
	return set.NewHashSet[Variable, string](size)
}

// ExpressionVariable stands for the value of an expression.
//
// When the expression names a local, a parameter or a field, Binding holds that binding's key and
// Unit and Range locate its declaration, so that every occurrence is the same variable.
// Otherwise Binding is empty and the variable is identified by where the expression appears.
type ExpressionVariable struct {
	Unit    string
	Range   ast.Range
	Binding string
	T       types.Type
	// Null is set for the null literal
	Null bool
}

func (v ExpressionVariable) Hash() string {
	if v.Binding != "" {
		return "expr:" + v.Binding
	}
	return fmt.Sprintf("expr:%s@%v", v.Unit, v.Range)
}

func (v ExpressionVariable) Type() types.Type { return v.T }

func (v ExpressionVariable) String() string {
	if v.Binding != "" {
		return fmt.Sprintf("[%s]", v.Binding)
	}
	return fmt.Sprintf("[%s@%v]", v.Unit, v.Range)
}

// ParameterVariable stands for a parameter of a method, or for its receiver at ReceiverIndex.
type ParameterVariable struct {
	Method *types.Method
	Index  int
}

func (v ParameterVariable) Hash() string {
	return fmt.Sprintf("param:%s#%d", v.Method.Key(), v.Index)
}

func (v ParameterVariable) Type() types.Type {
	if v.Index == ReceiverIndex {
		if v.Method.Owner == nil {
			return nil
		}
		return v.Method.Owner
	}
	return v.Method.ParamType(v.Index)
}

func (v ParameterVariable) String() string {
	if v.Index == ReceiverIndex {
		return fmt.Sprintf("[Receiver(%s)]", v.Method.Key())
	}
	return fmt.Sprintf("[Parameter(%d,%s)]", v.Index, v.Method.Key())
}

// ReturnVariable stands for the result of a method.
type ReturnVariable struct {
	Method *types.Method
}

func (v ReturnVariable) Hash() string     { return "return:" + v.Method.Key() }
func (v ReturnVariable) Type() types.Type { return v.Method.Result }
func (v ReturnVariable) String() string   { return fmt.Sprintf("[Return(%s)]", v.Method.Key()) }

// DeclaredTypeVariable stands for a type as written in a declaration. With a site it is that
// annotation, without one it is the type itself.
type DeclaredTypeVariable struct {
	T       types.Type
	Unit    string
	Range   ast.Range
	HasSite bool
}

func (v DeclaredTypeVariable) Hash() string {
	if v.HasSite {
		return fmt.Sprintf("decl:%s@%v", v.Unit, v.Range)
	}
	if v.T == nil {
		return "decl:<unresolved>"
	}
	return "decl:" + v.T.Hash()
}

func (v DeclaredTypeVariable) Type() types.Type { return v.T }

func (v DeclaredTypeVariable) String() string {
	name := "<unresolved>"
	if v.T != nil {
		name = v.T.TypeName()
	}
	if v.HasSite {
		return fmt.Sprintf("[Declared(%s)@%s:%v]", name, v.Unit, v.Range)
	}
	return fmt.Sprintf("[Declared(%s)]", name)
}

func (ExpressionVariable) variable()   {}
func (ParameterVariable) variable()    {}
func (ReturnVariable) variable()       {}
func (DeclaredTypeVariable) variable() {}

// BindingVariable is the expression variable of a local or parameter.
func BindingVariable(v *types.Variable) Variable {
	if v == nil {
		return nil
	}
	return ExpressionVariable{
		Unit:    v.Site.Unit,
		Range:   ast.Range{PosStart: v.Site.PosStart, PosEnd: v.Site.PosEnd},
		Binding: v.Key(),
		T:       v.Type,
	}
}

// FieldVariable is the expression variable of a field.
func FieldVariable(f *types.Field) Variable {
	if f == nil {
		return nil
	}
	return ExpressionVariable{
		Unit:    f.Site.Unit,
		Range:   ast.Range{PosStart: f.Site.PosStart, PosEnd: f.Site.PosEnd},
		Binding: f.Key(),
		T:       f.Type,
	}
}

// TypeVariable is the declared type variable for t without an annotation site.
func TypeVariable(t types.Type) Variable {
	if t == nil {
		return nil
	}
	return DeclaredTypeVariable{T: t}
}

// AnnotationVariable is the declared type variable of a type annotation in unit.
func AnnotationVariable(unit string, ref *ast.TypeRef) Variable {
	if ref == nil || ref.T == nil {
		return nil
	}
	return DeclaredTypeVariable{T: ref.T, Unit: unit, Range: ref.Range, HasSite: true}
}

// IsNullLiteral reports whether v is the variable of a null literal.
func IsNullLiteral(v Variable) bool {
	expr, ok := v.(ExpressionVariable)
	return ok && expr.Null
}
