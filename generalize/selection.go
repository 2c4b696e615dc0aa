package generalize

import (
	"fmt"

	"github.com/cottand/gentype/constraints"
	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/status"
)

type SelectionKind int

const (
	LocalSelection SelectionKind = iota
	FieldSelection
	ParameterSelection
	ReturnSelection
)

func (k SelectionKind) String() string {
	switch k {
	case LocalSelection:
		return "local"
	case FieldSelection:
		return "field"
	case ParameterSelection:
		return "parameter"
	case ReturnSelection:
		return "return"
	}
	return fmt.Sprintf("selection(%d)", int(k))
}

// ReturnIndex is the Selection.Index of a method's return type.
const ReturnIndex = -1

// Selection is the declaration whose type is to be generalized.
type Selection struct {
	Kind SelectionKind
	Unit string
	// Range is the selected node
	Range ast.Range
	Name  string
	// Type is the declared type, a class or interface once the selection is validated
	Type types.Type
	// Annotation is the written type, nil for declarations without one
	Annotation *ast.TypeRef

	// Variable is set for locals and parameters
	Variable *types.Variable
	// Field is set for fields
	Field *types.Field
	// Method and Index are set for parameters and return types
	Method *types.Method
	Index  int
}

func (s *Selection) String() string {
	switch s.Kind {
	case ParameterSelection:
		return fmt.Sprintf("parameter %s of %s", s.Name, s.Method.Key())
	case ReturnSelection:
		return fmt.Sprintf("return type of %s", s.Method.Key())
	case FieldSelection:
		return fmt.Sprintf("field %s", s.Field.Key())
	}
	return fmt.Sprintf("%s %s", s.Kind, s.Name)
}

// IsMethod reports whether changing the selection changes a method signature.
func (s *Selection) IsMethod() bool {
	return s.Kind == ParameterSelection || s.Kind == ReturnSelection
}

// Named returns the selected type as a class or interface.
func (s *Selection) Named() *types.Named {
	named, _ := types.IsNamed(s.Type)
	return named
}

// Matches reports whether v is the constraint variable standing for the selection.
func (s *Selection) Matches(v constraints.Variable) bool {
	switch v := v.(type) {
	case constraints.ExpressionVariable:
		switch s.Kind {
		case LocalSelection:
			return v.Binding == s.Variable.Key()
		case FieldSelection:
			return v.Binding == s.Field.Key()
		}
	case constraints.ParameterVariable:
		return s.Kind == ParameterSelection && v.Index == s.Index && v.Method.Key() == s.Method.Key()
	case constraints.ReturnVariable:
		return s.Kind == ReturnSelection && v.Method.Key() == s.Method.Key()
	}
	return false
}

// classify maps the source range [offset, offset+length) of unit to the declaration it selects.
func classify(unit *ast.Unit, offset, length int) (*Selection, *status.Status) {
	if offset < 0 || length < 0 || offset+length > len(unit.Source) {
		return nil, fatal(status.InvalidSelection, "selection %d+%d is outside of %s", offset, length, unit.Name)
	}
	path := ast.PathTo(unit, ast.RangeFrom(offset, length))
	if len(path) <= 1 {
		return nil, fatal(status.InvalidSelection, "select a variable, parameter, field or method declaration")
	}
	node, parent := path[len(path)-1], ast.Parent(path)

	switch n := node.(type) {
	case *ast.TypeRef:
		if _, nested := parent.(*ast.TypeRef); nested {
			return nil, fatal(status.ArrayType, "array element types cannot be generalized")
		}
		return fromDeclaration(unit, path[:len(path)-1])
	case *ast.Ident:
		if declaredName(parent) == n {
			return fromDeclaration(unit, path[:len(path)-1])
		}
		switch p := parent.(type) {
		case *ast.MemberExpr:
			if p.Name == n && p.Field != nil {
				return fromField(p.Field, nil, ast.RangeOf(n), unit.Name)
			}
		}
		if n.Var != nil {
			declPath := ast.PathTo(unit, ast.Range{PosStart: n.Var.Site.PosStart, PosEnd: n.Var.Site.PosEnd})
			if len(declPath) > 1 && n.Var.Site.Unit == unit.Name {
				return fromDeclaration(unit, declPath[:len(declPath)-1])
			}
		}
		return nil, fatal(status.UnsupportedNode, "%s does not name a variable, parameter, field or method", n.Name)
	case *ast.VarDecl, *ast.Param, *ast.FieldDecl, *ast.MethodDecl:
		return fromDeclaration(unit, path)
	case *ast.VarDeclStmt:
		if len(n.Decls) > 1 {
			return nil, fatal(status.MultiDeclaration, "select one of the variables declared together")
		}
		if len(n.Decls) == 1 {
			return fromDeclaration(unit, append(path, n.Decls[0]))
		}
	}
	return nil, fatal(status.UnsupportedNode, "cannot generalize the type of a %s", nodeKind(node))
}

// fromDeclaration builds the selection for the declaration at the end of path.
func fromDeclaration(unit *ast.Unit, path []ast.Node) (*Selection, *status.Status) {
	decl := path[len(path)-1]
	r := ast.RangeOf(decl)
	switch d := decl.(type) {
	case *ast.VarDecl:
		if stmt, ok := ast.Parent(path).(*ast.VarDeclStmt); ok && len(stmt.Decls) > 1 {
			return nil, fatal(status.MultiDeclaration, "%s is declared together with other variables", d.Name.Name)
		}
		if d.Binding == nil {
			return nil, fatal(status.InvalidSelection, "%s could not be resolved", d.Name.Name)
		}
		return &Selection{
			Kind:       LocalSelection,
			Unit:       unit.Name,
			Range:      r,
			Name:       d.Name.Name,
			Type:       d.Binding.Type,
			Annotation: d.Type,
			Variable:   d.Binding,
		}, nil
	case *ast.Param:
		method, ok := ast.Parent(path).(*ast.MethodDecl)
		if !ok || d.Binding == nil || method.Binding == nil {
			return nil, fatal(status.InvalidSelection, "%s could not be resolved", d.Name.Name)
		}
		return &Selection{
			Kind:       ParameterSelection,
			Unit:       unit.Name,
			Range:      r,
			Name:       d.Name.Name,
			Type:       d.Binding.Type,
			Annotation: d.Type,
			Variable:   d.Binding,
			Method:     method.Binding,
			Index:      d.Binding.Index,
		}, nil
	case *ast.FieldDecl:
		if d.Binding == nil {
			return nil, fatal(status.InvalidSelection, "%s could not be resolved", d.Name.Name)
		}
		return fromField(d.Binding, d.Type, r, unit.Name)
	case *ast.MethodDecl:
		if d.Binding == nil {
			return nil, fatal(status.InvalidSelection, "%s could not be resolved", d.Name.Name)
		}
		if d.Constructor {
			return nil, fatal(status.UnsupportedNode, "constructors have no return type")
		}
		return &Selection{
			Kind:       ReturnSelection,
			Unit:       unit.Name,
			Range:      r,
			Name:       d.Name.Name,
			Type:       d.Binding.Result,
			Annotation: d.Result,
			Method:     d.Binding,
			Index:      ReturnIndex,
		}, nil
	}
	return nil, fatal(status.UnsupportedNode, "cannot generalize the type of a %s", nodeKind(decl))
}

func declaredName(decl ast.Node) *ast.Ident {
	switch d := decl.(type) {
	case *ast.VarDecl:
		return d.Name
	case *ast.Param:
		return d.Name
	case *ast.FieldDecl:
		return d.Name
	case *ast.MethodDecl:
		return d.Name
	}
	return nil
}

func fromField(f *types.Field, annotation *ast.TypeRef, r ast.Range, unit string) (*Selection, *status.Status) {
	return &Selection{
		Kind:       FieldSelection,
		Unit:       unit,
		Range:      r,
		Name:       f.Name,
		Type:       f.Type,
		Annotation: annotation,
		Field:      f,
	}, nil
}

// validate rejects selections whose type cannot be generalized.
func validate(sel *Selection, object *types.Named) *status.Status {
	switch t := sel.Type.(type) {
	case nil:
		return fatal(status.InvalidSelection, "the type of %s could not be resolved", sel.Name)
	case *types.Array:
		return fatal(status.ArrayType, "the type of %s is the array type %s", sel.Name, t.TypeName())
	case types.Primitive, types.Null:
		return fatal(status.PrimitiveType, "the type of %s is the primitive type %s", sel.Name, t.TypeName())
	case *types.Named:
		if t.Local {
			return fatal(status.LocalType, "%s is declared inside a function body", t.Name)
		}
	}
	if owner := declaringType(sel); owner != nil && owner.Local {
		return fatal(status.InsideLocalType, "%s is a member of the local type %s", sel.Name, owner.Name)
	}
	if sel.IsMethod() {
		if sel.Method.Ambient {
			return fatal(status.OverriddenAmbientMethod, "%s is declared in ambient code", sel.Method.Key())
		}
		for _, super := range types.DeclaringSuperTypes(sel.Method, object) {
			if overridden := types.FindOverriddenMethodInType(super, sel.Method); overridden != nil && overridden.Ambient {
				return fatal(status.OverriddenAmbientMethod, "%s overrides the ambient method %s", sel.Method.Key(), overridden.Key())
			}
		}
	}
	return nil
}

// declaringType is the type whose body contains the selection, if any.
func declaringType(sel *Selection) *types.Named {
	switch {
	case sel.Field != nil:
		return sel.Field.Owner
	case sel.Method != nil:
		return sel.Method.Owner
	case sel.Variable != nil && sel.Variable.Method != nil:
		return sel.Variable.Method.Owner
	}
	return nil
}

func fatal(code status.Code, format string, args ...any) *status.Status {
	return (&status.Status{}).With(status.NewFatal(code, format, args...))
}

func nodeKind(n ast.Node) string {
	return fmt.Sprintf("%T", n)
}
