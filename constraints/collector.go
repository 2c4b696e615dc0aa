package constraints

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	"github.com/cottand/gentype/internal/log"
)

var collectLogger = log.DefaultLogger.With("section", log.SectionCollect)

// Hierarchy answers subtype queries over the whole program.
type Hierarchy interface {
	// Subtypes returns every type that transitively extends or implements t
	Subtypes(t *types.Named) []*types.Named
}

// Collector walks program trees and produces their type constraints.
type Collector struct {
	factory   *Factory
	object    *types.Named
	hierarchy Hierarchy
	logger    *slog.Logger
}

func NewCollector(universe *types.Universe, hierarchy Hierarchy, factory *Factory) *Collector {
	return &Collector{
		factory:   factory,
		object:    universe.Object,
		hierarchy: hierarchy,
		logger:    collectLogger,
	}
}

// WithLogger returns a copy of c that logs to logger.
func (c *Collector) WithLogger(logger *slog.Logger) *Collector {
	cp := *c
	cp.logger = logger
	return &cp
}

// Collect returns the constraints of every node under roots, which all belong to unit.
func (c *Collector) Collect(ctx context.Context, unit string, roots ...ast.Node) ([]Constraint, error) {
	v := &collectVisitor{Collector: c, ctx: ctx, unit: unit}
	for _, root := range roots {
		ast.Walk(v, root)
		if v.err != nil {
			return nil, fmt.Errorf("collecting constraints of %s: %w", unit, v.err)
		}
	}
	c.logger.Debug("collected constraints", "unit", unit, "roots", len(roots), "count", len(v.result))
	return v.result, nil
}

type collectVisitor struct {
	*Collector
	ctx  context.Context
	unit string
	// method is the innermost method whose body is being walked
	method *types.Method
	result []Constraint
	err    error
}

func (v *collectVisitor) add(cs ...*SimpleConstraint) {
	for _, c := range cs {
		if c != nil {
			v.result = append(v.result, c)
		}
	}
}

func (v *collectVisitor) addOr(c Constraint) {
	if c != nil {
		v.result = append(v.result, c)
	}
}

func (v *collectVisitor) Visit(node ast.Node) ast.Visitor {
	if node == nil || v.err != nil {
		return nil
	}
	switch n := node.(type) {
	case *ast.MethodDecl:
		if err := v.ctx.Err(); err != nil {
			v.err = err
			return nil
		}
		if n.Binding == nil {
			return nil
		}
		v.signature(n)
		inner := *v
		inner.method = n.Binding
		inner.result = nil
		for _, p := range n.Params {
			ast.Walk(&inner, p)
		}
		if n.Body != nil {
			ast.Walk(&inner, n.Body)
		}
		v.result = append(v.result, inner.result...)
		v.err = inner.err
		return nil
	case *ast.ClassDecl:
		if err := v.ctx.Err(); err != nil {
			v.err = err
			return nil
		}
	case *ast.VarDecl:
		v.declaration(BindingVariable(n.Binding), n.Type, n.Init)
	case *ast.FieldDecl:
		v.declaration(FieldVariable(n.Binding), n.Type, n.Init)
	case *ast.Param:
		v.declaration(BindingVariable(n.Binding), n.Type, n.Init)
	case *ast.AssignExpr:
		v.add(v.factory.Simple(Equals, v.exprVar(n.Left), v.exprVar(n.Right)))
	case *ast.ReturnStmt:
		if n.Result != nil && v.method != nil {
			v.add(v.factory.Simple(Subtype, v.exprVar(n.Result), ReturnVariable{Method: v.method}))
		}
	case *ast.CallExpr:
		v.call(n)
	case *ast.NewExpr:
		if n.Ctor != nil {
			v.arguments(n.Args, []*types.Method{n.Ctor})
		}
		if n.Class.Named != nil {
			v.add(v.factory.Simple(Defines, v.exprVar(n), TypeVariable(n.Class.Named)))
		}
	case *ast.MemberExpr:
		if n.Field != nil && !n.Field.Static && n.Field.Owner != nil {
			v.add(v.factory.Simple(Subtype, v.exprVar(n.X), TypeVariable(n.Field.Owner)))
		}
	case *ast.ThisExpr:
		v.add(v.factory.Simple(Defines, v.exprVar(n), TypeVariable(n.Type())))
	case *ast.ParenExpr:
		v.add(v.factory.Simple(Equals, v.exprVar(n), v.exprVar(n.X)))
	case *ast.CondExpr:
		whole, then, els := v.exprVar(n), v.exprVar(n.Then), v.exprVar(n.Else)
		v.add(
			v.factory.Simple(Equals, then, els),
			v.factory.Simple(Subtype, then, whole),
			v.factory.Simple(Subtype, els, whole),
		)
	case *ast.InstanceofExpr:
		if n.Class.Named != nil && n.Class.Named.IsClass() {
			if _, ok := types.IsNamed(n.X.Type()); ok {
				x, class := v.exprVar(n.X), TypeVariable(n.Class.Named)
				v.addOr(v.factory.Or(
					v.factory.Simple(Subtype, x, class),
					v.factory.Simple(Subtype, class, x),
				))
			}
		}
	}
	return v
}

// declaration handles a local, field or parameter declaration of name.
func (v *collectVisitor) declaration(name Variable, annotation *ast.TypeRef, init ast.Expr) {
	if annotation != nil {
		v.add(v.factory.Simple(Defines, name, AnnotationVariable(v.unit, annotation)))
	}
	if init != nil {
		v.add(v.factory.Simple(Subtype, v.exprVar(init), name))
	}
}

// signature emits the constraints of a method declaration itself.
func (v *collectVisitor) signature(decl *ast.MethodDecl) {
	m := decl.Binding
	if m.Owner != nil && !m.Static {
		v.add(v.factory.Simple(Defines, ParameterVariable{Method: m, Index: ReceiverIndex}, TypeVariable(m.Owner)))
	}
	if decl.Result != nil && !m.Constructor {
		v.add(v.factory.Simple(Defines, ReturnVariable{Method: m}, AnnotationVariable(v.unit, decl.Result)))
	}
	for i, p := range decl.Params {
		v.add(v.factory.Simple(Defines, ParameterVariable{Method: m, Index: i}, BindingVariable(p.Binding)))
	}
	if !m.IsVirtual() {
		return
	}
	for _, super := range types.DeclaringSuperTypes(m, v.object) {
		overridden := types.FindOverriddenMethodInType(super, m)
		if overridden == nil || overridden == m {
			continue
		}
		v.add(v.factory.Simple(Equals, ReturnVariable{Method: overridden}, ReturnVariable{Method: m}))
		for i := 0; i < len(m.Params) && i < len(overridden.Params); i++ {
			v.add(v.factory.Simple(Equals, ParameterVariable{Method: overridden, Index: i}, ParameterVariable{Method: m, Index: i}))
		}
	}
}

func (v *collectVisitor) call(call *ast.CallExpr) {
	m := call.Method
	if m == nil {
		return
	}
	receiver := call.Receiver()
	virtual := m.IsVirtual() && !call.IsSuperCall() && receiver != nil

	targets := []*types.Method{m}
	if virtual {
		targets = append(targets, v.overrides(m, receiver.Type())...)
	}
	v.arguments(call.Args, targets)

	if m.Result != nil && !types.IsPrimitive(m.Result) {
		v.add(v.factory.Simple(Defines, v.exprVar(call), ReturnVariable{Method: m}))
	}

	if virtual {
		recv := v.exprVar(receiver)
		roots := types.RootDefs(m, v.object)
		components := make([]*SimpleConstraint, 0, len(roots))
		for _, root := range roots {
			components = append(components, v.factory.Simple(Subtype, recv, ParameterVariable{Method: root, Index: ReceiverIndex}))
		}
		v.addOr(v.factory.Or(components...))
	}
}

// overrides returns the methods overriding m in subtypes of the receiver's static type.
func (v *collectVisitor) overrides(m *types.Method, receiverType types.Type) []*types.Method {
	named, ok := types.IsNamed(receiverType)
	if !ok || v.hierarchy == nil {
		return nil
	}
	var result []*types.Method
	for _, sub := range v.hierarchy.Subtypes(named) {
		if override := types.FindOverriddenMethodInType(sub, m); override != nil && override != m {
			result = append(result, override)
		}
	}
	return result
}

// arguments emits one constraint per argument. With several possible targets the argument must
// fit at least one of them.
func (v *collectVisitor) arguments(args []ast.Expr, targets []*types.Method) {
	for i, arg := range args {
		argVar := v.exprVar(arg)
		components := make([]*SimpleConstraint, 0, len(targets))
		for _, target := range targets {
			if i >= len(target.Params) {
				continue
			}
			components = append(components, v.factory.Simple(Subtype, argVar, ParameterVariable{Method: target, Index: i}))
		}
		v.addOr(v.factory.Or(components...))
	}
}

// exprVar returns the constraint variable of e, or nil when e cannot take part in constraints.
func (v *collectVisitor) exprVar(e ast.Expr) Variable {
	switch e := e.(type) {
	case nil:
		return nil
	case *ast.Ident:
		if e.Var != nil {
			return BindingVariable(e.Var)
		}
		if e.Func != nil || e.Named != nil {
			return nil
		}
	case *ast.MemberExpr:
		if e.Field != nil {
			return FieldVariable(e.Field)
		}
		return nil
	case *ast.NullLit:
		return ExpressionVariable{Unit: v.unit, Range: e.Range, T: types.NullType, Null: true}
	}
	t := e.Type()
	if t == nil {
		v.logger.Debug("dropping unresolved expression", "unit", v.unit, "expr", ast.Slog(e))
		return nil
	}
	return ExpressionVariable{Unit: v.unit, Range: ast.RangeOf(e), T: t}
}
