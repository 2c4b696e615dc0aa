package frontend

import (
	"log/slog"

	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
)

// binder resolves names and types across every unit of a program.
//
// Binding runs in phases so that declarations may be used before they appear:
// named types and functions are declared first, then heritage clauses, then member
// signatures, and finally method bodies and initializers.
type binder struct {
	universe *types.Universe
	funcs    map[string]*types.Method
	logger   *slog.Logger
}

type scope struct {
	parent *scope
	vars   map[string]*types.Variable
	named  map[string]*types.Named
	// class is the type `this` refers to, nil outside of classes
	class *types.Named
	// method is the function whose body is being bound, nil at top level
	method *types.Method
	unit   string
}

func newScope(parent *scope) *scope {
	sc := &scope{
		parent: parent,
		vars:   make(map[string]*types.Variable),
		named:  make(map[string]*types.Named),
	}
	if parent != nil {
		sc.class = parent.class
		sc.method = parent.method
		sc.unit = parent.unit
	}
	return sc
}

func (s *scope) lookupVar(name string) *types.Variable {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) lookupLocalType(name string) *types.Named {
	for sc := s; sc != nil; sc = sc.parent {
		if n, ok := sc.named[name]; ok {
			return n
		}
	}
	return nil
}

func siteOf(unit string, p ast.Positioner) types.Site {
	return types.Site{Unit: unit, PosStart: p.Pos(), PosEnd: p.End()}
}

func bind(universe *types.Universe, units []*ast.Unit) map[string]*types.Method {
	b := &binder{
		universe: universe,
		funcs:    make(map[string]*types.Method),
		logger:   frontendLogger.With("phase", "bind"),
	}
	globals := make(map[string]*scope, len(units))
	for _, unit := range units {
		sc := newScope(nil)
		sc.unit = unit.Name
		globals[unit.Name] = sc
	}

	for _, unit := range units {
		for _, decl := range unit.Decls {
			switch decl := decl.(type) {
			case *ast.ClassDecl:
				b.universe.Declare(b.declareNamed(decl, unit.Name))
			case *ast.MethodDecl:
				fn := &types.Method{Name: decl.Name.Name, Site: siteOf(unit.Name, decl), Ambient: decl.Body == nil}
				decl.Binding = fn
				decl.Name.Func = fn
				b.funcs[fn.Name] = fn
			}
		}
	}
	for _, unit := range units {
		for _, decl := range unit.Decls {
			if class, ok := decl.(*ast.ClassDecl); ok {
				b.bindHeritage(class, globals[unit.Name])
			}
		}
	}
	for _, unit := range units {
		sc := globals[unit.Name]
		for _, decl := range unit.Decls {
			switch decl := decl.(type) {
			case *ast.ClassDecl:
				b.bindMembers(decl, sc)
			case *ast.MethodDecl:
				b.bindSignature(decl, decl.Binding, sc)
			}
		}
	}
	for _, unit := range units {
		sc := globals[unit.Name]
		for _, decl := range unit.Decls {
			switch decl := decl.(type) {
			case *ast.ClassDecl:
				b.bindClassBodies(decl, sc)
			case *ast.MethodDecl:
				b.bindBody(decl, decl.Binding, sc)
			case *ast.VarDeclStmt:
				b.bindStmt(decl, sc)
			}
		}
	}
	return b.funcs
}

func (b *binder) declareNamed(decl *ast.ClassDecl, unit string) *types.Named {
	kind := types.KindClass
	if decl.Interface {
		kind = types.KindInterface
	}
	named := &types.Named{
		Name:    decl.Name.Name,
		Kind:    kind,
		Ambient: decl.Ambient,
		Site:    siteOf(unit, decl),
	}
	decl.Binding = named
	decl.Name.Named = named
	return named
}

func (b *binder) lookupNamed(name string, sc *scope) *types.Named {
	if local := sc.lookupLocalType(name); local != nil {
		return local
	}
	return b.universe.LookupNamed(name)
}

// resolveTypeRef resolves an annotation, returning nil when it names an unknown type.
func (b *binder) resolveTypeRef(ref *ast.TypeRef, sc *scope) types.Type {
	if ref == nil {
		return nil
	}
	var resolved types.Type
	if ref.Elem != nil {
		if elem := b.resolveTypeRef(ref.Elem, sc); elem != nil {
			resolved = &types.Array{Elem: elem}
		}
	} else if local := sc.lookupLocalType(ref.Name); local != nil {
		resolved = local
	} else {
		resolved = b.universe.Lookup(ref.Name)
	}
	if resolved == nil {
		b.logger.Debug("unresolved type annotation", "name", ref.Name, "unit", sc.unit, "range", ref.Range)
	}
	ref.T = resolved
	return resolved
}

func (b *binder) bindHeritage(decl *ast.ClassDecl, sc *scope) {
	named := decl.Binding
	for i, ref := range decl.Extends {
		super := b.lookupNamed(ref.Name, sc)
		if super == nil {
			b.logger.Debug("unresolved supertype", "type", named.Name, "super", ref.Name)
			continue
		}
		ref.T = super
		if !decl.Interface && i == 0 && super.IsClass() {
			named.Super = super
		} else {
			named.Interfaces = append(named.Interfaces, super)
		}
	}
	for _, ref := range decl.Implements {
		iface := b.lookupNamed(ref.Name, sc)
		if iface == nil {
			b.logger.Debug("unresolved interface", "type", named.Name, "interface", ref.Name)
			continue
		}
		ref.T = iface
		named.Interfaces = append(named.Interfaces, iface)
	}
	if named.IsClass() && named.Super == nil && named.Name != types.ObjectTypeName {
		named.Super = b.universe.Object
	}
}

func (b *binder) bindMembers(decl *ast.ClassDecl, sc *scope) {
	named := decl.Binding
	for _, member := range decl.Members {
		switch member := member.(type) {
		case *ast.FieldDecl:
			field := &types.Field{
				Name:   member.Name.Name,
				Type:   b.resolveTypeRef(member.Type, sc),
				Static: member.Static,
				Site:   siteOf(sc.unit, member),
			}
			named.AddField(field)
			member.Binding = field
			member.Name.SetType(field.Type)
		case *ast.MethodDecl:
			method := &types.Method{
				Name:        member.Name.Name,
				Constructor: member.Constructor,
				Static:      member.Static,
				Ambient:     named.Ambient,
				Site:        siteOf(sc.unit, member),
			}
			named.AddMethod(method)
			member.Binding = method
			b.bindSignature(member, method, sc)
		}
	}
}

func (b *binder) bindSignature(decl *ast.MethodDecl, method *types.Method, sc *scope) {
	for i, param := range decl.Params {
		paramType := b.resolveTypeRef(param.Type, sc)
		if param.Type == nil {
			paramType = types.AnyType
		}
		v := &types.Variable{
			Name:   param.Name.Name,
			Kind:   types.ParameterVariable,
			Type:   paramType,
			Method: method,
			Index:  i,
			Site:   siteOf(sc.unit, param.Name),
		}
		method.Params = append(method.Params, v)
		param.Binding = v
		param.Name.Var = v
		param.Name.SetType(paramType)
	}
	switch {
	case decl.Result != nil:
		method.Result = b.resolveTypeRef(decl.Result, sc)
	case decl.Constructor:
		method.Result = types.VoidType
	default:
		method.Result = types.AnyType
	}
}

func (b *binder) bindClassBodies(decl *ast.ClassDecl, sc *scope) {
	classScope := newScope(sc)
	classScope.class = decl.Binding
	classScope.method = nil
	for _, member := range decl.Members {
		switch member := member.(type) {
		case *ast.FieldDecl:
			if member.Init == nil {
				continue
			}
			initType := b.bindExpr(member.Init, classScope)
			if member.Binding.Type == nil {
				member.Binding.Type = widen(initType)
				member.Name.SetType(member.Binding.Type)
			}
		case *ast.MethodDecl:
			b.bindBody(member, member.Binding, classScope)
		}
	}
}

func (b *binder) bindBody(decl *ast.MethodDecl, method *types.Method, sc *scope) {
	bodyScope := newScope(sc)
	bodyScope.method = method
	for _, param := range decl.Params {
		bodyScope.vars[param.Name.Name] = param.Binding
		if param.Init != nil {
			b.bindExpr(param.Init, bodyScope)
		}
	}
	if decl.Body != nil {
		b.bindBlock(decl.Body, bodyScope)
	}
}

func (b *binder) bindBlock(block *ast.BlockStmt, parent *scope) {
	sc := newScope(parent)
	var locals []*ast.ClassDecl
	for _, stmt := range block.Stmts {
		if classStmt, ok := stmt.(*ast.ClassDeclStmt); ok {
			named := b.declareNamed(classStmt.Class, sc.unit)
			named.Local = true
			named.Enclosing = sc.method
			sc.named[named.Name] = named
			locals = append(locals, classStmt.Class)
		}
	}
	for _, local := range locals {
		b.bindHeritage(local, sc)
	}
	for _, local := range locals {
		b.bindMembers(local, sc)
	}
	for _, stmt := range block.Stmts {
		b.bindStmt(stmt, sc)
	}
}

func (b *binder) bindStmt(stmt ast.Stmt, sc *scope) {
	switch stmt := stmt.(type) {
	case *ast.VarDeclStmt:
		for _, decl := range stmt.Decls {
			var initType types.Type
			if decl.Init != nil {
				initType = b.bindExpr(decl.Init, sc)
			}
			declType := b.resolveTypeRef(decl.Type, sc)
			if decl.Type == nil {
				declType = widen(initType)
			}
			v := &types.Variable{
				Name:   decl.Name.Name,
				Kind:   types.LocalVariable,
				Type:   declType,
				Method: sc.method,
				Site:   siteOf(sc.unit, decl.Name),
			}
			decl.Binding = v
			decl.Name.Var = v
			decl.Name.SetType(declType)
			sc.vars[v.Name] = v
		}
	case *ast.ExprStmt:
		b.bindExpr(stmt.X, sc)
	case *ast.ReturnStmt:
		if stmt.Result != nil {
			b.bindExpr(stmt.Result, sc)
		}
	case *ast.BlockStmt:
		b.bindBlock(stmt, sc)
	case *ast.IfStmt:
		if stmt.Cond != nil {
			b.bindExpr(stmt.Cond, sc)
		}
		b.bindNested(stmt.Then, sc)
		b.bindNested(stmt.Else, sc)
	case *ast.WhileStmt:
		if stmt.Cond != nil {
			b.bindExpr(stmt.Cond, sc)
		}
		b.bindNested(stmt.Body, sc)
	case *ast.ClassDeclStmt:
		// declared by the enclosing block, only bodies are left
		b.bindClassBodies(stmt.Class, sc)
	}
}

// bindNested binds the branch of a compound statement in its own scope.
func (b *binder) bindNested(stmt ast.Stmt, sc *scope) {
	if stmt == nil {
		return
	}
	if block, ok := stmt.(*ast.BlockStmt); ok {
		b.bindBlock(block, sc)
		return
	}
	b.bindStmt(stmt, newScope(sc))
}

// widen is the type a variable gets when it is inferred from its initializer.
func widen(t types.Type) types.Type {
	switch t.(type) {
	case nil, types.Null:
		return types.AnyType
	}
	if types.Equal(t, types.UndefinedType) {
		return types.AnyType
	}
	return t
}

func (b *binder) bindExpr(e ast.Expr, sc *scope) types.Type {
	t := b.typeOf(e, sc)
	e.SetType(t)
	return t
}

func (b *binder) typeOf(e ast.Expr, sc *scope) types.Type {
	switch e := e.(type) {
	case *ast.Ident:
		if e.Name == "undefined" {
			return types.UndefinedType
		}
		if v := sc.lookupVar(e.Name); v != nil {
			e.Var = v
			return v.Type
		}
		if fn, ok := b.funcs[e.Name]; ok {
			e.Func = fn
			return nil
		}
		if named := b.lookupNamed(e.Name, sc); named != nil {
			e.Named = named
		}
		return nil
	case *ast.ThisExpr:
		if sc.class == nil {
			return nil
		}
		return sc.class
	case *ast.SuperExpr:
		if sc.class == nil || sc.class.Super == nil {
			return nil
		}
		return sc.class.Super
	case *ast.NullLit:
		return types.NullType
	case *ast.BasicLit:
		return e.Type()
	case *ast.AssignExpr:
		left := b.bindExpr(e.Left, sc)
		b.bindExpr(e.Right, sc)
		return left
	case *ast.CallExpr:
		return b.typeOfCall(e, sc)
	case *ast.NewExpr:
		for _, arg := range e.Args {
			b.bindExpr(arg, sc)
		}
		named := b.lookupNamed(e.Class.Name, sc)
		if named == nil {
			return nil
		}
		e.Class.Named = named
		for c := named; c != nil && e.Ctor == nil; c = c.Super {
			e.Ctor = c.Constructor()
		}
		return named
	case *ast.MemberExpr:
		owner := b.memberOwner(e, sc)
		if owner == nil {
			return nil
		}
		if field := types.FindField(owner, e.Name.Name, b.universe.Object); field != nil {
			e.Field = field
			e.Name.SetType(field.Type)
			return field.Type
		}
		e.Method = types.FindMethod(owner, e.Name.Name, b.universe.Object)
		return nil
	case *ast.ParenExpr:
		return b.bindExpr(e.X, sc)
	case *ast.CondExpr:
		b.bindExpr(e.Cond, sc)
		return b.join(b.bindExpr(e.Then, sc), b.bindExpr(e.Else, sc))
	case *ast.BinaryExpr:
		x, y := b.bindExpr(e.X, sc), b.bindExpr(e.Y, sc)
		switch e.Op {
		case "+":
			if types.Equal(x, types.StringType) || types.Equal(y, types.StringType) {
				return types.StringType
			}
			return types.NumberType
		case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
			return types.NumberType
		case "??":
			return b.join(x, y)
		}
		return types.BooleanType
	case *ast.InstanceofExpr:
		b.bindExpr(e.X, sc)
		if named := b.lookupNamed(e.Class.Name, sc); named != nil {
			e.Class.Named = named
		}
		return types.BooleanType
	case *ast.ArrayLit:
		var elem types.Type
		for _, el := range e.Elems {
			if t := b.bindExpr(el, sc); elem == nil && t != nil && !types.Equal(t, types.NullType) {
				elem = t
			}
		}
		if elem == nil {
			elem = types.AnyType
		}
		return &types.Array{Elem: elem}
	case *ast.BadExpr:
		for _, sub := range e.Subs {
			b.bindExpr(sub, sc)
		}
		return nil
	}
	return nil
}

// memberOwner binds the qualifier of e and returns the named type its member is looked up in.
// A qualifier naming a class directly selects its static members.
func (b *binder) memberOwner(e *ast.MemberExpr, sc *scope) *types.Named {
	qualifier := b.bindExpr(e.X, sc)
	if ident, ok := e.X.(*ast.Ident); ok && ident.Named != nil {
		return ident.Named
	}
	named, ok := types.IsNamed(qualifier)
	if !ok {
		return nil
	}
	return named
}

func (b *binder) typeOfCall(call *ast.CallExpr, sc *scope) types.Type {
	for _, arg := range call.Args {
		b.bindExpr(arg, sc)
	}
	switch fun := call.Fun.(type) {
	case *ast.Ident:
		b.bindExpr(fun, sc)
		if fun.Func != nil {
			call.Method = fun.Func
		}
	case *ast.MemberExpr:
		if owner := b.memberOwner(fun, sc); owner != nil {
			fun.Method = types.FindMethod(owner, fun.Name.Name, b.universe.Object)
			call.Method = fun.Method
		}
	case *ast.SuperExpr:
		b.bindExpr(fun, sc)
		if sc.class != nil {
			for c := sc.class.Super; c != nil && call.Method == nil; c = c.Super {
				call.Method = c.Constructor()
			}
		}
		return types.VoidType
	default:
		b.bindExpr(fun, sc)
	}
	if call.Method == nil {
		return nil
	}
	return call.Method.Result
}

// join is the type of an expression that evaluates to either t1 or t2.
func (b *binder) join(t1, t2 types.Type) types.Type {
	object := b.universe.Object
	switch {
	case t1 == nil || t2 == nil:
		return nil
	case types.Equal(t1, t2):
		return t1
	case types.IsSubTypeOf(t1, t2, object) && !types.Equal(t2, types.AnyType):
		return t2
	case types.IsSubTypeOf(t2, t1, object) && !types.Equal(t1, types.AnyType):
		return t1
	}
	n1, ok1 := types.IsNamed(t1)
	n2, ok2 := types.IsNamed(t2)
	if ok1 && ok2 {
		for _, super := range types.AllSuperTypes(n1, object) {
			if types.IsSubTypeOf(n2, super, object) {
				return super
			}
		}
	}
	return types.AnyType
}
