package ast

// A Visitor's Visit method is invoked for each node encountered by Walk.
// If the result visitor w is not nil, Walk visits each of the children
// of node with the visitor w, followed by a call of w.Visit(nil).
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Walk traverses an AST in depth-first order, in the manner of go/ast.Walk.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
	v.Visit(nil)
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order: it starts by calling f(node);
// if f returns true, Inspect invokes f recursively for each of the children of node,
// followed by a call of f(nil).
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Children returns the direct children of n in source order. Nil children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, node := range nodes {
			if !isNil(node) {
				out = append(out, node)
			}
		}
	}
	switch n := n.(type) {
	case *Unit:
		for _, d := range n.Decls {
			add(d)
		}
	case *TypeRef:
		if n.Elem != nil {
			add(n.Elem)
		}
	case *ClassDecl:
		add(n.Name)
		for _, t := range n.Extends {
			add(t)
		}
		for _, t := range n.Implements {
			add(t)
		}
		for _, m := range n.Members {
			add(m)
		}
	case *FieldDecl:
		add(n.Name, n.Type, n.Init)
	case *MethodDecl:
		add(n.Name)
		for _, p := range n.Params {
			add(p)
		}
		add(n.Result, n.Body)
	case *Param:
		add(n.Name, n.Type, n.Init)
	case *VarDeclStmt:
		for _, d := range n.Decls {
			add(d)
		}
	case *VarDecl:
		add(n.Name, n.Type, n.Init)
	case *ExprStmt:
		add(n.X)
	case *ReturnStmt:
		add(n.Result)
	case *BlockStmt:
		for _, s := range n.Stmts {
			add(s)
		}
	case *IfStmt:
		add(n.Cond, n.Then, n.Else)
	case *WhileStmt:
		add(n.Cond, n.Body)
	case *ClassDeclStmt:
		add(n.Class)
	case *AssignExpr:
		add(n.Left, n.Right)
	case *CallExpr:
		add(n.Fun)
		for _, a := range n.Args {
			add(a)
		}
	case *NewExpr:
		add(n.Class)
		for _, a := range n.Args {
			add(a)
		}
	case *MemberExpr:
		add(n.X, n.Name)
	case *ParenExpr:
		add(n.X)
	case *CondExpr:
		add(n.Cond, n.Then, n.Else)
	case *BinaryExpr:
		add(n.X, n.Y)
	case *InstanceofExpr:
		add(n.X, n.Class)
	case *ArrayLit:
		for _, e := range n.Elems {
			add(e)
		}
	case *BadExpr:
		for _, e := range n.Subs {
			add(e)
		}
	}
	return out
}

// isNil catches both untyped nil and typed nil pointers stored in an interface.
func isNil(n Node) bool {
	switch n := n.(type) {
	case nil:
		return true
	case *Ident:
		return n == nil
	case *TypeRef:
		return n == nil
	case *BlockStmt:
		return n == nil
	case *ClassDecl:
		return n == nil
	}
	return false
}
