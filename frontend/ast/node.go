package ast

import (
	"github.com/cottand/gentype/frontend/types"
)

// Node is the base interface for all AST nodes.
type Node interface {
	Positioner
	node()
}

// Expr is the interface for all expression nodes in the AST.
// Type is the type resolved by the binder, nil when it could not be resolved.
type Expr interface {
	Node
	Type() types.Type
	SetType(types.Type)
	exprNode() // Marker method to distinguish expressions
}

// Stmt is the interface for all statement nodes in the AST.
type Stmt interface {
	Node
	stmtNode() // Marker method to distinguish statements
}

// Decl is the interface for top-level and member declarations.
type Decl interface {
	Node
	declNode() // Marker method to distinguish declarations
}

// Unit is a single parsed source file.
type Unit struct {
	Range
	Name   string
	Source []byte
	Decls  []Decl
	// HasErrors is set when the parser recovered from syntax errors
	HasErrors bool
}

// Text returns the source text covered by p.
func (u *Unit) Text(p Positioner) string {
	start, end := int(p.Pos()), int(p.End())
	if start < 0 || end > len(u.Source) || start > end {
		return ""
	}
	return string(u.Source[start:end])
}

// TypeRef is a type annotation as written in source, e.g. `Animal` or `Animal[]`.
type TypeRef struct {
	Range
	Name string
	// Elem is set for array types
	Elem *TypeRef
	T    types.Type
}

// IsArray reports whether the annotation is an array type.
func (t *TypeRef) IsArray() bool { return t.Elem != nil }

// typed carries the resolved type of an expression.
type typed struct {
	T types.Type
}

func (t *typed) Type() types.Type     { return t.T }
func (t *typed) SetType(ty types.Type) { t.T = ty }

// --- declarations ---

// ClassDecl declares a class or an interface.
type ClassDecl struct {
	Range
	Name      *Ident
	Interface bool
	// Ambient is set for `declare class` and `declare interface`
	Ambient bool
	// Extends holds the superclass of a class, or the extended interfaces of an interface
	Extends    []*TypeRef
	Implements []*TypeRef
	Members    []Decl
	Binding    *types.Named
}

// FieldDecl declares a class field or an interface property.
type FieldDecl struct {
	Range
	Name    *Ident
	Type    *TypeRef
	Init    Expr
	Static  bool
	Binding *types.Field
}

// MethodDecl declares a method, a constructor, an interface method signature, or a top-level function.
type MethodDecl struct {
	Range
	Name        *Ident
	Params      []*Param
	Result      *TypeRef
	Body        *BlockStmt
	Static      bool
	Constructor bool
	Binding     *types.Method
}

// Param is a formal parameter of a MethodDecl.
type Param struct {
	Range
	Name    *Ident
	Type    *TypeRef
	Init    Expr
	Binding *types.Variable
}

// --- statements ---

// VarDeclStmt is a `let`, `const` or `var` statement with one or more declarators.
// At top level it is also a Decl.
type VarDeclStmt struct {
	Range
	Keyword string
	Decls   []*VarDecl
}

// VarDecl is one declarator of a VarDeclStmt.
type VarDecl struct {
	Range
	Name    *Ident
	Type    *TypeRef
	Init    Expr
	Binding *types.Variable
}

type ExprStmt struct {
	Range
	X Expr
}

type ReturnStmt struct {
	Range
	Result Expr // nil for a bare return
}

type BlockStmt struct {
	Range
	Stmts []Stmt
}

type IfStmt struct {
	Range
	Cond Expr
	Then Stmt
	Else Stmt
}

type WhileStmt struct {
	Range
	Cond Expr
	Body Stmt
}

// ClassDeclStmt declares a local class inside a function body.
type ClassDeclStmt struct {
	Range
	Class *ClassDecl
}

// --- expressions ---

// Ident is a name. At most one of the bindings is set, depending on what the name refers to.
type Ident struct {
	Range
	typed
	Name string
	// Var is set for references to (and declarations of) locals and parameters
	Var *types.Variable
	// Func is set for references to top-level functions
	Func *types.Method
	// Named is set for references to classes and interfaces
	Named *types.Named
}

type ThisExpr struct {
	Range
	typed
}

type SuperExpr struct {
	Range
	typed
}

type NullLit struct {
	Range
	typed
}

// BasicLit is a number, string or boolean literal.
type BasicLit struct {
	Range
	typed
	Value string
}

// AssignExpr is `Left = Right` (compound assignments included).
type AssignExpr struct {
	Range
	typed
	Op    string
	Left  Expr
	Right Expr
}

// CallExpr calls a top-level function, a method through a MemberExpr, or a super method.
type CallExpr struct {
	Range
	typed
	Fun    Expr
	Args   []Expr
	Method *types.Method
}

// Receiver is the expression the method is invoked on, or nil for function calls.
func (c *CallExpr) Receiver() Expr {
	if member, ok := c.Fun.(*MemberExpr); ok {
		return member.X
	}
	return nil
}

// IsSuperCall reports whether the call is `super.m(...)` or `super(...)`.
func (c *CallExpr) IsSuperCall() bool {
	switch fun := c.Fun.(type) {
	case *SuperExpr:
		return true
	case *MemberExpr:
		_, ok := fun.X.(*SuperExpr)
		return ok
	}
	return false
}

type NewExpr struct {
	Range
	typed
	Class *Ident
	Args  []Expr
	Ctor  *types.Method
}

// MemberExpr is `X.Name`, a field access or a method reference.
type MemberExpr struct {
	Range
	typed
	X      Expr
	Name   *Ident
	Field  *types.Field
	Method *types.Method
}

type ParenExpr struct {
	Range
	typed
	X Expr
}

// CondExpr is the ternary `Cond ? Then : Else`.
type CondExpr struct {
	Range
	typed
	Cond Expr
	Then Expr
	Else Expr
}

type BinaryExpr struct {
	Range
	typed
	Op string
	X  Expr
	Y  Expr
}

// InstanceofExpr is `X instanceof Class`.
type InstanceofExpr struct {
	Range
	typed
	X     Expr
	Class *Ident
}

type ArrayLit struct {
	Range
	typed
	Elems []Expr
}

// BadExpr stands for any expression form the frontend does not model.
// Its sub-expressions are still walked.
type BadExpr struct {
	Range
	typed
	Kind string
	Subs []Expr
}

func (*Unit) node()           {}
func (*TypeRef) node()        {}
func (*ClassDecl) node()      {}
func (*FieldDecl) node()      {}
func (*MethodDecl) node()     {}
func (*Param) node()          {}
func (*VarDeclStmt) node()    {}
func (*VarDecl) node()        {}
func (*ExprStmt) node()       {}
func (*ReturnStmt) node()     {}
func (*BlockStmt) node()      {}
func (*IfStmt) node()         {}
func (*WhileStmt) node()      {}
func (*ClassDeclStmt) node()  {}
func (*Ident) node()          {}
func (*ThisExpr) node()       {}
func (*SuperExpr) node()      {}
func (*NullLit) node()        {}
func (*BasicLit) node()       {}
func (*AssignExpr) node()     {}
func (*CallExpr) node()       {}
func (*NewExpr) node()        {}
func (*MemberExpr) node()     {}
func (*ParenExpr) node()      {}
func (*CondExpr) node()       {}
func (*BinaryExpr) node()     {}
func (*InstanceofExpr) node() {}
func (*ArrayLit) node()       {}
func (*BadExpr) node()        {}

func (*ClassDecl) declNode()   {}
func (*FieldDecl) declNode()   {}
func (*MethodDecl) declNode()  {}
func (*VarDeclStmt) declNode() {}

func (*VarDeclStmt) stmtNode()   {}
func (*ExprStmt) stmtNode()      {}
func (*ReturnStmt) stmtNode()    {}
func (*BlockStmt) stmtNode()     {}
func (*IfStmt) stmtNode()        {}
func (*WhileStmt) stmtNode()     {}
func (*ClassDeclStmt) stmtNode() {}

func (*Ident) exprNode()          {}
func (*ThisExpr) exprNode()       {}
func (*SuperExpr) exprNode()      {}
func (*NullLit) exprNode()        {}
func (*BasicLit) exprNode()       {}
func (*AssignExpr) exprNode()     {}
func (*CallExpr) exprNode()       {}
func (*NewExpr) exprNode()        {}
func (*MemberExpr) exprNode()     {}
func (*ParenExpr) exprNode()      {}
func (*CondExpr) exprNode()       {}
func (*BinaryExpr) exprNode()     {}
func (*InstanceofExpr) exprNode() {}
func (*ArrayLit) exprNode()       {}
func (*BadExpr) exprNode()        {}
