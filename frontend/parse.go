package frontend

import (
	"context"
	"fmt"
	"go/token"

	"github.com/cottand/gentype/frontend/ast"
	"github.com/cottand/gentype/frontend/types"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// ParseUnit parses TypeScript source into an unbound ast.Unit.
//
// Syntax errors do not fail parsing: tree-sitter recovers, the unit is flagged with HasErrors,
// and unrecognised constructs are either skipped (declarations, statements) or kept as
// ast.BadExpr (expressions).
func ParseUnit(ctx context.Context, name string, src []byte) (*ast.Unit, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	unit := &ast.Unit{
		Range:  ast.Range{PosStart: 0, PosEnd: token.Pos(len(src))},
		Name:   name,
		Source: src,
	}
	if root == nil {
		return unit, nil
	}
	unit.HasErrors = root.HasError()

	p := &unitParser{src: src}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		unit.Decls = append(unit.Decls, p.topLevel(root.NamedChild(i), false)...)
	}
	frontendLogger.Debug("parsed unit", "unit", name, "decls", len(unit.Decls), "hasErrors", unit.HasErrors)
	return unit, nil
}

type unitParser struct {
	src []byte
}

func (p *unitParser) text(n *sitter.Node) string {
	return n.Content(p.src)
}

func rangeOf(n *sitter.Node) ast.Range {
	return ast.Range{PosStart: token.Pos(n.StartByte()), PosEnd: token.Pos(n.EndByte())}
}

func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func hasChildOfType(n *sitter.Node, nodeType string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil && child.Type() == nodeType {
			return true
		}
	}
	return false
}

func firstChildOfType(n *sitter.Node, nodeTypes ...string) *sitter.Node {
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		for _, t := range nodeTypes {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

// --- declarations ---

func (p *unitParser) topLevel(n *sitter.Node, ambient bool) []ast.Decl {
	switch n.Type() {
	case "export_statement":
		var decls []ast.Decl
		for _, child := range namedChildren(n) {
			decls = append(decls, p.topLevel(child, ambient)...)
		}
		return decls
	case "ambient_declaration":
		var decls []ast.Decl
		for _, child := range namedChildren(n) {
			decls = append(decls, p.topLevel(child, true)...)
		}
		return decls
	case "class_declaration", "abstract_class_declaration", "class":
		if class := p.class(n, ambient); class != nil {
			return []ast.Decl{class}
		}
	case "interface_declaration":
		if iface := p.iface(n, ambient); iface != nil {
			return []ast.Decl{iface}
		}
	case "function_declaration", "function_signature":
		if fn := p.method(n); fn != nil {
			return []ast.Decl{fn}
		}
	case "lexical_declaration", "variable_declaration":
		return []ast.Decl{p.varDecl(n)}
	}
	return nil
}

func (p *unitParser) class(n *sitter.Node, ambient bool) *ast.ClassDecl {
	class := &ast.ClassDecl{Range: rangeOf(n), Ambient: ambient}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "type_identifier", "identifier":
			if class.Name == nil {
				class.Name = p.ident(child)
			}
		case "class_heritage":
			p.heritage(child, class)
		case "class_body":
			class.Members = p.members(child, ambient)
		}
	}
	if class.Name == nil {
		return nil
	}
	return class
}

func (p *unitParser) heritage(n *sitter.Node, class *ast.ClassDecl) {
	for _, clause := range namedChildren(n) {
		switch clause.Type() {
		case "extends_clause":
			for _, gc := range namedChildren(clause) {
				switch gc.Type() {
				case "identifier", "type_identifier", "generic_type", "member_expression":
					class.Extends = append(class.Extends, p.typeRef(gc))
				}
			}
		case "implements_clause":
			for _, gc := range namedChildren(clause) {
				class.Implements = append(class.Implements, p.typeRef(gc))
			}
		}
	}
}

func (p *unitParser) iface(n *sitter.Node, ambient bool) *ast.ClassDecl {
	iface := &ast.ClassDecl{Range: rangeOf(n), Interface: true, Ambient: ambient}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "type_identifier":
			if iface.Name == nil {
				iface.Name = p.ident(child)
			}
		case "extends_type_clause", "extends_clause":
			for _, gc := range namedChildren(child) {
				iface.Extends = append(iface.Extends, p.typeRef(gc))
			}
		case "object_type", "interface_body":
			iface.Members = p.members(child, ambient)
		}
	}
	if iface.Name == nil {
		return nil
	}
	return iface
}

func (p *unitParser) members(body *sitter.Node, ambient bool) []ast.Decl {
	var members []ast.Decl
	for _, child := range namedChildren(body) {
		switch child.Type() {
		case "method_definition", "method_signature", "abstract_method_signature":
			if m := p.method(child); m != nil {
				members = append(members, m)
			}
		case "public_field_definition", "property_signature":
			if f := p.field(child); f != nil {
				members = append(members, f)
			}
		}
	}
	return members
}

func (p *unitParser) field(n *sitter.Node) *ast.FieldDecl {
	field := &ast.FieldDecl{Range: rangeOf(n), Static: hasChildOfType(n, "static")}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "property_identifier", "private_property_identifier":
			field.Name = p.ident(child)
		case "type_annotation":
			field.Type = p.annotation(child)
		}
	}
	if value := n.ChildByFieldName("value"); value != nil {
		field.Init = p.expr(value)
	}
	if field.Name == nil {
		return nil
	}
	return field
}

func (p *unitParser) method(n *sitter.Node) *ast.MethodDecl {
	method := &ast.MethodDecl{Range: rangeOf(n), Static: hasChildOfType(n, "static")}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "property_identifier", "identifier", "private_property_identifier":
			if method.Name == nil {
				method.Name = p.ident(child)
			}
		case "formal_parameters":
			method.Params = p.params(child)
		case "type_annotation":
			method.Result = p.annotation(child)
		case "statement_block":
			method.Body = p.block(child)
		}
	}
	if method.Name == nil {
		return nil
	}
	method.Constructor = method.Name.Name == "constructor"
	return method
}

func (p *unitParser) params(n *sitter.Node) []*ast.Param {
	var params []*ast.Param
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "required_parameter", "optional_parameter":
		default:
			continue
		}
		param := &ast.Param{Range: rangeOf(child)}
		if pattern := child.ChildByFieldName("pattern"); pattern != nil {
			param.Name = p.ident(pattern)
		} else if id := firstChildOfType(child, "identifier"); id != nil {
			param.Name = p.ident(id)
		}
		if ann := firstChildOfType(child, "type_annotation"); ann != nil {
			param.Type = p.annotation(ann)
		}
		if value := child.ChildByFieldName("value"); value != nil {
			param.Init = p.expr(value)
		}
		if param.Name == nil {
			continue
		}
		params = append(params, param)
	}
	return params
}

// annotation parses a type_annotation node (`: T`), returning the TypeRef for T alone.
func (p *unitParser) annotation(n *sitter.Node) *ast.TypeRef {
	for _, child := range namedChildren(n) {
		return p.typeRef(child)
	}
	return nil
}

func (p *unitParser) typeRef(n *sitter.Node) *ast.TypeRef {
	ref := &ast.TypeRef{Range: rangeOf(n), Name: p.text(n)}
	switch n.Type() {
	case "array_type":
		if elems := namedChildren(n); len(elems) > 0 {
			ref.Elem = p.typeRef(elems[0])
		}
	case "generic_type":
		if name := firstChildOfType(n, "type_identifier", "nested_type_identifier"); name != nil {
			ref.Name = p.text(name)
		}
	}
	return ref
}

func (p *unitParser) ident(n *sitter.Node) *ast.Ident {
	return &ast.Ident{Range: rangeOf(n), Name: p.text(n)}
}

// --- statements ---

func (p *unitParser) varDecl(n *sitter.Node) *ast.VarDeclStmt {
	stmt := &ast.VarDeclStmt{Range: rangeOf(n)}
	if first := n.Child(0); first != nil {
		stmt.Keyword = first.Type()
	}
	for _, child := range namedChildren(n) {
		if child.Type() != "variable_declarator" {
			continue
		}
		decl := &ast.VarDecl{Range: rangeOf(child)}
		if name := child.ChildByFieldName("name"); name != nil {
			decl.Name = p.ident(name)
		}
		if ann := firstChildOfType(child, "type_annotation"); ann != nil {
			decl.Type = p.annotation(ann)
		}
		if value := child.ChildByFieldName("value"); value != nil {
			decl.Init = p.expr(value)
		}
		if decl.Name == nil {
			continue
		}
		stmt.Decls = append(stmt.Decls, decl)
	}
	return stmt
}

func (p *unitParser) block(n *sitter.Node) *ast.BlockStmt {
	block := &ast.BlockStmt{Range: rangeOf(n)}
	for _, child := range namedChildren(n) {
		if stmt := p.stmt(child); stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	return block
}

// stmt returns nil for statements that are not modelled.
func (p *unitParser) stmt(n *sitter.Node) ast.Stmt {
	switch n.Type() {
	case "lexical_declaration", "variable_declaration":
		return p.varDecl(n)
	case "expression_statement":
		for _, child := range namedChildren(n) {
			return &ast.ExprStmt{Range: rangeOf(n), X: p.expr(child)}
		}
	case "return_statement":
		ret := &ast.ReturnStmt{Range: rangeOf(n)}
		for _, child := range namedChildren(n) {
			ret.Result = p.expr(child)
			break
		}
		return ret
	case "statement_block":
		return p.block(n)
	case "if_statement":
		ifStmt := &ast.IfStmt{Range: rangeOf(n)}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			ifStmt.Cond = p.expr(cond)
		}
		if then := n.ChildByFieldName("consequence"); then != nil {
			ifStmt.Then = p.stmt(then)
		}
		if alt := n.ChildByFieldName("alternative"); alt != nil {
			// else_clause wraps the statement
			for _, child := range namedChildren(alt) {
				ifStmt.Else = p.stmt(child)
				break
			}
		}
		return ifStmt
	case "while_statement":
		while := &ast.WhileStmt{Range: rangeOf(n)}
		if cond := n.ChildByFieldName("condition"); cond != nil {
			while.Cond = p.expr(cond)
		}
		if body := n.ChildByFieldName("body"); body != nil {
			while.Body = p.stmt(body)
		}
		return while
	case "class_declaration", "abstract_class_declaration":
		if class := p.class(n, false); class != nil {
			return &ast.ClassDeclStmt{Range: rangeOf(n), Class: class}
		}
	}
	return nil
}

// --- expressions ---

func (p *unitParser) expr(n *sitter.Node) ast.Expr {
	r := rangeOf(n)
	switch n.Type() {
	case "identifier", "property_identifier", "shorthand_property_identifier":
		return p.ident(n)
	case "undefined":
		return &ast.Ident{Range: r, Name: "undefined"}
	case "this":
		return &ast.ThisExpr{Range: r}
	case "super":
		return &ast.SuperExpr{Range: r}
	case "null":
		return &ast.NullLit{Range: r}
	case "number":
		lit := &ast.BasicLit{Range: r, Value: p.text(n)}
		lit.SetType(types.NumberType)
		return lit
	case "string", "template_string":
		lit := &ast.BasicLit{Range: r, Value: p.text(n)}
		lit.SetType(types.StringType)
		return lit
	case "true", "false":
		lit := &ast.BasicLit{Range: r, Value: p.text(n)}
		lit.SetType(types.BooleanType)
		return lit
	case "assignment_expression", "augmented_assignment_expression":
		assign := &ast.AssignExpr{Range: r, Op: "="}
		if op := n.ChildByFieldName("operator"); op != nil {
			assign.Op = op.Type()
		}
		assign.Left = p.fieldExpr(n, "left")
		assign.Right = p.fieldExpr(n, "right")
		if assign.Left == nil || assign.Right == nil {
			return p.bad(n)
		}
		return assign
	case "call_expression":
		fun := p.fieldExpr(n, "function")
		if fun == nil {
			return p.bad(n)
		}
		return &ast.CallExpr{Range: r, Fun: fun, Args: p.args(n.ChildByFieldName("arguments"))}
	case "new_expression":
		ctor := n.ChildByFieldName("constructor")
		if ctor == nil || ctor.Type() != "identifier" {
			return p.bad(n)
		}
		return &ast.NewExpr{Range: r, Class: p.ident(ctor), Args: p.args(n.ChildByFieldName("arguments"))}
	case "member_expression":
		object := p.fieldExpr(n, "object")
		property := n.ChildByFieldName("property")
		if object == nil || property == nil {
			return p.bad(n)
		}
		return &ast.MemberExpr{Range: r, X: object, Name: p.ident(property)}
	case "parenthesized_expression":
		for _, child := range namedChildren(n) {
			return &ast.ParenExpr{Range: r, X: p.expr(child)}
		}
	case "ternary_expression":
		cond, then, els := p.fieldExpr(n, "condition"), p.fieldExpr(n, "consequence"), p.fieldExpr(n, "alternative")
		if cond == nil || then == nil || els == nil {
			return p.bad(n)
		}
		return &ast.CondExpr{Range: r, Cond: cond, Then: then, Else: els}
	case "binary_expression":
		op := n.ChildByFieldName("operator")
		left, right := p.fieldExpr(n, "left"), n.ChildByFieldName("right")
		if op == nil || left == nil || right == nil {
			return p.bad(n)
		}
		if op.Type() == "instanceof" && right.Type() == "identifier" {
			return &ast.InstanceofExpr{Range: r, X: left, Class: p.ident(right)}
		}
		return &ast.BinaryExpr{Range: r, Op: op.Type(), X: left, Y: p.expr(right)}
	case "array":
		arr := &ast.ArrayLit{Range: r}
		for _, child := range namedChildren(n) {
			arr.Elems = append(arr.Elems, p.expr(child))
		}
		return arr
	case "arrow_function", "function", "function_expression", "class":
		// nested bodies belong to another scope and are not analysed
		return &ast.BadExpr{Range: r, Kind: n.Type()}
	}
	return p.bad(n)
}

func (p *unitParser) fieldExpr(n *sitter.Node, field string) ast.Expr {
	child := n.ChildByFieldName(field)
	if child == nil {
		return nil
	}
	return p.expr(child)
}

func (p *unitParser) args(n *sitter.Node) []ast.Expr {
	var args []ast.Expr
	for _, child := range namedChildren(n) {
		if child.Type() == "comment" {
			continue
		}
		args = append(args, p.expr(child))
	}
	return args
}

func (p *unitParser) bad(n *sitter.Node) ast.Expr {
	bad := &ast.BadExpr{Range: rangeOf(n), Kind: n.Type()}
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "comment", "type_annotation", "type_arguments", "type_identifier", "predefined_type":
			continue
		}
		bad.Subs = append(bad.Subs, p.expr(child))
	}
	return bad
}
