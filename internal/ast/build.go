package ast

import (
	"fmt"

	"github.com/swantron/minic/internal/grammar"
	"github.com/swantron/minic/internal/lexer"
)

// buildError aborts lowering of a malformed tree
type buildError struct {
	err error
}

// Build lowers a parse tree produced by the minic grammar into an AST. The
// tree must come from a parse that reported no syntax errors.
func Build(tree *grammar.Tree) (prog *Program, err error) {
	if tree == nil || tree.Root == nil {
		return nil, fmt.Errorf("empty parse tree")
	}
	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(buildError)
			if !ok {
				panic(r)
			}
			prog, err = nil, be.err
		}
	}()

	prog = &Program{}
	for n := tree.Root.Child(0); !n.IsEmpty(); n = n.Child(1) {
		prog.Decls = append(prog.Decls, decl(n.Child(0)))
	}
	return prog, nil
}

func fail(n *grammar.Node, format string, args ...any) {
	sym := "<nil>"
	if n != nil {
		sym = n.Symbol
	}
	panic(buildError{fmt.Errorf("malformed parse tree at %s: %s", sym, fmt.Sprintf(format, args...))})
}

func expect(n *grammar.Node, symbol string) *grammar.Node {
	if n == nil || n.Symbol != symbol {
		fail(n, "expected %s", symbol)
	}
	return n
}

func token(n *grammar.Node) lexer.Token {
	if n == nil || !n.Terminal || n.Token == nil {
		fail(n, "unmatched terminal")
	}
	return *n.Token
}

func decl(n *grammar.Node) Decl {
	expect(n, "decl")
	first := n.Child(0)
	if first.Symbol == "structDecl" {
		return structDecl(first)
	}
	typ := typeName(first)
	name := token(n.Child(1))
	tail := expect(n.Child(2), "declTail")

	if tail.Child(0).Symbol == "(" {
		fn := &FuncDecl{Result: typ, Name: name.Text, Pos: name.Pos, Params: params(tail.Child(1))}
		impl := expect(tail.Child(3), "funcImpl")
		if impl.Child(0).Symbol == "block" {
			fn.Body = block(impl.Child(0))
		}
		return fn
	}
	return varDecl(typ, name, tail.Child(0), tail.Child(1))
}

func typeName(n *grammar.Node) TypeName {
	expect(n, "type")
	return TypeName(token(n.Child(0)).Text)
}

func varDecl(typ TypeName, name lexer.Token, init, list *grammar.Node) *VarDecl {
	d := &VarDecl{Type: typ, Pos: name.Pos}
	d.Vars = append(d.Vars, VarSpec{Name: name.Text, Pos: name.Pos, Init: initOpt(init)})
	for n := expect(list, "varList"); !n.IsEmpty(); n = n.Child(3) {
		tok := token(n.Child(1))
		d.Vars = append(d.Vars, VarSpec{Name: tok.Text, Pos: tok.Pos, Init: initOpt(n.Child(2))})
	}
	return d
}

func initOpt(n *grammar.Node) Expr {
	expect(n, "initOpt")
	if n.IsEmpty() {
		return nil
	}
	return expr(n.Child(1))
}

func structDecl(n *grammar.Node) Decl {
	expect(n, "structDecl")
	name := token(n.Child(1))
	tail := expect(n.Child(2), "structTail")

	if tail.Child(0).Symbol == "{" {
		d := &StructDecl{Name: name.Text, Pos: name.Pos}
		for f := expect(tail.Child(1), "fields"); !f.IsEmpty(); f = f.Child(1) {
			field := expect(f.Child(0), "field")
			tok := token(field.Child(1))
			d.Fields = append(d.Fields, Field{Type: typeName(field.Child(0)), Name: tok.Text, Pos: tok.Pos})
		}
		return d
	}
	v := token(tail.Child(0))
	return &StructVarDecl{StructName: name.Text, Name: v.Text, Pos: v.Pos}
}

func params(n *grammar.Node) []Param {
	expect(n, "params")
	if n.IsEmpty() {
		return nil
	}
	out := []Param{param(n.Child(0))}
	for r := expect(n.Child(1), "paramRest"); !r.IsEmpty(); r = r.Child(2) {
		out = append(out, param(r.Child(1)))
	}
	return out
}

func param(n *grammar.Node) Param {
	expect(n, "param")
	tok := token(n.Child(1))
	return Param{Type: typeName(n.Child(0)), Name: tok.Text, Pos: tok.Pos}
}

func block(n *grammar.Node) *BlockStmt {
	expect(n, "block")
	b := &BlockStmt{Pos: token(n.Child(0)).Pos}
	for s := expect(n.Child(1), "stmts"); !s.IsEmpty(); s = s.Child(1) {
		b.Stmts = append(b.Stmts, stmt(s.Child(0)))
	}
	return b
}

func stmt(n *grammar.Node) Stmt {
	expect(n, "stmt")
	first := n.Child(0)
	switch first.Symbol {
	case "type":
		name := token(n.Child(1))
		return &DeclStmt{Decl: varDecl(typeName(first), name, n.Child(2), n.Child(3))}
	case "structDecl":
		return &DeclStmt{Decl: structDecl(first)}
	case "id":
		return idStmt(token(first), n.Child(1))
	case "if":
		s := &IfStmt{Pos: token(first).Pos, Cond: expr(n.Child(2)), Then: block(n.Child(4))}
		if e := expect(n.Child(5), "elseOpt"); !e.IsEmpty() {
			s.Else = stmt(e.Child(1))
		}
		return s
	case "while":
		return &WhileStmt{Pos: token(first).Pos, Cond: expr(n.Child(2)), Body: block(n.Child(4))}
	case "return":
		s := &ReturnStmt{Pos: token(first).Pos}
		if r := expect(n.Child(1), "retOpt"); !r.IsEmpty() {
			s.Value = expr(r.Child(0))
		}
		return s
	case "put":
		return &PutStmt{Pos: token(first).Pos, Value: expr(n.Child(2))}
	case "get":
		lv := expect(n.Child(2), "lvalue")
		return &GetStmt{Pos: token(first).Pos, Target: target(token(lv.Child(0)), lv.Child(1))}
	case ";":
		return &EmptyStmt{Pos: token(first).Pos}
	case "block":
		return block(first)
	}
	fail(n, "unknown statement form %s", first.Symbol)
	return nil
}

func idStmt(name lexer.Token, n *grammar.Node) Stmt {
	expect(n, "idStmt")
	if n.Child(0).Symbol == "(" {
		return &CallStmt{Call: &CallExpr{Pos: name.Pos, Func: name.Text, Args: args(n.Child(1))}}
	}
	return &AssignStmt{
		Target: target(name, n.Child(0)),
		Pos:    token(n.Child(1)).Pos,
		Value:  expr(n.Child(2)),
	}
}

// target builds an assignable expression from an identifier and fieldOpt
func target(name lexer.Token, fieldOpt *grammar.Node) Expr {
	expect(fieldOpt, "fieldOpt")
	id := &Ident{Pos: name.Pos, Name: name.Text}
	if fieldOpt.IsEmpty() {
		return id
	}
	f := token(fieldOpt.Child(1))
	return &FieldExpr{X: id, Field: f.Text, Pos: f.Pos}
}

func args(n *grammar.Node) []Expr {
	expect(n, "args")
	if n.IsEmpty() {
		return nil
	}
	out := []Expr{expr(n.Child(0))}
	for r := expect(n.Child(1), "argRest"); !r.IsEmpty(); r = r.Child(2) {
		out = append(out, expr(r.Child(1)))
	}
	return out
}

func expr(n *grammar.Node) Expr {
	expect(n, "expr")
	return chain(n, andExpr)
}

func andExpr(n *grammar.Node) Expr {
	expect(n, "andExpr")
	return chain(n, relExpr)
}

func relExpr(n *grammar.Node) Expr {
	expect(n, "relExpr")
	left := addExpr(n.Child(0))
	rest := expect(n.Child(1), "relRest")
	if rest.IsEmpty() {
		return left
	}
	op := token(expect(rest.Child(0), "relOp").Child(0))
	return &BinaryExpr{Pos: op.Pos, Op: op.Text, X: left, Y: addExpr(rest.Child(1))}
}

func addExpr(n *grammar.Node) Expr {
	expect(n, "addExpr")
	return chain(n, mulExpr)
}

func mulExpr(n *grammar.Node) Expr {
	expect(n, "mulExpr")
	return chain(n, unary)
}

// chain folds <X>-><Y><rest>, <rest>->[op]<Y><rest> into a left-associative
// binary tree
func chain(n *grammar.Node, operand func(*grammar.Node) Expr) Expr {
	left := operand(n.Child(0))
	for rest := n.Child(1); !rest.IsEmpty(); rest = rest.Child(2) {
		op := token(rest.Child(0))
		left = &BinaryExpr{Pos: op.Pos, Op: op.Text, X: left, Y: operand(rest.Child(1))}
	}
	return left
}

func unary(n *grammar.Node) Expr {
	expect(n, "unary")
	first := n.Child(0)
	if first.Terminal {
		op := token(first)
		return &UnaryExpr{Pos: op.Pos, Op: op.Text, X: unary(n.Child(1))}
	}
	return primary(first)
}

func primary(n *grammar.Node) Expr {
	expect(n, "primary")
	first := token(n.Child(0))
	switch n.Child(0).Symbol {
	case "digit":
		return &NumberLit{Pos: first.Pos, Value: first.Value}
	case "true", "false":
		return &BoolLit{Pos: first.Pos, Value: first.Text == "true"}
	case "(":
		return expr(n.Child(1))
	case "id":
		suffix := expect(n.Child(1), "idSuffix")
		switch {
		case suffix.IsEmpty():
			return &Ident{Pos: first.Pos, Name: first.Text}
		case suffix.Child(0).Symbol == ".":
			f := token(suffix.Child(1))
			return &FieldExpr{X: &Ident{Pos: first.Pos, Name: first.Text}, Field: f.Text, Pos: f.Pos}
		default:
			return &CallExpr{Pos: first.Pos, Func: first.Text, Args: args(suffix.Child(1))}
		}
	}
	fail(n, "unknown primary %s", n.Child(0).Symbol)
	return nil
}
