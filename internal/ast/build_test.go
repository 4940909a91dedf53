package ast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/grammar"
	"github.com/swantron/minic/internal/lexer"
)

func build(t *testing.T, src string) *Program {
	t.Helper()
	g, err := grammar.Default()
	require.NoError(t, err)
	tokens, lexDiags := lexer.Scan([]byte(src))
	require.Empty(t, lexDiags)
	tree, diags := g.Parse(tokens)
	require.Empty(t, diags)
	prog, err := Build(tree)
	require.NoError(t, err)
	return prog
}

var ignorePos = cmpopts.IgnoreTypes(diag.Pos{})

func TestBuildPrecedence(t *testing.T) {
	prog := build(t, "int x = 1 + 2 * 3 - 4, y;")

	want := &Program{Decls: []Decl{
		&VarDecl{Type: Int, Vars: []VarSpec{
			{Name: "x", Init: &BinaryExpr{
				Op: "-",
				X: &BinaryExpr{
					Op: "+",
					X:  &NumberLit{Value: 1},
					Y:  &BinaryExpr{Op: "*", X: &NumberLit{Value: 2}, Y: &NumberLit{Value: 3}},
				},
				Y: &NumberLit{Value: 4},
			}},
			{Name: "y"},
		}},
	}}
	if diff := cmp.Diff(want, prog, ignorePos); diff != "" {
		t.Errorf("AST mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLogicalOperators(t *testing.T) {
	prog := build(t, "bool b = !a || c && d < 3;")
	init := prog.Decls[0].(*VarDecl).Vars[0].Init

	want := &BinaryExpr{
		Op: "||",
		X:  &UnaryExpr{Op: "!", X: &Ident{Name: "a"}},
		Y: &BinaryExpr{
			Op: "&&",
			X:  &Ident{Name: "c"},
			Y:  &BinaryExpr{Op: "<", X: &Ident{Name: "d"}, Y: &NumberLit{Value: 3}},
		},
	}
	if diff := cmp.Diff(Expr(want), init, ignorePos); diff != "" {
		t.Errorf("expr mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildFunctionAndStatements(t *testing.T) {
	src := `struct P { int a; bool b; };
int f(int n, bool z);
int f(int n, bool z) {
    struct P p;
    p.a = n;
    get(p.a);
    if (z) { put(p.a); } else if (n > 0) { return f(n - 1, false); }
    while (n > 0) { n = n - 1; }
    g();
    ;
    { }
    return p.a;
}`
	prog := build(t, src)
	require.Len(t, prog.Decls, 3)

	st := prog.Decls[0].(*StructDecl)
	assert.Equal(t, "P", st.Name)
	if diff := cmp.Diff([]Field{{Type: Int, Name: "a"}, {Type: Bool, Name: "b"}}, st.Fields, ignorePos); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}

	proto := prog.Decls[1].(*FuncDecl)
	assert.Nil(t, proto.Body)
	assert.Len(t, proto.Params, 2)

	fn := prog.Decls[2].(*FuncDecl)
	require.NotNil(t, fn.Body)
	assert.Equal(t, Int, fn.Result)
	assert.Equal(t, diag.Pos{Line: 3, Col: 5}, fn.Pos)

	stmts := fn.Body.Stmts
	require.Len(t, stmts, 9)
	assert.IsType(t, &DeclStmt{}, stmts[0])
	assert.IsType(t, &StructVarDecl{}, stmts[0].(*DeclStmt).Decl)

	assign := stmts[1].(*AssignStmt)
	assert.Equal(t, "a", assign.Target.(*FieldExpr).Field)
	assert.Equal(t, diag.Pos{Line: 5, Col: 9}, assign.Pos)

	get := stmts[2].(*GetStmt)
	assert.Equal(t, "p", get.Target.(*FieldExpr).X.Name)

	ifs := stmts[3].(*IfStmt)
	elseIf := ifs.Else.(*IfStmt)
	ret := elseIf.Then.Stmts[0].(*ReturnStmt)
	call := ret.Value.(*CallExpr)
	assert.Equal(t, "f", call.Func)
	assert.Len(t, call.Args, 2)
	assert.Nil(t, elseIf.Else)

	assert.IsType(t, &WhileStmt{}, stmts[4])
	assert.Equal(t, "g", stmts[5].(*CallStmt).Call.Func)
	assert.IsType(t, &EmptyStmt{}, stmts[6])
	assert.IsType(t, &BlockStmt{}, stmts[7])
	assert.IsType(t, &FieldExpr{}, stmts[8].(*ReturnStmt).Value)
}

func TestBuildRejectsIncompleteTree(t *testing.T) {
	g, err := grammar.Default()
	require.NoError(t, err)
	tokens, _ := lexer.Scan([]byte("int main() { x = ; }"))
	tree, diags := g.Parse(tokens)
	require.NotEmpty(t, diags)

	_, err = Build(tree)
	assert.Error(t, err)
}
