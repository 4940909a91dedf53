package sema

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swantron/minic/internal/ast"
	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/grammar"
	"github.com/swantron/minic/internal/lexer"
)

func check(t *testing.T, src string) (*Info, []diag.Diagnostic) {
	t.Helper()
	g, err := grammar.Default()
	require.NoError(t, err)
	tokens, lexDiags := lexer.Scan([]byte(src))
	require.Empty(t, lexDiags)
	tree, diags := g.Parse(tokens)
	require.Empty(t, diags)
	prog, err := ast.Build(tree)
	require.NoError(t, err)
	return Check(prog)
}

func kinds(ds []diag.Diagnostic) []diag.Kind {
	out := make([]diag.Kind, len(ds))
	for i, d := range ds {
		out[i] = d.Kind
	}
	return out
}

const uninitSrc = `// uninitialized variable use
int x, y;
int test(){
    y = 2;
    y = x;
    return x;
}
int main(){
    int y;
    int x = 5;
    x = y;
    if (y == 5) {
        x = 1 + y;
    }
    return 0;
}
`

func TestUninitializedFixture(t *testing.T) {
	_, diags := check(t, uninitSrc)

	require.Len(t, diags, 5)
	for _, d := range diags {
		assert.Equal(t, diag.UninitializedVar, d.Kind)
	}
	assert.Equal(t, []int{5, 6, 11, 12, 13}, diag.Lines(diags))
	assert.Equal(t, "[ERROR] at position (5, 9), caused by: variable x is uninitialized but used here", diags[0].String())
	assert.Equal(t, diag.Pos{Line: 11, Col: 9}, diags[2].Pos)
}

func TestDefiniteAssignment(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		lines []int
	}{
		{
			name: "both branches assign",
			body: "int a; if (true) { a = 1; } else { a = 2; } return a;",
		},
		{
			name:  "one branch assigns",
			body:  "int a; if (true) { a = 1; } return a;",
			lines: []int{1},
		},
		{
			name:  "while body does not count",
			body:  "int a; while (false) { a = 1; } return a;",
			lines: []int{1},
		},
		{
			name: "returning branch drops out of the merge",
			body: "int a; if (true) { return 0; } else { a = 3; } return a;",
		},
		{
			name: "reads after return are unreachable",
			body: "int a; return 0; return a;",
		},
		{
			name: "get initializes",
			body: "int a; get(a); return a;",
		},
		{
			name:  "self reference in initializer",
			body:  "int a = a + 1; return a;",
			lines: []int{1},
		},
		{
			name: "assignment with a bad right side still initializes",
			body: "int a; a = true; return a;",
		},
		{
			name:  "each read is reported",
			body:  "int a; put(a); put(a); return 0;",
			lines: []int{1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := check(t, "int main() { "+tt.body+" }")
			var lines []int
			for _, d := range diags {
				if d.Kind == diag.UninitializedVar {
					lines = append(lines, d.Pos.Line)
				}
			}
			assert.Equal(t, tt.lines, lines)
		})
	}
}

func TestStructFields(t *testing.T) {
	src := `struct P { int a; bool b; };
int main() {
    struct P p;
    struct P q;
    p.a = 1;
    put(p.a);
    put(p.b);
    q = p;
    p.b = true;
    q = p;
    put(q.a);
    return p.c;
}`
	_, diags := check(t, src)
	require.Len(t, diags, 3)
	assert.Equal(t, diag.UninitializedVar, diags[0].Kind)
	assert.Contains(t, diags[0].Message, "p.b")
	assert.Equal(t, diag.UninitializedVar, diags[1].Kind)
	assert.Equal(t, 8, diags[1].Pos.Line)
	assert.Equal(t, diag.Undefined, diags[2].Kind)
	assert.Contains(t, diags[2].Message, "p.c")
}

func TestShadowedStructAssignment(t *testing.T) {
	src := `struct P { int a; };
struct P g;
int main() {
    struct P { bool b; int c; };
    struct P q;
    q.b = true;
    q.c = 1;
    g = q;
    return 0;
}`
	info, diags := check(t, src)
	require.Len(t, diags, 1)
	assert.Equal(t, diag.IncompatibleType, diags[0].Kind)
	assert.Equal(t, 8, diags[0].Pos.Line)
	assert.Contains(t, diags[0].Message, "struct P declared in position (1, ")
	assert.Contains(t, diags[0].Message, "struct P declared in position (4, ")

	require.Len(t, info.Structs, 2)
	assert.NotEqual(t, Type{Kind: ast.Struct, Struct: info.Structs[0]}, Type{Kind: ast.Struct, Struct: info.Structs[1]})
}

func TestTypeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Kind
	}{
		{"arith on bool", "int main() { bool b = true; int x = b + 1; return 0; }", []diag.Kind{diag.UnsupportedOp}},
		{"mixed bitwise", "int main() { int x = 1 & true; return 0; }", []diag.Kind{diag.MismatchedType}},
		{"bool bitwise", "int main() { bool b = true | false; return 0; }", nil},
		{"equality mismatch", "int main() { bool b = 1 == true; return 0; }", []diag.Kind{diag.MismatchedType}},
		{"logical on int", "int main() { bool b = 1 && true; return 0; }", []diag.Kind{diag.UnsupportedOp}},
		{"not on int", "int main() { bool b = !1; return 0; }", []diag.Kind{diag.UnsupportedOp}},
		{"negate bool", "int main() { int x = -true; return 0; }", []diag.Kind{diag.UnsupportedOp}},
		{"assign bool to int", "int main() { int x; x = true; return 0; }", []diag.Kind{diag.IncompatibleType}},
		{"relational gives bool", "int main() { int x = 1 < 2; return 0; }", []diag.Kind{diag.IncompatibleType}},
		{"get into bool", "int main() { bool b; get(b); return 0; }", []diag.Kind{diag.UnsupportedOp}},
		{"int condition", "int main() { if (1) { } while (0) { } return 0; }", nil},
		{"undefined variable", "int main() { x = 1; return 0; }", []diag.Kind{diag.Undefined}},
		{"undefined function", "int main() { f(); return 0; }", []diag.Kind{diag.UndefinedFunc}},
		{"void variable", "int main() { void v; return 0; }", []diag.Kind{diag.VoidVariable}},
		{"void parameter", "int f(void v) { return 0; }", []diag.Kind{diag.VoidVariable}},
		{"redefined variable", "int main() { int a = 1; bool a; return 0; }", []diag.Kind{diag.AlreadyDefinedVar}},
		{"shadowing in a block", "int main() { int a = 1; { int a = 2; put(a); } return a; }", nil},
		{"missing return value", "int main() { return; }", []diag.Kind{diag.ReturnMismatch}},
		{"value from void", "void f() { return 1; }", []diag.Kind{diag.ReturnMismatch}},
		{"wrong return type", "int main() { return true; }", []diag.Kind{diag.ReturnMismatch}},
		{"undefined struct", "int main() { struct Q q; return 0; }", []diag.Kind{diag.Undefined}},
		{"void call in expression", "void f() { return; } int main() { int x = f() + 1; return 0; }", []diag.Kind{diag.UnsupportedOp}},
		{"put a struct", "struct P { int a; }; int main() { struct P p; p.a = 1; put(p); return 0; }", []diag.Kind{diag.UnsupportedOp}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := check(t, tt.src)
			want := tt.want
			if want == nil {
				want = []diag.Kind{}
			}
			assert.Equal(t, want, kinds(diags))
		})
	}
}

func TestFunctions(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []diag.Kind
	}{
		{"prototype then definition", "int f(int a); int f(int n) { return n; } int main() { return f(1); }", nil},
		{"recursion", "int f(int n) { if (n > 0) { return f(n - 1); } return 0; }", nil},
		{"redefinition", "int f() { return 0; } int f() { return 1; }", []diag.Kind{diag.AlreadyDefinedFunc}},
		{"conflicting prototype", "int f(int a); bool f(int a) { return true; }", []diag.Kind{diag.AlreadyDefinedFunc}},
		{"prototype only", "int f(int a); int main() { return f(1); }", []diag.Kind{diag.UndefinedFunc}},
		{"wrong argument count", "int f(int a) { return a; } int main() { return f(); }", []diag.Kind{diag.MismatchedParams}},
		{"wrong argument type", "int f(int a) { return a; } int main() { return f(true); }", []diag.Kind{diag.MismatchedParams}},
		{"separate namespaces", "int f; int f() { return 0; }", nil},
		{"duplicate parameter", "int f(int a, int a) { return a; }", []diag.Kind{diag.AlreadyDefinedVar}},
		{"conflicting body is checked", "int f(int a); bool f(int a) { bool z; return z; }",
			[]diag.Kind{diag.AlreadyDefinedFunc, diag.UninitializedVar}},
		{"conflicting body uses its own result", "int f(int a); bool f(int a) { int z; return z; }",
			[]diag.Kind{diag.AlreadyDefinedFunc, diag.UninitializedVar, diag.ReturnMismatch}},
		{"redefined body is checked", "int f() { return 0; } int f() { int z; return z; }",
			[]diag.Kind{diag.AlreadyDefinedFunc, diag.UninitializedVar}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, diags := check(t, tt.src)
			want := tt.want
			if want == nil {
				want = []diag.Kind{}
			}
			assert.Equal(t, want, kinds(diags))
		})
	}
}

func TestInfoLayout(t *testing.T) {
	src := `struct P { int a; int b; };
int g = 3;
int f(int n, bool z) {
    struct P p;
    int k = n;
    p.a = k;
    p.b = k;
    if (z) { int inner = 1; put(inner); }
    return p.a;
}`
	info, diags := check(t, src)
	require.Empty(t, diags)

	require.Len(t, info.Globals, 1)
	assert.True(t, info.Globals[0].Global)

	f := info.Func("f")
	require.NotNil(t, f)
	assert.True(t, f.Defined)
	require.Len(t, f.Locals, 5)

	offsets := map[string]int{}
	for _, v := range f.Locals {
		offsets[v.Name] = v.Offset
	}
	assert.Equal(t, map[string]int{"n": 4, "z": 8, "p": 16, "k": 20, "inner": 24}, offsets)
	assert.Equal(t, 24, f.FrameSize)
	assert.Equal(t, 2, f.Locals[2].Slots())

	var buf bytes.Buffer
	require.NoError(t, info.WriteTables(&buf))
	assert.Contains(t, buf.String(), "int f(int, bool)")
	assert.Contains(t, buf.String(), "locals of f:")
}
