package vm

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swantron/minic/internal/ast"
	"github.com/swantron/minic/internal/grammar"
	"github.com/swantron/minic/internal/ir"
	"github.com/swantron/minic/internal/lexer"
	"github.com/swantron/minic/internal/sema"
)

func compile(t *testing.T, src string) *ir.Program {
	t.Helper()
	g, err := grammar.Default()
	require.NoError(t, err)
	tokens, lexDiags := lexer.Scan([]byte(src))
	require.Empty(t, lexDiags)
	tree, diags := g.Parse(tokens)
	require.Empty(t, diags)
	prog, err := ast.Build(tree)
	require.NoError(t, err)
	info, diags := sema.Check(prog)
	require.Empty(t, diags)
	out, err := ir.Generate(prog, info)
	require.NoError(t, err)
	return out
}

func run(t *testing.T, src, input string, maxSteps int) (int, string, error) {
	t.Helper()
	var out bytes.Buffer
	status, err := Run(context.Background(), compile(t, src), Options{
		Stdin:    strings.NewReader(input),
		Stdout:   &out,
		MaxSteps: maxSteps,
	})
	return status, out.String(), err
}

func TestRunPrograms(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		input  string
		output string
		status int
	}{
		{
			name: "recursive factorial",
			src: `int fact(int n) {
    if (n <= 1) { return 1; }
    return n * fact(n - 1);
}
int main() { put(fact(5)); return 0; }`,
			output: "120\n",
		},
		{
			name:   "echo doubled input",
			src:    "int main() { int a; int b; get(a); get(b); put(a * 2); put(b * 2); return a + b; }",
			input:  "7 -3\n",
			output: "14\n-6\n",
			status: 4,
		},
		{
			name: "loop and globals",
			src: `int total = 0;
void add(int n) { total = total + n; }
int main() {
    int i = 1;
    while (i <= 4) { add(i); i = i + 1; }
    put(total);
    return 0;
}`,
			output: "10\n",
		},
		{
			name: "struct copy",
			src: `struct P { int a; int b; };
int main() {
    struct P p;
    struct P q;
    p.a = 3;
    p.b = 4;
    q = p;
    p.a = 0;
    put(q.a + q.b);
    return p.a;
}`,
			output: "7\n",
		},
		{
			name:   "logic and bitwise",
			src:    "int main() { put(6 & 3); put(6 | 1); put(7 / 2); if (!(1 > 2) && (2 <> 3 || false)) { put(1); } else { put(0); } return 0; }",
			output: "2\n7\n3\n1\n",
		},
		{
			name:   "else chain",
			src:    "int sign(int x) { if (x < 0) { return -1; } else if (x == 0) { return 0; } else { return 1; } } int main() { put(sign(-5)); put(sign(0)); put(sign(9)); return 0; }",
			output: "-1\n0\n1\n",
		},
		{
			name:   "32-bit overflow wraps",
			src:    "int main() { int max = 0x7fffffff; put(max + 1); put(0 - max - 1 - 1); put(0x10000 * 0x10000); put(-(0 - max - 1)); return 0; }",
			output: "-2147483648\n2147483647\n0\n-2147483648\n",
		},
		{
			name:   "32-bit input",
			src:    "int main() { int a; get(a); put(a); return 0; }",
			input:  "4294967297\n",
			output: "1\n",
		},
		{
			name:   "exit status",
			src:    "int main() { return 3; }",
			status: 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, out, err := run(t, tt.src, tt.input, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.output, out)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		maxSteps int
		want     error
	}{
		{"division by zero", "int main() { int z = 0; return 1 / z; }", 0, ErrDivideByZero},
		{"step limit", "int main() { while (true) { } return 0; }", 1000, ErrStepLimit},
		{"missing main", "int f() { return 0; }", 0, ErrNoMain},
		{"end of input", "int main() { int a; get(a); return a; }", 0, ErrEndOfInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.src, "", tt.maxSteps)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), err.Error())
		})
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, compile(t, "int main() { while (true) { } return 0; }"), Options{})
	assert.ErrorIs(t, err, context.Canceled)
}
