package compiler

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/ir"
)

func TestCompileClean(t *testing.T) {
	src, err := os.ReadFile("../../testdata/factorial.c")
	require.NoError(t, err)

	res, err := Compile("factorial.c", src, Options{})
	require.NoError(t, err)
	assert.True(t, res.OK(), "diagnostics: %v", res.Diagnostics)
	assert.NotEmpty(t, res.Tokens)
	require.NotNil(t, res.Tree)
	require.NotNil(t, res.Program)
	require.NotNil(t, res.Info)
	require.NotNil(t, res.IR)

	funcs := res.IR.Funcs()
	assert.Contains(t, funcs, "fact")
	assert.Contains(t, funcs, "iterative")
	assert.Contains(t, funcs, "main")
	assert.Equal(t, ir.OpCall, res.IR.Quads[0].Op)
}

func TestCompileStopsAfterSemanticErrors(t *testing.T) {
	src, err := os.ReadFile("../../testdata/uninit.c")
	require.NoError(t, err)

	res, err := Compile("uninit.c", src, Options{})
	require.NoError(t, err)
	assert.False(t, res.OK())
	require.Len(t, res.Diagnostics, 5)
	for _, d := range res.Diagnostics {
		assert.Equal(t, diag.UninitializedVar, d.Kind)
	}
	assert.Equal(t, []int{5, 6, 11, 12, 13}, diag.Lines(res.Diagnostics))
	assert.NotNil(t, res.Program)
	assert.NotNil(t, res.Info)
	assert.Nil(t, res.IR)
}

func TestCompileStopsAfterSyntaxErrors(t *testing.T) {
	res, err := Compile("bad.c", []byte("int main() {\n    int a = ;\n    return 0;\n}\n"), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.Syntax, res.Diagnostics[0].Kind)
	assert.Equal(t, 2, res.Diagnostics[0].Pos.Line)
	assert.NotNil(t, res.Tree)
	assert.Nil(t, res.Program)
	assert.Nil(t, res.IR)
}

func TestCompileLexicalErrorsSkipSemantics(t *testing.T) {
	res, err := Compile("lex.c", []byte("int main() {\n    int a = 0x;\n    return a;\n}\n"), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, res.Diagnostics)
	assert.Equal(t, diag.Lexical, res.Diagnostics[0].Kind)
	assert.Equal(t, diag.Pos{Line: 2, Col: 13}, res.Diagnostics[0].Pos)
	assert.Nil(t, res.Program)
}

func TestCompileShadowedStructIsDiagnostic(t *testing.T) {
	src := "struct P { int a; };\nstruct P g;\nint main() {\n    struct P { bool b; int c; };\n    struct P q;\n    q.b = true;\n    q.c = 1;\n    g = q;\n    return 0;\n}\n"

	res, err := Compile("shadow.c", []byte(src), Options{})
	require.NoError(t, err)
	require.Len(t, res.Diagnostics, 1)
	assert.Equal(t, diag.IncompatibleType, res.Diagnostics[0].Kind)
	assert.Nil(t, res.IR)
}

func TestCompileLogsStages(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	_, err := Compile("tiny.c", []byte("int main() { return 0; }\n"), Options{Logger: zap.New(core)})
	require.NoError(t, err)

	entries := logs.FilterMessage("stage complete").All()
	require.Len(t, entries, 5)
	var stages []string
	for _, e := range entries {
		ctx := e.ContextMap()
		assert.Equal(t, "tiny.c", ctx["file"])
		stages = append(stages, ctx["stage"].(string))
	}
	assert.Equal(t, []string{"lex", "parse", "ast", "sema", "ir"}, stages)
}
