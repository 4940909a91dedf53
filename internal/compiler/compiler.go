package compiler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swantron/minic/internal/ast"
	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/grammar"
	"github.com/swantron/minic/internal/ir"
	"github.com/swantron/minic/internal/lexer"
	"github.com/swantron/minic/internal/sema"
)

// Options configures a compilation
type Options struct {
	// Grammar overrides the embedded minic grammar
	Grammar *grammar.Grammar
	Logger  *zap.Logger
}

// Result holds every artifact the pipeline produced. Later stages are nil
// when an earlier stage reported diagnostics.
type Result struct {
	Name        string
	Tokens      []lexer.Token
	Tree        *grammar.Tree
	Program     *ast.Program
	Info        *sema.Info
	IR          *ir.Program
	Diagnostics []diag.Diagnostic
}

// OK reports whether the source compiled without diagnostics
func (r *Result) OK() bool {
	return len(r.Diagnostics) == 0
}

// Compile runs lex, parse, AST lowering, semantic checks and IR generation.
// Problems in the source are diagnostics; the error is reserved for
// failures of the compiler itself.
func Compile(name string, src []byte, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("file", name))

	g := opts.Grammar
	if g == nil {
		var err error
		if g, err = grammar.Default(); err != nil {
			return nil, fmt.Errorf("failed to load grammar: %w", err)
		}
	}

	res := &Result{Name: name}
	var diags diag.List
	stage := func(name string, start time.Time, found []diag.Diagnostic) {
		diags.Extend(found)
		logger.Debug("stage complete",
			zap.String("stage", name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("diagnostics", len(found)))
	}
	finish := func() *Result {
		res.Diagnostics = diags.Items()
		return res
	}

	start := time.Now()
	tokens, found := lexer.Scan(src)
	res.Tokens = tokens
	stage("lex", start, found)

	start = time.Now()
	tree, found := g.Parse(tokens)
	res.Tree = tree
	stage("parse", start, found)
	if diags.Len() > 0 {
		return finish(), nil
	}

	start = time.Now()
	prog, err := ast.Build(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to build syntax tree: %w", err)
	}
	res.Program = prog
	stage("ast", start, nil)

	start = time.Now()
	info, found := sema.Check(prog)
	res.Info = info
	stage("sema", start, found)
	if diags.Len() > 0 {
		return finish(), nil
	}

	start = time.Now()
	code, err := ir.Generate(prog, info)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}
	res.IR = code
	stage("ir", start, nil)
	return finish(), nil
}
