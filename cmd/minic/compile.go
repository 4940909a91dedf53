package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"

	"github.com/swantron/minic/internal/compiler"
	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/grammar"
)

var (
	fileStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// loadGrammar returns the grammar at path, the configured grammar, or the
// embedded one, in that order
func loadGrammar(path string) (*grammar.Grammar, error) {
	if path == "" {
		path = cfg.Grammar
	}
	if path == "" {
		return grammar.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grammar: %w", err)
	}
	defer f.Close()

	g, err := grammar.Load(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load grammar %s: %w", path, err)
	}
	return g, nil
}

func compilerOptions() (compiler.Options, error) {
	g, err := loadGrammar("")
	if err != nil {
		return compiler.Options{}, err
	}
	return compiler.Options{Grammar: g, Logger: logger}, nil
}

func compileFile(path string, opts compiler.Options) (*compiler.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read source: %w", err)
	}
	return compiler.Compile(path, src, opts)
}

// compileClean compiles path and prints its diagnostics to w, failing when
// there are any
func compileClean(path string, w io.Writer) (*compiler.Result, error) {
	opts, err := compilerOptions()
	if err != nil {
		return nil, err
	}
	res, err := compileFile(path, opts)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		writeDiagnostics(w, res.Name, res.Diagnostics)
		return nil, errFailed
	}
	return res, nil
}

func writeDiagnostics(w io.Writer, name string, diags []diag.Diagnostic) {
	fmt.Fprintln(w, fileStyle.Render(name))
	for _, d := range diags {
		fmt.Fprintf(w, "  %s\n", errorStyle.Render(d.String()))
	}
}
