package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Pos is a 1-based line/column location in a source file
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string {
	return fmt.Sprintf("(%d, %d)", p.Line, p.Col)
}

// Before reports whether p comes before q in the source
func (p Pos) Before(q Pos) bool {
	if p.Line != q.Line {
		return p.Line < q.Line
	}
	return p.Col < q.Col
}

// Kind classifies a diagnostic
type Kind string

const (
	Lexical            Kind = "lexical"
	Syntax             Kind = "syntax"
	Undefined          Kind = "undefined"
	UndefinedFunc      Kind = "undefined_func"
	AlreadyDefinedVar  Kind = "already_defined_var"
	AlreadyDefinedFunc Kind = "already_defined_func"
	UninitializedVar   Kind = "uninitialized_var"
	UnsupportedOp      Kind = "unsupported_operation"
	IncompatibleType   Kind = "incompatible_type"
	MismatchedParams   Kind = "mismatched_params"
	MismatchedType     Kind = "mismatched_type"
	ReturnMismatch     Kind = "return_mismatch"
	VoidVariable       Kind = "void_variable"
)

// Diagnostic is a single finding about a source program
type Diagnostic struct {
	Pos     Pos
	Kind    Kind
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[ERROR] at position %s, caused by: %s", d.Pos, d.Message)
}

func New(pos Pos, kind Kind, format string, args ...any) Diagnostic {
	return Diagnostic{Pos: pos, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func UndefinedVariable(pos Pos, name string) Diagnostic {
	return New(pos, Undefined, "undefined variable %s", name)
}

func UndefinedFunction(pos Pos, name string) Diagnostic {
	return New(pos, UndefinedFunc, "undefined function %s", name)
}

func AlreadyDefinedVariable(pos Pos, name string, first Pos) Diagnostic {
	return New(pos, AlreadyDefinedVar, "variable %s is already defined in position %s", name, first)
}

func AlreadyDefinedFunction(pos Pos, name string, first Pos) Diagnostic {
	return New(pos, AlreadyDefinedFunc, "function %s is already defined in position %s", name, first)
}

func Uninitialized(pos Pos, name string) Diagnostic {
	return New(pos, UninitializedVar, "variable %s is uninitialized but used here", name)
}

func Unsupported(pos Pos, operand, typ, op string) Diagnostic {
	return New(pos, UnsupportedOp, "%s (%s) don't support operation %s", operand, typ, op)
}

func Incompatible(pos Pos, name, typ, rvalue string) Diagnostic {
	return New(pos, IncompatibleType, "variable %s (%s) cannot be assigned with type %s", name, typ, rvalue)
}

func Params(pos Pos, name string, got, want []string) Diagnostic {
	return New(pos, MismatchedParams, "function %s received params (%s), expected params (%s)",
		name, strings.Join(got, ", "), strings.Join(want, ", "))
}

func Mismatched(pos Pos, left, right, op string) Diagnostic {
	return New(pos, MismatchedType, "variable (%s) and variable (%s) don't support operation %s", left, right, op)
}

// List collects diagnostics from every stage of a compilation
type List struct {
	items []Diagnostic
}

func (l *List) Add(d Diagnostic) {
	l.items = append(l.items, d)
}

func (l *List) Extend(ds []Diagnostic) {
	l.items = append(l.items, ds...)
}

func (l *List) Len() int {
	return len(l.items)
}

// Items returns the diagnostics ordered by position; ties keep insertion order
func (l *List) Items() []Diagnostic {
	out := make([]Diagnostic, len(l.items))
	copy(out, l.items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Pos.Before(out[j].Pos)
	})
	return out
}

// CountByKind returns the number of diagnostics for each kind present
func (l *List) CountByKind() map[Kind]int {
	counts := make(map[Kind]int)
	for _, d := range l.items {
		counts[d.Kind]++
	}
	return counts
}

// Lines returns the sorted set of lines carrying at least one diagnostic
func Lines(ds []Diagnostic) []int {
	seen := make(map[int]bool)
	lines := make([]int, 0, len(ds))
	for _, d := range ds {
		if !seen[d.Pos.Line] {
			seen[d.Pos.Line] = true
			lines = append(lines, d.Pos.Line)
		}
	}
	sort.Ints(lines)
	return lines
}
