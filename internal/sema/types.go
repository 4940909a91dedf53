package sema

import (
	"fmt"
	"io"
	"strings"

	"github.com/swantron/minic/internal/ast"
	"github.com/swantron/minic/internal/diag"
)

// Type is a resolved minic type. The zero Type marks an expression whose
// type could not be determined; it never produces further diagnostics.
type Type struct {
	Kind ast.TypeName
	// Struct identifies the declaration; two structs with the same name in
	// different scopes are different types
	Struct *StructType
}

var (
	Invalid = Type{}
	IntT    = Type{Kind: ast.Int}
	BoolT   = Type{Kind: ast.Bool}
	VoidT   = Type{Kind: ast.Void}
)

func (t Type) String() string {
	switch t.Kind {
	case "":
		return "invalid"
	case ast.Struct:
		return "struct " + t.Struct.Name
	}
	return string(t.Kind)
}

// Valid reports whether t is a real type
func (t Type) Valid() bool {
	return t.Kind != ""
}

// Scalar reports whether t is int or bool
func (t Type) Scalar() bool {
	return t.Kind == ast.Int || t.Kind == ast.Bool
}

// SlotSize is the size in bytes of one scalar storage slot
const SlotSize = 4

// StructType is a declared struct with its fields in order
type StructType struct {
	Name   string
	Pos    diag.Pos
	Fields []StructField
}

type StructField struct {
	Name string
	Type Type
}

// FieldIndex returns the slot index of a field, or -1
func (s *StructType) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Var is a declared variable or parameter
type Var struct {
	Name   string
	Type   Type
	Pos    diag.Pos
	Global bool
	Param  bool
	Struct *StructType // set for struct variables
	// Offset is the distance in bytes below the frame pointer of the
	// variable's first slot. Globals have no offset.
	Offset int
}

// Slots is the number of scalar slots the variable occupies
func (v *Var) Slots() int {
	if v.Struct != nil {
		return len(v.Struct.Fields)
	}
	return 1
}

// Func is a declared function
type Func struct {
	Name    string
	Result  Type
	Params  []*Var
	Pos     diag.Pos
	Defined bool
	Decl    *ast.FuncDecl // the definition, nil for prototypes only
	Locals  []*Var        // params first, then every local in declaration order
	// FrameSize is the number of bytes of locals, params included
	FrameSize int
}

func (f *Func) paramTypes() []Type {
	out := make([]Type, len(f.Params))
	for i, p := range f.Params {
		out[i] = p.Type
	}
	return out
}

func (f *Func) String() string {
	return fmt.Sprintf("%s %s(%s)", f.Result, f.Name, typeList(f.paramTypes()))
}

func typeList(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return strings.Join(parts, ", ")
}

func typeNames(ts []Type) []string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return parts
}

// Info records what the checker resolved, for code generation and listings
type Info struct {
	Funcs   []*Func
	Globals []*Var
	Structs []*StructType

	Uses       map[*ast.Ident]*Var
	Decls      map[*ast.VarSpec]*Var
	StructVars map[*ast.StructVarDecl]*Var
	Calls      map[*ast.CallExpr]*Func
	FuncDefs   map[*ast.FuncDecl]*Func
}

func newInfo() *Info {
	return &Info{
		Uses:       make(map[*ast.Ident]*Var),
		Decls:      make(map[*ast.VarSpec]*Var),
		StructVars: make(map[*ast.StructVarDecl]*Var),
		Calls:      make(map[*ast.CallExpr]*Func),
		FuncDefs:   make(map[*ast.FuncDecl]*Func),
	}
}

// Func returns the function named name, or nil
func (info *Info) Func(name string) *Func {
	for _, f := range info.Funcs {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// WriteTables prints the function and variable tables
func (info *Info) WriteTables(w io.Writer) error {
	fmt.Fprintln(w, "functions:")
	for _, f := range info.Funcs {
		state := "defined"
		if !f.Defined {
			state = "prototype"
		}
		fmt.Fprintf(w, "  %-30s %-9s frame=%d at %s\n", f.String(), state, f.FrameSize, f.Pos)
	}
	fmt.Fprintln(w, "globals:")
	for _, v := range info.Globals {
		fmt.Fprintf(w, "  %-10s %-12s at %s\n", v.Name, v.Type, v.Pos)
	}
	for _, f := range info.Funcs {
		if len(f.Locals) == 0 {
			continue
		}
		fmt.Fprintf(w, "locals of %s:\n", f.Name)
		for _, v := range f.Locals {
			kind := "local"
			if v.Param {
				kind = "param"
			}
			fmt.Fprintf(w, "  %-10s %-12s %-5s fp-%d\n", v.Name, v.Type, kind, v.Offset)
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
