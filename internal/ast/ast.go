package ast

import "github.com/swantron/minic/internal/diag"

// Program is a whole translation unit
type Program struct {
	Decls []Decl
}

// Decl is a top-level declaration
type Decl interface {
	declNode()
	Position() diag.Pos
}

// Stmt is a statement inside a function body
type Stmt interface {
	stmtNode()
	Position() diag.Pos
}

// Expr is an expression
type Expr interface {
	exprNode()
	Position() diag.Pos
}

// TypeName is a scalar type keyword or "struct"
type TypeName string

const (
	Int    TypeName = "int"
	Bool   TypeName = "bool"
	Void   TypeName = "void"
	Struct TypeName = "struct"
)

// VarSpec declares one variable, optionally initialized
type VarSpec struct {
	Name string
	Pos  diag.Pos
	Init Expr // nil when absent
}

// VarDecl declares one or more variables of a scalar type
type VarDecl struct {
	Type TypeName
	Pos  diag.Pos
	Vars []VarSpec
}

// Field is a struct member
type Field struct {
	Type TypeName
	Name string
	Pos  diag.Pos
}

// StructDecl defines a struct type
type StructDecl struct {
	Name   string
	Pos    diag.Pos
	Fields []Field
}

// StructVarDecl declares a variable of a struct type
type StructVarDecl struct {
	StructName string
	Name       string
	Pos        diag.Pos
}

// Param is a function parameter
type Param struct {
	Type TypeName
	Name string
	Pos  diag.Pos
}

// FuncDecl is a prototype (Body == nil) or a definition
type FuncDecl struct {
	Result TypeName
	Name   string
	Pos    diag.Pos
	Params []Param
	Body   *BlockStmt
}

func (d *VarDecl) declNode()       {}
func (d *StructDecl) declNode()    {}
func (d *StructVarDecl) declNode() {}
func (d *FuncDecl) declNode()      {}

func (d *VarDecl) Position() diag.Pos       { return d.Pos }
func (d *StructDecl) Position() diag.Pos    { return d.Pos }
func (d *StructVarDecl) Position() diag.Pos { return d.Pos }
func (d *FuncDecl) Position() diag.Pos      { return d.Pos }

// DeclStmt wraps a local declaration
type DeclStmt struct {
	Decl Decl
}

// AssignStmt is Target = Value; Target is an *Ident or *FieldExpr
type AssignStmt struct {
	Target Expr
	Value  Expr
	Pos    diag.Pos // position of '='
}

// CallStmt evaluates a call for its effect
type CallStmt struct {
	Call *CallExpr
}

type IfStmt struct {
	Pos  diag.Pos
	Cond Expr
	Then *BlockStmt
	Else Stmt // nil when absent
}

type WhileStmt struct {
	Pos  diag.Pos
	Cond Expr
	Body *BlockStmt
}

type ReturnStmt struct {
	Pos   diag.Pos
	Value Expr // nil for a bare return
}

// PutStmt writes an integer to standard output
type PutStmt struct {
	Pos   diag.Pos
	Value Expr
}

// GetStmt reads an integer from standard input into Target
type GetStmt struct {
	Pos    diag.Pos
	Target Expr
}

type BlockStmt struct {
	Pos   diag.Pos
	Stmts []Stmt
}

type EmptyStmt struct {
	Pos diag.Pos
}

func (s *DeclStmt) stmtNode()   {}
func (s *AssignStmt) stmtNode() {}
func (s *CallStmt) stmtNode()   {}
func (s *IfStmt) stmtNode()     {}
func (s *WhileStmt) stmtNode()  {}
func (s *ReturnStmt) stmtNode() {}
func (s *PutStmt) stmtNode()    {}
func (s *GetStmt) stmtNode()    {}
func (s *BlockStmt) stmtNode()  {}
func (s *EmptyStmt) stmtNode()  {}

func (s *DeclStmt) Position() diag.Pos   { return s.Decl.Position() }
func (s *AssignStmt) Position() diag.Pos { return s.Target.Position() }
func (s *CallStmt) Position() diag.Pos   { return s.Call.Pos }
func (s *IfStmt) Position() diag.Pos     { return s.Pos }
func (s *WhileStmt) Position() diag.Pos  { return s.Pos }
func (s *ReturnStmt) Position() diag.Pos { return s.Pos }
func (s *PutStmt) Position() diag.Pos    { return s.Pos }
func (s *GetStmt) Position() diag.Pos    { return s.Pos }
func (s *BlockStmt) Position() diag.Pos  { return s.Pos }
func (s *EmptyStmt) Position() diag.Pos  { return s.Pos }

type NumberLit struct {
	Pos   diag.Pos
	Value int
}

type BoolLit struct {
	Pos   diag.Pos
	Value bool
}

type Ident struct {
	Pos  diag.Pos
	Name string
}

// FieldExpr is X.Field where X names a struct variable
type FieldExpr struct {
	X     *Ident
	Field string
	Pos   diag.Pos // position of the field name
}

type CallExpr struct {
	Pos  diag.Pos
	Func string
	Args []Expr
}

// UnaryExpr is !X or -X
type UnaryExpr struct {
	Pos diag.Pos
	Op  string
	X   Expr
}

type BinaryExpr struct {
	Pos  diag.Pos // position of the operator
	Op   string
	X, Y Expr
}

func (e *NumberLit) exprNode()  {}
func (e *BoolLit) exprNode()    {}
func (e *Ident) exprNode()      {}
func (e *FieldExpr) exprNode()  {}
func (e *CallExpr) exprNode()   {}
func (e *UnaryExpr) exprNode()  {}
func (e *BinaryExpr) exprNode() {}

func (e *NumberLit) Position() diag.Pos  { return e.Pos }
func (e *BoolLit) Position() diag.Pos    { return e.Pos }
func (e *Ident) Position() diag.Pos      { return e.Pos }
func (e *FieldExpr) Position() diag.Pos  { return e.X.Pos }
func (e *CallExpr) Position() diag.Pos   { return e.Pos }
func (e *UnaryExpr) Position() diag.Pos  { return e.Pos }
func (e *BinaryExpr) Position() diag.Pos { return e.X.Position() }
