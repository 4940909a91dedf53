package sema

import (
	"fmt"

	"github.com/swantron/minic/internal/ast"
	"github.com/swantron/minic/internal/diag"
)

type scope struct {
	parent  *scope
	vars    map[string]*Var
	structs map[string]*StructType
}

func newScope(parent *scope) *scope {
	return &scope{parent: parent, vars: make(map[string]*Var), structs: make(map[string]*StructType)}
}

func (s *scope) lookupVar(name string) *Var {
	for ; s != nil; s = s.parent {
		if v, ok := s.vars[name]; ok {
			return v
		}
	}
	return nil
}

func (s *scope) lookupStruct(name string) *StructType {
	for ; s != nil; s = s.parent {
		if st, ok := s.structs[name]; ok {
			return st
		}
	}
	return nil
}

type pendingCall struct {
	pos diag.Pos
	fn  *Func
}

type checker struct {
	info   *Info
	diags  []diag.Diagnostic
	funcs  map[string]*Func
	global *scope
	cur    *scope
	fn     *Func
	frame  int
	calls  []pendingCall
}

// Check resolves names and types in prog and runs the definite-assignment
// analysis. Diagnostics are returned in discovery order.
func Check(prog *ast.Program) (*Info, []diag.Diagnostic) {
	c := &checker{info: newInfo(), funcs: make(map[string]*Func)}
	c.global = newScope(nil)
	c.cur = c.global

	// globals are not zero-initialized; only initializers and code assign them
	globals := newFlow()
	for _, d := range prog.Decls {
		switch d := d.(type) {
		case *ast.VarDecl:
			c.varDecl(d, globals)
		case *ast.StructDecl:
			c.structDecl(d)
		case *ast.StructVarDecl:
			c.structVarDecl(d)
		case *ast.FuncDecl:
			c.funcDecl(d, globals)
		}
	}
	for _, call := range c.calls {
		if !call.fn.Defined {
			c.report(diag.New(call.pos, diag.UndefinedFunc, "function %s is declared but never defined", call.fn.Name))
		}
	}
	return c.info, c.diags
}

func (c *checker) report(d diag.Diagnostic) {
	c.diags = append(c.diags, d)
}

func (c *checker) push() {
	c.cur = newScope(c.cur)
}

func (c *checker) pop() {
	c.cur = c.cur.parent
}

func (c *checker) resolveScalar(name ast.TypeName) Type {
	switch name {
	case ast.Int:
		return IntT
	case ast.Bool:
		return BoolT
	case ast.Void:
		return VoidT
	}
	return Invalid
}

// declare adds v to the current scope, reporting redeclaration in the
// same scope. It returns the variable that name now refers to.
func (c *checker) declare(v *Var) *Var {
	if prev, ok := c.cur.vars[v.Name]; ok {
		c.report(diag.AlreadyDefinedVariable(v.Pos, v.Name, prev.Pos))
		return prev
	}
	c.cur.vars[v.Name] = v
	if c.fn == nil {
		v.Global = true
		c.info.Globals = append(c.info.Globals, v)
		return v
	}
	c.frame += v.Slots() * SlotSize
	v.Offset = c.frame
	c.fn.Locals = append(c.fn.Locals, v)
	return v
}

func (c *checker) varDecl(d *ast.VarDecl, st *flow) {
	typ := c.resolveScalar(d.Type)
	if typ == VoidT {
		for _, spec := range d.Vars {
			c.report(diag.New(spec.Pos, diag.VoidVariable, "variable %s cannot have type void", spec.Name))
		}
		typ = Invalid
	}
	for i := range d.Vars {
		spec := &d.Vars[i]
		v := c.declare(&Var{Name: spec.Name, Type: typ, Pos: spec.Pos})
		c.info.Decls[spec] = v
		if spec.Init == nil {
			continue
		}
		got := c.expr(spec.Init, st)
		c.assignable(spec.Pos, v.Name, v.Type, got)
		st.assign(v, -1)
	}
}

func (c *checker) structDecl(d *ast.StructDecl) {
	if prev, ok := c.cur.structs[d.Name]; ok {
		c.report(diag.New(d.Pos, diag.AlreadyDefinedVar, "struct %s is already defined in position %s", d.Name, prev.Pos))
		return
	}
	st := &StructType{Name: d.Name, Pos: d.Pos}
	seen := make(map[string]diag.Pos)
	for _, f := range d.Fields {
		if first, ok := seen[f.Name]; ok {
			c.report(diag.New(f.Pos, diag.AlreadyDefinedVar, "field %s is already defined in position %s", f.Name, first))
			continue
		}
		seen[f.Name] = f.Pos
		typ := c.resolveScalar(f.Type)
		if typ == VoidT {
			c.report(diag.New(f.Pos, diag.VoidVariable, "field %s cannot have type void", f.Name))
			typ = Invalid
		}
		st.Fields = append(st.Fields, StructField{Name: f.Name, Type: typ})
	}
	c.cur.structs[d.Name] = st
	c.info.Structs = append(c.info.Structs, st)
}

func (c *checker) structVarDecl(d *ast.StructVarDecl) {
	st := c.cur.lookupStruct(d.StructName)
	if st == nil {
		c.report(diag.New(d.Pos, diag.Undefined, "undefined struct %s", d.StructName))
		v := c.declare(&Var{Name: d.Name, Type: Invalid, Pos: d.Pos})
		c.info.StructVars[d] = v
		return
	}
	v := c.declare(&Var{Name: d.Name, Type: Type{Kind: ast.Struct, Struct: st}, Pos: d.Pos, Struct: st})
	c.info.StructVars[d] = v
}

func (c *checker) funcDecl(d *ast.FuncDecl, globals *flow) {
	fn := &Func{Name: d.Name, Result: c.resolveScalar(d.Result), Pos: d.Pos}
	for _, p := range d.Params {
		typ := c.resolveScalar(p.Type)
		if typ == VoidT {
			c.report(diag.New(p.Pos, diag.VoidVariable, "parameter %s cannot have type void", p.Name))
			typ = Invalid
		}
		fn.Params = append(fn.Params, &Var{Name: p.Name, Type: typ, Pos: p.Pos, Param: true})
	}

	if prev, ok := c.funcs[d.Name]; ok {
		switch {
		case prev.Result != fn.Result || !sameTypes(prev.paramTypes(), fn.paramTypes()):
			c.report(diag.New(d.Pos, diag.AlreadyDefinedFunc,
				"function %s conflicts with its declaration in position %s (%s)", d.Name, prev.Pos, prev))
		case d.Body == nil:
			return
		case prev.Defined:
			c.report(diag.AlreadyDefinedFunction(d.Pos, d.Name, prev.Decl.Pos))
		default:
			// the definition's parameter names win over the prototype's
			prev.Params = fn.Params
			fn = prev
		}
		if fn != prev {
			// a rejected body is still checked, against its own signature
			if d.Body != nil {
				c.body(fn, d, globals)
			}
			return
		}
	} else {
		c.funcs[d.Name] = fn
		c.info.Funcs = append(c.info.Funcs, fn)
	}
	if d.Body == nil {
		return
	}
	fn.Defined = true
	fn.Decl = d
	c.info.FuncDefs[d] = fn
	c.body(fn, d, globals)
}

func (c *checker) body(fn *Func, d *ast.FuncDecl, globals *flow) {
	c.fn, c.frame = fn, 0
	c.push()
	defer func() {
		c.pop()
		fn.FrameSize = c.frame
		c.fn = nil
	}()

	st := globals.clone()
	for _, p := range fn.Params {
		if c.declare(p) == p {
			st.assign(p, -1)
		}
	}
	for _, s := range d.Body.Stmts {
		c.stmt(s, st)
	}
}

func sameTypes(a, b []Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (c *checker) stmt(s ast.Stmt, st *flow) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		switch d := s.Decl.(type) {
		case *ast.VarDecl:
			c.varDecl(d, st)
		case *ast.StructDecl:
			c.structDecl(d)
		case *ast.StructVarDecl:
			c.structVarDecl(d)
		}
	case *ast.AssignStmt:
		v, field, typ := c.target(s.Target)
		got := c.expr(s.Value, st)
		if v != nil {
			c.assignable(s.Pos, describeTarget(s.Target), typ, got)
			st.assign(v, field)
		}
	case *ast.CallStmt:
		c.call(s.Call, st)
	case *ast.IfStmt:
		c.condition(s.Cond, "if", st)
		then := st.clone()
		c.block(s.Then, then)
		other := st.clone()
		if s.Else != nil {
			c.push()
			c.stmt(s.Else, other)
			c.pop()
		}
		st.join(then, other)
	case *ast.WhileStmt:
		c.condition(s.Cond, "while", st)
		// the body may run zero times, so it never adds to the entry state
		c.block(s.Body, st.clone())
	case *ast.ReturnStmt:
		c.ret(s, st)
		st.dead = true
	case *ast.PutStmt:
		got := c.expr(s.Value, st)
		if got.Valid() && !got.Scalar() {
			c.report(diag.Unsupported(s.Value.Position(), describe(s.Value), got.String(), "put"))
		}
	case *ast.GetStmt:
		v, field, typ := c.target(s.Target)
		if v == nil {
			return
		}
		if typ.Valid() && typ != IntT {
			c.report(diag.Unsupported(s.Target.Position(), describe(s.Target), typ.String(), "get"))
		}
		st.assign(v, field)
	case *ast.BlockStmt:
		c.block(s, st)
	case *ast.EmptyStmt:
	}
}

func (c *checker) block(b *ast.BlockStmt, st *flow) {
	c.push()
	for _, s := range b.Stmts {
		c.stmt(s, st)
	}
	c.pop()
}

func (c *checker) condition(e ast.Expr, op string, st *flow) {
	got := c.expr(e, st)
	if got.Valid() && !got.Scalar() {
		c.report(diag.Unsupported(e.Position(), describe(e), got.String(), op))
	}
}

func (c *checker) ret(s *ast.ReturnStmt, st *flow) {
	want := c.fn.Result
	if s.Value == nil {
		if want != VoidT && want.Valid() {
			c.report(diag.New(s.Pos, diag.ReturnMismatch, "function %s must return a value of type %s", c.fn.Name, want))
		}
		return
	}
	got := c.expr(s.Value, st)
	switch {
	case want == VoidT:
		c.report(diag.New(s.Pos, diag.ReturnMismatch, "function %s returns void but a value is returned", c.fn.Name))
	case got.Valid() && want.Valid() && got != want:
		c.report(diag.New(s.Pos, diag.ReturnMismatch, "function %s returns %s but got %s", c.fn.Name, want, got))
	}
}

func (c *checker) assignable(pos diag.Pos, name string, want, got Type) {
	if !want.Valid() || !got.Valid() || want == got {
		return
	}
	ws, gs := want.String(), got.String()
	if ws == gs && want.Struct != nil && got.Struct != nil {
		// same name, different declarations
		ws = fmt.Sprintf("%s declared in position %s", ws, want.Struct.Pos)
		gs = fmt.Sprintf("%s declared in position %s", gs, got.Struct.Pos)
	}
	c.report(diag.Incompatible(pos, name, ws, gs))
}

// target resolves an assignment target without reading it. A nil Var means
// the target is undefined and has been reported.
func (c *checker) target(e ast.Expr) (*Var, int, Type) {
	switch e := e.(type) {
	case *ast.Ident:
		v := c.lookup(e)
		if v == nil {
			return nil, -1, Invalid
		}
		return v, -1, v.Type
	case *ast.FieldExpr:
		v := c.lookup(e.X)
		if v == nil {
			return nil, -1, Invalid
		}
		idx, typ := c.field(v, e)
		if idx < 0 {
			return nil, -1, Invalid
		}
		return v, idx, typ
	}
	return nil, -1, Invalid
}

func (c *checker) lookup(id *ast.Ident) *Var {
	v := c.cur.lookupVar(id.Name)
	if v == nil {
		c.report(diag.UndefinedVariable(id.Pos, id.Name))
		return nil
	}
	c.info.Uses[id] = v
	return v
}

// field resolves e.Field on v, reporting a missing field
func (c *checker) field(v *Var, e *ast.FieldExpr) (int, Type) {
	if !v.Type.Valid() {
		return -1, Invalid
	}
	if v.Struct == nil {
		c.report(diag.UndefinedVariable(e.Pos, v.Name+"."+e.Field))
		return -1, Invalid
	}
	idx := v.Struct.FieldIndex(e.Field)
	if idx < 0 {
		c.report(diag.UndefinedVariable(e.Pos, v.Name+"."+e.Field))
		return -1, Invalid
	}
	return idx, v.Struct.Fields[idx].Type
}

func (c *checker) expr(e ast.Expr, st *flow) Type {
	switch e := e.(type) {
	case *ast.NumberLit:
		return IntT
	case *ast.BoolLit:
		return BoolT
	case *ast.Ident:
		v := c.lookup(e)
		if v == nil {
			return Invalid
		}
		if !st.dead && !st.assigned(v, -1) {
			c.report(diag.Uninitialized(e.Pos, v.Name))
		}
		return v.Type
	case *ast.FieldExpr:
		v := c.lookup(e.X)
		if v == nil {
			return Invalid
		}
		idx, typ := c.field(v, e)
		if idx < 0 {
			return Invalid
		}
		if !st.dead && !st.assigned(v, idx) {
			c.report(diag.Uninitialized(e.Position(), v.Name+"."+e.Field))
		}
		return typ
	case *ast.CallExpr:
		return c.call(e, st)
	case *ast.UnaryExpr:
		return c.unary(e, st)
	case *ast.BinaryExpr:
		return c.binary(e, st)
	}
	return Invalid
}

func (c *checker) call(e *ast.CallExpr, st *flow) Type {
	got := make([]Type, len(e.Args))
	for i, a := range e.Args {
		got[i] = c.expr(a, st)
	}
	fn, ok := c.funcs[e.Func]
	if !ok {
		c.report(diag.UndefinedFunction(e.Pos, e.Func))
		return Invalid
	}
	c.info.Calls[e] = fn
	c.calls = append(c.calls, pendingCall{pos: e.Pos, fn: fn})

	want := fn.paramTypes()
	if !sameTypes(got, want) && allValid(got) {
		c.report(diag.Params(e.Pos, e.Func, typeNames(got), typeNames(want)))
	}
	return fn.Result
}

func allValid(ts []Type) bool {
	for _, t := range ts {
		if !t.Valid() {
			return false
		}
	}
	return true
}

func (c *checker) unary(e *ast.UnaryExpr, st *flow) Type {
	x := c.expr(e.X, st)
	want := IntT
	if e.Op == "!" {
		want = BoolT
	}
	if x.Valid() && x != want {
		c.report(diag.Unsupported(e.X.Position(), describe(e.X), x.String(), e.Op))
	}
	return want
}

func (c *checker) binary(e *ast.BinaryExpr, st *flow) Type {
	x := c.expr(e.X, st)
	y := c.expr(e.Y, st)

	var result, operand Type
	switch e.Op {
	case "+", "-", "*", "/":
		result, operand = IntT, IntT
	case "<", "<=", ">", ">=":
		result, operand = BoolT, IntT
	case "&&", "||":
		result, operand = BoolT, BoolT
	case "==", "!=", "<>":
		result = BoolT
	case "&", "|":
		result = x
	default:
		return Invalid
	}
	if !x.Valid() || !y.Valid() {
		return result
	}

	for _, side := range []struct {
		e ast.Expr
		t Type
	}{{e.X, x}, {e.Y, y}} {
		if !side.t.Scalar() || (operand.Valid() && side.t != operand) {
			c.report(diag.Unsupported(side.e.Position(), describe(side.e), side.t.String(), e.Op))
			return result
		}
	}
	if x != y {
		c.report(diag.Mismatched(e.Pos, x.String(), y.String(), e.Op))
		if e.Op == "&" || e.Op == "|" {
			return Invalid
		}
	}
	return result
}

// describe names an operand in diagnostics
func describe(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return "variable " + e.Name
	case *ast.FieldExpr:
		return "variable " + e.X.Name + "." + e.Field
	case *ast.CallExpr:
		return "call " + e.Func
	case *ast.NumberLit, *ast.BoolLit:
		return "constant"
	}
	return "expression"
}

func describeTarget(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.FieldExpr:
		return e.X.Name + "." + e.Field
	}
	return "?"
}
