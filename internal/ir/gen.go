package ir

import (
	"fmt"

	"github.com/swantron/minic/internal/ast"
	"github.com/swantron/minic/internal/sema"
)

type generator struct {
	info   *sema.Info
	quads  []Quad
	temps  int
	labels int
	err    error
}

// Generate translates a checked program. prog must have passed sema.Check
// without diagnostics; unresolved names are reported as an error.
func Generate(prog *ast.Program, info *sema.Info) (*Program, error) {
	g := &generator{info: info}
	out := &Program{}
	for _, v := range info.Globals {
		out.Globals = append(out.Globals, GlobalVar{Name: v.Name, Slots: v.Slots()})
	}

	for _, d := range prog.Decls {
		if vd, ok := d.(*ast.VarDecl); ok {
			g.varDecl(vd)
		}
	}
	status := g.temp()
	g.emit(OpCall, FuncOp("main"), ImmOp(0), status)
	g.emit(OpExit, status, Operand{}, Operand{})

	for _, d := range prog.Decls {
		if fd, ok := d.(*ast.FuncDecl); ok && fd.Body != nil {
			g.function(fd)
		}
	}
	if g.err != nil {
		return nil, g.err
	}
	out.Quads = g.quads
	return out, nil
}

func (g *generator) fail(format string, args ...any) {
	if g.err == nil {
		g.err = fmt.Errorf("ir: "+format, args...)
	}
}

func (g *generator) emit(op Op, arg1, arg2, result Operand) {
	g.quads = append(g.quads, Quad{Op: op, Arg1: arg1, Arg2: arg2, Result: result})
}

func (g *generator) temp() Operand {
	t := TempOp(g.temps)
	g.temps++
	return t
}

func (g *generator) label() int {
	g.labels++
	return g.labels
}

func (g *generator) mark(name string) {
	g.emit(OpLabel, Operand{}, Operand{}, LabelOp(name))
}

func (g *generator) function(d *ast.FuncDecl) {
	fn := g.info.FuncDefs[d]
	if fn == nil {
		g.fail("function %s was not checked", d.Name)
		return
	}
	g.temps = 0
	g.emit(OpFunc, FuncOp(fn.Name), ImmOp(fn.FrameSize), ImmOp(len(fn.Params)))
	for _, s := range d.Body.Stmts {
		g.stmt(s)
	}
	g.emit(OpRet, Operand{}, Operand{}, Operand{})
}

// addr is the storage operand of a variable slot
func addr(v *sema.Var, field int) Operand {
	off := 0
	if field > 0 {
		off = field * sema.SlotSize
	}
	if v.Global {
		return GlobalOp(v.Name, off)
	}
	return LocalOp(v.Offset - off)
}

// target resolves an assignable expression to its variable and field
func (g *generator) target(e ast.Expr) (*sema.Var, int) {
	switch e := e.(type) {
	case *ast.Ident:
		if v := g.info.Uses[e]; v != nil {
			return v, -1
		}
		g.fail("unresolved variable %s at %s", e.Name, e.Pos)
	case *ast.FieldExpr:
		v := g.info.Uses[e.X]
		if v == nil || v.Struct == nil {
			g.fail("unresolved field %s.%s at %s", e.X.Name, e.Field, e.Pos)
			return nil, -1
		}
		return v, v.Struct.FieldIndex(e.Field)
	default:
		g.fail("expression at %s is not assignable", e.Position())
	}
	return nil, -1
}

func (g *generator) varDecl(d *ast.VarDecl) {
	for i := range d.Vars {
		spec := &d.Vars[i]
		if spec.Init == nil {
			continue
		}
		v := g.info.Decls[spec]
		if v == nil {
			g.fail("unresolved declaration %s at %s", spec.Name, spec.Pos)
			return
		}
		t := g.expr(spec.Init)
		g.emit(OpStore, t, Operand{}, addr(v, -1))
	}
}

func (g *generator) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.DeclStmt:
		if vd, ok := s.Decl.(*ast.VarDecl); ok {
			g.varDecl(vd)
		}
	case *ast.AssignStmt:
		g.assign(s)
	case *ast.CallStmt:
		g.call(s.Call, false)
	case *ast.IfStmt:
		n := g.label()
		elseLabel, endLabel := fmt.Sprintf("else_%d", n), fmt.Sprintf("endif_%d", n)
		g.mark(fmt.Sprintf("if_%d", n))
		g.emit(OpIfFalse, g.expr(s.Cond), Operand{}, LabelOp(elseLabel))
		g.block(s.Then)
		g.emit(OpGoto, Operand{}, Operand{}, LabelOp(endLabel))
		g.mark(elseLabel)
		if s.Else != nil {
			g.stmt(s.Else)
		}
		g.mark(endLabel)
	case *ast.WhileStmt:
		n := g.label()
		head, end := fmt.Sprintf("while_%d", n), fmt.Sprintf("endwhile_%d", n)
		g.mark(head)
		g.emit(OpIfFalse, g.expr(s.Cond), Operand{}, LabelOp(end))
		g.block(s.Body)
		g.emit(OpGoto, Operand{}, Operand{}, LabelOp(head))
		g.mark(end)
	case *ast.ReturnStmt:
		if s.Value == nil {
			g.emit(OpRet, Operand{}, Operand{}, Operand{})
			return
		}
		g.emit(OpRet, g.expr(s.Value), Operand{}, Operand{})
	case *ast.PutStmt:
		g.emit(OpPut, g.expr(s.Value), Operand{}, Operand{})
	case *ast.GetStmt:
		v, field := g.target(s.Target)
		if v != nil {
			g.emit(OpGet, Operand{}, Operand{}, addr(v, field))
		}
	case *ast.BlockStmt:
		g.block(s)
	case *ast.EmptyStmt:
	}
}

func (g *generator) block(b *ast.BlockStmt) {
	for _, s := range b.Stmts {
		g.stmt(s)
	}
}

func (g *generator) assign(s *ast.AssignStmt) {
	v, field := g.target(s.Target)
	if v == nil {
		return
	}
	if field < 0 && v.Struct != nil {
		src, ok := s.Value.(*ast.Ident)
		from := g.info.Uses[src]
		if !ok || from == nil || from.Struct != v.Struct {
			g.fail("struct assignment at %s needs a struct variable", s.Pos)
			return
		}
		for i := range v.Struct.Fields {
			t := g.temp()
			g.emit(OpLoadVar, addr(from, i), Operand{}, t)
			g.emit(OpStore, t, Operand{}, addr(v, i))
		}
		return
	}
	g.emit(OpStore, g.expr(s.Value), Operand{}, addr(v, field))
}

// call emits a call; the result temporary is only allocated when used
func (g *generator) call(e *ast.CallExpr, used bool) Operand {
	fn := g.info.Calls[e]
	if fn == nil {
		g.fail("unresolved call %s at %s", e.Func, e.Pos)
		return Operand{}
	}
	args := make([]Operand, len(e.Args))
	for i, a := range e.Args {
		args[i] = g.expr(a)
	}
	for i, t := range args {
		g.emit(OpArg, t, ImmOp(i), Operand{})
	}
	var result Operand
	if used {
		result = g.temp()
	}
	g.emit(OpCall, FuncOp(fn.Name), ImmOp(len(args)), result)
	return result
}

func (g *generator) expr(e ast.Expr) Operand {
	switch e := e.(type) {
	case *ast.NumberLit:
		t := g.temp()
		g.emit(OpLoadImm, ImmOp(e.Value), Operand{}, t)
		return t
	case *ast.BoolLit:
		v := 0
		if e.Value {
			v = 1
		}
		t := g.temp()
		g.emit(OpLoadImm, ImmOp(v), Operand{}, t)
		return t
	case *ast.Ident, *ast.FieldExpr:
		v, field := g.target(e)
		if v == nil {
			return Operand{}
		}
		t := g.temp()
		g.emit(OpLoadVar, addr(v, field), Operand{}, t)
		return t
	case *ast.CallExpr:
		return g.call(e, true)
	case *ast.UnaryExpr:
		x := g.expr(e.X)
		op := OpNeg
		if e.Op == "!" {
			op = OpNot
		}
		t := g.temp()
		g.emit(op, x, Operand{}, t)
		return t
	case *ast.BinaryExpr:
		x := g.expr(e.X)
		y := g.expr(e.Y)
		op := Op(e.Op)
		if e.Op == "!=" {
			op = OpNe
		}
		if !op.Binary() {
			g.fail("unknown operator %s at %s", e.Op, e.Pos)
		}
		t := g.temp()
		g.emit(op, x, y, t)
		return t
	}
	g.fail("unsupported expression at %s", e.Position())
	return Operand{}
}
