// Package vm interprets quadruple programs directly.
package vm

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/swantron/minic/internal/ir"
)

var (
	ErrStepLimit     = errors.New("step limit exceeded")
	ErrDivideByZero  = errors.New("division by zero")
	ErrNoMain        = errors.New("no main function")
	ErrEndOfInput    = errors.New("end of input")
	ErrInvalidOpcode = errors.New("invalid instruction")
)

// DefaultMaxSteps bounds execution when Options.MaxSteps is zero
const DefaultMaxSteps = 10_000_000

// Options configures a run
type Options struct {
	Stdin    io.Reader
	Stdout   io.Writer
	MaxSteps int
}

type frame struct {
	fn     string
	locals []int
	temps  map[int]int
	ret    int        // quad index to resume at in the caller
	result ir.Operand // caller temp receiving the return value
}

func (f *frame) slot(offset int) (*int, error) {
	i := offset/4 - 1
	if offset%4 != 0 || i < 0 || i >= len(f.locals) {
		return nil, fmt.Errorf("%w: local [fp-%d] outside frame of %s", ErrInvalidOpcode, offset, f.fn)
	}
	return &f.locals[i], nil
}

type machine struct {
	prog    *ir.Program
	funcs   map[string]int
	labels  map[string]int
	globals map[string][]int
	in      *bufio.Reader
	out     io.Writer
	stack   []*frame
	args    []int
}

// Run executes prog from its first quad and returns the value main returned
func Run(ctx context.Context, prog *ir.Program, opts Options) (int, error) {
	m := &machine{
		prog:    prog,
		funcs:   prog.Funcs(),
		labels:  prog.Labels(),
		globals: make(map[string][]int),
		out:     opts.Stdout,
	}
	if _, ok := m.funcs["main"]; !ok {
		return 0, ErrNoMain
	}
	if opts.Stdin != nil {
		m.in = bufio.NewReader(opts.Stdin)
	}
	if m.out == nil {
		m.out = io.Discard
	}
	for _, g := range prog.Globals {
		m.globals[g.Name] = make([]int, g.Slots)
	}
	limit := opts.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}

	m.stack = []*frame{{fn: "<init>", temps: make(map[int]int)}}
	pc := 0
	for steps := 0; ; steps++ {
		if steps >= limit {
			return 0, fmt.Errorf("%w after %d steps", ErrStepLimit, steps)
		}
		if steps%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
		}
		if pc < 0 || pc >= len(prog.Quads) {
			return 0, fmt.Errorf("%w: control left the program at %d", ErrInvalidOpcode, pc)
		}
		q := prog.Quads[pc]
		if q.Op == ir.OpExit {
			return m.read(q.Arg1)
		}
		next, err := m.step(pc, q)
		if err != nil {
			return 0, fmt.Errorf("%s at quad %d (%s): %w", m.top().fn, pc, q.Op, err)
		}
		pc = next
	}
}

func (m *machine) top() *frame {
	return m.stack[len(m.stack)-1]
}

func (m *machine) read(o ir.Operand) (int, error) {
	switch o.Kind {
	case ir.Temp:
		v, ok := m.top().temps[o.Value]
		if !ok {
			return 0, fmt.Errorf("%w: temporary %s read before definition", ErrInvalidOpcode, o)
		}
		delete(m.top().temps, o.Value)
		return v, nil
	case ir.Imm:
		return o.Value, nil
	case ir.Local, ir.Global:
		p, err := m.mem(o)
		if err != nil {
			return 0, err
		}
		return *p, nil
	}
	return 0, fmt.Errorf("%w: cannot read operand %q", ErrInvalidOpcode, o)
}

func (m *machine) mem(o ir.Operand) (*int, error) {
	if o.Kind == ir.Local {
		return m.top().slot(o.Value)
	}
	g, ok := m.globals[o.Name]
	i := o.Value / 4
	if !ok || i < 0 || i >= len(g) {
		return nil, fmt.Errorf("%w: unknown global %s", ErrInvalidOpcode, o)
	}
	return &g[i], nil
}

func (m *machine) write(o ir.Operand, v int) error {
	switch o.Kind {
	case ir.Temp:
		m.top().temps[o.Value] = v
		return nil
	case ir.Local, ir.Global:
		p, err := m.mem(o)
		if err != nil {
			return err
		}
		*p = v
		return nil
	case ir.None:
		return nil
	}
	return fmt.Errorf("%w: cannot write operand %q", ErrInvalidOpcode, o)
}

func (m *machine) jump(label ir.Operand) (int, error) {
	i, ok := m.labels[label.Name]
	if !ok {
		return 0, fmt.Errorf("%w: unknown label %s", ErrInvalidOpcode, label.Name)
	}
	return i + 1, nil
}

// step executes q and returns the index of the next quad
func (m *machine) step(pc int, q ir.Quad) (int, error) {
	switch q.Op {
	case ir.OpLabel:
		return pc + 1, nil
	case ir.OpFunc:
		// falling into a function body only happens without a preceding ret
		return 0, fmt.Errorf("%w: fell through into %s", ErrInvalidOpcode, q.Arg1.Name)
	case ir.OpGoto:
		return m.jump(q.Result)
	case ir.OpIfFalse:
		c, err := m.read(q.Arg1)
		if err != nil {
			return 0, err
		}
		if c == 0 {
			return m.jump(q.Result)
		}
		return pc + 1, nil
	case ir.OpLoadImm, ir.OpLoadVar, ir.OpStore:
		v, err := m.read(q.Arg1)
		if err != nil {
			return 0, err
		}
		return pc + 1, m.write(q.Result, v)
	case ir.OpNeg, ir.OpNot:
		v, err := m.read(q.Arg1)
		if err != nil {
			return 0, err
		}
		if q.Op == ir.OpNeg {
			v = wrap(-v)
		} else {
			v = boolInt(v == 0)
		}
		return pc + 1, m.write(q.Result, v)
	case ir.OpArg:
		v, err := m.read(q.Arg1)
		if err != nil {
			return 0, err
		}
		m.args = append(m.args, v)
		return pc + 1, nil
	case ir.OpCall:
		return m.call(pc, q)
	case ir.OpRet:
		return m.ret(q)
	case ir.OpPut:
		v, err := m.read(q.Arg1)
		if err != nil {
			return 0, err
		}
		if _, err := fmt.Fprintln(m.out, v); err != nil {
			return 0, fmt.Errorf("write output: %w", err)
		}
		return pc + 1, nil
	case ir.OpGet:
		v, err := m.input()
		if err != nil {
			return 0, err
		}
		return pc + 1, m.write(q.Result, v)
	}
	if q.Op.Binary() {
		x, err := m.read(q.Arg1)
		if err != nil {
			return 0, err
		}
		y, err := m.read(q.Arg2)
		if err != nil {
			return 0, err
		}
		v, err := binary(q.Op, x, y)
		if err != nil {
			return 0, err
		}
		return pc + 1, m.write(q.Result, v)
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidOpcode, q.Op)
}

func (m *machine) call(pc int, q ir.Quad) (int, error) {
	entry, ok := m.funcs[q.Arg1.Name]
	if !ok {
		return 0, fmt.Errorf("%w: undefined function %s", ErrInvalidOpcode, q.Arg1.Name)
	}
	n := q.Arg2.Value
	if n > len(m.args) {
		return 0, fmt.Errorf("%w: call %s needs %d arguments", ErrInvalidOpcode, q.Arg1.Name, n)
	}
	args := m.args[len(m.args)-n:]
	m.args = m.args[:len(m.args)-n]

	decl := m.prog.Quads[entry]
	f := &frame{
		fn:     q.Arg1.Name,
		locals: make([]int, decl.Arg2.Value/4),
		temps:  make(map[int]int),
		ret:    pc + 1,
		result: q.Result,
	}
	if len(args) != decl.Result.Value || len(args) > len(f.locals) {
		return 0, fmt.Errorf("%w: %s takes %d arguments, got %d", ErrInvalidOpcode, f.fn, decl.Result.Value, len(args))
	}
	copy(f.locals, args)
	m.stack = append(m.stack, f)
	return entry + 1, nil
}

func (m *machine) ret(q ir.Quad) (int, error) {
	v := 0
	if q.Arg1.Kind != ir.None {
		var err error
		if v, err = m.read(q.Arg1); err != nil {
			return 0, err
		}
	}
	f := m.top()
	if len(m.stack) == 1 {
		return 0, fmt.Errorf("%w: return outside a function", ErrInvalidOpcode)
	}
	m.stack = m.stack[:len(m.stack)-1]
	return f.ret, m.write(f.result, v)
}

func (m *machine) input() (int, error) {
	if m.in == nil {
		return 0, ErrEndOfInput
	}
	var v int
	if _, err := fmt.Fscan(m.in, &v); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrEndOfInput
		}
		return 0, fmt.Errorf("read input: %w", err)
	}
	return wrap(v), nil
}

func binary(op ir.Op, x, y int) (int, error) {
	switch op {
	case ir.OpAdd:
		return wrap(x + y), nil
	case ir.OpSub:
		return wrap(x - y), nil
	case ir.OpMul:
		return wrap(x * y), nil
	case ir.OpDiv:
		if y == 0 {
			return 0, ErrDivideByZero
		}
		return wrap(x / y), nil
	case ir.OpBitAnd:
		return x & y, nil
	case ir.OpBitOr:
		return x | y, nil
	case ir.OpAnd:
		return boolInt(x != 0 && y != 0), nil
	case ir.OpOr:
		return boolInt(x != 0 || y != 0), nil
	case ir.OpEq:
		return boolInt(x == y), nil
	case ir.OpNe:
		return boolInt(x != y), nil
	case ir.OpLt:
		return boolInt(x < y), nil
	case ir.OpLe:
		return boolInt(x <= y), nil
	case ir.OpGt:
		return boolInt(x > y), nil
	case ir.OpGe:
		return boolInt(x >= y), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrInvalidOpcode, op)
}

// wrap truncates v to a 32-bit word as the MIPS target does
func wrap(v int) int {
	return int(int32(v))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
