// Package mips translates quadruples into SPIM-compatible MIPS assembly.
package mips

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/swantron/minic/internal/ir"
)

var (
	ErrOutOfRegisters = errors.New("out of temporary registers")
	ErrNoMain         = errors.New("no main function")
)

// MaxRegisters is the size of the $t0-$t7 pool
const MaxRegisters = 8

// Options configures translation
type Options struct {
	// Registers limits the temporary pool; zero means MaxRegisters
	Registers int
}

var binaryOps = map[ir.Op]string{
	ir.OpAdd:    "add",
	ir.OpSub:    "sub",
	ir.OpMul:    "mul",
	ir.OpDiv:    "div",
	ir.OpBitAnd: "and",
	ir.OpBitOr:  "or",
	ir.OpAnd:    "and",
	ir.OpOr:     "or",
	ir.OpEq:     "seq",
	ir.OpNe:     "sne",
	ir.OpLt:     "slt",
	ir.OpLe:     "sle",
	ir.OpGt:     "sgt",
	ir.OpGe:     "sge",
}

type translator struct {
	b       strings.Builder
	pool    int
	regs    map[int]int // temporary number -> register index
	used    []bool
	pending []ir.Operand
}

// Translate renders prog as a complete assembly file
func Translate(prog *ir.Program, opts Options) (string, error) {
	if _, ok := prog.Funcs()["main"]; !ok {
		return "", ErrNoMain
	}
	pool := opts.Registers
	if pool <= 0 || pool > MaxRegisters {
		pool = MaxRegisters
	}
	t := &translator{pool: pool}
	t.reset()

	t.raw("\t.data")
	t.raw("prompt:\t.asciiz \"input an integer: \"")
	t.raw("newline:\t.asciiz \"\\n\"")
	for _, g := range prog.Globals {
		words := make([]string, g.Slots)
		for i := range words {
			words[i] = "0"
		}
		t.raw(fmt.Sprintf("g_%s:\t.word %s", g.Name, strings.Join(words, ", ")))
	}
	t.raw("\t.text")
	t.raw("\t.globl main")
	t.raw("main:")

	for i, q := range prog.Quads {
		if err := t.quad(q); err != nil {
			return "", fmt.Errorf("quad %d (%s): %w", i, q, err)
		}
	}
	return t.b.String(), nil
}

func (t *translator) reset() {
	t.regs = make(map[int]int)
	t.used = make([]bool, t.pool)
	t.pending = nil
}

func (t *translator) raw(line string) {
	t.b.WriteString(line)
	t.b.WriteByte('\n')
}

func (t *translator) ins(format string, args ...any) {
	t.b.WriteByte('\t')
	fmt.Fprintf(&t.b, format, args...)
	t.b.WriteByte('\n')
}

func reg(i int) string {
	return fmt.Sprintf("$t%d", i)
}

// use returns the register holding a temporary and releases it
func (t *translator) use(o ir.Operand) (string, error) {
	if o.Kind != ir.Temp {
		return "", fmt.Errorf("operand %q is not a temporary", o)
	}
	i, ok := t.regs[o.Value]
	if !ok {
		return "", fmt.Errorf("temporary %s used before definition", o)
	}
	delete(t.regs, o.Value)
	t.used[i] = false
	return reg(i), nil
}

// def allocates the lowest free register for a temporary
func (t *translator) def(o ir.Operand) (string, error) {
	for i, busy := range t.used {
		if !busy {
			t.used[i] = true
			t.regs[o.Value] = i
			return reg(i), nil
		}
	}
	return "", fmt.Errorf("%w: %d in use", ErrOutOfRegisters, t.pool)
}

func address(o ir.Operand) (string, error) {
	switch o.Kind {
	case ir.Local:
		return fmt.Sprintf("-%d($fp)", o.Value), nil
	case ir.Global:
		if o.Value == 0 {
			return "g_" + o.Name, nil
		}
		return fmt.Sprintf("g_%s+%d", o.Name, o.Value), nil
	}
	return "", fmt.Errorf("operand %q is not a memory location", o)
}

func label(o ir.Operand) string {
	if o.Kind == ir.Func {
		return "f_" + o.Name
	}
	return o.Name
}

func (t *translator) quad(q ir.Quad) error {
	switch q.Op {
	case ir.OpFunc:
		t.reset()
		t.raw(label(q.Arg1) + ":")
		t.ins("addi $sp, $sp, -8")
		t.ins("sw $ra, 4($sp)")
		t.ins("sw $fp, 0($sp)")
		t.ins("move $fp, $sp")
		if frame := q.Arg2.Value; frame > 0 {
			t.ins("addi $sp, $sp, -%d", frame)
		}
		for i := 0; i < q.Result.Value; i++ {
			t.ins("lw $v1, %d($fp)", 8+4*i)
			t.ins("sw $v1, -%d($fp)", 4*(i+1))
		}
		return nil
	case ir.OpLabel:
		t.raw(q.Result.Name + ":")
		return nil
	case ir.OpGoto:
		t.ins("j %s", q.Result.Name)
		return nil
	case ir.OpIfFalse:
		r, err := t.use(q.Arg1)
		if err != nil {
			return err
		}
		t.ins("beqz %s, %s", r, q.Result.Name)
		return nil
	case ir.OpLoadImm:
		d, err := t.def(q.Result)
		if err != nil {
			return err
		}
		t.ins("li %s, %d", d, q.Arg1.Value)
		return nil
	case ir.OpLoadVar:
		a, err := address(q.Arg1)
		if err != nil {
			return err
		}
		d, err := t.def(q.Result)
		if err != nil {
			return err
		}
		t.ins("lw %s, %s", d, a)
		return nil
	case ir.OpStore:
		r, err := t.use(q.Arg1)
		if err != nil {
			return err
		}
		a, err := address(q.Result)
		if err != nil {
			return err
		}
		t.ins("sw %s, %s", r, a)
		return nil
	case ir.OpNeg, ir.OpNot:
		x, err := t.use(q.Arg1)
		if err != nil {
			return err
		}
		d, err := t.def(q.Result)
		if err != nil {
			return err
		}
		if q.Op == ir.OpNeg {
			t.ins("neg %s, %s", d, x)
		} else {
			t.ins("seq %s, %s, $zero", d, x)
		}
		return nil
	case ir.OpArg:
		t.pending = append(t.pending, q.Arg1)
		return nil
	case ir.OpCall:
		return t.call(q)
	case ir.OpRet:
		if q.Arg1.Kind == ir.Temp {
			r, err := t.use(q.Arg1)
			if err != nil {
				return err
			}
			t.ins("move $v0, %s", r)
		} else {
			t.ins("li $v0, 0")
		}
		t.ins("move $sp, $fp")
		t.ins("lw $fp, 0($sp)")
		t.ins("lw $ra, 4($sp)")
		t.ins("addi $sp, $sp, 8")
		t.ins("jr $ra")
		return nil
	case ir.OpPut:
		r, err := t.use(q.Arg1)
		if err != nil {
			return err
		}
		t.ins("move $a0, %s", r)
		t.ins("li $v0, 1")
		t.ins("syscall")
		t.ins("la $a0, newline")
		t.ins("li $v0, 4")
		t.ins("syscall")
		return nil
	case ir.OpGet:
		a, err := address(q.Result)
		if err != nil {
			return err
		}
		t.ins("la $a0, prompt")
		t.ins("li $v0, 4")
		t.ins("syscall")
		t.ins("li $v0, 5")
		t.ins("syscall")
		t.ins("sw $v0, %s", a)
		return nil
	case ir.OpExit:
		r, err := t.use(q.Arg1)
		if err != nil {
			return err
		}
		t.ins("move $a0, %s", r)
		t.ins("li $v0, 17")
		t.ins("syscall")
		return nil
	}

	name, ok := binaryOps[q.Op]
	if !ok {
		return fmt.Errorf("unsupported operator %s", q.Op)
	}
	x, err := t.use(q.Arg1)
	if err != nil {
		return err
	}
	y, err := t.use(q.Arg2)
	if err != nil {
		return err
	}
	d, err := t.def(q.Result)
	if err != nil {
		return err
	}
	t.ins("%s %s, %s, %s", name, d, x, y)
	return nil
}

// call saves live temporaries, pushes arguments, jumps and restores
func (t *translator) call(q ir.Quad) error {
	n := q.Arg2.Value
	if n > len(t.pending) {
		return fmt.Errorf("call %s needs %d arguments", q.Arg1.Name, n)
	}
	args := t.pending[len(t.pending)-n:]
	t.pending = t.pending[:len(t.pending)-n]

	argRegs := make([]string, n)
	for i, a := range args {
		r, err := t.use(a)
		if err != nil {
			return err
		}
		argRegs[i] = r
	}

	var live []int
	for _, i := range t.regs {
		live = append(live, i)
	}
	sort.Ints(live)
	if len(live) > 0 {
		t.ins("addi $sp, $sp, -%d", 4*len(live))
		for k, i := range live {
			t.ins("sw %s, %d($sp)", reg(i), 4*k)
		}
	}
	if n > 0 {
		t.ins("addi $sp, $sp, -%d", 4*n)
		for i, r := range argRegs {
			t.ins("sw %s, %d($sp)", r, 4*i)
		}
	}
	t.ins("jal %s", label(q.Arg1))
	if n > 0 {
		t.ins("addi $sp, $sp, %d", 4*n)
	}
	if len(live) > 0 {
		for k, i := range live {
			t.ins("lw %s, %d($sp)", reg(i), 4*k)
		}
		t.ins("addi $sp, $sp, %d", 4*len(live))
	}

	if q.Result.Kind != ir.Temp {
		return nil
	}
	d, err := t.def(q.Result)
	if err != nil {
		return err
	}
	t.ins("move %s, $v0", d)
	return nil
}
