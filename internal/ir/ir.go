package ir

import (
	"fmt"
	"io"
)

// Op is a quadruple operator
type Op string

const (
	OpFunc    Op = "func"
	OpLabel   Op = "label"
	OpGoto    Op = "goto"
	OpIfFalse Op = "iffalse"
	OpLoadImm Op = "li"
	OpLoadVar Op = "lv"
	OpStore   Op = "="
	OpAdd     Op = "+"
	OpSub     Op = "-"
	OpMul     Op = "*"
	OpDiv     Op = "/"
	OpBitAnd  Op = "&"
	OpBitOr   Op = "|"
	OpAnd     Op = "&&"
	OpOr      Op = "||"
	OpEq      Op = "=="
	OpNe      Op = "<>"
	OpLt      Op = "<"
	OpLe      Op = "<="
	OpGt      Op = ">"
	OpGe      Op = ">="
	OpNeg     Op = "neg"
	OpNot     Op = "not"
	OpArg     Op = "arg"
	OpCall    Op = "call"
	OpRet     Op = "ret"
	OpPut     Op = "put"
	OpGet     Op = "get"
	OpExit    Op = "exit"
)

// Binary reports whether op combines two temporaries into a third
func (op Op) Binary() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpBitAnd, OpBitOr, OpAnd, OpOr,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Kind classifies an operand
type Kind int

const (
	None Kind = iota
	Temp
	Imm
	Local
	Global
	Label
	Func
)

// Operand is one field of a quadruple. Value holds the temporary number,
// the immediate, the frame offset of a local, or the byte offset into a
// global; Name holds global, label and function names.
type Operand struct {
	Kind  Kind
	Value int
	Name  string
}

func TempOp(n int) Operand {
	return Operand{Kind: Temp, Value: n}
}

func ImmOp(v int) Operand {
	return Operand{Kind: Imm, Value: v}
}

func LocalOp(offset int) Operand {
	return Operand{Kind: Local, Value: offset}
}

func GlobalOp(name string, offset int) Operand {
	return Operand{Kind: Global, Name: name, Value: offset}
}

func LabelOp(name string) Operand {
	return Operand{Kind: Label, Name: name}
}

func FuncOp(name string) Operand {
	return Operand{Kind: Func, Name: name}
}

// Memory reports whether the operand names a storage slot
func (o Operand) Memory() bool {
	return o.Kind == Local || o.Kind == Global
}

func (o Operand) String() string {
	switch o.Kind {
	case Temp:
		return fmt.Sprintf("t%d", o.Value)
	case Imm:
		return fmt.Sprintf("%d", o.Value)
	case Local:
		return fmt.Sprintf("[fp-%d]", o.Value)
	case Global:
		if o.Value == 0 {
			return fmt.Sprintf("[g:%s]", o.Name)
		}
		return fmt.Sprintf("[g:%s+%d]", o.Name, o.Value)
	case Label, Func:
		return o.Name
	}
	return ""
}

// Quad is a single three-address instruction
type Quad struct {
	Op     Op
	Arg1   Operand
	Arg2   Operand
	Result Operand
}

func (q Quad) String() string {
	return fmt.Sprintf("%-7s, %-6s, %-6s, %-6s", q.Op, q.Arg1, q.Arg2, q.Result)
}

// GlobalVar is a global storage area of Slots words
type GlobalVar struct {
	Name  string
	Slots int
}

// Program is a complete translation: global initializers, the call to
// main and exit, then every function body.
type Program struct {
	Globals []GlobalVar
	Quads   []Quad
}

// Funcs returns the index of each function's func quad by name
func (p *Program) Funcs() map[string]int {
	out := make(map[string]int)
	for i, q := range p.Quads {
		if q.Op == OpFunc {
			out[q.Arg1.Name] = i
		}
	}
	return out
}

// Labels returns the index of each label quad by name
func (p *Program) Labels() map[string]int {
	out := make(map[string]int)
	for i, q := range p.Quads {
		if q.Op == OpLabel {
			out[q.Result.Name] = i
		}
	}
	return out
}

// Write prints the listing, one numbered quadruple per line
func (p *Program) Write(w io.Writer) error {
	for i, q := range p.Quads {
		if _, err := fmt.Fprintf(w, "%4d: %s\n", i, q); err != nil {
			return err
		}
	}
	return nil
}
