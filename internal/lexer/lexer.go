package lexer

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/swantron/minic/internal/diag"
)

// Kind is the lexical class of a token
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	Keyword
	Operator
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "id"
	case Number:
		return "digit"
	case Keyword:
		return "keyword"
	case Operator:
		return "operator"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Token is a single lexeme with its position
type Token struct {
	Kind  Kind
	Text  string
	Value int // numeric value, Number tokens only
	Pos   diag.Pos
}

// Terminal returns the grammar terminal this token matches
func (t Token) Terminal() string {
	switch t.Kind {
	case EOF:
		return "$"
	case Ident:
		return "id"
	case Number:
		return "digit"
	}
	return t.Text
}

func (t Token) String() string {
	switch t.Kind {
	case Ident:
		return fmt.Sprintf("(id, %s, %s)", t.Text, t.Pos)
	case Number:
		return fmt.Sprintf("(digit, %d, %s)", t.Value, t.Pos)
	case EOF:
		return fmt.Sprintf("($, , %s)", t.Pos)
	}
	return fmt.Sprintf("(%s, , %s)", t.Text, t.Pos)
}

var keywords = map[string]bool{
	"int": true, "bool": true, "void": true, "return": true, "struct": true,
	"while": true, "if": true, "else": true, "put": true, "get": true,
	"true": true, "false": true,
}

// IsKeyword reports whether s is a reserved word
func IsKeyword(s string) bool {
	return keywords[s]
}

var twoCharOps = map[string]bool{
	"==": true, "<=": true, "<>": true, ">=": true, "!=": true, "&&": true, "||": true,
}

const singleCharOps = "+-*/(){};,.=<>!&|"

// MaxDecimal is the largest decimal literal the language accepts
const MaxDecimal = 9999

type scanner struct {
	src    []byte
	i      int
	line   int
	col    int
	tokens []Token
	diags  []diag.Diagnostic
}

// Scan splits src into tokens. The returned slice always ends with an EOF
// token. Malformed lexemes are reported and skipped.
func Scan(src []byte) ([]Token, []diag.Diagnostic) {
	s := &scanner{src: src, line: 1, col: 1}
	s.run()
	return s.tokens, s.diags
}

func (s *scanner) run() {
	for {
		s.skipSpaceAndComments()
		if s.i >= len(s.src) {
			break
		}
		start := s.pos()
		c := s.src[s.i]
		switch {
		case isLetter(c):
			s.scanIdent(start)
		case isDigit(c):
			s.scanNumber(start)
		default:
			s.scanOperator(start)
		}
	}
	s.tokens = append(s.tokens, Token{Kind: EOF, Pos: s.pos()})
}

func (s *scanner) pos() diag.Pos {
	return diag.Pos{Line: s.line, Col: s.col}
}

func (s *scanner) peek(off int) byte {
	if s.i+off < len(s.src) {
		return s.src[s.i+off]
	}
	return 0
}

func (s *scanner) advance() {
	if s.i >= len(s.src) {
		return
	}
	if s.src[s.i] == '\n' {
		s.line++
		s.col = 1
		s.i++
		return
	}
	_, size := utf8.DecodeRune(s.src[s.i:])
	s.i += size
	s.col++
}

func (s *scanner) errorf(pos diag.Pos, format string, args ...any) {
	s.diags = append(s.diags, diag.New(pos, diag.Lexical, format, args...))
}

func (s *scanner) skipSpaceAndComments() {
	for s.i < len(s.src) {
		c := s.src[s.i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			s.advance()
		case c == '/' && s.peek(1) == '/':
			for s.i < len(s.src) && s.src[s.i] != '\n' {
				s.advance()
			}
		case c == '/' && s.peek(1) == '*':
			start := s.pos()
			s.advance()
			s.advance()
			for s.i < len(s.src) && !(s.src[s.i] == '*' && s.peek(1) == '/') {
				s.advance()
			}
			if s.i >= len(s.src) {
				s.errorf(start, "unterminated comment")
				return
			}
			s.advance()
			s.advance()
		default:
			return
		}
	}
}

func (s *scanner) scanIdent(start diag.Pos) {
	from := s.i
	for s.i < len(s.src) && isAlnum(s.src[s.i]) {
		s.advance()
	}
	text := string(s.src[from:s.i])
	kind := Ident
	if keywords[text] {
		kind = Keyword
	}
	s.tokens = append(s.tokens, Token{Kind: kind, Text: text, Pos: start})
}

func (s *scanner) scanNumber(start diag.Pos) {
	from := s.i
	var (
		value int
		msg   string
	)
	switch {
	case s.src[s.i] == '0' && (s.peek(1) == 'x' || s.peek(1) == 'X'):
		s.advance()
		s.advance()
		digits := s.i
		for s.i < len(s.src) && isHex(s.src[s.i]) {
			s.advance()
		}
		if s.i == digits {
			msg = "invalid 16 Hex base expression"
			break
		}
		v, err := strconv.ParseInt(string(s.src[digits:s.i]), 16, 32)
		if err != nil {
			msg = "invalid 16 Hex base expression"
			break
		}
		value = int(v)
	case s.src[s.i] == '0' && isDigit(s.peek(1)):
		s.advance()
		digits := s.i
		for s.i < len(s.src) && isDigit(s.src[s.i]) {
			s.advance()
		}
		v, err := strconv.ParseInt(string(s.src[digits:s.i]), 8, 32)
		if err != nil {
			msg = "invalid 8 Oct base expression"
			break
		}
		value = int(v)
	default:
		for s.i < len(s.src) && isDigit(s.src[s.i]) {
			s.advance()
		}
		v, _ := strconv.Atoi(string(s.src[from:s.i]))
		if v > MaxDecimal || s.i-from > 4 {
			msg = "invalid int number (should be in range 0-9999)"
			break
		}
		value = v
	}

	if msg == "" && s.i < len(s.src) && isLetter(s.src[s.i]) {
		msg = "invalid number or variable name"
	}
	if msg != "" {
		for s.i < len(s.src) && isAlnum(s.src[s.i]) {
			s.advance()
		}
		s.errorf(start, "%s %q", msg, string(s.src[from:s.i]))
		return
	}
	s.tokens = append(s.tokens, Token{Kind: Number, Text: string(s.src[from:s.i]), Value: value, Pos: start})
}

func (s *scanner) scanOperator(start diag.Pos) {
	if s.i+1 < len(s.src) && twoCharOps[string(s.src[s.i:s.i+2])] {
		text := string(s.src[s.i : s.i+2])
		s.advance()
		s.advance()
		s.tokens = append(s.tokens, Token{Kind: Operator, Text: text, Pos: start})
		return
	}
	c := s.src[s.i]
	for j := 0; j < len(singleCharOps); j++ {
		if singleCharOps[j] == c {
			s.advance()
			s.tokens = append(s.tokens, Token{Kind: Operator, Text: string(c), Pos: start})
			return
		}
	}

	r, _ := utf8.DecodeRune(s.src[s.i:])
	s.errorf(start, "invalid symbol %q", r)
	s.advance()
	// skip the rest of the bad lexeme
	for s.i < len(s.src) && !isBoundary(s.src[s.i]) {
		s.advance()
	}
}

func isLetter(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isLetter(c) || isDigit(c)
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isBoundary(c byte) bool {
	if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
		return true
	}
	for j := 0; j < len(singleCharOps); j++ {
		if singleCharOps[j] == c {
			return true
		}
	}
	return false
}
