package grammar

import (
	"fmt"
	"strings"

	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/lexer"
)

// Node is a parse tree node. Terminal leaves carry the matched token;
// a nonterminal expanded by an epsilon production has no children.
type Node struct {
	Symbol   string
	Terminal bool
	Token    *lexer.Token
	Children []*Node
}

// Child returns the i-th child or nil
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// IsEmpty reports whether a nonterminal derived epsilon
func (n *Node) IsEmpty() bool {
	return n != nil && !n.Terminal && len(n.Children) == 0
}

// Tree is the result of a parse
type Tree struct {
	Root *Node
}

// Parse runs the table-driven predictive parser over tokens, which must end
// with an EOF token. Syntax errors are recovered in panic mode and returned
// as diagnostics; the tree is complete only when none are returned.
func (g *Grammar) Parse(tokens []lexer.Token) (*Tree, []diag.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != lexer.EOF {
		tokens = append(tokens, lexer.Token{Kind: lexer.EOF})
	}

	p := &parser{g: g, tokens: tokens}
	root := &Node{Symbol: g.Start}
	p.stack = []*Node{{Symbol: EndMarker, Terminal: true}, root}
	p.run()
	return &Tree{Root: root}, p.diags
}

type parser struct {
	g      *Grammar
	tokens []lexer.Token
	i      int
	stack  []*Node
	diags  []diag.Diagnostic

	lastErr    diag.Pos
	reportedAt bool
}

func (p *parser) run() {
	for len(p.stack) > 0 {
		top := p.stack[len(p.stack)-1]
		tok := p.tokens[p.i]
		look := tok.Terminal()

		if top.Terminal {
			p.pop()
			if top.Symbol == look {
				matched := tok
				top.Token = &matched
				if tok.Kind != lexer.EOF {
					p.i++
				}
				continue
			}
			p.errorf(tok, "expected %s but received %s", top.Symbol, describe(tok))
			continue
		}

		prod, isSynch, ok := p.g.Lookup(top.Symbol, look)
		switch {
		case !ok:
			p.errorf(tok, "when parsing %s, expected [%s], but received [%s]",
				top.Symbol, strings.Join(p.g.Expected(top.Symbol), ", "), describe(tok))
			if tok.Kind == lexer.EOF {
				p.pop()
			} else {
				p.i++
			}
		case isSynch:
			p.errorf(tok, "when parsing %s, expected [%s], but received [%s]",
				top.Symbol, strings.Join(p.g.Expected(top.Symbol), ", "), describe(tok))
			p.pop()
		default:
			p.pop()
			top.Children = make([]*Node, len(prod.RHS))
			for j, s := range prod.RHS {
				top.Children[j] = &Node{Symbol: s.Name, Terminal: s.Terminal}
			}
			for j := len(top.Children) - 1; j >= 0; j-- {
				p.stack = append(p.stack, top.Children[j])
			}
		}
	}
}

func (p *parser) pop() {
	p.stack = p.stack[:len(p.stack)-1]
}

// errorf records a syntax error, keeping only the first one per token so
// that recovery at a single bad token does not cascade
func (p *parser) errorf(tok lexer.Token, format string, args ...any) {
	if p.reportedAt && p.lastErr == tok.Pos {
		return
	}
	p.reportedAt = true
	p.lastErr = tok.Pos
	p.diags = append(p.diags, diag.New(tok.Pos, diag.Syntax, format, args...))
}

func describe(tok lexer.Token) string {
	switch tok.Kind {
	case lexer.EOF:
		return "end of input"
	case lexer.Ident, lexer.Number:
		return fmt.Sprintf("%s %s", tok.Terminal(), tok.Text)
	}
	return tok.Text
}
