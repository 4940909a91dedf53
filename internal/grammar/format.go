package grammar

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Style decorates terminal names and their lexemes when printing a tree
type Style struct {
	Terminal func(string) string
	Lexeme   func(string) string
}

// PlainStyle prints without decoration
func PlainStyle() Style {
	id := func(s string) string { return s }
	return Style{Terminal: id, Lexeme: id}
}

// ColorStyle prints terminals in bold red and lexemes underlined in blue
func ColorStyle() Style {
	term := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	lex := lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Underline(true)
	return Style{
		Terminal: func(s string) string { return term.Render(s) },
		Lexeme:   func(s string) string { return lex.Render(s) },
	}
}

// Write prints the tree with one node per line:
//
//	root:[program]
//	|--decls
//	|      |--decl
//	|      |      |-- int
func (t *Tree) Write(w io.Writer, style Style) error {
	if t == nil || t.Root == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "root:[%s]\n", t.Root.Symbol); err != nil {
		return err
	}
	return writeChildren(w, t.Root, 0, style)
}

func writeChildren(w io.Writer, n *Node, depth int, style Style) error {
	indent := strings.Repeat("|      ", depth)
	for _, c := range n.Children {
		var label string
		if c.Terminal {
			label = " " + style.Terminal(c.Symbol)
			if c.Token != nil && (c.Symbol == "id" || c.Symbol == "digit") {
				label += " @ " + style.Lexeme(c.Token.Text)
			}
		} else {
			label = c.Symbol
		}
		if _, err := fmt.Fprintf(w, "%s|--%s\n", indent, label); err != nil {
			return err
		}
		if !c.Terminal {
			if err := writeChildren(w, c, depth+1, style); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteSets prints NULLABLE, FIRST and FOLLOW for every nonterminal
func (g *Grammar) WriteSets(w io.Writer) error {
	var nullable []string
	for _, nt := range g.NonTerminals {
		if g.nullable[nt] {
			nullable = append(nullable, nt)
		}
	}
	fmt.Fprintf(w, "NULLABLE: {%s}\n\n", strings.Join(nullable, ", "))

	width := 0
	for _, nt := range g.NonTerminals {
		width = max(width, len(nt))
	}
	fmt.Fprintln(w, "FIRST:")
	for _, nt := range g.NonTerminals {
		fmt.Fprintf(w, "  %-*s {%s}\n", width, nt, strings.Join(g.First(nt), " "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "FOLLOW:")
	for _, nt := range g.NonTerminals {
		if _, err := fmt.Fprintf(w, "  %-*s {%s}\n", width, nt, strings.Join(g.Follow(nt), " ")); err != nil {
			return err
		}
	}
	return nil
}

// WriteProductions prints the numbered productions with their predict sets
func (g *Grammar) WriteProductions(w io.Writer) error {
	for _, p := range g.Productions {
		if _, err := fmt.Fprintf(w, "%3d  %-45s {%s}\n", p.ID, p.String(), strings.Join(g.Predict(p.ID), " ")); err != nil {
			return err
		}
	}
	return nil
}

func (g *Grammar) cell(nt, t string) string {
	id, ok := g.table[nt][t]
	switch {
	case !ok:
		return ""
	case id == synch:
		return "synch"
	}
	return strconv.Itoa(id)
}

// WriteTable prints the predict table as aligned text
func (g *Grammar) WriteTable(w io.Writer) error {
	width := len("non_terminal")
	for _, nt := range g.NonTerminals {
		width = max(width, len(nt))
	}
	fmt.Fprintf(w, "%-*s", width+2, "non_terminal")
	for _, t := range g.Terminals {
		fmt.Fprintf(w, "%-7s", t)
	}
	fmt.Fprintln(w)
	for _, nt := range g.NonTerminals {
		fmt.Fprintf(w, "%-*s", width+2, nt)
		for _, t := range g.Terminals {
			fmt.Fprintf(w, "%-7s", g.cell(nt, t))
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// WriteTableCSV prints the predict table as CSV with a header row
func (g *Grammar) WriteTableCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"non_terminal"}, g.Terminals...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, nt := range g.NonTerminals {
		row := make([]string, 0, len(g.Terminals)+1)
		row = append(row, nt)
		for _, t := range g.Terminals {
			row = append(row, g.cell(nt, t))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
