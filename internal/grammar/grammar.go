package grammar

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Epsilon is the name of the empty string in grammar files
const Epsilon = "#"

// EndMarker is the end-of-input terminal
const EndMarker = "$"

// Symbol is a grammar symbol on the right-hand side of a production
type Symbol struct {
	Name     string
	Terminal bool
}

func (s Symbol) String() string {
	if s.Terminal {
		return "[" + s.Name + "]"
	}
	return "<" + s.Name + ">"
}

// Production is a single rule LHS -> RHS. An empty RHS derives epsilon.
type Production struct {
	ID  int
	LHS string
	RHS []Symbol
}

func (p Production) String() string {
	var sb strings.Builder
	sb.WriteString("<" + p.LHS + ">->")
	if len(p.RHS) == 0 {
		sb.WriteString("[" + Epsilon + "]")
	}
	for _, s := range p.RHS {
		sb.WriteString(s.String())
	}
	return sb.String()
}

// Conflict is a predict table cell claimed by more than one production
type Conflict struct {
	NonTerminal string
	Terminal    string
	Productions []int
}

func (c Conflict) String() string {
	return fmt.Sprintf("<%s> on [%s]: productions %v", c.NonTerminal, c.Terminal, c.Productions)
}

// ConflictError reports that a grammar is not LL(1)
type ConflictError struct {
	Conflicts []Conflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = c.String()
	}
	return "grammar is not LL(1): " + strings.Join(parts, "; ")
}

// synch marks a predict table cell used only for error recovery
const synch = -1

// Grammar is a context-free grammar with its LL(1) analysis
type Grammar struct {
	Start        string
	Productions  []Production
	NonTerminals []string // in order of first definition
	Terminals    []string // in order of first use, EndMarker last

	nonTerminal map[string]bool
	nullable    map[string]bool
	first       map[string]map[string]bool
	follow      map[string]map[string]bool
	predict     []map[string]bool
	table       map[string]map[string]int
}

var symbolPattern = regexp.MustCompile(`\[(.*?)\]|<(.*?)>`)

// Load reads a grammar in the <A>-><B>[t] line format and computes its
// NULLABLE, FIRST, FOLLOW and predict sets. It fails if the grammar is
// malformed or not LL(1).
func Load(r io.Reader) (*Grammar, error) {
	g := &Grammar{nonTerminal: make(map[string]bool)}
	seenTerminal := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}

		lhs, rhs, ok := strings.Cut(line, "->")
		if !ok {
			return nil, fmt.Errorf("line %d: missing '->'", lineNum)
		}
		lhs = strings.TrimSpace(lhs)
		if len(lhs) < 3 || lhs[0] != '<' || lhs[len(lhs)-1] != '>' {
			return nil, fmt.Errorf("line %d: left-hand side %q is not a <nonterminal>", lineNum, lhs)
		}
		name := lhs[1 : len(lhs)-1]
		if !g.nonTerminal[name] {
			g.nonTerminal[name] = true
			g.NonTerminals = append(g.NonTerminals, name)
		}
		if g.Start == "" {
			g.Start = name
		}

		matches := symbolPattern.FindAllStringSubmatch(rhs, -1)
		if len(matches) == 0 {
			return nil, fmt.Errorf("line %d: empty right-hand side", lineNum)
		}
		prod := Production{ID: len(g.Productions), LHS: name}
		for _, m := range matches {
			if m[0][0] == '[' {
				if m[1] == Epsilon {
					continue
				}
				prod.RHS = append(prod.RHS, Symbol{Name: m[1], Terminal: true})
				if !seenTerminal[m[1]] {
					seenTerminal[m[1]] = true
					g.Terminals = append(g.Terminals, m[1])
				}
				continue
			}
			prod.RHS = append(prod.RHS, Symbol{Name: m[2]})
		}
		g.Productions = append(g.Productions, prod)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading grammar: %w", err)
	}
	if len(g.Productions) == 0 {
		return nil, fmt.Errorf("grammar has no productions")
	}
	g.Terminals = append(g.Terminals, EndMarker)

	for _, p := range g.Productions {
		for _, s := range p.RHS {
			if !s.Terminal && !g.nonTerminal[s.Name] {
				return nil, fmt.Errorf("production %d (%s): nonterminal <%s> has no productions", p.ID, p, s.Name)
			}
		}
	}

	g.computeNullable()
	g.computeFirst()
	g.computeFollow()
	g.computePredict()
	if conflicts := g.buildTable(); len(conflicts) > 0 {
		return nil, &ConflictError{Conflicts: conflicts}
	}
	return g, nil
}

//go:embed minic.cfg
var minicCFG string

var loadDefault = sync.OnceValues(func() (*Grammar, error) {
	return Load(strings.NewReader(minicCFG))
})

// Default returns the built-in minic grammar
func Default() (*Grammar, error) {
	return loadDefault()
}

func (g *Grammar) computeNullable() {
	g.nullable = make(map[string]bool)
	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions {
			if g.nullable[p.LHS] {
				continue
			}
			if g.seqNullable(p.RHS) {
				g.nullable[p.LHS] = true
				changed = true
			}
		}
	}
}

func (g *Grammar) seqNullable(seq []Symbol) bool {
	for _, s := range seq {
		if s.Terminal || !g.nullable[s.Name] {
			return false
		}
	}
	return true
}

func (g *Grammar) computeFirst() {
	g.first = make(map[string]map[string]bool)
	for _, nt := range g.NonTerminals {
		g.first[nt] = make(map[string]bool)
	}
	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions {
			for t := range g.firstOfSeq(p.RHS) {
				if !g.first[p.LHS][t] {
					g.first[p.LHS][t] = true
					changed = true
				}
			}
		}
	}
}

// firstOfSeq returns FIRST of a symbol sequence, without epsilon
func (g *Grammar) firstOfSeq(seq []Symbol) map[string]bool {
	out := make(map[string]bool)
	for _, s := range seq {
		if s.Terminal {
			out[s.Name] = true
			return out
		}
		for t := range g.first[s.Name] {
			out[t] = true
		}
		if !g.nullable[s.Name] {
			return out
		}
	}
	return out
}

func (g *Grammar) computeFollow() {
	g.follow = make(map[string]map[string]bool)
	for _, nt := range g.NonTerminals {
		g.follow[nt] = make(map[string]bool)
	}
	g.follow[g.Start][EndMarker] = true

	for changed := true; changed; {
		changed = false
		for _, p := range g.Productions {
			for i, s := range p.RHS {
				if s.Terminal {
					continue
				}
				rest := p.RHS[i+1:]
				add := g.firstOfSeq(rest)
				if g.seqNullable(rest) {
					for t := range g.follow[p.LHS] {
						add[t] = true
					}
				}
				for t := range add {
					if !g.follow[s.Name][t] {
						g.follow[s.Name][t] = true
						changed = true
					}
				}
			}
		}
	}
}

func (g *Grammar) computePredict() {
	g.predict = make([]map[string]bool, len(g.Productions))
	for i, p := range g.Productions {
		set := g.firstOfSeq(p.RHS)
		if g.seqNullable(p.RHS) {
			for t := range g.follow[p.LHS] {
				set[t] = true
			}
		}
		g.predict[i] = set
	}
}

func (g *Grammar) buildTable() []Conflict {
	g.table = make(map[string]map[string]int)
	for _, nt := range g.NonTerminals {
		g.table[nt] = make(map[string]int)
	}

	clash := make(map[[2]string][]int)
	for i, p := range g.Productions {
		for t := range g.predict[i] {
			if prev, ok := g.table[p.LHS][t]; ok {
				key := [2]string{p.LHS, t}
				if len(clash[key]) == 0 {
					clash[key] = []int{prev}
				}
				clash[key] = append(clash[key], i)
				continue
			}
			g.table[p.LHS][t] = i
		}
	}
	for _, nt := range g.NonTerminals {
		for t := range g.follow[nt] {
			if _, ok := g.table[nt][t]; !ok {
				g.table[nt][t] = synch
			}
		}
	}

	conflicts := make([]Conflict, 0, len(clash))
	for key, prods := range clash {
		conflicts = append(conflicts, Conflict{NonTerminal: key[0], Terminal: key[1], Productions: prods})
	}
	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].NonTerminal != conflicts[j].NonTerminal {
			return conflicts[i].NonTerminal < conflicts[j].NonTerminal
		}
		return conflicts[i].Terminal < conflicts[j].Terminal
	})
	return conflicts
}

// IsNonTerminal reports whether name is defined by some production
func (g *Grammar) IsNonTerminal(name string) bool {
	return g.nonTerminal[name]
}

// Nullable reports whether the nonterminal derives epsilon
func (g *Grammar) Nullable(nt string) bool {
	return g.nullable[nt]
}

// First returns FIRST(nt), sorted
func (g *Grammar) First(nt string) []string {
	return sortedKeys(g.first[nt])
}

// Follow returns FOLLOW(nt), sorted
func (g *Grammar) Follow(nt string) []string {
	return sortedKeys(g.follow[nt])
}

// Predict returns the predict set of production id, sorted
func (g *Grammar) Predict(id int) []string {
	return sortedKeys(g.predict[id])
}

// Lookup returns the production to expand nt with on lookahead t. isSynch is
// true for recovery-only cells; ok is false for empty cells.
func (g *Grammar) Lookup(nt, t string) (prod *Production, isSynch, ok bool) {
	id, ok := g.table[nt][t]
	if !ok {
		return nil, false, false
	}
	if id == synch {
		return nil, true, true
	}
	return &g.Productions[id], false, true
}

// Expected lists the terminals that can start nt, excluding synch cells
func (g *Grammar) Expected(nt string) []string {
	out := make([]string, 0)
	for _, t := range g.Terminals {
		if id, ok := g.table[nt][t]; ok && id != synch {
			out = append(out, t)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
