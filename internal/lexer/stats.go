package lexer

import (
	"fmt"
	"sort"
)

// Stats summarises a scanned source file
type Stats struct {
	Lines  int
	Chars  int
	Counts map[string]int
}

// Statistics counts lines, characters and token occurrences. Identifiers are
// counted by name, numbers by value, everything else by text.
func Statistics(src []byte, tokens []Token) Stats {
	st := Stats{Chars: len(src), Counts: make(map[string]int)}
	if len(src) > 0 {
		st.Lines = 1
	}
	for _, c := range src {
		if c == '\n' {
			st.Lines++
		}
	}
	for _, tok := range tokens {
		switch tok.Kind {
		case EOF:
			continue
		case Number:
			st.Counts[fmt.Sprintf("digit.%d", tok.Value)]++
		default:
			st.Counts[tok.Text]++
		}
	}
	return st
}

// Keys returns the counted lexemes sorted by descending count, then by name
func (s Stats) Keys() []string {
	keys := make([]string, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.Counts[keys[i]] != s.Counts[keys[j]] {
			return s.Counts[keys[i]] > s.Counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
