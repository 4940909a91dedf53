package fixture

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/swantron/minic/internal/diag"
)

// Marker introduces an expected-diagnostic annotation in a trailing comment
const Marker = "// ERROR"

// Expectation is one annotated source line
type Expectation struct {
	Line int
	// Text is the free description following the marker
	Text string
	// Pattern is set when Text is a quoted string; a diagnostic on the
	// line must then match it
	Pattern *regexp.Regexp
}

// Matches reports whether d satisfies the expectation
func (e Expectation) Matches(d diag.Diagnostic) bool {
	if d.Pos.Line != e.Line {
		return false
	}
	return e.Pattern == nil || e.Pattern.MatchString(d.Message)
}

// File is a fixture source with its annotations
type File struct {
	Path         string
	Source       []byte
	Expectations []Expectation
}

// Lines returns the annotated line numbers in order
func (f *File) Lines() []int {
	lines := make([]int, len(f.Expectations))
	for i, e := range f.Expectations {
		lines[i] = e.Line
	}
	return lines
}

// Load reads and parses a fixture file
func Load(path string) (*File, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}
	exps, err := Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &File{Path: path, Source: src, Expectations: exps}, nil
}

// Parse scans source lines for trailing annotations
func Parse(r io.Reader) ([]Expectation, error) {
	var exps []Expectation
	scanner := bufio.NewScanner(r)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		idx := strings.Index(line, Marker)
		if idx < 0 {
			continue
		}
		rest := line[idx+len(Marker):]
		// "// ERRORS" and similar words are not annotations
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}

		exp := Expectation{Line: lineNum, Text: strings.TrimSpace(rest)}
		if strings.HasPrefix(exp.Text, `"`) {
			pattern, err := strconv.Unquote(exp.Text)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid quoted pattern %s: %w", lineNum, exp.Text, err)
			}
			re, err := regexp.Compile(pattern)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid pattern: %w", lineNum, err)
			}
			exp.Pattern = re
		}
		exps = append(exps, exp)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading fixture: %w", err)
	}
	return exps, nil
}
