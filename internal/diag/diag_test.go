package diag

import (
	"reflect"
	"testing"
)

func TestDiagnosticString(t *testing.T) {
	tests := []struct {
		name     string
		diag     Diagnostic
		expected string
	}{
		{"uninitialized", Uninitialized(Pos{5, 9}, "x"),
			"[ERROR] at position (5, 9), caused by: variable x is uninitialized but used here"},
		{"already defined", AlreadyDefinedVariable(Pos{3, 6}, "count", Pos{2, 5}),
			"[ERROR] at position (3, 6), caused by: variable count is already defined in position (2, 5)"},
		{"params", Params(Pos{7, 12}, "f", []string{"int", "bool"}, []string{"int"}),
			"[ERROR] at position (7, 12), caused by: function f received params (int, bool), expected params (int)"},
		{"no params", Params(Pos{1, 1}, "g", nil, []string{"int"}),
			"[ERROR] at position (1, 1), caused by: function g received params (), expected params (int)"},
		{"unsupported", Unsupported(Pos{2, 3}, "variable b", "bool", "+"),
			"[ERROR] at position (2, 3), caused by: variable b (bool) don't support operation +"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.diag.String(); got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestPosBefore(t *testing.T) {
	tests := []struct {
		name     string
		p, q     Pos
		expected bool
	}{
		{"earlier line", Pos{1, 9}, Pos{2, 1}, true},
		{"later line", Pos{3, 1}, Pos{2, 9}, false},
		{"same line earlier column", Pos{4, 2}, Pos{4, 5}, true},
		{"same position", Pos{4, 5}, Pos{4, 5}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Before(tt.q); got != tt.expected {
				t.Errorf("%s.Before(%s) = %v, want %v", tt.p, tt.q, got, tt.expected)
			}
		})
	}
}

func TestListItemsSortedStable(t *testing.T) {
	var l List
	l.Add(Uninitialized(Pos{12, 9}, "y"))
	l.Extend([]Diagnostic{
		New(Pos{2, 1}, Syntax, "first on line 2"),
		Uninitialized(Pos{5, 9}, "x"),
		New(Pos{2, 1}, Lexical, "second on line 2"),
	})

	if l.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", l.Len())
	}
	items := l.Items()
	var got []string
	for _, d := range items {
		got = append(got, d.Message)
	}
	expected := []string{
		"first on line 2",
		"second on line 2",
		"variable x is uninitialized but used here",
		"variable y is uninitialized but used here",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Items() order = %v, want %v", got, expected)
	}

	// Items returns a copy
	items[0].Message = "changed"
	if l.Items()[0].Message != "first on line 2" {
		t.Error("Items() should not expose the internal slice")
	}
}

func TestCountByKind(t *testing.T) {
	var l List
	l.Extend([]Diagnostic{
		Uninitialized(Pos{5, 9}, "x"),
		Uninitialized(Pos{6, 12}, "x"),
		UndefinedVariable(Pos{8, 3}, "z"),
	})

	expected := map[Kind]int{UninitializedVar: 2, Undefined: 1}
	if got := l.CountByKind(); !reflect.DeepEqual(got, expected) {
		t.Errorf("CountByKind() = %v, want %v", got, expected)
	}
	if got := (&List{}).CountByKind(); len(got) != 0 {
		t.Errorf("empty list counts = %v, want none", got)
	}
}

func TestLines(t *testing.T) {
	ds := []Diagnostic{
		Uninitialized(Pos{13, 17}, "y"),
		Uninitialized(Pos{5, 9}, "x"),
		Uninitialized(Pos{12, 9}, "y"),
		Mismatched(Pos{12, 15}, "int", "bool", "=="),
	}
	expected := []int{5, 12, 13}
	if got := Lines(ds); !reflect.DeepEqual(got, expected) {
		t.Errorf("Lines() = %v, want %v", got, expected)
	}
	if got := Lines(nil); len(got) != 0 {
		t.Errorf("Lines(nil) = %v, want empty", got)
	}
}
