package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swantron/minic/internal/diag"
)

func TestParse(t *testing.T) {
	src := `int x, y;
int test(){
    y = x; // ERROR x is not initialized
    return x; //ERRORS are not markers
}
int main(){
    z = 1; // ERROR "undefined variable z"
    return 0; // ERROR
}
`
	exps, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(exps) != 3 {
		t.Fatalf("expected 3 expectations, got %d", len(exps))
	}

	if exps[0].Line != 3 || exps[0].Text != "x is not initialized" || exps[0].Pattern != nil {
		t.Errorf("unexpected first expectation: %+v", exps[0])
	}
	if exps[1].Line != 7 || exps[1].Pattern == nil {
		t.Fatalf("unexpected second expectation: %+v", exps[1])
	}
	if exps[1].Pattern.String() != "undefined variable z" {
		t.Errorf("pattern = %q", exps[1].Pattern.String())
	}
	if exps[2].Line != 8 || exps[2].Text != "" {
		t.Errorf("unexpected bare expectation: %+v", exps[2])
	}
}

func TestParseInvalidPattern(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated quote", "x = 1; // ERROR \"oops\n"},
		{"bad regexp", "x = 1; // ERROR \"a(b\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.src)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMatches(t *testing.T) {
	free := Expectation{Line: 5, Text: "anything"}
	exps, err := Parse(strings.NewReader("// ERROR \"uninitialized\""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	quoted := exps[0]

	d := diag.Uninitialized(diag.Pos{Line: 5, Col: 9}, "x")
	if !free.Matches(d) {
		t.Error("free description should match any diagnostic on its line")
	}
	if free.Matches(diag.Diagnostic{Pos: diag.Pos{Line: 6}}) {
		t.Error("different line should not match")
	}

	d.Pos.Line = 1
	if !quoted.Matches(d) {
		t.Error("pattern should match the message")
	}
	if quoted.Matches(diag.UndefinedVariable(diag.Pos{Line: 1}, "x")) {
		t.Error("pattern should reject other messages")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.c")
	if err := os.WriteFile(path, []byte("int main() {\n  return x; // ERROR\n}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := f.Lines(); len(got) != 1 || got[0] != 2 {
		t.Errorf("Lines() = %v, want [2]", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.c")); err == nil {
		t.Error("expected error for missing file")
	}
}
