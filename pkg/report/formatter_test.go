package report

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/swantron/minic/internal/compiler"
	"github.com/swantron/minic/internal/diag"
	"github.com/swantron/minic/internal/verify"
)

func sampleResults() []*compiler.Result {
	return []*compiler.Result{
		{Name: "clean.c"},
		{Name: "bad.c", Diagnostics: []diag.Diagnostic{
			diag.Uninitialized(diag.Pos{Line: 5, Col: 9}, "x"),
			diag.Incompatible(diag.Pos{Line: 7, Col: 7}, "i", "int", "bool"),
			diag.Uninitialized(diag.Pos{Line: 9, Col: 3}, "y"),
		}},
	}
}

func TestCheckJSON(t *testing.T) {
	data, err := CheckJSON(sampleResults())
	if err != nil {
		t.Fatalf("CheckJSON() error = %v", err)
	}

	var report CheckReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.TotalFiles != 2 || report.TotalDiagnostics != 3 || report.Passed {
		t.Errorf("unexpected summary: %+v", report)
	}
	if report.Counts["uninitialized_var"] != 2 || report.Counts["incompatible_type"] != 1 {
		t.Errorf("unexpected counts: %v", report.Counts)
	}
	first := report.Files[1].Diagnostics[0]
	if first.Line != 5 || first.Column != 9 || first.Kind != "uninitialized_var" {
		t.Errorf("unexpected diagnostic: %+v", first)
	}
	if !strings.Contains(string(data), `"file_path": "clean.c"`) {
		t.Error("clean files should still be listed")
	}
}

func TestCheckMarkdown(t *testing.T) {
	md := CheckMarkdown(sampleResults())

	for _, want := range []string{
		"# minic Check Report",
		"- **Diagnostics**: 3",
		"❌ FAIL",
		"| `uninitialized_var` | 2 |",
		"## `bad.c`",
		"| 5 | 9 | `uninitialized_var` | variable x is uninitialized but used here |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## `clean.c`") {
		t.Error("files without diagnostics should not get a section")
	}

	if !strings.Contains(CheckMarkdown(sampleResults()[:1]), "✅ PASS") {
		t.Error("clean run should pass")
	}
}

func sampleVerify() *verify.Result {
	return &verify.Result{
		TotalFiles:      2,
		PassedFiles:     1,
		TotalExpected:   6,
		MatchedLines:    5,
		MissingLines:    1,
		MatchPercentage: 83.33,
		FileResults: map[string]*verify.FileResult{
			"b.c": {FilePath: "b.c", Expected: []int{3}, Missing: []int{3}, Failures: []string{`line 3: no diagnostic matches "a|b"`}},
			"a.c": {FilePath: "a.c", Expected: []int{5, 6, 11, 12, 13}, Matched: []int{5, 6, 11, 12, 13}},
		},
	}
}

func TestVerifyJSON(t *testing.T) {
	data, err := VerifyJSON(sampleVerify())
	if err != nil {
		t.Fatalf("VerifyJSON() error = %v", err)
	}
	var report VerifyReport
	if err := json.Unmarshal(data, &report); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if report.Passed {
		t.Error("report with a failing fixture should not pass")
	}
	if len(report.Files) != 2 || report.Files[0].FilePath != "a.c" {
		t.Fatalf("files should be sorted by path: %+v", report.Files)
	}
	if !report.Files[0].Passed || report.Files[1].Passed {
		t.Errorf("unexpected per-file status: %+v %+v", report.Files[0], report.Files[1])
	}
}

func TestVerifyMarkdown(t *testing.T) {
	md := VerifyMarkdown(sampleVerify())

	for _, want := range []string{
		"- **Fixtures**: 1/2 passed",
		"- **Matched**: 5 (83.3%)",
		"| `a.c` | ✅ | 5 | 5 | [] | [] |",
		"| `b.c` | ❌ | 1 | 0 | [3] | [] |",
		`a\|b`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}
}
