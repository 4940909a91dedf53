package report

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/swantron/minic/internal/compiler"
	"github.com/swantron/minic/internal/verify"
)

// CheckReport represents the JSON output structure for the check command
type CheckReport struct {
	TotalFiles       int            `json:"total_files"`
	TotalDiagnostics int            `json:"total_diagnostics"`
	Passed           bool           `json:"passed"`
	Counts           map[string]int `json:"counts,omitempty"`
	Files            []*FileReport  `json:"files"`
}

// FileReport represents the diagnostics of one source file
type FileReport struct {
	FilePath    string              `json:"file_path"`
	Diagnostics []*DiagnosticReport `json:"diagnostics"`
}

// DiagnosticReport is a single diagnostic
type DiagnosticReport struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// VerifyReport represents the JSON output structure for the verify command
type VerifyReport struct {
	TotalFiles      int                  `json:"total_files"`
	PassedFiles     int                  `json:"passed_files"`
	TotalExpected   int                  `json:"total_expected"`
	MatchedLines    int                  `json:"matched_lines"`
	MissingLines    int                  `json:"missing_lines"`
	UnexpectedLines int                  `json:"unexpected_lines"`
	MatchPercentage float64              `json:"match_percentage"`
	Passed          bool                 `json:"passed"`
	Files           []*FixtureFileReport `json:"files"`
}

// FixtureFileReport represents file-level verification results
type FixtureFileReport struct {
	FilePath   string   `json:"file_path"`
	Passed     bool     `json:"passed"`
	Expected   []int    `json:"expected"`
	Matched    []int    `json:"matched"`
	Missing    []int    `json:"missing"`
	Unexpected []int    `json:"unexpected"`
	Failures   []string `json:"failures,omitempty"`
}

// NewCheckReport summarizes compilation results
func NewCheckReport(results []*compiler.Result) *CheckReport {
	report := &CheckReport{
		TotalFiles: len(results),
		Counts:     make(map[string]int),
		Files:      make([]*FileReport, 0, len(results)),
	}
	for _, res := range results {
		fr := &FileReport{FilePath: res.Name, Diagnostics: make([]*DiagnosticReport, 0, len(res.Diagnostics))}
		for _, d := range res.Diagnostics {
			fr.Diagnostics = append(fr.Diagnostics, &DiagnosticReport{
				Line:    d.Pos.Line,
				Column:  d.Pos.Col,
				Kind:    string(d.Kind),
				Message: d.Message,
			})
			report.Counts[string(d.Kind)]++
		}
		report.TotalDiagnostics += len(res.Diagnostics)
		report.Files = append(report.Files, fr)
	}
	report.Passed = report.TotalDiagnostics == 0
	return report
}

// CheckJSON converts compilation results to JSON format
func CheckJSON(results []*compiler.Result) ([]byte, error) {
	return json.MarshalIndent(NewCheckReport(results), "", "  ")
}

// CheckMarkdown converts compilation results to Markdown format
func CheckMarkdown(results []*compiler.Result) string {
	var sb strings.Builder
	report := NewCheckReport(results)

	sb.WriteString("# minic Check Report\n\n")
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Files**: %d\n", report.TotalFiles))
	sb.WriteString(fmt.Sprintf("- **Diagnostics**: %d\n", report.TotalDiagnostics))
	sb.WriteString(fmt.Sprintf("- **Status**: %s\n\n", status(report.Passed)))

	if len(report.Counts) > 0 {
		sb.WriteString("| Kind | Count |\n")
		sb.WriteString("|------|-------|\n")
		for _, kind := range sortedKeys(report.Counts) {
			sb.WriteString(fmt.Sprintf("| `%s` | %d |\n", kind, report.Counts[kind]))
		}
		sb.WriteString("\n")
	}

	for _, fr := range report.Files {
		if len(fr.Diagnostics) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("## `%s`\n\n", fr.FilePath))
		sb.WriteString("| Line | Column | Kind | Message |\n")
		sb.WriteString("|------|--------|------|---------|\n")
		for _, d := range fr.Diagnostics {
			sb.WriteString(fmt.Sprintf("| %d | %d | `%s` | %s |\n", d.Line, d.Column, d.Kind, escapeCell(d.Message)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// NewVerifyReport summarizes a fixture run
func NewVerifyReport(result *verify.Result) *VerifyReport {
	report := &VerifyReport{
		TotalFiles:      result.TotalFiles,
		PassedFiles:     result.PassedFiles,
		TotalExpected:   result.TotalExpected,
		MatchedLines:    result.MatchedLines,
		MissingLines:    result.MissingLines,
		UnexpectedLines: result.UnexpectedLines,
		MatchPercentage: result.MatchPercentage,
		Passed:          result.Passed(),
		Files:           make([]*FixtureFileReport, 0, len(result.FileResults)),
	}
	for _, path := range result.Paths() {
		fr := result.FileResults[path]
		report.Files = append(report.Files, &FixtureFileReport{
			FilePath:   fr.FilePath,
			Passed:     fr.Passed(),
			Expected:   fr.Expected,
			Matched:    fr.Matched,
			Missing:    fr.Missing,
			Unexpected: fr.Unexpected,
			Failures:   fr.Failures,
		})
	}
	return report
}

// VerifyJSON converts a fixture run to JSON format
func VerifyJSON(result *verify.Result) ([]byte, error) {
	return json.MarshalIndent(NewVerifyReport(result), "", "  ")
}

// VerifyMarkdown converts a fixture run to Markdown format
func VerifyMarkdown(result *verify.Result) string {
	var sb strings.Builder
	report := NewVerifyReport(result)

	sb.WriteString("# minic Fixture Report\n\n")
	sb.WriteString("## Summary\n\n")
	sb.WriteString(fmt.Sprintf("- **Fixtures**: %d/%d passed\n", report.PassedFiles, report.TotalFiles))
	sb.WriteString(fmt.Sprintf("- **Annotated Lines**: %d\n", report.TotalExpected))
	sb.WriteString(fmt.Sprintf("- **Matched**: %d (%.1f%%)\n", report.MatchedLines, report.MatchPercentage))
	sb.WriteString(fmt.Sprintf("- **Missing**: %d | **Unexpected**: %d\n", report.MissingLines, report.UnexpectedLines))
	sb.WriteString(fmt.Sprintf("- **Status**: %s\n\n", status(report.Passed)))

	if len(report.Files) > 0 {
		sb.WriteString("## Fixture Details\n\n")
		sb.WriteString("| Fixture | Status | Expected | Matched | Missing | Unexpected |\n")
		sb.WriteString("|---------|--------|----------|---------|---------|------------|\n")
		for _, fr := range report.Files {
			fileStatus := "✅"
			if !fr.Passed {
				fileStatus = "❌"
			}
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %d | %d | %v | %v |\n",
				fr.FilePath, fileStatus, len(fr.Expected), len(fr.Matched), fr.Missing, fr.Unexpected))
			for _, f := range fr.Failures {
				sb.WriteString(fmt.Sprintf("  - %s\n", escapeCell(f)))
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func status(passed bool) string {
	if passed {
		return "✅ PASS"
	}
	return "❌ FAIL"
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
