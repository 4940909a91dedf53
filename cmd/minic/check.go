package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swantron/minic/internal/compiler"
	"github.com/swantron/minic/pkg/report"
)

var (
	checkOutput string
	checkRender bool
	checkWatch  bool
)

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Report lexical, syntax and semantic errors",
	Long: `Compile each source file up to code generation and print every
diagnostic. Exits with status 1 when any file has a diagnostic.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Output format: text, json, markdown (default from config)")
	checkCmd.Flags().BoolVar(&checkRender, "render", false, "Render markdown output for the terminal")
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "Re-check whenever a file changes")

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	format := checkOutput
	if format == "" {
		format = cfg.Output
	}
	once := func() error {
		return checkFiles(cmd.OutOrStdout(), args, format)
	}
	if checkWatch {
		return watchFiles(cmd.Context(), args, once)
	}
	return once()
}

func checkFiles(w io.Writer, paths []string, format string) error {
	opts, err := compilerOptions()
	if err != nil {
		return err
	}

	results := make([]*compiler.Result, 0, len(paths))
	failed := false
	for _, path := range paths {
		res, err := compileFile(path, opts)
		if err != nil {
			return err
		}
		logger.Debug("checked", zap.String("file", path), zap.Int("diagnostics", len(res.Diagnostics)))
		failed = failed || !res.OK()
		results = append(results, res)
	}

	switch format {
	case "json":
		out, err := report.CheckJSON(results)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(out))
	case "markdown":
		out := report.CheckMarkdown(results)
		if checkRender {
			if out, err = renderMarkdown(out); err != nil {
				return err
			}
		}
		fmt.Fprint(w, out)
	case "text":
		checkText(w, results)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json, markdown)", format)
	}

	if failed {
		return errFailed
	}
	return nil
}

func checkText(w io.Writer, results []*compiler.Result) {
	total, files := 0, 0
	for _, res := range results {
		if res.OK() {
			continue
		}
		writeDiagnostics(w, res.Name, res.Diagnostics)
		total += len(res.Diagnostics)
		files++
	}
	if total == 0 {
		fmt.Fprintln(w, okStyle.Render(fmt.Sprintf("✓ %d file(s) checked, no diagnostics", len(results))))
		return
	}
	fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("✗ %d diagnostic(s) in %d of %d file(s)", total, files, len(results))))
}

func renderMarkdown(md string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}
