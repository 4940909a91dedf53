package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/swantron/minic/internal/verify"
	"github.com/swantron/minic/pkg/report"
)

var (
	verifyOutput  string
	verifyWorkers int
)

var verifyCmd = &cobra.Command{
	Use:   "verify [file|dir]...",
	Short: "Check annotated fixtures against the reported diagnostics",
	Long: `Compile every .c fixture and compare the lines carrying a
"// ERROR" annotation with the lines that received diagnostics. A quoted
annotation must also match the diagnostic message as a regular expression.
Defaults to the testdata directory. Exits with status 1 on any mismatch.`,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVarP(&verifyOutput, "output", "o", "", "Output format: text, json, markdown (default from config)")
	verifyCmd.Flags().IntVarP(&verifyWorkers, "workers", "j", 0, "Fixtures compiled concurrently (default from config)")

	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"testdata"}
	}
	format := verifyOutput
	if format == "" {
		format = cfg.Output
	}
	workers := verifyWorkers
	if workers <= 0 {
		workers = cfg.Verify.Workers
	}
	opts, err := compilerOptions()
	if err != nil {
		return err
	}

	v := &verify.Verifier{Workers: workers, Options: opts}
	result, err := v.Run(cmd.Context(), args)
	if result == nil {
		return fmt.Errorf("failed to verify fixtures: %w", err)
	}
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}

	w := cmd.OutOrStdout()
	switch format {
	case "json":
		out, err := report.VerifyJSON(result)
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(out))
	case "markdown":
		fmt.Fprint(w, report.VerifyMarkdown(result))
	case "text":
		verifyText(w, result)
	default:
		return fmt.Errorf("unsupported output format: %s (supported: text, json, markdown)", format)
	}

	if err != nil || !result.Passed() {
		return errFailed
	}
	return nil
}

func verifyText(w io.Writer, result *verify.Result) {
	fmt.Fprintln(w, "minic Fixture Verification")
	fmt.Fprintln(w, "==========================")
	fmt.Fprintln(w)

	for _, path := range result.Paths() {
		fr := result.FileResults[path]
		if fr.Passed() {
			fmt.Fprintf(w, "%s %s (%d annotated)\n", okStyle.Render("PASS"), path, len(fr.Expected))
			continue
		}
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render("FAIL"), path)
		if len(fr.Missing) > 0 {
			fmt.Fprintf(w, "  missing diagnostics on lines: %v\n", fr.Missing)
		}
		if len(fr.Unexpected) > 0 {
			fmt.Fprintf(w, "  unexpected diagnostics on lines: %v\n", fr.Unexpected)
		}
		for _, f := range fr.Failures {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fixtures: %d/%d passed\n", result.PassedFiles, result.TotalFiles)
	fmt.Fprintf(w, "Annotated lines: %d matched of %d (%.1f%%)\n",
		result.MatchedLines, result.TotalExpected, result.MatchPercentage)
}
