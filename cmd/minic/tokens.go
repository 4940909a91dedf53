package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swantron/minic/internal/lexer"
)

var tokensStats bool

var tokensCmd = &cobra.Command{
	Use:   "tokens <file>",
	Short: "Print the token stream of a source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokens,
}

func init() {
	tokensCmd.Flags().BoolVarP(&tokensStats, "stats", "s", false, "Print line, character and lexeme counts")

	rootCmd.AddCommand(tokensCmd)
}

func runTokens(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	tokens, diags := lexer.Scan(src)

	w := cmd.OutOrStdout()
	for _, tok := range tokens {
		fmt.Fprintln(w, tok)
	}
	if tokensStats {
		st := lexer.Statistics(src, tokens)
		fmt.Fprintf(w, "\nlines: %d\nchars: %d\n", st.Lines, st.Chars)
		for _, k := range st.Keys() {
			fmt.Fprintf(w, "%-12s %d\n", k, st.Counts[k])
		}
	}

	if len(diags) > 0 {
		writeDiagnostics(cmd.ErrOrStderr(), args[0], diags)
		return errFailed
	}
	return nil
}
