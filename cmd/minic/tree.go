package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/swantron/minic/internal/grammar"
	"github.com/swantron/minic/internal/lexer"
)

var treeColor bool

var treeCmd = &cobra.Command{
	Use:   "tree <file>",
	Short: "Print the concrete parse tree of a source file",
	Long: `Parse a source file with the LL(1) table and print the resulting
tree. The tree is printed even when the parser had to recover from errors.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

func init() {
	treeCmd.Flags().BoolVar(&treeColor, "color", false, "Highlight terminals and lexemes")

	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, args []string) error {
	src, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	g, err := loadGrammar("")
	if err != nil {
		return err
	}

	tokens, diags := lexer.Scan(src)
	tree, parseDiags := g.Parse(tokens)
	diags = append(diags, parseDiags...)

	style := grammar.PlainStyle()
	if treeColor {
		style = grammar.ColorStyle()
	}
	if err := tree.Write(cmd.OutOrStdout(), style); err != nil {
		return fmt.Errorf("failed to write tree: %w", err)
	}

	if len(diags) > 0 {
		writeDiagnostics(cmd.ErrOrStderr(), args[0], diags)
		return errFailed
	}
	return nil
}
