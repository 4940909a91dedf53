package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	grammarFormat string
	grammarFile   string
)

var grammarCmd = &cobra.Command{
	Use:   "grammar",
	Short: "Print the productions, sets and predict table of the grammar",
	Long: `Print the active grammar with its nullable, FIRST and FOLLOW sets and
the LL(1) predict table. The csv format prints the table only.`,
	Args: cobra.NoArgs,
	RunE: runGrammar,
}

func init() {
	grammarCmd.Flags().StringVarP(&grammarFormat, "format", "f", "text", "Output format: text, csv")
	grammarCmd.Flags().StringVar(&grammarFile, "file", "", "CFG file to analyse instead of the configured grammar")

	rootCmd.AddCommand(grammarCmd)
}

func runGrammar(cmd *cobra.Command, args []string) error {
	g, err := loadGrammar(grammarFile)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch grammarFormat {
	case "csv":
		return g.WriteTableCSV(w)
	case "text":
		if err := g.WriteProductions(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
		if err := g.WriteSets(w); err != nil {
			return err
		}
		fmt.Fprintln(w)
		return g.WriteTable(w)
	default:
		return fmt.Errorf("unsupported grammar format: %s (supported: text, csv)", grammarFormat)
	}
}
