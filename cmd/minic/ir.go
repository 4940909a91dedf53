package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swantron/minic/internal/mips"
)

var (
	irSymbols bool
	mipsOut   string
)

var irCmd = &cobra.Command{
	Use:   "ir <file>",
	Short: "Print the quadruple IR of a source file",
	Long: `Compile a source file and print its quadruples. With --symbols the
function, global and local tables are printed first, including the frame
offset of every local.`,
	Args: cobra.ExactArgs(1),
	RunE: runIR,
}

var mipsCmd = &cobra.Command{
	Use:   "mips <file>",
	Short: "Translate a source file to MIPS assembly for SPIM",
	Long: `Generate quadruples and translate them to MIPS assembly. The number
of temporary registers comes from mips.registers in the config.`,
	Args: cobra.ExactArgs(1),
	RunE: runMIPS,
}

func init() {
	irCmd.Flags().BoolVar(&irSymbols, "symbols", false, "Print the symbol tables before the quadruples")
	mipsCmd.Flags().StringVarP(&mipsOut, "out", "O", "", "Write assembly to this file instead of stdout")

	rootCmd.AddCommand(irCmd)
	rootCmd.AddCommand(mipsCmd)
}

func runIR(cmd *cobra.Command, args []string) error {
	res, err := compileClean(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if irSymbols {
		if err := res.Info.WriteTables(cmd.OutOrStdout()); err != nil {
			return err
		}
	}
	return res.IR.Write(cmd.OutOrStdout())
}

func runMIPS(cmd *cobra.Command, args []string) error {
	res, err := compileClean(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	asm, err := mips.Translate(res.IR, mips.Options{Registers: cfg.MIPS.Registers})
	if err != nil {
		return fmt.Errorf("failed to translate %s: %w", args[0], err)
	}

	if mipsOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), asm)
		return nil
	}
	if err := os.WriteFile(mipsOut, []byte(asm), 0644); err != nil {
		return fmt.Errorf("failed to write assembly: %w", err)
	}
	logger.Info("assembly written", zap.String("file", mipsOut), zap.Int("bytes", len(asm)))
	return nil
}
