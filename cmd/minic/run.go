package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swantron/minic/internal/vm"
)

var runMaxSteps int

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Compile a source file and interpret its IR",
	Long: `Compile a source file and execute the quadruples. get reads integers
from stdin and put writes them to stdout. The exit status is the value
main returns, or the value passed to exit.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().IntVar(&runMaxSteps, "max-steps", 0, "Abort after this many quadruples (default from config)")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	res, err := compileClean(args[0], cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	steps := runMaxSteps
	if steps <= 0 {
		steps = cfg.VM.MaxSteps
	}
	status, err := vm.Run(cmd.Context(), res.IR, vm.Options{
		Stdin:    cmd.InOrStdin(),
		Stdout:   cmd.OutOrStdout(),
		MaxSteps: steps,
	})
	if err != nil {
		return fmt.Errorf("failed to run %s: %w", args[0], err)
	}
	logger.Debug("program finished", zap.String("file", args[0]), zap.Int("status", status))
	if status != 0 {
		return exitStatus(status)
	}
	return nil
}
