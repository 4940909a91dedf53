package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/swantron/minic/internal/config"
	"github.com/swantron/minic/internal/logging"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	rootCmd = &cobra.Command{
		Use:   "minic",
		Short: "Compiler front end and toolchain for a small C subset",
		Long: `minic compiles a small subset of C. It scans and parses with a
table-driven LL(1) parser, reports semantic errors such as reads of
uninitialized variables, generates quadruple IR and either interprets it or
translates it to MIPS assembly for SPIM.`,
		Version:           fmt.Sprintf("%s (commit: %s, date: %s)", version, commit, date),
		PersistentPreRunE: setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

var (
	configFile string
	verbose    bool
	logFormat  string

	cfg    = config.Default()
	logger = zap.NewNop()
)

// errFailed means the results were already printed and the command only
// needs a non-zero exit status
var errFailed = errors.New("failed")

// exitStatus carries the value returned by an interpreted program
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("program exited with status %d", int(e))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file (default: "+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console, json (overrides config)")
}

func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if verbose {
		c.Log.Level = "debug"
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if err := c.Validate(); err != nil {
		return err
	}

	l, err := logging.New(c.Log.Level, c.Log.Format)
	if err != nil {
		return err
	}
	cfg, logger = c, l
	logger.Debug("configuration loaded",
		zap.String("command", cmd.Name()),
		zap.String("config", configFile),
		zap.String("grammar", c.Grammar))
	return nil
}

func main() {
	// Subcommands are added in their respective files via init() functions
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	var status exitStatus
	switch {
	case err == nil:
	case errors.As(err, &status):
		os.Exit(int(status))
	case errors.Is(err, errFailed):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
