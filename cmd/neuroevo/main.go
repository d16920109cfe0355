package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"neuroevo/internal/logging"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "neuroevo",
		Short: "Neuroevolution of policy networks with a genetic algorithm",
		Long: `neuroevo evolves the flat weight vectors of feed-forward policy networks
on episodic control tasks, logs per-seed progress and aggregates the
results into learning curves.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", "", "Log level (info|debug), overrides the config file")

	rootCmd.AddCommand(
		newVersionCmd(),
		newTrainCmd(),
		newPlayCmd(),
		newAnalyzeCmd(),
		newRunsCmd(),
	)
	return rootCmd
}

// commandLogger builds the stderr logger, preferring the --log-level flag over
// fallback.
func commandLogger(cmd *cobra.Command, fallback string) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = fallback
	}
	return logging.NewLogger(level, cmd.ErrOrStderr())
}
