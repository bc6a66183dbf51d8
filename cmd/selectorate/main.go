package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nvandessel/selectorate/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "selectorate",
		Short: "Evolutionary selectorate election simulator",
		Long: `selectorate runs iterated elections in which candidates split a fixed
budget between public goods and private goods for a winning coalition.

The winner of each generation survives unchanged and every other candidate
is replaced by a mutated copy of it, so the public/private split and the
winning ideology evolve under electoral selection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newReplicateCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// signalContext returns a context cancelled on SIGINT (and SIGTERM where
// available).
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	notifySignals(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// newLogger builds the operational logger on w. The --log-level flag wins
// over the configured level.
func newLogger(cmd *cobra.Command, configured string, w io.Writer) (*slog.Logger, string) {
	level := configured
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	return logging.NewLogger(level, w), level
}
