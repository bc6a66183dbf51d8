package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/selectorate/internal/report"
	"github.com/nvandessel/selectorate/internal/simulation"
)

func newReplicateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replicate",
		Short: "Run independent replicates in parallel",
		Long: `Run the same configuration under several seeds and aggregate the outcomes.

Replicate i uses seed + i*seed-step. Replicates share nothing and run on up
to --workers goroutines; the output order follows the replicate index.

Examples:
  selectorate replicate --runs 20
  selectorate replicate --runs 100 --workers 8 --risk-share 0.8 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			runs, _ := cmd.Flags().GetInt("runs")
			step, _ := cmd.Flags().GetInt64("seed-step")
			workers, _ := cmd.Flags().GetInt("workers")

			logger, _ := newLogger(cmd, cfg.Logging.Level, cmd.ErrOrStderr())

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			summaries, agg, err := simulation.Replicate(ctx, cfg, simulation.ReplicateOptions{
				Runs:     runs,
				SeedStep: step,
				Workers:  workers,
				Logger:   logger,
			})
			if err != nil {
				return fmt.Errorf("replicates failed: %w", err)
			}

			if jsonOut {
				return report.WriteJSON(cmd.OutOrStdout(), report.ReplicateDocument{
					Config:    *cfg,
					Runs:      summaries,
					Aggregate: agg,
				})
			}
			return report.WriteAggregate(cmd.OutOrStdout(), summaries, agg)
		},
	}

	addSimFlags(cmd)
	cmd.Flags().Int("runs", 10, "Number of replicates")
	cmd.Flags().Int64("seed-step", 1, "Seed increment between replicates")
	cmd.Flags().Int("workers", 0, "Concurrent replicates (0: GOMAXPROCS)")
	return cmd
}
