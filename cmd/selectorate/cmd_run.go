package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nvandessel/selectorate/internal/logging"
	"github.com/nvandessel/selectorate/internal/pathutil"
	"github.com/nvandessel/selectorate/internal/report"
	"github.com/nvandessel/selectorate/internal/simulation"
	"github.com/nvandessel/selectorate/internal/store"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation",
		Long: `Run one simulation and print the per-generation table and the final summary.

Options come from built-in defaults, then the config file, then SELECTORATE_*
environment variables, then flags.

Examples:
  selectorate run                                  # Reference experiment
  selectorate run --generations 500 --every 50     # Longer run, sparser table
  selectorate run --position-mode fixed --seed 7   # Frozen ideologies
  selectorate run --csv-dir out --votes            # Export CSV tables incl. ballots
  selectorate run --sqlite results.db --json       # Store in SQLite, print JSON`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			every, _ := cmd.Flags().GetInt("every")
			records, _ := cmd.Flags().GetBool("records")

			logger, level := newLogger(cmd, cfg.Logging.Level, cmd.ErrOrStderr())
			trace := logging.NewRoundLogger(cfg.Logging.TraceFile, level)
			defer trace.Close()

			loop, err := simulation.New(cfg,
				simulation.WithLogger(logger),
				simulation.WithRoundLogger(trace))
			if err != nil {
				return err
			}

			if cfg.Output.CSVDir != "" {
				cw, err := report.NewCSVWriter(cfg.Output.CSVDir, loop.Voters(), cfg.Output.IncludeVotes)
				if err != nil {
					return err
				}
				defer func() {
					if err := cw.Close(); err != nil {
						logger.Error("closing CSV export", "error", err)
					}
				}()
				loop.AddObserver(cw)
			}

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			var writer *store.RunWriter
			if cfg.Output.SQLitePath != "" {
				rs, err := store.Open(cfg.Output.SQLitePath)
				if err != nil {
					return err
				}
				defer rs.Close()
				writer, err = rs.BeginRun(ctx, *cfg, loop.Voters(), cfg.Output.IncludeVotes)
				if err != nil {
					return err
				}
				loop.AddObserver(writer)
			}

			run, err := loop.Run(ctx)
			if err != nil {
				return fmt.Errorf("simulation failed: %w", err)
			}
			if writer != nil {
				if err := writer.Finish(context.WithoutCancel(ctx), run.Summarize()); err != nil {
					return err
				}
				logger.Info("results stored", "path", pathutil.Redact(cfg.Output.SQLitePath), "run_id", writer.ID())
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return report.WriteJSON(out, report.NewRunDocument(run, records))
			}
			if err := report.WriteTable(out, run.Records, every); err != nil {
				return err
			}
			fmt.Fprintln(out)
			if err := report.WriteSummary(out, run); err != nil {
				return err
			}
			if cfg.Output.CSVDir != "" {
				fmt.Fprintf(out, "Exported CSV tables to %s\n", cfg.Output.CSVDir)
			}
			return nil
		},
	}

	addSimFlags(cmd)
	cmd.Flags().Int("every", 10, "Print every Nth generation in the table (0: last only)")
	cmd.Flags().Bool("records", false, "Include per-generation records in JSON output")
	cmd.Flags().String("csv-dir", "", "Export election_summary, candidate_trajectory (and vote_data) CSVs to this directory")
	cmd.Flags().String("sqlite", "", "Store results in this SQLite database")
	cmd.Flags().Bool("votes", false, "Include individual ballots in exports")
	return cmd
}
