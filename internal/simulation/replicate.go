package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/selectorate/internal/config"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/vecmath"
)

// ReplicateOptions controls a Monte Carlo batch.
type ReplicateOptions struct {
	// Runs is the number of independent replicates.
	Runs int

	// SeedStep separates replicate seeds: seed_i = RandomSeed + i*SeedStep.
	// It must be non-zero when Runs > 1.
	SeedStep int64

	// Workers bounds concurrency. Zero means GOMAXPROCS.
	Workers int

	Logger *slog.Logger
}

// Aggregate summarizes a batch of replicates.
type Aggregate struct {
	Runs                 int     `json:"runs"`
	MeanFinalAlpha       float64 `json:"mean_final_alpha"`
	StdDevFinalAlpha     float64 `json:"stddev_final_alpha"`
	MeanFinalPosition    float64 `json:"mean_final_position"`
	MeanFinalCoalition   float64 `json:"mean_final_coalition"`
	TotalDegenerateRound int     `json:"total_degenerate_rounds"`
}

// Replicate runs independent simulations of cfg in parallel. Every
// replicate owns its generator, electorate and pool; results are returned
// in replicate order regardless of completion order.
func Replicate(ctx context.Context, cfg *config.SimConfig, opts ReplicateOptions) ([]Summary, Aggregate, error) {
	if opts.Runs <= 0 {
		return nil, Aggregate{}, models.InvalidConfig("runs", "must be positive, got %d", opts.Runs)
	}
	if opts.Runs > 1 && opts.SeedStep == 0 {
		return nil, Aggregate{}, models.InvalidConfig("seed_step", "must be non-zero for %d runs, or every replicate repeats the same seed", opts.Runs)
	}
	if cfg == nil {
		return nil, Aggregate{}, models.InvalidConfig("config", "is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, Aggregate{}, err
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	summaries := make([]Summary, opts.Runs)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Runs; i++ {
		runCfg := cfg.WithSeed(cfg.RandomSeed + int64(i)*opts.SeedStep)
		g.Go(func() error {
			loop, err := New(runCfg, WithLogger(logger.With("replicate", i)))
			if err != nil {
				return fmt.Errorf("replicate %d: %w", i, err)
			}
			run, err := loop.Run(gctx)
			if err != nil {
				return fmt.Errorf("replicate %d (seed %d): %w", i, runCfg.RandomSeed, err)
			}
			summaries[i] = run.Summarize()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Aggregate{}, err
	}

	return summaries, aggregate(summaries), nil
}

func aggregate(summaries []Summary) Aggregate {
	alphas := make([]float64, len(summaries))
	positions := make([]float64, len(summaries))
	coalitions := make([]float64, len(summaries))
	agg := Aggregate{Runs: len(summaries)}
	for i, s := range summaries {
		alphas[i] = s.FinalMeanAlpha
		positions[i] = s.FinalMeanPosition
		coalitions[i] = float64(s.FinalCoalition)
		agg.TotalDegenerateRound += s.DegenerateRounds
	}
	agg.MeanFinalAlpha = vecmath.Mean(alphas)
	agg.StdDevFinalAlpha = vecmath.StdDev(alphas)
	agg.MeanFinalPosition = vecmath.Mean(positions)
	agg.MeanFinalCoalition = vecmath.Mean(coalitions)
	return agg
}
