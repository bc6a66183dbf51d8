package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/nvandessel/selectorate/internal/config"
	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/evolution"
	"github.com/nvandessel/selectorate/internal/logging"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
)

// Observer receives every completed generation. pool is the pool that
// contested the round and res carries fitness. Implementations must not
// retain res beyond the call.
type Observer interface {
	ObserveGeneration(rec GenerationRecord, pool population.Pool, res *election.Result) error
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(rec GenerationRecord, pool population.Pool, res *election.Result) error

// ObserveGeneration calls f.
func (f ObserverFunc) ObserveGeneration(rec GenerationRecord, pool population.Pool, res *election.Result) error {
	return f(rec, pool, res)
}

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(lp *Loop) {
		if l != nil {
			lp.logger = l
		}
	}
}

// WithRoundLogger sets the JSONL round trace. A nil RoundLogger disables it.
func WithRoundLogger(rl *logging.RoundLogger) Option {
	return func(lp *Loop) { lp.trace = rl }
}

// WithObserver registers an observer. Observers run in registration order.
func WithObserver(o Observer) Option {
	return func(lp *Loop) {
		if o != nil {
			lp.observers = append(lp.observers, o)
		}
	}
}

// Loop orchestrates one simulation run. It is single-use and not safe for
// concurrent use.
type Loop struct {
	cfg       config.SimConfig
	rng       *rand.Rand
	logger    *slog.Logger
	trace     *logging.RoundLogger
	observers []Observer

	elections *election.Engine
	evolver   *evolution.Engine

	state  State
	voters []models.Voter
	pool   population.Pool
}

// New validates cfg, seeds the run's generator and builds the electorate and
// the initial candidate pool. Voters draw from the generator before
// candidates. cfg is copied; later changes to it do not affect the loop.
func New(cfg *config.SimConfig, opts ...Option) (*Loop, error) {
	if cfg == nil {
		return nil, models.InvalidConfig("config", "is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	lp := &Loop{
		cfg:    *cfg,
		rng:    rand.New(rand.NewSource(cfg.RandomSeed)),
		logger: logging.Discard(),
		state:  StateInitializing,
	}
	for _, opt := range opts {
		opt(lp)
	}

	var err error
	if lp.elections, err = election.NewEngine(cfg.ElectionParams()); err != nil {
		return nil, err
	}
	if lp.evolver, err = evolution.NewEngine(cfg.EvolutionParams()); err != nil {
		return nil, err
	}

	lp.voters, err = population.GenerateVoters(lp.rng, cfg.NumVoters, cfg.RiskDistribution(), cfg.PositionDistribution())
	if err != nil {
		return nil, fmt.Errorf("generating voters: %w", err)
	}
	lp.pool, err = population.InitializeCandidates(lp.rng, cfg.NumCandidates,
		population.Placement(cfg.Placement), cfg.InitialAlpha(), cfg.Resources)
	if err != nil {
		return nil, fmt.Errorf("initializing candidates: %w", err)
	}

	safe, seeking := population.CountRisk(lp.voters)
	lp.logger.Debug("simulation initialized",
		"seed", cfg.RandomSeed,
		"voters", len(lp.voters),
		"safe_seeking", safe,
		"risk_seeking", seeking,
		"candidates", lp.pool.Len(),
		"generations", cfg.NumGenerations)
	return lp, nil
}

// State returns the loop's current phase.
func (lp *Loop) State() State { return lp.state }

// Voters returns the electorate.
func (lp *Loop) Voters() []models.Voter { return lp.voters }

// AddObserver registers o after construction, for sinks that need the
// electorate. It has no effect once Run has started.
func (lp *Loop) AddObserver(o Observer) {
	if o != nil && lp.state == StateInitializing {
		lp.observers = append(lp.observers, o)
	}
}

// Pool returns a copy of the current candidate pool.
func (lp *Loop) Pool() population.Pool { return lp.pool.Clone() }

// Run executes every configured generation. Degenerate rounds are logged and
// recorded; configuration and numerical errors terminate the run and are
// returned together with the records gathered so far. Cancellation is
// checked between generations.
func (lp *Loop) Run(ctx context.Context) (*Run, error) {
	if lp.state != StateInitializing {
		return nil, fmt.Errorf("simulation already %s", lp.state)
	}

	run := &Run{
		Config:  lp.cfg,
		Voters:  lp.voters,
		Records: make([]GenerationRecord, 0, lp.cfg.NumGenerations),
	}

	for g := 0; g < lp.cfg.NumGenerations; g++ {
		if err := ctx.Err(); err != nil {
			return lp.terminate(run, fmt.Errorf("generation %d: %w", g, err))
		}

		lp.state = StateRunningRound
		res, err := lp.elections.Run(lp.voters, lp.pool.Slots)
		if err != nil {
			if !errors.Is(err, models.ErrDegenerateElection) {
				return lp.terminate(run, fmt.Errorf("generation %d: %w", g, err))
			}
			lp.logger.Warn("degenerate election", "generation", g, "error", err)
		}

		lp.state = StateEvolving
		next, err := lp.evolver.Next(lp.rng, lp.pool, res, g)
		if err != nil {
			return lp.terminate(run, fmt.Errorf("generation %d: %w", g, err))
		}

		rec := newRecord(g, lp.pool, res)
		run.Records = append(run.Records, rec)
		run.LastResult = res
		lp.traceRound(rec, res)

		for _, o := range lp.observers {
			if err := o.ObserveGeneration(rec, lp.pool, res); err != nil {
				return lp.terminate(run, fmt.Errorf("generation %d: observer: %w", g, err))
			}
		}

		lp.pool = next
	}

	run.FinalPool = lp.pool.Clone()
	lp.state = StateTerminated
	lp.logger.Info("simulation complete",
		"seed", lp.cfg.RandomSeed,
		"generations", len(run.Records),
		"final_mean_alpha", lastMeanAlpha(run.Records))
	return run, nil
}

func (lp *Loop) terminate(run *Run, err error) (*Run, error) {
	lp.state = StateTerminated
	run.FinalPool = lp.pool.Clone()
	lp.logger.Error("simulation aborted", "seed", lp.cfg.RandomSeed, "error", err)
	return run, err
}

func (lp *Loop) traceRound(rec GenerationRecord, res *election.Result) {
	lp.logger.Debug("round complete",
		"generation", rec.Generation,
		"winner", rec.WinnerID,
		"coalition", rec.CoalitionSize,
		"supporters", rec.Supporters,
		"mean_alpha", rec.MeanAlpha,
		"mean_position", rec.MeanPosition)
	if lp.logger.Enabled(context.Background(), logging.LevelTrace) {
		lp.logger.Log(context.Background(), logging.LevelTrace, "coalition members",
			"generation", rec.Generation,
			"winner", rec.WinnerID,
			"members", res.WinnerOutcome().Coalition)
	}

	lp.trace.Log(map[string]any{
		"event":           "round",
		"seed":            lp.cfg.RandomSeed,
		"generation":      rec.Generation,
		"winner_id":       rec.WinnerID,
		"winner_slot":     rec.WinnerSlot,
		"coalition_sizes": res.CoalitionSizes(),
		"supporters":      res.SupporterCounts(),
		"mean_alpha":      rec.MeanAlpha,
		"mean_position":   rec.MeanPosition,
		"degenerate":      rec.Degenerate,
	})
}

func lastMeanAlpha(records []GenerationRecord) float64 {
	if len(records) == 0 {
		return 0
	}
	return records[len(records)-1].MeanAlpha
}
