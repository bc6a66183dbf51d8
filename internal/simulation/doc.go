// Package simulation runs iterated selectorate elections across generations.
//
// A Loop owns the electorate, the candidate pool and the run's random
// generator. Each generation it runs one election, hands the result to the
// evolution engine and records a GenerationRecord. Generations are strictly
// sequential; independent runs (see Replicate) each own their generator and
// pools and may execute in parallel.
//
// Usage:
//
//	cfg := config.Default()
//	loop, err := simulation.New(cfg, simulation.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	run, err := loop.Run(ctx)
//	// run.Records is the per-generation time series.
//
// The Assert* helpers in this package validate emergent properties of a run
// (clamping, elitism, bounded oscillation) and are shared by tests.
package simulation
