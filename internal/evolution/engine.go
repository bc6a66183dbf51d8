// Package evolution turns a round result into the next generation's
// candidate pool: the winner survives unchanged and every other slot is
// refilled with an independently mutated copy of it.
package evolution

import (
	"fmt"
	"math/rand"

	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
	"github.com/nvandessel/selectorate/internal/vecmath"
)

// PositionMode selects whether ideology is heritable-with-mutation.
type PositionMode string

const (
	PositionFixed    PositionMode = "fixed"
	PositionEvolving PositionMode = "evolving"
)

// Params configures mutation.
type Params struct {
	// SigmaAlpha is the standard deviation of alpha mutations.
	SigmaAlpha float64 `json:"sigma_alpha" yaml:"sigma_alpha"`

	// TauPosition is the standard deviation of position mutations, used
	// only in evolving mode.
	TauPosition float64 `json:"tau_position" yaml:"tau_position"`

	PositionMode PositionMode `json:"position_mode" yaml:"position_mode"`
}

// Validate checks the mutation parameters.
func (p Params) Validate() error {
	if p.SigmaAlpha < 0 || !vecmath.IsFinite(p.SigmaAlpha) {
		return models.InvalidConfig("sigma_alpha", "must be non-negative, got %g", p.SigmaAlpha)
	}
	if p.TauPosition < 0 || !vecmath.IsFinite(p.TauPosition) {
		return models.InvalidConfig("tau_position", "must be non-negative, got %g", p.TauPosition)
	}
	if p.PositionMode != PositionFixed && p.PositionMode != PositionEvolving {
		return models.InvalidConfig("position_mode", "unknown mode %q (valid: fixed, evolving)", p.PositionMode)
	}
	return nil
}

// Engine applies fitness, replacement and mutation.
type Engine struct {
	params Params
}

// NewEngine creates an evolution engine.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Params returns the engine's configuration.
func (e *Engine) Params() Params { return e.params }

// AssignFitness writes f(c) = |W_c| for the winner and 0 for every other
// slot into res.
func AssignFitness(res *election.Result) {
	for c := range res.Outcomes {
		res.Outcomes[c].Fitness = 0
	}
	w := &res.Outcomes[res.Winner]
	w.Fitness = len(w.Coalition)
}

// Next produces the pool for the following generation. The input pool is
// not modified. Replaced slots draw in ascending slot order, alpha first.
func (e *Engine) Next(rng *rand.Rand, pool population.Pool, res *election.Result, generation int) (population.Pool, error) {
	if res == nil {
		return population.Pool{}, fmt.Errorf("evolve generation %d: missing round result", generation)
	}
	if len(res.Outcomes) != pool.Len() {
		return population.Pool{}, fmt.Errorf("%w: round result has %d outcomes for a pool of %d",
			models.ErrNumericalInstability, len(res.Outcomes), pool.Len())
	}
	if res.Winner < 0 || res.Winner >= pool.Len() {
		return population.Pool{}, fmt.Errorf("%w: winner slot %d outside pool of %d",
			models.ErrNumericalInstability, res.Winner, pool.Len())
	}

	AssignFitness(res)

	winner := pool.Slots[res.Winner]
	next := population.Pool{
		Slots:  make([]models.Candidate, pool.Len()),
		NextID: pool.NextID,
	}
	for slot := range next.Slots {
		if slot == res.Winner {
			next.Slots[slot] = winner
			continue
		}
		next.Slots[slot] = e.Mutate(rng, winner, next.NextID, generation+1)
		next.NextID++
	}
	return next, nil
}

// Mutate returns a perturbed copy of parent with the given ID.
func (e *Engine) Mutate(rng *rand.Rand, parent models.Candidate, id, generation int) models.Candidate {
	child := parent
	child.ID = id
	child.ParentID = parent.ID
	child.Generation = generation
	child.Alpha = vecmath.Clamp(parent.Alpha+rng.NormFloat64()*e.params.SigmaAlpha, models.MinAlpha, models.MaxAlpha)
	if e.params.PositionMode == PositionEvolving {
		child.Position = vecmath.Clamp(parent.Position+rng.NormFloat64()*e.params.TauPosition, models.MinPosition, models.MaxPosition)
	}
	return child
}
