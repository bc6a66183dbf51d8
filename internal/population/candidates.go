package population

import (
	"math"
	"math/rand"

	"github.com/nvandessel/selectorate/internal/models"
)

// Placement selects how initial candidate positions are chosen.
type Placement string

const (
	// PlacementSpread puts candidate i at (i+0.5)*100/m.
	PlacementSpread Placement = "spread"

	// PlacementRandom draws each position uniformly from [0, 100].
	PlacementRandom Placement = "random"
)

// AlphaInit describes the initial public-goods fraction of the pool.
type AlphaInit struct {
	// Value is used by every candidate unless Random is set.
	Value float64 `json:"value" yaml:"value"`

	// Random draws each candidate's alpha uniformly from [0, 1].
	Random bool `json:"random" yaml:"random"`
}

// Pool is the candidate arena of one generation. Slots are addressed by
// index; NextID is the lineage ID the next new candidate will receive.
type Pool struct {
	Slots  []models.Candidate `json:"slots" yaml:"slots"`
	NextID int                `json:"next_id" yaml:"next_id"`
}

// Len returns the number of slots.
func (p Pool) Len() int { return len(p.Slots) }

// Clone returns a deep copy of the pool.
func (p Pool) Clone() Pool {
	return Pool{Slots: models.ClonePool(p.Slots), NextID: p.NextID}
}

// Alphas returns the alpha of every slot in order.
func (p Pool) Alphas() []float64 {
	out := make([]float64, len(p.Slots))
	for i, c := range p.Slots {
		out[i] = c.Alpha
	}
	return out
}

// Positions returns the position of every slot in order.
func (p Pool) Positions() []float64 {
	out := make([]float64, len(p.Slots))
	for i, c := range p.Slots {
		out[i] = c.Position
	}
	return out
}

// InitializeCandidates creates the generation-zero pool. Random placement
// draws positions before alphas, slot by slot.
func InitializeCandidates(rng *rand.Rand, m int, placement Placement, alpha AlphaInit, resources float64) (Pool, error) {
	if m <= 0 {
		return Pool{}, models.InvalidConfig("num_candidates", "must be positive, got %d", m)
	}
	if placement != PlacementSpread && placement != PlacementRandom {
		return Pool{}, models.InvalidConfig("placement", "unknown placement %q (valid: spread, random)", placement)
	}
	if !alpha.Random && (alpha.Value < models.MinAlpha || alpha.Value > models.MaxAlpha || math.IsNaN(alpha.Value)) {
		return Pool{}, models.InvalidConfig("alpha_init", "must be in [0, 1], got %g", alpha.Value)
	}
	if resources <= 0 || math.IsInf(resources, 0) || math.IsNaN(resources) {
		return Pool{}, models.InvalidConfig("resources", "must be positive and finite, got %g", resources)
	}

	slots := make([]models.Candidate, m)
	for i := range slots {
		c := models.Candidate{ID: i, Resources: resources, ParentID: -1}
		if placement == PlacementRandom {
			c.Position = models.MinPosition + rng.Float64()*(models.MaxPosition-models.MinPosition)
		} else {
			c.Position = (float64(i) + 0.5) * (models.MaxPosition - models.MinPosition) / float64(m)
		}
		if alpha.Random {
			c.Alpha = rng.Float64()
		} else {
			c.Alpha = alpha.Value
		}
		slots[i] = c
	}
	return Pool{Slots: slots, NextID: m}, nil
}
