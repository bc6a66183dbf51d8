package population

import (
	"math"
	"math/rand"

	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/vecmath"
)

// PositionKind selects how voter ideologies are drawn.
type PositionKind string

const (
	PositionUniform PositionKind = "uniform"
	PositionNormal  PositionKind = "normal"
)

// PositionDistribution describes the distribution of voter ideologies.
// Uniform draws use [Low, High]; normal draws use Mean and StdDev and are
// clamped into [0, 100].
type PositionDistribution struct {
	Kind   PositionKind `json:"kind" yaml:"kind"`
	Low    float64      `json:"low" yaml:"low"`
	High   float64      `json:"high" yaml:"high"`
	Mean   float64      `json:"mean" yaml:"mean"`
	StdDev float64      `json:"stddev" yaml:"stddev"`
}

// DefaultPositionDistribution is uniform over the whole ideological axis.
func DefaultPositionDistribution() PositionDistribution {
	return PositionDistribution{
		Kind:   PositionUniform,
		Low:    models.MinPosition,
		High:   models.MaxPosition,
		Mean:   (models.MinPosition + models.MaxPosition) / 2,
		StdDev: 20,
	}
}

// Validate checks the distribution parameters.
func (d PositionDistribution) Validate() error {
	switch d.Kind {
	case PositionUniform:
		if d.Low < models.MinPosition || d.High > models.MaxPosition {
			return models.InvalidConfig("position_distribution", "bounds [%g, %g] must lie within [0, 100]", d.Low, d.High)
		}
		if d.Low > d.High {
			return models.InvalidConfig("position_distribution", "low %g is greater than high %g", d.Low, d.High)
		}
	case PositionNormal:
		if d.StdDev < 0 || !vecmath.IsFinite(d.StdDev) {
			return models.InvalidConfig("position_distribution", "stddev must be non-negative, got %g", d.StdDev)
		}
		if !vecmath.IsFinite(d.Mean) {
			return models.InvalidConfig("position_distribution", "mean must be finite")
		}
	default:
		return models.InvalidConfig("position_distribution", "unknown kind %q (valid: uniform, normal)", d.Kind)
	}
	return nil
}

func (d PositionDistribution) draw(rng *rand.Rand) float64 {
	if d.Kind == PositionNormal {
		p := d.Mean + rng.NormFloat64()*d.StdDev
		return vecmath.Clamp(p, models.MinPosition, models.MaxPosition)
	}
	return d.Low + rng.Float64()*(d.High-d.Low)
}

// RiskAssignment selects how risk profiles are handed out.
type RiskAssignment string

const (
	// RiskBernoulli draws each voter's profile independently.
	RiskBernoulli RiskAssignment = "bernoulli"

	// RiskExact makes the first round(n*(1-share)) voters safe-seeking and
	// the rest risk-seeking.
	RiskExact RiskAssignment = "exact"
)

// RiskDistribution describes the mix of risk profiles in the electorate.
type RiskDistribution struct {
	// SeekingShare is the probability (bernoulli) or fraction (exact) of
	// risk-seeking voters.
	SeekingShare float64        `json:"seeking_share" yaml:"seeking_share"`
	Assignment   RiskAssignment `json:"assignment" yaml:"assignment"`
}

// Validate checks the distribution parameters.
func (d RiskDistribution) Validate() error {
	if d.SeekingShare < 0 || d.SeekingShare > 1 || math.IsNaN(d.SeekingShare) {
		return models.InvalidConfig("risk_distribution", "seeking_share must be in [0, 1], got %g", d.SeekingShare)
	}
	if d.Assignment != RiskBernoulli && d.Assignment != RiskExact {
		return models.InvalidConfig("risk_distribution", "unknown assignment %q (valid: bernoulli, exact)", d.Assignment)
	}
	return nil
}

// GenerateVoters creates an electorate of n voters. For bernoulli assignment
// each voter consumes a position draw followed by a risk draw; exact
// assignment consumes position draws only.
func GenerateVoters(rng *rand.Rand, n int, risk RiskDistribution, pos PositionDistribution) ([]models.Voter, error) {
	if n <= 0 {
		return nil, models.InvalidConfig("num_voters", "must be positive, got %d", n)
	}
	if err := risk.Validate(); err != nil {
		return nil, err
	}
	if err := pos.Validate(); err != nil {
		return nil, err
	}

	nSafe := int(math.Round(float64(n) * (1 - risk.SeekingShare)))

	voters := make([]models.Voter, n)
	for i := range voters {
		v := models.Voter{ID: i, Position: pos.draw(rng)}
		switch risk.Assignment {
		case RiskExact:
			v.Risk = models.RiskSafeSeeking
			if i >= nSafe {
				v.Risk = models.RiskSeeking
			}
		default:
			v.Risk = models.RiskSafeSeeking
			if rng.Float64() < risk.SeekingShare {
				v.Risk = models.RiskSeeking
			}
		}
		voters[i] = v
	}
	return voters, nil
}

// CountRisk returns the number of safe-seeking and risk-seeking voters.
func CountRisk(voters []models.Voter) (safe, seeking int) {
	for _, v := range voters {
		if v.Risk == models.RiskSeeking {
			seeking++
		} else {
			safe++
		}
	}
	return safe, seeking
}
