package election

import (
	"fmt"
	"math"
	"sort"

	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/vecmath"
)

// varianceTolerance keeps candidates with numerically identical payoff
// variance from being classed as above average.
const varianceTolerance = 1e-9

// capTolerance absorbs rounding in (1-alpha)*R before the cap is floored.
const capTolerance = 1e-9

// Params configures the election model.
type Params struct {
	// PrivateGrant is the minimum private-goods grant per coalition member.
	PrivateGrant float64 `json:"private_grant" yaml:"private_grant"`

	// RiskBias is the magnitude of the risk-profile utility shift.
	RiskBias float64 `json:"risk_bias" yaml:"risk_bias"`
}

// Validate checks the election parameters.
func (p Params) Validate() error {
	if !(p.PrivateGrant > 0) || math.IsInf(p.PrivateGrant, 0) {
		return models.InvalidConfig("private_grant", "must be positive and finite, got %g", p.PrivateGrant)
	}
	if p.RiskBias < 0 || !vecmath.IsFinite(p.RiskBias) {
		return models.InvalidConfig("risk_bias", "must be non-negative and finite, got %g", p.RiskBias)
	}
	return nil
}

// Engine computes round results. It holds no per-round state and may be
// reused across generations.
type Engine struct {
	params Params
}

// NewEngine creates an election engine.
func NewEngine(p Params) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &Engine{params: p}, nil
}

// Params returns the engine's configuration.
func (e *Engine) Params() Params { return e.params }

// Run resolves one election. On a degenerate round the result is returned
// together with an error wrapping models.ErrDegenerateElection; the winner
// is still chosen by the secondary tie-breaks so the caller can carry it
// forward.
func (e *Engine) Run(voters []models.Voter, candidates []models.Candidate) (*Result, error) {
	nV, nC := len(voters), len(candidates)
	if nV == 0 {
		return nil, models.InvalidConfig("voters", "electorate is empty")
	}
	if nC == 0 {
		return nil, models.InvalidConfig("candidates", "candidate pool is empty")
	}

	res := &Result{
		Outcomes: make([]Outcome, nC),
		Ballots:  make([]Ballot, nV),
	}

	// Coalition capacity and private payoff risk per candidate.
	fairShare := (nV + nC - 1) / nC
	variances := make([]float64, nC)
	for c, cand := range candidates {
		capacity := e.coalitionCap(cand)
		res.Outcomes[c] = Outcome{
			Slot:        c,
			CandidateID: cand.ID,
			Cap:         capacity,
		}
		variances[c] = payoffVariance(cand, min(capacity, fairShare), nV)
		res.Outcomes[c].PayoffVariance = variances[c]
	}
	res.MeanVariance = vecmath.Mean(variances)
	for c := range res.Outcomes {
		res.Outcomes[c].HighVariance = variances[c] > res.MeanVariance+varianceTolerance*math.Max(1, res.MeanVariance)
	}

	// Supporters: argmax of the pre-allocation utility, lowest slot on ties.
	for i, v := range voters {
		b := Ballot{
			VoterID:   v.ID,
			Choice:    -1,
			Utilities: make([]float64, nC),
			Included:  make([]bool, nC),
		}
		best := math.Inf(-1)
		for c, cand := range candidates {
			u := e.baseUtility(v, cand, nV, res.Outcomes[c].HighVariance)
			b.Utilities[c] = u
			if u > best {
				best = u
				b.Choice = c
			}
		}
		if b.Choice < 0 {
			return nil, fmt.Errorf("%w: voter %d has no finite utility", models.ErrNumericalInstability, v.ID)
		}
		res.Ballots[i] = b
		out := &res.Outcomes[b.Choice]
		out.Supporters = append(out.Supporters, i)
	}

	// Coalitions: the closest supporters the private budget can fund.
	for c, cand := range candidates {
		out := &res.Outcomes[c]
		out.Coalition = formCoalition(voters, cand, out.Supporters, out.Cap)
		if len(out.Coalition) > nV || len(out.Coalition) > len(out.Supporters) {
			return nil, fmt.Errorf("%w: candidate %d coalition of %d exceeds %d supporters / %d voters",
				models.ErrNumericalInstability, cand.ID, len(out.Coalition), len(out.Supporters), nV)
		}
		if len(out.Coalition) == 0 {
			continue
		}
		share := cand.PrivateBudget() / float64(len(out.Coalition))
		for _, i := range out.Coalition {
			res.Ballots[i].Utilities[c] += share
			res.Ballots[i].Included[c] = true
		}
	}

	for c := range res.Outcomes {
		out := &res.Outcomes[c]
		for i := range res.Ballots {
			if !vecmath.IsFinite(res.Ballots[i].Utilities[c]) {
				return nil, fmt.Errorf("%w: utility of voter %d for candidate %d is not finite",
					models.ErrNumericalInstability, res.Ballots[i].VoterID, candidates[c].ID)
			}
		}
		for _, i := range out.Supporters {
			out.TotalUtility += res.Ballots[i].Utilities[c]
		}
	}

	res.Winner = pickWinner(res.Outcomes)
	res.Degenerate = true
	for _, out := range res.Outcomes {
		if len(out.Coalition) > 0 {
			res.Degenerate = false
			break
		}
	}
	if res.Degenerate {
		return res, fmt.Errorf("%w: all %d coalitions are empty", models.ErrDegenerateElection, nC)
	}
	return res, nil
}

// coalitionCap returns how many members the candidate's private budget can
// fund at the configured grant. Quotients within capTolerance below an
// integer round up to it, so (1-0.8)*1000/5 funds 40 members, not 39.
func (e *Engine) coalitionCap(c models.Candidate) int {
	q := c.PrivateBudget() / e.params.PrivateGrant
	n := math.Floor(q + capTolerance*math.Max(1, math.Abs(q)))
	if n <= 0 || math.IsNaN(n) {
		return 0
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

// baseUtility is the utility a voter expects before private goods are
// allocated: policy loss, public goods and risk bias.
func (e *Engine) baseUtility(v models.Voter, c models.Candidate, nVoters int, highVariance bool) float64 {
	d := v.Position - c.Position
	u := -d*d + c.PublicBudget()/float64(nVoters)
	if highVariance {
		if v.Risk == models.RiskSeeking {
			u += e.params.RiskBias
		} else {
			u -= e.params.RiskBias
		}
	}
	return u
}

// payoffVariance is the variance of the private payoff lottery that pays
// (1-alpha)R/k with probability k/|V|.
func payoffVariance(c models.Candidate, k, nVoters int) float64 {
	if k <= 0 {
		return 0
	}
	q := float64(k) / float64(nVoters)
	p := c.PrivateBudget() / float64(k)
	return q * (1 - q) * p * p
}

// formCoalition selects up to capacity supporters ordered by distance to the
// candidate, then by voter order.
func formCoalition(voters []models.Voter, c models.Candidate, supporters []int, capacity int) []int {
	size := min(len(supporters), capacity)
	if size <= 0 {
		return nil
	}
	ordered := make([]int, len(supporters))
	copy(ordered, supporters)
	sort.SliceStable(ordered, func(a, b int) bool {
		da := math.Abs(voters[ordered[a]].Position - c.Position)
		db := math.Abs(voters[ordered[b]].Position - c.Position)
		if da != db {
			return da < db
		}
		return ordered[a] < ordered[b]
	})
	return ordered[:size]
}

// pickWinner returns the slot with the largest coalition, then the largest
// supporter utility, then the lowest slot.
func pickWinner(outcomes []Outcome) int {
	winner := 0
	for c := 1; c < len(outcomes); c++ {
		cur, best := outcomes[c], outcomes[winner]
		switch {
		case len(cur.Coalition) > len(best.Coalition):
			winner = c
		case len(cur.Coalition) == len(best.Coalition) && cur.TotalUtility > best.TotalUtility:
			winner = c
		}
	}
	return winner
}
