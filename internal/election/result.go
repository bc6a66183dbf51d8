package election

// Outcome is one candidate's share of a round result.
type Outcome struct {
	Slot        int `json:"slot"`
	CandidateID int `json:"candidate_id"`

	// Supporters are voter indices that ranked this candidate first, in voter order.
	Supporters []int `json:"supporters"`

	// Coalition are the supporters granted private goods, closest first.
	Coalition []int `json:"coalition"`

	// Cap is the number of members the private budget can fund.
	Cap int `json:"cap"`

	// PayoffVariance is the variance of the expected private payoff lottery.
	PayoffVariance float64 `json:"payoff_variance"`

	// HighVariance is set when PayoffVariance is above the pool mean.
	HighVariance bool `json:"high_variance"`

	// TotalUtility sums the realized utility over supporters.
	TotalUtility float64 `json:"total_utility"`

	// Fitness is assigned by the evolution step.
	Fitness int `json:"fitness"`
}

// Ballot records one voter's view of the round.
type Ballot struct {
	VoterID int `json:"voter_id"`

	// Choice is the slot the voter supported.
	Choice int `json:"choice"`

	// Utilities holds the realized U_i(c) for every slot.
	Utilities []float64 `json:"utilities"`

	// Included marks the slots whose coalition contains this voter.
	Included []bool `json:"included"`
}

// Result is the ephemeral outcome of one round.
type Result struct {
	Outcomes     []Outcome `json:"outcomes"`
	Ballots      []Ballot  `json:"ballots"`
	Winner       int       `json:"winner"`
	Degenerate   bool      `json:"degenerate"`
	MeanVariance float64   `json:"mean_variance"`
}

// WinnerOutcome returns the winning slot's outcome.
func (r *Result) WinnerOutcome() Outcome {
	return r.Outcomes[r.Winner]
}

// CoalitionSizes returns |W_c| per slot.
func (r *Result) CoalitionSizes() []int {
	out := make([]int, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = len(o.Coalition)
	}
	return out
}

// SupporterCounts returns |S_c| per slot.
func (r *Result) SupporterCounts() []int {
	out := make([]int, len(r.Outcomes))
	for i, o := range r.Outcomes {
		out[i] = len(o.Supporters)
	}
	return out
}

// Utility returns U_i(c) for voter index i and slot c.
func (r *Result) Utility(i, c int) float64 {
	return r.Ballots[i].Utilities[c]
}
