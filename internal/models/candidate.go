package models

import "fmt"

// Ideological and allocation bounds.
const (
	MinPosition = 0.0
	MaxPosition = 100.0
	MinAlpha    = 0.0
	MaxAlpha    = 1.0
)

// Candidate is one slot of the candidate pool. Only Alpha and Position are
// heritable; Resources is shared by every candidate in a run.
type Candidate struct {
	// ID identifies the lineage member. Mutated copies receive a fresh ID,
	// the elite winner keeps its own.
	ID int `json:"id" yaml:"id"`

	// Position is the ideological coordinate in [0, 100].
	Position float64 `json:"position" yaml:"position"`

	// Alpha is the fraction of Resources spent on public goods, in [0, 1].
	Alpha float64 `json:"alpha" yaml:"alpha"`

	// Resources is the total budget R > 0.
	Resources float64 `json:"resources" yaml:"resources"`

	// ParentID is the ID of the candidate this one was copied from, or -1.
	ParentID int `json:"parent_id" yaml:"parent_id"`

	// Generation is the generation in which this candidate was created.
	Generation int `json:"generation" yaml:"generation"`
}

// PublicBudget returns the resources spent on public goods.
func (c Candidate) PublicBudget() float64 {
	return c.Alpha * c.Resources
}

// PrivateBudget returns the resources reserved for the winning coalition.
func (c Candidate) PrivateBudget() float64 {
	return (1 - c.Alpha) * c.Resources
}

func (c Candidate) String() string {
	return fmt.Sprintf("cand-%d(pos=%.2f,alpha=%.3f)", c.ID, c.Position, c.Alpha)
}

// ClonePool returns a copy of pool so callers never alias another
// generation's slots.
func ClonePool(pool []Candidate) []Candidate {
	out := make([]Candidate, len(pool))
	copy(out, pool)
	return out
}
