package models

import "fmt"

// RiskProfile describes how a voter treats uncertain private-goods payoffs.
type RiskProfile string

const (
	RiskSafeSeeking RiskProfile = "safe" // Discounts high-variance private payoffs
	RiskSeeking     RiskProfile = "risk" // Favors high-variance private payoffs
)

// Valid reports whether p is a known risk profile.
func (p RiskProfile) Valid() bool {
	return p == RiskSafeSeeking || p == RiskSeeking
}

// Voter is an immutable member of the electorate for one simulation run.
type Voter struct {
	// ID is the voter's index in generation order.
	ID int `json:"id" yaml:"id"`

	// Position is the ideological coordinate in [0, 100].
	Position float64 `json:"position" yaml:"position"`

	// Risk is fixed for the lifetime of the run.
	Risk RiskProfile `json:"risk" yaml:"risk"`
}

func (v Voter) String() string {
	return fmt.Sprintf("voter-%d(%.2f,%s)", v.ID, v.Position, v.Risk)
}
