// Package constants provides the default model parameters for selectorate.
// An empty configuration runs the reference experiment built from these
// values.
package constants

// Electorate and pool size constants
const (
	// DefaultNumVoters is the size of the electorate |V|.
	DefaultNumVoters = 100

	// DefaultNumCandidates is the constant size of the candidate pool.
	DefaultNumCandidates = 4

	// DefaultNumGenerations is the number of election rounds per run.
	DefaultNumGenerations = 200
)

// Resource allocation constants
const (
	// DefaultResources is the budget R available to each candidate.
	DefaultResources = 1000.0

	// DefaultPrivateGrant is the minimum private-goods grant per coalition
	// member. A candidate can fund floor((1-alpha)*R / grant) members.
	DefaultPrivateGrant = 5.0

	// DefaultInitialAlpha is the public-goods fraction every candidate starts with.
	DefaultInitialAlpha = 0.5
)

// Mutation constants
const (
	// DefaultSigmaAlpha is the standard deviation of alpha mutations.
	DefaultSigmaAlpha = 0.05

	// DefaultTauPosition is the standard deviation of position mutations.
	DefaultTauPosition = 2.0
)

// Voter behavior constants
const (
	// DefaultRiskSeekingShare is the fraction of risk-seeking voters.
	DefaultRiskSeekingShare = 0.5

	// DefaultRiskBias is the utility shift applied by risk profile to
	// candidates whose private payoff variance is above the pool average.
	DefaultRiskBias = 5.0
)

// DefaultRandomSeed makes unconfigured runs reproducible.
const DefaultRandomSeed int64 = 1234
