package simulation

// State is a phase of the simulation loop.
type State int

const (
	StateInitializing State = iota
	StateRunningRound
	StateEvolving
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateRunningRound:
		return "running_round"
	case StateEvolving:
		return "evolving"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}
