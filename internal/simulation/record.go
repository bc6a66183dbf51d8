package simulation

import (
	"github.com/nvandessel/selectorate/internal/config"
	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
	"github.com/nvandessel/selectorate/internal/vecmath"
)

// GenerationRecord summarizes one round. Pool statistics describe the pool
// that contested the round.
type GenerationRecord struct {
	Generation     int     `json:"generation"`
	WinnerID       int     `json:"winner_id"`
	WinnerSlot     int     `json:"winner_slot"`
	CoalitionSize  int     `json:"coalition_size"`
	Supporters     int     `json:"supporters"`
	WinnerAlpha    float64 `json:"winner_alpha"`
	WinnerPosition float64 `json:"winner_position"`
	MeanAlpha      float64 `json:"mean_alpha"`
	MeanPosition   float64 `json:"mean_position"`
	Degenerate     bool    `json:"degenerate"`
}

func newRecord(generation int, pool population.Pool, res *election.Result) GenerationRecord {
	w := res.WinnerOutcome()
	winner := pool.Slots[res.Winner]
	return GenerationRecord{
		Generation:     generation,
		WinnerID:       winner.ID,
		WinnerSlot:     res.Winner,
		CoalitionSize:  len(w.Coalition),
		Supporters:     len(w.Supporters),
		WinnerAlpha:    winner.Alpha,
		WinnerPosition: winner.Position,
		MeanAlpha:      vecmath.Mean(pool.Alphas()),
		MeanPosition:   vecmath.Mean(pool.Positions()),
		Degenerate:     res.Degenerate,
	}
}

// Run is the outcome of one simulation.
type Run struct {
	Config    config.SimConfig   `json:"config"`
	Voters    []models.Voter     `json:"-"`
	Records   []GenerationRecord `json:"records"`
	FinalPool population.Pool    `json:"final_pool"`

	// LastResult is the final round's result.
	LastResult *election.Result `json:"-"`
}

// Summary condenses a run into a few headline numbers.
type Summary struct {
	Seed              int64   `json:"seed"`
	Generations       int     `json:"generations"`
	FinalMeanAlpha    float64 `json:"final_mean_alpha"`
	FinalMeanPosition float64 `json:"final_mean_position"`
	FinalWinnerAlpha  float64 `json:"final_winner_alpha"`
	FinalCoalition    int     `json:"final_coalition"`
	MeanCoalition     float64 `json:"mean_coalition"`
	DegenerateRounds  int     `json:"degenerate_rounds"`
	DistinctWinners   int     `json:"distinct_winners"`

	// TailAlphaRange is max-min of MeanAlpha over the last TailWindow records.
	TailAlphaRange float64 `json:"tail_alpha_range"`
	TailWindow     int     `json:"tail_window"`
}

// DefaultTailWindow is the number of trailing generations used to measure
// oscillation.
const DefaultTailWindow = 10

// Summarize computes the run's summary.
func (r *Run) Summarize() Summary {
	s := Summary{Seed: r.Config.RandomSeed, Generations: len(r.Records)}
	if len(r.Records) == 0 {
		return s
	}

	coalitions := make([]float64, len(r.Records))
	winners := make(map[int]struct{})
	for i, rec := range r.Records {
		coalitions[i] = float64(rec.CoalitionSize)
		winners[rec.WinnerID] = struct{}{}
		if rec.Degenerate {
			s.DegenerateRounds++
		}
	}
	last := r.Records[len(r.Records)-1]
	s.FinalMeanAlpha = last.MeanAlpha
	s.FinalMeanPosition = last.MeanPosition
	s.FinalWinnerAlpha = last.WinnerAlpha
	s.FinalCoalition = last.CoalitionSize
	s.MeanCoalition = vecmath.Mean(coalitions)
	s.DistinctWinners = len(winners)

	s.TailWindow = min(DefaultTailWindow, len(r.Records))
	tail := make([]float64, 0, s.TailWindow)
	for _, rec := range r.Records[len(r.Records)-s.TailWindow:] {
		tail = append(tail, rec.MeanAlpha)
	}
	lo, hi := vecmath.MinMax(tail)
	s.TailAlphaRange = hi - lo
	return s
}
