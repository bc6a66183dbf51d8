package simulation

import (
	"math"
	"testing"

	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
)

// AssertBoundedPools asserts that every candidate in every pool keeps its
// alpha in [0, 1] and its position in [0, 100].
func AssertBoundedPools(t *testing.T, pools []population.Pool) {
	t.Helper()
	for g, pool := range pools {
		for slot, c := range pool.Slots {
			if c.Alpha < models.MinAlpha || c.Alpha > models.MaxAlpha || math.IsNaN(c.Alpha) {
				t.Errorf("AssertBoundedPools: generation %d slot %d: alpha %.6f outside [0, 1]", g, slot, c.Alpha)
			}
			if c.Position < models.MinPosition || c.Position > models.MaxPosition || math.IsNaN(c.Position) {
				t.Errorf("AssertBoundedPools: generation %d slot %d: position %.6f outside [0, 100]", g, slot, c.Position)
			}
		}
	}
}

// AssertElitism asserts that the winner of generation g occupies the same
// slot, unchanged, in the pool of generation g+1. pools[g] must be the pool
// that contested records[g].
func AssertElitism(t *testing.T, records []GenerationRecord, pools []population.Pool) {
	t.Helper()
	for g := 0; g+1 < len(pools) && g < len(records); g++ {
		rec := records[g]
		kept := pools[g+1].Slots[rec.WinnerSlot]
		if kept.ID != rec.WinnerID || kept.Alpha != rec.WinnerAlpha || kept.Position != rec.WinnerPosition {
			t.Errorf("AssertElitism: generation %d: winner %d (alpha %.6f, position %.6f) replaced by %s",
				g, rec.WinnerID, rec.WinnerAlpha, rec.WinnerPosition, kept)
		}
	}
}

// AssertCoalitionWithinElectorate asserts 0 <= coalition <= supporters <= voters
// for every record.
func AssertCoalitionWithinElectorate(t *testing.T, records []GenerationRecord, voters int) {
	t.Helper()
	for _, rec := range records {
		if rec.CoalitionSize < 0 || rec.CoalitionSize > rec.Supporters || rec.Supporters > voters {
			t.Errorf("AssertCoalitionWithinElectorate: generation %d: coalition %d, supporters %d, voters %d",
				rec.Generation, rec.CoalitionSize, rec.Supporters, voters)
		}
	}
}

// AssertMeanAlphaStep asserts that the pool's mean alpha never moves by more
// than maxStep between consecutive generations.
func AssertMeanAlphaStep(t *testing.T, records []GenerationRecord, maxStep float64) {
	t.Helper()
	for g := 1; g < len(records); g++ {
		d := math.Abs(records[g].MeanAlpha - records[g-1].MeanAlpha)
		if d > maxStep {
			t.Errorf("AssertMeanAlphaStep: generation %d: mean alpha moved %.6f (max %.4f)", g, d, maxStep)
		}
	}
}

// AssertTailOscillation asserts that the mean alpha over the last window
// generations stays within a band of width maxRange.
func AssertTailOscillation(t *testing.T, records []GenerationRecord, window int, maxRange float64) {
	t.Helper()
	if len(records) == 0 {
		t.Errorf("AssertTailOscillation: no records")
		return
	}
	window = min(window, len(records))
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, rec := range records[len(records)-window:] {
		lo = math.Min(lo, rec.MeanAlpha)
		hi = math.Max(hi, rec.MeanAlpha)
	}
	if hi-lo > maxRange {
		t.Errorf("AssertTailOscillation: last %d generations span %.6f (max %.4f)", window, hi-lo, maxRange)
	}
}

// AssertMonotoneIDs asserts that candidate IDs never repeat across a run
// except for carried-forward winners.
func AssertMonotoneIDs(t *testing.T, pools []population.Pool) {
	t.Helper()
	seen := make(map[int]models.Candidate)
	for g, pool := range pools {
		for slot, c := range pool.Slots {
			prev, ok := seen[c.ID]
			if ok && (prev.Alpha != c.Alpha || prev.Position != c.Position) {
				t.Errorf("AssertMonotoneIDs: generation %d slot %d: id %d reused for a different candidate", g, slot, c.ID)
			}
			seen[c.ID] = c
		}
	}
}

// PoolRecorder is an Observer that keeps a copy of every contested pool.
type PoolRecorder struct {
	Pools []population.Pool
}

// ObserveGeneration records pool.
func (r *PoolRecorder) ObserveGeneration(_ GenerationRecord, pool population.Pool, _ *election.Result) error {
	r.Pools = append(r.Pools, pool.Clone())
	return nil
}
