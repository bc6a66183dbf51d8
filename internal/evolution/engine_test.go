package evolution

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
)

func testPool() population.Pool {
	return population.Pool{
		Slots: []models.Candidate{
			{ID: 0, Position: 10, Alpha: 0.2, Resources: 1000, ParentID: -1},
			{ID: 1, Position: 50, Alpha: 0.6, Resources: 1000, ParentID: -1},
			{ID: 2, Position: 90, Alpha: 0.9, Resources: 1000, ParentID: -1},
		},
		NextID: 3,
	}
}

func testResult(winner int, coalition ...int) *election.Result {
	res := &election.Result{Winner: winner, Outcomes: make([]election.Outcome, 3)}
	for c := range res.Outcomes {
		res.Outcomes[c] = election.Outcome{Slot: c, CandidateID: c, Coalition: []int{c}}
	}
	res.Outcomes[winner].Coalition = coalition
	return res
}

func newTestEngine(t *testing.T, p Params) *Engine {
	t.Helper()
	e, err := NewEngine(p)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestAssignFitness(t *testing.T) {
	res := testResult(1, 4, 5, 6, 7)
	AssignFitness(res)
	want := []int{0, 4, 0}
	for c, o := range res.Outcomes {
		if o.Fitness != want[c] {
			t.Errorf("slot %d fitness = %d, want %d", c, o.Fitness, want[c])
		}
	}
}

func TestNextKeepsWinnerAndReplacesLosers(t *testing.T) {
	e := newTestEngine(t, Params{SigmaAlpha: 0.1, TauPosition: 3, PositionMode: PositionEvolving})
	pool := testPool()
	next, err := e.Next(rand.New(rand.NewSource(1)), pool, testResult(1, 0, 1), 0)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}

	if next.Len() != pool.Len() {
		t.Fatalf("pool size changed from %d to %d", pool.Len(), next.Len())
	}
	if next.Slots[1] != pool.Slots[1] {
		t.Errorf("winner changed: %v -> %v", pool.Slots[1], next.Slots[1])
	}
	for _, slot := range []int{0, 2} {
		c := next.Slots[slot]
		if c.ParentID != 1 {
			t.Errorf("slot %d parent = %d, want 1", slot, c.ParentID)
		}
		if c.ID < 3 {
			t.Errorf("slot %d reused ID %d", slot, c.ID)
		}
		if c.Generation != 1 {
			t.Errorf("slot %d generation = %d, want 1", slot, c.Generation)
		}
	}
	if next.Slots[0].ID == next.Slots[2].ID {
		t.Error("replacement candidates share an ID")
	}
	if next.NextID != 5 {
		t.Errorf("NextID = %d, want 5", next.NextID)
	}
	// Input pool untouched.
	if pool.Slots[0].Alpha != 0.2 || pool.NextID != 3 {
		t.Error("Next modified its input pool")
	}
}

func TestNextZeroSigmaCopiesWinnerAlpha(t *testing.T) {
	e := newTestEngine(t, Params{SigmaAlpha: 0, TauPosition: 0, PositionMode: PositionFixed})
	next, err := e.Next(rand.New(rand.NewSource(4)), testPool(), testResult(2, 0, 1, 2), 7)
	if err != nil {
		t.Fatal(err)
	}
	for slot, c := range next.Slots {
		if c.Alpha != 0.9 || c.Position != 90 {
			t.Errorf("slot %d = (alpha %v, pos %v), want (0.9, 90)", slot, c.Alpha, c.Position)
		}
	}
}

func TestFixedModeKeepsWinnerPosition(t *testing.T) {
	e := newTestEngine(t, Params{SigmaAlpha: 0.3, TauPosition: 10, PositionMode: PositionFixed})
	next, err := e.Next(rand.New(rand.NewSource(8)), testPool(), testResult(0, 0), 0)
	if err != nil {
		t.Fatal(err)
	}
	for slot, c := range next.Slots {
		if c.Position != 10 {
			t.Errorf("slot %d position = %v, want 10 in fixed mode", slot, c.Position)
		}
	}
}

func TestMutateClamps(t *testing.T) {
	e := newTestEngine(t, Params{SigmaAlpha: 5, TauPosition: 500, PositionMode: PositionEvolving})
	rng := rand.New(rand.NewSource(99))
	parent := models.Candidate{ID: 0, Position: 99, Alpha: 0.99, Resources: 1}
	for i := 0; i < 2000; i++ {
		c := e.Mutate(rng, parent, i+1, 1)
		if c.Alpha < 0 || c.Alpha > 1 {
			t.Fatalf("draw %d: alpha %v outside [0, 1]", i, c.Alpha)
		}
		if c.Position < 0 || c.Position > 100 {
			t.Fatalf("draw %d: position %v outside [0, 100]", i, c.Position)
		}
	}
}

func TestNextDeterministic(t *testing.T) {
	e := newTestEngine(t, Params{SigmaAlpha: 0.05, TauPosition: 2, PositionMode: PositionEvolving})
	a, err := e.Next(rand.New(rand.NewSource(3)), testPool(), testResult(0, 0), 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Next(rand.New(rand.NewSource(3)), testPool(), testResult(0, 0), 0)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Slots {
		if a.Slots[i] != b.Slots[i] {
			t.Errorf("slot %d differs: %v vs %v", i, a.Slots[i], b.Slots[i])
		}
	}
}

func TestNextRejectsMismatchedResult(t *testing.T) {
	e := newTestEngine(t, Params{PositionMode: PositionFixed})
	res := &election.Result{Winner: 0, Outcomes: make([]election.Outcome, 2)}
	_, err := e.Next(rand.New(rand.NewSource(1)), testPool(), res, 0)
	if !errors.Is(err, models.ErrNumericalInstability) {
		t.Errorf("expected ErrNumericalInstability, got %v", err)
	}
}

func TestNewEngineValidates(t *testing.T) {
	tests := []struct {
		name   string
		params Params
	}{
		{"negative sigma", Params{SigmaAlpha: -0.1, PositionMode: PositionFixed}},
		{"negative tau", Params{TauPosition: -1, PositionMode: PositionEvolving}},
		{"unknown mode", Params{PositionMode: "drifting"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewEngine(tt.params); !errors.Is(err, models.ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}
