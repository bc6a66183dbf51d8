package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/selectorate/internal/config"
	"github.com/nvandessel/selectorate/internal/simulation"
)

func openTestStore(t *testing.T) *ResultStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results", "runs.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func runInto(t *testing.T, s *ResultStore, cfg *config.SimConfig, votes bool) (*RunWriter, *simulation.Run) {
	t.Helper()
	ctx := context.Background()
	loop, err := simulation.New(cfg)
	if err != nil {
		t.Fatalf("simulation.New() error = %v", err)
	}
	w, err := s.BeginRun(ctx, *cfg, loop.Voters(), votes)
	if err != nil {
		t.Fatalf("BeginRun() error = %v", err)
	}
	loop.AddObserver(w)
	run, err := loop.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if err := w.Finish(ctx, run.Summarize()); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return w, run
}

func countRows(t *testing.T, s *ResultStore, query string, args ...any) int {
	t.Helper()
	var n int
	if err := s.DB().QueryRow(query, args...).Scan(&n); err != nil {
		t.Fatalf("count %q: %v", query, err)
	}
	return n
}

func TestRunWriterRoundTrip(t *testing.T) {
	s := openTestStore(t)
	cfg := config.Default()
	cfg.NumGenerations = 12
	cfg.NumVoters = 30

	w, run := runInto(t, s, cfg, true)

	got, err := s.Generations(context.Background(), w.ID())
	if err != nil {
		t.Fatalf("Generations() error = %v", err)
	}
	if len(got) != len(run.Records) {
		t.Fatalf("len(Generations()) = %d, want %d", len(got), len(run.Records))
	}
	for i := range got {
		if got[i] != run.Records[i] {
			t.Errorf("generation %d = %+v, want %+v", i, got[i], run.Records[i])
		}
	}

	if n := countRows(t, s, `SELECT COUNT(*) FROM candidates WHERE run_id = ?`, w.ID()); n != cfg.NumGenerations*cfg.NumCandidates {
		t.Errorf("candidate rows = %d, want %d", n, cfg.NumGenerations*cfg.NumCandidates)
	}
	if n := countRows(t, s, `SELECT COUNT(*) FROM votes WHERE run_id = ?`, w.ID()); n != cfg.NumGenerations*cfg.NumVoters {
		t.Errorf("vote rows = %d, want %d", n, cfg.NumGenerations*cfg.NumVoters)
	}
	// Exactly one slot per generation carries fitness, and it equals the coalition.
	if n := countRows(t, s, `SELECT COUNT(*) FROM candidates WHERE run_id = ? AND fitness != coalition_size AND fitness != 0`, w.ID()); n != 0 {
		t.Errorf("%d candidate rows with inconsistent fitness", n)
	}

	runs, err := s.Runs(context.Background())
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 || runs[0].ID != w.ID() || !runs[0].Finished {
		t.Fatalf("Runs() = %+v", runs)
	}
	if runs[0].Summary == nil || *runs[0].Summary != run.Summarize() {
		t.Errorf("stored summary = %+v, want %+v", runs[0].Summary, run.Summarize())
	}
}

func TestRunWriterWithoutVotes(t *testing.T) {
	s := openTestStore(t)
	cfg := config.Default()
	cfg.NumGenerations = 3

	w, _ := runInto(t, s, cfg, false)
	if n := countRows(t, s, `SELECT COUNT(*) FROM votes WHERE run_id = ?`, w.ID()); n != 0 {
		t.Errorf("vote rows = %d, want 0", n)
	}
}

func TestMultipleRuns(t *testing.T) {
	s := openTestStore(t)
	cfg := config.Default()
	cfg.NumGenerations = 2

	a, _ := runInto(t, s, cfg, false)
	b, _ := runInto(t, s, cfg.WithSeed(99), false)
	if a.ID() == b.ID() {
		t.Fatal("runs share an ID")
	}

	runs, err := s.Runs(context.Background())
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 || runs[1].Seed != 99 {
		t.Errorf("Runs() = %+v", runs)
	}
}

func TestReopenValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cfg := config.Default()
	cfg.NumGenerations = 2
	runInto(t, s, cfg, false)
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	if err := ValidateIntegrity(context.Background(), s.DB()); err != nil {
		t.Errorf("ValidateIntegrity() error = %v", err)
	}
	runs, err := s.Runs(context.Background())
	if err != nil || len(runs) != 1 {
		t.Errorf("Runs() = %v, %v; want 1 run", runs, err)
	}
}

func TestOpenInMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer s.Close()
	if n := countRows(t, s, `SELECT MAX(version) FROM schema_version`); n != SchemaVersion {
		t.Errorf("schema version = %d, want %d", n, SchemaVersion)
	}
}

func TestValidateIntegrityRunContinuity(t *testing.T) {
	tests := []struct {
		name    string
		corrupt string
		wantErr string
	}{
		{name: "intact"},
		{
			name:    "missing generation",
			corrupt: `DELETE FROM generations WHERE generation = 1`,
			wantErr: "missing generations",
		},
		{
			name:    "generation without candidates",
			corrupt: `DELETE FROM candidates WHERE generation = 2`,
			wantErr: "has no candidates",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openTestStore(t)
			cfg := config.Default()
			cfg.NumGenerations = 4
			runInto(t, s, cfg, false)

			ctx := context.Background()
			if tt.corrupt != "" {
				if _, err := s.DB().ExecContext(ctx, tt.corrupt); err != nil {
					t.Fatalf("corrupt: %v", err)
				}
			}
			err := ValidateIntegrity(ctx, s.DB())
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateIntegrity() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateIntegrity() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestReopenRejectsBrokenRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	cfg := config.Default()
	cfg.NumGenerations = 3
	runInto(t, s, cfg, false)
	if _, err := s.DB().Exec(`DELETE FROM generations WHERE generation = 0`); err != nil {
		t.Fatalf("delete: %v", err)
	}
	s.Close()

	if s, err := Open(path); err == nil {
		s.Close()
		t.Fatal("Open() succeeded on a run with missing generations")
	}
}
