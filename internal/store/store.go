// Package store persists simulation results in a SQLite database.
//
// A ResultStore holds any number of runs. Each run is written through a
// RunWriter, which is a simulation.Observer: register it on the loop and
// every generation is committed in its own transaction.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nvandessel/selectorate/internal/config"
	"github.com/nvandessel/selectorate/internal/election"
	"github.com/nvandessel/selectorate/internal/models"
	"github.com/nvandessel/selectorate/internal/population"
	"github.com/nvandessel/selectorate/internal/simulation"
)

// ResultStore is a SQLite results database.
type ResultStore struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the database at path. The special path
// ":memory:" opens a private in-memory database.
func Open(path string) (*ResultStore, error) {
	dsn := ":memory:?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &ResultStore{db: db}, nil
}

// Close closes the database.
func (s *ResultStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for ad-hoc queries.
func (s *ResultStore) DB() *sql.DB { return s.db }

// BeginRun records a new run and returns its writer. voters are the run's
// electorate; they are needed only when includeVotes is set.
func (s *ResultStore) BeginRun(ctx context.Context, cfg config.SimConfig, voters []models.Voter, includeVotes bool) (*RunWriter, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, seed, config, started_at) VALUES (?, ?, ?, ?)`,
		id, cfg.RandomSeed, string(cfgJSON), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return &RunWriter{store: s, id: id, voters: voters, includeVotes: includeVotes}, nil
}

// RunWriter appends one run's generations. It implements simulation.Observer.
type RunWriter struct {
	store        *ResultStore
	id           string
	voters       []models.Voter
	includeVotes bool
}

var _ simulation.Observer = (*RunWriter)(nil)

// ID returns the run's identifier.
func (w *RunWriter) ID() string { return w.id }

// ObserveGeneration writes the generation row, the contested pool and,
// when enabled, every ballot.
func (w *RunWriter) ObserveGeneration(rec simulation.GenerationRecord, pool population.Pool, res *election.Result) error {
	ctx := context.Background()
	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, winner_id, winner_slot, coalition_size, supporters,
			winner_alpha, winner_position, mean_alpha, mean_position, degenerate)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		w.id, rec.Generation, rec.WinnerID, rec.WinnerSlot, rec.CoalitionSize, rec.Supporters,
		rec.WinnerAlpha, rec.WinnerPosition, rec.MeanAlpha, rec.MeanPosition, boolToInt(rec.Degenerate))
	if err != nil {
		return fmt.Errorf("failed to insert generation %d: %w", rec.Generation, err)
	}

	candStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (run_id, generation, slot, candidate_id, parent_id, born_generation,
			alpha, position, supporters, coalition_size, payoff_variance, high_variance, total_utility, fitness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare candidate insert: %w", err)
	}
	defer candStmt.Close()

	for slot, c := range pool.Slots {
		out := res.Outcomes[slot]
		if _, err := candStmt.ExecContext(ctx,
			w.id, rec.Generation, slot, c.ID, c.ParentID, c.Generation,
			c.Alpha, c.Position, len(out.Supporters), len(out.Coalition),
			out.PayoffVariance, boolToInt(out.HighVariance), out.TotalUtility, out.Fitness); err != nil {
			return fmt.Errorf("failed to insert candidate %d: %w", c.ID, err)
		}
	}

	if w.includeVotes {
		if err := w.insertVotes(ctx, tx, rec.Generation, res); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (w *RunWriter) insertVotes(ctx context.Context, tx *sql.Tx, generation int, res *election.Result) error {
	if len(w.voters) != len(res.Ballots) {
		return fmt.Errorf("vote export: %d voters for %d ballots", len(w.voters), len(res.Ballots))
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO votes (run_id, generation, voter_id, risk, position, choice, in_coalition, utility)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare vote insert: %w", err)
	}
	defer stmt.Close()

	for i, b := range res.Ballots {
		v := w.voters[i]
		if _, err := stmt.ExecContext(ctx,
			w.id, generation, v.ID, string(v.Risk), v.Position, b.Choice,
			boolToInt(b.Included[b.Choice]), b.Utilities[b.Choice]); err != nil {
			return fmt.Errorf("failed to insert vote of voter %d: %w", v.ID, err)
		}
	}
	return nil
}

// Finish stamps the run with its summary.
func (w *RunWriter) Finish(ctx context.Context, summary simulation.Summary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	s := w.store
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, summary = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), string(data), w.id)
	if err != nil {
		return fmt.Errorf("failed to finish run %s: %w", w.id, err)
	}
	return nil
}

// RunInfo describes a stored run.
type RunInfo struct {
	ID        string              `json:"id"`
	Seed      int64               `json:"seed"`
	StartedAt string              `json:"started_at"`
	Finished  bool                `json:"finished"`
	Summary   *simulation.Summary `json:"summary,omitempty"`
}

// Runs lists stored runs in insertion order.
func (s *ResultStore) Runs(ctx context.Context) ([]RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, seed, started_at, finished_at, summary FROM runs ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var info RunInfo
		var finished, summary sql.NullString
		if err := rows.Scan(&info.ID, &info.Seed, &info.StartedAt, &finished, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		info.Finished = finished.Valid
		if summary.Valid {
			var sum simulation.Summary
			if err := json.Unmarshal([]byte(summary.String), &sum); err != nil {
				return nil, fmt.Errorf("failed to decode summary of run %s: %w", info.ID, err)
			}
			info.Summary = &sum
		}
		runs = append(runs, info)
	}
	return runs, rows.Err()
}

// Generations returns a run's time series ordered by generation.
func (s *ResultStore) Generations(ctx context.Context, runID string) ([]simulation.GenerationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT generation, winner_id, winner_slot, coalition_size, supporters,
			winner_alpha, winner_position, mean_alpha, mean_position, degenerate
		FROM generations WHERE run_id = ? ORDER BY generation`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query generations: %w", err)
	}
	defer rows.Close()

	var records []simulation.GenerationRecord
	for rows.Next() {
		var r simulation.GenerationRecord
		var degenerate int
		if err := rows.Scan(&r.Generation, &r.WinnerID, &r.WinnerSlot, &r.CoalitionSize, &r.Supporters,
			&r.WinnerAlpha, &r.WinnerPosition, &r.MeanAlpha, &r.MeanPosition, &degenerate); err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		r.Degenerate = degenerate != 0
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
