package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// SchemaVersion is the current schema version.
const SchemaVersion = 1

// schemaV1 is the initial results schema.
const schemaV1 = `
-- One row per simulation run
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    seed INTEGER NOT NULL,
    config TEXT NOT NULL,   -- JSON
    started_at TEXT NOT NULL,
    finished_at TEXT,
    summary TEXT            -- JSON, set when the run finishes
);

-- Per-generation time series
CREATE TABLE IF NOT EXISTS generations (
    run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    generation INTEGER NOT NULL,
    winner_id INTEGER NOT NULL,
    winner_slot INTEGER NOT NULL,
    coalition_size INTEGER NOT NULL,
    supporters INTEGER NOT NULL,
    winner_alpha REAL NOT NULL,
    winner_position REAL NOT NULL,
    mean_alpha REAL NOT NULL,
    mean_position REAL NOT NULL,
    degenerate INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, generation)
);

-- Candidate trajectories (the pool that contested each generation)
CREATE TABLE IF NOT EXISTS candidates (
    run_id TEXT NOT NULL,
    generation INTEGER NOT NULL,
    slot INTEGER NOT NULL,
    candidate_id INTEGER NOT NULL,
    parent_id INTEGER NOT NULL,
    born_generation INTEGER NOT NULL,
    alpha REAL NOT NULL,
    position REAL NOT NULL,
    supporters INTEGER NOT NULL,
    coalition_size INTEGER NOT NULL,
    payoff_variance REAL NOT NULL,
    high_variance INTEGER NOT NULL DEFAULT 0,
    total_utility REAL NOT NULL,
    fitness INTEGER NOT NULL,
    PRIMARY KEY (run_id, generation, slot),
    FOREIGN KEY (run_id, generation) REFERENCES generations(run_id, generation) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_candidates_id ON candidates(run_id, candidate_id);

-- Individual ballots (opt-in)
CREATE TABLE IF NOT EXISTS votes (
    run_id TEXT NOT NULL,
    generation INTEGER NOT NULL,
    voter_id INTEGER NOT NULL,
    risk TEXT NOT NULL,      -- 'safe', 'risk'
    position REAL NOT NULL,
    choice INTEGER NOT NULL, -- slot
    in_coalition INTEGER NOT NULL DEFAULT 0,
    utility REAL NOT NULL,   -- realized utility for the chosen slot
    PRIMARY KEY (run_id, generation, voter_id),
    FOREIGN KEY (run_id, generation) REFERENCES generations(run_id, generation) ON DELETE CASCADE
);

-- Schema version
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// InitSchema initializes the database schema.
// Runs integrity validation on existing databases.
func InitSchema(ctx context.Context, db *sql.DB) error {
	currentVersion, err := getSchemaVersion(ctx, db)
	if err != nil {
		// Schema version table doesn't exist yet, create fresh schema
		if err := createSchema(ctx, db); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
		return nil
	}

	if err := ValidateIntegrity(ctx, db); err != nil {
		return fmt.Errorf("database integrity check failed: %w", err)
	}

	if currentVersion > SchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", currentVersion, SchemaVersion)
	}
	return nil
}

// getSchemaVersion returns the current schema version from the database.
// Returns 0 and an error if the schema_version table doesn't exist.
func getSchemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var version int
	err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return tx.Commit()
}

// ValidateIntegrity runs PRAGMA integrity_check and PRAGMA foreign_key_check,
// then checks that every stored run has a gap-free generation sequence with
// candidate rows for each generation.
func ValidateIntegrity(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `PRAGMA integrity_check`)
	if err != nil {
		return fmt.Errorf("failed to run integrity_check: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var result string
		if err := rows.Scan(&result); err != nil {
			return fmt.Errorf("failed to scan integrity_check result: %w", err)
		}
		if result != "ok" {
			return fmt.Errorf("integrity_check failed: %s", result)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fkRows, err := db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("failed to run foreign_key_check: %w", err)
	}
	defer fkRows.Close()

	var fkErrors []string
	for fkRows.Next() {
		var table, parent string
		var rowid, fkid sql.NullInt64
		if err := fkRows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("failed to scan foreign_key_check result: %w", err)
		}
		fkErrors = append(fkErrors, fmt.Sprintf("table=%s rowid=%d parent=%s fkid=%d", table, rowid.Int64, parent, fkid.Int64))
	}
	if len(fkErrors) > 0 {
		return fmt.Errorf("foreign_key_check failed: %v", fkErrors)
	}
	if err := fkRows.Err(); err != nil {
		return err
	}

	return checkRunContinuity(ctx, db)
}

// checkRunContinuity reports runs whose generations are not numbered 0..n-1
// and generations that have no candidate rows.
func checkRunContinuity(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, COUNT(*), MIN(generation), MAX(generation)
		FROM generations
		GROUP BY run_id
		HAVING MIN(generation) != 0 OR MAX(generation) != COUNT(*) - 1`)
	if err != nil {
		return fmt.Errorf("failed to check generation sequence: %w", err)
	}
	defer rows.Close()

	var gaps []string
	for rows.Next() {
		var runID string
		var count, lo, hi int
		if err := rows.Scan(&runID, &count, &lo, &hi); err != nil {
			return fmt.Errorf("failed to scan generation sequence: %w", err)
		}
		gaps = append(gaps, fmt.Sprintf("run=%s generations=%d range=[%d, %d]", runID, count, lo, hi))
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(gaps) > 0 {
		return fmt.Errorf("run continuity check failed: missing generations: %v", gaps)
	}

	var runID string
	var generation int
	err = db.QueryRowContext(ctx, `
		SELECT g.run_id, g.generation
		FROM generations g
		WHERE NOT EXISTS (
			SELECT 1 FROM candidates c WHERE c.run_id = g.run_id AND c.generation = g.generation
		)
		LIMIT 1`).Scan(&runID, &generation)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check candidate rows: %w", err)
	default:
		return fmt.Errorf("run continuity check failed: run=%s generation=%d has no candidates", runID, generation)
	}
}
