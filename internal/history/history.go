// Package history persists validation gate runs so rule-set authors can
// see accuracy drift across rule-set and extractor changes.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Run is one recorded harness gate run.
type Run struct {
	ID             string    `json:"id"`
	StartedAt      time.Time `json:"started_at"`
	Phase          string    `json:"phase"`
	Corpus         string    `json:"corpus"`
	RuleSetVersion string    `json:"rule_set_version"`
	Total          int       `json:"total"`
	Passed         int       `json:"passed"`
	HardFailures   int       `json:"hard_failures"`
	Accuracy       float64   `json:"accuracy"`
	Consistency    float64   `json:"consistency"`
	Threshold      float64   `json:"threshold"`
	GatePassed     bool      `json:"gate_passed"`
}

// Store keeps gate runs in a local SQLite database.
type Store struct {
	db      *sql.DB
	entropy *rand.Rand
}

// Open opens or creates the history database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id               TEXT PRIMARY KEY,
		started_at       TEXT NOT NULL,
		phase            TEXT NOT NULL,
		corpus           TEXT NOT NULL,
		ruleset_version  TEXT NOT NULL,
		total            INTEGER NOT NULL,
		passed           INTEGER NOT NULL,
		hard_failures    INTEGER NOT NULL,
		accuracy         REAL NOT NULL,
		consistency      REAL NOT NULL,
		threshold        REAL NOT NULL,
		gate_passed      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_phase ON runs(phase);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// Record inserts one gate run and returns it with its assigned id.
func (s *Store) Record(ctx context.Context, run Run) (Run, error) {
	run.ID = s.newID()
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	gate := 0
	if run.GatePassed {
		gate = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, phase, corpus, ruleset_version,
			total, passed, hard_failures, accuracy, consistency, threshold, gate_passed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.Phase, run.Corpus, run.RuleSetVersion,
		run.Total, run.Passed, run.HardFailures, run.Accuracy, run.Consistency, run.Threshold, gate)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Recent returns the most recent runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, phase, corpus, ruleset_version,
		       total, passed, hard_failures, accuracy, consistency, threshold, gate_passed
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run     Run
			started string
			gate    int
		)
		if err := rows.Scan(&run.ID, &started, &run.Phase, &run.Corpus, &run.RuleSetVersion,
			&run.Total, &run.Passed, &run.HardFailures, &run.Accuracy, &run.Consistency, &run.Threshold, &gate); err != nil {
			return nil, err
		}
		run.StartedAt, _ = time.Parse(time.RFC3339, started)
		run.GatePassed = gate == 1
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
