// Package runstore persists experiment history in SQLite.
//
// A Store keeps one row per generation run plus one row per attacked
// sample, giving cheap SQL access to robustness trends across
// experiments. Raw vectors are not stored here; artifact snapshots
// carry those.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hupe1980/advgo/eval"
)

// ErrNotFound is returned when a run ID has no stored history.
var ErrNotFound = errors.New("run not found")

// ErrNilReport is returned when SaveReport is called with nil.
var ErrNilReport = errors.New("nil report")

// timeLayout is RFC 3339 with a fixed-width fraction so lexicographic
// order stays chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	attack          TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	samples         INTEGER NOT NULL,
	succeeded       INTEGER NOT NULL,
	errored         INTEGER NOT NULL,
	success_rate    REAL NOT NULL,
	mean_distance   REAL NOT NULL,
	median_distance REAL NOT NULL,
	total_queries   INTEGER NOT NULL,
	mean_queries    REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS samples (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	sample_index   INTEGER NOT NULL,
	original_label INTEGER NOT NULL,
	final_label    INTEGER NOT NULL,
	success        INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	distance       REAL NOT NULL,
	queries        INTEGER NOT NULL,
	iterations     INTEGER NOT NULL,
	error          TEXT NOT NULL DEFAULT '',
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_samples_run ON samples(run_id);
`

// Store manages experiment history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database, creating it if needed, and runs
// migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// One pooled connection: sqlite serializes writers anyway, and the
	// pragmas below are per-connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveReport persists the run summary and its per-sample records in
// one transaction.
func (s *Store) SaveReport(ctx context.Context, r *eval.Report) error {
	if r == nil {
		return ErrNilReport
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs
		 (run_id, attack, created_at, samples, succeeded, errored,
		  success_rate, mean_distance, median_distance, total_queries, mean_queries)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID.String(),
		r.Attack,
		r.CreatedAt.UTC().Format(timeLayout),
		r.Samples,
		r.Succeeded,
		r.Errored,
		r.SuccessRate,
		r.MeanDistance,
		r.MedianDistance,
		r.TotalQueries,
		r.MeanQueries,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples
		 (run_id, sample_index, original_label, final_label, success,
		  status, distance, queries, iterations, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare samples: %w", err)
	}
	defer stmt.Close()

	for _, rec := range r.Records {
		success := 0
		if rec.Success {
			success = 1
		}

		if _, err := stmt.ExecContext(ctx,
			r.RunID.String(),
			rec.Index,
			rec.OriginalLabel,
			rec.FinalLabel,
			success,
			rec.Status,
			rec.Distance,
			rec.Queries,
			rec.Iterations,
			rec.Error,
		); err != nil {
			return fmt.Errorf("insert sample %d: %w", rec.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

// Run returns the stored report for a run ID, records included.
func (s *Store) Run(ctx context.Context, runID uuid.UUID) (*eval.Report, error) {
	r := &eval.Report{RunID: runID}

	var createdStr string

	err := s.db.QueryRowContext(ctx,
		`SELECT attack, created_at, samples, succeeded, errored,
		        success_rate, mean_distance, median_distance, total_queries, mean_queries
		 FROM runs WHERE run_id = ?`, runID.String(),
	).Scan(&r.Attack, &createdStr, &r.Samples, &r.Succeeded, &r.Errored,
		&r.SuccessRate, &r.MeanDistance, &r.MedianDistance, &r.TotalQueries, &r.MeanQueries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", runID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT sample_index, original_label, final_label, success,
		        status, distance, queries, iterations, error
		 FROM samples WHERE run_id = ? ORDER BY sample_index`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("list samples: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec eval.Record
		var success int

		if err := rows.Scan(&rec.Index, &rec.OriginalLabel, &rec.FinalLabel, &success,
			&rec.Status, &rec.Distance, &rec.Queries, &rec.Iterations, &rec.Error); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}

		rec.Success = success != 0
		r.Records = append(r.Records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return r, nil
}

// RecentRuns returns run summaries ordered newest first, without
// per-sample records. A limit <= 0 returns all runs.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]*eval.Report, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, attack, created_at, samples, succeeded, errored,
		        success_rate, mean_distance, median_distance, total_queries, mean_queries
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var reports []*eval.Report

	for rows.Next() {
		r := &eval.Report{}

		var idStr, createdStr string

		if err := rows.Scan(&idStr, &r.Attack, &createdStr, &r.Samples, &r.Succeeded, &r.Errored,
			&r.SuccessRate, &r.MeanDistance, &r.MedianDistance, &r.TotalQueries, &r.MeanQueries); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}

		r.RunID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse run id: %w", err)
		}

		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}

		reports = append(reports, r)
	}

	return reports, rows.Err()
}

// DeleteRun removes a run and its samples. Deleting an unknown run is
// not an error.
func (s *Store) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID.String()); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}

	return nil
}

// LabelStat aggregates attack outcomes for one original label across
// all stored runs.
type LabelStat struct {
	Label        int
	Samples      int
	Succeeded    int
	SuccessRate  float64
	MeanDistance float64
}

// LabelStats breaks outcomes down by original label across all runs,
// hardest labels first. MeanDistance covers successful samples only.
func (s *Store) LabelStats(ctx context.Context) ([]LabelStat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT original_label,
		       COUNT(*),
		       SUM(success),
		       COALESCE(AVG(CASE WHEN success = 1 THEN distance END), 0)
		FROM samples
		GROUP BY original_label
		ORDER BY CAST(SUM(success) AS REAL) / COUNT(*), original_label`)
	if err != nil {
		return nil, fmt.Errorf("label stats: %w", err)
	}
	defer rows.Close()

	var stats []LabelStat

	for rows.Next() {
		var st LabelStat

		if err := rows.Scan(&st.Label, &st.Samples, &st.Succeeded, &st.MeanDistance); err != nil {
			return nil, fmt.Errorf("scan label stat: %w", err)
		}

		if st.Samples > 0 {
			st.SuccessRate = float64(st.Succeeded) / float64(st.Samples)
		}

		stats = append(stats, st)
	}

	return stats, rows.Err()
}
