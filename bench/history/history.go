// Package history keeps an index of completed sweeps in a SQLite database
// shared by all benchmarks of a repository.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/adept-bench/benchctl/bench/simulate"
)

// startedAtLayout is fixed width so that text order is time order.
const startedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SweepSummary is one row of the index.
type SweepSummary struct {
	SweepID   string
	Benchmark string
	RunID     string
	StartedAt time.Time
	Total     int
	Succeeded int
	Failed    int
}

// Summarize condenses a finished metadata document.
func Summarize(runID string, doc *simulate.MetadataDocument) (SweepSummary, error) {
	started, err := time.Parse(time.RFC3339Nano, doc.Timestamp)
	if err != nil {
		return SweepSummary{}, fmt.Errorf("parsing sweep timestamp %q: %w", doc.Timestamp, err)
	}
	ok := doc.Succeeded()
	return SweepSummary{
		SweepID:   doc.SweepID,
		Benchmark: doc.Benchmark,
		RunID:     runID,
		StartedAt: started,
		Total:     len(doc.Runs),
		Succeeded: ok,
		Failed:    len(doc.Runs) - ok,
	}, nil
}

// Store is an open history database.
type Store struct {
	db *sql.DB
}

// Open creates the database file and schema if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history at %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS sweeps (
		sweep_id   TEXT PRIMARY KEY,
		benchmark  TEXT NOT NULL,
		run_id     TEXT NOT NULL,
		started_at TEXT NOT NULL,
		total      INTEGER NOT NULL,
		succeeded  INTEGER NOT NULL,
		failed     INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sweeps_benchmark ON sweeps(benchmark, started_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error { return s.db.Close() }

// RecordSweep inserts or replaces the row for s.SweepID.
func (s *Store) RecordSweep(ctx context.Context, sum SweepSummary) error {
	if sum.SweepID == "" {
		return fmt.Errorf("recording sweep: empty sweep id")
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO sweeps (sweep_id, benchmark, run_id, started_at, total, succeeded, failed)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sum.SweepID, sum.Benchmark, sum.RunID, sum.StartedAt.UTC().Format(startedAtLayout),
		sum.Total, sum.Succeeded, sum.Failed)
	if err != nil {
		return fmt.Errorf("recording sweep %s: %w", sum.SweepID, err)
	}
	return nil
}

// List returns sweeps oldest first, restricted to benchmark unless it is "".
func (s *Store) List(ctx context.Context, benchmark string) ([]SweepSummary, error) {
	query := `SELECT sweep_id, benchmark, run_id, started_at, total, succeeded, failed FROM sweeps`
	var args []any
	if benchmark != "" {
		query += ` WHERE benchmark = ?`
		args = append(args, benchmark)
	}
	query += ` ORDER BY started_at, sweep_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing sweeps: %w", err)
	}
	defer rows.Close()

	var out []SweepSummary
	for rows.Next() {
		var sum SweepSummary
		var started string
		if err := rows.Scan(&sum.SweepID, &sum.Benchmark, &sum.RunID, &started, &sum.Total, &sum.Succeeded, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scanning sweep: %w", err)
		}
		if sum.StartedAt, err = time.Parse(startedAtLayout, started); err != nil {
			return nil, fmt.Errorf("sweep %s: bad started_at %q: %w", sum.SweepID, started, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
