// Package catalog keeps a sqlite ledger of completed pipeline runs.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/oxygene76/windcloud/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	mode        TEXT NOT NULL,
	name        TEXT NOT NULL,
	snapshots   INTEGER NOT NULL DEFAULT 0,
	output_path TEXT NOT NULL DEFAULT '',
	started_at  INTEGER NOT NULL,
	finished_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs (started_at);
`

// ErrNotFound is returned by Get for an unknown run id
var ErrNotFound = errors.New("run not found")

// Run is one catalog row. Times are Unix nanoseconds.
type Run struct {
	RunID      string `json:"run_id"`
	Mode       string `json:"mode"`
	Name       string `json:"name"`
	Snapshots  int    `json:"snapshots"`
	OutputPath string `json:"output_path"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

// Duration returns how long the run took
func (r *Run) Duration() time.Duration {
	return time.Duration(r.FinishedAt - r.StartedAt)
}

// Catalog stores runs in a sqlite database
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record stores a completed run under a fresh id.
func (c *Catalog) Record(s *types.RunSummary) (*Run, error) {
	run := &Run{
		RunID:      uuid.New().String(),
		Mode:       s.Mode,
		Name:       s.Name,
		Snapshots:  s.Snapshots,
		OutputPath: s.OutputPath,
		StartedAt:  s.StartedAt.UnixNano(),
		FinishedAt: s.FinishedAt.UnixNano(),
	}
	_, err := c.db.Exec(`
		INSERT INTO runs (run_id, mode, name, snapshots, output_path, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Mode, run.Name, run.Snapshots, run.OutputPath, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

// Get returns the run with the given id
func (c *Catalog) Get(id string) (*Run, error) {
	row := c.db.QueryRow(`
		SELECT run_id, mode, name, snapshots, output_path, started_at, finished_at
		FROM runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return run, err
}

// List returns runs, newest first. A limit of zero or less returns all.
func (c *Catalog) List(limit int) ([]*Run, error) {
	query := `
		SELECT run_id, mode, name, snapshots, output_path, started_at, finished_at
		FROM runs ORDER BY started_at DESC, run_id`
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (*Run, error) {
	var r Run
	if err := s.Scan(&r.RunID, &r.Mode, &r.Name, &r.Snapshots, &r.OutputPath, &r.StartedAt, &r.FinishedAt); err != nil {
		return nil, err
	}
	return &r, nil
}
