// Package state persists conversion run history.
package state

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Run is one conversion invocation, recorded after the job finishes (or
// fails to start).
type Run struct {
	ID          int64
	SessionID   string
	InputPath   string
	OutputDir   string
	Interpreter string
	Started     bool
	ExitCode    int
	PDFs        int
	StartTS     time.Time
	Duration    time.Duration
}

// Totals aggregates lifetime counters for the setup screen.
type Totals struct {
	Runs      int
	Succeeded int
	PDFs      int
}

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	stmt := `CREATE TABLE IF NOT EXISTS conversion_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		input_path TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		interpreter TEXT NOT NULL,
		started INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		pdf_count INTEGER NOT NULL DEFAULT 0,
		start_ts TEXT NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);`
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordRun(ctx context.Context, run Run) (int64, error) {
	started := 0
	if run.Started {
		started = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversion_runs(session_id, input_path, output_dir, interpreter, started, exit_code, pdf_count, start_ts, duration_ms)
		 VALUES(?,?,?,?,?,?,?,?,?)`,
		run.SessionID,
		run.InputPath,
		run.OutputDir,
		run.Interpreter,
		started,
		run.ExitCode,
		run.PDFs,
		run.StartTS.UTC().Format(timeLayout),
		run.Duration.Milliseconds(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, input_path, output_dir, interpreter, started, exit_code, pdf_count, start_ts, duration_ms
		 FROM conversion_runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			started    int
			ts         string
			durationMS int64
		)
		if err := rows.Scan(&run.ID, &run.SessionID, &run.InputPath, &run.OutputDir, &run.Interpreter,
			&started, &run.ExitCode, &run.PDFs, &ts, &durationMS); err != nil {
			return nil, err
		}
		run.Started = started != 0
		run.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(timeLayout, ts); err == nil {
			run.StartTS = t
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Totals(ctx context.Context) (Totals, error) {
	var t Totals
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN started = 1 AND exit_code = 0 THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(pdf_count), 0)
		 FROM conversion_runs`)
	if err := row.Scan(&t.Runs, &t.Succeeded, &t.PDFs); err != nil {
		return Totals{}, err
	}
	return t, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
