package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mediaconv/internal/conversion"
	"mediaconv/internal/services"
)

// Store persists run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one journaled invocation with per-status counts.
type Run struct {
	ID        string
	Root      string
	Engine    string
	Started   time.Time
	Finished  time.Time
	Matched   int
	Planned   int
	Succeeded int
	Failed    int
	Skipped   int
	Canceled  int
}

// Complete reports whether the run reached FinishRun.
func (r Run) Complete() bool {
	return !r.Finished.IsZero()
}

// Entry is one journaled job outcome.
type Entry struct {
	RunID         string
	Index         int
	Source        string
	Target        string
	Status        conversion.Status
	Error         string
	Reason        string
	SourceRemoved bool
	Started       time.Time
	Finished      time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the journal database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "journal", "open", "journal path is empty", nil)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Pragmas are per connection; one connection keeps them in force.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun inserts the run row.
func (s *Store) BeginRun(ctx context.Context, info conversion.RunInfo) error {
	if strings.TrimSpace(info.ID) == "" {
		return services.Wrap(services.ErrValidation, "journal", "begin run", "run id is empty", nil)
	}
	return s.exec(ctx,
		`INSERT INTO runs (id, root, engine, started_at, matched, planned) VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID, info.Root, info.Engine, formatTime(info.Started), info.Matched, info.Planned,
	)
}

// RecordOutcome appends one job outcome to runID.
func (s *Store) RecordOutcome(ctx context.Context, runID string, outcome conversion.Outcome) error {
	if strings.TrimSpace(runID) == "" {
		return services.Wrap(services.ErrValidation, "journal", "record outcome", "run id is empty", nil)
	}
	var errMessage string
	if outcome.Err != nil {
		errMessage = outcome.Err.Error()
	}
	return s.exec(ctx,
		`INSERT INTO outcomes (run_id, job_index, source, target, status, error_message, reason, source_removed, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		outcome.Job.Index,
		outcome.Job.Source,
		outcome.Job.Target,
		string(outcome.Status),
		nullableString(errMessage),
		nullableString(outcome.Reason),
		boolToInt(outcome.SourceRemoved),
		nullableTime(outcome.Started),
		nullableTime(outcome.Finished),
	)
}

// FinishRun stamps the run's finish time.
func (s *Store) FinishRun(ctx context.Context, summary conversion.Summary) error {
	finished := summary.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `UPDATE runs SET finished_at = ? WHERE id = ?`, formatTime(finished), summary.ID)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return services.Wrap(services.ErrNotFound, "journal", "finish run", "run "+summary.ID+" not found", nil)
	}
	return nil
}

const runColumns = `r.id, r.root, r.engine, r.started_at, r.finished_at, r.matched, r.planned,
	COALESCE(SUM(o.status = 'succeeded'), 0),
	COALESCE(SUM(o.status = 'failed'), 0),
	COALESCE(SUM(o.status = 'skipped'), 0),
	COALESCE(SUM(o.status = 'canceled'), 0)`

// ListRuns returns the most recent runs, newest first. A limit of zero or
// less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + `
		FROM runs r LEFT JOIN outcomes o ON o.run_id = r.id
		GROUP BY r.id
		ORDER BY r.started_at DESC, r.rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by id, accepting a unique id prefix.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return Run{}, services.Wrap(services.ErrValidation, "journal", "get run", "run id is empty", nil)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+`
		FROM runs r LEFT JOIN outcomes o ON o.run_id = r.id
		WHERE r.id = ? OR r.id LIKE ? || '%'
		GROUP BY r.id
		LIMIT 2`, id, id)
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return Run{}, err
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	switch len(matches) {
	case 0:
		return Run{}, services.Wrap(services.ErrNotFound, "journal", "get run", "no run matches "+id, sql.ErrNoRows)
	case 1:
		return matches[0], nil
	default:
		return Run{}, services.Wrap(services.ErrValidation, "journal", "get run", "run id prefix "+id+" is ambiguous", nil)
	}
}

// RunOutcomes returns the outcomes of runID in job order.
func (s *Store) RunOutcomes(ctx context.Context, runID string) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, job_index, source, target, status, error_message, reason, source_removed, started_at, finished_at
		 FROM outcomes WHERE run_id = ? ORDER BY job_index, id`, runID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry              Entry
			status             string
			errMessage, reason sql.NullString
			started, finished  sql.NullString
			removed            int
		)
		if err := rows.Scan(&entry.RunID, &entry.Index, &entry.Source, &entry.Target, &status,
			&errMessage, &reason, &removed, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		entry.Status = conversion.Status(status)
		entry.Error = errMessage.String
		entry.Reason = reason.String
		entry.SourceRemoved = removed != 0
		entry.Started = parseNullTime(started)
		entry.Finished = parseNullTime(finished)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
	)
	if err := row.Scan(&run.ID, &run.Root, &run.Engine, &started, &finished, &run.Matched, &run.Planned,
		&run.Succeeded, &run.Failed, &run.Skipped, &run.Canceled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, services.Wrap(services.ErrNotFound, "journal", "scan run", "run not found", err)
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if t, err := parseTimeString(started); err == nil {
		run.Started = t
	}
	run.Finished = parseNullTime(finished)
	return run, nil
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
