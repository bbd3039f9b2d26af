package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/passagesearch/internal/models"
)

// SQLiteStorage implements RunStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS ingestion_runs (
		id TEXT PRIMARY KEY,
		index_name TEXT NOT NULL,
		source TEXT NOT NULL,
		batch_size INTEGER NOT NULL,
		max_documents INTEGER NOT NULL,
		cap_policy TEXT NOT NULL,
		total_indexed INTEGER NOT NULL DEFAULT 0,
		failed_batches INTEGER NOT NULL DEFAULT 0,
		batches INTEGER NOT NULL DEFAULT 0,
		skipped_records INTEGER NOT NULL DEFAULT 0,
		cap_reached BOOLEAN NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_index_started ON ingestion_runs(index_name, started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON ingestion_runs(started_at);
	`
	_, err := db.Exec(schema)
	return err
}

const runColumns = `id, index_name, source, batch_size, max_documents, cap_policy,
	total_indexed, failed_batches, batches, skipped_records, cap_reached,
	status, error, started_at, finished_at`

// RecordRun upserts run by id.
func (s *SQLiteStorage) RecordRun(ctx context.Context, run *models.IngestionRun) error {
	var finished sql.NullTime
	if !run.FinishedAt.IsZero() {
		finished = sql.NullTime{Time: run.FinishedAt.UTC(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ingestion_runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			total_indexed = excluded.total_indexed,
			failed_batches = excluded.failed_batches,
			batches = excluded.batches,
			skipped_records = excluded.skipped_records,
			cap_reached = excluded.cap_reached,
			status = excluded.status,
			error = excluded.error,
			finished_at = excluded.finished_at`,
		run.ID, run.Index, run.Source, run.BatchSize, run.MaxDocuments, string(run.CapPolicy),
		run.TotalIndexed, run.FailedBatches, run.Batches, run.SkippedRecords, run.CapReached,
		string(run.Status), run.Error, run.StartedAt.UTC(), finished,
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.IngestionRun, error) {
	var (
		run      models.IngestionRun
		policy   string
		status   string
		finished sql.NullTime
	)
	err := row.Scan(&run.ID, &run.Index, &run.Source, &run.BatchSize, &run.MaxDocuments, &policy,
		&run.TotalIndexed, &run.FailedBatches, &run.Batches, &run.SkippedRecords, &run.CapReached,
		&status, &run.Error, &run.StartedAt, &finished)
	if err != nil {
		return nil, err
	}
	run.CapPolicy = models.CapPolicy(policy)
	run.Status = models.RunStatus(status)
	if finished.Valid {
		run.FinishedAt = finished.Time
	}
	return &run, nil
}

// GetRun returns a run by id.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*models.IngestionRun, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM ingestion_runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A non-positive limit returns 20.
func (s *SQLiteStorage) ListRuns(ctx context.Context, index string, limit int) ([]*models.IngestionRun, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + runColumns + ` FROM ingestion_runs`
	args := []any{}
	if index != "" {
		query += ` WHERE index_name = ?`
		args = append(args, index)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*models.IngestionRun, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// LastRun returns the newest run of index, or nil.
func (s *SQLiteStorage) LastRun(ctx context.Context, index string) (*models.IngestionRun, error) {
	runs, err := s.ListRuns(ctx, index, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return runs[0], nil
}

// Close closes the database.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

var _ RunStore = (*SQLiteStorage)(nil)
