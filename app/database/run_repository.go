package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ RunRepository = (*SQLiteRunRepository)(nil)

const runColumns = `id, source, status, started_at, finished_at, candidates, extracted, added, error`

type SQLiteRunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *SQLiteRunRepository {
	return &SQLiteRunRepository{db: db}
}

func (r *SQLiteRunRepository) CreateRun(ctx context.Context, run Run) error {
	status := run.Status
	if status == "" {
		status = RunStatusRunning
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, status, started_at)
		VALUES (?, ?, ?, ?)
	`, run.ID, run.Source, string(status), run.StartedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

func (r *SQLiteRunRepository) FinishRun(ctx context.Context, id string, result RunResult) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, finished_at = ?, candidates = ?, extracted = ?, added = ?, error = ?
		WHERE id = ?
	`, string(result.Status), time.Now().UTC().UnixMilli(),
		result.Candidates, result.Extracted, result.Added, result.Error, id)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", id)
	}

	return nil
}

func (r *SQLiteRunRepository) GetRecentRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run rows: %w", err)
	}

	return runs, nil
}

func (r *SQLiteRunRepository) GetLastSuccessfulRun(ctx context.Context) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE status = ?
		ORDER BY started_at DESC
		LIMIT 1
	`, string(RunStatusSuccess))

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last successful run: %w", err)
	}

	return run, nil
}

func (r *SQLiteRunRepository) GetRunCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get run count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var status string
	var startedAt int64
	var finishedAt sql.NullInt64

	err := row.Scan(
		&run.ID, &run.Source, &status, &startedAt, &finishedAt,
		&run.Candidates, &run.Extracted, &run.Added, &run.Error,
	)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.StartedAt = time.UnixMilli(startedAt).UTC()
	if finishedAt.Valid {
		t := time.UnixMilli(finishedAt.Int64).UTC()
		run.FinishedAt = &t
	}

	return &run, nil
}
