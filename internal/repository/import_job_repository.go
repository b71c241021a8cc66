package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/geotax/api/internal/database"
	"github.com/geotax/api/internal/models"
)

// ImportJobRepository defines the interface for import job bookkeeping.
type ImportJobRepository interface {
	// Create inserts a fresh PENDING job and returns it.
	Create(ctx context.Context) (*models.ImportJob, error)

	// GetByID returns the job, or nil, nil when it does not exist.
	GetByID(ctx context.Context, id int64) (*models.ImportJob, error)

	// List returns all jobs, newest first.
	List(ctx context.Context) ([]models.ImportJob, error)

	// MarkProcessing claims a PENDING job: sets PROCESSING, started_at and
	// the total row count. Returns false when the job was not PENDING, which
	// signals a replayed delivery that must be skipped.
	MarkProcessing(ctx context.Context, id int64, totalRows int) (bool, error)

	// UpdateProgress persists the running counters and error report.
	UpdateProgress(ctx context.Context, id int64, processed, success, failed int, report []models.ImportError) error

	// Complete transitions the job to COMPLETED and stamps finished_at.
	Complete(ctx context.Context, id int64) error

	// Fail transitions the job to FAILED with the final error report.
	Fail(ctx context.Context, id int64, report []models.ImportError) error
}

type importJobRepository struct {
	db *database.Database
}

// NewImportJobRepository creates a new instance of ImportJobRepository.
func NewImportJobRepository(db *database.Database) ImportJobRepository {
	return &importJobRepository{db: db}
}

const importJobColumns = `id, status, total_rows, processed_rows, success_rows, failed_rows, error_report, created_at, started_at, finished_at`

func (r *importJobRepository) Create(ctx context.Context) (*models.ImportJob, error) {
	query := fmt.Sprintf(`INSERT INTO import_jobs DEFAULT VALUES RETURNING %s`, importJobColumns)
	job, err := scanImportJob(r.db.Pool.QueryRow(ctx, query))
	if err != nil {
		return nil, fmt.Errorf("failed to create import job: %w", err)
	}
	return job, nil
}

func (r *importJobRepository) GetByID(ctx context.Context, id int64) (*models.ImportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM import_jobs WHERE id = $1`, importJobColumns)
	job, err := scanImportJob(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query import job %d: %w", id, err)
	}
	return job, nil
}

func (r *importJobRepository) List(ctx context.Context) ([]models.ImportJob, error) {
	query := fmt.Sprintf(`SELECT %s FROM import_jobs ORDER BY id DESC`, importJobColumns)
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query import jobs: %w", err)
	}
	defer rows.Close()

	jobs := []models.ImportJob{}
	for rows.Next() {
		job, err := scanImportJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import job row: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import job rows: %w", err)
	}
	return jobs, nil
}

func (r *importJobRepository) MarkProcessing(ctx context.Context, id int64, totalRows int) (bool, error) {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE import_jobs
		SET status = $1, started_at = now(), total_rows = $2
		WHERE id = $3 AND status = $4`,
		models.JobStatusProcessing, totalRows, id, models.JobStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to claim import job %d: %w", id, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *importJobRepository) UpdateProgress(ctx context.Context, id int64, processed, success, failed int, report []models.ImportError) error {
	encoded, err := encodeErrorReport(report)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		UPDATE import_jobs
		SET processed_rows = $1, success_rows = $2, failed_rows = $3, error_report = $4
		WHERE id = $5`,
		processed, success, failed, encoded, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update import job %d progress: %w", id, err)
	}
	return nil
}

func (r *importJobRepository) Complete(ctx context.Context, id int64) error {
	_, err := r.db.Pool.Exec(ctx, `
		UPDATE import_jobs SET status = $1, finished_at = now() WHERE id = $2`,
		models.JobStatusCompleted, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete import job %d: %w", id, err)
	}
	return nil
}

func (r *importJobRepository) Fail(ctx context.Context, id int64, report []models.ImportError) error {
	encoded, err := encodeErrorReport(report)
	if err != nil {
		return err
	}
	_, err = r.db.Pool.Exec(ctx, `
		UPDATE import_jobs SET status = $1, finished_at = now(), error_report = $2 WHERE id = $3`,
		models.JobStatusFailed, encoded, id,
	)
	if err != nil {
		return fmt.Errorf("failed to fail import job %d: %w", id, err)
	}
	return nil
}

func encodeErrorReport(report []models.ImportError) ([]byte, error) {
	if report == nil {
		report = []models.ImportError{}
	}
	encoded, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode error report: %w", err)
	}
	return encoded, nil
}

func scanImportJob(row pgx.Row) (*models.ImportJob, error) {
	var job models.ImportJob
	var report []byte

	err := row.Scan(
		&job.ID,
		&job.Status,
		&job.TotalRows,
		&job.ProcessedRows,
		&job.SuccessRows,
		&job.FailedRows,
		&report,
		&job.CreatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(report, &job.ErrorReport); err != nil {
		return nil, fmt.Errorf("failed to decode error report for job %d: %w", job.ID, err)
	}
	return &job, nil
}
