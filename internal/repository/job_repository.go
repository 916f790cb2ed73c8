// Package repository is the Postgres persistence layer for jobs: plain
// database/sql + lib/pq, explicit Scan, sql.ErrNoRows mapped to a
// package-level sentinel error.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/dunebase/casugen/internal/models"
)

var ErrJobNotFound = errors.New("job not found")

// JobRepository persists Job records and answers the queries the engine,
// dispatcher, and HTTP handlers need.
type JobRepository struct {
	db *sql.DB
}

func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job row in PENDING, persisting immediately so a
// submission returns its job_id before generation has started.
func (r *JobRepository) Create(ctx context.Context, job *models.Job) error {
	configJSON, err := json.Marshal(job.Config)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO jobs (id, status, config, progress_percent, progress_detail, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = r.db.ExecContext(ctx, query, job.JobID, job.Status, configJSON, job.ProgressPercent, job.ProgressDetail, job.CreatedAt)
	return err
}

// UpdateProgress advances the progress fields of a RUNNING job.
func (r *JobRepository) UpdateProgress(ctx context.Context, jobID string, percent int, detail string) error {
	query := `
		UPDATE jobs SET progress_percent = $1, progress_detail = $2
		WHERE id = $3 AND status = $4
	`
	_, err := r.db.ExecContext(ctx, query, percent, detail, jobID, models.JobRunning)
	return err
}

// Finish transitions a job to a terminal status and records its final
// output paths and summary (both nil unless status is COMPLETED).
func (r *JobRepository) Finish(ctx context.Context, jobID string, status models.JobStatus, errMsg string, outputPaths []string, summary *models.Summary) error {
	var outputJSON, summaryJSON []byte
	var err error
	if outputPaths != nil {
		outputJSON, err = json.Marshal(outputPaths)
		if err != nil {
			return err
		}
	}
	if summary != nil {
		summaryJSON, err = json.Marshal(summary)
		if err != nil {
			return err
		}
	}

	query := `
		UPDATE jobs SET status = $1, error = $2, output_paths = $3, summary = $4,
			finished_at = $5, progress_percent = CASE WHEN $1 = $6 THEN 100 ELSE progress_percent END
		WHERE id = $7
	`
	_, err = r.db.ExecContext(ctx, query, status, nullIfEmpty(errMsg), nullIfNil(outputJSON), nullIfNil(summaryJSON), time.Now(), models.JobCompleted, jobID)
	return err
}

// Get retrieves a single job by id.
func (r *JobRepository) Get(ctx context.Context, jobID string) (*models.Job, error) {
	query := `
		SELECT id, status, config, progress_percent, progress_detail, created_at,
			started_at, finished_at, error, output_paths, summary
		FROM jobs WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, jobID)
	return scanJob(row)
}

// List returns the most recently created jobs, newest first.
func (r *JobRepository) List(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	query := `
		SELECT id, status, config, progress_percent, progress_detail, created_at,
			started_at, finished_at, error, output_paths, summary
		FROM jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ListPending returns up to limit jobs still awaiting a worker, oldest first.
func (r *JobRepository) ListPending(ctx context.Context, limit int) ([]*models.Job, error) {
	query := `
		SELECT id, status, config, progress_percent, progress_detail, created_at,
			started_at, finished_at, error, output_paths, summary
		FROM jobs WHERE status = $1 ORDER BY created_at ASC LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, models.JobPending, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Claim atomically transitions a job from PENDING to RUNNING, so two
// dispatcher replicas racing on the same row only one wins.
func (r *JobRepository) Claim(ctx context.Context, jobID string) (bool, error) {
	query := `
		UPDATE jobs SET status = $1, started_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, models.JobRunning, time.Now(), jobID, models.JobPending)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

// Purge deletes terminal jobs older than olderThan, per the operator-facing
// retention sweep.
func (r *JobRepository) Purge(ctx context.Context, olderThan time.Time) (int, error) {
	query := `
		DELETE FROM jobs WHERE finished_at IS NOT NULL AND finished_at < $1
	`
	result, err := r.db.ExecContext(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var configJSON []byte
	var outputJSON, summaryJSON sql.NullString
	var startedAt, finishedAt sql.NullTime
	var errMsg sql.NullString

	err := row.Scan(
		&job.JobID, &job.Status, &configJSON, &job.ProgressPercent, &job.ProgressDetail,
		&job.CreatedAt, &startedAt, &finishedAt, &errMsg, &outputJSON, &summaryJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(configJSON, &job.Config); err != nil {
		return nil, err
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if outputJSON.Valid {
		if err := json.Unmarshal([]byte(outputJSON.String), &job.OutputPaths); err != nil {
			return nil, err
		}
	}
	if summaryJSON.Valid {
		job.Summary = &models.Summary{}
		if err := json.Unmarshal([]byte(summaryJSON.String), job.Summary); err != nil {
			return nil, err
		}
	}

	return &job, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullIfNil(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}
