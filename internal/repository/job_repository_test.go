package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dunebase/casugen/internal/models"
)

func newMockRepo(t *testing.T) (*JobRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewJobRepository(db), mock
}

func TestJobRepositoryCreateInsertsRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	job := &models.Job{
		JobID:     "job-1",
		Status:    models.JobPending,
		CreatedAt: time.Now(),
	}

	mock.ExpectExec("INSERT INTO jobs").
		WithArgs(job.JobID, job.Status, sqlmock.AnyArg(), job.ProgressPercent, job.ProgressDetail, job.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), job)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryGetReturnsErrJobNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery("SELECT id, status, config").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryGetScansRow(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	cols := []string{
		"id", "status", "config", "progress_percent", "progress_detail", "created_at",
		"started_at", "finished_at", "error", "output_paths", "summary",
	}
	rows := sqlmock.NewRows(cols).AddRow(
		"job-1", models.JobRunning, []byte(`{"total_patients":10}`), 42, "generating", now,
		nil, nil, nil, nil, nil,
	)
	mock.ExpectQuery("SELECT id, status, config").
		WithArgs("job-1").
		WillReturnRows(rows)

	job, err := repo.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, models.JobRunning, job.Status)
	assert.Equal(t, 42, job.ProgressPercent)
	assert.Equal(t, 10, job.Config.TotalPatients)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryClaimReturnsFalseWhenNoRowsAffected(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs(models.JobRunning, sqlmock.AnyArg(), "job-1", models.JobPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claimed, err := repo.Claim(context.Background(), "job-1")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryClaimReturnsTrueOnSuccess(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs(models.JobRunning, sqlmock.AnyArg(), "job-1", models.JobPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	claimed, err := repo.Claim(context.Background(), "job-1")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryListReturnsJobs(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{
		"id", "status", "config", "progress_percent", "progress_detail", "created_at",
		"started_at", "finished_at", "error", "output_paths", "summary",
	}
	rows := sqlmock.NewRows(cols).
		AddRow("job-2", models.JobCompleted, []byte(`{}`), 100, "done", time.Now(), nil, nil, nil, nil, nil).
		AddRow("job-1", models.JobPending, []byte(`{}`), 0, "", time.Now(), nil, nil, nil, nil, nil)

	mock.ExpectQuery("SELECT id, status, config").
		WithArgs(50, 0).
		WillReturnRows(rows)

	jobs, err := repo.List(context.Background(), 50, 0)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)
	assert.Equal(t, "job-2", jobs[0].JobID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepositoryFinishMarksCompletedAndSetsSummary(t *testing.T) {
	repo, mock := newMockRepo(t)
	summary := &models.Summary{TotalPatients: 5}

	mock.ExpectExec("UPDATE jobs SET status").
		WithArgs(models.JobCompleted, nil, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), models.JobCompleted, "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Finish(context.Background(), "job-1", models.JobCompleted, "", []string{"a.ndjson"}, summary)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
