package repository

import (
	"context"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dunebase/casugen/internal/models"
)

// BreakerStore wraps JobRepository's writes with a circuit breaker so a
// struggling database degrades a job run to FAILED quickly instead of
// hanging every worker's progress update against a dead connection pool.
type BreakerStore struct {
	repo    *JobRepository
	breaker *gobreaker.CircuitBreaker
}

func NewBreakerStore(repo *JobRepository) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        "job-repository",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 10 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
	}
	return &BreakerStore{repo: repo, breaker: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerStore) Create(ctx context.Context, job *models.Job) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.repo.Create(ctx, job)
	})
	return err
}

func (b *BreakerStore) UpdateProgress(ctx context.Context, jobID string, percent int, detail string) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.repo.UpdateProgress(ctx, jobID, percent, detail)
	})
	return err
}

func (b *BreakerStore) Finish(ctx context.Context, jobID string, status models.JobStatus, errMsg string, outputPaths []string, summary *models.Summary) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.repo.Finish(ctx, jobID, status, errMsg, outputPaths, summary)
	})
	return err
}

func (b *BreakerStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.repo.Get(ctx, jobID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Job), nil
}

func (b *BreakerStore) ListPending(ctx context.Context, limit int) ([]*models.Job, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.repo.ListPending(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Job), nil
}

func (b *BreakerStore) Claim(ctx context.Context, jobID string) (bool, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.repo.Claim(ctx, jobID)
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

func (b *BreakerStore) List(ctx context.Context, limit, offset int) ([]*models.Job, error) {
	v, err := b.breaker.Execute(func() (interface{}, error) {
		return b.repo.List(ctx, limit, offset)
	})
	if err != nil {
		return nil, err
	}
	return v.([]*models.Job), nil
}
