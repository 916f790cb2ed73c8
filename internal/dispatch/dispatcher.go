// Package dispatch polls the job store for PENDING jobs and starts their
// runs on the engine, so a submission returns its job_id immediately while
// the actual generation happens out of band.
package dispatch

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dunebase/casugen/internal/models"
)

// DefaultPollInterval is how often the dispatcher checks for newly queued jobs.
const DefaultPollInterval = 2 * time.Second

// PendingJobSource is the subset of the job store the dispatcher needs: a
// way to find queued work and claim it before starting a run.
type PendingJobSource interface {
	ListPending(ctx context.Context, limit int) ([]*models.Job, error)
	Claim(ctx context.Context, jobID string) (bool, error)
}

// Runner starts a claimed job's execution; satisfied by *engine.Engine.
type Runner interface {
	RunAsync(job *models.Job)
}

// Status is a point-in-time snapshot of the dispatcher's poll loop.
type Status struct {
	Running       bool       `json:"running"`
	LastPoll      *time.Time `json:"last_poll,omitempty"`
	TotalDispatched int64    `json:"total_dispatched"`
	Errors        int64      `json:"errors"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
}

// JobDispatcher polls PendingJobSource on a fixed interval and hands claimed
// jobs to Runner, one goroutine per claimed job.
type JobDispatcher struct {
	store        PendingJobSource
	runner       Runner
	pollInterval time.Duration
	batchSize    int

	running   int32
	lastPoll  atomic.Value // time.Time
	dispatched int64
	errors    int64
	startedAt time.Time

	stopCh chan struct{}
	doneCh chan struct{}

	mu     sync.RWMutex
	logger *log.Logger
}

func NewJobDispatcher(store PendingJobSource, runner Runner, pollInterval time.Duration, batchSize int) *JobDispatcher {
	if pollInterval == 0 {
		pollInterval = DefaultPollInterval
	}
	if batchSize <= 0 {
		batchSize = 10
	}
	return &JobDispatcher{
		store:        store,
		runner:       runner,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		logger:       log.Default(),
	}
}

func (d *JobDispatcher) SetLogger(l *log.Logger) { d.logger = l }

// Start begins the polling loop; calling Start twice on an already-running
// dispatcher is a no-op.
func (d *JobDispatcher) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&d.running, 0, 1) {
		return nil
	}
	d.startedAt = time.Now()
	d.logger.Printf("[Dispatcher] starting with poll interval %v", d.pollInterval)
	go d.pollLoop(ctx)
	return nil
}

// Stop halts the polling loop and waits for the in-flight poll to finish.
func (d *JobDispatcher) Stop() {
	if atomic.CompareAndSwapInt32(&d.running, 1, 0) {
		close(d.stopCh)
		<-d.doneCh
		d.logger.Println("[Dispatcher] stopped")
	}
}

func (d *JobDispatcher) IsRunning() bool {
	return atomic.LoadInt32(&d.running) == 1
}

func (d *JobDispatcher) GetStatus() Status {
	s := Status{
		Running:         d.IsRunning(),
		TotalDispatched: atomic.LoadInt64(&d.dispatched),
		Errors:          atomic.LoadInt64(&d.errors),
	}
	if s.Running {
		s.StartedAt = &d.startedAt
	}
	if v := d.lastPoll.Load(); v != nil {
		t := v.(time.Time)
		s.LastPoll = &t
	}
	return s
}

func (d *JobDispatcher) pollLoop(ctx context.Context) {
	defer close(d.doneCh)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	d.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *JobDispatcher) poll(ctx context.Context) {
	jobs, err := d.store.ListPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Printf("[Dispatcher] error listing pending jobs: %v", err)
		atomic.AddInt64(&d.errors, 1)
		return
	}
	if len(jobs) == 0 {
		d.lastPoll.Store(time.Now())
		return
	}

	d.logger.Printf("[Dispatcher] found %d pending job(s)", len(jobs))

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		go func(j *models.Job) {
			defer wg.Done()
			d.dispatch(ctx, j)
		}(job)
	}
	wg.Wait()

	d.lastPoll.Store(time.Now())
}

func (d *JobDispatcher) dispatch(ctx context.Context, job *models.Job) {
	claimed, err := d.store.Claim(ctx, job.JobID)
	if err != nil {
		d.logger.Printf("[Dispatcher] error claiming job %s: %v", job.JobID, err)
		atomic.AddInt64(&d.errors, 1)
		return
	}
	if !claimed {
		// another dispatcher instance (or replica) already took it.
		return
	}
	atomic.AddInt64(&d.dispatched, 1)
	d.logger.Printf("[Dispatcher] dispatching job %s", job.JobID)
	d.runner.RunAsync(job)
}
