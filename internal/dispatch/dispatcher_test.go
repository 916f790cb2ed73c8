package dispatch

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/dunebase/casugen/internal/models"
)

type fakeSource struct {
	mu      sync.Mutex
	pending []*models.Job
	claimed map[string]bool
	listErr error
}

func (f *fakeSource) ListPending(ctx context.Context, limit int) ([]*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*models.Job
	for _, j := range f.pending {
		if !f.claimed[j.JobID] {
			out = append(out, j)
		}
	}
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeSource) Claim(ctx context.Context, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed == nil {
		f.claimed = map[string]bool{}
	}
	if f.claimed[jobID] {
		return false, nil
	}
	f.claimed[jobID] = true
	return true, nil
}

type fakeRunner struct {
	mu  sync.Mutex
	ran []string
}

func (r *fakeRunner) RunAsync(job *models.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ran = append(r.ran, job.JobID)
}

func (r *fakeRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ran)
}

func newTestDispatcher(source PendingJobSource, runner Runner, interval time.Duration) *JobDispatcher {
	d := NewJobDispatcher(source, runner, interval, 10)
	d.SetLogger(log.New(&discardSink{}, "", 0))
	return d
}

type discardSink struct{}

func (discardSink) Write(p []byte) (int, error) { return len(p), nil }

func TestDispatcherDispatchesPendingJobsOnStart(t *testing.T) {
	source := &fakeSource{pending: []*models.Job{{JobID: "job-1"}, {JobID: "job-2"}}}
	runner := &fakeRunner{}
	d := newTestDispatcher(source, runner, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && runner.count() < 2 {
		time.Sleep(10 * time.Millisecond)
	}
	if runner.count() != 2 {
		t.Fatalf("dispatched %d jobs, want 2", runner.count())
	}

	status := d.GetStatus()
	if status.TotalDispatched != 2 {
		t.Fatalf("TotalDispatched = %d, want 2", status.TotalDispatched)
	}
}

func TestDispatcherSkipsAlreadyClaimedJob(t *testing.T) {
	source := &fakeSource{pending: []*models.Job{{JobID: "job-1"}}, claimed: map[string]bool{"job-1": true}}
	runner := &fakeRunner{}
	d := newTestDispatcher(source, runner, time.Hour)
	d.poll(context.Background())

	if runner.count() != 0 {
		t.Fatalf("dispatched %d jobs, want 0 (already claimed)", runner.count())
	}
}

func TestDispatcherRecordsErrorOnListFailure(t *testing.T) {
	source := &fakeSource{listErr: errors.New("db down")}
	runner := &fakeRunner{}
	d := newTestDispatcher(source, runner, time.Hour)
	d.poll(context.Background())

	status := d.GetStatus()
	if status.Errors != 1 {
		t.Fatalf("Errors = %d, want 1", status.Errors)
	}
}

func TestDispatcherStartIsIdempotentAndStopWorks(t *testing.T) {
	source := &fakeSource{}
	runner := &fakeRunner{}
	d := newTestDispatcher(source, runner, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("first Start failed: %v", err)
	}
	if err := d.Start(ctx); err != nil {
		t.Fatalf("second Start should be a no-op, got: %v", err)
	}
	if !d.IsRunning() {
		t.Fatal("dispatcher should report running")
	}
	d.Stop()
	if d.IsRunning() {
		t.Fatal("dispatcher should report stopped")
	}
}

func TestGetStatusReflectsLastPollAfterIdlePoll(t *testing.T) {
	source := &fakeSource{}
	runner := &fakeRunner{}
	d := newTestDispatcher(source, runner, time.Hour)
	d.poll(context.Background())

	status := d.GetStatus()
	if status.LastPoll == nil {
		t.Fatal("LastPoll should be set after a poll with no pending jobs")
	}
}
