package engine

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/scenario"
)

type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]*models.Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: map[string]*models.Job{}}
}

func (f *fakeStore) Create(ctx context.Context, job *models.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs[job.JobID] = &cp
	return nil
}

func (f *fakeStore) UpdateProgress(ctx context.Context, jobID string, percent int, detail string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[jobID]; ok {
		j.ProgressPercent = percent
		j.ProgressDetail = detail
	}
	return nil
}

func (f *fakeStore) Finish(ctx context.Context, jobID string, status models.JobStatus, errMsg string, outputPaths []string, summary *models.Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if j, ok := f.jobs[jobID]; ok {
		j.Status = status
		j.Error = errMsg
		j.OutputPaths = outputPaths
		j.Summary = summary
	}
	return nil
}

func (f *fakeStore) Get(ctx context.Context, jobID string) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[jobID]
	if !ok {
		return nil, context.DeadlineExceeded
	}
	cp := *j
	return &cp, nil
}

type fakeNotifier struct {
	mu        sync.Mutex
	failed    int
	cancelled int
}

func (f *fakeNotifier) NotifyJobFailed(ctx context.Context, job *models.Job, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failed++
}

func (f *fakeNotifier) NotifyJobCancelled(ctx context.Context, job *models.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled++
}

func testCatalogForEngine(t *testing.T) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load failed: %v", err)
	}
	return cat
}

func validUserConfig() models.UserConfig {
	return models.UserConfig{
		TotalPatients: 20,
		Days:          1,
		BaseDate:      "2026-01-01",
		InjuryMix:     models.InjuryMix{Disease: 0.2, NonBattle: 0.3, Battle: 0.5},
		Fronts: []models.Front{
			{
				Name:          "north",
				CasualtyShare: 1.0,
				NationalityDistribution: []models.NationalityShare{
					{Nationality: "coalition_alpha", Percent: 100},
				},
			},
		},
		Overrides: models.Overrides{
			Intensity: models.IntensityMedium,
			Tempo:     models.TempoSustained,
		},
	}
}

func newTestEngine(t *testing.T, store JobStore, notifier Notifier) *Engine {
	t.Helper()
	cat := testCatalogForEngine(t)
	resolver := scenario.New(cat, 0)
	cfg := Config{
		DefaultParallelism: 2,
		MaxParallelism:     4,
		OutputDirectory:    t.TempDir(),
		JobTimeout:         30 * time.Second,
	}
	e := New(cat, resolver, store, notifier, cfg)
	e.SetLogger(log.New(&discard{}, "", 0))
	return e
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestSubmitRejectsInvalidConfig(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), &fakeNotifier{})
	cfg := validUserConfig()
	cfg.BaseDate = "not-a-date"
	job, errs := e.Submit(context.Background(), cfg)
	if job != nil {
		t.Fatal("Submit should not return a job for an invalid config")
	}
	if errs == nil || !errs.HasErrors() {
		t.Fatal("Submit should return validation errors for an invalid config")
	}
}

func TestSubmitPersistsPendingJob(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, &fakeNotifier{})
	job, errs := e.Submit(context.Background(), validUserConfig())
	if errs != nil {
		t.Fatalf("Submit returned errors: %v", errs.Errors)
	}
	if job.Status != models.JobPending {
		t.Fatalf("job.Status = %v, want PENDING", job.Status)
	}
	if job.JobID == "" {
		t.Fatal("job.JobID not populated")
	}
	if _, ok := store.jobs[job.JobID]; !ok {
		t.Fatal("Submit did not persist the job via the store")
	}
}

func TestRunAsyncCompletesJobSuccessfully(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, &fakeNotifier{})
	job, errs := e.Submit(context.Background(), validUserConfig())
	if errs != nil {
		t.Fatalf("Submit returned errors: %v", errs.Errors)
	}

	e.RunAsync(job)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		store.mu.Lock()
		status := store.jobs[job.JobID].Status
		store.mu.Unlock()
		if status.IsTerminal() {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	store.mu.Lock()
	finished := store.jobs[job.JobID]
	store.mu.Unlock()

	if finished.Status != models.JobCompleted {
		t.Fatalf("job.Status = %v, want COMPLETED (error: %s)", finished.Status, finished.Error)
	}
	if finished.Summary == nil {
		t.Fatal("completed job has no summary")
	}
	if finished.Summary.TotalPatients != 20 {
		t.Fatalf("Summary.TotalPatients = %d, want 20", finished.Summary.TotalPatients)
	}
	if len(finished.OutputPaths) == 0 {
		t.Fatal("completed job has no output paths")
	}
}

func TestCancelUnknownJobReturnsFalse(t *testing.T) {
	e := newTestEngine(t, newFakeStore(), &fakeNotifier{})
	if e.Cancel("does-not-exist") {
		t.Fatal("Cancel should return false for an unknown job id")
	}
}

func TestGetStatsReflectsSubmittedJobs(t *testing.T) {
	store := newFakeStore()
	e := newTestEngine(t, store, &fakeNotifier{})
	if _, errs := e.Submit(context.Background(), validUserConfig()); errs != nil {
		t.Fatalf("Submit returned errors: %v", errs.Errors)
	}
	stats := e.GetStats()
	if stats["total_submitted"].(int64) != 1 {
		t.Fatalf("total_submitted = %v, want 1", stats["total_submitted"])
	}
}
