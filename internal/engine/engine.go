// Package engine owns job lifecycle, the bounded-parallel worker pool,
// progress reporting, cancellation, and streaming emission of results.
package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/scenario"
	"github.com/dunebase/casugen/internal/serialize"
	"github.com/dunebase/casugen/internal/temporal"
)

// JobStore is the persistence collaborator the engine's lifecycle hooks
// talk to; it is never touched from inside a worker.
type JobStore interface {
	Create(ctx context.Context, job *models.Job) error
	UpdateProgress(ctx context.Context, jobID string, percent int, detail string) error
	Finish(ctx context.Context, jobID string, status models.JobStatus, errMsg string, outputPaths []string, summary *models.Summary) error
	Get(ctx context.Context, jobID string) (*models.Job, error)
}

// Notifier is the ops-alerting collaborator invoked on job failure/cancellation.
type Notifier interface {
	NotifyJobFailed(ctx context.Context, job *models.Job, cause error)
	NotifyJobCancelled(ctx context.Context, job *models.Job)
}

// Config bundles the tunables the engine needs beyond the catalog/resolver.
type Config struct {
	DefaultParallelism int           // 0 => derive from host topology, capped
	MaxParallelism     int           // ceiling applied to the derived default
	OutputDirectory    string
	JobTimeout         time.Duration // default 3600s
}

// Engine runs generation jobs end to end: resolve -> distribute -> pool ->
// serialize -> persist. Each in-flight job gets its own cancel-func rather
// than a single global on/off switch, so jobs can be cancelled
// independently.
type Engine struct {
	catalog  *catalog.Catalog
	resolver *scenario.Resolver
	store    JobStore
	notifier Notifier
	metrics  *Metrics
	cfg      Config
	logger   *log.Logger

	mu      sync.RWMutex
	cancels map[string]context.CancelFunc

	totalSubmitted int64
	totalCompleted int64
	totalFailed    int64
	totalCancelled int64
}

func New(cat *catalog.Catalog, resolver *scenario.Resolver, store JobStore, notifier Notifier, cfg Config) *Engine {
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 3600 * time.Second
	}
	return &Engine{
		catalog:  cat,
		resolver: resolver,
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		logger:   log.Default(),
		cancels:  make(map[string]context.CancelFunc),
	}
}

func (e *Engine) SetLogger(l *log.Logger) { e.logger = l }

// SetMetrics attaches the OTel/Prometheus instrument set; nil is safe and
// makes every recording call a no-op, so metrics remain optional.
func (e *Engine) SetMetrics(m *Metrics) { e.metrics = m }

// Submit persists a new Job in PENDING and returns its id immediately; the
// actual run is started by RunAsync (normally invoked by the dispatcher
// that polls for PENDING jobs).
func (e *Engine) Submit(ctx context.Context, cfg models.UserConfig) (*models.Job, *models.ValidationErrorSet) {
	// Resolution runs at submit time so invalid configs are rejected before
	// a Job row is even created: no disk state is mutated on a failed
	// resolution.
	if _, errs := e.resolver.Resolve(cfg); errs.HasErrors() {
		return nil, errs
	}

	job := &models.Job{
		JobID:           uuid.New().String(),
		Status:          models.JobPending,
		Config:          cfg,
		ProgressDetail:  "queued",
		CreatedAt:       time.Now(),
	}
	if err := e.store.Create(ctx, job); err != nil {
		errs := &models.ValidationErrorSet{}
		errs.Add("job", fmt.Sprintf("failed to persist job: %v", err))
		return nil, errs
	}
	e.totalSubmitted++
	e.metrics.recordSubmitted(ctx)
	return job, nil
}

// RunAsync starts the job's execution in a new goroutine, observing the
// configured whole-job timeout and any later explicit Cancel call.
func (e *Engine) RunAsync(job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.JobTimeout)
	e.mu.Lock()
	e.cancels[job.JobID] = cancel
	e.mu.Unlock()

	go func() {
		defer func() {
			e.mu.Lock()
			delete(e.cancels, job.JobID)
			e.mu.Unlock()
			cancel()
		}()
		e.run(ctx, job)
	}()
}

// Cancel requests cooperative cancellation of a running job; observed at
// chunk boundaries and channel sends.
func (e *Engine) Cancel(jobID string) bool {
	e.mu.RLock()
	cancel, ok := e.cancels[jobID]
	e.mu.RUnlock()
	if !ok {
		return false
	}
	cancel()
	return true
}

func (e *Engine) run(ctx context.Context, job *models.Job) {
	runStart := time.Now()
	ctx, endSpan := e.metrics.StartPhase(ctx, job.JobID, "run")
	defer endSpan()

	resolved, errs := e.resolver.Resolve(job.Config)
	if errs.HasErrors() {
		e.fail(ctx, job, models.NewPipelineError(models.ErrConfigValidation, "scenario no longer resolves", errs))
		return
	}

	now := time.Now()
	job.StartedAt = &now
	job.Status = models.JobRunning
	e.touch(ctx, job, 0, "scheduling")

	outputDir := filepath.Join(e.cfg.OutputDirectory, job.JobID)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		e.fail(ctx, job, models.NewPipelineError(models.ErrIOFailure, "creating output directory", err))
		return
	}

	e.touch(ctx, job, 1, "distributing events")
	_, endDist := e.metrics.StartPhase(ctx, job.JobID, "distribute")
	events, err := temporal.Distribute(resolved)
	endDist()
	if err != nil {
		e.fail(ctx, job, models.NewPipelineError(models.ErrSimulationInvariant, "distributing events", err))
		cleanupDir(outputDir)
		return
	}

	parallelism := e.parallelism()

	writers, outputPaths, closeAll, err := e.openWriters(outputDir, resolved)
	if err != nil {
		e.fail(ctx, job, models.NewPipelineError(models.ErrIOFailure, "opening output writers", err))
		cleanupDir(outputDir)
		return
	}

	summary := serialize.NewSummaryAccumulator()
	total := len(events)
	lastReport := time.Now()

	sink := func(p *models.Patient) error {
		summary.Add(p)
		for _, w := range writers {
			if err := w.Write(p); err != nil {
				return err
			}
		}
		return nil
	}

	onProgress := func(completed int) {
		if time.Since(lastReport) < 250*time.Millisecond && completed != total {
			return
		}
		lastReport = time.Now()
		percent := int(float64(completed) / float64(total) * 100)
		e.touch(ctx, job, percent, "generating")
	}

	e.touch(ctx, job, 2, "generating")
	_, endGenerate := e.metrics.StartPhase(ctx, job.JobID, "generate")
	e.metrics.workerStarted(parallelism)
	runErr := runPipeline(ctx, resolved, e.catalog, events, parallelism, sink, onProgress)
	e.metrics.workerStopped(parallelism)
	endGenerate()

	closeErr := closeAll()
	if runErr == nil {
		runErr = closeErr
	}

	if runErr != nil {
		if models.IsCancelled(runErr) || ctx.Err() == context.Canceled {
			e.cancelled(ctx, job)
			e.metrics.recordFinished(ctx, models.JobCancelled, time.Since(runStart), 0)
		} else {
			e.fail(ctx, job, runErr)
			e.metrics.recordFinished(ctx, models.JobFailed, time.Since(runStart), 0)
		}
		cleanupDir(outputDir)
		return
	}

	job.Status = models.JobCompleted
	job.Summary = summary.Finish()
	job.OutputPaths = outputPaths
	finished := time.Now()
	job.FinishedAt = &finished
	job.ProgressPercent = 100
	job.ProgressDetail = "completed"
	if err := e.store.Finish(ctx, job.JobID, models.JobCompleted, "", outputPaths, job.Summary); err != nil {
		e.logger.Printf("[Engine] job %s completed but failed to persist final state: %v", job.JobID, err)
	}
	e.totalCompleted++
	e.metrics.recordFinished(ctx, models.JobCompleted, time.Since(runStart), total)
	e.logger.Printf("[Engine] job %s completed: %d patients", job.JobID, total)
}

func (e *Engine) parallelism() int {
	p := e.cfg.DefaultParallelism
	if p <= 0 {
		counts, err := cpu.Counts(true)
		if err != nil || counts <= 0 {
			counts = 1
		}
		p = counts
	}
	if e.cfg.MaxParallelism > 0 && p > e.cfg.MaxParallelism {
		p = e.cfg.MaxParallelism
	}
	if p < 1 {
		p = 1
	}
	return p
}

func (e *Engine) touch(ctx context.Context, job *models.Job, percent int, detail string) {
	job.Touch(percent, detail)
	if err := e.store.UpdateProgress(ctx, job.JobID, job.ProgressPercent, job.ProgressDetail); err != nil {
		e.logger.Printf("[Engine] job %s progress update failed: %v", job.JobID, err)
	}
}

func (e *Engine) fail(ctx context.Context, job *models.Job, cause error) {
	job.Status = models.JobFailed
	job.Error = cause.Error()
	finished := time.Now()
	job.FinishedAt = &finished
	if err := e.store.Finish(ctx, job.JobID, models.JobFailed, cause.Error(), nil, nil); err != nil {
		e.logger.Printf("[Engine] job %s failed but could not persist failure state: %v", job.JobID, err)
	}
	e.totalFailed++
	e.logger.Printf("[Engine] job %s FAILED: %v", job.JobID, cause)
	if e.notifier != nil {
		e.notifier.NotifyJobFailed(context.Background(), job, cause)
	}
}

func (e *Engine) cancelled(ctx context.Context, job *models.Job) {
	job.Status = models.JobCancelled
	finished := time.Now()
	job.FinishedAt = &finished
	if err := e.store.Finish(ctx, job.JobID, models.JobCancelled, "", nil, nil); err != nil {
		e.logger.Printf("[Engine] job %s cancelled but could not persist state: %v", job.JobID, err)
	}
	e.totalCancelled++
	e.logger.Printf("[Engine] job %s cancelled", job.JobID)
	if e.notifier != nil {
		e.notifier.NotifyJobCancelled(context.Background(), job)
	}
}

func cleanupDir(dir string) {
	_ = os.RemoveAll(dir)
}

// GetStats returns a free-form status snapshot for operational introspection.
func (e *Engine) GetStats() map[string]interface{} {
	e.mu.RLock()
	inFlight := len(e.cancels)
	e.mu.RUnlock()
	return map[string]interface{}{
		"total_submitted": e.totalSubmitted,
		"total_completed": e.totalCompleted,
		"total_failed":    e.totalFailed,
		"total_cancelled": e.totalCancelled,
		"in_flight":       inFlight,
	}
}
