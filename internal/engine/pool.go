package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dunebase/casugen/internal/casualty"
	"github.com/dunebase/casugen/internal/catalog"
	"github.com/dunebase/casugen/internal/flow"
	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/rng"
)

// chunkBufferSize is the per-worker channel depth; with P workers the total
// in-flight backpressure buffer is ~P*chunkBufferSize.
const chunkBufferSize = 64

// partition splits events into P contiguous slices by event_id, so output
// order can be reconstructed by draining chunks in order, without a global
// sort.
func partition(events []models.InjuryEvent, p int) [][]models.InjuryEvent {
	if p < 1 {
		p = 1
	}
	if p > len(events) {
		p = len(events)
	}
	if p == 0 {
		return nil
	}
	chunks := make([][]models.InjuryEvent, p)
	base := len(events) / p
	rem := len(events) % p
	start := 0
	for i := 0; i < p; i++ {
		size := base
		if i < rem {
			size++
		}
		chunks[i] = events[start : start+size]
		start += size
	}
	return chunks
}

// runPipeline fans work out across P workers, each running synthesis then
// flow simulation over its contiguous chunk, and merges their output back
// into ascending event_id order by draining one worker's channel fully
// before the next.
// sink is called once per finished patient, strictly in event_id order;
// onProgress is called after each patient with the running completed count.
func runPipeline(ctx context.Context, s *models.ResolvedScenario, cat *catalog.Catalog, events []models.InjuryEvent, p int, sink func(*models.Patient) error, onProgress func(completed int)) error {
	chunks := partition(events, p)
	if len(chunks) == 0 {
		return nil
	}

	chans := make([]chan *models.Patient, len(chunks))
	for i := range chans {
		chans[i] = make(chan *models.Patient, chunkBufferSize)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			defer close(chans[i])
			stream := rng.New(s.Seed, i)
			for j := range chunk {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				patient, err := casualty.Synthesize(&chunk[j], s, cat, stream)
				if err != nil {
					return models.NewPipelineError(models.ErrSimulationInvariant, "synthesizing casualty", err)
				}
				if err := flow.Simulate(patient, s, cat, stream); err != nil {
					return err
				}
				select {
				case chans[i] <- patient:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	completed := 0
	merge := func() error {
		for i := range chans {
			for patient := range chans[i] {
				if err := sink(patient); err != nil {
					return models.NewPipelineError(models.ErrIOFailure, "writing patient record", err)
				}
				completed++
				onProgress(completed)
			}
		}
		return nil
	}

	var mergeErr error
	done := make(chan struct{})
	go func() {
		mergeErr = merge()
		close(done)
	}()

	workerErr := g.Wait()
	<-done

	if workerErr != nil {
		if ctx.Err() != nil && !models.IsCancelled(workerErr) {
			return models.NewPipelineError(models.ErrCancelled, "job cancelled", ctx.Err())
		}
		return workerErr
	}
	if mergeErr != nil {
		return mergeErr
	}
	if completed != len(events) {
		return models.NewPipelineError(models.ErrSimulationInvariant, fmt.Sprintf("expected %d patients, produced %d", len(events), completed), nil)
	}
	return nil
}
