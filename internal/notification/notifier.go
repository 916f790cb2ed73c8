package notification

import (
	"context"
	"log"

	"github.com/dunebase/casugen/internal/models"
)

// OpsNotifier satisfies engine.Notifier by enqueuing alerts for async
// delivery, so a Slack/Twilio outage never blocks the engine's own job
// lifecycle bookkeeping.
type OpsNotifier struct {
	queue  *AlertQueueWorker
	logger *log.Logger
}

func NewOpsNotifier(queue *AlertQueueWorker) *OpsNotifier {
	return &OpsNotifier{queue: queue, logger: log.Default()}
}

func (n *OpsNotifier) SetLogger(l *log.Logger) { n.logger = l }

func (n *OpsNotifier) NotifyJobFailed(ctx context.Context, job *models.Job, cause error) {
	if err := n.queue.Enqueue(ctx, job.JobID, AlertJobFailed, cause.Error()); err != nil {
		n.logger.Printf("[Notifier] failed to enqueue failure alert for job %s: %v", job.JobID, err)
	}
}

func (n *OpsNotifier) NotifyJobCancelled(ctx context.Context, job *models.Job) {
	if err := n.queue.Enqueue(ctx, job.JobID, AlertJobCancelled, "job cancelled"); err != nil {
		n.logger.Printf("[Notifier] failed to enqueue cancellation alert for job %s: %v", job.JobID, err)
	}
}
