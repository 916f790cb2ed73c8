// Package notification delivers ops alerts (Slack + SMS paging) when a
// generation job fails or is cancelled, queued through Redis with
// exponential-backoff retry.
package notification

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	alertQueueKey      = "casugen:alert_queue"
	alertProcessingKey = "casugen:alert_processing"
	maxAlertRetries    = 3
	baseAlertBackoff   = 1 * time.Second
)

// AlertKind distinguishes the two job-lifecycle events that page ops.
type AlertKind string

const (
	AlertJobFailed    AlertKind = "job_failed"
	AlertJobCancelled AlertKind = "job_cancelled"
)

// AlertItem is one queued ops notification.
type AlertItem struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	Kind        AlertKind  `json:"kind"`
	Detail      string     `json:"detail"`
	Retries     int        `json:"retries"`
	CreatedAt   time.Time  `json:"created_at"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`
}

// AlertQueueWorker drains queued alerts from Redis and delivers them via
// Slack and SMS, retrying failed deliveries with exponential backoff.
type AlertQueueWorker struct {
	redis *redis.Client
	slack *SlackClient
	sms   *SMSClient

	running         int32
	totalProcessed  int64
	totalSuccessful int64
	totalFailed     int64

	stopCh chan struct{}
	doneCh chan struct{}

	logger       *log.Logger
	pollInterval time.Duration
	batchSize    int
}

func NewAlertQueueWorker(redisClient *redis.Client, slackClient *SlackClient, smsClient *SMSClient) *AlertQueueWorker {
	return &AlertQueueWorker{
		redis:        redisClient,
		slack:        slackClient,
		sms:          smsClient,
		stopCh:       make(chan struct{}),
		doneCh:       make(chan struct{}),
		logger:       log.Default(),
		pollInterval: 5 * time.Second,
		batchSize:    10,
	}
}

func (w *AlertQueueWorker) SetLogger(l *log.Logger) { w.logger = l }

func (w *AlertQueueWorker) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&w.running, 0, 1) {
		return nil
	}
	w.logger.Println("[AlertQueue] starting alert queue worker")
	go w.processLoop(ctx)
	return nil
}

func (w *AlertQueueWorker) Stop() {
	if atomic.CompareAndSwapInt32(&w.running, 1, 0) {
		close(w.stopCh)
		<-w.doneCh
		w.logger.Println("[AlertQueue] stopped")
	}
}

func (w *AlertQueueWorker) IsRunning() bool { return atomic.LoadInt32(&w.running) == 1 }

// Enqueue pushes one alert onto the Redis-backed queue.
func (w *AlertQueueWorker) Enqueue(ctx context.Context, jobID string, kind AlertKind, detail string) error {
	item := &AlertItem{
		ID:        uuid.New().String(),
		JobID:     jobID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now(),
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return w.redis.LPush(ctx, alertQueueKey, payload).Err()
}

func (w *AlertQueueWorker) processLoop(ctx context.Context) {
	defer close(w.doneCh)
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.processQueue(ctx)
		}
	}
}

func (w *AlertQueueWorker) processQueue(ctx context.Context) {
	for i := 0; i < w.batchSize; i++ {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		default:
		}

		result, err := w.redis.RPopLPush(ctx, alertQueueKey, alertProcessingKey).Result()
		if err != nil {
			if err == redis.Nil {
				return
			}
			w.logger.Printf("[AlertQueue] error popping queue: %v", err)
			return
		}

		var item AlertItem
		if err := json.Unmarshal([]byte(result), &item); err != nil {
			w.logger.Printf("[AlertQueue] error unmarshalling item: %v", err)
			w.redis.LRem(ctx, alertProcessingKey, 1, result)
			continue
		}

		if item.NextRetryAt != nil && time.Now().Before(*item.NextRetryAt) {
			w.requeue(ctx, &item, result)
			continue
		}

		w.deliver(ctx, &item, result)
	}
}

func (w *AlertQueueWorker) deliver(ctx context.Context, item *AlertItem, rawPayload string) {
	atomic.AddInt64(&w.totalProcessed, 1)

	text := item.Detail
	var slackErr, smsErr error
	if w.slack != nil {
		slackErr = w.slack.PostAlert(item.JobID, text)
	}
	if w.sms != nil {
		smsErr = w.sms.PageOnCall(ctx, BuildAlertMessage(item.JobID, string(item.Kind), item.Detail))
	}

	if slackErr == nil && smsErr == nil {
		atomic.AddInt64(&w.totalSuccessful, 1)
		w.logger.Printf("[AlertQueue] delivered %s alert for job %s", item.Kind, item.JobID)
		w.redis.LRem(ctx, alertProcessingKey, 1, rawPayload)
		return
	}

	item.Retries++
	w.logger.Printf("[AlertQueue] delivery failed for job %s (attempt %d/%d): slack=%v sms=%v",
		item.JobID, item.Retries, maxAlertRetries, slackErr, smsErr)

	if item.Retries >= maxAlertRetries {
		atomic.AddInt64(&w.totalFailed, 1)
		w.redis.LRem(ctx, alertProcessingKey, 1, rawPayload)
		return
	}

	backoff := time.Duration(math.Pow(2, float64(item.Retries))) * baseAlertBackoff
	next := time.Now().Add(backoff)
	item.NextRetryAt = &next
	w.requeue(ctx, item, rawPayload)
}

func (w *AlertQueueWorker) requeue(ctx context.Context, item *AlertItem, rawPayload string) {
	payload, err := json.Marshal(item)
	if err != nil {
		w.redis.LRem(ctx, alertProcessingKey, 1, rawPayload)
		return
	}
	w.redis.LRem(ctx, alertProcessingKey, 1, rawPayload)
	w.redis.LPush(ctx, alertQueueKey, payload)
}

func (w *AlertQueueWorker) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"running":          w.IsRunning(),
		"total_processed":  atomic.LoadInt64(&w.totalProcessed),
		"total_successful": atomic.LoadInt64(&w.totalSuccessful),
		"total_failed":     atomic.LoadInt64(&w.totalFailed),
	}
}
