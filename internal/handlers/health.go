package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dunebase/casugen/internal/dispatch"
	"github.com/dunebase/casugen/internal/engine"
	"github.com/dunebase/casugen/internal/notification"
)

var (
	globalEngine     *engine.Engine
	globalDispatcher *dispatch.JobDispatcher
	globalAlertQueue *notification.AlertQueueWorker
)

// SetGlobalEngine sets the global engine instance for health checks.
func SetGlobalEngine(e *engine.Engine) { globalEngine = e }

// SetGlobalDispatcher sets the global dispatcher instance for health checks.
func SetGlobalDispatcher(d *dispatch.JobDispatcher) { globalDispatcher = d }

// SetGlobalAlertQueue sets the global alert queue worker for health checks.
func SetGlobalAlertQueue(w *notification.AlertQueueWorker) { globalAlertQueue = w }

// DispatcherDetails is the dispatcher section of the health response.
type DispatcherDetails struct {
	Status          string     `json:"status"`
	Running         bool       `json:"running"`
	LastPoll        *time.Time `json:"last_poll,omitempty"`
	TotalDispatched int64      `json:"total_dispatched"`
	Errors          int64      `json:"errors"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
}

// EngineDetails summarizes the job engine's running totals.
type EngineDetails struct {
	Status         string `json:"status"`
	TotalSubmitted int64  `json:"total_submitted"`
	TotalCompleted int64  `json:"total_completed"`
	TotalFailed    int64  `json:"total_failed"`
	TotalCancelled int64  `json:"total_cancelled"`
	InFlight       int64  `json:"in_flight"`
}

// HealthResponse is the liveness/aggregate status payload for GET /api/v1/health.
type HealthResponse struct {
	Status     string                  `json:"status"`
	Timestamp  string                  `json:"timestamp"`
	Engine     *EngineDetails          `json:"engine,omitempty"`
	Dispatcher *DispatcherDetails      `json:"dispatcher,omitempty"`
	AlertQueue map[string]interface{} `json:"alert_queue,omitempty"`
}

// Health reports liveness plus the engine/dispatcher/alert-queue status the
// operator dashboard watches. No authentication - load balancers poll this.
func Health(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	if globalEngine != nil {
		stats := globalEngine.GetStats()
		response.Engine = &EngineDetails{
			Status:         "running",
			TotalSubmitted: toInt64(stats["total_submitted"]),
			TotalCompleted: toInt64(stats["total_completed"]),
			TotalFailed:    toInt64(stats["total_failed"]),
			TotalCancelled: toInt64(stats["total_cancelled"]),
			InFlight:       toInt64(stats["in_flight"]),
		}
	} else {
		response.Status = "degraded"
		response.Engine = &EngineDetails{Status: "not_initialized"}
	}

	if globalDispatcher != nil {
		status := globalDispatcher.GetStatus()
		response.Dispatcher = &DispatcherDetails{
			Status:          "running",
			Running:         status.Running,
			LastPoll:        status.LastPoll,
			TotalDispatched: status.TotalDispatched,
			Errors:          status.Errors,
			StartedAt:       status.StartedAt,
		}
		if !status.Running {
			response.Status = "degraded"
			response.Dispatcher.Status = "stopped"
		}
	} else {
		response.Status = "degraded"
		response.Dispatcher = &DispatcherDetails{Status: "not_initialized"}
	}

	if globalAlertQueue != nil {
		response.AlertQueue = globalAlertQueue.GetStats()
	}

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, response)
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		return 0
	}
}
