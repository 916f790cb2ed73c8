package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dunebase/casugen/internal/models"
)

// estimatedPatientsPerSecond is a rough generation-rate estimate used only
// to populate the submission response's estimated_duration_seconds; it is
// never used to size timeouts or parallelism.
const estimatedPatientsPerSecond = 500.0

// GenerationRequest is the body of POST /api/v1/generation/.
type GenerationRequest = models.UserConfig

// GenerationResponse is returned immediately on submission; the job itself
// runs asynchronously once the dispatcher claims it.
type GenerationResponse struct {
	JobID                    string `json:"job_id"`
	Status                   string `json:"status"`
	CreatedAt                string `json:"created_at"`
	EstimatedDurationSeconds int    `json:"estimated_duration_seconds"`
}

// SubmitGeneration handles POST /api/v1/generation/: it resolves and
// validates the scenario config, persists a PENDING job, and returns its
// id immediately. The dispatcher picks the job up and runs it out of band.
func SubmitGeneration(c *gin.Context) {
	if globalEngine == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generation engine not configured"})
		return
	}

	var req GenerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "CONFIG_VALIDATION",
			"fields": []models.FieldError{{Field: "body", Reason: err.Error()}},
		})
		return
	}

	job, errs := globalEngine.Submit(c.Request.Context(), req)
	if errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  string(models.ErrConfigValidation),
			"fields": errs.Errors,
		})
		return
	}

	c.JSON(http.StatusCreated, GenerationResponse{
		JobID:                    job.JobID,
		Status:                   string(job.Status),
		CreatedAt:                job.CreatedAt.UTC().Format(time.RFC3339),
		EstimatedDurationSeconds: estimatedDuration(req.TotalPatients),
	})
}

func estimatedDuration(totalPatients int) int {
	if totalPatients <= 0 {
		return 0
	}
	seconds := float64(totalPatients) / estimatedPatientsPerSecond
	if seconds < 1 {
		return 1
	}
	return int(seconds + 0.5)
}
