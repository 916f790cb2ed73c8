package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dunebase/casugen/internal/models"
	"github.com/dunebase/casugen/internal/repository"
)

// JobLister is the subset of job storage the jobs list endpoint needs.
type JobLister interface {
	List(ctx context.Context, limit, offset int) ([]*models.Job, error)
}

// JobGetter is the subset of job storage the single-job endpoint needs;
// satisfied by *repository.JobCache (read-through) in production wiring.
type JobGetter interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
}

var (
	globalJobCache  JobGetter
	globalJobLister JobLister
)

// SetGlobalJobCache sets the read-through job cache used by GetJobStatus.
func SetGlobalJobCache(c JobGetter) { globalJobCache = c }

// SetGlobalJobLister sets the store used by ListJobs.
func SetGlobalJobLister(l JobLister) { globalJobLister = l }

// JobResponse is the public view of a Job returned by GET /api/v1/jobs/{job_id}.
type JobResponse struct {
	JobID           string          `json:"job_id"`
	Status          string          `json:"status"`
	ProgressPercent int             `json:"progress_percent"`
	ProgressDetail  string          `json:"progress_detail"`
	CreatedAt       string          `json:"created_at"`
	StartedAt       *string         `json:"started_at,omitempty"`
	FinishedAt      *string         `json:"finished_at,omitempty"`
	Error           string          `json:"error,omitempty"`
	Summary         *models.Summary `json:"summary,omitempty"`
	DownloadToken   string          `json:"download_token,omitempty"`
}

func toJobResponse(job *models.Job) JobResponse {
	resp := JobResponse{
		JobID:           job.JobID,
		Status:          string(job.Status),
		ProgressPercent: job.ProgressPercent,
		ProgressDetail:  job.ProgressDetail,
		CreatedAt:       job.CreatedAt.UTC().Format(time.RFC3339),
		Error:           job.Error,
		Summary:         job.Summary,
	}
	if job.StartedAt != nil {
		s := job.StartedAt.UTC().Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if job.FinishedAt != nil {
		s := job.FinishedAt.UTC().Format(time.RFC3339)
		resp.FinishedAt = &s
	}
	if job.Status == models.JobCompleted && globalTokenIssuer != nil {
		if token, err := globalTokenIssuer.Issue(job.JobID); err == nil {
			resp.DownloadToken = token
		}
	}
	return resp
}

// GetJobStatus handles GET /api/v1/jobs/{job_id}.
func GetJobStatus(c *gin.Context) {
	if globalJobCache == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job store not configured"})
		return
	}

	jobID := c.Param("job_id")
	job, err := globalJobCache.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, repository.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve job"})
		return
	}

	c.JSON(http.StatusOK, toJobResponse(job))
}

// JobListResponse is a page of jobs returned by GET /api/v1/jobs/.
type JobListResponse struct {
	Jobs   []JobResponse `json:"jobs"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ListJobs handles GET /api/v1/jobs/, paginated via limit/offset query params.
func ListJobs(c *gin.Context) {
	if globalJobLister == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "job store not configured"})
		return
	}

	limit := queryInt(c, "limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	jobs, err := globalJobLister.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list jobs"})
		return
	}

	resp := JobListResponse{Jobs: make([]JobResponse, 0, len(jobs)), Limit: limit, Offset: offset}
	for _, job := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(job))
	}

	c.JSON(http.StatusOK, resp)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
