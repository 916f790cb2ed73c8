package models

import "time"

// JobStatus is the lifecycle state of a generation job.
type JobStatus string

const (
	JobPending   JobStatus = "PENDING"
	JobRunning   JobStatus = "RUNNING"
	JobCompleted JobStatus = "COMPLETED"
	JobFailed    JobStatus = "FAILED"
	JobCancelled JobStatus = "CANCELLED"
)

// IsTerminal reports whether s is one the engine will never transition out of.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobCancelled:
		return true
	}
	return false
}

// FacilityDistribution counts outcomes landed at each facility role.
type FacilityDistribution map[FacilityRole]int

// Summary is the incrementally-computed set of cohort statistics attached to
// a job once it finishes; it is never produced by a second pass over output.
type Summary struct {
	TotalPatients        int                  `json:"total_patients"`
	CountByTriage        map[TriageCategory]int `json:"count_by_triage"`
	CountByOutcome       FacilityDistribution `json:"count_by_outcome"`
	PolytraumaRate       float64              `json:"polytrauma_rate"`
	MeanMortality        float64              `json:"mean_mortality"`
	FacilityDistribution FacilityDistribution `json:"facility_distribution"`
}

// Job is the persisted record of one generation run, owned exclusively by
// the engine.
type Job struct {
	JobID           string     `json:"job_id"`
	Status          JobStatus  `json:"status"`
	Config          UserConfig `json:"config"`
	ProgressPercent int        `json:"progress_percent"`
	ProgressDetail  string     `json:"progress_detail"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	Error           string     `json:"error,omitempty"`
	OutputPaths     []string   `json:"output_paths,omitempty"`
	Summary         *Summary   `json:"summary,omitempty"`
	DownloadToken   string     `json:"download_token,omitempty"`
}

// Touch advances progress without regressing it; progress is monotonically
// non-decreasing until the job reaches a terminal state.
func (j *Job) Touch(percent int, detail string) {
	if j.Status.IsTerminal() {
		return
	}
	if percent > j.ProgressPercent {
		j.ProgressPercent = percent
	}
	j.ProgressDetail = detail
}
