package models

import (
	"time"
)

// JobStatus represents the lifecycle state of an analysis job
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job represents one submitted-video analysis unit
type Job struct {
	ID          string          `json:"job_id"`
	Filename    string          `json:"filename"`
	Filepath    string          `json:"-"`
	Status      JobStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Result      *AnalysisResult `json:"results"`
}

// AnalysisResult is the scored verdict stored on a completed job
type AnalysisResult struct {
	AuthenticityScore float64           `json:"authenticity_score"`
	Confidence        float64           `json:"confidence"`
	Verdict           string            `json:"verdict"`
	Features          FeatureSet        `json:"features"`
	FeaturesAvailable []string          `json:"features_available"`
	Interpretations   map[string]string `json:"interpretations,omitempty"`
	Summary           string            `json:"summary"`
}

// NewJob creates a job in its initial state
func NewJob(id, filename, filepath string) *Job {
	return &Job{
		ID:        id,
		Filename:  filename,
		Filepath:  filepath,
		Status:    JobStatusProcessing,
		CreatedAt: time.Now().UTC(),
	}
}

// IsTerminal reports whether a status admits no further transitions
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}
