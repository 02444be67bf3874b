package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/notreally/notreally/pkg/models"
)

// MemoryStore is an in-memory implementation of the job store.
// Used when the server runs without a database path and as the
// injectable fake in engine and API tests.
type MemoryStore struct {
	jobs map[string]*models.Job
	mu   sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs: make(map[string]*models.Job),
	}
}

// CreateJob adds a new job to the store
func (s *MemoryStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return fmt.Errorf("job %s already exists", job.ID)
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// GetJob retrieves a job by ID
func (s *MemoryStore) GetJob(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	return copyJob(job), nil
}

// GetAllJobs returns all jobs in the store
func (s *MemoryStore) GetAllJobs() []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, copyJob(job))
	}
	return jobs
}

// CompleteJob transitions a job to completed and attaches its result
func (s *MemoryStore) CompleteJob(id string, result *models.AnalysisResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if err := models.ValidateTransition(job.Status, models.JobStatusCompleted); err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = models.JobStatusCompleted
	job.CompletedAt = &now
	job.Result = result
	return nil
}

// FailJob transitions a job to failed with a reason and no result
func (s *MemoryStore) FailJob(id string, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	if err := models.ValidateTransition(job.Status, models.JobStatusFailed); err != nil {
		return err
	}

	now := time.Now().UTC()
	job.Status = models.JobStatusFailed
	job.CompletedAt = &now
	job.Error = reason
	job.Result = nil
	return nil
}

// GetJobMetrics returns aggregated job counts
func (s *MemoryStore) GetJobMetrics() (*JobMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	metrics := &JobMetrics{
		JobsByState: make(map[models.JobStatus]int),
		TotalJobs:   len(s.jobs),
	}
	for _, job := range s.jobs {
		metrics.JobsByState[job.Status]++
		if !job.Status.IsTerminal() {
			metrics.ActiveJobs++
		}
	}
	return metrics, nil
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}

// HealthCheck is a no-op for the memory store
func (s *MemoryStore) HealthCheck() error {
	return nil
}

// copyJob returns a snapshot so readers never share mutable state
// with an in-flight pipeline update
func copyJob(job *models.Job) *models.Job {
	out := *job
	if job.CompletedAt != nil {
		t := *job.CompletedAt
		out.CompletedAt = &t
	}
	if job.Result != nil {
		r := *job.Result
		r.Features = job.Result.Features.Clone()
		if job.Result.Interpretations != nil {
			interp := make(map[string]string, len(job.Result.Interpretations))
			for k, v := range job.Result.Interpretations {
				interp[k] = v
			}
			r.Interpretations = interp
		}
		if job.Result.FeaturesAvailable != nil {
			avail := make([]string, len(job.Result.FeaturesAvailable))
			copy(avail, job.Result.FeaturesAvailable)
			r.FeaturesAvailable = avail
		}
		out.Result = &r
	}
	return &out
}
