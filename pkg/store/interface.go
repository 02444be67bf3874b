package store

import (
	"errors"

	"github.com/notreally/notreally/pkg/models"
)

var (
	// ErrJobNotFound is returned when a job id is unknown
	ErrJobNotFound = errors.New("job not found")
	// ErrUnsupportedDatabase is returned for an unknown store type
	ErrUnsupportedDatabase = errors.New("unsupported database type")
)

// Store defines the interface for job persistence.
// Both SQLite and the in-memory store implement this interface.
//
// Terminal updates (CompleteJob, FailJob) are atomic per job id: a
// concurrent GetJob never observes a partially written result, and
// the state transition is validated so terminal statuses are sticky.
type Store interface {
	CreateJob(job *models.Job) error
	GetJob(id string) (*models.Job, error)
	GetAllJobs() []*models.Job
	CompleteJob(id string, result *models.AnalysisResult) error
	FailJob(id string, reason string) error

	GetJobMetrics() (*JobMetrics, error)

	Close() error
	HealthCheck() error
}

// JobMetrics contains aggregated job statistics for the metrics endpoint
type JobMetrics struct {
	JobsByState map[models.JobStatus]int
	TotalJobs   int
	ActiveJobs  int
}

// Config holds store configuration
type Config struct {
	Type string // "sqlite" or "memory"
	Path string // SQLite database path
}

// NewStore creates a store based on configuration
func NewStore(config Config) (Store, error) {
	switch config.Type {
	case "sqlite", "":
		path := config.Path
		if path == "" {
			path = "notreally.db"
		}
		return NewSQLiteStore(path)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, ErrUnsupportedDatabase
	}
}
