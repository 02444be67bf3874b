package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/notreally/notreally/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the job store
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL for concurrent polling reads while a pipeline writes,
	// busy_timeout so a locked database waits instead of erroring
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY under load
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates the database schema
func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		filepath TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		completed_at DATETIME,
		error TEXT,
		results_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateJob inserts a new job record
func (s *SQLiteStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO jobs (id, filename, filepath, status, created_at, completed_at, error, results_json)
		VALUES (?, ?, ?, ?, ?, NULL, '', NULL)
	`, job.ID, job.Filename, job.Filepath, string(job.Status), job.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by ID
func (s *SQLiteStore) GetJob(id string) (*models.Job, error) {
	row := s.db.QueryRow(`
		SELECT id, filename, filepath, status, created_at, completed_at, error, results_json
		FROM jobs WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// GetAllJobs returns all jobs, newest first
func (s *SQLiteStore) GetAllJobs() []*models.Job {
	rows, err := s.db.Query(`
		SELECT id, filename, filepath, status, created_at, completed_at, error, results_json
		FROM jobs ORDER BY created_at DESC
	`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// CompleteJob performs the processing→completed transition atomically.
// The result payload is marshaled before the row update so a reader
// sees either no result or the full result, never a partial one.
func (s *SQLiteStore) CompleteJob(id string, result *models.AnalysisResult) error {
	resultsJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	return s.transition(id, models.JobStatusCompleted, "", string(resultsJSON))
}

// FailJob performs the processing→failed transition atomically
func (s *SQLiteStore) FailJob(id string, reason string) error {
	return s.transition(id, models.JobStatusFailed, reason, "")
}

// transition validates and applies a terminal state change in one
// transaction, serialized per store by the writer mutex
func (s *SQLiteStore) transition(id string, to models.JobStatus, reason, resultsJSON string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var currentStatus string
	err = tx.QueryRow(`SELECT status FROM jobs WHERE id = ?`, id).Scan(&currentStatus)
	if err == sql.ErrNoRows {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("get job state: %w", err)
	}

	if err := models.ValidateTransition(models.JobStatus(currentStatus), to); err != nil {
		return err
	}

	var results interface{}
	if resultsJSON != "" {
		results = resultsJSON
	}
	_, err = tx.Exec(`
		UPDATE jobs SET status = ?, completed_at = ?, error = ?, results_json = ?
		WHERE id = ?
	`, string(to), time.Now().UTC(), reason, results, id)
	if err != nil {
		return fmt.Errorf("update job state: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetJobMetrics returns aggregated job counts without loading results
func (s *SQLiteStore) GetJobMetrics() (*JobMetrics, error) {
	rows, err := s.db.Query(`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job metrics: %w", err)
	}
	defer rows.Close()

	metrics := &JobMetrics{JobsByState: make(map[models.JobStatus]int)}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan metrics row: %w", err)
		}
		st := models.JobStatus(status)
		metrics.JobsByState[st] = count
		metrics.TotalJobs += count
		if !st.IsTerminal() {
			metrics.ActiveJobs += count
		}
	}
	return metrics, nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database is reachable
func (s *SQLiteStore) HealthCheck() error {
	return s.db.Ping()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*models.Job, error) {
	var job models.Job
	var status string
	var completedAt sql.NullTime
	var errMsg sql.NullString
	var resultsJSON sql.NullString

	err := row.Scan(&job.ID, &job.Filename, &job.Filepath, &status,
		&job.CreatedAt, &completedAt, &errMsg, &resultsJSON)
	if err != nil {
		return nil, err
	}

	job.Status = models.JobStatus(status)
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	if resultsJSON.Valid && resultsJSON.String != "" {
		var result models.AnalysisResult
		if err := json.Unmarshal([]byte(resultsJSON.String), &result); err != nil {
			return nil, fmt.Errorf("parse results: %w", err)
		}
		job.Result = &result
	}
	return &job, nil
}
