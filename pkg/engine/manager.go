package engine

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/notreally/notreally/pkg/extract"
	"github.com/notreally/notreally/pkg/logging"
	"github.com/notreally/notreally/pkg/models"
	"github.com/notreally/notreally/pkg/scoring"
	"github.com/notreally/notreally/pkg/store"
)

// ErrInvalidInput is returned when a submission carries no input
// reference. The caller must fix the request; no job is created.
var ErrInvalidInput = errors.New("invalid input: no video provided")

// Recorder receives engine lifecycle events for metrics
type Recorder interface {
	JobSubmitted()
	PipelineStarted()
	JobCompleted(duration time.Duration)
	JobFailed(duration time.Duration)
	ExtractionFailed(modality string)
}

// Options bound the engine's resource usage
type Options struct {
	// MaxConcurrentJobs caps pipelines running at once; further
	// submissions are accepted immediately and wait for a slot
	MaxConcurrentJobs int64
	// ExtractorTimeout bounds each extractor call so a hung analyzer
	// cannot leave a job in processing forever
	ExtractorTimeout time.Duration
}

// DefaultOptions returns the documented defaults
func DefaultOptions() Options {
	return Options{
		MaxConcurrentJobs: 4,
		ExtractorTimeout:  2 * time.Minute,
	}
}

// Manager owns the job lifecycle: it creates job records, drives the
// extractors and the scoring engine off the request path, and is the
// only writer of job state.
type Manager struct {
	store      store.Store
	extractors []extract.Extractor
	scorer     *scoring.Engine
	logger     *logging.Logger
	metrics    Recorder
	sem        *semaphore.Weighted
	opts       Options
	wg         sync.WaitGroup
}

// NewManager creates a job manager. A nil recorder disables metrics.
func NewManager(s store.Store, extractors []extract.Extractor, scorer *scoring.Engine, logger *logging.Logger, recorder Recorder, opts Options) *Manager {
	if opts.MaxConcurrentJobs <= 0 {
		opts.MaxConcurrentJobs = DefaultOptions().MaxConcurrentJobs
	}
	if opts.ExtractorTimeout <= 0 {
		opts.ExtractorTimeout = DefaultOptions().ExtractorTimeout
	}
	if logger == nil {
		logger = logging.NewLogger(logging.INFO, false)
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Manager{
		store:      s,
		extractors: extractors,
		scorer:     scorer,
		logger:     logger,
		metrics:    recorder,
		sem:        semaphore.NewWeighted(opts.MaxConcurrentJobs),
		opts:       opts,
	}
}

// Submit validates the submission, writes the job record, and starts
// the pipeline off the calling path. Returns the job id immediately;
// the job is processing from this instant.
func (m *Manager) Submit(ctx context.Context, filename, filepath string) (string, error) {
	if filepath == "" {
		return "", ErrInvalidInput
	}

	job := models.NewJob(uuid.NewString(), filename, filepath)
	if err := m.store.CreateJob(job); err != nil {
		return "", err
	}
	m.metrics.JobSubmitted()
	m.logger.Info("job accepted", map[string]interface{}{
		"job_id":   job.ID,
		"filename": filename,
	})

	m.wg.Add(1)
	go m.runPipeline(job.ID, filepath)

	return job.ID, nil
}

// Status is a pure store read, safe to call concurrently with a
// running pipeline for the same id
func (m *Manager) Status(id string) (*models.Job, error) {
	return m.store.GetJob(id)
}

// Wait blocks until every in-flight pipeline has reached a terminal
// status. Used during graceful shutdown.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// extractionResult is one modality's settled outcome
type extractionResult struct {
	modality string
	features models.FeatureSet
	err      error
}

// runPipeline drives one job to a terminal status. Submission never
// blocks on the concurrency cap; the pipeline itself waits for a slot.
func (m *Manager) runPipeline(jobID, path string) {
	defer m.wg.Done()

	if err := m.sem.Acquire(context.Background(), 1); err != nil {
		// Only reachable if the background context is cancelled,
		// which never happens in practice
		m.failJob(jobID, path, time.Now(), "scheduling failed: "+err.Error())
		return
	}
	defer m.sem.Release(1)

	m.metrics.PipelineStarted()
	start := time.Now()
	log := m.logger.WithField("job_id", jobID)

	features := m.extractAll(jobID, path)
	if len(features) == 0 {
		log.Warn("all modalities failed", map[string]interface{}{
			"error": scoring.ErrInsufficientFeatures.Error(),
		})
		m.failJob(jobID, path, start, scoring.ErrInsufficientFeatures.Error())
		return
	}

	result, err := m.scorer.Evaluate(features)
	if err != nil {
		log.Error("scoring failed", map[string]interface{}{"error": err.Error()})
		m.failJob(jobID, path, start, err.Error())
		return
	}

	if err := m.store.CompleteJob(jobID, result); err != nil {
		log.Error("failed to persist result", map[string]interface{}{"error": err.Error()})
		return
	}
	m.metrics.JobCompleted(time.Since(start))
	m.releaseInput(jobID, path)
	log.Info("job completed", map[string]interface{}{
		"score":    result.AuthenticityScore,
		"verdict":  result.Verdict,
		"features": len(result.Features),
		"duration": time.Since(start).String(),
	})
}

// extractAll runs every enabled extractor concurrently and merges the
// settled outcomes. A single modality's failure is isolated: logged,
// counted, and excluded from the merge.
func (m *Manager) extractAll(jobID, path string) models.FeatureSet {
	results := make(chan extractionResult, len(m.extractors))

	var wg sync.WaitGroup
	for _, ex := range m.extractors {
		wg.Add(1)
		go func(ex extract.Extractor) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.opts.ExtractorTimeout)
			defer cancel()
			fs, err := ex.Extract(ctx, path)
			results <- extractionResult{modality: ex.Name(), features: fs, err: err}
		}(ex)
	}
	wg.Wait()
	close(results)

	// Merge only after every modality has settled
	merged := make(models.FeatureSet)
	for res := range results {
		if res.err != nil {
			m.metrics.ExtractionFailed(res.modality)
			m.logger.Warn("extractor failed", map[string]interface{}{
				"job_id":   jobID,
				"modality": res.modality,
				"error":    res.err.Error(),
			})
			continue
		}
		merged.Merge(res.features)
	}
	return merged
}

func (m *Manager) failJob(jobID, path string, start time.Time, reason string) {
	if err := m.store.FailJob(jobID, reason); err != nil {
		m.logger.Error("failed to mark job failed", map[string]interface{}{
			"job_id": jobID,
			"error":  err.Error(),
		})
		return
	}
	m.metrics.JobFailed(time.Since(start))
	m.releaseInput(jobID, path)
}

// releaseInput deletes the uploaded file once the job record is
// terminal; the record itself persists for subsequent polls
func (m *Manager) releaseInput(jobID, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		m.logger.Warn("could not remove input file", map[string]interface{}{
			"job_id": jobID,
			"path":   path,
			"error":  err.Error(),
		})
	}
}

type noopRecorder struct{}

func (noopRecorder) JobSubmitted()              {}
func (noopRecorder) PipelineStarted()           {}
func (noopRecorder) JobCompleted(time.Duration) {}
func (noopRecorder) JobFailed(time.Duration)    {}
func (noopRecorder) ExtractionFailed(string)    {}
