package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/notreally/notreally/pkg/extract"
	"github.com/notreally/notreally/pkg/models"
	"github.com/notreally/notreally/pkg/scoring"
	"github.com/notreally/notreally/pkg/store"
)

// fakeExtractor is a configurable in-memory modality
type fakeExtractor struct {
	name     string
	features models.FeatureSet
	err      error
	gate     chan struct{} // when set, Extract waits for close or ctx expiry
}

func (f *fakeExtractor) Name() string { return f.name }

func (f *fakeExtractor) Extract(ctx context.Context, path string) (models.FeatureSet, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, &extract.ExtractionError{Modality: f.name, Err: ctx.Err()}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.features.Clone(), nil
}

func newTestManager(t *testing.T, opts Options, extractors ...extract.Extractor) *Manager {
	t.Helper()
	scorer := scoring.NewEngine(scoring.NewThresholdClassifier(scoring.DefaultProfile()))
	return NewManager(store.NewMemoryStore(), extractors, scorer, nil, nil, opts)
}

func waitTerminal(t *testing.T, m *Manager, id string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := m.Status(id)
		if err != nil {
			t.Fatalf("Status failed: %v", err)
		}
		if job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func TestSubmitReturnsProcessingImmediately(t *testing.T) {
	gate := make(chan struct{})
	facial := &fakeExtractor{
		name:     extract.ModalityFacial,
		features: models.FeatureSet{models.FeatureBlinkRate: 18, models.FeatureFacialJitter: 0.1},
		gate:     gate,
	}
	m := newTestManager(t, Options{}, facial)

	id, err := m.Submit(context.Background(), "clip.mp4", "/uploads/clip.mp4")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	job, err := m.Status(id)
	if err != nil {
		t.Fatalf("immediate poll failed: %v", err)
	}
	if job.Status != models.JobStatusProcessing {
		t.Errorf("expected processing immediately after submit, got %s", job.Status)
	}
	if job.Result != nil {
		t.Error("processing job must have nil result")
	}

	close(gate)
	done := waitTerminal(t, m, id)
	if done.Status != models.JobStatusCompleted {
		t.Errorf("expected completed, got %s (%s)", done.Status, done.Error)
	}
	m.Wait()
}

func TestSubmitWithoutInput(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.Submit(context.Background(), "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestStatusUnknownJob(t *testing.T) {
	m := newTestManager(t, Options{})
	if _, err := m.Status("nope"); !errors.Is(err, store.ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestAllModalitiesFailed(t *testing.T) {
	facial := &fakeExtractor{name: extract.ModalityFacial, err: &extract.ExtractionError{Modality: extract.ModalityFacial, Err: errors.New("corrupt stream")}}
	audio := &fakeExtractor{name: extract.ModalityAudio, err: &extract.ExtractionError{Modality: extract.ModalityAudio, Err: errors.New("no audio track")}}
	m := newTestManager(t, Options{}, facial, audio)

	id, err := m.Submit(context.Background(), "broken.mp4", "/uploads/broken.mp4")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	job := waitTerminal(t, m, id)
	if job.Status != models.JobStatusFailed {
		t.Errorf("expected failed, got %s", job.Status)
	}
	if job.Result != nil {
		t.Error("failed job must not carry a result")
	}
	if job.Error == "" {
		t.Error("failed job should carry a reason")
	}
	m.Wait()
}

func TestPartialFailureStillScores(t *testing.T) {
	facial := &fakeExtractor{
		name:     extract.ModalityFacial,
		features: models.FeatureSet{models.FeatureBlinkRate: 18, models.FeatureFacialJitter: 0.1},
	}
	audio := &fakeExtractor{
		name: extract.ModalityAudio,
		err:  &extract.ExtractionError{Modality: extract.ModalityAudio, Err: errors.New("unsupported codec")},
	}
	m := newTestManager(t, Options{}, facial, audio)

	id, err := m.Submit(context.Background(), "clip.mp4", "/uploads/clip.mp4")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	job := waitTerminal(t, m, id)
	if job.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed despite audio failure, got %s (%s)", job.Status, job.Error)
	}
	if job.Result.Features.Has(models.FeatureAudioMFCCVar) {
		t.Error("failed modality leaked features into the result")
	}
	if !job.Result.Features.Has(models.FeatureBlinkRate) {
		t.Error("surviving modality features missing from result")
	}
	m.Wait()
}

func TestAudioModalityDisabled(t *testing.T) {
	// No audio extractor wired at all: scoring must not require the key
	facial := &fakeExtractor{
		name:     extract.ModalityFacial,
		features: models.FeatureSet{models.FeatureBlinkRate: 18, models.FeatureFacialJitter: 0.1},
	}
	m := newTestManager(t, Options{}, facial)

	id, _ := m.Submit(context.Background(), "clip.mp4", "/uploads/clip.mp4")
	job := waitTerminal(t, m, id)

	if job.Status != models.JobStatusCompleted {
		t.Fatalf("expected completed, got %s (%s)", job.Status, job.Error)
	}
	if job.Result.Features.Has(models.FeatureAudioMFCCVar) {
		t.Error("audio feature present with audio modality disabled")
	}
	if _, ok := job.Result.Interpretations[models.FeatureAudioMFCCVar]; ok {
		t.Error("audio interpretation present with audio modality disabled")
	}
	m.Wait()
}

func TestRepeatedPollsAfterCompletionAreIdentical(t *testing.T) {
	facial := &fakeExtractor{
		name:     extract.ModalityFacial,
		features: models.FeatureSet{models.FeatureBlinkRate: 5, models.FeatureFacialJitter: 0.5},
	}
	m := newTestManager(t, Options{}, facial)

	id, _ := m.Submit(context.Background(), "clip.mp4", "/uploads/clip.mp4")
	first := waitTerminal(t, m, id)

	for i := 0; i < 10; i++ {
		again, err := m.Status(id)
		if err != nil {
			t.Fatalf("poll %d failed: %v", i, err)
		}
		if again.Status != first.Status {
			t.Fatalf("terminal status changed between polls")
		}
		if again.Result.AuthenticityScore != first.Result.AuthenticityScore ||
			again.Result.Summary != first.Result.Summary {
			t.Fatalf("result payload changed between polls")
		}
	}
	m.Wait()
}

func TestExtractorTimeoutLiveness(t *testing.T) {
	hung := &fakeExtractor{
		name: extract.ModalityFacial,
		gate: make(chan struct{}), // never closed
	}
	m := newTestManager(t, Options{ExtractorTimeout: 50 * time.Millisecond}, hung)

	id, _ := m.Submit(context.Background(), "clip.mp4", "/uploads/clip.mp4")
	job := waitTerminal(t, m, id)

	if job.Status != models.JobStatusFailed {
		t.Errorf("hung extractor should bound to a failed job, got %s", job.Status)
	}
	m.Wait()
}

func TestConcurrentJobsAllTerminate(t *testing.T) {
	facial := &fakeExtractor{
		name:     extract.ModalityFacial,
		features: models.FeatureSet{models.FeatureBlinkRate: 18, models.FeatureFacialJitter: 0.1},
	}
	m := newTestManager(t, Options{MaxConcurrentJobs: 2}, facial)

	ids := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		id, err := m.Submit(context.Background(), fmt.Sprintf("clip-%d.mp4", i), fmt.Sprintf("/uploads/clip-%d.mp4", i))
		if err != nil {
			t.Fatalf("Submit %d failed: %v", i, err)
		}
		ids = append(ids, id)
	}

	for _, id := range ids {
		job := waitTerminal(t, m, id)
		if job.Status != models.JobStatusCompleted {
			t.Errorf("job %s: expected completed, got %s", id, job.Status)
		}
	}
	m.Wait()
}

func TestInputFileReleasedAtTerminal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upload.mp4")
	if err := os.WriteFile(path, []byte("payload"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	facial := &fakeExtractor{
		name:     extract.ModalityFacial,
		features: models.FeatureSet{models.FeatureBlinkRate: 18, models.FeatureFacialJitter: 0.1},
	}
	m := newTestManager(t, Options{}, facial)

	id, _ := m.Submit(context.Background(), "upload.mp4", path)
	waitTerminal(t, m, id)
	m.Wait()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("input file should be removed once the job is terminal")
	}

	// The record itself persists
	if _, err := m.Status(id); err != nil {
		t.Errorf("job record should outlive the input file: %v", err)
	}
}
