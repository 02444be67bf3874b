package store

import (
	"sync"
	"testing"

	"github.com/notreally/notreally/pkg/models"
)

func TestMemoryStoreDuplicateCreate(t *testing.T) {
	s := NewMemoryStore()

	job := models.NewJob("dup", "a.mp4", "/uploads/dup_a.mp4")
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := s.CreateJob(job); err == nil {
		t.Error("expected duplicate create to fail")
	}
}

func TestMemoryStoreReadersGetSnapshots(t *testing.T) {
	s := NewMemoryStore()

	job := models.NewJob("snap", "a.mp4", "/uploads/snap_a.mp4")
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	result := &models.AnalysisResult{
		AuthenticityScore: 70,
		Features:          models.FeatureSet{models.FeatureBlinkRate: 8},
	}
	if err := s.CompleteJob("snap", result); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}

	got, _ := s.GetJob("snap")
	got.Result.Features[models.FeatureBlinkRate] = 999

	again, _ := s.GetJob("snap")
	if again.Result.Features[models.FeatureBlinkRate] != 8 {
		t.Error("caller mutation leaked into the store")
	}
}

func TestMemoryStoreConcurrentPollDuringTransition(t *testing.T) {
	s := NewMemoryStore()

	job := models.NewJob("race", "a.mp4", "/uploads/race_a.mp4")
	if err := s.CreateJob(job); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Pollers must only ever observe processing+nil or completed+full result
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				got, err := s.GetJob("race")
				if err != nil {
					t.Errorf("poll failed: %v", err)
					return
				}
				switch got.Status {
				case models.JobStatusProcessing:
					if got.Result != nil {
						t.Error("processing job exposed a result")
						return
					}
				case models.JobStatusCompleted:
					if got.Result == nil || got.Result.AuthenticityScore != 42 {
						t.Error("completed job exposed a partial result")
						return
					}
				}
			}
		}()
	}

	if err := s.CompleteJob("race", &models.AnalysisResult{AuthenticityScore: 42}); err != nil {
		t.Fatalf("CompleteJob failed: %v", err)
	}
	close(stop)
	wg.Wait()
}

func TestNewStoreFactory(t *testing.T) {
	s, err := NewStore(Config{Type: "memory"})
	if err != nil {
		t.Fatalf("memory store: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", s)
	}

	if _, err := NewStore(Config{Type: "etcd"}); err != ErrUnsupportedDatabase {
		t.Errorf("expected ErrUnsupportedDatabase, got %v", err)
	}
}
