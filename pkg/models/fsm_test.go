package models

import (
	"testing"
)

func TestValidTransitions(t *testing.T) {
	cases := []struct {
		from, to JobStatus
		valid    bool
	}{
		{JobStatusProcessing, JobStatusCompleted, true},
		{JobStatusProcessing, JobStatusFailed, true},
		{JobStatusCompleted, JobStatusProcessing, false},
		{JobStatusCompleted, JobStatusFailed, false},
		{JobStatusFailed, JobStatusProcessing, false},
		{JobStatusFailed, JobStatusCompleted, false},
		{JobStatusProcessing, JobStatusProcessing, false},
	}

	for _, tc := range cases {
		err := ValidateTransition(tc.from, tc.to)
		if tc.valid && err != nil {
			t.Errorf("expected %s -> %s to be valid, got %v", tc.from, tc.to, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestValidateTransitionUnknownState(t *testing.T) {
	if err := ValidateTransition(JobStatus("queued"), JobStatusCompleted); err == nil {
		t.Error("expected error for unknown source state")
	}
}

func TestIsTerminal(t *testing.T) {
	if JobStatusProcessing.IsTerminal() {
		t.Error("processing should not be terminal")
	}
	if !JobStatusCompleted.IsTerminal() {
		t.Error("completed should be terminal")
	}
	if !JobStatusFailed.IsTerminal() {
		t.Error("failed should be terminal")
	}
}

func TestFeatureSetMerge(t *testing.T) {
	fs := FeatureSet{FeatureBlinkRate: 12.5}
	fs.Merge(FeatureSet{FeatureFacialJitter: 0.15, FeatureAudioMFCCVar: 0.23})

	if len(fs) != 3 {
		t.Fatalf("expected 3 features after merge, got %d", len(fs))
	}
	if !fs.Has(FeatureAudioMFCCVar) {
		t.Error("merged feature missing")
	}

	names := fs.Names()
	if len(names) != 3 || names[0] != FeatureAudioMFCCVar {
		t.Errorf("unexpected sorted names: %v", names)
	}
}

func TestFeatureSetCloneIsIndependent(t *testing.T) {
	fs := FeatureSet{FeatureBlinkRate: 10}
	clone := fs.Clone()
	clone[FeatureBlinkRate] = 99

	if fs[FeatureBlinkRate] != 10 {
		t.Error("mutating clone altered original")
	}
}
