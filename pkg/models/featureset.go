package models

import (
	"sort"
)

// Canonical feature names produced by the documented pipeline.
// Additional modalities may add names; consumers must tolerate a
// FeatureSet lacking names they do not themselves require.
const (
	FeatureBlinkRate       = "blink_rate"
	FeatureFacialJitter    = "facial_jitter"
	FeatureAudioMFCCVar    = "audio_mfcc_variance"
	FeatureDurationSeconds = "duration_seconds"
	FeatureBitRate         = "bit_rate"
	FeatureFrameRate       = "frame_rate"
)

// FeatureSet maps feature names to numeric signal values extracted
// from one modality or combined across modalities
type FeatureSet map[string]float64

// Has reports whether a named feature is present
func (fs FeatureSet) Has(name string) bool {
	_, ok := fs[name]
	return ok
}

// Merge copies every feature from other into fs, overwriting on
// name collision. Modalities emit disjoint names in practice.
func (fs FeatureSet) Merge(other FeatureSet) {
	for name, value := range other {
		fs[name] = value
	}
}

// Names returns the sorted feature names present in the set
func (fs FeatureSet) Names() []string {
	names := make([]string, 0, len(fs))
	for name := range fs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy of the set
func (fs FeatureSet) Clone() FeatureSet {
	out := make(FeatureSet, len(fs))
	for name, value := range fs {
		out[name] = value
	}
	return out
}
