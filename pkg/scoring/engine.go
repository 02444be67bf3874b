package scoring

import (
	"errors"
	"fmt"

	"github.com/notreally/notreally/pkg/models"
)

// ErrInsufficientFeatures is returned when no modality produced any
// signal. This is the only path by which a job reaches failed status.
var ErrInsufficientFeatures = errors.New("insufficient features: no modality produced a signal")

// Verdict bands. Closed, ordered, non-overlapping; boundary values
// belong to the higher band.
const (
	VerdictAuthentic  = "Likely Authentic"
	VerdictSuspicious = "Suspicious"
	VerdictDeepfake   = "Likely Deepfake"

	AuthenticScoreMin  = 80.0
	SuspiciousScoreMin = 60.0
)

// Per-feature interpretation thresholds
const (
	BlinkRateNormalMin    = 15.0 // blinks/minute; normal strictly above
	FacialJitterStableMax = 0.2  // stable strictly below
	AudioMFCCNaturalMax   = 0.3  // natural strictly below
)

// Interpretation texts
const (
	blinkNormalText      = "normal range"
	blinkLowText         = "below normal — potential indicator"
	jitterStableText     = "stable — authentic"
	jitterHighText       = "high variance — suspicious"
	audioNaturalText     = "natural audio pattern"
	audioSyntheticText   = "synthetic audio suspected"
	summaryAuthenticText = "This video appears to be authentic."
	summaryGenericText   = "Analysis detected potential indicators of manipulation."
)

// Engine turns a feature set into a stored analysis result: it
// invokes the classifier, bands the score, and attaches per-feature
// interpretations and a summary
type Engine struct {
	classifier Classifier
}

// NewEngine creates a scoring engine around a classifier
func NewEngine(classifier Classifier) *Engine {
	return &Engine{classifier: classifier}
}

// Evaluate scores the available features. The feature set is cloned
// into the result so later mutations cannot alter a stored verdict.
func (e *Engine) Evaluate(fs models.FeatureSet) (*models.AnalysisResult, error) {
	if len(fs) == 0 {
		return nil, ErrInsufficientFeatures
	}

	score, confidence, explanation, err := e.classifier.Score(fs)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	return &models.AnalysisResult{
		AuthenticityScore: score,
		Confidence:        confidence,
		Verdict:           Band(score),
		Features:          fs.Clone(),
		FeaturesAvailable: fs.Names(),
		Interpretations:   Interpret(fs),
		Summary:           summarize(score, explanation),
	}, nil
}

// Band maps an authenticity score to its verdict label. Boundary
// values belong to the higher band.
func Band(score float64) string {
	switch {
	case score >= AuthenticScoreMin:
		return VerdictAuthentic
	case score >= SuspiciousScoreMin:
		return VerdictSuspicious
	default:
		return VerdictDeepfake
	}
}

// Interpret applies the fixed per-feature rules, independent of the
// aggregate score. Features absent from the set are skipped.
func Interpret(fs models.FeatureSet) map[string]string {
	out := make(map[string]string)

	if v, ok := fs[models.FeatureBlinkRate]; ok {
		if v > BlinkRateNormalMin {
			out[models.FeatureBlinkRate] = blinkNormalText
		} else {
			out[models.FeatureBlinkRate] = blinkLowText
		}
	}
	if v, ok := fs[models.FeatureFacialJitter]; ok {
		if v < FacialJitterStableMax {
			out[models.FeatureFacialJitter] = jitterStableText
		} else {
			out[models.FeatureFacialJitter] = jitterHighText
		}
	}
	if v, ok := fs[models.FeatureAudioMFCCVar]; ok {
		if v < AudioMFCCNaturalMax {
			out[models.FeatureAudioMFCCVar] = audioNaturalText
		} else {
			out[models.FeatureAudioMFCCVar] = audioSyntheticText
		}
	}
	return out
}

// summarize picks the result summary. High scores always get the
// fixed authentic message, even when the classifier supplied an
// explanation for that case.
func summarize(score float64, explanation string) string {
	if score >= AuthenticScoreMin {
		return summaryAuthenticText
	}
	if explanation != "" {
		return explanation
	}
	return summaryGenericText
}
