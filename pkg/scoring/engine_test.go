package scoring

import (
	"errors"
	"testing"

	"github.com/notreally/notreally/pkg/models"
)

// stubClassifier returns canned outputs so band and summary behavior
// can be pinned independently of the threshold rules
type stubClassifier struct {
	score       float64
	confidence  float64
	explanation string
	err         error
}

func (s *stubClassifier) Score(models.FeatureSet) (float64, float64, string, error) {
	return s.score, s.confidence, s.explanation, s.err
}

func TestBandBoundaries(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{80.0, VerdictAuthentic},
		{79.999, VerdictSuspicious},
		{60.0, VerdictSuspicious},
		{59.999, VerdictDeepfake},
		{100, VerdictAuthentic},
		{0, VerdictDeepfake},
	}
	for _, tc := range cases {
		if got := Band(tc.score); got != tc.want {
			t.Errorf("Band(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestInterpretThresholds(t *testing.T) {
	cases := []struct {
		feature string
		value   float64
		want    string
	}{
		{models.FeatureBlinkRate, 15.0, blinkLowText},
		{models.FeatureBlinkRate, 15.01, blinkNormalText},
		{models.FeatureFacialJitter, 0.2, jitterHighText},
		{models.FeatureFacialJitter, 0.199, jitterStableText},
		{models.FeatureAudioMFCCVar, 0.3, audioSyntheticText},
		{models.FeatureAudioMFCCVar, 0.299, audioNaturalText},
	}
	for _, tc := range cases {
		got := Interpret(models.FeatureSet{tc.feature: tc.value})
		if got[tc.feature] != tc.want {
			t.Errorf("Interpret(%s=%v) = %q, want %q", tc.feature, tc.value, got[tc.feature], tc.want)
		}
	}
}

func TestInterpretSkipsAbsentFeatures(t *testing.T) {
	got := Interpret(models.FeatureSet{models.FeatureBlinkRate: 20})
	if _, ok := got[models.FeatureAudioMFCCVar]; ok {
		t.Error("interpretation emitted for absent audio feature")
	}
	if len(got) != 1 {
		t.Errorf("expected 1 interpretation, got %d", len(got))
	}
}

func TestEvaluateEmptyFeatureSet(t *testing.T) {
	e := NewEngine(&stubClassifier{})
	if _, err := e.Evaluate(models.FeatureSet{}); !errors.Is(err, ErrInsufficientFeatures) {
		t.Errorf("expected ErrInsufficientFeatures, got %v", err)
	}
}

func TestEvaluateHighScoreFixedSummary(t *testing.T) {
	// Fixed message wins even when the classifier supplied one
	e := NewEngine(&stubClassifier{score: 92, confidence: 0.9, explanation: "some model output"})
	result, err := e.Evaluate(models.FeatureSet{models.FeatureBlinkRate: 20})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Summary != summaryAuthenticText {
		t.Errorf("expected fixed authentic summary, got %q", result.Summary)
	}
	if result.Verdict != VerdictAuthentic {
		t.Errorf("expected authentic verdict, got %q", result.Verdict)
	}
}

func TestEvaluateSuspiciousSummaryFallback(t *testing.T) {
	withExplanation := NewEngine(&stubClassifier{score: 55, explanation: "low blink rate"})
	result, err := withExplanation.Evaluate(models.FeatureSet{models.FeatureBlinkRate: 3})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Summary != "low blink rate" {
		t.Errorf("expected classifier explanation, got %q", result.Summary)
	}

	withoutExplanation := NewEngine(&stubClassifier{score: 55})
	result, err = withoutExplanation.Evaluate(models.FeatureSet{models.FeatureBlinkRate: 3})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if result.Summary != summaryGenericText {
		t.Errorf("expected generic summary, got %q", result.Summary)
	}
}

func TestEvaluateRecordsAvailableFeatures(t *testing.T) {
	e := NewEngine(&stubClassifier{score: 85, confidence: 0.8})
	fs := models.FeatureSet{
		models.FeatureBlinkRate:    18,
		models.FeatureFacialJitter: 0.1,
	}
	result, err := e.Evaluate(fs)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(result.FeaturesAvailable) != 2 {
		t.Errorf("expected 2 available features, got %v", result.FeaturesAvailable)
	}

	// Stored features are a snapshot
	fs[models.FeatureBlinkRate] = 0
	if result.Features[models.FeatureBlinkRate] != 18 {
		t.Error("result features aliased the input set")
	}
}

func TestThresholdClassifierAllClear(t *testing.T) {
	c := NewThresholdClassifier(DefaultProfile())
	fs := models.FeatureSet{
		models.FeatureBlinkRate:    18,
		models.FeatureFacialJitter: 0.1,
		models.FeatureAudioMFCCVar: 0.2,
	}
	score, confidence, explanation, err := c.Score(fs)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 100 {
		t.Errorf("expected full score, got %v", score)
	}
	if confidence != 1 {
		t.Errorf("expected full confidence, got %v", confidence)
	}
	if explanation != "" {
		t.Errorf("expected no explanation, got %q", explanation)
	}
}

func TestThresholdClassifierPenalties(t *testing.T) {
	c := NewThresholdClassifier(DefaultProfile())
	fs := models.FeatureSet{
		models.FeatureBlinkRate:    4,    // suspicious
		models.FeatureFacialJitter: 0.5,  // suspicious
		models.FeatureAudioMFCCVar: 0.25, // natural
	}
	score, _, explanation, err := c.Score(fs)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 50 {
		t.Errorf("expected 50 after two penalties, got %v", score)
	}
	if explanation == "" {
		t.Error("expected an explanation for penalized features")
	}
}

func TestThresholdClassifierMissingAudioLowersConfidenceOnly(t *testing.T) {
	c := NewThresholdClassifier(DefaultProfile())
	fs := models.FeatureSet{
		models.FeatureBlinkRate:    18,
		models.FeatureFacialJitter: 0.1,
	}
	score, confidence, _, err := c.Score(fs)
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if score != 100 {
		t.Errorf("missing audio must not penalize the score, got %v", score)
	}
	if confidence >= 1 {
		t.Errorf("missing audio should lower confidence, got %v", confidence)
	}
}
