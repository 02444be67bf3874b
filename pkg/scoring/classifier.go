package scoring

import (
	"math"
	"strings"

	"github.com/notreally/notreally/pkg/models"
)

// Classifier maps an extracted feature set to an authenticity score
// (0-100, higher = more authentic), a confidence (0-1), and an
// optional explanation for suspicious verdicts. Trained models plug
// in behind this interface; the engine only assembles inputs and
// post-processes outputs.
type Classifier interface {
	Score(fs models.FeatureSet) (score float64, confidence float64, explanation string, err error)
}

// ThresholdClassifier is the reference classifier: a deterministic
// rule set driven by a Profile. Each rule names a feature, the
// direction in which it becomes suspicious, and the penalty it
// subtracts from the base score. Reproducible by construction, which
// is what the polling contract's repeated-result guarantee needs.
type ThresholdClassifier struct {
	profile Profile
}

// NewThresholdClassifier creates a classifier from a profile
func NewThresholdClassifier(profile Profile) *ThresholdClassifier {
	return &ThresholdClassifier{profile: profile}
}

// Score applies every rule whose feature is present in the set.
// Missing features neither penalize nor vouch; they only lower
// confidence.
func (c *ThresholdClassifier) Score(fs models.FeatureSet) (float64, float64, string, error) {
	score := c.profile.BaseScore
	var reasons []string
	present := 0

	for _, rule := range c.profile.Rules {
		value, ok := fs[rule.Feature]
		if !ok {
			continue
		}
		present++
		if rule.suspicious(value) {
			score -= rule.Penalty
			if rule.Explanation != "" {
				reasons = append(reasons, rule.Explanation)
			}
		}
	}

	score = math.Max(0, math.Min(100, score))

	// Confidence scales with how much of the rule set had signal
	coverage := 0.0
	if len(c.profile.Rules) > 0 {
		coverage = float64(present) / float64(len(c.profile.Rules))
	}
	confidence := c.profile.ConfidenceFloor + (1-c.profile.ConfidenceFloor)*coverage

	return score, confidence, strings.Join(reasons, "; "), nil
}
