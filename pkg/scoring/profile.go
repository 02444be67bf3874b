package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/notreally/notreally/pkg/models"
)

// Rule directions
const (
	DirectionBelow = "below" // suspicious when value <= threshold
	DirectionAbove = "above" // suspicious when value >= threshold
)

// Rule flags a feature as suspicious on one side of a threshold
type Rule struct {
	Feature     string  `yaml:"feature"`
	Direction   string  `yaml:"direction"`
	Threshold   float64 `yaml:"threshold"`
	Penalty     float64 `yaml:"penalty"`
	Explanation string  `yaml:"explanation,omitempty"`
}

func (r Rule) suspicious(value float64) bool {
	if r.Direction == DirectionAbove {
		return value >= r.Threshold
	}
	return value <= r.Threshold
}

// Profile holds the threshold classifier's parameters. Profiles are
// versioned alongside the trained model they approximate.
type Profile struct {
	Name            string  `yaml:"name"`
	BaseScore       float64 `yaml:"base_score"`
	ConfidenceFloor float64 `yaml:"confidence_floor"`
	Rules           []Rule  `yaml:"rules"`
}

// DefaultProfile returns the compiled-in scoring profile. Thresholds
// match the documented per-feature interpretation boundaries.
func DefaultProfile() Profile {
	return Profile{
		Name:            "default",
		BaseScore:       100,
		ConfidenceFloor: 0.5,
		Rules: []Rule{
			{
				Feature:     models.FeatureBlinkRate,
				Direction:   DirectionBelow,
				Threshold:   BlinkRateNormalMin,
				Penalty:     25,
				Explanation: "blink rate below the natural human range",
			},
			{
				Feature:     models.FeatureFacialJitter,
				Direction:   DirectionAbove,
				Threshold:   FacialJitterStableMax,
				Penalty:     25,
				Explanation: "facial landmark positions show unnatural variance",
			},
			{
				Feature:     models.FeatureAudioMFCCVar,
				Direction:   DirectionAbove,
				Threshold:   AudioMFCCNaturalMax,
				Penalty:     25,
				Explanation: "audio spectral pattern consistent with synthesis",
			},
		},
	}
}

// LoadProfile reads a scoring profile from a YAML file
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// Validate checks a profile for obviously unusable parameters
func (p Profile) Validate() error {
	if p.BaseScore <= 0 || p.BaseScore > 100 {
		return fmt.Errorf("profile %q: base_score must be in (0, 100], got %v", p.Name, p.BaseScore)
	}
	if p.ConfidenceFloor < 0 || p.ConfidenceFloor > 1 {
		return fmt.Errorf("profile %q: confidence_floor must be in [0, 1], got %v", p.Name, p.ConfidenceFloor)
	}
	if len(p.Rules) == 0 {
		return fmt.Errorf("profile %q: at least one rule required", p.Name)
	}
	for i, rule := range p.Rules {
		if rule.Feature == "" {
			return fmt.Errorf("profile %q: rule %d missing feature name", p.Name, i)
		}
		if rule.Direction != DirectionBelow && rule.Direction != DirectionAbove {
			return fmt.Errorf("profile %q: rule %d has unknown direction %q", p.Name, i, rule.Direction)
		}
		if rule.Penalty < 0 {
			return fmt.Errorf("profile %q: rule %d has negative penalty", p.Name, i)
		}
	}
	return nil
}
