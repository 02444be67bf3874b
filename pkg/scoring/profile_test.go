package scoring

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	content := `
name: strict
base_score: 90
confidence_floor: 0.4
rules:
  - feature: blink_rate
    direction: below
    threshold: 12
    penalty: 40
    explanation: blink rate far below normal
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write profile: %v", err)
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if profile.Name != "strict" {
		t.Errorf("unexpected name %q", profile.Name)
	}
	if profile.BaseScore != 90 {
		t.Errorf("unexpected base score %v", profile.BaseScore)
	}
	if len(profile.Rules) != 1 || profile.Rules[0].Penalty != 40 {
		t.Errorf("unexpected rules %+v", profile.Rules)
	}
}

func TestLoadProfileMissingFile(t *testing.T) {
	if _, err := LoadProfile("/nonexistent/profile.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProfileValidate(t *testing.T) {
	valid := DefaultProfile()
	if err := valid.Validate(); err != nil {
		t.Errorf("default profile should validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Profile)
	}{
		{"zero base score", func(p *Profile) { p.BaseScore = 0 }},
		{"confidence floor above one", func(p *Profile) { p.ConfidenceFloor = 1.5 }},
		{"no rules", func(p *Profile) { p.Rules = nil }},
		{"unnamed feature", func(p *Profile) { p.Rules[0].Feature = "" }},
		{"bad direction", func(p *Profile) { p.Rules[0].Direction = "sideways" }},
		{"negative penalty", func(p *Profile) { p.Rules[0].Penalty = -1 }},
	}
	for _, tc := range cases {
		p := DefaultProfile()
		tc.mutate(&p)
		if err := p.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}
}
