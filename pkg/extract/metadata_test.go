package extract

import (
	"testing"

	"github.com/notreally/notreally/pkg/models"
)

func TestParseProbeOutput(t *testing.T) {
	output := []byte(`{
		"format": {"duration": "12.480000", "bit_rate": "1205000"},
		"streams": [
			{"codec_type": "audio", "r_frame_rate": "0/0"},
			{"codec_type": "video", "r_frame_rate": "30000/1001"}
		]
	}`)

	fs, err := parseProbeOutput(output)
	if err != nil {
		t.Fatalf("parseProbeOutput failed: %v", err)
	}
	if fs[models.FeatureDurationSeconds] != 12.48 {
		t.Errorf("unexpected duration %v", fs[models.FeatureDurationSeconds])
	}
	if fs[models.FeatureBitRate] != 1205000 {
		t.Errorf("unexpected bitrate %v", fs[models.FeatureBitRate])
	}
	fps := fs[models.FeatureFrameRate]
	if fps < 29.96 || fps > 29.98 {
		t.Errorf("unexpected frame rate %v", fps)
	}
}

func TestParseProbeOutputNoUsableMetadata(t *testing.T) {
	if _, err := parseProbeOutput([]byte(`{"format": {}, "streams": []}`)); err == nil {
		t.Error("expected error for empty probe result")
	}
}

func TestParseProbeOutputInvalidJSON(t *testing.T) {
	if _, err := parseProbeOutput([]byte("garbage")); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseFrameRate(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"30/1", 30, true},
		{"25", 25, true},
		{"0/0", 0, false},
		{"abc", 0, false},
		{"30000/1001", 29.97002997002997, true},
	}
	for _, tc := range cases {
		got, ok := parseFrameRate(tc.in)
		if ok != tc.ok {
			t.Errorf("parseFrameRate(%q) ok = %v, want %v", tc.in, ok, tc.ok)
			continue
		}
		if ok && got != tc.want {
			t.Errorf("parseFrameRate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
