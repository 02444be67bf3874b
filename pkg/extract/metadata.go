package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/notreally/notreally/pkg/models"
)

// MetadataExtractor probes the container with ffprobe and reports
// stream-level signals (duration, bitrate, frame rate). Cheap enough
// to stay enabled even when the heavier modalities are not.
type MetadataExtractor struct {
	ffprobePath string
}

// NewMetadataExtractor creates a metadata extractor. An empty path
// falls back to "ffprobe" on PATH.
func NewMetadataExtractor(ffprobePath string) *MetadataExtractor {
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &MetadataExtractor{ffprobePath: ffprobePath}
}

// Name returns the modality name
func (e *MetadataExtractor) Name() string {
	return ModalityMetadata
}

// Extract probes the file and returns container-level features
func (e *MetadataExtractor) Extract(ctx context.Context, path string) (models.FeatureSet, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &ExtractionError{Modality: e.Name(), Err: fmt.Errorf("input unreadable: %w", err)}
	}

	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
	cmd := exec.CommandContext(ctx, e.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, &ExtractionError{Modality: e.Name(), Err: fmt.Errorf("ffprobe failed: %w", err)}
	}

	fs, err := parseProbeOutput(output)
	if err != nil {
		return nil, &ExtractionError{Modality: e.Name(), Err: err}
	}
	return fs, nil
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

func parseProbeOutput(output []byte) (models.FeatureSet, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	fs := make(models.FeatureSet)
	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		fs[models.FeatureDurationSeconds] = dur
	}
	if br, err := strconv.ParseFloat(probe.Format.BitRate, 64); err == nil {
		fs[models.FeatureBitRate] = br
	}
	for _, stream := range probe.Streams {
		if stream.CodecType == "video" && stream.RFrameRate != "" {
			if fps, ok := parseFrameRate(stream.RFrameRate); ok {
				fs[models.FeatureFrameRate] = fps
			}
			break
		}
	}

	if len(fs) == 0 {
		return nil, fmt.Errorf("ffprobe reported no usable stream metadata")
	}
	return fs, nil
}

// parseFrameRate converts an ffprobe fraction like "30000/1001"
func parseFrameRate(frac string) (float64, bool) {
	parts := strings.SplitN(frac, "/", 2)
	if len(parts) != 2 {
		if v, err := strconv.ParseFloat(frac, 64); err == nil {
			return v, true
		}
		return 0, false
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0, false
	}
	return num / den, true
}
