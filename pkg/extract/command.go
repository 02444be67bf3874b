package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"

	"github.com/notreally/notreally/pkg/models"
)

// Modality names
const (
	ModalityFacial   = "facial"
	ModalityAudio    = "audio"
	ModalityMetadata = "metadata"
)

// CommandExtractor shells out to an external analyzer process that
// prints a JSON object of feature name to numeric value on stdout.
// The landmark and MFCC implementations live outside this engine;
// this is their fixed output contract.
type CommandExtractor struct {
	name    string
	command []string
}

// NewFacialExtractor wraps the facial-behavior analyzer command.
// Expected output keys: blink_rate, facial_jitter.
func NewFacialExtractor(command []string) *CommandExtractor {
	return &CommandExtractor{name: ModalityFacial, command: command}
}

// NewAudioExtractor wraps the audio-signal analyzer command.
// Expected output key: audio_mfcc_variance.
func NewAudioExtractor(command []string) *CommandExtractor {
	return &CommandExtractor{name: ModalityAudio, command: command}
}

// Name returns the modality name
func (e *CommandExtractor) Name() string {
	return e.name
}

// Extract runs the analyzer over the stored input. The caller bounds
// the run through ctx; a hung analyzer is killed when it expires.
func (e *CommandExtractor) Extract(ctx context.Context, path string) (models.FeatureSet, error) {
	if len(e.command) == 0 {
		return nil, &ExtractionError{Modality: e.name, Err: fmt.Errorf("no analyzer command configured")}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, &ExtractionError{Modality: e.name, Err: fmt.Errorf("input unreadable: %w", err)}
	}

	args := append(append([]string{}, e.command[1:]...), path)
	cmd := exec.CommandContext(ctx, e.command[0], args...)
	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() != nil {
			return nil, &ExtractionError{Modality: e.name, Err: fmt.Errorf("analyzer timed out: %w", ctx.Err())}
		}
		return nil, &ExtractionError{Modality: e.name, Err: fmt.Errorf("analyzer failed: %w", err)}
	}

	var fs models.FeatureSet
	if err := json.Unmarshal(output, &fs); err != nil {
		return nil, &ExtractionError{Modality: e.name, Err: fmt.Errorf("parse analyzer output: %w", err)}
	}
	if len(fs) == 0 {
		return nil, &ExtractionError{Modality: e.name, Err: fmt.Errorf("analyzer produced no features")}
	}
	return fs, nil
}
