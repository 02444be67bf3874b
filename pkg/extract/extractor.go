package extract

import (
	"context"
	"fmt"

	"github.com/notreally/notreally/pkg/models"
)

// Extractor is one analysis modality. Extractors hold no mutable
// state and are safe to invoke concurrently, including for the same
// job when modalities run in parallel.
type Extractor interface {
	// Name identifies the modality ("facial", "audio", "metadata")
	Name() string
	// Extract decodes the stored input and returns its numeric
	// feature set. Unreadable input, unsupported codecs, and corrupt
	// streams surface as *ExtractionError.
	Extract(ctx context.Context, path string) (models.FeatureSet, error)
}

// ExtractionError is a single-modality failure. It is isolated by
// the job manager: logged and counted, but it never aborts sibling
// extractors and fails the job only when every modality fails.
type ExtractionError struct {
	Modality string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction failed: %v", e.Modality, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
