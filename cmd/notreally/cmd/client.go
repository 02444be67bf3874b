package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/notreally/notreally/pkg/retry"
)

// jobResponse mirrors the server's poll payload
type jobResponse struct {
	JobID       string          `json:"job_id"`
	Filename    string          `json:"filename"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Results     *resultResponse `json:"results"`
}

type resultResponse struct {
	AuthenticityScore float64            `json:"authenticity_score"`
	Confidence        float64            `json:"confidence"`
	Verdict           string             `json:"verdict"`
	Features          map[string]float64 `json:"features"`
	FeaturesAvailable []string           `json:"features_available"`
	Interpretations   map[string]string  `json:"interpretations,omitempty"`
	Summary           string             `json:"summary"`
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type jobsListResponse struct {
	Jobs  []jobResponse `json:"jobs"`
	Count int           `json:"count"`
}

func httpClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Minute}
}

// getJSON fetches a URL with backoff on transient failures
func getJSON(url string, out interface{}) error {
	cfg := retry.Config{
		MaxRetries:     2,
		InitialBackoff: 500 * time.Millisecond,
		MaxBackoff:     5 * time.Second,
		Multiplier:     2.0,
	}
	client := httpClient()

	return retry.Do(context.Background(), cfg, func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("failed to connect to server: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return &apiError{status: resp.StatusCode, body: string(body)}
		}
		return json.Unmarshal(body, out)
	})
}

// apiError carries the server's status so callers can stop retrying
// on definitive answers like 404
type apiError struct {
	status int
	body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.status, e.body)
}

// submitVideo uploads a file and returns the created job id
func submitVideo(path string) (*submitResponse, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "video/mp4"
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filepath.Base(path)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	writer.Close()

	resp, err := httpClient().Post(GetServerURL()+"/api/analyze", writer.FormDataContentType(), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &apiError{status: resp.StatusCode, body: string(body)}
	}

	var result submitResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &result, nil
}

func getJob(jobID string) (*jobResponse, error) {
	var job jobResponse
	if err := getJSON(GetServerURL()+"/api/results/"+jobID, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// pollUntilTerminal polls the job every interval until it completes
// or fails. The server never blocks a poll; this loop is the
// cooperative retry the engine expects clients to run.
func pollUntilTerminal(jobID string, interval time.Duration) (*jobResponse, error) {
	for {
		job, err := getJob(jobID)
		if err != nil {
			return nil, err
		}
		if job.Status == "completed" || job.Status == "failed" {
			return job, nil
		}
		fmt.Printf("job %s: %s...\n", jobID, job.Status)
		time.Sleep(interval)
	}
}
