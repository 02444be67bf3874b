package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/notreally/notreally/pkg/engine"
	"github.com/notreally/notreally/pkg/logging"
	"github.com/notreally/notreally/pkg/models"
	"github.com/notreally/notreally/pkg/store"
)

// Handler handles the analysis API requests
type Handler struct {
	manager        *engine.Manager
	store          store.Store
	logger         *logging.Logger
	uploadDir      string
	maxUploadBytes int64
}

// NewHandler creates an API handler
func NewHandler(manager *engine.Manager, s store.Store, logger *logging.Logger, uploadDir string, maxUploadBytes int64) *Handler {
	if logger == nil {
		logger = logging.NewLogger(logging.INFO, false)
	}
	return &Handler{
		manager:        manager,
		store:          s,
		logger:         logger,
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadBytes,
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/analyze", h.AnalyzeVideo).Methods("POST")
	r.HandleFunc("/api/results/{id}", h.GetResults).Methods("GET")
	r.HandleFunc("/api/jobs", h.ListJobs).Methods("GET")
	r.HandleFunc("/api/health", h.Health).Methods("GET")
	r.HandleFunc("/api/system", h.System).Methods("GET")
}

type submitResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// AnalyzeVideo handles POST /api/analyze: it validates the upload,
// stores it, and creates the analysis job. All submission constraints
// are enforced here, before a job ever exists.
func (h *Handler) AnalyzeVideo(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("file exceeds maximum size of %d bytes", h.maxUploadBytes))
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !isVideoUpload(header.Filename, header.Header.Get("Content-Type")) {
		writeError(w, http.StatusUnsupportedMediaType, "Content type must indicate video")
		return
	}

	dest := filepath.Join(h.uploadDir, uuid.NewString()+"_"+filepath.Base(header.Filename))
	if err := saveUpload(file, dest); err != nil {
		h.logger.Error("failed to store upload", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	jobID, err := h.manager.Submit(r.Context(), header.Filename, dest)
	if err != nil {
		os.Remove(dest)
		if errors.Is(err, engine.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to create job", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "failed to create job")
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		JobID:   jobID,
		Status:  string(models.JobStatusProcessing),
		Message: "Video uploaded successfully",
	})
}

// GetResults handles GET /api/results/{id}: an idempotent,
// non-blocking snapshot of the job record
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	job, err := h.manager.Status(vars["id"])
	if err != nil {
		if errors.Is(err, store.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type jobsListResponse struct {
	Jobs  []*models.Job `json:"jobs"`
	Count int           `json:"count"`
}

// ListJobs handles GET /api/jobs
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.store.GetAllJobs()
	writeJSON(w, http.StatusOK, jobsListResponse{Jobs: jobs, Count: len(jobs)})
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.store.HealthCheck(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "NotReally API is running",
	})
}

type systemResponse struct {
	CPUPercent    float64 `json:"cpu_percent"`
	CPUCount      int     `json:"cpu_count"`
	MemTotalBytes uint64  `json:"mem_total_bytes"`
	MemUsedPct    float64 `json:"mem_used_percent"`
	GoVersion     string  `json:"go_version"`
	ActiveJobs    int     `json:"active_jobs"`
	TotalJobs     int     `json:"total_jobs"`
}

// System handles GET /api/system: a host capacity snapshot so
// operators can judge how much analysis load the node can take
func (h *Handler) System(w http.ResponseWriter, r *http.Request) {
	resp := systemResponse{GoVersion: runtime.Version()}

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		resp.CPUPercent = pct[0]
	}
	if count, err := cpu.Counts(true); err == nil {
		resp.CPUCount = count
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemTotalBytes = vm.Total
		resp.MemUsedPct = vm.UsedPercent
	}
	if jm, err := h.store.GetJobMetrics(); err == nil {
		resp.ActiveJobs = jm.ActiveJobs
		resp.TotalJobs = jm.TotalJobs
	}

	writeJSON(w, http.StatusOK, resp)
}

// isVideoUpload accepts a declared video content type, or falls back
// to well-known container extensions for clients that send
// application/octet-stream
func isVideoUpload(filename, contentType string) bool {
	if strings.HasPrefix(contentType, "video/") {
		return true
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4", ".mov", ".mkv", ".avi", ".webm":
		return true
	}
	return false
}

func saveUpload(src io.Reader, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dest)
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
