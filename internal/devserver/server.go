// Package devserver emulates the Solveya diagnostic engine's API surface for
// local development and integration tests. It mimics the wire contract, not
// the analysis pipeline: jobs advance on timers and results carry a real
// entropy profile with heuristic anomaly verdicts.
package devserver

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/pkg/logger"
)

type Server struct {
	jobs              *jobStore
	telemetry         *telemetrySource
	mux               *http.ServeMux
	telemetryInterval time.Duration
}

// Option adjusts server timing, mainly so tests can run fast.
type Option func(*Server)

func WithJobDelays(processing, completion time.Duration) Option {
	return func(s *Server) {
		s.jobs.processingDelay = processing
		s.jobs.completionDelay = completion
	}
}

func WithTelemetryInterval(interval time.Duration) Option {
	return func(s *Server) {
		s.telemetryInterval = interval
	}
}

func NewServer(opts ...Option) *Server {
	s := &Server{
		jobs:              newJobStore(),
		telemetryInterval: time.Second,
	}
	s.telemetry = &telemetrySource{jobs: s.jobs}
	for _, opt := range opts {
		opt(s)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/diagnostics", s.handleSubmit)
	mux.HandleFunc("GET /api/v1/diagnostics/{job_id}", s.handleGetJob)
	mux.HandleFunc("POST /api/v1/anomalies/detect", s.handleDetect)
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/telemetry/ws", s.handleTelemetryWS)
	s.mux = mux
	return s
}

// Handler returns the emulator's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	job := s.jobs.submit(data)
	logger.Log.Info("Accepted diagnostic job", "job_id", job.JobID, "file", filename, "bytes", len(data))
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("job_id")
	job := s.jobs.get(jobID)
	if job == nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	data, _, err := readUpload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	profile := profileEntropy(data)
	writeJSON(w, http.StatusOK, detectAnomalies(profile))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := s.telemetry.snapshot()
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    healthStatus(snap),
		Telemetry: snap,
		Version:   "0.1.0",
	})
}

func healthStatus(snap models.TelemetrySnapshot) models.HealthStatus {
	switch {
	case snap.CPUUsage > 90.0 || snap.MemoryUsage > 90.0:
		return models.HealthUnhealthy
	case snap.CPUUsage > 75.0 || snap.MemoryUsage > 75.0:
		return models.HealthDegraded
	default:
		return models.HealthHealthy
	}
}

func readUpload(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", errBadUpload("invalid multipart body")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errBadUpload("missing file field")
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errBadUpload("failed to read file")
	}
	if len(data) == 0 {
		return nil, "", errBadUpload("empty file submitted")
	}
	name := header.Filename
	if strings.TrimSpace(name) == "" {
		return nil, "", errBadUpload("filename missing")
	}
	return data, name, nil
}

type errBadUpload string

func (e errBadUpload) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
