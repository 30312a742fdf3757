package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/solveya/console/internal/models"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 5*time.Second), srv
}

func TestSubmitDiagnosticSendsMultipartFile(t *testing.T) {
	var gotField, gotFilename, gotBody string
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/diagnostics" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		gotField = "file"
		gotFilename = header.Filename
		body, _ := io.ReadAll(file)
		gotBody = string(body)
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(models.JobResponse{JobID: "abc", Status: models.JobPending})
	}))
	defer srv.Close()

	resp, err := client.SubmitDiagnostic(context.Background(), "firmware.bin", strings.NewReader("\x7fELF payload"))
	if err != nil {
		t.Fatalf("SubmitDiagnostic: %v", err)
	}
	if resp.JobID != "abc" || resp.Status != models.JobPending {
		t.Errorf("response = %+v", resp)
	}
	if gotField != "file" || gotFilename != "firmware.bin" || gotBody != "\x7fELF payload" {
		t.Errorf("upload mismatch: field=%q filename=%q body=%q", gotField, gotFilename, gotBody)
	}
}

func TestGetJob(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/diagnostics/abc" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.JobResponse{
			JobID:  "abc",
			Status: models.JobCompleted,
			Result: &models.DiagnosticResult{JobID: "abc"},
		})
	}))
	defer srv.Close()

	resp, err := client.GetJob(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if resp.Status != models.JobCompleted || resp.Result == nil {
		t.Errorf("response = %+v", resp)
	}
}

func TestErrorDetailIsSurfaced(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"detail": "Job not found"})
	}))
	defer srv.Close()

	_, err := client.GetJob(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "Job not found") {
		t.Errorf("error should carry the server detail, got %q", err.Error())
	}
}

func TestHealth(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.HealthResponse{
			Status:    models.HealthDegraded,
			Telemetry: models.TelemetrySnapshot{CPUUsage: 81.0},
			Version:   "0.1.0",
		})
	}))
	defer srv.Close()

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status != models.HealthDegraded || health.Telemetry.CPUUsage != 81.0 {
		t.Errorf("health = %+v", health)
	}
}

func TestDetectAnomalies(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/anomalies/detect" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode([]models.AnomalyResult{
			{DetectorName: "IsolationForest", Score: 0.91, IsAnomaly: true},
		})
	}))
	defer srv.Close()

	results, err := client.DetectAnomalies(context.Background(), "segment.bin", strings.NewReader("data"))
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if len(results) != 1 || !results[0].IsAnomaly {
		t.Errorf("results = %+v", results)
	}
}
