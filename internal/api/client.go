package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/solveya/console/internal/models"
)

const apiPrefix = "/api/v1"

// Client talks to the Solveya diagnostic engine's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SubmitDiagnostic uploads a binary artifact and returns the accepted job.
func (c *Client) SubmitDiagnostic(ctx context.Context, filename string, data io.Reader) (*models.JobResponse, error) {
	resp, err := c.postFile(ctx, apiPrefix+"/diagnostics", filename, data)
	if err != nil {
		return nil, fmt.Errorf("submit diagnostic: %w", err)
	}
	return resp, nil
}

// GetJob fetches the current status (and result, once completed) of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*models.JobResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+"/diagnostics/"+jobID, nil)
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	var job models.JobResponse
	if err := c.do(req, &job); err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	return &job, nil
}

// DetectAnomalies runs synchronous anomaly detection on a binary segment,
// bypassing the job pipeline.
func (c *Client) DetectAnomalies(ctx context.Context, filename string, data io.Reader) ([]models.AnomalyResult, error) {
	body, contentType, err := fileForm(filename, data)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPrefix+"/anomalies/detect", body)
	if err != nil {
		return nil, fmt.Errorf("detect anomalies: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	var results []models.AnomalyResult
	if err := c.do(req, &results); err != nil {
		return nil, fmt.Errorf("detect anomalies: %w", err)
	}
	return results, nil
}

// Health returns the engine's health status and its latest telemetry sample.
func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+apiPrefix+"/health", nil)
	if err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	var health models.HealthResponse
	if err := c.do(req, &health); err != nil {
		return nil, fmt.Errorf("health: %w", err)
	}
	return &health, nil
}

func (c *Client) postFile(ctx context.Context, path, filename string, data io.Reader) (*models.JobResponse, error) {
	body, contentType, err := fileForm(filename, data)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	var job models.JobResponse
	if err := c.do(req, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func fileForm(filename string, data io.Reader) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, data); err != nil {
		return nil, "", err
	}
	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return body, form.FormDataContentType(), nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Detail != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Detail)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
