package models

import "time"

// EntropyProfile summarizes the Shannon entropy of an analysed binary segment.
type EntropyProfile struct {
	GlobalEntropy           float64 `json:"global_entropy"`
	EntropyRate             float64 `json:"entropy_rate"`
	WindowedEntropyMean     float64 `json:"windowed_entropy_mean"`
	WindowedEntropyVariance float64 `json:"windowed_entropy_variance"`
	WindowedEntropyMin      float64 `json:"windowed_entropy_min"`
	WindowedEntropyMax      float64 `json:"windowed_entropy_max"`
}

// AnomalyResult is the verdict of a single anomaly detector.
type AnomalyResult struct {
	DetectorName string         `json:"detector_name"`
	Score        float64        `json:"score"`
	IsAnomaly    bool           `json:"is_anomaly"`
	Details      map[string]any `json:"details"`
}

// DiagnosticResult is the aggregated output of the engine's analysis pipeline
// for one job.
type DiagnosticResult struct {
	JobID          string          `json:"job_id"`
	Timestamp      time.Time       `json:"timestamp"`
	EntropyProfile *EntropyProfile `json:"entropy_profile,omitempty"`
	AnomalyResults []AnomalyResult `json:"anomaly_results"`
	Metadata       map[string]any  `json:"metadata"`
}
