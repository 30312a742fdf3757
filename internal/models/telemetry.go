package models

import "encoding/json"

// Channel message types carried over the telemetry websocket.
const (
	ChannelMsgTelemetry = "telemetry"
	ChannelMsgPing      = "ping"
	ChannelMsgPong      = "pong"
)

// TelemetrySnapshot is one backend health sample. Snapshots are immutable;
// each inbound telemetry frame replaces the previous one wholesale.
type TelemetrySnapshot struct {
	CPUUsage    float64 `json:"cpu_usage"`
	MemoryUsage float64 `json:"memory_usage"`
	ActiveJobs  int     `json:"active_jobs"`
	QueueDepth  int     `json:"queue_depth"`
	Timestamp   float64 `json:"timestamp"`
}

// ChannelMessage is the tagged envelope for telemetry websocket frames.
// Data is decoded lazily so unknown message types pass through untouched.
type ChannelMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp float64         `json:"timestamp,omitempty"`

	// Telemetry is the decoded Data for ChannelMsgTelemetry frames, nil
	// for everything else.
	Telemetry *TelemetrySnapshot `json:"-"`
}

// HealthStatus classifies overall engine health.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthResponse is the engine's health endpoint payload.
type HealthResponse struct {
	Status    HealthStatus      `json:"status"`
	Telemetry TelemetrySnapshot `json:"telemetry"`
	Version   string            `json:"version"`
}
