package utils

import "strings"

// BuildTelemetryURL derives the telemetry websocket endpoint from the engine's
// HTTP base URL: http(s) becomes ws(s) and the fixed endpoint path is appended.
func BuildTelemetryURL(baseURL string) string {
	wsURL := strings.Replace(baseURL, "https", "wss", 1)
	wsURL = strings.Replace(wsURL, "http", "ws", 1)
	return strings.TrimSuffix(wsURL, "/") + "/api/v1/telemetry/ws"
}
