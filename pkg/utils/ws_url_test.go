package utils

import "testing"

func TestBuildTelemetryURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{"http://localhost:8000", "ws://localhost:8000/api/v1/telemetry/ws"},
		{"https://solveya.example.com", "wss://solveya.example.com/api/v1/telemetry/ws"},
		{"http://10.0.0.5:9000/", "ws://10.0.0.5:9000/api/v1/telemetry/ws"},
	}
	for _, tc := range cases {
		if got := BuildTelemetryURL(tc.base); got != tc.want {
			t.Errorf("BuildTelemetryURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}
