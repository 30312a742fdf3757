package devserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/solveya/console/internal/api"
	"github.com/solveya/console/internal/channel"
	"github.com/solveya/console/internal/jobs"
	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/pkg/utils"
)

func newEmulator(t *testing.T) (*api.Client, *httptest.Server) {
	t.Helper()
	server := NewServer(
		WithJobDelays(10*time.Millisecond, 20*time.Millisecond),
		WithTelemetryInterval(10*time.Millisecond),
	)
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)
	return api.NewClient(srv.URL, 5*time.Second), srv
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestJobRunsToCompletionThroughController(t *testing.T) {
	client, _ := newEmulator(t)

	controller := jobs.NewController(client, 10*time.Millisecond)
	defer controller.Close()

	err := controller.Submit(context.Background(), "firmware.bin", strings.NewReader("some firmware bytes"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, "completion", func() bool { return !controller.Snapshot().Loading })

	snap := controller.Snapshot()
	if snap.Err != "" {
		t.Fatalf("unexpected error: %q", snap.Err)
	}
	if snap.Job.Status != models.JobCompleted {
		t.Fatalf("status = %s, want completed", snap.Job.Status)
	}
	result := snap.Result()
	if result == nil || result.EntropyProfile == nil {
		t.Fatal("completed job should carry an entropy profile")
	}
	if len(result.AnomalyResults) == 0 {
		t.Error("completed job should carry anomaly results")
	}
}

func TestSubmitRejectsEmptyFile(t *testing.T) {
	client, _ := newEmulator(t)

	_, err := client.SubmitDiagnostic(context.Background(), "empty.bin", strings.NewReader(""))
	if err == nil {
		t.Fatal("empty upload should be rejected")
	}
}

func TestUnknownJobIsNotFound(t *testing.T) {
	client, _ := newEmulator(t)

	_, err := client.GetJob(context.Background(), "nope")
	if err == nil {
		t.Fatal("unknown job should return an error")
	}
}

func TestHealthEndpoint(t *testing.T) {
	client, _ := newEmulator(t)

	health, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if health.Status == "" || health.Version == "" {
		t.Errorf("health = %+v", health)
	}
}

func TestDetectEndpointFlagsHighEntropy(t *testing.T) {
	client, _ := newEmulator(t)

	// 4 KiB that cycles through every byte value uniformly: entropy 8.0.
	noise := make([]byte, 4096)
	for i := range noise {
		noise[i] = byte(i)
	}
	results, err := client.DetectAnomalies(context.Background(), "noise.bin", strings.NewReader(string(noise)))
	if err != nil {
		t.Fatalf("DetectAnomalies: %v", err)
	}
	if len(results) == 0 || !results[0].IsAnomaly {
		t.Errorf("uniform noise should be flagged, got %+v", results)
	}
}

func TestTelemetryWebSocketStreamsAndAnswersPings(t *testing.T) {
	_, srv := newEmulator(t)

	ch := channel.New(utils.BuildTelemetryURL(srv.URL), 20*time.Millisecond, 10*time.Millisecond)
	defer ch.Disconnect()

	var gotTelemetry, gotPong atomic.Bool
	ch.Subscribe(func(msg models.ChannelMessage) {
		switch msg.Type {
		case models.ChannelMsgTelemetry:
			if msg.Telemetry != nil {
				gotTelemetry.Store(true)
			}
		case models.ChannelMsgPong:
			gotPong.Store(true)
		}
	})

	ch.Connect()
	waitFor(t, "telemetry frame", func() bool { return gotTelemetry.Load() })
	waitFor(t, "pong frame", func() bool { return gotPong.Load() })
	if !ch.IsConnected() {
		t.Error("channel should report connected")
	}
}

func TestEntropyProfile(t *testing.T) {
	uniform := make([]byte, 4096)
	for i := range uniform {
		uniform[i] = byte(i)
	}
	profile := profileEntropy(uniform)
	if profile.GlobalEntropy < 7.9 {
		t.Errorf("uniform data entropy = %.3f, want ~8.0", profile.GlobalEntropy)
	}

	constant := make([]byte, 4096)
	profile = profileEntropy(constant)
	if profile.GlobalEntropy != 0 {
		t.Errorf("constant data entropy = %.3f, want 0", profile.GlobalEntropy)
	}
	if profile.WindowedEntropyMin != 0 || profile.WindowedEntropyMax != 0 {
		t.Errorf("constant data windowed profile = %+v", profile)
	}
}
