package devserver

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/pkg/logger"
)

// telemetrySource samples host metrics the way the real engine does, with job
// counts taken from the emulated store.
type telemetrySource struct {
	jobs *jobStore
}

func (t *telemetrySource) snapshot() models.TelemetrySnapshot {
	cpuUsage := 0.0
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuUsage = percents[0]
	}
	memUsage := 0.0
	if memStat, err := mem.VirtualMemory(); err == nil {
		memUsage = memStat.UsedPercent
	}
	active, queued := t.jobs.counts()
	return models.TelemetrySnapshot{
		CPUUsage:    cpuUsage,
		MemoryUsage: memUsage,
		ActiveJobs:  active,
		QueueDepth:  queued,
		Timestamp:   float64(time.Now().UnixNano()) / 1e9,
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleTelemetryWS streams telemetry snapshots on a fixed interval and
// answers ping frames with pongs. All writes happen on one goroutine.
func (s *Server) handleTelemetryWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	pings := make(chan struct{}, 4)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg models.ChannelMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if msg.Type == models.ChannelMsgPing {
				select {
				case pings <- struct{}{}:
				default:
				}
			}
		}
	}()

	ticker := time.NewTicker(s.telemetryInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-pings:
			pong := map[string]any{
				"type":      models.ChannelMsgPong,
				"timestamp": float64(time.Now().UnixNano()) / 1e9,
			}
			if err := conn.WriteJSON(pong); err != nil {
				return
			}
		case <-ticker.C:
			frame := map[string]any{
				"type": models.ChannelMsgTelemetry,
				"data": s.telemetry.snapshot(),
			}
			if err := conn.WriteJSON(frame); err != nil {
				logger.Log.Debug("Telemetry client gone", "err", err)
				return
			}
		}
	}
}
