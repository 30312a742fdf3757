package channel

import (
	"sync"

	"github.com/solveya/console/internal/config"
	"github.com/solveya/console/pkg/utils"
)

var (
	sharedOnce sync.Once
	shared     *Channel
)

// Shared returns the process-wide telemetry channel, creating it on first
// use. All consumers share the single socket; the channel stays up when
// individual observers unsubscribe and is torn down only by an explicit
// Disconnect.
func Shared(cfg *config.Config) *Channel {
	sharedOnce.Do(func() {
		url := cfg.TelemetryURL()
		if url == "" {
			url = utils.BuildTelemetryURL(cfg.ServerURL())
		}
		shared = New(url, cfg.ReconnectDelay(), cfg.PingInterval())
	})
	return shared
}
