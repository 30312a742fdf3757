package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds console configuration. Fields are unexported to prevent modification.
type Config struct {
	serverURL          string
	telemetryURL       string
	pollInterval       time.Duration
	reconnectDelay     time.Duration
	pingInterval       time.Duration
	httpTimeout        time.Duration
	healthProbeTimer   time.Duration
	dropFolder         string
	logFile            string
	serviceName        string
	serviceDisplayName string
	serviceDescription string
}

func New() *Config {
	_ = godotenv.Load() // ignore error if .env not found

	serverURL := os.Getenv("SOLVEYA_SERVER_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8000"
	}

	dropFolder := os.Getenv("DROP_FOLDER")
	if dropFolder == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dropFolder = filepath.Join(home, "solveya-inbox")
		}
	}

	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "solveya-console.log"
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "SolveyaConsole"
	}

	serviceDisplayName := os.Getenv("SERVICE_DISPLAY_NAME")
	if serviceDisplayName == "" {
		serviceDisplayName = "Solveya Console Agent"
	}

	serviceDescription := os.Getenv("SERVICE_DESCRIPTION")
	if serviceDescription == "" {
		serviceDescription = "Submits binary artifacts to the Solveya diagnostic engine and mirrors its live telemetry feed"
	}

	return &Config{
		serverURL:          serverURL,
		telemetryURL:       os.Getenv("TELEMETRY_WS_URL"),
		pollInterval:       durationMS("POLL_INTERVAL_MS", 1000),
		reconnectDelay:     durationMS("RECONNECT_DELAY_MS", 3000),
		pingInterval:       durationSec("PING_INTERVAL", 15),
		httpTimeout:        durationSec("HTTP_TIMEOUT", 30),
		healthProbeTimer:   durationSec("HEALTH_PROBE_TIMER", 30),
		dropFolder:         dropFolder,
		logFile:            logFile,
		serviceName:        serviceName,
		serviceDisplayName: serviceDisplayName,
		serviceDescription: serviceDescription,
	}
}

func durationMS(key string, def int) time.Duration {
	ms, err := strconv.Atoi(os.Getenv(key))
	if err != nil || ms <= 0 {
		ms = def
	}
	return time.Duration(ms) * time.Millisecond
}

func durationSec(key string, def int) time.Duration {
	sec, err := strconv.Atoi(os.Getenv(key))
	if err != nil || sec <= 0 {
		sec = def
	}
	return time.Duration(sec) * time.Second
}

// Getter methods (immutable from outside)

func (c *Config) ServerURL() string {
	return c.serverURL
}

// TelemetryURL is the explicit websocket override; empty means derive the
// endpoint from the server URL.
func (c *Config) TelemetryURL() string {
	return c.telemetryURL
}

func (c *Config) PollInterval() time.Duration {
	return c.pollInterval
}

func (c *Config) ReconnectDelay() time.Duration {
	return c.reconnectDelay
}

func (c *Config) PingInterval() time.Duration {
	return c.pingInterval
}

func (c *Config) HTTPTimeout() time.Duration {
	return c.httpTimeout
}

func (c *Config) HealthProbeTimer() time.Duration {
	return c.healthProbeTimer
}

func (c *Config) DropFolder() string {
	return c.dropFolder
}

func (c *Config) LogFile() string {
	return c.logFile
}

func (c *Config) ServiceName() string {
	return c.serviceName
}

func (c *Config) ServiceDisplayName() string {
	return c.serviceDisplayName
}

func (c *Config) ServiceDescription() string {
	return c.serviceDescription
}
