package channel

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/solveya/console/internal/models"
	"github.com/solveya/console/pkg/logger"
)

// ConnState tracks the telemetry connection lifecycle.
type ConnState int

const (
	Disconnected ConnState = iota
	Connecting
	Open
)

// Listener receives every parsed telemetry frame. Telemetry frames carry the
// decoded snapshot in msg.Telemetry.
type Listener func(msg models.ChannelMessage)

// Channel owns one persistent websocket to the engine's telemetry feed. It
// reconnects after a fixed delay when the connection drops unexpectedly and
// fans every parsed frame out to its subscribers. Disconnect is the only path
// that suppresses reconnection.
//
// A socket error is folded into the close path: the connection is force
// closed and the usual unexpected-close recovery runs. Each physical
// connection carries a generation number; goroutines serving a superseded
// connection notice the mismatch and exit without touching state.
type Channel struct {
	url            string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	dialer         *websocket.Dialer

	mu             sync.Mutex
	state          ConnState
	conn           *websocket.Conn
	connGen        int
	closed         bool
	alive          bool
	reconnectTimer *time.Timer
	subs           map[int]Listener
	nextSub        int
}

func New(url string, reconnectDelay, pingInterval time.Duration) *Channel {
	return &Channel{
		url:            url,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		dialer:         websocket.DefaultDialer,
		subs:           make(map[int]Listener),
	}
}

// Connect opens the telemetry connection. It is idempotent: a no-op while a
// connection is open or being established. It also clears the explicit-close
// flag set by Disconnect.
func (c *Channel) Connect() {
	c.mu.Lock()
	c.closed = false
	if c.state == Open || c.state == Connecting {
		c.mu.Unlock()
		return
	}
	c.stopReconnectLocked()
	c.state = Connecting
	c.connGen++
	gen := c.connGen
	c.mu.Unlock()

	go c.dial(gen)
}

// Disconnect closes the connection and suppresses any future reconnect until
// the next Connect call.
func (c *Channel) Disconnect() {
	c.mu.Lock()
	c.closed = true
	c.stopReconnectLocked()
	c.connGen++ // orphan any goroutines still serving the old connection
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.state = Disconnected
	c.alive = false
	c.mu.Unlock()
}

// Subscribe registers a listener and returns its unsubscribe function.
// Unsubscribing during a dispatch is safe and does not affect delivery to
// other listeners of the same frame.
func (c *Channel) Subscribe(listener Listener) func() {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = listener
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// IsConnected reports whether at least one telemetry or pong frame has
// arrived since the last disconnect.
func (c *Channel) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

// State returns the current connection state.
func (c *Channel) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Channel) dial(gen int) {
	conn, _, err := c.dialer.Dial(c.url, nil)

	c.mu.Lock()
	if gen != c.connGen || c.closed {
		c.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		logger.Log.Error("Telemetry connection failed", "url", c.url, "err", err)
		c.state = Disconnected
		c.scheduleReconnectLocked()
		c.mu.Unlock()
		return
	}
	c.conn = conn
	c.state = Open
	c.stopReconnectLocked()
	c.mu.Unlock()

	logger.Log.Info("Telemetry connected", "url", c.url)
	go c.readLoop(gen, conn)
	go c.pingLoop(gen, conn)
}

// readLoop is the only reader of its connection. Delivery runs on this
// goroutine, so subscribers observe frames in stream order.
func (c *Channel) readLoop(gen int, conn *websocket.Conn) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			c.connectionLost(gen, conn, err)
			return
		}
		c.handleFrame(raw)
	}
}

func (c *Channel) handleFrame(raw []byte) {
	var msg models.ChannelMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		// A malformed frame is dropped; it never closes the connection.
		logger.Log.Warn("Dropping unparsable telemetry frame", "err", err)
		return
	}
	if msg.Type == models.ChannelMsgTelemetry {
		var snap models.TelemetrySnapshot
		if err := json.Unmarshal(msg.Data, &snap); err != nil {
			logger.Log.Warn("Dropping telemetry frame with bad payload", "err", err)
			return
		}
		msg.Telemetry = &snap
	}

	c.mu.Lock()
	if msg.Type == models.ChannelMsgTelemetry || msg.Type == models.ChannelMsgPong {
		c.alive = true
	}
	listeners := make([]Listener, 0, len(c.subs))
	for _, fn := range c.subs {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(msg)
	}
}

// connectionLost handles both read errors and remote closes: the connection
// is force closed and a single reconnect is armed unless Disconnect was
// called.
func (c *Channel) connectionLost(gen int, conn *websocket.Conn, err error) {
	_ = conn.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.connGen {
		return
	}
	logger.Log.Warn("Telemetry connection lost", "err", err)
	c.conn = nil
	c.state = Disconnected
	c.alive = false
	if !c.closed {
		c.scheduleReconnectLocked()
	}
}

func (c *Channel) scheduleReconnectLocked() {
	if c.reconnectTimer != nil {
		return
	}
	c.reconnectTimer = time.AfterFunc(c.reconnectDelay, func() {
		c.mu.Lock()
		c.reconnectTimer = nil
		closed := c.closed
		c.mu.Unlock()
		if !closed {
			logger.Log.Info("Reconnecting telemetry", "url", c.url)
			c.Connect()
		}
	})
}

func (c *Channel) stopReconnectLocked() {
	if c.reconnectTimer != nil {
		c.reconnectTimer.Stop()
		c.reconnectTimer = nil
	}
}

// pingLoop keeps the feed responsive; the engine answers each ping with a
// pong, which refreshes IsConnected. All writes to a connection happen here.
func (c *Channel) pingLoop(gen int, conn *websocket.Conn) {
	if c.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()
	for range ticker.C {
		c.mu.Lock()
		stale := gen != c.connGen || c.state != Open
		c.mu.Unlock()
		if stale {
			return
		}
		if err := conn.WriteJSON(map[string]string{"type": models.ChannelMsgPing}); err != nil {
			return
		}
	}
}
