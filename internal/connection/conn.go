package connection

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/felicia-viz/viz-relay/internal/queue"
)

// WSConn implements Conn over a gorilla WebSocket.
type WSConn struct {
	cfg    Config
	logger *slog.Logger

	id          string
	remoteAddr  string
	connectedAt time.Time

	ws     *websocket.Conn
	outbox *queue.Queue[[]byte]
	done   chan struct{}

	closeOnce sync.Once

	// State
	mu       sync.RWMutex
	subType  string
	lastPong time.Time
	closed   bool
}

// NewConn wraps an upgraded WebSocket. Call Start to begin reading.
func NewConn(ws *websocket.Conn, cfg Config, logger *slog.Logger) *WSConn {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	now := time.Now()

	return &WSConn{
		cfg:         cfg,
		logger:      logger.With("conn_id", id),
		id:          id,
		remoteAddr:  ws.RemoteAddr().String(),
		connectedAt: now,
		ws:          ws,
		outbox:      queue.New[[]byte](cfg.OutboxSize),
		done:        make(chan struct{}),
		lastPong:    now,
	}
}

// Start launches the read loop, write pump and heartbeat. It returns
// immediately; Done reports when the connection has ended.
func (c *WSConn) Start(onMessage MessageHandler) {
	if c.cfg.MaxMessageSize > 0 {
		c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	}
	c.ws.SetPongHandler(func(string) error {
		c.mu.Lock()
		c.lastPong = time.Now()
		c.mu.Unlock()
		return nil
	})

	go c.readLoop(onMessage)
	go c.writePump()
	go c.heartbeatLoop()

	c.logger.Debug("connection started", "remote_addr", c.remoteAddr)
}

func (c *WSConn) ID() string             { return c.id }
func (c *WSConn) RemoteAddr() string     { return c.remoteAddr }
func (c *WSConn) ConnectedAt() time.Time { return c.connectedAt }
func (c *WSConn) Done() <-chan struct{}  { return c.done }

// Send queues a frame for the write pump.
func (c *WSConn) Send(frame []byte) error {
	if c.Closed() {
		return ErrClosed
	}
	if !c.outbox.Push(frame) {
		return ErrClosed
	}
	return nil
}

func (c *WSConn) SubscriptionType() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.subType
}

func (c *WSConn) SetSubscriptionType(msgType string) {
	c.mu.Lock()
	c.subType = msgType
	c.mu.Unlock()
}

func (c *WSConn) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// Close sends a close frame and tears down the socket.
func (c *WSConn) Close() error {
	return c.closeWith(websocket.CloseNormalClosure, "")
}

func (c *WSConn) closeWith(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.done)
		c.outbox.Close()

		// Best effort; the peer may already be gone.
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason),
			time.Now().Add(time.Second),
		)
		err = c.ws.Close()

		stats := c.outbox.Stats()
		c.logger.Debug("connection closed",
			"code", code,
			"frames_sent", stats.Popped,
			"frames_dropped", stats.Queued,
			"outbox_peak", stats.Peak,
		)
	})
	return err
}

// readLoop hands inbound text frames to onMessage until the socket fails.
func (c *WSConn) readLoop(onMessage MessageHandler) {
	defer c.Close()

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if c.Closed() {
				return
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Debug("read failed", "error", err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if onMessage != nil {
			onMessage(c, data)
		}
	}
}

// writePump is the only goroutine that writes data frames.
func (c *WSConn) writePump() {
	for {
		frame, ok := c.outbox.Pop()
		if !ok {
			return
		}

		c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
			if !c.Closed() {
				c.logger.Debug("write failed", "error", err)
			}
			c.Close()
			return
		}
	}
}

// heartbeatLoop pings the browser and closes stale connections.
func (c *WSConn) heartbeatLoop() {
	if c.cfg.PingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.mu.RLock()
			lastPong := c.lastPong
			c.mu.RUnlock()

			if c.cfg.PongTimeout > 0 && time.Since(lastPong) > c.cfg.PongTimeout {
				c.logger.Warn("no pong received, closing stale connection",
					"last_pong", lastPong,
					"timeout", c.cfg.PongTimeout,
				)
				c.closeWith(websocket.CloseGoingAway, "pong timeout")
				return
			}

			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
			}
		}
	}
}
