package connection

import (
	"errors"
	"time"
)

// Errors
var (
	ErrClosed      = errors.New("connection closed")
	ErrDuplicateID = errors.New("connection id already registered")
	ErrNilConn     = errors.New("nil connection")
)

// Conn is one browser connection as seen by the rest of the relay.
type Conn interface {
	// ID returns the generated connection ID.
	ID() string

	// RemoteAddr returns the peer address reported at accept time.
	RemoteAddr() string

	// ConnectedAt returns when the socket was accepted.
	ConnectedAt() time.Time

	// Send queues a text frame. It never blocks on the network.
	Send(frame []byte) error

	// SubscriptionType returns the last message type the client asked for.
	SubscriptionType() string

	// SetSubscriptionType records the message type the client asked for.
	SetSubscriptionType(msgType string)

	// Closed reports whether the transport has closed.
	Closed() bool

	// Done is closed once the transport has closed.
	Done() <-chan struct{}

	// Close shuts the transport. Safe to call more than once.
	Close() error
}

// MessageHandler receives every inbound text frame.
type MessageHandler func(c Conn, data []byte)

// Config configures a WebSocket connection.
type Config struct {
	PingInterval   time.Duration // How often to ping the browser
	PongTimeout    time.Duration // Max time without a pong before closing
	WriteTimeout   time.Duration // Write deadline per frame
	MaxMessageSize int64         // Inbound read limit in bytes
	OutboxSize     int           // Initial outbox capacity
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		PingInterval:   15 * time.Second,
		PongTimeout:    30 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxMessageSize: 64 * 1024,
		OutboxSize:     64,
	}
}
