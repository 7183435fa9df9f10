// Package broadcast fans typed frames out to every registered connection.
package broadcast

import (
	"fmt"
	"log/slog"

	"github.com/felicia-viz/viz-relay/internal/connection"
	"github.com/felicia-viz/viz-relay/internal/metrics"
	"github.com/felicia-viz/viz-relay/internal/model"
)

// Registry is the subset of connection.Registry the broadcaster reads.
type Registry interface {
	Snapshot() []connection.Conn
}

// Config configures the Broadcaster.
type Config struct {
	// FilterBySubscription restricts delivery to connections whose
	// subscription type equals the frame type. Off by default, in which case
	// every live connection receives every frame.
	FilterBySubscription bool
}

// Broadcaster encodes {type, data} frames and queues them on connections.
type Broadcaster struct {
	cfg      Config
	registry Registry
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New creates a Broadcaster over registry. m may be nil.
func New(cfg Config, registry Registry, m *metrics.Metrics, logger *slog.Logger) *Broadcaster {
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		cfg:      cfg,
		registry: registry,
		metrics:  m,
		logger:   logger,
	}
}

// Broadcast pushes {type: msgType, data: data} to every live connection and
// returns how many connections the frame was queued on. topic is used only
// for logging. data may be a []byte (sent as base64), a json.RawMessage
// (sent verbatim) or any JSON-encodable value.
func (b *Broadcaster) Broadcast(topic string, data any, msgType string) (int, error) {
	frame, err := model.EncodeMessage(msgType, data)
	if err != nil {
		return 0, fmt.Errorf("encode %s frame for %s: %w", msgType, topic, err)
	}
	return b.send(topic, frame, msgType), nil
}

func (b *Broadcaster) send(topic string, frame []byte, msgType string) int {
	queued := 0
	for _, c := range b.registry.Snapshot() {
		if c.Closed() {
			continue
		}
		if b.cfg.FilterBySubscription && c.SubscriptionType() != msgType {
			continue
		}
		if err := c.Send(frame); err != nil {
			b.logger.Debug("broadcast send failed", "conn_id", c.ID(), "topic", topic, "error", err)
			continue
		}
		queued++
	}

	b.metrics.Broadcast(msgType, queued)
	return queued
}
