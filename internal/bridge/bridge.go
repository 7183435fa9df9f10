package bridge

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felicia-viz/viz-relay/internal/metrics"
	"github.com/felicia-viz/viz-relay/internal/model"
	"github.com/felicia-viz/viz-relay/internal/topic"
)

// Broadcaster pushes typed frames to browsers.
type Broadcaster interface {
	Broadcast(topic string, data any, msgType string) (int, error)
}

// Journal records topic lifecycle events. Implementations must not block.
type Journal interface {
	RecordTopicEvent(info model.TopicInfo, eventType string, at time.Time)
}

// Config configures the Bridge.
type Config struct {
	SkipPayloadValidation bool // Forward payloads without a wire-format check
	AllowUnknownTopics    bool // Forward payloads for topics not in the map
}

// Stats contains runtime statistics.
type Stats struct {
	TopicUpdates      int64
	PayloadsReceived  int64
	PayloadsForwarded int64
	PayloadsInvalid   int64
	PayloadsUnknown   int64
	LastPayloadAt     time.Time
}

// Status summarises the bridge for health checks.
type Status struct {
	Source    string `json:"source"`
	Connected bool   `json:"connected"`
	Topics    int    `json:"topics"`
}

// Bridge applies producer feeds to the Topic Map and broadcaster.
type Bridge struct {
	cfg         Config
	source      Source
	topics      *topic.Map
	broadcaster Broadcaster
	journal     Journal
	metrics     *metrics.Metrics
	logger      *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a Bridge. journal and m may be nil.
func New(cfg Config, source Source, topics *topic.Map, b Broadcaster, journal Journal, m *metrics.Metrics, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{
		cfg:         cfg,
		source:      source,
		topics:      topics,
		broadcaster: b,
		journal:     journal,
		metrics:     m,
		logger:      logger,
	}
}

// Start subscribes to the source.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.source.Subscribe(ctx, b.HandleTopicInfo, b.HandlePayload); err != nil {
		return err
	}
	b.logger.Info("producer bridge started",
		"source", b.source.Name(),
		"validate_payloads", !b.cfg.SkipPayloadValidation,
		"allow_unknown_topics", b.cfg.AllowUnknownTopics,
	)
	return nil
}

// Stop closes the source.
func (b *Bridge) Stop(ctx context.Context) error {
	err := b.source.Close()
	b.logger.Info("producer bridge stopped", "stats", b.Stats())
	return err
}

// Stats returns current statistics.
func (b *Bridge) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// Status reports the source state and Topic Map size.
func (b *Bridge) Status() Status {
	return Status{
		Source:    b.source.Name(),
		Connected: b.source.Connected(),
		Topics:    b.topics.Len(),
	}
}

// HandleTopicInfo applies a discovery update and broadcasts the full topic
// list to every browser.
func (b *Bridge) HandleTopicInfo(ctx context.Context, info model.TopicInfo) {
	change := b.topics.Apply(info)

	b.mu.Lock()
	b.stats.TopicUpdates++
	b.mu.Unlock()

	b.metrics.TopicEvent(change.EventType)
	b.metrics.SetTopics(b.topics.Len())
	if b.journal != nil {
		b.journal.RecordTopicEvent(info, change.EventType, time.Now())
	}

	b.logger.Info("topic update",
		"topic", info.Topic,
		"type_name", info.TypeName,
		"status", info.Status,
		"event", change.EventType,
	)

	n, err := b.broadcaster.Broadcast(info.Topic, b.topics.List(), model.TypeTopicInfo)
	if err != nil {
		b.logger.Error("failed to broadcast topic list", "error", err)
		return
	}
	b.logger.Debug("topic list broadcast", "connections", n)
}

// HandlePayload forwards one producer payload.
func (b *Bridge) HandlePayload(ctx context.Context, p Payload) {
	b.mu.Lock()
	b.stats.PayloadsReceived++
	b.mu.Unlock()

	info, known := b.topics.Get(p.Topic)
	if !known && !b.cfg.AllowUnknownTopics {
		b.drop(p, metrics.PayloadUnknownTopic, "topic not registered", nil)
		return
	}

	typeName := p.TypeName
	if typeName == "" {
		typeName = info.TypeName
	}
	if typeName == "" {
		b.drop(p, metrics.PayloadUnknownTopic, "no type name", nil)
		return
	}

	if !b.cfg.SkipPayloadValidation {
		if err := ValidateWire(p.Data); err != nil {
			b.drop(p, metrics.PayloadInvalid, "invalid protobuf payload", err)
			return
		}
	}

	if _, err := b.broadcaster.Broadcast(p.Topic, p.Data, typeName); err != nil {
		b.logger.Error("failed to broadcast payload", "topic", p.Topic, "error", err)
		return
	}

	b.mu.Lock()
	b.stats.PayloadsForwarded++
	b.stats.LastPayloadAt = p.ReceivedAt
	b.mu.Unlock()
	b.metrics.Payload(metrics.PayloadForwarded)
}

func (b *Bridge) drop(p Payload, outcome, reason string, err error) {
	b.mu.Lock()
	switch outcome {
	case metrics.PayloadInvalid:
		b.stats.PayloadsInvalid++
	default:
		b.stats.PayloadsUnknown++
	}
	b.mu.Unlock()
	b.metrics.Payload(outcome)

	attrs := []any{"topic", p.Topic, "type_name", p.TypeName, "size", len(p.Data)}
	if err != nil {
		attrs = append(attrs, "error", err)
		b.logger.Warn("dropping payload: "+reason, attrs...)
		return
	}
	b.logger.Debug("dropping payload: "+reason, attrs...)
}
