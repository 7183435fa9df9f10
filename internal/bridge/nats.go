package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/felicia-viz/viz-relay/internal/model"
)

var errMissingTopic = errors.New("topic info without topic")

// Subject suffixes under the configured prefix.
const (
	subjectTopicInfo = "topic_info"
	subjectData      = "data"
)

// TopicInfoSubject returns the discovery subject for prefix.
func TopicInfoSubject(prefix string) string {
	return prefix + "." + subjectTopicInfo
}

// DataSubject returns the payload subject for topic under prefix.
func DataSubject(prefix, topic string) string {
	return prefix + "." + subjectData + "." + topic
}

// NATSSource reads discovery updates and payloads from NATS.
type NATSSource struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

// DialNATS connects to a NATS server and returns a source reading subjects
// under prefix. The connection reconnects forever.
func DialNATS(url, prefix, clientName string, logger *slog.Logger) (*NATSSource, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("source", "nats")

	nc, err := nats.Connect(url,
		nats.Name(clientName),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}

	return NewNATSSource(nc, prefix, logger), nil
}

// NewNATSSource wraps an existing connection.
func NewNATSSource(nc *nats.Conn, prefix string, logger *slog.Logger) *NATSSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSSource{nc: nc, prefix: prefix, logger: logger}
}

func (s *NATSSource) Name() string { return "nats" }

func (s *NATSSource) Connected() bool {
	return s.nc != nil && s.nc.IsConnected()
}

// Subscribe listens on <prefix>.topic_info and <prefix>.data.>.
func (s *NATSSource) Subscribe(ctx context.Context, onTopic TopicInfoHandler, onPayload PayloadHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSourceClosed
	}
	if len(s.subs) > 0 {
		return ErrAlreadySubscribed
	}

	infoSub, err := s.nc.Subscribe(TopicInfoSubject(s.prefix), func(msg *nats.Msg) {
		info, err := decodeTopicInfo(msg)
		if err != nil {
			s.logger.Warn("dropping malformed topic info", "subject", msg.Subject, "error", err)
			return
		}
		onTopic(ctx, info)
	})
	if err != nil {
		return fmt.Errorf("subscribe topic info: %w", err)
	}

	dataSub, err := s.nc.Subscribe(s.prefix+"."+subjectData+".>", func(msg *nats.Msg) {
		p, ok := s.decodePayload(msg)
		if !ok {
			s.logger.Warn("dropping payload on unexpected subject", "subject", msg.Subject)
			return
		}
		onPayload(ctx, p)
	})
	if err != nil {
		_ = infoSub.Unsubscribe()
		return fmt.Errorf("subscribe payloads: %w", err)
	}

	s.subs = []*nats.Subscription{infoSub, dataSub}
	s.logger.Info("subscribed to producer feeds",
		"topic_info", infoSub.Subject,
		"data", dataSub.Subject,
	)
	return nil
}

// Close unsubscribes and closes the connection.
func (s *NATSSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	for _, sub := range s.subs {
		_ = sub.Unsubscribe()
	}
	s.subs = nil

	if s.nc != nil {
		_ = s.nc.Flush()
		s.nc.Close()
	}
	return nil
}

func decodeTopicInfo(msg *nats.Msg) (model.TopicInfo, error) {
	var info model.TopicInfo
	if err := json.Unmarshal(msg.Data, &info); err != nil {
		return model.TopicInfo{}, err
	}
	if info.Topic == "" {
		return model.TopicInfo{}, errMissingTopic
	}
	return info, nil
}

// decodePayload maps <prefix>.data.<topic> to a Payload.
func (s *NATSSource) decodePayload(msg *nats.Msg) (Payload, bool) {
	topic, ok := strings.CutPrefix(msg.Subject, s.prefix+"."+subjectData+".")
	if !ok || topic == "" {
		return Payload{}, false
	}

	var typeName string
	if msg.Header != nil {
		typeName = msg.Header.Get(TypeNameHeader)
	}

	return Payload{
		Topic:      topic,
		TypeName:   typeName,
		Data:       msg.Data,
		ReceivedAt: time.Now(),
	}, true
}

// NATSPublisher publishes producer feeds. It backs the probe's produce mode.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// NewNATSPublisher wraps a connection publishing under prefix.
func NewNATSPublisher(nc *nats.Conn, prefix string) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: prefix}
}

// PublishTopicInfo announces or withdraws a topic.
func (p *NATSPublisher) PublishTopicInfo(info model.TopicInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode topic info: %w", err)
	}
	return p.nc.Publish(TopicInfoSubject(p.prefix), data)
}

// PublishPayload publishes protobuf bytes for topic with its type name header.
func (p *NATSPublisher) PublishPayload(topic, typeName string, data []byte) error {
	msg := nats.NewMsg(DataSubject(p.prefix, topic))
	msg.Data = data
	if typeName != "" {
		msg.Header.Set(TypeNameHeader, typeName)
	}
	return p.nc.PublishMsg(msg)
}

// Flush waits for published messages to reach the server.
func (p *NATSPublisher) Flush() error {
	return p.nc.Flush()
}
