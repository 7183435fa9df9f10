package router

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/felicia-viz/viz-relay/internal/connection"
	"github.com/felicia-viz/viz-relay/internal/metrics"
	"github.com/felicia-viz/viz-relay/internal/model"
)

var errNullEnvelope = errors.New("envelope is null")

// TopicSource is the read side of the Topic Map.
type TopicSource interface {
	List() []model.TopicInfo
	Summaries() []model.TopicSummary
}

// Router dispatches inbound browser frames.
type Router interface {
	// Route handles one raw frame from c. It never fails; problems are
	// logged and counted.
	Route(c connection.Conn, data []byte)

	// Stats returns current router statistics.
	Stats() RouterStats
}

// RouterStats contains runtime statistics.
type RouterStats struct {
	MessagesReceived int64
	ParseErrors      int64
	UnknownMessages  int64
	ResponsesSent    int64
	SendErrors       int64
}

// router is the internal implementation.
type router struct {
	topics  TopicSource
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu    sync.Mutex
	stats RouterStats
}

// NewRouter creates a Router answering from topics. m may be nil.
func NewRouter(topics TopicSource, m *metrics.Metrics, logger *slog.Logger) Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &router{
		topics:  topics,
		metrics: m,
		logger:  logger,
	}
}

// Stats returns current statistics.
func (r *router) Stats() RouterStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Route parses and dispatches a single frame.
func (r *router) Route(c connection.Conn, data []byte) {
	r.count(func(s *RouterStats) { s.MessagesReceived++ })

	envelope, err := parseEnvelope(data)
	if err != nil {
		r.logger.Warn("failed to parse client message",
			"conn_id", c.ID(),
			"error", err,
			"size", len(data),
		)
		r.count(func(s *RouterStats) { s.ParseErrors++ })
		r.metrics.RouterMessage(metrics.OutcomeParseError)
		return
	}

	c.SetSubscriptionType(envelope.Type)

	switch envelope.Type {
	case model.TypeTopicInfo:
		r.metrics.RouterMessage(metrics.OutcomeTopicInfo)
		r.handleTopicInfo(c)

	case model.TypeMetaInfo:
		r.metrics.RouterMessage(metrics.OutcomeMetaInfo)
		r.handleMetaInfo(c, envelope.QueryType)

	default:
		r.logger.Debug("ignoring client message type", "conn_id", c.ID(), "type", envelope.Type)
		r.count(func(s *RouterStats) { s.UnknownMessages++ })
		r.metrics.RouterMessage(metrics.OutcomeUnknown)
	}
}

// handleTopicInfo sends every Topic Map entry to the requester.
func (r *router) handleTopicInfo(c connection.Conn) {
	frame, err := model.EncodeMessage(model.TypeTopicInfo, r.topics.List())
	if err != nil {
		r.logger.Error("failed to encode topic info", "error", err)
		return
	}
	r.reply(c, frame)
}

// handleMetaInfo answers a META_INFO query. Unknown query types are ignored.
func (r *router) handleMetaInfo(c connection.Conn, queryType string) {
	switch queryType {
	case model.QueryTopics:
		frame, err := model.EncodeQueryResponse(model.QueryTopics, r.topics.Summaries())
		if err != nil {
			r.logger.Error("failed to encode topics query", "error", err)
			return
		}
		r.reply(c, frame)

	default:
		r.logger.Debug("ignoring meta info query", "conn_id", c.ID(), "query_type", queryType)
		r.count(func(s *RouterStats) { s.UnknownMessages++ })
	}
}

func (r *router) reply(c connection.Conn, frame []byte) {
	if err := c.Send(frame); err != nil {
		r.logger.Debug("failed to send response", "conn_id", c.ID(), "error", err)
		r.count(func(s *RouterStats) { s.SendErrors++ })
		return
	}
	r.count(func(s *RouterStats) { s.ResponsesSent++ })
	r.metrics.FrameQueued()
}

func (r *router) count(fn func(s *RouterStats)) {
	r.mu.Lock()
	fn(&r.stats)
	r.mu.Unlock()
}

// parseEnvelope decodes the envelope. A JSON null is rejected like any
// other malformed frame.
func parseEnvelope(data []byte) (model.InboundEnvelope, error) {
	var envelope *model.InboundEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return model.InboundEnvelope{}, err
	}
	if envelope == nil {
		return model.InboundEnvelope{}, errNullEnvelope
	}
	return *envelope, nil
}
